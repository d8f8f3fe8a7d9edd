package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/agent"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/config"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/httpserver"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/llm"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/stt"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/telephony"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/tts"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load(logger)

	st, err := store.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.LLMModel)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}

	registry := tts.NewRegistry()
	if cfg.ElevenLabsAPIKey != "" {
		registry.Register(tts.EngineElevenLabs, tts.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID))
	}
	registry.Register(tts.EngineDeepgram, tts.NewDeepgramClient(cfg.DeepgramAPIKey, ""))

	manager := agent.NewManager(agent.Deps{
		Transcriber:  stt.NewDeepgramClient(cfg.DeepgramAPIKey, ""),
		Completer:    llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL),
		Synthesizers: registry,
		Telephony:    telephony.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger),
		Appointments: st,
		Configs:      st,
		Logger:       logger,
	})

	srv := httpserver.New(cfg, manager, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", cfg.HTTPAddress))
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
}
