package tts

import (
	"context"
	"fmt"
	"sync"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

// DeepgramClient renders speech through Deepgram's speak websocket,
// collecting the streamed audio into one μ-law 8kHz buffer.
type DeepgramClient struct {
	apiKey       string
	defaultModel string
	sampleRate   int
	encoding     string
}

// NewDeepgramClient constructs a speak client. model selects the default
// Aura voice.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &DeepgramClient{apiKey: apiKey, defaultModel: model, sampleRate: 8000, encoding: "mulaw"}
}

// Synthesize returns the complete audio for text. voiceID selects the Aura
// model; empty uses the configured default.
func (d *DeepgramClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if d.apiKey == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("deepgram api key missing")}
	}
	if text == "" {
		return nil, nil
	}
	model := voiceID
	if model == "" {
		model = d.defaultModel
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var mu sync.Mutex
	var audio []byte
	var lastRecv time.Time

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		mu.Lock()
		audio = append(audio, data...)
		lastRecv = time.Now()
		mu.Unlock()
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("create ws client: %w", err)}
	}
	defer dg.Stop()

	if ok := dg.Connect(); !ok {
		return nil, &SynthesisError{Err: fmt.Errorf("deepgram connect failed")}
	}
	if err := dg.SpeakWithText(text); err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("speak text: %w", err)}
	}
	if err := dg.Flush(); err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("flush: %w", err)}
	}

	// The speak socket has no explicit end-of-audio signal for a single
	// utterance; treat a quiet window after the first chunk as completion.
	idleWindow := 400 * time.Millisecond
	deadline := time.Now().Add(12 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, &SynthesisError{Err: ctx.Err()}
		case <-ticker.C:
			mu.Lock()
			got := len(audio) > 0
			idle := got && time.Since(lastRecv) > idleWindow
			mu.Unlock()
			if idle {
				mu.Lock()
				out := make([]byte, len(audio))
				copy(out, audio)
				mu.Unlock()
				return out, nil
			}
			if time.Now().After(deadline) {
				if got {
					mu.Lock()
					out := make([]byte, len(audio))
					copy(out, audio)
					mu.Unlock()
					return out, nil
				}
				return nil, &SynthesisError{Err: fmt.Errorf("deepgram produced no audio before deadline")}
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
