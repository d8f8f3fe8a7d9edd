package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	// PublicHost is the externally reachable host Twilio connects back to
	// for the media stream (no scheme, e.g. "calls.example.com").
	PublicHost string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	DeepgramAPIKey    string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string

	TwilioAccountSID string
	TwilioAuthToken  string

	SupabaseURL        string
	SupabaseServiceKey string

	// DefaultAccountID answers calls whose dialed number has no settings row.
	DefaultAccountID string
}

// Load reads environment variables and returns Config with sane defaults.
// Missing keys degrade the matching capability and are logged, not fatal.
func Load(log *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	publicHost := os.Getenv("PUBLIC_HOST")
	if publicHost == "" {
		log.Warn("PUBLIC_HOST not set - media stream URLs will fall back to the request host")
	}

	llmKey := os.Getenv("LLM_API_KEY")
	if llmKey == "" {
		log.Warn("LLM_API_KEY not set - turn processing will not work")
	}
	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o-mini"
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Warn("DEEPGRAM_API_KEY not set - transcription will not work")
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Warn("ELEVENLABS_API_KEY not set - speech synthesis will fall back to Deepgram")
	}

	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioSID == "" || twilioToken == "" {
		log.Warn("TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN not set - call control will not work")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		log.Warn("SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY not set - persistence will not work")
	}

	log.Info("config loaded", zap.String("http_address", addr), zap.String("llm_model", llmModel))
	return Config{
		HTTPAddress:        addr,
		PublicHost:         publicHost,
		LLMAPIKey:          llmKey,
		LLMBaseURL:         os.Getenv("LLM_BASE_URL"),
		LLMModel:           llmModel,
		DeepgramAPIKey:     deepgramKey,
		ElevenLabsAPIKey:   elevenKey,
		ElevenLabsVoiceID:  os.Getenv("ELEVENLABS_VOICE_ID"),
		TwilioAccountSID:   twilioSID,
		TwilioAuthToken:    twilioToken,
		SupabaseURL:        supabaseURL,
		SupabaseServiceKey: supabaseKey,
		DefaultAccountID:   os.Getenv("DEFAULT_ACCOUNT_ID"),
	}
}
