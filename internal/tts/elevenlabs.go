package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ElevenLabsClient renders speech through the ElevenLabs HTTP streaming
// endpoint, requesting ulaw_8000 output so the audio can be played back to
// the telephony media stream without transcoding.
type ElevenLabsClient struct {
	HTTPClient   *http.Client
	Host         string
	APIKey       string
	DefaultVoice string
}

// NewElevenLabsClient constructs a client with the account default voice.
func NewElevenLabsClient(apiKey, defaultVoiceID string) *ElevenLabsClient {
	return &ElevenLabsClient{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Host:         "https://api.elevenlabs.io",
		APIKey:       apiKey,
		DefaultVoice: defaultVoiceID,
	}
}

// Synthesize returns the complete μ-law audio for text. voiceID may be empty
// to use the account default.
func (e *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if e.APIKey == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("elevenlabs api key missing")}
	}
	if voiceID == "" {
		voiceID = e.DefaultVoice
	}
	if voiceID == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("elevenlabs voice id missing")}
	}
	if text == "" {
		return nil, nil
	}

	u, err := url.Parse(e.Host)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	u.Path = "/v1/text-to-speech/" + voiceID + "/stream"
	q := u.Query()
	q.Set("output_format", "ulaw_8000")
	q.Set("optimize_streaming_latency", "2")
	u.RawQuery = q.Encode()

	body := map[string]any{
		"model_id": "eleven_flash_v2_5",
		"text":     text,
		"voice_settings": map[string]any{
			"stability":        0.4,
			"similarity_boost": 0.7,
		},
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &SynthesisError{Err: fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, string(b))}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	return audio, nil
}
