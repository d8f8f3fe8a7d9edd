package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TranscriptionError reports audio input that could not be converted to text.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return "stt: transcription failed: " + e.Err.Error() }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// DeepgramClient transcribes recorded audio via Deepgram's listen endpoint.
// Stateless: one request in, one transcript out.
type DeepgramClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// NewDeepgramClient constructs a transcription client.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "nova-2-phonecall"
	}
	return &DeepgramClient{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		BaseURL:    "https://api.deepgram.com",
		APIKey:     apiKey,
		Model:      model,
	}
}

// Transcribe submits μ-law 8kHz call audio and returns the transcript text.
// An empty transcript (silence) is returned as "" with no error; callers
// decide whether silence is acceptable.
func (d *DeepgramClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if d.APIKey == "" {
		return "", &TranscriptionError{Err: fmt.Errorf("deepgram api key missing")}
	}
	if len(audio) == 0 {
		return "", nil
	}

	q := url.Values{}
	q.Set("model", d.Model)
	q.Set("encoding", "mulaw")
	q.Set("sample_rate", "8000")
	q.Set("smart_format", "true")
	endpoint := fmt.Sprintf("%s/v1/listen?%s", strings.TrimRight(d.BaseURL, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	req.Header.Set("Authorization", "Token "+d.APIKey)
	req.Header.Set("Content-Type", "audio/mulaw")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", &TranscriptionError{Err: fmt.Errorf("deepgram status=%d body=%s", resp.StatusCode, string(b))}
	}

	var lr listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if len(lr.Results.Channels) == 0 || len(lr.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(lr.Results.Channels[0].Alternatives[0].Transcript), nil
}
