package tts

import (
	"context"
	"fmt"
)

// Synthesizer renders response text to call-ready audio (μ-law 8kHz) for
// the given voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// SynthesisError reports response audio that could not be generated.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "tts: synthesis failed: " + e.Err.Error() }
func (e *SynthesisError) Unwrap() error { return e.Err }

// Engines supported by ForEngine.
const (
	EngineElevenLabs = "elevenlabs"
	EngineDeepgram   = "deepgram"
)

// Registry resolves a per-call synthesis engine id to a concrete client.
type Registry struct {
	engines map[string]Synthesizer
	def     string
}

// NewRegistry builds a registry; the first registered engine is the default.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Synthesizer)}
}

// Register adds an engine under the given id.
func (r *Registry) Register(id string, s Synthesizer) {
	if r.def == "" {
		r.def = id
	}
	r.engines[id] = s
}

// ForEngine returns the synthesizer for the id, falling back to the default
// when the id is unknown or empty.
func (r *Registry) ForEngine(id string) (Synthesizer, error) {
	if id == "" {
		id = r.def
	}
	s, ok := r.engines[id]
	if !ok {
		if s, ok = r.engines[r.def]; ok {
			return s, nil
		}
		return nil, fmt.Errorf("tts: no engine registered for %q", id)
	}
	return s, nil
}
