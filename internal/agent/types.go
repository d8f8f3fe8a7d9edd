package agent

import (
	"context"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/llm"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
)

// Transcriber converts recorded caller audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Completer is the completion engine boundary.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (llm.Reply, error)
}

// Synthesizer renders assistant text to call-ready audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Telephony drives live-call side effects.
type Telephony interface {
	Transfer(ctx context.Context, callSID, destination, reason, urgency string) error
	Hangup(ctx context.Context, callSID string) error
}

// AppointmentStore persists scheduling requests taken during a call.
type AppointmentStore interface {
	SaveAppointment(ctx context.Context, appt store.Appointment) error
}

// ConfigLoader resolves a caller account to its per-call configuration.
type ConfigLoader interface {
	LoadCallerConfig(ctx context.Context, accountID string) (conversation.Config, error)
}

// AudioSink delivers synthesized audio back to the caller. Implementations
// must tolerate being called after the underlying media path closed.
type AudioSink interface {
	Play(callID string, audio []byte) error
}

// Input is one caller utterance, as text or as recorded audio.
type Input struct {
	Text  string
	Audio []byte
}

// TextInput wraps already-transcribed caller text.
func TextInput(text string) Input { return Input{Text: text} }

// AudioInput wraps a recorded utterance needing transcription.
func AudioInput(audio []byte) Input { return Input{Audio: audio} }

// IsAudio reports whether the input still needs transcription.
func (in Input) IsAudio() bool { return len(in.Audio) > 0 }
