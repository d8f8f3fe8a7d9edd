package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/llm"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
)

func testConfig() conversation.Config {
	return conversation.Config{
		CompletionEngineID:  "gpt-4o-mini",
		SynthesisEngineID:   "elevenlabs",
		VoiceID:             "voice-1",
		Temperature:         0.6,
		PersonaInstructions: "You are Marie, the receptionist at Cabinet Dubois.",
		TransferDestination: "+33123456789",
		WelcomeMessage:      "Cabinet Dubois, bonjour.",
	}
}

func testConvo(t interface{ Fatalf(string, ...any) }, callID string) *conversation.Context {
	convo, err := conversation.New(callID, testConfig())
	if err != nil {
		t.Fatalf("conversation.New: %v", err)
	}
	return convo
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

type fakeCompleter struct {
	mu      sync.Mutex
	replies []llm.Reply
	err     error
	reqs    []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llm.Reply{}, f.err
	}
	if len(f.replies) == 0 {
		return llm.Reply{Text: "Understood."}, nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeTelephony struct {
	mu          sync.Mutex
	transferErr error
	hangupErr   error
	transfers   int
	hangups     int
	lastDest    string
	lastReason  string
	lastUrgency string
}

func (f *fakeTelephony) Transfer(_ context.Context, _, destination, reason, urgency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers++
	f.lastDest, f.lastReason, f.lastUrgency = destination, reason, urgency
	return f.transferErr
}

func (f *fakeTelephony) Hangup(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangups++
	return f.hangupErr
}

func (f *fakeTelephony) counts() (transfers, hangups int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transfers, f.hangups
}

type fakeAppointments struct {
	mu    sync.Mutex
	err   error
	saved []store.Appointment
}

func (f *fakeAppointments) SaveAppointment(_ context.Context, appt store.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, appt)
	return nil
}

func (f *fakeAppointments) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeSynth struct {
	mu     sync.Mutex
	err    error
	spoken []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.spoken = append(f.spoken, text)
	return []byte(text), nil
}

func (f *fakeSynth) phrases() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

type fakeSink struct {
	mu     sync.Mutex
	err    error
	played [][]byte
}

func (f *fakeSink) Play(_ string, audio []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, audio)
	return nil
}

func (f *fakeSink) playedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

type fakeConfigs struct {
	cfg      conversation.Config
	err      error
	accounts []string
}

func (f *fakeConfigs) LoadCallerConfig(_ context.Context, accountID string) (conversation.Config, error) {
	f.accounts = append(f.accounts, accountID)
	if f.err != nil {
		return conversation.Config{}, f.err
	}
	return f.cfg, nil
}

func testLogger() *zap.Logger { return zap.NewNop() }
