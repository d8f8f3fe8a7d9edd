package agent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/tts"
)

// Deps carries everything a session needs from the outside world.
type Deps struct {
	Transcriber  Transcriber
	Completer    Completer
	Synthesizers *tts.Registry
	Telephony    Telephony
	Appointments AppointmentStore
	Configs      ConfigLoader
	Logger       *zap.Logger
}

// Manager owns the live sessions, one per call SID. It is the single entry
// point the transport layer talks to: start a session when a call connects,
// feed it utterances, end it when the call drops.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a manager with no live sessions.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// StartSession creates and launches the session for callID, loading the
// account's caller-facing configuration first. Starting an already-live call
// is a no-op.
func (m *Manager) StartSession(ctx context.Context, callID, accountID string, sink AudioSink) error {
	m.mu.Lock()
	if _, ok := m.sessions[callID]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	cfg, err := m.deps.Configs.LoadCallerConfig(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load caller config for account %s: %w", accountID, err)
	}
	convo, err := conversation.New(callID, cfg)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	synth, err := m.deps.Synthesizers.ForEngine(cfg.SynthesisEngineID)
	if err != nil {
		return fmt.Errorf("resolve synthesis engine: %w", err)
	}

	sess := NewSession(
		convo,
		NewProcessor(m.deps.Transcriber, m.deps.Completer, m.deps.Logger),
		NewDispatcher(m.deps.Telephony, m.deps.Appointments, m.deps.Logger),
		synth,
		sink,
		m.deps.Logger,
	)

	m.mu.Lock()
	if _, ok := m.sessions[callID]; ok {
		// Lost the race to a concurrent start; keep the existing session.
		m.mu.Unlock()
		return nil
	}
	m.sessions[callID] = sess
	// Launched under the lock so EndSession can never observe a published
	// session whose loop is not running yet. Sessions outlive the HTTP
	// request that created them; they stop on their own action or on
	// EndSession.
	sess.Start(context.Background(), func() { m.remove(callID) })
	m.mu.Unlock()

	m.deps.Logger.Info("session started", zap.String("call_sid", callID), zap.String("account_id", accountID))
	return nil
}

// HandleCallerUtterance routes one utterance to its live session.
// Fire-and-forget: an unknown call is logged and dropped.
func (m *Manager) HandleCallerUtterance(callID string, in Input) {
	m.mu.Lock()
	sess, ok := m.sessions[callID]
	m.mu.Unlock()
	if !ok {
		m.deps.Logger.Debug("utterance for unknown call dropped", zap.String("call_sid", callID))
		return
	}
	sess.HandleUtterance(in)
}

// EndSession stops the session for callID and releases its resources. Safe
// to call for unknown or already-ended calls.
func (m *Manager) EndSession(callID string) {
	m.mu.Lock()
	sess, ok := m.sessions[callID]
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.End()
	m.remove(callID)
	m.deps.Logger.Info("session ended", zap.String("call_sid", callID))
}

func (m *Manager) remove(callID string) {
	m.mu.Lock()
	delete(m.sessions, callID)
	m.mu.Unlock()
}
