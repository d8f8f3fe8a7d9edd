package conversation

import (
	"fmt"
	"sync"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerCaller    Speaker = "caller"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in a call's history.
type Turn struct {
	Speaker   Speaker
	Content   string
	Timestamp time.Time
}

// Config is the per-call configuration loaded from the caller's account
// settings. It is read-only for the duration of the call.
type Config struct {
	CompletionEngineID  string
	SynthesisEngineID   string
	VoiceID             string
	Temperature         float32
	PersonaInstructions string
	TransferDestination string
	WelcomeMessage      string
}

// Validate checks the fields the orchestrator cannot run without.
func (c Config) Validate() error {
	if c.CompletionEngineID == "" {
		return fmt.Errorf("conversation: completion engine id is required")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("conversation: temperature %v out of range [0,1]", c.Temperature)
	}
	return nil
}

// Context holds the rolling turn history and configuration for one call.
// It has a single writer (the call's session loop); the mutex exists so
// snapshots taken for completion requests never observe a partial append.
type Context struct {
	callID string
	cfg    Config

	mu    sync.Mutex
	turns []Turn
}

// New creates an empty context for the given call.
func New(callID string, cfg Config) (*Context, error) {
	if callID == "" {
		return nil, fmt.Errorf("conversation: call id is empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Context{callID: callID, cfg: cfg}, nil
}

// CallID returns the identifier correlating all turns and side effects.
func (c *Context) CallID() string { return c.callID }

// Config returns the per-call configuration.
func (c *Context) Config() Config { return c.cfg }

// Append records a turn with the current timestamp. History is append-only
// for the lifetime of the call; bounding it for token budgets is the turn
// processor's concern, not ours.
func (c *Context) Append(speaker Speaker, content string) {
	c.mu.Lock()
	c.turns = append(c.turns, Turn{Speaker: speaker, Content: content, Timestamp: time.Now()})
	c.mu.Unlock()
}

// Snapshot returns a copy of the turn history in chronological order.
func (c *Context) Snapshot() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len reports the number of recorded turns.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Clear releases the turn history. Calling it more than once is a no-op.
func (c *Context) Clear() {
	c.mu.Lock()
	c.turns = nil
	c.mu.Unlock()
}
