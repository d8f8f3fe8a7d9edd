package agent

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/stt"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/telephony"
)

// maxConsecutiveFailures is how many processor failures in a row we tolerate
// before forcing a hangup instead of looping on apologies forever.
const maxConsecutiveFailures = 3

// In-character recovery phrases. Failures must reach the caller as speech,
// never as silence or a dropped line.
const (
	recoveryPhrase   = "I didn't catch that, could you repeat?"
	retryPhrase      = "I'm sorry, could you say that once more?"
	escalationPhrase = "I'm sorry, I'm having trouble on my end. Please call back in a moment. Goodbye."
	transferApology  = "I'm sorry, I wasn't able to transfer you. Please call back later. Goodbye."
	scheduleApology  = "I'm sorry, I couldn't record your appointment just now. Shall we try again?"
)

// Session drives one call end to end: welcome, then strictly turn-sequential
// processing of caller utterances until an action or cancellation ends the
// call. All external waits inherit the session context, so a caller hangup
// aborts in-flight work.
type Session struct {
	convo      *conversation.Context
	processor  *Processor
	dispatcher *Dispatcher
	synth      Synthesizer
	sink       AudioSink
	log        *zap.Logger

	inputs  chan Input
	stop    chan struct{}
	done    chan struct{}
	endOnce sync.Once

	mu      sync.Mutex
	started bool
}

// NewSession wires a session for one call. Start must be called to begin
// processing.
func NewSession(convo *conversation.Context, processor *Processor, dispatcher *Dispatcher, synth Synthesizer, sink AudioSink, logger *zap.Logger) *Session {
	return &Session{
		convo:      convo,
		processor:  processor,
		dispatcher: dispatcher,
		synth:      synth,
		sink:       sink,
		log:        logger,
		inputs:     make(chan Input, 8),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the session loop. onDone runs exactly once when the loop
// exits, however it exits. A second Start is a no-op.
func (s *Session) Start(parent context.Context, onDone func()) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	select {
	case <-s.stop:
		// Ended before it ever started; the loop exits on first select.
		cancel()
	default:
	}
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-s.done:
		}
	}()
	go func() {
		defer func() {
			cancel()
			s.convo.Clear()
			close(s.done)
			if onDone != nil {
				onDone()
			}
		}()
		s.run(ctx)
	}()
}

// HandleUtterance enqueues one caller utterance. Fire-and-forget: when the
// session is gone or saturated the input is dropped with a log line, results
// surface through synthesized audio and side effects only.
func (s *Session) HandleUtterance(in Input) {
	select {
	case <-s.done:
		s.log.Debug("utterance for ended session dropped", zap.String("call_sid", s.convo.CallID()))
	case s.inputs <- in:
	default:
		s.log.Warn("input queue full, utterance dropped", zap.String("call_sid", s.convo.CallID()))
	}
}

// End aborts the session. Safe to call at any time, from any goroutine,
// more than once, including before Start. When the loop is running it waits
// for it to fully stop; either way the conversation context is cleared.
func (s *Session) End() {
	s.endOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		s.convo.Clear()
		return
	}
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	cfg := s.convo.Config()

	if cfg.WelcomeMessage != "" {
		s.convo.Append(conversation.SpeakerAssistant, cfg.WelcomeMessage)
		s.speak(ctx, cfg.WelcomeMessage)
	}

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-s.inputs:
			if s.handleTurn(ctx, in, &failures) {
				return
			}
		}
	}
}

// handleTurn runs one full turn and reports whether the call ended.
func (s *Session) handleTurn(ctx context.Context, in Input, failures *int) bool {
	callID := s.convo.CallID()
	cfg := s.convo.Config()

	decision, err := s.processor.Process(ctx, in, s.convo)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		*failures++
		s.log.Warn("turn processing failed",
			zap.String("call_sid", callID),
			zap.Int("consecutive_failures", *failures),
			zap.Error(err))
		if *failures >= maxConsecutiveFailures {
			s.speak(ctx, escalationPhrase)
			_, _ = s.dispatcher.Dispatch(ctx, callID, cfg, Decision{Action: ActionHangup})
			return true
		}
		var te *stt.TranscriptionError
		if errors.As(err, &te) || errors.Is(err, errEmptyUtterance) {
			s.speak(ctx, recoveryPhrase)
		} else {
			s.speak(ctx, retryPhrase)
		}
		return false
	}
	*failures = 0

	s.speak(ctx, decision.Reply)

	outcome, err := s.dispatcher.Dispatch(ctx, callID, cfg, decision)
	if err != nil {
		var tre *telephony.TransferError
		if errors.As(err, &tre) {
			s.speak(ctx, transferApology)
			_, _ = s.dispatcher.Dispatch(ctx, callID, cfg, Decision{Action: ActionHangup})
			return true
		}
		var pe *store.PersistenceError
		if errors.As(err, &pe) {
			s.speak(ctx, scheduleApology)
			return false
		}
		s.log.Error("dispatch failed", zap.String("call_sid", callID), zap.Error(err))
		return outcome.EndsCall
	}
	return outcome.EndsCall
}

// speak synthesizes and plays one phrase. Synthesis failures are logged and
// swallowed: the loop proceeds to the next caller turn rather than crashing
// the call over audio.
func (s *Session) speak(ctx context.Context, text string) {
	if text == "" || ctx.Err() != nil {
		return
	}
	cfg := s.convo.Config()
	audio, err := s.synth.Synthesize(ctx, text, cfg.VoiceID)
	if err != nil {
		s.log.Warn("synthesis failed", zap.String("call_sid", s.convo.CallID()), zap.Error(err))
		return
	}
	if len(audio) == 0 {
		return
	}
	if err := s.sink.Play(s.convo.CallID(), audio); err != nil {
		s.log.Warn("audio playback failed", zap.String("call_sid", s.convo.CallID()), zap.Error(err))
	}
}
