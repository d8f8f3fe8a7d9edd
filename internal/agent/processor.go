package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/llm"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/stt"
)

// Spoken fallbacks when the engine acts without accompanying text.
const (
	transferFallbackReply = "Transferring you now, please hold."
	scheduleFallbackReply = "Your appointment request has been noted."
)

// completionTimeout bounds one completion engine call.
const completionTimeout = 20 * time.Second

// errEmptyUtterance reports caller input that carried no words. For audio it
// is wrapped in a TranscriptionError; for text input no transcription ever
// ran, so it surfaces bare.
var errEmptyUtterance = errors.New("agent: empty caller utterance")

// Processor turns raw caller input into an assistant reply plus a routing
// decision. It owns input normalization, the completion call, and the
// interpretation of the engine's reply.
type Processor struct {
	transcriber Transcriber
	completer   Completer
	log         *zap.Logger
}

// NewProcessor constructs a processor.
func NewProcessor(transcriber Transcriber, completer Completer, logger *zap.Logger) *Processor {
	return &Processor{transcriber: transcriber, completer: completer, log: logger}
}

// Process handles one caller turn against the given conversation. On success
// the caller's text and the assistant's reply are appended to the context, in
// that order. On failure nothing is appended and the typed error tells the
// session loop which recovery path applies.
func (p *Processor) Process(ctx context.Context, in Input, convo *conversation.Context) (Decision, error) {
	text := strings.TrimSpace(in.Text)
	if in.IsAudio() {
		got, err := p.transcriber.Transcribe(ctx, in.Audio)
		if err != nil {
			return Decision{}, err
		}
		text = strings.TrimSpace(got)
		if text == "" {
			return Decision{}, &stt.TranscriptionError{Err: errEmptyUtterance}
		}
	}
	if text == "" {
		return Decision{}, errEmptyUtterance
	}

	cfg := convo.Config()
	ctxLLM, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()
	reply, err := p.completer.Complete(ctxLLM, llm.Request{
		Model:       cfg.CompletionEngineID,
		Temperature: cfg.Temperature,
		Messages:    buildMessages(convo, text),
		Tools:       callTools,
	})
	if err != nil {
		return Decision{}, err
	}

	decision := p.interpret(reply, text, convo.CallID())

	convo.Append(conversation.SpeakerCaller, text)
	convo.Append(conversation.SpeakerAssistant, decision.Reply)
	return decision, nil
}

// interpret resolves the engine reply to a decision. A structured function
// call always wins; keyword classification is the fallback for plain text.
func (p *Processor) interpret(reply llm.Reply, callerText, callID string) Decision {
	if reply.ToolCall != nil {
		switch reply.ToolCall.Name {
		case toolTransferCall:
			var details TransferDetails
			if err := json.Unmarshal(reply.ToolCall.Arguments, &details); err == nil {
				return Decision{
					Reply:    orFallback(reply.Text, transferFallbackReply),
					Action:   ActionTransfer,
					Transfer: &details,
				}
			}
			p.log.Warn("unparseable transfer_call arguments, falling back to keywords",
				zap.String("call_sid", callID))
		case toolScheduleAppointment:
			var details ScheduleDetails
			if err := json.Unmarshal(reply.ToolCall.Arguments, &details); err == nil {
				return Decision{
					Reply:    orFallback(reply.Text, scheduleFallbackReply),
					Action:   ActionSchedule,
					Schedule: &details,
				}
			}
			p.log.Warn("unparseable schedule_appointment arguments, falling back to keywords",
				zap.String("call_sid", callID))
		default:
			p.log.Warn("engine called an unknown function",
				zap.String("call_sid", callID),
				zap.String("function", reply.ToolCall.Name))
		}
	}

	switch Classify(reply.Text, callerText) {
	case ActionTransfer:
		return Decision{
			Reply:    orFallback(reply.Text, transferFallbackReply),
			Action:   ActionTransfer,
			Transfer: &TransferDetails{Reason: "caller asked for a person or mentioned urgency", Urgency: "high"},
		}
	case ActionSchedule:
		// Scheduling intent without structured arguments: keep collecting
		// details over the next turns, nothing to persist yet.
		return Decision{Reply: reply.Text, Action: ActionSchedule, Schedule: &ScheduleDetails{}}
	case ActionHangup:
		return Decision{Reply: reply.Text, Action: ActionHangup}
	default:
		return Decision{Reply: reply.Text, Action: ActionContinue}
	}
}

func orFallback(text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}
