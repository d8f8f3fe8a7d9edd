package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// TransferError reports a telephony transfer that could not be initiated.
// Transfers are single-attempt; retrying a half-redirected call is worse
// than apologizing and hanging up.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string { return "telephony: transfer failed: " + e.Err.Error() }
func (e *TransferError) Unwrap() error { return e.Err }

// Service drives live-call side effects through the Twilio REST API.
type Service struct {
	client *twilio.RestClient
	log    *zap.Logger
}

// New constructs the service from Twilio account credentials.
func New(accountSID, authToken string, logger *zap.Logger) *Service {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Service{client: client, log: logger}
}

// Transfer redirects an in-progress call to the configured destination by
// replacing its TwiML with a Dial. reason and urgency are recorded for
// operational traceability only.
func (s *Service) Transfer(ctx context.Context, callSID, destination, reason, urgency string) error {
	_ = ctx // twilio-go does not take a context; the session loop bounds the turn instead
	if destination == "" {
		return &TransferError{Err: fmt.Errorf("no transfer destination configured")}
	}

	dial := &twiml.VoiceDial{
		InnerElements: []twiml.Element{&twiml.VoiceNumber{PhoneNumber: destination}},
	}
	doc, err := twiml.Voice([]twiml.Element{dial})
	if err != nil {
		return &TransferError{Err: fmt.Errorf("build twiml: %w", err)}
	}

	params := &twilioApi.UpdateCallParams{}
	params.SetTwiml(doc)
	if _, err := s.client.Api.UpdateCall(callSID, params); err != nil {
		s.log.Warn("transfer initiation failed",
			zap.String("call_sid", callSID),
			zap.String("destination", destination),
			zap.Error(err))
		return &TransferError{Err: err}
	}
	s.log.Info("call transferred",
		zap.String("call_sid", callSID),
		zap.String("destination", destination),
		zap.String("reason", reason),
		zap.String("urgency", urgency))
	return nil
}

// Hangup terminates the call at the telephony layer.
func (s *Service) Hangup(ctx context.Context, callSID string) error {
	_ = ctx
	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")
	if _, err := s.client.Api.UpdateCall(callSID, params); err != nil {
		s.log.Warn("hangup failed", zap.String("call_sid", callSID), zap.Error(err))
		return fmt.Errorf("telephony: hangup: %w", err)
	}
	s.log.Info("call terminated", zap.String("call_sid", callSID))
	return nil
}
