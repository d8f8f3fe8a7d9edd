package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
)

// PersistenceError reports a record that could not be saved or loaded.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "store: persistence failed: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Appointment is one scheduling request captured during a call. CallSID ties
// the record back to the call it was taken on.
type Appointment struct {
	ID              string `json:"id"`
	CallSID         string `json:"call_sid"`
	ClientName      string `json:"client_name"`
	AppointmentType string `json:"appointment_type"`
	PreferredDate   string `json:"preferred_date,omitempty"`
	PreferredTime   string `json:"preferred_time,omitempty"`
	ClientPhone     string `json:"client_phone,omitempty"`
	ClientEmail     string `json:"client_email,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// callerSettingsRow mirrors the caller_settings table.
type callerSettingsRow struct {
	AccountID           string  `json:"account_id"`
	CompletionEngineID  string  `json:"completion_engine_id"`
	SynthesisEngineID   string  `json:"synthesis_engine_id"`
	VoiceID             string  `json:"voice_id"`
	Temperature         float32 `json:"temperature"`
	PersonaInstructions string  `json:"persona_instructions"`
	TransferDestination string  `json:"transfer_destination"`
	WelcomeMessage      string  `json:"welcome_message"`
}

// Store persists appointments and loads caller settings through Supabase.
type Store struct {
	client *supabase.Client
	// defaultCompletionEngine backs settings rows that leave the engine
	// unset, so a sparse row still yields a runnable call config.
	defaultCompletionEngine string
}

// New constructs a Store from Supabase project credentials.
func New(url, serviceKey, defaultCompletionEngine string) (*Store, error) {
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("store: create supabase client: %w", err)
	}
	return &Store{client: client, defaultCompletionEngine: defaultCompletionEngine}, nil
}

// SaveAppointment inserts one appointment row. A missing id or timestamp is
// filled in here so callers only provide what the conversation produced.
func (s *Store) SaveAppointment(ctx context.Context, appt Appointment) error {
	_ = ctx // postgrest-go builds synchronous requests; kept for interface symmetry
	if appt.ClientName == "" {
		return &PersistenceError{Err: fmt.Errorf("client name is required")}
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt == "" {
		appt.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, _, err := s.client.From("appointments").Insert(appt, false, "", "", "").Execute()
	if err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// LoadCallerConfig fetches the account's settings row and maps it onto the
// per-call conversation config.
func (s *Store) LoadCallerConfig(ctx context.Context, accountID string) (conversation.Config, error) {
	_ = ctx
	data, _, err := s.client.From("caller_settings").
		Select("*", "", false).
		Eq("account_id", accountID).
		Single().
		Execute()
	if err != nil {
		return conversation.Config{}, &PersistenceError{Err: err}
	}
	var row callerSettingsRow
	if err := json.Unmarshal(data, &row); err != nil {
		return conversation.Config{}, &PersistenceError{Err: err}
	}
	if row.CompletionEngineID == "" {
		row.CompletionEngineID = s.defaultCompletionEngine
	}
	return conversation.Config{
		CompletionEngineID:  row.CompletionEngineID,
		SynthesisEngineID:   row.SynthesisEngineID,
		VoiceID:             row.VoiceID,
		Temperature:         row.Temperature,
		PersonaInstructions: row.PersonaInstructions,
		TransferDestination: row.TransferDestination,
		WelcomeMessage:      row.WelcomeMessage,
	}, nil
}
