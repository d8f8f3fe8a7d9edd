package agent

import (
	"encoding/json"
	"strings"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/llm"
)

const (
	toolTransferCall        = "transfer_call"
	toolScheduleAppointment = "schedule_appointment"
)

// callTools are the two actions the completion engine may invoke.
var callTools = []llm.ToolSchema{
	{
		Name:        toolTransferCall,
		Description: "Transfer the caller to a human when they are upset, the matter is urgent, or it exceeds what a receptionist can handle.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"reason": {"type": "string", "description": "Why the caller needs a human"},
				"urgency": {"type": "string", "enum": ["low", "medium", "high"]}
			},
			"required": ["reason", "urgency"]
		}`),
	},
	{
		Name:        toolScheduleAppointment,
		Description: "Book an appointment once the caller's name and the appointment type are known. Dates and times may be left as the caller phrased them.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"clientName": {"type": "string"},
				"appointmentType": {"type": "string"},
				"preferredDate": {"type": "string"},
				"preferredTime": {"type": "string"},
				"clientPhone": {"type": "string"},
				"clientEmail": {"type": "string"}
			},
			"required": ["clientName", "appointmentType"]
		}`),
	},
}

// systemFraming builds the system message from the account's persona
// instructions plus the behavioral rules every call shares.
func systemFraming(persona string) string {
	var b strings.Builder
	if strings.TrimSpace(persona) != "" {
		b.WriteString(strings.TrimSpace(persona))
		b.WriteString("\n\n")
	} else {
		b.WriteString("You are a courteous phone secretary answering on behalf of the business.")
		b.WriteString("\n\n")
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Keep answers short and natural; they are spoken aloud on a phone call.\n")
	b.WriteString("- If the caller mentions anything urgent or asks for a person, offer to transfer and call transfer_call.\n")
	b.WriteString("- To book an appointment, collect the caller's name, the appointment type, and their preferred date and time, then call schedule_appointment.\n")
	b.WriteString("- Never give advice beyond the business's domain; offer a transfer instead.")
	return b.String()
}

// buildMessages assembles the completion request sequence: system framing,
// prior turns in chronological order, then the new caller turn.
func buildMessages(convo *conversation.Context, callerText string) []llm.Message {
	turns := convo.Snapshot()
	msgs := make([]llm.Message, 0, len(turns)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemFraming(convo.Config().PersonaInstructions)})
	for _, t := range turns {
		role := llm.RoleUser
		if t.Speaker == conversation.SpeakerAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: callerText})
	return msgs
}
