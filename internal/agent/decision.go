package agent

// Action is the routing decision ending one turn. Transfer and Hangup end
// the call; Continue and Schedule loop back to await the next utterance.
type Action string

const (
	ActionContinue Action = "continue"
	ActionTransfer Action = "transfer"
	ActionSchedule Action = "schedule"
	ActionHangup   Action = "hangup"
)

// TransferDetails is the payload of a transfer decision.
type TransferDetails struct {
	Reason  string `json:"reason"`
	Urgency string `json:"urgency"`
}

// ScheduleDetails is the payload of a schedule decision, taken verbatim from
// the engine's function-call arguments.
type ScheduleDetails struct {
	ClientName      string `json:"clientName"`
	AppointmentType string `json:"appointmentType"`
	PreferredDate   string `json:"preferredDate,omitempty"`
	PreferredTime   string `json:"preferredTime,omitempty"`
	ClientPhone     string `json:"clientPhone,omitempty"`
	ClientEmail     string `json:"clientEmail,omitempty"`
}

// Decision is the turn processor's output: what to say and what to do next.
// Exactly one action is set per decision; the payload pointer matching the
// action is non-nil and the other is nil.
type Decision struct {
	Reply    string
	Action   Action
	Transfer *TransferDetails
	Schedule *ScheduleDetails
}
