package agent

import "strings"

// Keyword signals for the plain-text fallback, when the completion engine
// answers without a structured call. The product serves French callers, so
// both French and English phrasing is matched.
var (
	transferKeywords = []string{
		"urgent", "urgence", "emergency", "immediately", "right away",
		"lawyer", "avocat", "police", "transfer", "transfère", "transférer",
		"speak to someone", "speak to a person", "talk to a human",
		"parler à quelqu'un", "un humain",
	}
	scheduleKeywords = []string{
		"appointment", "rendez-vous", "book", "booking", "schedule",
		"reschedule", "consultation", "réserver", "disponibilité",
		"availability", "créneau",
	}
	farewellKeywords = []string{
		"goodbye", "good bye", "au revoir", "bye", "hang up",
		"have a good day", "bonne journée", "that will be all",
		"that's all", "c'est tout",
	}
)

// Classify decides the next action from the engine's plain-text reply and
// the caller's input. Precedence: urgency/transfer over scheduling over
// farewell; anything ambiguous stays a continue. Structured function calls
// never reach this path; they are resolved before keyword inspection.
func Classify(replyText, callerText string) Action {
	text := strings.ToLower(replyText) + " " + strings.ToLower(callerText)
	if containsAny(text, transferKeywords) {
		return ActionTransfer
	}
	if containsAny(text, scheduleKeywords) {
		return ActionSchedule
	}
	if containsAny(text, farewellKeywords) {
		return ActionHangup
	}
	return ActionContinue
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
