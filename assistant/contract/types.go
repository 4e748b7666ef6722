package contract

import (
	"strings"
	"time"
)

// AgentTag identifies the task agent an utterance is routed to.
type AgentTag string

const (
	AgentNotes    AgentTag = "notes"
	AgentCalendar AgentTag = "calendar"
	AgentPlanner  AgentTag = "planner"
	AgentChat     AgentTag = "chat"
	AgentUnknown  AgentTag = "unknown"
)

// KnownAgentTags lists the dispatchable tags. AgentUnknown is deliberately
// excluded: it is a routing verdict, not a destination.
func KnownAgentTags() []AgentTag {
	return []AgentTag{AgentNotes, AgentCalendar, AgentPlanner, AgentChat}
}

// ParseAgentTag folds a raw tag onto the catalog. Anything the catalog does
// not contain comes back as AgentUnknown.
func ParseAgentTag(raw string) AgentTag {
	switch tag := AgentTag(strings.ToLower(strings.TrimSpace(raw))); tag {
	case AgentNotes, AgentCalendar, AgentPlanner, AgentChat:
		return tag
	default:
		return AgentUnknown
	}
}

// Slots carries the string-valued extractions of intent resolution. Values
// are unvalidated free text; agents own their interpretation.
type Slots map[string]string

// Value returns the trimmed slot value, or "" when absent.
func (s Slots) Value(key string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[key])
}

// Clone returns an independent copy so merged slot sets never alias.
func (s Slots) Clone() Slots {
	if s == nil {
		return Slots{}
	}
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Intent is the resolver's verdict for a single utterance.
type Intent struct {
	Agent      AgentTag `json:"agent"`
	Slots      Slots    `json:"slots,omitempty"`
	Confidence float64  `json:"confidence"`
}

// FollowUp marks a conversation as incomplete: the next utterance from the
// same user is handed to Agent verbatim as the value of AwaitingSlot,
// merged over Slots. A session holds at most one FollowUp at a time.
type FollowUp struct {
	Agent        AgentTag `json:"agent"`
	AwaitingSlot string   `json:"awaiting_slot"`
	Slots        Slots    `json:"slots,omitempty"`
}

// TaskOutcome is what a task agent hands back to the orchestrator.
// Success=false implies Reply explains the failure in user-facing language.
// Terminal outcomes carry no FollowUp.
type TaskOutcome struct {
	Reply    string    `json:"reply"`
	Success  bool      `json:"success"`
	FollowUp *FollowUp `json:"follow_up,omitempty"`
}

// TaskRequest is the per-dispatch input to a task agent.
type TaskRequest struct {
	UserID    string `json:"user_id"`
	Utterance string `json:"utterance"`
	Slots     Slots  `json:"slots,omitempty"`
	History   []Turn `json:"history,omitempty"`
}

// Turn is one inbound utterance plus its resolved intent and outcome,
// recorded on the session for audit.
type Turn struct {
	At        time.Time   `json:"at"`
	Utterance string      `json:"utterance"`
	Intent    Intent      `json:"intent"`
	Outcome   TaskOutcome `json:"outcome"`
}

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderFired     ReminderStatus = "fired"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder is a deferred notification. Pending is the only mutable state:
// Fired and Cancelled are terminal and a reminder fires at most once.
type Reminder struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	FireTime      time.Time      `json:"fire_time"`
	Payload       string         `json:"payload"`
	Status        ReminderStatus `json:"status"`
	Attempts      int            `json:"attempts,omitempty"`
	NextAttemptAt time.Time      `json:"next_attempt_at"`
	LastError     string         `json:"last_error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Note is a stored user note.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CalendarEvent is the structured payload handed to the calendar
// collaborator. ID is filled by the provider.
type CalendarEvent struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description,omitempty"`
}
