package contract

import (
	"context"
	"time"
)

// Resolver turns a raw utterance plus recent turns into a routable Intent.
// Model failures wrap ErrResolution; parse problems never error, they coerce
// the intent to AgentUnknown with confidence 0.
type Resolver interface {
	Resolve(ctx context.Context, utterance string, history []Turn) (Intent, error)
}

// TaskAgent executes one routed request against its collaborator. Error
// returns are reserved for infrastructure failures; user-recoverable
// problems surface inside the TaskOutcome.
type TaskAgent interface {
	Tag() AgentTag
	Execute(ctx context.Context, req TaskRequest) (TaskOutcome, error)
}

// Messenger delivers outbound text to a user over the messaging channel.
type Messenger interface {
	Send(ctx context.Context, userID string, text string) error
}

// ModelClient is the language-model collaborator.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CalendarClient is the calendar collaborator. Failures are distinguished
// via ErrAuthExpired, ErrInvalidPayload and ErrUnavailable.
type CalendarClient interface {
	CreateEvent(ctx context.Context, userID string, event CalendarEvent) (string, error)
	ListEvents(ctx context.Context, userID string, from time.Time, limit int) ([]CalendarEvent, error)
}

// NoteStore persists note records.
type NoteStore interface {
	Create(ctx context.Context, note *Note) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Note, error)
}

// ReminderStore persists reminder records. MarkFired and MarkCancelled only
// apply while the record is still Pending and report whether the transition
// happened; they are the serialization points for the fire/cancel race.
type ReminderStore interface {
	Create(ctx context.Context, rem *Reminder) error
	Get(ctx context.Context, id string) (*Reminder, error)

	// DuePending returns Pending reminders with FireTime <= now that are
	// eligible for a delivery attempt (NextAttemptAt <= now).
	DuePending(ctx context.Context, now time.Time, limit int) ([]*Reminder, error)
	ListPending(ctx context.Context, userID string, limit int) ([]*Reminder, error)

	MarkFired(ctx context.Context, id string, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id string, reason string, now time.Time) (bool, error)

	// RecordFailure updates delivery bookkeeping on a still-Pending reminder
	// after a failed attempt.
	RecordFailure(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error
}
