package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	agentsx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents"
	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

const (
	slotAction     = "action"
	slotFireTime   = "fireTime"
	slotPayload    = "payload"
	slotReminderID = "reminderId"

	defaultListLimit = 10
)

// Agent manages reminders: create, cancel, list. Fire times must be
// strictly in the future; there is no silent clamping. Cancelling races the
// scheduler deterministically: whoever flips the Pending status first wins,
// and the loser reports what actually happened.
type Agent struct {
	store contractx.ReminderStore

	newID func() string
	now   func() time.Time
}

func New(store contractx.ReminderStore) (*Agent, error) {
	if store == nil {
		return nil, errors.New("reminder store is required")
	}
	return &Agent{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}, nil
}

func (a *Agent) Tag() contractx.AgentTag { return contractx.AgentPlanner }

func (a *Agent) Execute(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	switch action := strings.ToLower(req.Slots.Value(slotAction)); action {
	case "", "create", "set", "remind":
		return a.create(ctx, req)
	case "cancel", "delete":
		return a.cancel(ctx, req)
	case "list", "show":
		return a.list(ctx, req)
	default:
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("I can set, cancel or list reminders, but %q is not something I know how to do.", action),
			Success: false,
		}, nil
	}
}

func (a *Agent) create(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	payload := req.Slots.Value(slotPayload)
	if payload == "" {
		return agentsx.AwaitSlot(contractx.AgentPlanner, req, slotPayload, "What should the reminder say?"), nil
	}
	fireRaw := req.Slots.Value(slotFireTime)
	if fireRaw == "" {
		return agentsx.AwaitSlot(contractx.AgentPlanner, req, slotFireTime, "When should I remind you?"), nil
	}

	fire, err := agentsx.ParseTimeSlot(fireRaw)
	if err != nil {
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("I couldn't read %q as a time. Try a format like 2026-08-25T17:00:00+07:00.", fireRaw),
			Success: false,
		}, nil
	}

	now := a.now()
	if !fire.After(now) {
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("%s is already in the past. Reminders need a future time.", fire.Format(agentsx.ReplyTimeFormat)),
			Success: false,
		}, nil
	}

	rem := &contractx.Reminder{
		ID:            a.newID(),
		UserID:        req.UserID,
		FireTime:      fire,
		Payload:       payload,
		Status:        contractx.ReminderPending,
		NextAttemptAt: fire,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	if err := a.store.Create(ctx, rem); err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: create reminder: %v", contractx.ErrCollaborator, err)
	}

	return contractx.TaskOutcome{
		Reply:   fmt.Sprintf("Okay, I'll remind you at %s: %s", fire.Format(agentsx.ReplyTimeFormat), payload),
		Success: true,
	}, nil
}

func (a *Agent) cancel(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	id := req.Slots.Value(slotReminderID)
	if id == "" {
		pending, err := a.store.ListPending(ctx, req.UserID, defaultListLimit)
		if err != nil {
			return contractx.TaskOutcome{}, fmt.Errorf("%w: list reminders: %v", contractx.ErrCollaborator, err)
		}
		if len(pending) == 0 {
			return contractx.TaskOutcome{Reply: "You have no pending reminders to cancel.", Success: true}, nil
		}
		return contractx.TaskOutcome{
			Reply:    "Which one should I cancel? Send me the id.\n" + formatReminders(pending),
			Success:  true,
			FollowUp: &contractx.FollowUp{Agent: contractx.AgentPlanner, AwaitingSlot: slotReminderID, Slots: req.Slots.Clone()},
		}, nil
	}

	rem, err := a.store.Get(ctx, id)
	if errors.Is(err, contractx.ErrReminderNotFound) {
		return contractx.TaskOutcome{Reply: "I couldn't find that reminder.", Success: false}, nil
	}
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: load reminder: %v", contractx.ErrCollaborator, err)
	}
	if rem.UserID != req.UserID {
		return contractx.TaskOutcome{Reply: "I couldn't find that reminder.", Success: false}, nil
	}

	ok, err := a.store.MarkCancelled(ctx, id, "cancelled by user", a.now())
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: cancel reminder: %v", contractx.ErrCollaborator, err)
	}
	if ok {
		return contractx.TaskOutcome{Reply: "Cancelled. I won't remind you about that.", Success: true}, nil
	}

	// Lost the race with the scheduler; report what actually happened.
	rem, err = a.store.Get(ctx, id)
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: load reminder: %v", contractx.ErrCollaborator, err)
	}
	switch rem.Status {
	case contractx.ReminderFired:
		return contractx.TaskOutcome{Reply: "That reminder has already been sent.", Success: false}, nil
	case contractx.ReminderCancelled:
		return contractx.TaskOutcome{Reply: "That reminder was already cancelled.", Success: true}, nil
	default:
		return contractx.TaskOutcome{Reply: "I couldn't cancel that reminder. Please try again.", Success: false}, nil
	}
}

func (a *Agent) list(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	pending, err := a.store.ListPending(ctx, req.UserID, defaultListLimit)
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: list reminders: %v", contractx.ErrCollaborator, err)
	}
	if len(pending) == 0 {
		return contractx.TaskOutcome{Reply: "You have no pending reminders.", Success: true}, nil
	}
	return contractx.TaskOutcome{
		Reply:   "Your pending reminders:\n" + formatReminders(pending),
		Success: true,
	}, nil
}

func formatReminders(list []*contractx.Reminder) string {
	var b strings.Builder
	for i, rem := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s at %s (id %s)", rem.Payload, rem.FireTime.Format(agentsx.ReplyTimeFormat), rem.ID)
	}
	return b.String()
}
