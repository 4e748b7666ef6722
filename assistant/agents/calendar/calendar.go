package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	agentsx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents"
	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

const (
	slotAction      = "action"
	slotTitle       = "title"
	slotStartTime   = "startTime"
	slotEndTime     = "endTime"
	slotDescription = "description"

	defaultEventDuration = time.Hour
	defaultReminderLead  = 10 * time.Minute
	defaultListLimit     = 5
)

// meetingKeywords flag events that deserve an automatic pre-start reminder.
var meetingKeywords = []string{
	"meet", "meeting", "call", "sync", "standup", "stand-up", "catch up", "interview",
}

// Agent schedules and lists calendar events. Start times must be strictly
// in the future; a past timestamp is rejected before any collaborator call.
// Calendar failures come back as failed outcomes with actionable messages
// and are never retried here.
type Agent struct {
	client    contractx.CalendarClient
	reminders contractx.ReminderStore // nil disables automatic meeting reminders

	reminderLead time.Duration
	newID        func() string
	now          func() time.Time
}

func New(client contractx.CalendarClient, reminders contractx.ReminderStore) (*Agent, error) {
	if client == nil {
		return nil, errors.New("calendar client is required")
	}
	return &Agent{
		client:       client,
		reminders:    reminders,
		reminderLead: defaultReminderLead,
		newID:        uuid.NewString,
		now:          time.Now,
	}, nil
}

func (a *Agent) Tag() contractx.AgentTag { return contractx.AgentCalendar }

func (a *Agent) Execute(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	switch action := strings.ToLower(req.Slots.Value(slotAction)); action {
	case "", "create", "schedule":
		return a.create(ctx, req)
	case "list", "show":
		return a.list(ctx, req)
	default:
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("I can create calendar events or show upcoming ones, but %q is not something I know how to do.", action),
			Success: false,
		}, nil
	}
}

func (a *Agent) create(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	title := req.Slots.Value(slotTitle)
	if title == "" {
		return agentsx.AwaitSlot(contractx.AgentCalendar, req, slotTitle, "What should I call the event?"), nil
	}
	startRaw := req.Slots.Value(slotStartTime)
	if startRaw == "" {
		return agentsx.AwaitSlot(contractx.AgentCalendar, req, slotStartTime, "When should it start?"), nil
	}

	start, err := agentsx.ParseTimeSlot(startRaw)
	if err != nil {
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("I couldn't read %q as a start time. Try a format like 2026-08-25T17:00:00+07:00.", startRaw),
			Success: false,
		}, nil
	}

	now := a.now()
	if !start.After(now) {
		return contractx.TaskOutcome{
			Reply:   fmt.Sprintf("%s is already in the past, so I didn't schedule anything. When should the event start?", start.Format(agentsx.ReplyTimeFormat)),
			Success: false,
		}, nil
	}

	end := start.Add(defaultEventDuration)
	if endRaw := req.Slots.Value(slotEndTime); endRaw != "" {
		end, err = agentsx.ParseTimeSlot(endRaw)
		if err != nil {
			return contractx.TaskOutcome{
				Reply:   fmt.Sprintf("I couldn't read %q as an end time.", endRaw),
				Success: false,
			}, nil
		}
		if !end.After(start) {
			return contractx.TaskOutcome{
				Reply:   "The end time has to be after the start time.",
				Success: false,
			}, nil
		}
	}

	event := contractx.CalendarEvent{
		Title:       title,
		StartTime:   start,
		EndTime:     end,
		Description: req.Slots.Value(slotDescription),
	}

	if _, err := a.client.CreateEvent(ctx, req.UserID, event); err != nil {
		return failedOutcome(err), nil
	}

	reply := fmt.Sprintf("Scheduled %q for %s.", title, start.Format(agentsx.ReplyTimeFormat))
	if a.scheduleMeetingReminder(ctx, req.UserID, event, now) {
		reply += fmt.Sprintf(" I'll remind you %d minutes before it starts.", int(a.reminderLead.Minutes()))
	}
	return contractx.TaskOutcome{Reply: reply, Success: true}, nil
}

func (a *Agent) list(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	events, err := a.client.ListEvents(ctx, req.UserID, a.now(), defaultListLimit)
	if err != nil {
		return failedOutcome(err), nil
	}
	if len(events) == 0 {
		return contractx.TaskOutcome{Reply: "Your calendar is clear from here on.", Success: true}, nil
	}

	var b strings.Builder
	b.WriteString("Here's what's coming up:")
	for _, ev := range events {
		fmt.Fprintf(&b, "\n- %s at %s", ev.Title, ev.StartTime.Format(agentsx.ReplyTimeFormat))
	}
	return contractx.TaskOutcome{Reply: b.String(), Success: true}, nil
}

// failedOutcome maps calendar collaborator errors onto user-facing failed
// outcomes. Auth expiry is surfaced, not retried: a retry without fresh
// authorization cannot succeed.
func failedOutcome(err error) contractx.TaskOutcome {
	switch {
	case errors.Is(err, contractx.ErrAuthExpired):
		return contractx.TaskOutcome{
			Reply:   "Your calendar authorization has expired. Please re-link your calendar, then ask me again.",
			Success: false,
		}
	case errors.Is(err, contractx.ErrInvalidPayload):
		return contractx.TaskOutcome{
			Reply:   "The calendar rejected that event. Check the details and try again.",
			Success: false,
		}
	default:
		return contractx.TaskOutcome{
			Reply:   "The calendar service is unavailable right now. Please try again in a moment.",
			Success: false,
		}
	}
}

// scheduleMeetingReminder files a pre-start reminder for meeting-like
// events. A failure here degrades to a log line; the event itself already
// exists.
func (a *Agent) scheduleMeetingReminder(ctx context.Context, userID string, event contractx.CalendarEvent, now time.Time) bool {
	if a.reminders == nil || !isMeeting(event) {
		return false
	}
	fireTime := event.StartTime.Add(-a.reminderLead)
	if !fireTime.After(now) {
		return false
	}

	rem := &contractx.Reminder{
		ID:            a.newID(),
		UserID:        userID,
		FireTime:      fireTime,
		Payload:       fmt.Sprintf("%q starts at %s.", event.Title, event.StartTime.Format(agentsx.ReplyTimeFormat)),
		Status:        contractx.ReminderPending,
		NextAttemptAt: fireTime,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	if err := a.reminders.Create(ctx, rem); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("meeting reminder not scheduled")
		return false
	}
	return true
}

func isMeeting(event contractx.CalendarEvent) bool {
	haystack := strings.ToLower(event.Title + " " + event.Description)
	for _, kw := range meetingKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
