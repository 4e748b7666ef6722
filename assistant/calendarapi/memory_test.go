package calendarapi

import (
	"context"
	"testing"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

func TestMemoryClientAssignsEventIDs(t *testing.T) {
	t.Parallel()

	client := NewMemoryClient()
	id, err := client.CreateEvent(context.Background(), "u1", contractx.CalendarEvent{
		Title:     "Team sync",
		StartTime: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated event id")
	}
}

func TestMemoryClientListsUpcomingSoonestFirst(t *testing.T) {
	t.Parallel()

	client := NewMemoryClient()
	ctx := context.Background()
	day := func(d, hour int) time.Time {
		return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
	}

	for _, ev := range []contractx.CalendarEvent{
		{Title: "later", StartTime: day(28, 9)},
		{Title: "past", StartTime: day(20, 9)},
		{Title: "soon", StartTime: day(26, 9)},
		{Title: "other user", StartTime: day(26, 10)},
	} {
		userID := "u1"
		if ev.Title == "other user" {
			userID = "u2"
		}
		if _, err := client.CreateEvent(ctx, userID, ev); err != nil {
			t.Fatalf("CreateEvent(%s) error = %v", ev.Title, err)
		}
	}

	events, err := client.ListEvents(ctx, "u1", day(25, 0), 10)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "soon" || events[1].Title != "later" {
		t.Fatalf("unexpected order: %q, %q", events[0].Title, events[1].Title)
	}

	limited, err := client.ListEvents(ctx, "u1", day(25, 0), 1)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(limited) != 1 || limited[0].Title != "soon" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}
