package agents

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

func TestParseTimeSlot(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			"rfc3339 with offset",
			"2026-08-26T09:00:00+02:00",
			time.Date(2026, 8, 26, 7, 0, 0, 0, time.UTC),
		},
		{
			"rfc3339 utc",
			"2026-08-26T09:00:00Z",
			time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC),
		},
		{
			"zoneless seconds",
			"2026-08-26T09:00:00",
			time.Date(2026, 8, 26, 9, 0, 0, 0, time.Local),
		},
		{
			"zoneless minutes",
			"2026-08-26T09:00",
			time.Date(2026, 8, 26, 9, 0, 0, 0, time.Local),
		},
		{
			"space separated",
			"  2026-08-26 09:00  ",
			time.Date(2026, 8, 26, 9, 0, 0, 0, time.Local),
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimeSlot(tc.raw)
			if err != nil {
				t.Fatalf("ParseTimeSlot(%q) error = %v", tc.raw, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseTimeSlot(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseTimeSlotRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "next tuesday", "26/08/2026"} {
		if _, err := ParseTimeSlot(raw); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("ParseTimeSlot(%q) error = %v, want ErrValidation", raw, err)
		}
	}
}

func TestAwaitSlotParksCurrentSlots(t *testing.T) {
	t.Parallel()

	req := contractx.TaskRequest{
		UserID:    "u1",
		Utterance: "remind me to stretch",
		Slots:     contractx.Slots{"payload": "stretch"},
	}
	outcome := AwaitSlot(contractx.AgentPlanner, req, "fireTime", "When should I remind you?")

	if outcome.Reply != "When should I remind you?" {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
	if !outcome.Success {
		t.Fatal("expected follow-up outcome to be non-terminal success")
	}
	fu := outcome.FollowUp
	if fu == nil {
		t.Fatal("expected a follow-up")
	}
	if fu.Agent != contractx.AgentPlanner || fu.AwaitingSlot != "fireTime" {
		t.Fatalf("unexpected follow-up %+v", fu)
	}
	if got := fu.Slots.Value("payload"); got != "stretch" {
		t.Fatalf("expected parked payload slot, got %q", got)
	}

	// The parked slots are a copy, not a view of the request.
	req.Slots["payload"] = "changed"
	if got := fu.Slots.Value("payload"); got != "stretch" {
		t.Fatalf("follow-up slots alias the request, got %q", got)
	}
}

func TestAwaitSlotWithNoSlots(t *testing.T) {
	t.Parallel()

	outcome := AwaitSlot(contractx.AgentNotes, contractx.TaskRequest{UserID: "u1"}, "content", "What should the note say?")
	if outcome.FollowUp == nil || outcome.FollowUp.Slots == nil {
		t.Fatalf("expected cloned slots map, got %+v", outcome.FollowUp)
	}
	if len(outcome.FollowUp.Slots) != 0 {
		t.Fatalf("expected empty slots, got %+v", outcome.FollowUp.Slots)
	}
}
