package agents

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// ReplyTimeFormat renders timestamps in user-facing replies.
const ReplyTimeFormat = "Mon, Jan 2 at 15:04"

// timeSlotLayouts are the timestamp formats accepted in startTime/fireTime
// slots. The resolver prompt asks for RFC 3339; the zoneless layouts accept
// model output that drops the offset and read it as local time.
var timeSlotLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimeSlot parses a slot timestamp. The error wraps ErrValidation.
func ParseTimeSlot(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", contractx.ErrValidation)
	}
	for _, layout := range timeSlotLayouts {
		var (
			t   time.Time
			err error
		)
		if strings.Contains(layout, "Z07:00") {
			t, err = time.Parse(layout, trimmed)
		} else {
			t, err = time.ParseInLocation(layout, trimmed, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", contractx.ErrValidation, raw)
}

// AwaitSlot builds the non-terminal outcome that asks the user for one
// missing slot and parks the current slots for the next turn.
func AwaitSlot(tag contractx.AgentTag, req contractx.TaskRequest, slot string, question string) contractx.TaskOutcome {
	return contractx.TaskOutcome{
		Reply:   question,
		Success: true,
		FollowUp: &contractx.FollowUp{
			Agent:        tag,
			AwaitingSlot: slot,
			Slots:        req.Slots.Clone(),
		},
	}
}
