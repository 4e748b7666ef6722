package calendarapi

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// MemoryClient keeps events in process for local runs without a calendar
// provider.
type MemoryClient struct {
	mu     sync.Mutex
	events map[string][]contractx.CalendarEvent
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{events: make(map[string][]contractx.CalendarEvent)}
}

func (m *MemoryClient) CreateEvent(_ context.Context, userID string, event contractx.CalendarEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = uuid.NewString()
	m.events[userID] = append(m.events[userID], event)
	return event.ID, nil
}

func (m *MemoryClient) ListEvents(_ context.Context, userID string, from time.Time, limit int) ([]contractx.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []contractx.CalendarEvent
	for _, event := range m.events[userID] {
		if event.StartTime.Before(from) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
