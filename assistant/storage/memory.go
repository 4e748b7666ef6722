package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// MemoryReminderStore is the in-process ReminderStore used for local runs
// and tests. Records are copied on the way in and out so callers never
// share memory with the store.
type MemoryReminderStore struct {
	mu        sync.Mutex
	reminders map[string]*contractx.Reminder
}

func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{reminders: make(map[string]*contractx.Reminder)}
}

func (s *MemoryReminderStore) Create(_ context.Context, rem *contractx.Reminder) error {
	if rem == nil || rem.ID == "" {
		return errors.New("storage: reminder id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[rem.ID]; ok {
		return fmt.Errorf("storage: reminder %s already exists", rem.ID)
	}
	cp := *rem
	s.reminders[rem.ID] = &cp
	return nil
}

func (s *MemoryReminderStore) Get(_ context.Context, id string) (*contractx.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok {
		return nil, contractx.ErrReminderNotFound
	}
	cp := *rem
	return &cp, nil
}

func (s *MemoryReminderStore) DuePending(_ context.Context, now time.Time, limit int) ([]*contractx.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*contractx.Reminder
	for _, rem := range s.reminders {
		if rem.Status != contractx.ReminderPending {
			continue
		}
		if rem.FireTime.After(now) || rem.NextAttemptAt.After(now) {
			continue
		}
		cp := *rem
		out = append(out, &cp)
	}
	sortByFireTime(out)
	return clip(out, limit), nil
}

func (s *MemoryReminderStore) ListPending(_ context.Context, userID string, limit int) ([]*contractx.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*contractx.Reminder
	for _, rem := range s.reminders {
		if rem.UserID != userID || rem.Status != contractx.ReminderPending {
			continue
		}
		cp := *rem
		out = append(out, &cp)
	}
	sortByFireTime(out)
	return clip(out, limit), nil
}

func (s *MemoryReminderStore) MarkFired(_ context.Context, id string, now time.Time) (bool, error) {
	return s.transition(id, contractx.ReminderFired, "", now), nil
}

func (s *MemoryReminderStore) MarkCancelled(_ context.Context, id string, reason string, now time.Time) (bool, error) {
	return s.transition(id, contractx.ReminderCancelled, reason, now), nil
}

// transition flips a still-pending reminder to a terminal status. It
// reports false when the record is missing or already terminal, matching
// the conditional update the Postgres store issues.
func (s *MemoryReminderStore) transition(id string, to contractx.ReminderStatus, reason string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok || rem.Status != contractx.ReminderPending {
		return false
	}
	rem.Status = to
	if reason != "" {
		rem.LastError = reason
	}
	rem.UpdatedAt = now.UTC()
	return true
}

func (s *MemoryReminderStore) RecordFailure(_ context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok {
		return contractx.ErrReminderNotFound
	}
	if rem.Status != contractx.ReminderPending {
		return nil
	}
	rem.Attempts = attempts
	rem.NextAttemptAt = nextAttemptAt.UTC()
	rem.LastError = lastError
	rem.UpdatedAt = time.Now().UTC()
	return nil
}

func sortByFireTime(rems []*contractx.Reminder) {
	sort.Slice(rems, func(i, j int) bool { return rems[i].FireTime.Before(rems[j].FireTime) })
}

func clip(rems []*contractx.Reminder, limit int) []*contractx.Reminder {
	if limit > 0 && len(rems) > limit {
		return rems[:limit]
	}
	return rems
}

// MemoryNoteStore is the in-process NoteStore counterpart.
type MemoryNoteStore struct {
	mu    sync.Mutex
	notes []*contractx.Note
}

func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{}
}

func (s *MemoryNoteStore) Create(_ context.Context, note *contractx.Note) error {
	if note == nil || note.ID == "" {
		return errors.New("storage: note id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *note
	s.notes = append(s.notes, &cp)
	return nil
}

func (s *MemoryNoteStore) ListByUser(_ context.Context, userID string, limit int) ([]*contractx.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*contractx.Note
	for _, note := range s.notes {
		if note.UserID != userID {
			continue
		}
		cp := *note
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
