package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// Session is the per-user conversation record the orchestrator owns.
// - Turns are append-only; retention is bounded by the store, not here.
// - FollowUp has single-slot capacity: at most one outstanding follow-up,
//   and a newer one replaces it (last-wins).
type Session struct {
	UserID     string              `json:"user_id"`
	Turns      []contractx.Turn    `json:"turns,omitempty"`
	FollowUp   *contractx.FollowUp `json:"follow_up,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	LastActive time.Time           `json:"last_active"`
}

var (
	ErrInvalidUser     = errors.New("user id is empty")
	ErrInvalidFollowUp = errors.New("follow-up is malformed")
	ErrTurnOutOfOrder  = errors.New("turn is older than the last recorded turn")
	ErrNilSession      = errors.New("session is nil")
	ErrSessionNotFound = errors.New("session not found")
)

func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:     userID,
		CreatedAt:  now.UTC(),
		LastActive: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActive = now.UTC()
}

// AppendTurn records one completed exchange. Turns are never rewritten.
func (s *Session) AppendTurn(turn contractx.Turn) {
	turn.At = turn.At.UTC()
	s.Turns = append(s.Turns, turn)
}

// RecentTurns returns the last n turns, oldest first.
func (s *Session) RecentTurns(n int) []contractx.Turn {
	if s == nil || n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if n > len(s.Turns) {
		n = len(s.Turns)
	}
	out := make([]contractx.Turn, n)
	copy(out, s.Turns[len(s.Turns)-n:])
	return out
}

// SetFollowUp installs or replaces the pending follow-up. A nil argument
// clears it; capacity is one, so the newest always wins.
func (s *Session) SetFollowUp(f *contractx.FollowUp) {
	if f == nil {
		s.FollowUp = nil
		return
	}
	cp := *f
	cp.Slots = f.Slots.Clone()
	s.FollowUp = &cp
}

func (s *Session) ClearFollowUp() {
	s.FollowUp = nil
}

// Validate checks the invariants a stored session must satisfy.
func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.UserID) == "" {
		return ErrInvalidUser
	}
	if f := s.FollowUp; f != nil {
		if contractx.ParseAgentTag(string(f.Agent)) == contractx.AgentUnknown {
			return fmt.Errorf("%w: agent=%q", ErrInvalidFollowUp, f.Agent)
		}
		if strings.TrimSpace(f.AwaitingSlot) == "" {
			return fmt.Errorf("%w: awaiting slot is empty", ErrInvalidFollowUp)
		}
	}
	for i := 1; i < len(s.Turns); i++ {
		if s.Turns[i].At.Before(s.Turns[i-1].At) {
			return fmt.Errorf("%w: index=%d", ErrTurnOutOfOrder, i)
		}
	}
	return nil
}
