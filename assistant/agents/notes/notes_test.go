package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

type fakeNoteStore struct {
	mu      sync.Mutex
	created []*contractx.Note
	listed  []*contractx.Note

	createErr error
	listErr   error
}

func (f *fakeNoteStore) Create(ctx context.Context, note *contractx.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, note)
	return nil
}

func (f *fakeNoteStore) ListByUser(ctx context.Context, userID string, limit int) ([]*contractx.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

func (f *fakeNoteStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func newTestAgent(t *testing.T, store *fakeNoteStore) *Agent {
	t.Helper()
	agent, err := New(store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	agent.newID = func() string { return "note-1" }
	agent.now = func() time.Time {
		return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	}
	return agent
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestExecuteMissingContentAsksFollowUp(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	agent := newTestAgent(t, store)

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID:    "u1",
		Utterance: "take a note",
		Slots:     contractx.Slots{"title": "groceries"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Reply != "What should the note say?" {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
	fu := outcome.FollowUp
	if fu == nil || fu.Agent != contractx.AgentNotes || fu.AwaitingSlot != "content" {
		t.Fatalf("unexpected follow-up %+v", fu)
	}
	if got := fu.Slots.Value("title"); got != "groceries" {
		t.Fatalf("expected parked title slot, got %q", got)
	}
	if store.createCount() != 0 {
		t.Fatalf("expected no store call, got %d", store.createCount())
	}
}

func TestExecuteCreatesNote(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	agent := newTestAgent(t, store)

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"content": "  buy milk  ", "title": "groceries"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !outcome.Success || outcome.FollowUp != nil {
		t.Fatalf("expected terminal success, got %+v", outcome)
	}
	if outcome.Reply != `Saved your note "groceries".` {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
	if store.createCount() != 1 {
		t.Fatalf("expected one created note, got %d", store.createCount())
	}
	note := store.created[0]
	if note.ID != "note-1" || note.UserID != "u1" {
		t.Fatalf("unexpected note identity %+v", note)
	}
	if note.Content != "buy milk" || note.Title != "groceries" {
		t.Fatalf("unexpected note body %+v", note)
	}
	if !note.CreatedAt.Equal(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected CreatedAt %v", note.CreatedAt)
	}
}

func TestExecuteUntitledNoteReply(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, &fakeNoteStore{})

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"content": "buy milk"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Reply != "Saved your note." {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
}

func TestExecuteStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{createErr: errors.New("db down")}
	agent := newTestAgent(t, store)

	_, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"content": "buy milk"},
	})
	if !errors.Is(err, contractx.ErrCollaborator) {
		t.Fatalf("Execute() error = %v, want ErrCollaborator", err)
	}
}

func TestExecuteListsNotes(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{listed: []*contractx.Note{
		{Title: "groceries", Content: "buy milk"},
		{Content: "call dentist"},
	}}
	agent := newTestAgent(t, store)

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"action": "list"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "Your latest notes:\n- groceries: buy milk\n- call dentist"
	if outcome.Reply != want {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
}

func TestExecuteListEmpty(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, &fakeNoteStore{})

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"action": "show"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Reply != "You don't have any notes yet." {
		t.Fatalf("unexpected reply %q", outcome.Reply)
	}
}

func TestExecuteListFailure(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, &fakeNoteStore{listErr: errors.New("db down")})

	_, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"action": "list"},
	})
	if !errors.Is(err, contractx.ErrCollaborator) {
		t.Fatalf("Execute() error = %v, want ErrCollaborator", err)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	agent := newTestAgent(t, store)

	outcome, err := agent.Execute(context.Background(), contractx.TaskRequest{
		UserID: "u1",
		Slots:  contractx.Slots{"action": "shred", "content": "buy milk"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if !strings.Contains(outcome.Reply, `"shred"`) {
		t.Fatalf("expected action in reply, got %q", outcome.Reply)
	}
	if store.createCount() != 0 {
		t.Fatalf("expected no store call, got %d", store.createCount())
	}
}
