package notes

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
	slotAction  = "action"
	slotContent = "content"
	slotTitle   = "title"
)

const defaultListLimit = 5

// Agent stores user notes. A missing content slot is not a failure: the
// outcome carries a follow-up awaiting the note text.
type Agent struct {
	store contractx.NoteStore

	newID func() string
	now   func() time.Time
}

func New(store contractx.NoteStore) (*Agent, error) {
	if store == nil {
		return nil, errors.New("note store is required")
	}
	return &Agent{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}, nil
}

func (a *Agent) Tag() contractx.AgentTag { return contractx.AgentNotes }

func (a *Agent) Execute(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	switch action := req.Slots.Value(slotAction); action {
	case "", "create", "save", "add":
		return a.create(ctx, req)
	case "list", "show":
		return a.list(ctx, req)
	default:
		return contractx.TaskOutcome{
			Reply: fmt.Sprintf("I don't know how to %q a note. I can save or list notes.", action),
		}, nil
	}
}

func (a *Agent) create(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	content := req.Slots.Value(slotContent)
	if content == "" {
		return agentsx.AwaitSlot(contractx.AgentNotes, req, slotContent, "What should the note say?"), nil
	}

	note := &contractx.Note{
		ID:        a.newID(),
		UserID:    req.UserID,
		Title:     req.Slots.Value(slotTitle),
		Content:   content,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.Create(ctx, note); err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: save note: %v", contractx.ErrCollaborator, err)
	}

	reply := "Saved your note."
	if note.Title != "" {
		reply = fmt.Sprintf("Saved your note %q.", note.Title)
	}
	return contractx.TaskOutcome{Reply: reply, Success: true}, nil
}

func (a *Agent) list(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	found, err := a.store.ListByUser(ctx, req.UserID, defaultListLimit)
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: list notes: %v", contractx.ErrCollaborator, err)
	}
	if len(found) == 0 {
		return contractx.TaskOutcome{Reply: "You don't have any notes yet.", Success: true}, nil
	}

	var b strings.Builder
	b.WriteString("Your latest notes:")
	for _, note := range found {
		b.WriteString("\n- ")
		if note.Title != "" {
			b.WriteString(note.Title)
			b.WriteString(": ")
		}
		b.WriteString(note.Content)
	}
	return contractx.TaskOutcome{Reply: b.String(), Success: true}, nil
}
