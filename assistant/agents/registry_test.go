package agents

import (
	"context"
	"reflect"
	"testing"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

type stubAgent struct {
	tag contractx.AgentTag
}

func (s *stubAgent) Tag() contractx.AgentTag { return s.tag }

func (s *stubAgent) Execute(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	return contractx.TaskOutcome{Reply: "ok", Success: true}, nil
}

func TestNewRegistryValidatesAgents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		list []contractx.TaskAgent
	}{
		{"empty", nil},
		{"nil agent", []contractx.TaskAgent{nil}},
		{"unroutable tag", []contractx.TaskAgent{&stubAgent{tag: "weather"}}},
		{"unknown tag", []contractx.TaskAgent{&stubAgent{tag: contractx.AgentUnknown}}},
		{"duplicate tag", []contractx.TaskAgent{
			&stubAgent{tag: contractx.AgentNotes},
			&stubAgent{tag: contractx.AgentNotes},
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRegistry(tc.list...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	notes := &stubAgent{tag: contractx.AgentNotes}
	reg, err := NewRegistry(notes, &stubAgent{tag: contractx.AgentChat})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	got, ok := reg.Agent(contractx.AgentNotes)
	if !ok || got != contractx.TaskAgent(notes) {
		t.Fatalf("Agent(notes) = %v, %v", got, ok)
	}
	if _, ok := reg.Agent(contractx.AgentCalendar); ok {
		t.Fatal("expected calendar to be unregistered")
	}
}

func TestRegistryTagsAreSorted(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(
		&stubAgent{tag: contractx.AgentPlanner},
		&stubAgent{tag: contractx.AgentNotes},
		&stubAgent{tag: contractx.AgentCalendar},
		&stubAgent{tag: contractx.AgentChat},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	want := []contractx.AgentTag{
		contractx.AgentCalendar,
		contractx.AgentChat,
		contractx.AgentNotes,
		contractx.AgentPlanner,
	}
	if got := reg.Tags(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags() = %v, want %v", got, want)
	}
}
