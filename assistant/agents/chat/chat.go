package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
	promptx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/prompt"
)

// Agent handles casual conversation with a small-talk prompt over the model
// collaborator, so greetings don't dead-end in a clarification reply.
type Agent struct {
	model        contractx.ModelClient
	systemPrompt string
}

func New(model contractx.ModelClient) (*Agent, error) {
	if model == nil {
		return nil, errors.New("model client is required")
	}
	systemPrompt := promptx.Chat()
	if systemPrompt == "" {
		return nil, errors.New("chat prompt is empty")
	}
	return &Agent{model: model, systemPrompt: systemPrompt}, nil
}

func (a *Agent) Tag() contractx.AgentTag { return contractx.AgentChat }

func (a *Agent) Execute(ctx context.Context, req contractx.TaskRequest) (contractx.TaskOutcome, error) {
	raw, err := a.model.Complete(ctx, a.buildPrompt(req))
	if err != nil {
		return contractx.TaskOutcome{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrCollaborator, err)
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		reply = "I'm here. How can I help?"
	}
	return contractx.TaskOutcome{Reply: reply, Success: true}, nil
}

func (a *Agent) buildPrompt(req contractx.TaskRequest) string {
	var b strings.Builder
	b.WriteString(a.systemPrompt)

	if len(req.History) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, turn := range req.History {
			fmt.Fprintf(&b, "user: %s\n", turn.Utterance)
			if reply := strings.TrimSpace(turn.Outcome.Reply); reply != "" {
				fmt.Fprintf(&b, "assistant: %s\n", reply)
			}
		}
	}

	b.WriteString("\nLatest message:\n")
	b.WriteString(strings.TrimSpace(req.Utterance))
	return b.String()
}
