package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
	promptx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/prompt"
)

// LLMResolver classifies utterances by asking the model collaborator and
// parsing its reply with ParseIntent. The model call is the only
// nondeterministic step; parsing is pure.
type LLMResolver struct {
	model        contractx.ModelClient
	systemPrompt string

	now func() time.Time
}

func New(model contractx.ModelClient) (*LLMResolver, error) {
	if model == nil {
		return nil, errors.New("model client is required")
	}
	systemPrompt := promptx.Resolver()
	if systemPrompt == "" {
		return nil, errors.New("resolver prompt is empty")
	}
	return &LLMResolver{
		model:        model,
		systemPrompt: systemPrompt,
		now:          time.Now,
	}, nil
}

// Resolve invokes the model once. A failed call wraps ErrResolution and is
// never retried here; malformed output is not an error at all, it parses to
// AgentUnknown.
func (r *LLMResolver) Resolve(ctx context.Context, utterance string, history []contractx.Turn) (contractx.Intent, error) {
	if strings.TrimSpace(utterance) == "" {
		return contractx.Intent{}, fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	}

	raw, err := r.model.Complete(ctx, r.buildPrompt(utterance, history))
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: %v", contractx.ErrResolution, err)
	}

	return ParseIntent(raw), nil
}

func (r *LLMResolver) buildPrompt(utterance string, history []contractx.Turn) string {
	var b strings.Builder
	b.WriteString(r.systemPrompt)
	b.WriteString("\n\nCurrent time: ")
	b.WriteString(r.now().Format(time.RFC3339))
	b.WriteString("\n")

	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "user: %s\n", turn.Utterance)
			if reply := strings.TrimSpace(turn.Outcome.Reply); reply != "" {
				fmt.Fprintf(&b, "assistant: %s\n", reply)
			}
		}
	}

	b.WriteString("\nLatest message:\n")
	b.WriteString(strings.TrimSpace(utterance))
	return b.String()
}
