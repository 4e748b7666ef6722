package agents

import (
	"errors"
	"fmt"
	"sort"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// Registry maps agent tags to task agents for orchestrator dispatch.
type Registry struct {
	byTag map[contractx.AgentTag]contractx.TaskAgent
}

func NewRegistry(list ...contractx.TaskAgent) (*Registry, error) {
	byTag := make(map[contractx.AgentTag]contractx.TaskAgent, len(list))
	for _, agent := range list {
		if agent == nil {
			return nil, errors.New("nil task agent")
		}
		tag := agent.Tag()
		if contractx.ParseAgentTag(string(tag)) == contractx.AgentUnknown {
			return nil, fmt.Errorf("unroutable agent tag %q", tag)
		}
		if _, dup := byTag[tag]; dup {
			return nil, fmt.Errorf("duplicate agent tag %q", tag)
		}
		byTag[tag] = agent
	}
	if len(byTag) == 0 {
		return nil, errors.New("registry needs at least one agent")
	}
	return &Registry{byTag: byTag}, nil
}

// Agent returns the task agent registered for tag.
func (r *Registry) Agent(tag contractx.AgentTag) (contractx.TaskAgent, bool) {
	agent, ok := r.byTag[tag]
	return agent, ok
}

// Tags returns the registered tags in stable order.
func (r *Registry) Tags() []contractx.AgentTag {
	tags := make([]contractx.AgentTag, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
