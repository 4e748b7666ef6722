package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/resolver.txt
var resolverRaw string

//go:embed template/chat.txt
var chatRaw string

// Resolver returns the intent-resolution system prompt. It instructs the
// model to answer with a single JSON object naming one of the agent tags.
func Resolver() string {
	return strings.TrimSpace(resolverRaw)
}

// Chat returns the small-talk persona prompt.
func Chat() string {
	return strings.TrimSpace(chatRaw)
}
