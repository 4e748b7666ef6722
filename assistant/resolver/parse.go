package resolver

import (
	"encoding/json"
	"strconv"
	"strings"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

// intentEnvelope is the schema the model is instructed to emit.
type intentEnvelope struct {
	Agent      string         `json:"agent"`
	Confidence *float64       `json:"confidence"`
	Slots      map[string]any `json:"slots"`
}

// ParseIntent decodes raw model output into an Intent. It is a pure
// function: the same raw text always yields the same Intent. Output that
// does not decode into the expected schema, or that names a tag outside the
// catalog, comes back as AgentUnknown with confidence 0 rather than an
// error.
func ParseIntent(raw string) contractx.Intent {
	unknown := contractx.Intent{Agent: contractx.AgentUnknown, Confidence: 0}

	body, ok := extractJSONObject(raw)
	if !ok {
		return unknown
	}

	var env intentEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return unknown
	}

	tag := contractx.ParseAgentTag(env.Agent)
	if tag == contractx.AgentUnknown {
		return unknown
	}

	conf := 0.0
	if env.Confidence != nil {
		conf = clamp01(*env.Confidence)
	}

	return contractx.Intent{
		Agent:      tag,
		Slots:      slotStrings(env.Slots),
		Confidence: conf,
	}
}

// extractJSONObject returns the substring from the first '{' to the last
// '}'. Models wrap the object in prose or code fences often enough that
// taking the outermost braces is worth it; the result stays deterministic.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// slotStrings keeps string slot values and formats scalar ones; nested
// structures are dropped.
func slotStrings(in map[string]any) contractx.Slots {
	if len(in) == 0 {
		return nil
	}
	out := make(contractx.Slots, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		switch val := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				out[key] = trimmed
			}
		case float64:
			out[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(val)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
