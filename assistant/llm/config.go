package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
	openrouterx "github.com/aydalabs/Ayda-Conversational-Assistant/pkg/openrouter"
)

// Role names a model consumer inside the assistant. The resolver wants a
// cold, schema-obedient model; chat wants a warmer one.
type Role string

const (
	RoleResolver Role = "resolver"
	RoleChat     Role = "chat"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ResolverModel       string  `envconfig:"RESOLVER_MODEL" split_words:"true"`
	ChatModel           string  `envconfig:"CHAT_MODEL" split_words:"true"`
	ResolverTemperature float32 `envconfig:"RESOLVER_TEMPERATURE" split_words:"true" default:"-1"`
	ChatTemperature     float32 `envconfig:"CHAT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the effective model settings for a role. Role
// overrides fall back to the shared defaults; a negative role temperature
// means "not set".
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case RoleResolver:
		if v := strings.TrimSpace(c.ResolverModel); v != "" {
			modelName = v
		}
		if c.ResolverTemperature >= 0 {
			temp = c.ResolverTemperature
		}
	case RoleChat:
		if v := strings.TrimSpace(c.ChatModel); v != "" {
			modelName = v
		}
		if c.ChatTemperature >= 0 {
			temp = c.ChatTemperature
		}
	}

	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: c.MaxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
