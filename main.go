package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	agentsx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents"
	calagentx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents/calendar"
	chatx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents/chat"
	notesx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents/notes"
	plannerx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents/planner"
	calendarapix "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/calendarapi"
	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
	llmx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/llm"
	orchestratorx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/orchestrator"
	reminderx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/reminder"
	resolverx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/resolver"
	statex "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/state"
	storagex "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/storage"
	configx "github.com/aydalabs/Ayda-Conversational-Assistant/pkg/config"
	logx "github.com/aydalabs/Ayda-Conversational-Assistant/pkg/logger"
	openrouterx "github.com/aydalabs/Ayda-Conversational-Assistant/pkg/openrouter"
	twiliox "github.com/aydalabs/Ayda-Conversational-Assistant/pkg/twilio"
)

// AppConfig selects the backing implementations. Memory backends run the
// whole assistant in one process with no external services.
type AppConfig struct {
	SessionBackend   string `envconfig:"SESSION_BACKEND" default:"memory"`
	StorageBackend   string `envconfig:"STORAGE_BACKEND" default:"memory"`
	MessengerBackend string `envconfig:"MESSENGER_BACKEND" default:"console"`
	CalendarBackend  string `envconfig:"CALENDAR_BACKEND" default:"memory"`
	ConsoleUserID    string `envconfig:"CONSOLE_USER_ID" default:"local-user"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("llm config invalid")
	}
	resolverModel := openrouterx.MustNew(llmCfg.OpenRouterFor(llmx.RoleResolver))
	chatModel := openrouterx.MustNew(llmCfg.OpenRouterFor(llmx.RoleChat))

	sessions := newSessionStore(appCfg)
	noteStore, reminderStore := newStores(ctx, appCfg)
	calendarClient := newCalendarClient(appCfg)
	messenger := newMessenger(appCfg)

	noteAgent, err := notesx.New(noteStore)
	if err != nil {
		log.Fatal().Err(err).Msg("note agent init failed")
	}
	calendarAgent, err := calagentx.New(calendarClient, reminderStore)
	if err != nil {
		log.Fatal().Err(err).Msg("calendar agent init failed")
	}
	plannerAgent, err := plannerx.New(reminderStore)
	if err != nil {
		log.Fatal().Err(err).Msg("planner agent init failed")
	}
	chatAgent, err := chatx.New(chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("chat agent init failed")
	}

	registry, err := agentsx.NewRegistry(noteAgent, calendarAgent, plannerAgent, chatAgent)
	if err != nil {
		log.Fatal().Err(err).Msg("agent registry init failed")
	}

	res, err := resolverx.New(resolverModel)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver init failed")
	}

	orch, err := orchestratorx.New(sessions, res, registry, *configx.MustNew[orchestratorx.Config]("ORCHESTRATOR"))
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	sched, err := reminderx.New(reminderStore, messenger, *configx.MustNew[reminderx.Config]("REMINDER"))
	if err != nil {
		log.Fatal().Err(err).Msg("reminder scheduler init failed")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("reminder scheduler start failed")
	}

	runConsole(ctx, orch, appCfg.ConsoleUserID)

	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("reminder scheduler stop reported an error")
	}
}

// runConsole reads utterances from stdin and prints replies until the
// context is cancelled or stdin closes.
func runConsole(ctx context.Context, orch *orchestratorx.Orchestrator, userID string) {
	fmt.Println("Ayda is listening. Type a message, Ctrl+C to quit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			reply, err := orch.Handle(ctx, userID, line)
			if err != nil {
				log.Warn().Err(err).Msg("turn rejected")
				continue
			}
			fmt.Println(reply)
		}
	}
}

func newSessionStore(cfg *AppConfig) statex.Store {
	switch strings.ToLower(cfg.SessionBackend) {
	case "", "memory":
		return statex.NewMemoryStore()
	case "redis":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("session store init failed")
		}
		return store
	default:
		log.Fatal().Str("backend", cfg.SessionBackend).Msg("unknown session backend")
		return nil
	}
}

func newStores(ctx context.Context, cfg *AppConfig) (contractx.NoteStore, contractx.ReminderStore) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "", "memory":
		return storagex.NewMemoryNoteStore(), storagex.NewMemoryReminderStore()
	case "postgres":
		pgCfg := configx.MustNew[storagex.PostgresConfig]("POSTGRES")
		db, err := storagex.OpenPostgres(ctx, *pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		if err := storagex.CreateSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("postgres schema init failed")
		}
		notes, err := storagex.NewPostgresNoteStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("note store init failed")
		}
		reminders, err := storagex.NewPostgresReminderStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("reminder store init failed")
		}
		return notes, reminders
	default:
		log.Fatal().Str("backend", cfg.StorageBackend).Msg("unknown storage backend")
		return nil, nil
	}
}

func newCalendarClient(cfg *AppConfig) contractx.CalendarClient {
	switch strings.ToLower(cfg.CalendarBackend) {
	case "", "memory":
		return calendarapix.NewMemoryClient()
	case "rest":
		calCfg := configx.MustNew[calendarapix.Config]("CALENDAR_API")
		return calendarapix.MustNew(*calCfg)
	default:
		log.Fatal().Str("backend", cfg.CalendarBackend).Msg("unknown calendar backend")
		return nil
	}
}

func newMessenger(cfg *AppConfig) contractx.Messenger {
	switch strings.ToLower(cfg.MessengerBackend) {
	case "", "console":
		return consoleMessenger{}
	case "twilio":
		twilioCfg := configx.MustNew[twiliox.Config]("TWILIO")
		return twiliox.MustNew(*twilioCfg)
	default:
		log.Fatal().Str("backend", cfg.MessengerBackend).Msg("unknown messenger backend")
		return nil
	}
}

// consoleMessenger prints deliveries to stdout for local runs.
type consoleMessenger struct{}

func (consoleMessenger) Send(_ context.Context, userID string, text string) error {
	fmt.Printf("\n[to %s] %s\n> ", userID, text)
	return nil
}
