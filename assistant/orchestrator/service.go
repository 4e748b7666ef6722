package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	agentsx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/agents"
	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
	statex "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/state"
)

const (
	defaultHistoryDepth        = 10
	defaultConfidenceThreshold = 0.6
)

// Fixed replies for turns that never reach a task agent.
const (
	replyResolverDown = "Sorry, I had trouble understanding that. Could you say it again?"
	replyClarify      = "I'm not sure what you'd like me to do. I can save notes, manage your calendar, set reminders, or just chat."
	replyAgentDown    = "Sorry, something went wrong on my side while handling that. Please try again."
)

var (
	ErrInvalidUser    = errors.New("user id is required")
	ErrInvalidMessage = errors.New("message is required")
)

// Config tunes routing behavior. Zero values fall back to defaults.
type Config struct {
	// HistoryDepth is how many recent turns are passed to the resolver and
	// task agents as conversational context.
	HistoryDepth int `split_words:"true" default:"10"`
	// ConfidenceThreshold is the minimum resolver confidence required to
	// dispatch; anything below it earns a clarification reply instead.
	ConfidenceThreshold float64 `split_words:"true" default:"0.6"`
}

// Orchestrator owns the turn loop for inbound utterances: load the session,
// resolve or resume a follow-up, dispatch to a task agent, record the turn,
// reply.
type Orchestrator struct {
	sessions statex.Store
	resolver contractx.Resolver
	registry *agentsx.Registry

	locks               *userLocks
	historyDepth        int
	confidenceThreshold float64

	now func() time.Time
}

func New(sessions statex.Store, resolver contractx.Resolver, registry *agentsx.Registry, cfg Config) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("orchestrator: session store is required")
	}
	if resolver == nil {
		return nil, errors.New("orchestrator: resolver is required")
	}
	if registry == nil {
		return nil, errors.New("orchestrator: agent registry is required")
	}

	historyDepth := cfg.HistoryDepth
	if historyDepth <= 0 {
		historyDepth = defaultHistoryDepth
	}
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	if threshold > 1 {
		return nil, fmt.Errorf("orchestrator: confidence threshold %v out of range", threshold)
	}

	return &Orchestrator{
		sessions:            sessions,
		resolver:            resolver,
		registry:            registry,
		locks:               newUserLocks(),
		historyDepth:        historyDepth,
		confidenceThreshold: threshold,
		now:                 time.Now,
	}, nil
}

// Handle processes one utterance for one user and returns the reply text.
// Turns for the same user are serialized; turns for different users run
// concurrently. Failures inside the turn degrade to apologetic replies so
// the conversation survives: the returned error is reserved for unusable
// input.
func (o *Orchestrator) Handle(ctx context.Context, userID, utterance string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUser
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "", ErrInvalidMessage
	}

	release := o.locks.acquire(userID)
	defer release()

	now := o.now().UTC()
	sess, err := o.loadOrCreateSession(ctx, userID, now)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("session load failed")
		return replyAgentDown, nil
	}

	intent, resolveErr := o.resolveTurn(ctx, sess, utterance)

	var outcome contractx.TaskOutcome
	switch {
	case resolveErr != nil:
		log.Warn().Err(resolveErr).Str("user_id", userID).Msg("intent resolution failed")
		intent = contractx.Intent{Agent: contractx.AgentUnknown}
		outcome = contractx.TaskOutcome{Reply: replyResolverDown}
	case o.needsClarification(intent):
		log.Debug().
			Err(contractx.ErrAmbiguousIntent).
			Str("user_id", userID).
			Str("agent", string(intent.Agent)).
			Float64("confidence", intent.Confidence).
			Msg("asking user to clarify")
		outcome = contractx.TaskOutcome{Reply: replyClarify}
	default:
		outcome = o.dispatch(ctx, sess, userID, utterance, intent)
	}

	sess.SetFollowUp(outcome.FollowUp)
	sess.AppendTurn(contractx.Turn{
		At:        now,
		Utterance: utterance,
		Intent:    intent,
		Outcome:   outcome,
	})
	sess.Touch(now)

	if err := o.sessions.Save(ctx, sess); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("session save failed")
	}

	return outcome.Reply, nil
}

// resolveTurn resumes a pending follow-up when one exists: the utterance is
// taken verbatim as the awaited slot value and the stored agent tag is
// reused without consulting the resolver. Otherwise it asks the resolver
// for a fresh intent.
func (o *Orchestrator) resolveTurn(ctx context.Context, sess *statex.Session, utterance string) (contractx.Intent, error) {
	if f := sess.FollowUp; f != nil {
		slots := f.Slots.Clone()
		slots[f.AwaitingSlot] = utterance
		return contractx.Intent{Agent: f.Agent, Slots: slots, Confidence: 1}, nil
	}
	return o.resolver.Resolve(ctx, utterance, sess.RecentTurns(o.historyDepth))
}

func (o *Orchestrator) needsClarification(intent contractx.Intent) bool {
	return intent.Agent == contractx.AgentUnknown || intent.Confidence < o.confidenceThreshold
}

// dispatch hands the turn to the agent registered for the intent's tag. An
// agent error is an infrastructure fault, not a user mistake: it is logged
// and softened into an apology so the turn still completes.
func (o *Orchestrator) dispatch(ctx context.Context, sess *statex.Session, userID, utterance string, intent contractx.Intent) contractx.TaskOutcome {
	agent, ok := o.registry.Agent(intent.Agent)
	if !ok {
		log.Debug().
			Err(contractx.ErrAmbiguousIntent).
			Str("user_id", userID).
			Str("agent", string(intent.Agent)).
			Msg("no agent registered for tag")
		return contractx.TaskOutcome{Reply: replyClarify}
	}

	outcome, err := agent.Execute(ctx, contractx.TaskRequest{
		UserID:    userID,
		Utterance: utterance,
		Slots:     intent.Slots,
		History:   sess.RecentTurns(o.historyDepth),
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("agent", string(intent.Agent)).Msg("task agent failed")
		return contractx.TaskOutcome{Reply: replyAgentDown}
	}
	return outcome
}

func (o *Orchestrator) loadOrCreateSession(ctx context.Context, userID string, now time.Time) (*statex.Session, error) {
	sess, err := o.sessions.Load(ctx, userID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, statex.ErrSessionNotFound) {
		return nil, err
	}
	return statex.NewSession(userID, now), nil
}
