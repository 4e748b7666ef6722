package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

const (
	defaultInterval    = time.Minute
	defaultBatchSize   = 100
	defaultMaxAttempts = 10
	defaultBackoffBase = 30 * time.Second
	defaultBackoffCap  = 15 * time.Minute
)

// Config tunes the delivery loop. Zero values fall back to defaults.
type Config struct {
	// Interval is how often pending reminders are scanned.
	Interval time.Duration `split_words:"true" default:"60s"`
	// BatchSize caps how many due reminders one scan picks up.
	BatchSize int `split_words:"true" default:"100"`
	// MaxAttempts is the delivery attempt budget per reminder before it is
	// abandoned.
	MaxAttempts int `split_words:"true" default:"10"`
	// BackoffBase and BackoffCap bound the retry delay after a failed
	// delivery: the delay doubles per attempt from base up to cap.
	BackoffBase time.Duration `split_words:"true" default:"30s"`
	BackoffCap  time.Duration `split_words:"true" default:"15m"`
}

// Scheduler periodically scans for due pending reminders and delivers them.
// Delivery happens before the status transition, so a crash between the two
// can re-send a reminder but can never drop one. The conditional
// pending-to-fired transition keeps concurrent scans from both claiming the
// same reminder.
type Scheduler struct {
	store     contractx.ReminderStore
	messenger contractx.Messenger
	cfg       Config

	cron gocron.Scheduler

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup

	now func() time.Time
}

func New(store contractx.ReminderStore, messenger contractx.Messenger, cfg Config) (*Scheduler, error) {
	if store == nil {
		return nil, errors.New("reminder: store is required")
	}
	if messenger == nil {
		return nil, errors.New("reminder: messenger is required")
	}

	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		cfg.BackoffCap = defaultBackoffCap
	}

	return &Scheduler{
		store:     store,
		messenger: messenger,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// Start registers the scan job and begins ticking at the configured
// interval.
func (s *Scheduler) Start() error {
	cron, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.runTick),
		gocron.WithName("reminder-scan"),
	)
	if err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}

	s.cron = cron
	cron.Start()
	log.Info().Dur("interval", s.cfg.Interval).Msg("reminder scheduler started")
	return nil
}

// Stop prevents new scans and waits for in-flight deliveries to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	var err error
	if s.cron != nil {
		err = s.cron.Shutdown()
	}
	s.wg.Wait()
	log.Info().Msg("reminder scheduler stopped")
	return err
}

func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()
	s.Tick(ctx)
}

// Tick runs one scan pass: fetch reminders whose fire time has arrived and
// deliver each. Per-reminder failures are recorded and retried on a later
// pass; they never abort the rest of the batch.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.begin() {
		return
	}
	defer s.wg.Done()

	now := s.now().UTC()
	due, err := s.store.DuePending(ctx, now, s.cfg.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("due reminder scan failed")
		return
	}

	for _, rem := range due {
		s.deliver(ctx, rem, now)
	}
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scheduler) deliver(ctx context.Context, rem *contractx.Reminder, now time.Time) {
	if err := s.messenger.Send(ctx, rem.UserID, deliveryText(rem)); err != nil {
		s.recordFailure(ctx, rem, now, err)
		return
	}

	fired, err := s.store.MarkFired(ctx, rem.ID, now)
	if err != nil {
		log.Error().Err(err).Str("reminder_id", rem.ID).Msg("reminder delivered but status update failed")
		return
	}
	if !fired {
		// A concurrent pass won the transition. The user may see the
		// message twice; the reminder still fired exactly once on record.
		log.Debug().Str("reminder_id", rem.ID).Msg("reminder already resolved")
		return
	}

	log.Info().
		Str("reminder_id", rem.ID).
		Str("user_id", rem.UserID).
		Time("fire_time", rem.FireTime).
		Msg("reminder delivered")
}

// recordFailure books a failed delivery attempt. The reminder stays pending
// with a pushed-out next attempt until the attempt budget runs out, at
// which point it is cancelled with the reason on record rather than left to
// churn forever.
func (s *Scheduler) recordFailure(ctx context.Context, rem *contractx.Reminder, now time.Time, cause error) {
	attempts := rem.Attempts + 1

	if attempts >= s.cfg.MaxAttempts {
		reason := fmt.Sprintf("delivery abandoned after %d attempts: %v", attempts, cause)
		cancelled, err := s.store.MarkCancelled(ctx, rem.ID, reason, now)
		if err != nil {
			log.Error().Err(err).Str("reminder_id", rem.ID).Msg("dead-letter transition failed")
			return
		}
		if cancelled {
			log.Warn().
				Err(cause).
				Str("reminder_id", rem.ID).
				Str("user_id", rem.UserID).
				Int("attempts", attempts).
				Msg("reminder abandoned after repeated delivery failures")
		}
		return
	}

	next := now.Add(backoff(s.cfg.BackoffBase, s.cfg.BackoffCap, attempts))
	if err := s.store.RecordFailure(ctx, rem.ID, attempts, next, cause.Error()); err != nil {
		log.Error().Err(err).Str("reminder_id", rem.ID).Msg("delivery failure bookkeeping failed")
		return
	}

	log.Warn().
		Err(cause).
		Str("reminder_id", rem.ID).
		Int("attempts", attempts).
		Time("next_attempt_at", next).
		Msg("reminder delivery failed, will retry")
}

// backoff doubles the delay per attempt, bounded by limit: 30s, 1m, 2m,
// and so on up to the cap.
func backoff(base, limit time.Duration, attempts int) time.Duration {
	d := base
	for i := 1; i < attempts && d < limit; i++ {
		d *= 2
	}
	if d > limit {
		d = limit
	}
	return d
}

func deliveryText(rem *contractx.Reminder) string {
	return "Reminder: " + rem.Payload
}
