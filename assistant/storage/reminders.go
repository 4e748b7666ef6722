package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

type reminderRow struct {
	bun.BaseModel `bun:"table:reminders,alias:r"`

	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id,notnull"`
	FireTime      time.Time `bun:"fire_time,notnull"`
	Payload       string    `bun:"payload,notnull"`
	Status        string    `bun:"status,notnull"`
	Attempts      int       `bun:"attempts,notnull,default:0"`
	NextAttemptAt time.Time `bun:"next_attempt_at,notnull"`
	LastError     string    `bun:"last_error,default:''"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func rowFromReminder(rem *contractx.Reminder) reminderRow {
	return reminderRow{
		ID:            rem.ID,
		UserID:        rem.UserID,
		FireTime:      rem.FireTime.UTC(),
		Payload:       rem.Payload,
		Status:        string(rem.Status),
		Attempts:      rem.Attempts,
		NextAttemptAt: rem.NextAttemptAt.UTC(),
		LastError:     rem.LastError,
		CreatedAt:     rem.CreatedAt.UTC(),
		UpdatedAt:     rem.UpdatedAt.UTC(),
	}
}

func (r reminderRow) toReminder() *contractx.Reminder {
	return &contractx.Reminder{
		ID:            r.ID,
		UserID:        r.UserID,
		FireTime:      r.FireTime,
		Payload:       r.Payload,
		Status:        contractx.ReminderStatus(r.Status),
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// PostgresReminderStore persists reminders in Postgres. The pending-to-
// terminal transitions are conditional single-row updates, so concurrent
// scheduler passes can never both claim the same reminder.
type PostgresReminderStore struct {
	db *bun.DB
}

func NewPostgresReminderStore(db *bun.DB) (*PostgresReminderStore, error) {
	if db == nil {
		return nil, errors.New("storage: db is required")
	}
	return &PostgresReminderStore{db: db}, nil
}

func (s *PostgresReminderStore) Create(ctx context.Context, rem *contractx.Reminder) error {
	row := rowFromReminder(rem)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *PostgresReminderStore) Get(ctx context.Context, id string) (*contractx.Reminder, error) {
	var row reminderRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractx.ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select reminder: %w", err)
	}
	return row.toReminder(), nil
}

func (s *PostgresReminderStore) DuePending(ctx context.Context, now time.Time, limit int) ([]*contractx.Reminder, error) {
	var rows []reminderRow
	q := s.db.NewSelect().Model(&rows).
		Where("status = ?", string(contractx.ReminderPending)).
		Where("fire_time <= ?", now).
		Where("next_attempt_at <= ?", now).
		Order("fire_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select due reminders: %w", err)
	}
	return rowsToReminders(rows), nil
}

func (s *PostgresReminderStore) ListPending(ctx context.Context, userID string, limit int) ([]*contractx.Reminder, error) {
	var rows []reminderRow
	q := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("status = ?", string(contractx.ReminderPending)).
		Order("fire_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select pending reminders: %w", err)
	}
	return rowsToReminders(rows), nil
}

func (s *PostgresReminderStore) MarkFired(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := s.db.NewUpdate().Model((*reminderRow)(nil)).
		Set("status = ?", string(contractx.ReminderFired)).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Where("status = ?", string(contractx.ReminderPending)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark reminder fired: %w", err)
	}
	return oneRowAffected(res)
}

func (s *PostgresReminderStore) MarkCancelled(ctx context.Context, id string, reason string, now time.Time) (bool, error) {
	res, err := s.db.NewUpdate().Model((*reminderRow)(nil)).
		Set("status = ?", string(contractx.ReminderCancelled)).
		Set("last_error = ?", reason).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Where("status = ?", string(contractx.ReminderPending)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark reminder cancelled: %w", err)
	}
	return oneRowAffected(res)
}

func (s *PostgresReminderStore) RecordFailure(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	_, err := s.db.NewUpdate().Model((*reminderRow)(nil)).
		Set("attempts = ?", attempts).
		Set("next_attempt_at = ?", nextAttemptAt.UTC()).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", string(contractx.ReminderPending)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("record delivery failure: %w", err)
	}
	return nil
}

func rowsToReminders(rows []reminderRow) []*contractx.Reminder {
	out := make([]*contractx.Reminder, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toReminder())
	}
	return out
}
