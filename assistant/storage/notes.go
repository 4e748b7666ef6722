package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

type noteRow struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,default:''"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// PostgresNoteStore persists notes in Postgres.
type PostgresNoteStore struct {
	db *bun.DB
}

func NewPostgresNoteStore(db *bun.DB) (*PostgresNoteStore, error) {
	if db == nil {
		return nil, errors.New("storage: db is required")
	}
	return &PostgresNoteStore{db: db}, nil
}

func (s *PostgresNoteStore) Create(ctx context.Context, note *contractx.Note) error {
	row := noteRow{
		ID:        note.ID,
		UserID:    note.UserID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresNoteStore) ListByUser(ctx context.Context, userID string, limit int) ([]*contractx.Note, error) {
	var rows []noteRow
	q := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}

	out := make([]*contractx.Note, 0, len(rows))
	for _, row := range rows {
		out = append(out, &contractx.Note{
			ID:        row.ID,
			UserID:    row.UserID,
			Title:     row.Title,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
