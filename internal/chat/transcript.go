package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Transcript markers flag notable rows beyond plain chat turns.
const (
	MarkerNone             = ""
	MarkerBookingConfirmed = "booking_confirmed"
)

// Message is one durable transcript row exposed over the history endpoint.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Marker    string    `json:"marker,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptDB is the subset of pgxpool.Pool the transcript store needs.
type TranscriptDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TranscriptStore keeps the durable per-session transcript in Postgres. The
// Redis history is a rolling window for model context; this one is complete.
type TranscriptStore struct {
	db TranscriptDB
}

// NewTranscriptStore initializes a transcript store backed by pgx.
func NewTranscriptStore(db TranscriptDB) *TranscriptStore {
	if db == nil {
		panic("chat: db required")
	}
	return &TranscriptStore{db: db}
}

// Append writes one transcript row.
func (s *TranscriptStore) Append(ctx context.Context, sessionID, role, content, marker string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, session_id, role, content, marker, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), sessionID, role, content, marker, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("chat: failed to append transcript row: %w", err)
	}
	return nil
}

// Recent returns the session's transcript in chronological order, capped at
// limit rows when limit is positive.
func (s *TranscriptStore) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `
		SELECT role, content, COALESCE(marker, ''), created_at
		FROM conversations
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to load transcript: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Marker, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("chat: failed to scan transcript row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
