package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a session has no persisted state.
var ErrNotFound = errors.New("session: not found")

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it in
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists session state as one JSONB document per session.
type Store struct {
	db DB
}

// NewStore initializes a session store backed by pgx.
func NewStore(db DB) *Store {
	if db == nil {
		panic("session: db required")
	}
	return &Store{db: db}
}

// Save upserts the state document for its session.
func (s *Store) Save(ctx context.Context, state State) error {
	if state.SessionID == "" {
		return errors.New("session: session id required")
	}
	state.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: failed to marshal state: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (session_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`, state.SessionID, doc, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session: failed to persist state: %w", err)
	}
	return nil
}

// Load reads a session's state, returning ErrNotFound for unknown sessions.
func (s *Store) Load(ctx context.Context, sessionID string) (State, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT state FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("session: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(doc, &state); err != nil {
		return State{}, fmt.Errorf("session: failed to decode state: %w", err)
	}
	state.SessionID = sessionID
	return state, nil
}

// Delete removes a session's state. Deleting an unknown session is not an
// error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("session: failed to delete state: %w", err)
	}
	return nil
}

// LoadOrNew loads a session, creating a blank state for unknown sessions.
func (s *Store) LoadOrNew(ctx context.Context, sessionID string) (State, error) {
	state, err := s.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return NewState(sessionID), nil
	}
	return state, err
}
