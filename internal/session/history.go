package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
)

const (
	defaultHistoryTTL      = 24 * time.Hour
	defaultHistoryMaxTurns = 20
)

// HistoryStore keeps the rolling chat transcript per session in Redis. The
// transcript is what the language-model calls see; the durable copy lives in
// Postgres.
type HistoryStore struct {
	redis    *redis.Client
	tracer   trace.Tracer
	ttl      time.Duration
	maxTurns int
}

// NewHistoryStore builds a history store. ttl and maxTurns fall back to the
// defaults when non-positive.
func NewHistoryStore(client *redis.Client, ttl time.Duration, maxTurns int) *HistoryStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	if maxTurns <= 0 {
		maxTurns = defaultHistoryMaxTurns
	}
	return &HistoryStore{
		redis:    client,
		tracer:   otel.Tracer("concierge.internal.session.history"),
		ttl:      ttl,
		maxTurns: maxTurns,
	}
}

// Load returns the session's transcript, empty for unknown sessions.
func (s *HistoryStore) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "session.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load history: %w", err)
	}

	var history []llm.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode history: %w", err)
	}
	return history, nil
}

// Append adds messages to the transcript, truncating to the most recent
// maxTurns entries, and refreshes the TTL.
func (s *HistoryStore) Append(ctx context.Context, sessionID string, msgs ...llm.ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "session.append_history")
	defer span.End()

	history, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, msgs...)
	if len(history) > s.maxTurns {
		history = history[len(history)-s.maxTurns:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist history: %w", err)
	}
	return nil
}

// Clear drops the transcript, used on session reset.
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "session.clear_history")
	defer span.End()

	if err := s.redis.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to clear history: %w", err)
	}
	return nil
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("history:%s", sessionID)
}
