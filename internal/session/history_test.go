package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
)

func newTestHistoryStore(t *testing.T, maxTurns int) (*HistoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHistoryStore(client, time.Hour, maxTurns), mr
}

func TestHistoryAppendAndLoad(t *testing.T) {
	store, _ := newTestHistoryStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1",
		llm.ChatMessage{Role: llm.ChatRoleUser, Content: "find clinics for braces"},
		llm.ChatMessage{Role: llm.ChatRoleAssistant, Content: "JB, SG or both?"},
	))

	history, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, llm.ChatRoleUser, history[0].Role)
	assert.Equal(t, "JB, SG or both?", history[1].Content)
}

func TestHistoryLoadUnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestHistoryStore(t, 0)

	history, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryTruncatesToMaxTurns(t *testing.T) {
	store, _ := newTestHistoryStore(t, 4)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(ctx, "s1", llm.ChatMessage{
			Role:    llm.ChatRoleUser,
			Content: string(rune('a' + i)),
		}))
	}

	history, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "c", history[0].Content)
	assert.Equal(t, "f", history[3].Content)
}

func TestHistoryAppendSetsTTL(t *testing.T) {
	store, mr := newTestHistoryStore(t, 0)

	require.NoError(t, store.Append(context.Background(), "s1", llm.ChatMessage{
		Role:    llm.ChatRoleUser,
		Content: "hello",
	}))

	assert.Greater(t, mr.TTL("history:s1"), time.Duration(0))
}

func TestHistoryClear(t *testing.T) {
	store, mr := newTestHistoryStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", llm.ChatMessage{Role: llm.ChatRoleUser, Content: "hi"}))
	require.NoError(t, store.Clear(ctx, "s1"))

	assert.False(t, mr.Exists("history:s1"))
}
