package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/internal/chat"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

type stubChatService struct{}

func (stubChatService) StartConversation(ctx context.Context, req chat.StartRequest) (*chat.Response, error) {
	return &chat.Response{ConversationID: "conv-1", Message: "hello", Timestamp: time.Now()}, nil
}

func (stubChatService) ProcessMessage(ctx context.Context, req chat.MessageRequest) (*chat.Response, error) {
	return &chat.Response{ConversationID: req.ConversationID, Message: "echo", Timestamp: time.Now()}, nil
}

func (stubChatService) GetHistory(ctx context.Context, conversationID string) ([]chat.Message, error) {
	return []chat.Message{{Role: "assistant", Content: "hi"}}, nil
}

func newTestRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChatHandler == nil {
		cfg.ChatHandler = chat.NewHandler(stubChatService{}, logging.Default())
	}
	return New(cfg)
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestChatRoutesWired(t *testing.T) {
	r := newTestRouter(t, nil)

	start := httptest.NewRequest(http.MethodPost, "/v1/chat/start", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, start)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "conv-1")

	msg := httptest.NewRequest(http.MethodPost, "/v1/chat/message",
		strings.NewReader(`{"conversation_id":"conv-1","message":"hi"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, msg)
	require.Equal(t, http.StatusOK, rec.Code)

	history := httptest.NewRequest(http.MethodGet, "/v1/chat/conv-1/history", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, history)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conversation_id":"conv-1"`)
}

func TestMetricsEndpointMountedWhenConfigured(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics"))
	})
	r := newTestRouter(t, &Config{MetricsHandler: metrics})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestCORSAllowedOriginEchoed(t *testing.T) {
	r := newTestRouter(t, &Config{CORSAllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	r := newTestRouter(t, &Config{RateLimitPerSecond: 1, RateLimitBurst: 2})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
