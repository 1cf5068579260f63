package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/internal/observability/metrics"
)

type stubClient struct {
	completeErr error
	embedErr    error
}

func (s *stubClient) Complete(ctx context.Context, req Request) (Response, error) {
	return Response{Text: "ok"}, s.completeErr
}

func (s *stubClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, s.embedErr
}

type recordingObserver struct {
	ops     []string
	seconds []float64
}

func (r *recordingObserver) ObserveLLMLatency(op string, seconds float64) {
	r.ops = append(r.ops, op)
	r.seconds = append(r.seconds, seconds)
}

func TestInstrumentObservesCompleteAndEmbed(t *testing.T) {
	obs := &recordingObserver{}
	client := Instrument(&stubClient{}, obs)

	_, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	_, err = client.Embed(context.Background(), "crown cost")
	require.NoError(t, err)

	require.Equal(t, []string{"complete", "embed"}, obs.ops)
	for _, s := range obs.seconds {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestInstrumentObservesFailedCalls(t *testing.T) {
	obs := &recordingObserver{}
	client := Instrument(&stubClient{completeErr: errors.New("model unavailable")}, obs)

	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, []string{"complete"}, obs.ops)
}

func TestInstrumentNilObserverReturnsInner(t *testing.T) {
	inner := &stubClient{}
	assert.Equal(t, Client(inner), Instrument(inner, nil))
}

func TestInstrumentFeedsLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewChatMetrics(reg)
	client := Instrument(&stubClient{}, m)

	_, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	_, err = client.Embed(context.Background(), "wisdom tooth removal")
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "concierge_chat_llm_latency_seconds"))
}
