package llm

import (
	"context"
	"time"
)

// LatencyObserver receives the wall-clock duration of every model call.
type LatencyObserver interface {
	ObserveLLMLatency(op string, seconds float64)
}

type instrumentedClient struct {
	inner Client
	obs   LatencyObserver
}

// Instrument wraps a client so every Complete and Embed call reports its
// latency. Failed calls are observed too; timeouts are the latencies most
// worth seeing.
func Instrument(inner Client, obs LatencyObserver) Client {
	if inner == nil || obs == nil {
		return inner
	}
	return &instrumentedClient{inner: inner, obs: obs}
}

func (c *instrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := c.inner.Complete(ctx, req)
	c.obs.ObserveLLMLatency("complete", time.Since(start).Seconds())
	return resp, err
}

func (c *instrumentedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := c.inner.Embed(ctx, text)
	c.obs.ObserveLLMLatency("embed", time.Since(start).Seconds())
	return vec, err
}
