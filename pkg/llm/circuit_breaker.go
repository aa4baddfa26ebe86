package llm

import (
	"context"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/metrics"
	"github.com/toolflowhq/toolflow/pkg/resilience"
)

// CircuitBreakerClient wraps a ModelClient with rate-limit circuit breaking.
type CircuitBreakerClient struct {
	inner   ModelClient
	breaker *resilience.CircuitBreaker
	obs     metrics.Observer
	open    bool
	mu      sync.Mutex
}

func NewCircuitBreakerClient(inner ModelClient, breaker *resilience.CircuitBreaker) *CircuitBreakerClient {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(3, 30*time.Second)
	}
	return &CircuitBreakerClient{inner: inner, breaker: breaker}
}

func (c *CircuitBreakerClient) Name() string { return c.inner.Name() }

// SetObserver allows metrics emission for breaker events.
func (c *CircuitBreakerClient) SetObserver(obs metrics.Observer) { c.obs = obs }

func (c *CircuitBreakerClient) Converse(ctx context.Context, req Request) (Response, error) {
	if !c.breaker.Allow() {
		c.setOpen(true)
		c.record(metrics.EventBreakerDenied)
		return Response{}, resilience.RateLimitError{Provider: c.Name(), Message: "degraded"}
	}
	c.setOpen(false)
	resp, err := c.inner.Converse(ctx, req)
	if err != nil {
		if resilience.IsRateLimit(err) {
			c.record(metrics.EventRateLimit)
		}
		c.breaker.OnError(err)
		return Response{}, err
	}
	c.breaker.OnSuccess()
	return resp, nil
}

func (c *CircuitBreakerClient) record(name string) {
	if c.obs == nil {
		return
	}
	c.obs.RecordEvent(metrics.MetricsEvent{
		Name: name,
		Time: time.Now(),
		Tags: map[string]string{
			"provider":  c.inner.Name(),
			"component": "llm",
		},
	})
}

func (c *CircuitBreakerClient) setOpen(open bool) {
	c.mu.Lock()
	changed := c.open != open
	c.open = open
	c.mu.Unlock()
	if !changed {
		return
	}
	if open {
		c.record(metrics.EventBreakerOpen)
		return
	}
	c.record(metrics.EventBreakerClose)
}
