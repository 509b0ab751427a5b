package transport

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures a BreakerClient.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings mirrors the config defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "restq",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerClient wraps a Client with a circuit breaker. Transport failures
// and 5xx responses count against the breaker; 4xx responses do not.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[*Response]
}

// NewBreakerClient wraps next.
func NewBreakerClient(next Client, s BreakerSettings) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			status := StatusOf(err)
			return status >= 400 && status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerClient{next: next, cb: cb}
}

// SendRequest implements Client. While the breaker is open requests fail
// fast with gobreaker.ErrOpenState wrapped in a RequestError.
func (b *BreakerClient) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		return b.next.SendRequest(ctx, req)
	})
	if err != nil && !IsRequestError(err) {
		return resp, &RequestError{Method: req.Method, URL: req.URL, Err: err}
	}
	return resp, err
}

// State returns the breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
