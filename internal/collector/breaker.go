package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"

	"FuturesLens/internal/model"
	"FuturesLens/internal/observability"
)

// BreakerConfig holds configuration for the provider circuit breaker.
type BreakerConfig struct {
	MaxRequests uint32        // max requests allowed in half-open state
	Interval    time.Duration // cyclic period of the closed state to clear counts
	Timeout     time.Duration // period of the open state before transitioning to half-open
}

// DefaultBreakerConfig trips after half of at least five calls fail.
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 5,
	Interval:    1 * time.Minute,
	Timeout:     30 * time.Second,
}

// BreakerStatus is the breaker snapshot reported by /healthz.
type BreakerStatus struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	Requests         uint32 `json:"requests"`
	TotalFailures    uint32 `json:"total_failures"`
	ConsecutiveFails uint32 `json:"consecutive_failures"`
}

// BreakerFetcher guards another Fetcher with a circuit breaker.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerFetcher wraps next.
func NewBreakerFetcher(next Fetcher, cfg BreakerConfig) *BreakerFetcher {
	name := next.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// An unknown code or a cancelled request says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrUnknownSymbol) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[WARN] Circuit breaker %s: %s -> %s", name, from, to)
			observability.GetMetrics().SetBreakerState(name, stateToInt(to))
		},
	}
	observability.GetMetrics().SetBreakerState(name, 0)
	return &BreakerFetcher{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *BreakerFetcher) Name() string { return b.next.Name() }

func (b *BreakerFetcher) FetchHistory(ctx context.Context, code string, start, end time.Time) ([]model.PriceBar, error) {
	res, err := b.execute(ctx, func() (any, error) {
		return b.next.FetchHistory(ctx, code, start, end)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.PriceBar), nil
}

func (b *BreakerFetcher) FetchQuote(ctx context.Context, code string) (*model.Quote, error) {
	res, err := b.execute(ctx, func() (any, error) {
		return b.next.FetchQuote(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.Quote), nil
}

func (b *BreakerFetcher) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: provider %s: %w", ErrDataUnavailable, b.cb.Name(), err)
	}
	return result, err
}

// Status reports the breaker state and counters.
func (b *BreakerFetcher) Status() BreakerStatus {
	counts := b.cb.Counts()
	return BreakerStatus{
		Name:             b.cb.Name(),
		State:            b.cb.State().String(),
		Requests:         counts.Requests,
		TotalFailures:    counts.TotalFailures,
		ConsecutiveFails: counts.ConsecutiveFailures,
	}
}

// stateToInt converts a circuit breaker state to an integer for metrics
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
