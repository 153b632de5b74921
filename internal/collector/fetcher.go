package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"FuturesLens/internal/model"
)

var (
	// ErrDataUnavailable means the provider returned no usable series or quote.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrUnknownSymbol is wrapped together with ErrDataUnavailable when the
	// provider does not know the code. It does not count against the breaker.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrInvalidCode rejects codes that cannot name a contract or a cache file.
	ErrInvalidCode = errors.New("invalid instrument code")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns daily bars dated within [start, end], ascending.
	FetchHistory(ctx context.Context, code string, start, end time.Time) ([]model.PriceBar, error)
	// FetchQuote returns the realtime snapshot of the running session.
	FetchQuote(ctx context.Context, code string) (*model.Quote, error)
	Name() string
}

// NormalizeCode trims and upper-cases an instrument code such as "rb2410" or "v0".
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 16 {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// dateOnly drops the clock part, keeping the calendar date as seen in t's location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
