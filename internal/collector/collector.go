package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"FuturesLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price      float64
	Bars       []model.PriceBar
	Quote      *model.Quote
	HistoryErr error
	QuoteErr   error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls counts FetchHistory invocations.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchHistory(_ context.Context, _ string, start, end time.Time) ([]model.PriceBar, error) {
	m.calls.Add(1)
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	bars := m.Bars
	if bars == nil {
		bars = generateMockBars(m.price(), 120, dateOnly(end))
	}
	lo, hi := dateOnly(start), dateOnly(end)
	out := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(lo) || b.Date.After(hi) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: mock history empty", ErrDataUnavailable)
	}
	return out, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, code string) (*model.Quote, error) {
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	if m.Quote != nil {
		q := *m.Quote
		return &q, nil
	}
	p := m.price()
	return &model.Quote{
		Symbol:       code,
		Name:         code,
		Open:         p * 0.998,
		High:         p * 1.006,
		Low:          p * 0.994,
		Last:         p,
		Settlement:   p * 1.001,
		Volume:       120000,
		OpenInterest: 450000,
	}, nil
}

func (m *MockFetcher) price() float64 {
	if m.Price > 0 {
		return m.Price
	}
	return 3500
}

// generateMockBars produces count weekday bars ending the day before last,
// oscillating around basePrice.
func generateMockBars(basePrice float64, count int, last time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, 0, count)
	d := last.AddDate(0, 0, -1)
	for len(bars) < count {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			i := count - len(bars)
			p := basePrice * (1 + 0.03*math.Sin(float64(i)/7) + float64(i-count/2)*0.0005)
			bars = append(bars, model.PriceBar{
				Date:         d,
				Open:         p * 0.999,
				High:         p * 1.005,
				Low:          p * 0.995,
				Close:        p,
				Volume:       100000 + int64(i%10)*5000,
				OpenInterest: 400000,
				VWAP:         p,
			})
		}
		d = d.AddDate(0, 0, -1)
	}
	// built newest first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars
}

// Collector orchestrates history download and the synthetic session bar.
type Collector struct {
	Fetcher      Fetcher
	Clock        *SessionClock
	HistoryStart time.Time
	Now          func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, clock *SessionClock, historyStart time.Time) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Clock:        clock,
		HistoryStart: historyStart,
		Now:          time.Now,
	}
}

// Collect downloads the daily history of code, appends the realtime quote as
// a bar dated with the running session and tags every bar with the symbol.
func (c *Collector) Collect(ctx context.Context, code string) (*model.PriceSeries, error) {
	symbol, err := NormalizeCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, code)
	}

	now := c.Now()
	history, err := c.Fetcher.FetchHistory(ctx, symbol, c.HistoryStart, c.Clock.Today(now))
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", ErrDataUnavailable, symbol)
	}

	quote, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	if quote.Last <= 0 {
		return nil, fmt.Errorf("%w: quote for %s has no last price", ErrDataUnavailable, symbol)
	}

	session := c.Clock.SessionDate(now)
	bars := AppendSnapshot(history, quote, session)
	for i := range bars {
		bars[i].Symbol = symbol
	}

	log.Printf("[INFO] Collected %s from %s: %d bars, session %s, last %.2f",
		symbol, c.Fetcher.Name(), len(bars), session.Format("2006-01-02"), quote.Last)

	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		Synthetic: true,
		FetchedAt: now,
	}, nil
}

// SnapshotBar turns a realtime quote into a bar for the session date.
// The settlement price stands in for vwap. Before the first settlement
// print it is zero and the open is used instead. Feeds that always carry
// the open in that column will therefore differ once settlement prints.
func SnapshotBar(q *model.Quote, session time.Time) model.PriceBar {
	vwap := q.Settlement
	if vwap == 0 {
		vwap = q.Open
	}
	return model.PriceBar{
		Date:         session,
		Open:         q.Open,
		High:         q.High,
		Low:          q.Low,
		Close:        q.Last,
		Volume:       q.Volume,
		OpenInterest: q.OpenInterest,
		VWAP:         vwap,
	}
}

// AppendSnapshot returns a copy of history with the snapshot bar as its last
// row. History bars dated on or after the session are dropped so dates stay
// strictly increasing.
func AppendSnapshot(history []model.PriceBar, q *model.Quote, session time.Time) []model.PriceBar {
	out := make([]model.PriceBar, 0, len(history)+1)
	for _, b := range history {
		if !b.Date.Before(session) {
			break
		}
		out = append(out, b)
	}
	return append(out, SnapshotBar(q, session))
}
