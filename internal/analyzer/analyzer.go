package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"FuturesLens/internal/calculator"
	"FuturesLens/internal/collector"
	"FuturesLens/internal/model"
	"FuturesLens/internal/observability"
	"FuturesLens/internal/store"
	"FuturesLens/internal/strategy"
)

// ErrUnknownSource is returned for a Source the analyzer cannot resolve.
var ErrUnknownSource = errors.New("unknown data source")

// Result is everything one evaluation produced.
type Result struct {
	ID          string
	Source      string
	Symbol      string
	Series      *model.PriceSeries
	Rows        []model.IndicatorRow
	Signals     model.SignalSet
	Decorated   []model.DecoratedSignal
	CachePath   string
	EvaluatedAt time.Time
}

// LastRow returns the evaluated row, or nil when there are no rows.
func (r *Result) LastRow() *model.IndicatorRow {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return &r.Rows[len(r.Rows)-1]
}

// Analyzer runs acquisition, indicator computation and signal derivation.
type Analyzer struct {
	Collector *collector.Collector
	Cache     *store.FileCache
	Metrics   *observability.Metrics

	group singleflight.Group
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(col *collector.Collector, cache *store.FileCache) *Analyzer {
	return &Analyzer{
		Collector: col,
		Cache:     cache,
		Metrics:   observability.GetMetrics(),
	}
}

// Evaluate resolves src into a price table and derives the signal set of its
// last row. Short tables are not an error; their rules come back undefined.
func (a *Analyzer) Evaluate(ctx context.Context, src Source) (res *Result, err error) {
	id := uuid.NewString()
	began := time.Now()
	kind := "unknown"
	if src != nil {
		kind = src.kind()
	}
	defer func() {
		if a.Metrics != nil {
			a.Metrics.RecordEvaluation(kind, err, time.Since(began))
		}
		if err != nil {
			log.Printf("[ERROR] evaluation %s (%s) failed: %v", id, kind, err)
		}
	}()

	res = &Result{ID: id, Source: kind}
	switch s := src.(type) {
	case FetchByCode:
		series, path, err := a.fetch(ctx, s.Code)
		if err != nil {
			return nil, err
		}
		res.Series = series
		res.CachePath = path
	case UploadedTable:
		if len(s.Bars) == 0 {
			return nil, fmt.Errorf("%w: no rows", store.ErrMalformedUpload)
		}
		res.Series = &model.PriceSeries{Symbol: uploadSymbol(s), Bars: s.Bars}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownSource, src)
	}
	res.Symbol = res.Series.Symbol

	res.Rows = calculator.Compute(res.Series.Bars)
	res.Signals = strategy.DeriveLatest(res.Rows)
	res.Decorated = strategy.Decorate(res.Signals)
	res.EvaluatedAt = time.Now()

	last, _ := res.Series.Last()
	log.Printf("[INFO] evaluation %s: %s %s, %d bars, last %s, %s",
		id, kind, res.Symbol, len(res.Rows), last.Date.Format("2006-01-02"), summarize(res.Signals))
	return res, nil
}

type fetched struct {
	series *model.PriceSeries
	path   string
}

// fetch collects code, rewrites its cache file and reads it back through the
// upload parser. Concurrent calls for one code share a single download and a
// single cache write.
func (a *Analyzer) fetch(ctx context.Context, code string) (*model.PriceSeries, string, error) {
	symbol, err := collector.NormalizeCode(code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", err, code)
	}

	v, err, shared := a.group.Do(symbol, func() (any, error) {
		series, err := a.Collector.Collect(ctx, symbol)
		if err != nil {
			return nil, err
		}
		path, err := a.Cache.Save(series)
		if a.Metrics != nil {
			a.Metrics.RecordCacheWrite(err)
		}
		if err != nil {
			return nil, fmt.Errorf("write cache: %w", err)
		}
		cached, err := a.Cache.Load(symbol)
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		cached.Synthetic = series.Synthetic
		cached.FetchedAt = series.FetchedAt
		return fetched{series: cached, path: path}, nil
	})
	if err != nil {
		return nil, "", err
	}
	if shared {
		log.Printf("[INFO] fetch of %s shared with a concurrent request", symbol)
	}
	f := v.(fetched)
	return f.series, f.path, nil
}

func uploadSymbol(s UploadedTable) string {
	for _, b := range s.Bars {
		if b.Symbol != "" {
			return b.Symbol
		}
	}
	name := s.Name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".csv")
	if name == "" {
		return "UPLOAD"
	}
	return name
}

func summarize(signals model.SignalSet) string {
	counts := map[model.Label]int{}
	for _, s := range signals {
		counts[s.Label]++
	}
	return fmt.Sprintf("bullish=%d bearish=%d other=%d undefined=%d",
		counts[model.LabelBullish], counts[model.LabelBearish],
		len(signals)-counts[model.LabelBullish]-counts[model.LabelBearish]-counts[model.LabelNone],
		counts[model.LabelNone])
}
