package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"FuturesLens/internal/model"
)

// ErrMalformedUpload rejects a price table that cannot be evaluated.
var ErrMalformedUpload = errors.New("malformed price table")

// Header is the column order of cache files.
var Header = []string{"date", "open", "high", "low", "close", "volume", "open_interest", "vwap", "symbol"}

var requiredColumns = []string{"date", "open", "high", "low", "close"}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"20060102",
	time.RFC3339,
}

const dateFormat = "2006-01-02"

// WriteCSV writes bars with the cache header. Floats use the shortest
// representation that reads back to the same value.
func WriteCSV(w io.Writer, bars []model.PriceBar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, b := range bars {
		if err := writer.Write([]string{
			b.Date.Format(dateFormat),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
			strconv.FormatInt(b.OpenInterest, 10),
			formatFloat(b.VWAP),
			b.Symbol,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadCSV parses a price table. Headers are matched case-insensitively after
// trimming; date, open, high, low and close are required and unknown columns
// are ignored. Rows come back sorted by date. Every failure wraps
// ErrMalformedUpload.
func ReadCSV(r io.Reader) ([]model.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedUpload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedUpload, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedUpload, req)
		}
	}

	var bars []model.PriceBar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedUpload, line, err)
		}
		if isBlank(rec) {
			continue
		}
		bar, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedUpload, line, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedUpload)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	for i := 1; i < len(bars); i++ {
		if bars[i].Date.Equal(bars[i-1].Date) {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrMalformedUpload, bars[i].Date.Format(dateFormat))
		}
	}
	return bars, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string, cols map[string]int) (model.PriceBar, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(name string, required bool) (float64, error) {
		s := field(name)
		if s == "" {
			if required {
				return 0, fmt.Errorf("%s is empty", name)
			}
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%s: invalid number %q", name, s)
		}
		return v, nil
	}

	var bar model.PriceBar
	date, err := parseDate(field("date"))
	if err != nil {
		return bar, err
	}
	bar.Date = date

	for _, c := range []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"open", &bar.Open, true},
		{"high", &bar.High, true},
		{"low", &bar.Low, true},
		{"close", &bar.Close, true},
		{"vwap", &bar.VWAP, false},
	} {
		v, err := number(c.name, c.required)
		if err != nil {
			return bar, err
		}
		*c.dst = v
	}
	for _, c := range []struct {
		name string
		dst  *int64
	}{
		{"volume", &bar.Volume},
		{"open_interest", &bar.OpenInterest},
	} {
		v, err := number(c.name, false)
		if err != nil {
			return bar, err
		}
		*c.dst = int64(math.Round(v))
	}
	bar.Symbol = field("symbol")
	return bar, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date: unrecognised value %q", s)
}
