package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"FuturesLens/internal/model"
	"FuturesLens/internal/observability"
)

const sinaReferer = "https://finance.sina.com.cn/"

// SinaFetcher implements Fetcher against the public Sina futures endpoints.
type SinaFetcher struct {
	HistoryURL string
	QuoteURL   string
	Client     *http.Client
	Metrics    *observability.Metrics
}

// NewSinaFetcher creates a new fetcher with optional proxy support.
func NewSinaFetcher(historyURL, quoteURL, proxyURL string, timeout time.Duration) *SinaFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Printf("[WARN] ignoring invalid proxy URL %q: %v", proxyURL, err)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SinaFetcher{
		HistoryURL: historyURL,
		QuoteURL:   strings.TrimRight(quoteURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Metrics: observability.GetMetrics(),
	}
}

func (f *SinaFetcher) Name() string { return "sina" }

// sinaNumber accepts both quoted and bare JSON numbers.
type sinaNumber string

func (n *sinaNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = sinaNumber(s)
		return nil
	}
	*n = sinaNumber(b)
	return nil
}

func (n sinaNumber) Float() (float64, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// sinaBar is one element of the getDailyKLine payload.
// d=date o/h/l/c=prices v=volume p=open interest s=settlement
type sinaBar struct {
	D string     `json:"d"`
	O sinaNumber `json:"o"`
	H sinaNumber `json:"h"`
	L sinaNumber `json:"l"`
	C sinaNumber `json:"c"`
	V sinaNumber `json:"v"`
	P sinaNumber `json:"p"`
	S sinaNumber `json:"s"`
}

func (f *SinaFetcher) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", sinaReferer)
	return f.Client.Do(req)
}

func (f *SinaFetcher) FetchHistory(ctx context.Context, code string, start, end time.Time) (bars []model.PriceBar, err error) {
	began := time.Now()
	defer func() { f.record("history", err, began) }()

	q := url.Values{}
	q.Set("symbol", code)
	q.Set("_", end.Format("2006_01_02"))
	endpoint := f.HistoryURL + "?" + q.Encode()

	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: sina history %s: %w", ErrDataUnavailable, code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: sina history read body: %w", ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sina history %s: status %d", ErrDataUnavailable, code, resp.StatusCode)
	}

	raw, err := parseHistory(body)
	if err != nil {
		return nil, fmt.Errorf("%w: sina history %s: %w", ErrDataUnavailable, code, err)
	}

	lo, hi := dateOnly(start), dateOnly(end)
	bars = make([]model.PriceBar, 0, len(raw))
	for _, b := range raw {
		bar, err := b.toBar()
		if err != nil {
			return nil, fmt.Errorf("%w: sina history %s: %w", ErrDataUnavailable, code, err)
		}
		if bar.Date.Before(lo) || bar.Date.After(hi) {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: sina history %s: no bars between %s and %s",
			ErrDataUnavailable, code, lo.Format("2006-01-02"), hi.Format("2006-01-02"))
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// parseHistory extracts the JSON array out of the JSONP wrapper
// `var _data=([...]);`. A `(null)` body means the symbol is unknown.
func parseHistory(body []byte) ([]sinaBar, error) {
	open := bytes.Index(body, []byte("(["))
	closing := bytes.LastIndex(body, []byte("])"))
	if open < 0 || closing < open {
		if bytes.Contains(body, []byte("(null)")) || bytes.Contains(body, []byte("([])")) {
			return nil, ErrUnknownSymbol
		}
		return nil, fmt.Errorf("unrecognised payload")
	}
	var raw []sinaBar
	if err := json.Unmarshal(body[open+1:closing+1], &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrUnknownSymbol
	}
	return raw, nil
}

func (b sinaBar) toBar() (model.PriceBar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(b.D))
	if err != nil {
		return model.PriceBar{}, fmt.Errorf("bar date %q: %w", b.D, err)
	}
	var vals [7]float64
	for i, n := range []sinaNumber{b.O, b.H, b.L, b.C, b.V, b.P, b.S} {
		v, err := n.Float()
		if err != nil {
			return model.PriceBar{}, fmt.Errorf("bar %s: %w", b.D, err)
		}
		vals[i] = v
	}
	return model.PriceBar{
		Date:         date,
		Open:         vals[0],
		High:         vals[1],
		Low:          vals[2],
		Close:        vals[3],
		Volume:       int64(vals[4]),
		OpenInterest: int64(vals[5]),
		VWAP:         vals[6],
	}, nil
}

// Quote field positions in the hq_str_nf_<CODE> record.
const (
	quoteName       = 0
	quoteOpen       = 2
	quoteHigh       = 3
	quoteLow        = 4
	quoteLast       = 8
	quoteSettlement = 9
	quoteHold       = 13
	quoteVolume     = 14
	quoteMinFields  = 15
)

func (f *SinaFetcher) FetchQuote(ctx context.Context, code string) (quote *model.Quote, err error) {
	began := time.Now()
	defer func() { f.record("quote", err, began) }()

	endpoint := fmt.Sprintf("%s/rn=%d&list=nf_%s", f.QuoteURL, time.Now().UnixMilli(), code)
	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: sina quote %s: %w", ErrDataUnavailable, code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("%w: sina quote read body: %w", ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sina quote %s: status %d", ErrDataUnavailable, code, resp.StatusCode)
	}

	quote, err = parseQuote(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: sina quote %s: %w", ErrDataUnavailable, code, err)
	}
	quote.Symbol = code
	return quote, nil
}

// parseQuote reads `var hq_str_nf_V0="name,time,open,...";`.
func parseQuote(body string) (*model.Quote, error) {
	first := strings.Index(body, `"`)
	last := strings.LastIndex(body, `"`)
	if first < 0 || last <= first {
		return nil, fmt.Errorf("unrecognised payload")
	}
	record := strings.TrimSpace(body[first+1 : last])
	if record == "" {
		return nil, ErrUnknownSymbol
	}
	fields := strings.Split(record, ",")
	if len(fields) < quoteMinFields {
		return nil, fmt.Errorf("quote has %d fields, want at least %d", len(fields), quoteMinFields)
	}

	num := func(i int) (float64, error) {
		s := strings.TrimSpace(fields[i])
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("quote field %d: %w", i, err)
		}
		return v, nil
	}

	var vals [7]float64
	for i, idx := range []int{quoteOpen, quoteHigh, quoteLow, quoteLast, quoteSettlement, quoteHold, quoteVolume} {
		v, err := num(idx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &model.Quote{
		Name:         strings.TrimSpace(fields[quoteName]),
		Open:         vals[0],
		High:         vals[1],
		Low:          vals[2],
		Last:         vals[3],
		Settlement:   vals[4],
		OpenInterest: int64(vals[5]),
		Volume:       int64(vals[6]),
	}, nil
}

func (f *SinaFetcher) record(endpoint string, err error, began time.Time) {
	if f.Metrics != nil {
		f.Metrics.RecordProviderRequest(endpoint, err, time.Since(began))
	}
}
