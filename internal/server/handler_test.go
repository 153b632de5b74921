package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesLens/internal/analyzer"
	"FuturesLens/internal/collector"
	"FuturesLens/internal/model"
	"FuturesLens/internal/observability"
	"FuturesLens/internal/store"
	"FuturesLens/internal/strategy"
)

type testEnv struct {
	router  http.Handler
	fetcher *collector.MockFetcher
	cache   *store.FileCache
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fetcher := &collector.MockFetcher{Price: 5600}
	clock, err := collector.NewSessionClock("Asia/Shanghai", "0 21 * * *")
	require.NoError(t, err)
	cache := store.NewFileCache(t.TempDir())
	breaker := collector.NewBreakerFetcher(fetcher, collector.DefaultBreakerConfig)
	an := analyzer.NewAnalyzer(collector.NewCollector(breaker, clock, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)), cache)
	metrics := observability.NewMetrics()
	h := NewHandler(an, cache, breaker, metrics)
	return &testEnv{router: NewRouter(h, 5*time.Second), fetcher: fetcher, cache: cache, metrics: metrics}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postFile(t *testing.T, name, content string) *http.Request {
	return postFileWithFields(t, name, content, nil)
}

func postFileWithFields(t *testing.T, name, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func csvTable(n int) string {
	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := 100 + float64(i)
		fmt.Fprintf(&b, "%s,%g,%g,%g,%g,%d\n", d.AddDate(0, 0, i).Format("2006-01-02"), p-0.5, p+1, p-1, p, 1000+i)
	}
	return b.String()
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/analyze"`)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestHandleAnalyze_Code(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postForm(url.Values{"code": {"v0"}}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "<title>V0 · FuturesLens</title>")
	assert.Contains(t, body, strategy.NameMACD)
	assert.Contains(t, body, `href="/cache/V0.csv"`)

	_, err := env.cache.Load("V0")
	assert.NoError(t, err)
}

func TestHandleAnalyze_Upload(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postFile(t, "m2409.csv", csvTable(40)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "m2409")
	assert.EqualValues(t, 0, env.fetcher.Calls(), "upload does not touch the provider")
}

func TestHandleAnalyze_CodeTakesPrecedenceOverFile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postFileWithFields(t, "m2409.csv", csvTable(40), map[string]string{"code": "V0"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, env.fetcher.Calls())
	assert.Contains(t, rec.Body.String(), `href="/cache/V0.csv"`)
	assert.NotContains(t, rec.Body.String(), "m2409")
}

func TestHandleAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		text   string
	}{
		{"no input", func(t *testing.T) *http.Request { return postForm(url.Values{}) }, http.StatusBadRequest, "输入有误"},
		{"bad code", func(t *testing.T) *http.Request { return postForm(url.Values{"code": {"../v0"}}) }, http.StatusBadRequest, "输入有误"},
		{"missing column", func(t *testing.T) *http.Request { return postFile(t, "x.csv", "date,open,high,low\n2024-01-01,1,2,0\n") }, http.StatusBadRequest, "missing column"},
		{"duplicate date", func(t *testing.T) *http.Request {
			return postFile(t, "x.csv", "date,open,high,low,close\n2024-01-01,1,2,0,1\n2024-01-01,1,2,0,1\n")
		}, http.StatusBadRequest, "duplicate date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(tt.req(t))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.text)
		})
	}
}

func TestHandleAnalyze_ProviderDown(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.HistoryErr = fmt.Errorf("%w: status 503", collector.ErrDataUnavailable)

	rec := env.do(postForm(url.Values{"code": {"V0"}}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "行情数据不可用")
	assert.Contains(t, rec.Body.String(), `value="V0"`)
}

func TestHandleSignals(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/signals?code=rb2410", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SignalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "RB2410", resp.Symbol)
	assert.True(t, resp.Synthetic)
	assert.Equal(t, 5600.0, resp.LastClose)
	require.Len(t, resp.Signals, len(strategy.Rules))
	assert.Equal(t, strategy.NameMACD, resp.Signals[0].Name)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/signals", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSignals_ShortHistoryLabelsNone(t *testing.T) {
	env := newTestEnv(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 3; i > 0; i-- {
		env.fetcher.Bars = append(env.fetcher.Bars, model.PriceBar{
			Date: today.AddDate(0, 0, -i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 10,
		})
	}
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/signals?code=V0", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"label":"none"`)
	assert.NotContains(t, rec.Body.String(), `"label":""`)

	var resp SignalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, s := range resp.Signals {
		assert.Equal(t, model.LabelNone, s.Label, s.Name)
	}
}

func TestHandleSignals_ProviderDown(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.QuoteErr = collector.ErrDataUnavailable
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/signals?code=V0", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestHandleCacheFile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/cache/V0.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, env.do(postForm(url.Values{"code": {"V0"}})).Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/cache/v0.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), strings.Join(store.Header, ",")))
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "breaker")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `futureslens_http_requests_total{code="200",method="GET",route="/"}`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(store.ErrMalformedUpload))
	assert.Equal(t, http.StatusBadRequest, statusFor(collector.ErrInvalidCode))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("x: %w", collector.ErrDataUnavailable)))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("disk full")))
}
