package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"FuturesLens/internal/analyzer"
	"FuturesLens/internal/collector"
	"FuturesLens/internal/model"
	"FuturesLens/internal/observability"
	"FuturesLens/internal/report"
	"FuturesLens/internal/store"
)

// MaxUploadBytes bounds the size of an uploaded CSV.
const MaxUploadBytes = 32 << 20

// Evaluator runs one evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, src analyzer.Source) (*analyzer.Result, error)
}

// BreakerReporter exposes the provider breaker for health checks.
type BreakerReporter interface {
	Status() collector.BreakerStatus
}

// Handler handles dashboard and API requests
type Handler struct {
	evaluator Evaluator
	cache     *store.FileCache
	breaker   BreakerReporter
	metrics   *observability.Metrics
}

// NewHandler creates a new Handler. breaker may be nil.
func NewHandler(ev Evaluator, cache *store.FileCache, breaker BreakerReporter, metrics *observability.Metrics) *Handler {
	if metrics == nil {
		metrics = observability.GetMetrics()
	}
	return &Handler{evaluator: ev, cache: cache, breaker: breaker, metrics: metrics}
}

// HandleIndex serves the start page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, http.StatusOK, report.IndexPage{})
}

// HandleAnalyze evaluates an uploaded file or, without one, the posted code.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	src, code, err := sourceFromForm(r)
	if err != nil {
		h.renderIndex(w, statusFor(err), report.IndexPage{Code: code, Error: messageFor(err)})
		return
	}

	res, err := h.evaluator.Evaluate(r.Context(), src)
	if err != nil {
		h.renderIndex(w, statusFor(err), report.IndexPage{Code: code, Error: messageFor(err)})
		return
	}

	var buf bytes.Buffer
	if err := report.RenderDashboard(&buf, res); err != nil {
		log.Printf("[ERROR] [%s] render dashboard %s: %v", middleware.GetReqID(r.Context()), res.ID, err)
		h.renderIndex(w, http.StatusInternalServerError, report.IndexPage{Code: code, Error: messageFor(err)})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func sourceFromForm(r *http.Request) (analyzer.Source, string, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", fmt.Errorf("%w: %w", store.ErrMalformedUpload, err)
	}
	code := r.FormValue("code")
	if code != "" {
		return analyzer.FetchByCode{Code: code}, code, nil
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		bars, err := store.ReadCSV(file)
		if err != nil {
			return nil, code, err
		}
		return analyzer.UploadedTable{Name: header.Filename, Bars: bars}, code, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, code, fmt.Errorf("%w: enter a code or choose a file", collector.ErrInvalidCode)
	default:
		return nil, code, fmt.Errorf("%w: %w", store.ErrMalformedUpload, err)
	}
}

// SignalsResponse is the JSON body of /api/signals.
type SignalsResponse struct {
	ID          string                  `json:"id"`
	Symbol      string                  `json:"symbol"`
	LastDate    string                  `json:"last_date"`
	LastClose   float64                 `json:"last_close"`
	Synthetic   bool                    `json:"synthetic"`
	EvaluatedAt time.Time               `json:"evaluated_at"`
	Signals     []model.DecoratedSignal `json:"signals"`
}

// HandleSignals evaluates ?code= and returns the signal set as JSON
func (h *Handler) HandleSignals(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.jsonError(w, "code is required", http.StatusBadRequest)
		return
	}
	res, err := h.evaluator.Evaluate(r.Context(), analyzer.FetchByCode{Code: code})
	if err != nil {
		h.jsonError(w, err.Error(), statusFor(err))
		return
	}
	last, _ := res.Series.Last()
	h.jsonResponse(w, SignalsResponse{
		ID:          res.ID,
		Symbol:      res.Symbol,
		LastDate:    last.Date.Format("2006-01-02"),
		LastClose:   last.Close,
		Synthetic:   res.Series.Synthetic,
		EvaluatedAt: res.EvaluatedAt,
		Signals:     res.Decorated,
	})
}

// HandleCacheFile downloads the cached series of a code
func (h *Handler) HandleCacheFile(w http.ResponseWriter, r *http.Request) {
	code, err := collector.NormalizeCode(chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, "invalid code", http.StatusBadRequest)
		return
	}
	f, err := os.Open(h.cache.Path(code))
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[ERROR] open cache %s: %v", code, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", code+".csv"))
	http.ServeContent(w, r, code+".csv", info.ModTime(), f)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if h.breaker != nil {
		cb := h.breaker.Status()
		status["breaker"] = cb
		if cb.State == "open" {
			status["status"] = "degraded"
		}
	}
	h.jsonResponse(w, status)
}

func (h *Handler) renderIndex(w http.ResponseWriter, status int, page report.IndexPage) {
	var buf bytes.Buffer
	if err := report.RenderIndex(&buf, page); err != nil {
		log.Printf("[ERROR] render index: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps evaluation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrMalformedUpload), errors.Is(err, collector.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "输入有误: " + err.Error()
	case http.StatusBadGateway:
		return "行情数据不可用: " + err.Error()
	case http.StatusGatewayTimeout:
		return "请求超时，请稍后再试"
	default:
		return "内部错误: " + err.Error()
	}
}
