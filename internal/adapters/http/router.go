package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/proofpack-health/internal/config"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

// Metrics is the HTTP-facing part of the Prometheus recorder.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
	RecordRejected(reason string)
}

type Router struct {
	cfg       config.Config
	ingest    ports.EvidenceIngestor
	docs      ports.DocumentReader
	evaluator ports.PackHealthEvaluator
	gaps      ports.GapStatusUpdater
	metrics   Metrics
}

type RouterOption func(*Router)

func WithMetrics(metrics Metrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = metrics
	}
}

func NewRouter(
	cfg config.Config,
	ingest ports.EvidenceIngestor,
	docs ports.DocumentReader,
	evaluator ports.PackHealthEvaluator,
	gaps ports.GapStatusUpdater,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:       cfg,
		ingest:    ingest,
		docs:      docs,
		evaluator: evaluator,
		gaps:      gaps,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.serveOpenAPISpec)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/profiles/{profileID}/documents", rt.uploadEvidence)
	mux.HandleFunc("GET /v1/documents/{documentID}", rt.getDocument)
	mux.HandleFunc("POST /v1/profiles/{profileID}/pack-health", rt.evaluatePackHealth)
	mux.HandleFunc("GET /v1/profiles/{profileID}/pack-health", rt.latestPackHealth)
	mux.HandleFunc("GET /v1/profiles/{profileID}/pack-health/report.xlsx", rt.exportPackHealth)
	mux.HandleFunc("PUT /v1/profiles/{profileID}/gaps/{gapID}", rt.updateGapStatus)
	mux.HandleFunc("POST /v1/pack-health/preview", rt.previewPackHealth)

	var onReject rejectFunc
	if rt.metrics != nil {
		onReject = rt.metrics.RecordRejected
	}

	var handler http.Handler = mux
	handler = timeoutMiddleware(handler, time.Duration(rt.cfg.APIRequestTimeoutSeconds)*time.Second)
	if rt.cfg.APIOpenAPIValidationEnabled {
		handler = openAPIValidationMiddleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond, onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	writeError(w, status, err.Error())
}
