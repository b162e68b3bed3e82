// Package api exposes workflow sessions over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
	"github.com/Chative-core-poc-v1/agentic-rag/pkg/metrics"
)

// NewRouter wires the session endpoints, /health and /metrics.
func NewRouter(sessions *Sessions) *mux.Router {
	h := &handler{sessions: sessions}

	router := mux.NewRouter()
	router.Use(observe)

	router.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}", h.deleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/sessions/{id}/queries", h.submitQuery).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/actions", h.resume).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/dismiss", h.dismiss).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/documents", h.uploadDocuments).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/reset", h.reset).Methods(http.MethodPost)

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observe counts requests per route template and logs them.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = r.Method + " " + tpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		logx.Debug().
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
