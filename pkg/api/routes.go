package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

type Handlers struct {
	Health   http.HandlerFunc
	Preview  http.HandlerFunc
	Callback http.HandlerFunc
	// Extra channel callbacks keyed by mount path, e.g. "/telegram/callback".
	Channels map[string]http.HandlerFunc
}

func NewMux(h Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Health)
	mux.HandleFunc("POST /callback", h.Callback)
	mux.HandleFunc("GET /preview-image/{token}/{url...}", h.Preview)
	for path, callback := range h.Channels {
		mux.HandleFunc("POST "+path, callback)
	}

	return withRequestID(withLogging(mux))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), reqID)))
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
