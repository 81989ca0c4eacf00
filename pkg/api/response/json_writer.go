package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
)

type JSONResponseWriter struct{}

func (j *JSONResponseWriter) WriteSuccessResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding success response", logger.Err(err))
	}
}

func (j *JSONResponseWriter) WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("encoding error response", logger.Err(err))
	}
}

func (j *JSONResponseWriter) WriteTextResponse(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("writing text response", logger.Err(err))
	}
}

// WriteStatus ends the response with a bare status code.
func (j *JSONResponseWriter) WriteStatus(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

type ErrorResponse struct {
	Error string `json:"error"`
}
