package handler

import (
	"net/http"

	"github.com/dskvich/chatgpt-line-bot/pkg/api/response"
)

type health struct {
	writer response.JSONResponseWriter
}

func NewHealth() *health {
	return &health{writer: response.JSONResponseWriter{}}
}

func (h *health) Handle(w http.ResponseWriter, _ *http.Request) {
	h.writer.WriteTextResponse(w, http.StatusOK, "Hello World!")
}
