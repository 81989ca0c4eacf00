package repository

import (
	"encoding/json"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type HistoryStatus int

const (
	HistoryOK HistoryStatus = iota
	HistoryCorrupt
)

// decodeHistory never fails: a value that is not a list of messages is reported as
// HistoryCorrupt together with an empty history.
func decodeHistory(raw string) ([]domain.ChatMessage, HistoryStatus) {
	var messages []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, HistoryCorrupt
	}
	return messages, HistoryOK
}

func encodeHistory(messages []domain.ChatMessage) (string, error) {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
