package chatgpt

import (
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

// Generation parameters are fixed per mode.
const (
	completionModel            = openai.GPT3Dot5TurboInstruct
	completionTemperature      = 0.9
	completionMaxTokens        = 500
	completionFrequencyPenalty = 0
	completionPresencePenalty  = 0.6

	chatModel            = openai.GPT3Dot5Turbo
	chatTemperature      = 0.7
	chatMaxTokens        = 1000
	chatFrequencyPenalty = 0
	chatPresencePenalty  = 0.6
)

const (
	humanMarker = "Human:"
	aiMarker    = "AI:"
)

var transcriptStops = []string{" " + humanMarker, " " + aiMarker}

// buildTranscript flattens the conversation into a single delimited prompt:
//
//	<persona>
//
//	Human: ...
//	AI: ...
//	Human: <text>
//	AI:
func buildTranscript(req domain.ChatRequest) string {
	var sb strings.Builder

	if persona := strings.TrimSpace(req.Persona); persona != "" {
		sb.WriteString(persona)
		sb.WriteString("\n\n")
	}

	for _, m := range req.History {
		sb.WriteString(lo.Ternary(m.Role == domain.RoleAssistant, aiMarker, humanMarker))
		sb.WriteString(" ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	sb.WriteString(humanMarker + " " + req.Text + "\n")
	sb.WriteString(aiMarker)

	return sb.String()
}

func buildMessages(req domain.ChatRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	if persona := strings.TrimSpace(req.Persona); persona != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: persona,
		})
	}

	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    lo.Ternary(m.Role == domain.RoleAssistant, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser),
			Content: m.Content,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
}
