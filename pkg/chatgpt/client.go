package chatgpt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type Mode string

const (
	ModeCompletion Mode = "completion"
	ModeChat       Mode = "chat"
)

const maxImageCount = 4

type client struct {
	api        *openai.Client
	mode       Mode
	imageCount int
}

func NewClient(token, baseURL string, mode Mode, imageCount int) (*client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	if mode != ModeCompletion && mode != ModeChat {
		return nil, fmt.Errorf("unknown backend mode %q", mode)
	}

	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &client{
		api:        openai.NewClientWithConfig(cfg),
		mode:       mode,
		imageCount: lo.Clamp(imageCount, 1, maxImageCount),
	}, nil
}

// GenerateReply produces the next AI turn for the given conversation.
func (c *client) GenerateReply(ctx context.Context, req domain.ChatRequest) (string, error) {
	var (
		text string
		err  error
	)

	switch c.mode {
	case ModeCompletion:
		text, err = c.complete(ctx, req)
	default:
		text, err = c.chat(ctx, req)
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

func (c *client) complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	resp, err := c.api.CreateCompletion(ctx, openai.CompletionRequest{
		Model:            completionModel,
		Prompt:           buildTranscript(req),
		Temperature:      completionTemperature,
		MaxTokens:        completionMaxTokens,
		FrequencyPenalty: completionFrequencyPenalty,
		PresencePenalty:  completionPresencePenalty,
		Stop:             transcriptStops,
	})
	if err != nil {
		return "", fmt.Errorf("creating completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion response")
	}

	return resp.Choices[0].Text, nil
}

func (c *client) chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	messages := buildMessages(req)

	slog.DebugContext(ctx, "Calling OpenAI for chat completion", "model", chatModel, "messagesCount", len(messages))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            chatModel,
		Messages:         messages,
		Temperature:      chatTemperature,
		MaxTokens:        chatMaxTokens,
		FrequencyPenalty: chatFrequencyPenalty,
		PresencePenalty:  chatPresencePenalty,
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no chat completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateImages returns the remote URLs of the generated images.
func (c *client) GenerateImages(ctx context.Context, prompt string, size int) ([]string, error) {
	if !lo.Contains(domain.SupportedImageSizes, size) {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedSize, size)
	}

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          openai.CreateImageModelDallE2,
		Prompt:         prompt,
		Size:           domain.ImageSizeLabel(size),
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              c.imageCount,
	})
	if err != nil {
		return nil, fmt.Errorf("creating image: %w", err)
	}

	urls := lo.FilterMap(resp.Data, func(d openai.ImageResponseDataInner, _ int) (string, bool) {
		return d.URL, d.URL != ""
	})
	if len(urls) == 0 {
		return nil, fmt.Errorf("no image in response")
	}

	return urls, nil
}

// TranscribeAudio sends audio to whisper; name only carries the file extension.
func (c *client) TranscribeAudio(ctx context.Context, name string, audio io.Reader) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: name,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("creating transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
