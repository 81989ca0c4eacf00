package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

const ChannelName = "line"

const maxReplyMessages = 5

type client struct {
	api    *messaging_api.MessagingApiAPI
	blob   *messaging_api.MessagingApiBlobAPI
	secret string
}

func NewClient(token, secret string) (*client, error) {
	if token == "" || secret == "" {
		return nil, fmt.Errorf("channel token and secret are required")
	}

	api, err := messaging_api.NewMessagingApiAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating messaging api client: %w", err)
	}

	blob, err := messaging_api.NewMessagingApiBlobAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating messaging blob api client: %w", err)
	}

	return &client{
		api:    api,
		blob:   blob,
		secret: secret,
	}, nil
}

func (c *client) Name() string { return ChannelName }

// ParseEvents validates the X-Line-Signature header and converts the delivery.
func (c *client) ParseEvents(r *http.Request) ([]domain.Event, error) {
	cb, err := webhook.ParseRequest(c.secret, r)
	if errors.Is(err, webhook.ErrInvalidSignature) {
		return nil, domain.ErrInvalidSignature
	}
	if err != nil {
		return nil, fmt.Errorf("parsing webhook request: %w", err)
	}

	events := make([]domain.Event, 0, len(cb.Events))
	for _, e := range cb.Events {
		events = append(events, toEvent(e))
	}
	return events, nil
}

func (c *client) Reply(ctx context.Context, event domain.Event, reply *domain.Reply) (any, error) {
	messages := toMessages(reply)
	if len(messages) == 0 {
		return nil, nil
	}

	resp, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: event.ReplyToken,
		Messages:   messages,
	})
	if err != nil {
		return nil, fmt.Errorf("replying message: %w", err)
	}

	return resp, nil
}

// DownloadAudio streams the content of an audio message. The name only carries the
// extension whisper needs to detect the format.
func (c *client) DownloadAudio(ctx context.Context, messageID string) (io.ReadCloser, string, error) {
	resp, err := c.blob.WithContext(ctx).GetMessageContent(messageID)
	if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone) {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: message %s", domain.ErrNoContent, messageID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting message content: %w", err)
	}

	name := "audio" + audioExtension(resp.Header.Get("Content-Type"))
	slog.DebugContext(ctx, "Audio content fetched", "messageID", messageID, "contentLength", resp.ContentLength)

	return resp.Body, name, nil
}

func audioExtension(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".m4a"
	}
}

func toEvent(e webhook.EventInterface) domain.Event {
	me, ok := e.(webhook.MessageEvent)
	if !ok {
		return domain.Event{Type: domain.EventTypeOther, Channel: ChannelName}
	}

	event := domain.Event{
		Type:       domain.EventTypeMessage,
		Channel:    ChannelName,
		ReplyToken: me.ReplyToken,
	}
	event.Source, event.UserID = toSource(me.Source)
	if event.Source.ID == "" {
		return domain.Event{Type: domain.EventTypeOther, Channel: ChannelName}
	}

	switch m := me.Message.(type) {
	case webhook.TextMessageContent:
		event.Message = domain.Message{Type: domain.MessageTypeText, Text: m.Text}
	case webhook.AudioMessageContent:
		event.Message = domain.Message{
			Type:  domain.MessageTypeAudio,
			Audio: &domain.AudioRef{Channel: ChannelName, ID: m.Id},
		}
	default:
		event.Message = domain.Message{Type: domain.MessageTypeOther}
	}

	return event
}

// toSource maps rooms onto groups: both are multi-user conversations.
func toSource(s webhook.SourceInterface) (domain.Source, string) {
	switch src := s.(type) {
	case webhook.UserSource:
		return domain.Source{ID: src.UserId, Kind: domain.SourceKindIndividual}, src.UserId
	case webhook.GroupSource:
		return domain.Source{ID: src.GroupId, Kind: domain.SourceKindGroup}, src.UserId
	case webhook.RoomSource:
		return domain.Source{ID: src.RoomId, Kind: domain.SourceKindGroup}, src.UserId
	default:
		return domain.Source{}, ""
	}
}

func toMessages(reply *domain.Reply) []messaging_api.MessageInterface {
	if reply == nil {
		return nil
	}

	var messages []messaging_api.MessageInterface
	if reply.Text != "" {
		messages = append(messages, messaging_api.TextMessage{Text: reply.Text})
	}
	for _, u := range reply.Images {
		messages = append(messages, messaging_api.ImageMessage{
			OriginalContentUrl: u,
			PreviewImageUrl:    u,
		})
	}

	if len(messages) > maxReplyMessages {
		messages = messages[:maxReplyMessages]
	}
	return messages
}
