package telegram

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

const ChannelName = "telegram"

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	sourcePrefix      = "tg:"
)

type Authenticator interface {
	IsAuthorized(userID int64) bool
}

type client struct {
	bot           *tgbotapi.BotAPI
	webhookSecret string
	authenticator Authenticator
}

func NewClient(token, webhookSecret string, authenticator Authenticator) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	return &client{
		bot:           bot,
		webhookSecret: webhookSecret,
		authenticator: authenticator,
	}, nil
}

func (c *client) Name() string { return ChannelName }

// ParseEvents checks the webhook secret token and decodes the single update Telegram
// sends per request.
func (c *client) ParseEvents(r *http.Request) ([]domain.Event, error) {
	if c.webhookSecret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(c.webhookSecret)) != 1 {
			return nil, domain.ErrInvalidSignature
		}
	}

	update, err := c.bot.HandleUpdate(r)
	if err != nil {
		return nil, fmt.Errorf("decoding update: %w", err)
	}

	event := toEvent(update)
	if event.Type == domain.EventTypeMessage && !c.authorized(update.Message.From) {
		slog.WarnContext(r.Context(), "Unauthorized access attempt", "userID", event.UserID)
		event = domain.Event{Type: domain.EventTypeOther, Channel: ChannelName}
	}

	return []domain.Event{event}, nil
}

func (c *client) authorized(from *tgbotapi.User) bool {
	if c.authenticator == nil {
		return true
	}
	return from != nil && c.authenticator.IsAuthorized(from.ID)
}

// Reply sends to the chat id carried in the reply token.
func (c *client) Reply(ctx context.Context, event domain.Event, reply *domain.Reply) (any, error) {
	chatID, err := strconv.ParseInt(event.ReplyToken, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing chat id %q: %w", event.ReplyToken, err)
	}

	var sent []int
	for _, msg := range toChattables(chatID, reply) {
		m, err := c.bot.Send(msg)
		if err != nil {
			return nil, fmt.Errorf("sending message: %w", err)
		}
		sent = append(sent, m.MessageID)
	}

	slog.DebugContext(ctx, "Telegram reply sent", "chatID", chatID, "messageIDs", sent)
	return map[string]any{"messageIds": sent}, nil
}

func (c *client) DownloadAudio(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	link, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: getting file: %v", domain.ErrNoContent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.bot.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: unexpected status code %d", domain.ErrNoContent, resp.StatusCode)
	}

	return resp.Body, path.Base(link), nil
}

func toEvent(update *tgbotapi.Update) domain.Event {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return domain.Event{Type: domain.EventTypeOther, Channel: ChannelName}
	}

	var kind domain.SourceKind
	switch {
	case msg.Chat.IsPrivate():
		kind = domain.SourceKindIndividual
	case msg.Chat.IsGroup(), msg.Chat.IsSuperGroup():
		kind = domain.SourceKindGroup
	default:
		return domain.Event{Type: domain.EventTypeOther, Channel: ChannelName}
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	event := domain.Event{
		Type:       domain.EventTypeMessage,
		Channel:    ChannelName,
		Source:     domain.Source{ID: sourcePrefix + chatID, Kind: kind},
		ReplyToken: chatID,
	}
	if msg.From != nil {
		event.UserID = strconv.FormatInt(msg.From.ID, 10)
	}

	switch {
	case msg.Voice != nil:
		event.Message = domain.Message{
			Type:  domain.MessageTypeAudio,
			Audio: &domain.AudioRef{Channel: ChannelName, ID: msg.Voice.FileID},
		}
	case msg.Audio != nil:
		event.Message = domain.Message{
			Type:  domain.MessageTypeAudio,
			Audio: &domain.AudioRef{Channel: ChannelName, ID: msg.Audio.FileID},
		}
	case msg.Text != "":
		event.Message = domain.Message{Type: domain.MessageTypeText, Text: stripBotMention(msg.Text)}
	default:
		event.Message = domain.Message{Type: domain.MessageTypeOther}
	}

	return event
}

// stripBotMention turns "/help@SomeBot rest" into "/help rest".
func stripBotMention(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}

	cmd, rest, found := strings.Cut(text, " ")
	cmd = strings.Split(cmd, "@")[0]
	if !found {
		return cmd
	}
	return cmd + " " + rest
}

func toChattables(chatID int64, reply *domain.Reply) []tgbotapi.Chattable {
	if reply == nil {
		return nil
	}

	var messages []tgbotapi.Chattable
	if reply.Text != "" {
		messages = append(messages, tgbotapi.NewMessage(chatID, reply.Text))
	}
	for _, u := range reply.Images {
		messages = append(messages, tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(u)))
	}
	return messages
}
