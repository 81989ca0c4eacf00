package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type allowList []int64

func (a allowList) IsAuthorized(userID int64) bool {
	for _, id := range a {
		if id == userID {
			return true
		}
	}
	return false
}

const privateText = `{"update_id": 1, "message": {"message_id": 10, "date": 1,
  "from": {"id": 7, "is_bot": false, "first_name": "A"},
  "chat": {"id": 7, "type": "private"},
  "text": "/get-train@RelayBot"}}`

const groupVoice = `{"update_id": 2, "message": {"message_id": 11, "date": 1,
  "from": {"id": 8, "is_bot": false, "first_name": "B"},
  "chat": {"id": -100, "type": "supergroup", "title": "G"},
  "voice": {"file_id": "voice-1", "file_unique_id": "u", "duration": 2}}}`

func newRequest(body, secret string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/telegram/callback", strings.NewReader(body))
	if secret != "" {
		r.Header.Set(secretTokenHeader, secret)
	}
	return r
}

func TestParseEventsPrivateText(t *testing.T) {
	c := &client{bot: &tgbotapi.BotAPI{}, webhookSecret: "s3cret"}

	events, err := c.ParseEvents(newRequest(privateText, "s3cret"))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, domain.Event{
		Type:       domain.EventTypeMessage,
		Channel:    ChannelName,
		Source:     domain.Source{ID: "tg:7", Kind: domain.SourceKindIndividual},
		UserID:     "7",
		ReplyToken: "7",
		Message:    domain.Message{Type: domain.MessageTypeText, Text: "/get-train"},
	}, events[0])
}

func TestParseEventsGroupVoice(t *testing.T) {
	c := &client{bot: &tgbotapi.BotAPI{}}

	events, err := c.ParseEvents(newRequest(groupVoice, ""))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, domain.Source{ID: "tg:-100", Kind: domain.SourceKindGroup}, events[0].Source)
	assert.Equal(t, &domain.AudioRef{Channel: ChannelName, ID: "voice-1"}, events[0].Message.Audio)
}

func TestParseEventsRejectsWrongSecret(t *testing.T) {
	c := &client{bot: &tgbotapi.BotAPI{}, webhookSecret: "s3cret"}

	_, err := c.ParseEvents(newRequest(privateText, "guess"))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestParseEventsDropsUnauthorizedUsers(t *testing.T) {
	c := &client{bot: &tgbotapi.BotAPI{}, authenticator: allowList{1}}

	events, err := c.ParseEvents(newRequest(privateText, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.EventTypeOther, events[0].Type)
}

func TestToEventIgnoresNonMessages(t *testing.T) {
	assert.Equal(t, domain.EventTypeOther, toEvent(&tgbotapi.Update{}).Type)

	channelPost := &tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "channel"}, Text: "hi"}}
	assert.Equal(t, domain.EventTypeOther, toEvent(channelPost).Type)

	sticker := &tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "private"}}}
	assert.Equal(t, domain.MessageTypeOther, toEvent(sticker).Message.Type)
}

func TestStripBotMention(t *testing.T) {
	tests := map[string]string{
		"/help@RelayBot":               "/help",
		"/set-train@RelayBot be a cat": "/set-train be a cat",
		"/image 512 fox":               "/image 512 fox",
		"mail me at a@b.c":             "mail me at a@b.c",
	}

	for in, want := range tests {
		assert.Equal(t, want, stripBotMention(in))
	}
}

func TestToChattables(t *testing.T) {
	assert.Nil(t, toChattables(1, nil))

	msgs := toChattables(5, &domain.Reply{Text: "hi", Images: []string{"https://relay/x"}})
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].(tgbotapi.MessageConfig).Text)
	assert.Equal(t, tgbotapi.FileURL("https://relay/x"), msgs[1].(tgbotapi.PhotoConfig).File)
}
