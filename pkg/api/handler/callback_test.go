package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type fakeChannel struct {
	events   []domain.Event
	parseErr error
	replyErr error

	mu      sync.Mutex
	replied []string
}

func (f *fakeChannel) Name() string { return "fake" }

func (f *fakeChannel) ParseEvents(*http.Request) ([]domain.Event, error) {
	return f.events, f.parseErr
}

func (f *fakeChannel) Reply(_ context.Context, event domain.Event, reply *domain.Reply) (any, error) {
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replied = append(f.replied, event.ReplyToken)
	return map[string]string{"to": event.ReplyToken, "text": reply.Text}, nil
}

type fakeRouter struct {
	replies map[string]*domain.Reply
	errs    map[string]error
}

func (f *fakeRouter) Route(ctx context.Context, event domain.Event) (*domain.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.replies[event.ReplyToken], f.errs[event.ReplyToken]
}

func textEvent(token string) domain.Event {
	return domain.Event{
		Type:       domain.EventTypeMessage,
		Source:     domain.Source{ID: "U1", Kind: domain.SourceKindIndividual},
		ReplyToken: token,
		Message:    domain.Message{Type: domain.MessageTypeText, Text: "hi"},
	}
}

func post(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader("{}")))
	return rec
}

func TestCallbackReturnsResultPerEvent(t *testing.T) {
	channel := &fakeChannel{events: []domain.Event{textEvent("a"), textEvent("b"), textEvent("c")}}
	router := &fakeRouter{replies: map[string]*domain.Reply{
		"a": domain.TextReply("one"),
		"c": domain.TextReply("three"),
	}}

	rec := post(NewCallback(channel, router).Handle)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"to":"a","text":"one"}, null, {"to":"c","text":"three"}]`, rec.Body.String())
	assert.ElementsMatch(t, []string{"a", "c"}, channel.replied)
}

func TestCallbackEmptyDelivery(t *testing.T) {
	rec := post(NewCallback(&fakeChannel{}, &fakeRouter{}).Handle)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCallbackOneFailureFailsDelivery(t *testing.T) {
	channel := &fakeChannel{events: []domain.Event{textEvent("a"), textEvent("b")}}
	router := &fakeRouter{
		replies: map[string]*domain.Reply{"a": domain.TextReply("one")},
		errs:    map[string]error{"b": errors.New("backend down")},
	}

	rec := post(NewCallback(channel, router).Handle)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []string{"a"}, channel.replied, "replies already sent stay sent")
}

func TestCallbackReplyFailureFailsDelivery(t *testing.T) {
	channel := &fakeChannel{events: []domain.Event{textEvent("a")}, replyErr: errors.New("reply token expired")}
	router := &fakeRouter{replies: map[string]*domain.Reply{"a": domain.TextReply("one")}}

	rec := post(NewCallback(channel, router).Handle)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackInvalidSignature(t *testing.T) {
	channel := &fakeChannel{parseErr: domain.ErrInvalidSignature}

	rec := post(NewCallback(channel, &fakeRouter{}).Handle)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallbackMalformedDelivery(t *testing.T) {
	channel := &fakeChannel{parseErr: errors.New("unexpected EOF")}

	rec := post(NewCallback(channel, &fakeRouter{}).Handle)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackSurvivesClientDisconnect(t *testing.T) {
	channel := &fakeChannel{events: []domain.Event{textEvent("a")}}
	router := &fakeRouter{replies: map[string]*domain.Reply{"a": domain.TextReply("one")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader("{}")).WithContext(ctx)
	rec := httptest.NewRecorder()

	NewCallback(channel, router).Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a"}, channel.replied)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealth().Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World!", rec.Body.String())
}
