package command

import (
	"context"
	"errors"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type fakeStore struct {
	history   map[string][]domain.ChatMessage
	persona   map[string]string
	skip      map[string]bool
	mutations int
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		history: map[string][]domain.ChatMessage{},
		persona: map[string]string{},
		skip:    map[string]bool{},
	}
}

func (f *fakeStore) History(_ context.Context, id string) ([]domain.ChatMessage, error) {
	return f.history[id], f.err
}

func (f *fakeStore) AppendTurn(_ context.Context, id string, turn domain.Turn) error {
	f.mutations++
	f.history[id] = append(f.history[id], turn.Messages()...)
	return f.err
}

func (f *fakeStore) ClearHistory(_ context.Context, id string) error {
	f.mutations++
	delete(f.history, id)
	return f.err
}

func (f *fakeStore) Persona(_ context.Context, id string) (string, bool, error) {
	p, ok := f.persona[id]
	return p, ok, f.err
}

func (f *fakeStore) SetPersona(_ context.Context, id, persona string) error {
	f.mutations++
	f.persona[id] = persona
	return f.err
}

func (f *fakeStore) DeletePersona(_ context.Context, id string) error {
	f.mutations++
	delete(f.persona, id)
	return f.err
}

func (f *fakeStore) SkipChat(_ context.Context, id string) (bool, error) {
	return f.skip[id], f.err
}

func (f *fakeStore) SetSkipChat(_ context.Context, id string, skip bool) error {
	f.mutations++
	f.skip[id] = skip
	return f.err
}

type fakeBackend struct {
	replyCalls []domain.ChatRequest
	imageCalls []imageCall
	reply      string
	images     []string
	err        error
}

type imageCall struct {
	prompt string
	size   int
}

func (f *fakeBackend) GenerateReply(_ context.Context, req domain.ChatRequest) (string, error) {
	f.replyCalls = append(f.replyCalls, req)
	return f.reply, f.err
}

func (f *fakeBackend) GenerateImages(_ context.Context, prompt string, size int) ([]string, error) {
	f.imageCalls = append(f.imageCalls, imageCall{prompt: prompt, size: size})
	return f.images, f.err
}

type fakeTranscriber struct {
	text string
	err  error
	refs []domain.AudioRef
}

func (f *fakeTranscriber) Transcribe(_ context.Context, ref domain.AudioRef) (string, error) {
	f.refs = append(f.refs, ref)
	return f.text, f.err
}

type fakePrompts struct {
	saved []domain.ImagePrompt
	err   error
}

func (f *fakePrompts) Save(_ context.Context, p domain.ImagePrompt) (int64, error) {
	f.saved = append(f.saved, p)
	return int64(len(f.saved)), f.err
}

var errBackend = errors.New("backend down")

func textEvent(kind domain.SourceKind, id, text string) domain.Event {
	return domain.Event{
		Type:       domain.EventTypeMessage,
		Channel:    "line",
		Source:     domain.Source{ID: id, Kind: kind},
		ReplyToken: "reply-token",
		Message:    domain.Message{Type: domain.MessageTypeText, Text: text},
	}
}

func audioEvent(kind domain.SourceKind, id, audioID string) domain.Event {
	return domain.Event{
		Type:       domain.EventTypeMessage,
		Channel:    "line",
		Source:     domain.Source{ID: id, Kind: kind},
		ReplyToken: "reply-token",
		Message: domain.Message{
			Type:  domain.MessageTypeAudio,
			Audio: &domain.AudioRef{Channel: "line", ID: audioID},
		},
	}
}
