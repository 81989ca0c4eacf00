package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type SessionStore interface {
	History(ctx context.Context, sourceID string) ([]domain.ChatMessage, error)
	AppendTurn(ctx context.Context, sourceID string, turn domain.Turn) error
	ClearHistory(ctx context.Context, sourceID string) error
	Persona(ctx context.Context, sourceID string) (string, bool, error)
	SetPersona(ctx context.Context, sourceID, persona string) error
	DeletePersona(ctx context.Context, sourceID string) error
	SkipChat(ctx context.Context, groupID string) (bool, error)
	SetSkipChat(ctx context.Context, groupID string, skip bool) error
}

type Backend interface {
	GenerateReply(ctx context.Context, req domain.ChatRequest) (string, error)
	GenerateImages(ctx context.Context, prompt string, size int) ([]string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, ref domain.AudioRef) (string, error)
}

type URLSigner interface {
	PreviewURL(baseURL, remoteURL string) string
}

type PromptSaver interface {
	Save(ctx context.Context, prompt domain.ImagePrompt) (int64, error)
}

// matchFunc decides from the event alone whether a route applies. It returns the
// argument the handler works on (the text after a prefix, or the whole text).
type matchFunc func(event domain.Event, text string) (string, bool)

type handleFunc func(ctx context.Context, event domain.Event, arg string) (*domain.Reply, error)

type route struct {
	name   string
	match  matchFunc
	handle handleFunc
}

type router struct {
	store       SessionStore
	backend     Backend
	transcriber Transcriber
	signer      URLSigner
	prompts     PromptSaver
	baseURL     string
	routes      []route
}

// NewRouter builds the dispatcher. prompts may be nil when no audit log is configured.
func NewRouter(
	store SessionStore,
	backend Backend,
	transcriber Transcriber,
	signer URLSigner,
	prompts PromptSaver,
	baseURL string,
) *router {
	r := &router{
		store:       store,
		backend:     backend,
		transcriber: transcriber,
		signer:      signer,
		prompts:     prompts,
		baseURL:     baseURL,
	}
	r.routes = r.table()
	return r
}

// table is evaluated top to bottom and the first match wins. Several commands are
// prefixes of each other or of free chat, so the order is significant.
func (r *router) table() []route {
	return []route{
		{name: "help", match: exact(helpKeywords...), handle: r.help},
		{name: "clear", match: exact(clearKeywords...), handle: r.clearHistory},
		{name: "set-persona", match: prefix(setPersonaCommand), handle: r.setPersona},
		{name: "get-persona", match: exact(getPersonaCommand), handle: r.getPersona},
		{name: "delete-persona", match: exact(deletePersonaCommand), handle: r.deletePersona},
		{name: "image", match: prefix(imageCommand), handle: r.generateImage},
		{name: "skip-chat", match: groupOnly(exact(skipChatCommand)), handle: r.setSkipChat(true)},
		{name: "no-skip-chat", match: groupOnly(exact(noSkipChatCommand)), handle: r.setSkipChat(false)},
		{name: "chat", match: always, handle: r.chat},
	}
}

// Route classifies one event into exactly one command or free chat. A nil reply
// with a nil error means the event is ignored.
func (r *router) Route(ctx context.Context, event domain.Event) (*domain.Reply, error) {
	if event.Type != domain.EventTypeMessage {
		return nil, nil
	}
	if event.Message.Type != domain.MessageTypeText && event.Message.Type != domain.MessageTypeAudio {
		return nil, nil
	}

	text := strings.TrimSpace(event.Message.Text)
	for _, rt := range r.routes {
		arg, ok := rt.match(event, text)
		if !ok {
			continue
		}

		slog.DebugContext(ctx, "Routing event", "route", rt.name, "sourceID", event.Source.ID, "sourceKind", event.Source.Kind)
		return rt.handle(ctx, event, arg)
	}

	return nil, nil
}

func exact(keywords ...string) matchFunc {
	return func(event domain.Event, text string) (string, bool) {
		if event.Message.Type != domain.MessageTypeText {
			return "", false
		}
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if lower == kw {
				return "", true
			}
		}
		return "", false
	}
}

// prefix matches "<cmd>" alone or "<cmd>" followed by whitespace and the rest of the message.
func prefix(cmd string) matchFunc {
	return func(event domain.Event, text string) (string, bool) {
		if event.Message.Type != domain.MessageTypeText {
			return "", false
		}
		if len(text) < len(cmd) || !strings.EqualFold(text[:len(cmd)], cmd) {
			return "", false
		}
		rest := text[len(cmd):]
		if rest != "" && rest == strings.TrimLeft(rest, " \t\r\n　") {
			return "", false
		}
		return strings.TrimSpace(rest), true
	}
}

func groupOnly(m matchFunc) matchFunc {
	return func(event domain.Event, text string) (string, bool) {
		if !event.Source.IsGroup() {
			return "", false
		}
		return m(event, text)
	}
}

func always(_ domain.Event, text string) (string, bool) {
	return text, true
}
