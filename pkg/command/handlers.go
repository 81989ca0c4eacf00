package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
)

func (r *router) help(_ context.Context, event domain.Event, _ string) (*domain.Reply, error) {
	return domain.TextReply(lo.Ternary(event.Source.IsGroup(), helpGroup, helpIndividual)), nil
}

func (r *router) clearHistory(ctx context.Context, event domain.Event, _ string) (*domain.Reply, error) {
	if err := r.store.ClearHistory(ctx, event.Source.ID); err != nil {
		return nil, fmt.Errorf("clearing history: %w", err)
	}
	return domain.TextReply(clearHistoryDone), nil
}

func (r *router) setPersona(ctx context.Context, event domain.Event, persona string) (*domain.Reply, error) {
	if err := r.store.SetPersona(ctx, event.Source.ID, persona); err != nil {
		return nil, fmt.Errorf("setting persona: %w", err)
	}
	return domain.TextReply(setPersonaDone), nil
}

func (r *router) getPersona(ctx context.Context, event domain.Event, _ string) (*domain.Reply, error) {
	persona, ok, err := r.store.Persona(ctx, event.Source.ID)
	if err != nil {
		return nil, fmt.Errorf("getting persona: %w", err)
	}
	if !ok || strings.TrimSpace(persona) == "" {
		return domain.TextReply(personaUsage), nil
	}
	return domain.TextReply(persona), nil
}

func (r *router) deletePersona(ctx context.Context, event domain.Event, _ string) (*domain.Reply, error) {
	if err := r.store.DeletePersona(ctx, event.Source.ID); err != nil {
		return nil, fmt.Errorf("deleting persona: %w", err)
	}
	return domain.TextReply(deletePersonaDone), nil
}

func (r *router) setSkipChat(skip bool) handleFunc {
	return func(ctx context.Context, event domain.Event, _ string) (*domain.Reply, error) {
		if err := r.store.SetSkipChat(ctx, event.Source.ID, skip); err != nil {
			return nil, fmt.Errorf("setting skip-chat flag: %w", err)
		}
		return domain.TextReply(lo.Ternary(skip, skipChatOn, skipChatOff)), nil
	}
}

var chatPrefix = prefix(ChatPrefix)

var imageSizePattern = regexp.MustCompile(`^(\d{3,4})(?:\s+|$)`)

// parseImageArgs splits "[size] prompt". A 3–4 digit leading token is always consumed;
// sizes outside the supported set fall back to the default.
func parseImageArgs(arg string) (int, string) {
	m := imageSizePattern.FindStringSubmatch(arg)
	if m == nil {
		return domain.DefaultImageSize, strings.TrimSpace(arg)
	}

	size, _ := strconv.Atoi(m[1])
	if !lo.Contains(domain.SupportedImageSizes, size) {
		size = domain.DefaultImageSize
	}

	return size, strings.TrimSpace(arg[len(m[0]):])
}

func (r *router) generateImage(ctx context.Context, event domain.Event, arg string) (*domain.Reply, error) {
	size, prompt := parseImageArgs(arg)
	if prompt == "" {
		return domain.TextReply(imageUsage), nil
	}

	slog.InfoContext(ctx, "Starting image generation", "prompt", prompt, "size", size)

	urls, err := r.backend.GenerateImages(ctx, prompt, size)
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", err)
	}

	r.savePrompt(ctx, domain.ImagePrompt{SourceID: event.Source.ID, Prompt: prompt, Size: size})

	return &domain.Reply{
		Images: lo.Map(urls, func(u string, _ int) string {
			return r.signer.PreviewURL(r.baseURL, u)
		}),
	}, nil
}

func (r *router) savePrompt(ctx context.Context, prompt domain.ImagePrompt) {
	if r.prompts == nil {
		return
	}
	if _, err := r.prompts.Save(ctx, prompt); err != nil {
		slog.WarnContext(ctx, "Saving image prompt failed", logger.Err(err))
	}
}

// chat is the fallback route: group gating, audio resolution, then free chat.
func (r *router) chat(ctx context.Context, event domain.Event, text string) (*domain.Reply, error) {
	if event.Source.IsGroup() {
		open, stripped, err := r.gate(ctx, event, text)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, nil
		}
		text = stripped
	}

	if event.Message.Type == domain.MessageTypeAudio {
		transcribed, err := r.resolveAudio(ctx, event.Message.Audio)
		if err != nil {
			return nil, err
		}
		text = transcribed
	}

	if text == "" {
		return nil, nil
	}

	return r.freeChat(ctx, event.Source.ID, text)
}

// gate opens group chat for "/chat <text>" (any case) or when the group set the skip flag.
func (r *router) gate(ctx context.Context, event domain.Event, text string) (bool, string, error) {
	if rest, ok := chatPrefix(event, text); ok {
		return true, rest, nil
	}

	skip, err := r.store.SkipChat(ctx, event.Source.ID)
	if err != nil {
		return false, "", fmt.Errorf("getting skip-chat flag: %w", err)
	}
	return skip, text, nil
}

func (r *router) resolveAudio(ctx context.Context, ref *domain.AudioRef) (string, error) {
	if ref == nil {
		return "", nil
	}

	text, err := r.transcriber.Transcribe(ctx, *ref)
	if errors.Is(err, domain.ErrNoContent) {
		slog.WarnContext(ctx, "Audio content is not retrievable", "audioID", ref.ID, logger.Err(err))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving audio: %w", err)
	}

	return strings.TrimSpace(text), nil
}

func (r *router) freeChat(ctx context.Context, sourceID, text string) (*domain.Reply, error) {
	persona, _, err := r.store.Persona(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("getting persona: %w", err)
	}

	history, err := r.store.History(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	answer, err := r.backend.GenerateReply(ctx, domain.ChatRequest{
		Text:    text,
		Persona: persona,
		History: history,
	})
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	slog.InfoContext(ctx, "[human]: "+text)
	slog.InfoContext(ctx, "[AI]: "+answer)

	if answer == "" {
		return nil, nil
	}

	if err := r.store.AppendTurn(ctx, sourceID, domain.Turn{Human: text, AI: answer}); err != nil {
		return nil, fmt.Errorf("appending turn: %w", err)
	}

	return domain.TextReply(answer), nil
}
