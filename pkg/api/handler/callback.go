package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/dskvich/chatgpt-line-bot/pkg/api/response"
	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
)

// Channel is a messaging platform that delivers webhooks and accepts replies.
type Channel interface {
	Name() string
	ParseEvents(r *http.Request) ([]domain.Event, error)
	Reply(ctx context.Context, event domain.Event, reply *domain.Reply) (any, error)
}

type Router interface {
	Route(ctx context.Context, event domain.Event) (*domain.Reply, error)
}

type callback struct {
	channel Channel
	router  Router
	writer  response.JSONResponseWriter
}

func NewCallback(channel Channel, router Router) *callback {
	return &callback{
		channel: channel,
		router:  router,
		writer:  response.JSONResponseWriter{},
	}
}

// Handle routes every event of one delivery concurrently and answers with the
// per-event reply results. Any failed event fails the whole delivery.
func (c *callback) Handle(w http.ResponseWriter, r *http.Request) {
	events, err := c.channel.ParseEvents(r)
	if errors.Is(err, domain.ErrInvalidSignature) {
		slog.WarnContext(r.Context(), "Rejected webhook delivery", "channel", c.channel.Name())
		c.writer.WriteErrorResponse(w, http.StatusUnauthorized, "invalid signature")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Parsing webhook delivery", "channel", c.channel.Name(), logger.Err(err))
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "malformed delivery")
		return
	}

	// The platform may hang up before the backend answers; replies must still go out.
	ctx := context.WithoutCancel(r.Context())

	results, err := c.dispatch(ctx, events)
	if err != nil {
		slog.ErrorContext(ctx, "Handling webhook delivery", "channel", c.channel.Name(), logger.Err(err))
		c.writer.WriteStatus(w, http.StatusInternalServerError)
		return
	}

	c.writer.WriteSuccessResponse(w, results)
}

func (c *callback) dispatch(ctx context.Context, events []domain.Event) ([]any, error) {
	results := make([]any, len(events))
	errs := make([]error, len(events))

	var wg sync.WaitGroup
	wg.Add(len(events))
	for i, event := range events {
		go func(i int, event domain.Event) {
			defer wg.Done()
			results[i], errs[i] = c.handleEvent(ctx, event)
		}(i, event)
	}
	wg.Wait()

	var err error
	for i, e := range errs {
		if e != nil {
			err = multierror.Append(err, fmt.Errorf("event %d: %w", i, e))
		}
	}
	return results, err
}

func (c *callback) handleEvent(ctx context.Context, event domain.Event) (any, error) {
	reply, err := c.router.Route(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("routing event: %w", err)
	}
	if reply == nil {
		return nil, nil
	}

	result, err := c.channel.Reply(ctx, event, reply)
	if err != nil {
		return nil, fmt.Errorf("sending reply: %w", err)
	}
	return result, nil
}
