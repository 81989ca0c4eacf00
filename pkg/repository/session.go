package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

const DefaultSessionTTL = time.Hour

const (
	historyNamespace  = "history"
	personaNamespace  = "persona"
	skipChatNamespace = "skip-chat"
)

type sessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *sessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionRepository{
		rdb: rdb,
		ttl: ttl,
	}
}

func key(namespace, sourceID string) string {
	return namespace + ":" + sourceID
}

// History returns the stored history, or an empty one when it expired, was never
// written or cannot be decoded.
func (s *sessionRepository) History(ctx context.Context, sourceID string) ([]domain.ChatMessage, error) {
	raw, err := s.rdb.Get(ctx, key(historyNamespace, sourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	messages, status := decodeHistory(raw)
	if status == HistoryCorrupt {
		slog.WarnContext(ctx, "Cached history is corrupt, starting over", "sourceID", sourceID)
		return nil, nil
	}
	return messages, nil
}

// AppendTurn is a read-modify-write: concurrent appends for one source may lose a turn.
func (s *sessionRepository) AppendTurn(ctx context.Context, sourceID string, turn domain.Turn) error {
	messages, err := s.History(ctx, sourceID)
	if err != nil {
		return err
	}

	raw, err := encodeHistory(append(messages, turn.Messages()...))
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	return s.write(ctx, historyNamespace, sourceID, func(pipe redis.Pipeliner, k string) {
		pipe.Set(ctx, k, raw, s.ttl)
	})
}

func (s *sessionRepository) ClearHistory(ctx context.Context, sourceID string) error {
	return s.write(ctx, historyNamespace, sourceID, func(pipe redis.Pipeliner, k string) {
		pipe.Del(ctx, k)
	})
}

func (s *sessionRepository) Persona(ctx context.Context, sourceID string) (string, bool, error) {
	persona, err := s.rdb.Get(ctx, key(personaNamespace, sourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting persona: %w", err)
	}
	return persona, true, nil
}

func (s *sessionRepository) SetPersona(ctx context.Context, sourceID, persona string) error {
	return s.write(ctx, personaNamespace, sourceID, func(pipe redis.Pipeliner, k string) {
		pipe.Set(ctx, k, persona, s.ttl)
	})
}

func (s *sessionRepository) DeletePersona(ctx context.Context, sourceID string) error {
	return s.write(ctx, personaNamespace, sourceID, func(pipe redis.Pipeliner, k string) {
		pipe.Del(ctx, k)
	})
}

func (s *sessionRepository) SkipChat(ctx context.Context, groupID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(skipChatNamespace, groupID)).Result()
	if err != nil {
		return false, fmt.Errorf("getting skip-chat flag: %w", err)
	}
	return n > 0, nil
}

// SetSkipChat stores the flag without expiry; clearing it deletes the key.
func (s *sessionRepository) SetSkipChat(ctx context.Context, groupID string, skip bool) error {
	k := key(skipChatNamespace, groupID)

	var err error
	if skip {
		err = s.rdb.Set(ctx, k, "1", 0).Err()
	} else {
		err = s.rdb.Del(ctx, k).Err()
	}
	if err != nil {
		return fmt.Errorf("saving skip-chat flag: %w", err)
	}
	return nil
}

// write applies fn to the namespaced key and re-arms the TTL of the sibling session
// key in the same transaction, so history and persona slide together.
func (s *sessionRepository) write(
	ctx context.Context,
	namespace, sourceID string,
	fn func(pipe redis.Pipeliner, key string),
) error {
	sibling := personaNamespace
	if namespace == personaNamespace {
		sibling = historyNamespace
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe, key(namespace, sourceID))
		pipe.Expire(ctx, key(sibling, sourceID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", namespace, err)
	}
	return nil
}
