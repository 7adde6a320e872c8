package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "session:"

// RedisStore keeps sessions as JSON strings with a Redis TTL matching ExpiresAt.
// Redis expires keys itself, so DeleteExpired has nothing to do.
type RedisStore[Data any] struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore wraps a go-redis client. An empty prefix defaults to "session:".
func NewRedisStore[Data any](client redis.Cmdable, prefix string) *RedisStore[Data] {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisStore[Data]{client: client, prefix: prefix}
}

func (s *RedisStore[Data]) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

func (s *RedisStore[Data]) Get(ctx context.Context, id uuid.UUID) (*Session[Data], error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var sess Session[Data]
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore[Data]) Save(ctx context.Context, sess *Session[Data]) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		if err := s.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisStore[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore[Data]) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}
