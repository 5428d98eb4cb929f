package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codewalk-dev/codewalk/internal/session"
)

const redisKeyPrefix = "codewalk:session:"

// RedisStore keeps sessions as self-contained JSON documents in Redis, with
// an optional TTL for automatic cleanup. Audio is inlined before storing so a
// document never references files local to one instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 = no expiration
}

// NewRedisStore connects to Redis at addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, r *session.Recording) error {
	key := redisKeyPrefix + r.ID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("checking session existence: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", session.ErrExists, r.ID)
	}

	stored := r
	if r.HasAudio() {
		inline, err := r.Audio.Inline()
		if err != nil {
			return fmt.Errorf("inlining audio payload: %w", err)
		}
		cp := *r
		cp.Audio = inline
		stored = &cp
	}
	data, err := session.Encode(stored)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*session.Recording, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return session.Decode(data)
}

func (s *RedisStore) List(ctx context.Context) ([]session.Meta, error) {
	var metas []session.Meta
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(redisKeyPrefix):]
		r, err := s.Load(ctx, id)
		if err != nil {
			continue // expired between scan and load
		}
		metas = append(metas, session.Meta{
			ID:         r.ID,
			RecordedAt: r.RecordedAt,
			DurationMS: r.Duration(),
			CodeEvents: len(r.CodeEvents),
			HasAudio:   r.HasAudio(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	return metas, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
