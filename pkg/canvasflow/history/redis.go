package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the Redis store writes.
const DefaultRedisPrefix = "canvasflow"

// RedisStore persists execution records to Redis. Each record is a JSON
// string under <prefix>:exec:<id>; each graph keeps a sorted set of its
// execution ids under <prefix>:graph:<graphID>:execs, scored by start time
// in milliseconds.
type RedisStore struct {
	client *redis.Client
	prefix string

	mu     sync.RWMutex
	closed bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a history store on client. The store owns the
// client and closes it on Close.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisStoreFromURL parses a redis:// URL and connects.
func NewRedisStoreFromURL(ctx context.Context, url string, opts ...RedisOption) (*RedisStore, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) recordKey(id string) string {
	return fmt.Sprintf("%s:exec:%s", s.prefix, id)
}

func (s *RedisStore) graphKey(graphID string) string {
	return fmt.Sprintf("%s:graph:%s:execs", s.prefix, graphID)
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	// NX: only set if not exists
	ok, err := s.client.SetNX(ctx, s.recordKey(rec.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store execution: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}

	err = s.client.ZAdd(ctx, s.graphKey(rec.GraphID), redis.Z{
		Score:  float64(rec.StartedAt.UnixMilli()),
		Member: rec.ID,
	}).Err()
	if err != nil {
		// An unindexed record is unreachable from List; drop it so the
		// append can be retried.
		if derr := s.client.Del(context.WithoutCancel(ctx), s.recordKey(rec.ID)).Err(); derr != nil {
			return fmt.Errorf("index execution: %w", errors.Join(err, derr))
		}
		return fmt.Errorf("index execution: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	val, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load execution: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal execution: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, graphID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ids, err := s.client.ZRevRange(ctx, s.graphKey(graphID), 0, int64(listLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load executions: %w", err)
	}

	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Record expired or deleted behind the index.
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal execution: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.client.Close()
}
