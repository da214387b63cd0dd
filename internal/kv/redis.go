package kv

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key; defaults to "uncase:".
	Prefix string
}

// RedisStore shares state between processes through a Redis server and
// announces writes on a pub/sub channel.
type RedisStore struct {
	client *redis.Client
	prefix string
	origin string
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "uncase:"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.Prefix,
		origin: uuid.NewString(),
	}
}

func (s *RedisStore) channel() string { return s.prefix + "changes" }
func (s *RedisStore) dataKey(key string) string { return s.prefix + "kv:" + key }

// Ping verifies the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.dataKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.dataKey(key), value, 0).Err(); err != nil {
		return err
	}
	return s.announce(ctx, key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.dataKey(key)).Err(); err != nil {
		return err
	}
	return s.announce(ctx, key)
}

func (s *RedisStore) announce(ctx context.Context, key string) error {
	return s.client.Publish(ctx, s.channel(), s.origin+"|"+key).Err()
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.dataKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.dataKey("")))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Watch reports keys written by other RedisStore instances. Writes made
// through this instance are skipped; the snapshot store already published them.
func (s *RedisStore) Watch(ctx context.Context, onChange func(key string)) error {
	sub := s.client.Subscribe(ctx, s.channel())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			origin, key, found := strings.Cut(msg.Payload, "|")
			if !found || origin == s.origin {
				continue
			}
			onChange(key)
		}
	}
}
