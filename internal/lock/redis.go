package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes a key only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions tunes a Redis Locker.
type RedisOptions struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed holder can keep a key.
	TTL time.Duration
	// RetryInterval is the pause between SETNX attempts on a held key.
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// Redis is a Locker shared by every process connected to the same Redis.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedis wraps client. Zero options fall back to a 10s TTL and 25ms retry.
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 25 * time.Millisecond
	}
	if opts.Prefix == "" {
		opts.Prefix = "reservation:lock:"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Redis{client: client, opts: opts}
}

// Acquire implements Locker.
func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	held := make([]string, 0, len(keys))
	releaseHeld := func() {
		// release must succeed even when the request context is already done
		releaseCtx, cancel := context.WithTimeout(context.Background(), r.opts.TTL)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(releaseCtx, r.client, []string{held[i]}, token).Err(); err != nil {
				r.opts.Logger.Warn("failed to release lock", "key", held[i], "error", err)
			}
		}
		held = held[:0]
	}

	for _, key := range keys {
		fullKey := r.opts.Prefix + key
		if err := r.lock(ctx, fullKey, token); err != nil {
			releaseHeld()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
		held = append(held, fullKey)
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

func (r *Redis) lock(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(r.opts.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.opts.TTL).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("lock: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
