package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPresenceTTL is how long a claim survives without a refresh.
const DefaultPresenceTTL = 90 * time.Second

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// RedisPresence stores one key per live transcript, holding the id of the
// owning instance, with a TTL kept fresh by Registry.KeepAlive. A crashed
// instance's claims expire on their own.
type RedisPresence struct {
	client   redis.UniversalClient
	prefix   string
	instance string
	ttl      time.Duration
}

// NewRedisPresence creates a presence whose keys are prefix + "chat:" + chatID.
func NewRedisPresence(client redis.UniversalClient, prefix, instance string, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresence{client: client, prefix: prefix, instance: instance, ttl: ttl}
}

// TTL returns the claim lifetime.
func (p *RedisPresence) TTL() time.Duration {
	return p.ttl
}

func (p *RedisPresence) key(chatID string) string {
	return p.prefix + "chat:" + chatID
}

// Claim marks chatID as owned by this instance.
func (p *RedisPresence) Claim(ctx context.Context, chatID string) error {
	if err := p.client.Set(ctx, p.key(chatID), p.instance, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis error claiming %s: %w", chatID, err)
	}
	return nil
}

// Release drops the claim if this instance still holds it.
func (p *RedisPresence) Release(ctx context.Context, chatID string) error {
	if err := p.client.Eval(ctx, releaseScript, []string{p.key(chatID)}, p.instance).Err(); err != nil {
		return fmt.Errorf("redis error releasing %s: %w", chatID, err)
	}
	return nil
}

// Refresh re-claims every id in one pipeline, which also restores claims
// lost to a Redis restart.
func (p *RedisPresence) Refresh(ctx context.Context, chatIDs []string) error {
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range chatIDs {
			pipe.Set(ctx, p.key(id), p.instance, p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error refreshing %d claims: %w", len(chatIDs), err)
	}
	return nil
}

// Alive reports whether any instance currently claims chatID.
func (p *RedisPresence) Alive(ctx context.Context, chatID string) (bool, error) {
	n, err := p.client.Exists(ctx, p.key(chatID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error checking %s: %w", chatID, err)
	}
	return n > 0, nil
}
