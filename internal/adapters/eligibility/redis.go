// Package eligibility reads translator eligibility data maintained by the
// roster system. Eligibility is external input: this service only queries it.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	pairKeyPrefix       = "eligibility:pair:"
	translatorKeyPrefix = "eligibility:translator:"
)

// RedisProvider implements the EligibilityProvider interface using Redis
// sets populated by the roster system.
type RedisProvider struct {
	client redis.UniversalClient
	logger *slog.Logger

	// group coalesces concurrent reads of the same roster key. A pending
	// job with many interested translators produces bursts of identical
	// lookups; only one hits Redis.
	group singleflight.Group
}

// Options holds optional dependencies for RedisProvider.
type Options struct {
	Logger *slog.Logger
}

// NewRedisProvider creates a new RedisProvider with the given Redis client.
func NewRedisProvider(client redis.UniversalClient, opts Options) *RedisProvider {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisProvider{client: client, logger: logger}
}

// EligibleTranslators returns translator IDs able to serve the language pair.
// A missing key means no translator is eligible; that is a valid answer, not
// an error.
func (p *RedisProvider) EligibleTranslators(ctx context.Context, languagePair string) ([]string, error) {
	if languagePair == "" {
		return nil, errors.New("language pair cannot be empty")
	}

	return p.setMembers(ctx, pairKeyPrefix+languagePair)
}

// LanguagePairs returns the pairs a translator can serve.
func (p *RedisProvider) LanguagePairs(ctx context.Context, translatorID string) ([]string, error) {
	if translatorID == "" {
		return nil, errors.New("translator id cannot be empty")
	}

	return p.setMembers(ctx, translatorKeyPrefix+translatorID)
}

func (p *RedisProvider) setMembers(ctx context.Context, key string) ([]string, error) {
	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.client.SMembers(ctx, key).Result()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	members, _ := v.([]string)
	return members, nil
}

// Health checks the health of the Redis connection.
func (p *RedisProvider) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
