package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/domain"
)

// Commander is the subset of *redis.Client the publisher needs.
type Commander interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Publisher relays every batch to a pub/sub channel and keeps the last batch
// under latestKey until ttl expires, so late subscribers can catch up.
type Publisher struct {
	rdb       Commander
	channel   string
	latestKey string
	ttl       time.Duration
}

func New(rdb Commander, channel, latestKey string, ttl time.Duration) *Publisher {
	if strings.TrimSpace(channel) == "" {
		channel = "warrantfeed:quotes"
	}
	return &Publisher{rdb: rdb, channel: channel, latestKey: latestKey, ttl: ttl}
}

func (p *Publisher) Publish(ctx context.Context, quotes []domain.Quote) error {
	b, err := json.Marshal(domain.NewUpdate(quotes))
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	if p.latestKey != "" {
		if err := p.rdb.Set(ctx, p.latestKey, b, p.ttl).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", p.latestKey, err)
		}
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

var _ port.QuoteSink = (*Publisher)(nil)
