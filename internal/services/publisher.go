package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher stores the latest price event and announces it on a channel.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) LatestKey() string { return p.prefix + ":latest" }

func (p *RedisPublisher) Channel() string { return p.prefix + ":prices" }

func (p *RedisPublisher) Publish(ctx context.Context, event models.PriceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("publisher: marshal: %w", err)
	}
	if err := p.client.Set(ctx, p.LatestKey(), string(payload), 0).Err(); err != nil {
		return fmt.Errorf("publisher: set %s: %w", p.LatestKey(), err)
	}
	if err := p.client.Publish(ctx, p.Channel(), string(payload)).Err(); err != nil {
		return fmt.Errorf("publisher: publish %s: %w", p.Channel(), err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
