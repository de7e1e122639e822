package pubsub

import (
	"context"
	"fmt"
	"time"

	"goldtrader/internal/broadcast"

	"github.com/redis/go-redis/v9"
)

// AlertPattern matches every per-user alert channel.
const AlertPattern = "user_*_alerts"

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher sends events over Redis channels named after hub groups, so
// every server's Relay can forward them to its own websocket clients.
type Publisher struct {
	client publishClient
}

func NewPublisher(client publishClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishPrice(ctx context.Context, update broadcast.PriceUpdate) error {
	payload, err := broadcast.Encode(broadcast.TypePriceUpdate, update)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, broadcast.PriceGroup, payload).Err()
}

func (p *Publisher) PublishAlert(ctx context.Context, userID string, event broadcast.AlertEvent) error {
	payload, err := broadcast.Encode(broadcast.TypeAlertTriggered, event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, broadcast.AlertGroup(userID), payload).Err()
}

func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
