package pubsub

import (
	"context"

	"goldtrader/internal/broadcast"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Sink receives raw payloads for a group. websocket.Hub satisfies it.
type Sink interface {
	Broadcast(group string, payload []byte) int
}

type Relay struct {
	sink   Sink
	logger *zap.Logger
}

func NewRelay(sink Sink, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{sink: sink, logger: logger}
}

// Run subscribes to the price channel and every alert channel and forwards
// messages until ctx is done.
func (r *Relay) Run(ctx context.Context, client *redis.Client) error {
	sub := client.PSubscribe(ctx, broadcast.PriceGroup, AlertPattern)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("redis relay subscribed", zap.Strings("patterns", []string{broadcast.PriceGroup, AlertPattern}))
	return r.Forward(ctx, sub.Channel())
}

func (r *Relay) Forward(ctx context.Context, messages <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			delivered := r.sink.Broadcast(msg.Channel, []byte(msg.Payload))
			r.logger.Debug("relayed message", zap.String("channel", msg.Channel), zap.Int("clients", delivered))
		}
	}
}
