package main

import (
	"context"

	"goldtrader/internal/broadcast"

	"go.uber.org/zap"
)

// cronLogger routes scheduler logs into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// discardPublisher stands in when no channel layer is configured.
type discardPublisher struct {
	log *zap.Logger
}

func (p discardPublisher) PublishPrice(_ context.Context, update broadcast.PriceUpdate) error {
	p.log.Debug("price update not published", zap.String("price_per_gram", update.PricePerGram))
	return nil
}

func (p discardPublisher) PublishAlert(_ context.Context, userID string, event broadcast.AlertEvent) error {
	p.log.Debug("alert not published", zap.String("user_id", userID), zap.String("alert_id", event.AlertID))
	return nil
}
