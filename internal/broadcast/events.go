package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goldtrader/internal/models"
	"goldtrader/internal/money"

	"github.com/shopspring/decimal"
)

const (
	PriceGroup = "gold_price_updates"

	TypePriceUpdate    = "gold_price_update"
	TypeAlertTriggered = "price_alert_triggered"
)

// AlertGroup names the per-user group alert events are delivered to.
func AlertGroup(userID string) string {
	return "user_" + userID + "_alerts"
}

// Publisher delivers events to subscribers. Implementations must not
// block past ctx.
type Publisher interface {
	PublishPrice(ctx context.Context, update PriceUpdate) error
	PublishAlert(ctx context.Context, userID string, event AlertEvent) error
}

type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type PriceUpdate struct {
	PricePerGram string    `json:"price_per_gram"`
	PricePerBaht string    `json:"price_per_baht"`
	Currency     string    `json:"currency"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewPriceUpdate(tick models.PriceTick) PriceUpdate {
	currency := tick.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return PriceUpdate{
		PricePerGram: money.FormatMoney(tick.PricePerGram),
		PricePerBaht: money.FormatMoney(tick.PricePerBaht),
		Currency:     currency,
		Timestamp:    tick.Timestamp.UTC(),
	}
}

type AlertEvent struct {
	AlertID      string    `json:"alert_id"`
	UserID       string    `json:"user_id"`
	TargetPrice  string    `json:"target_price"`
	Condition    string    `json:"condition"`
	CurrentPrice string    `json:"current_price"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Message      string    `json:"message"`
}

func NewAlertEvent(alert models.PriceAlert, current decimal.Decimal) AlertEvent {
	var triggeredAt time.Time
	if alert.TriggeredAt != nil {
		triggeredAt = alert.TriggeredAt.UTC()
	}
	target := money.FormatMoney(alert.TargetPrice)
	price := money.FormatMoney(current)
	return AlertEvent{
		AlertID:      alert.ID,
		UserID:       alert.UserID,
		TargetPrice:  target,
		Condition:    alert.Condition,
		CurrentPrice: price,
		TriggeredAt:  triggeredAt,
		Message:      fmt.Sprintf("Price alert triggered: Gold price is now %s THB/g (your target was %s %s)", price, alert.Condition, target),
	}
}

// Encode wraps data in the wire envelope sent to websocket clients and
// across the Redis channel layer.
func Encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: eventType, Data: data})
}
