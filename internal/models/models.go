package models

import (
	"errors"
	"time"

	"goldtrader/internal/money"

	"github.com/shopspring/decimal"
)

const (
	TradeBuy  = "BUY"
	TradeSell = "SELL"

	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "FAILED"

	ConditionAbove = "ABOVE"
	ConditionBelow = "BELOW"

	DefaultCurrency = "THB"
)

var ErrInsufficientHolding = errors.New("insufficient gold holding")

type User struct {
	ID           string          `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
	IsStaff      bool            `db:"is_staff" json:"is_staff"`
	FirstName    string          `db:"first_name" json:"first_name"`
	LastName     string          `db:"last_name" json:"last_name"`
	PhoneNumber  string          `db:"phone_number" json:"phone_number"`
	DateOfBirth  *time.Time      `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Holding is a user's aggregate gold position. TotalValue always equals
// Amount*AvgPrice rounded to money places.
type Holding struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	AvgPrice   decimal.Decimal `db:"avg_price" json:"avg_price"`
	TotalValue decimal.Decimal `db:"total_value" json:"total_value"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

func NewHolding(id, userID string) Holding {
	return Holding{ID: id, UserID: userID, Amount: decimal.Zero, AvgPrice: decimal.Zero, TotalValue: decimal.Zero}
}

// ApplyBuy adds weight grams bought at price and recomputes the weighted
// average cost.
func (h *Holding) ApplyBuy(weight, price decimal.Decimal) {
	newAmount := h.Amount.Add(weight)
	cost := h.Amount.Mul(h.AvgPrice).Add(weight.Mul(price))
	if newAmount.IsPositive() {
		h.AvgPrice = money.Money(cost.Div(newAmount))
	}
	h.Amount = money.Weight(newAmount)
	h.recompute()
}

// ApplySell removes weight grams. The average cost of what remains is kept.
func (h *Holding) ApplySell(weight decimal.Decimal) error {
	if h.Amount.LessThan(weight) {
		return ErrInsufficientHolding
	}
	h.Amount = money.Weight(h.Amount.Sub(weight))
	h.recompute()
	return nil
}

func (h *Holding) recompute() {
	h.TotalValue = money.Money(h.Amount.Mul(h.AvgPrice))
}

// HoldingSummary values a holding at a given price per gram.
type HoldingSummary struct {
	TotalAmount       decimal.Decimal
	TotalCost         decimal.Decimal
	CurrentPrice      decimal.Decimal
	CurrentValue      decimal.Decimal
	ProfitLoss        decimal.Decimal
	ProfitLossPercent decimal.Decimal
}

func (h Holding) Summarize(current decimal.Decimal) HoldingSummary {
	cost := money.Money(h.Amount.Mul(h.AvgPrice))
	value := money.Money(h.Amount.Mul(current))
	pl := value.Sub(cost)
	percent := decimal.Zero
	if cost.IsPositive() {
		percent = money.Money(pl.Div(cost).Mul(decimal.NewFromInt(100)))
	}
	return HoldingSummary{
		TotalAmount:       h.Amount,
		TotalCost:         cost,
		CurrentPrice:      current,
		CurrentValue:      value,
		ProfitLoss:        pl,
		ProfitLossPercent: percent,
	}
}

type Transaction struct {
	ID               string          `db:"id" json:"id"`
	UserID           string          `db:"user_id" json:"user_id"`
	TransactionType  string          `db:"transaction_type" json:"transaction_type"`
	GoldWeight       decimal.Decimal `db:"gold_weight" json:"gold_weight"`
	GoldPricePerGram decimal.Decimal `db:"gold_price_per_gram" json:"gold_price_per_gram"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status           string          `db:"status" json:"status"`
	TransactionDate  time.Time       `db:"transaction_date" json:"transaction_date"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type PriceTick struct {
	ID           string          `db:"id" json:"id"`
	PricePerGram decimal.Decimal `db:"price_per_gram" json:"price_per_gram"`
	PricePerBaht decimal.Decimal `db:"price_per_baht" json:"price_per_baht"`
	Currency     string          `db:"currency" json:"currency"`
	Source       *string         `db:"source" json:"source,omitempty"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	Timestamp    time.Time       `db:"timestamp" json:"timestamp"`
}

type Deposit struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Status        string          `db:"status" json:"status"`
	Reference     string          `db:"reference" json:"reference"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type PriceAlert struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	TargetPrice decimal.Decimal `db:"target_price" json:"target_price"`
	Condition   string          `db:"condition" json:"condition"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	IsTriggered bool            `db:"is_triggered" json:"is_triggered"`
	TriggeredAt *time.Time      `db:"triggered_at" json:"triggered_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Matches applies the trigger rule. Both boundaries are inclusive.
func (a PriceAlert) Matches(current decimal.Decimal) bool {
	if !a.IsActive || a.IsTriggered {
		return false
	}
	switch a.Condition {
	case ConditionAbove:
		return current.GreaterThanOrEqual(a.TargetPrice)
	case ConditionBelow:
		return current.LessThanOrEqual(a.TargetPrice)
	default:
		return false
	}
}

func IsTradeType(value string) bool {
	return value == TradeBuy || value == TradeSell
}

func IsCondition(value string) bool {
	return value == ConditionAbove || value == ConditionBelow
}
