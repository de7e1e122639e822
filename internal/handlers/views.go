package handlers

import (
	"encoding/json"
	"time"

	"goldtrader/internal/models"
	"goldtrader/internal/money"
	"goldtrader/internal/store"
)

type userView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth *string   `json:"date_of_birth"`
	Balance     string    `json:"balance"`
	IsStaff     bool      `json:"is_staff"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserView(u models.User) userView {
	view := userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Balance:     money.FormatMoney(u.Balance),
		IsStaff:     u.IsStaff,
		CreatedAt:   u.CreatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(dateLayout)
		view.DateOfBirth = &dob
	}
	return view
}

type holdingView struct {
	ID         string    `json:"id"`
	Amount     string    `json:"amount"`
	AvgPrice   string    `json:"avg_price"`
	TotalValue string    `json:"total_value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newHoldingView(h models.Holding) holdingView {
	return holdingView{
		ID:         h.ID,
		Amount:     money.FormatWeight(h.Amount),
		AvgPrice:   money.FormatMoney(h.AvgPrice),
		TotalValue: money.FormatMoney(h.TotalValue),
		UpdatedAt:  h.UpdatedAt,
	}
}

type summaryView struct {
	TotalAmount       string `json:"total_amount"`
	TotalCost         string `json:"total_cost"`
	CurrentPrice      string `json:"current_price"`
	CurrentValue      string `json:"current_value"`
	ProfitLoss        string `json:"profit_loss"`
	ProfitLossPercent string `json:"profit_loss_percent"`
}

func newSummaryView(s models.HoldingSummary) summaryView {
	return summaryView{
		TotalAmount:       money.FormatWeight(s.TotalAmount),
		TotalCost:         money.FormatMoney(s.TotalCost),
		CurrentPrice:      money.FormatMoney(s.CurrentPrice),
		CurrentValue:      money.FormatMoney(s.CurrentValue),
		ProfitLoss:        money.FormatMoney(s.ProfitLoss),
		ProfitLossPercent: money.FormatMoney(s.ProfitLossPercent),
	}
}

type transactionView struct {
	ID               string    `json:"id"`
	TransactionType  string    `json:"transaction_type"`
	GoldWeight       string    `json:"gold_weight"`
	GoldPricePerGram string    `json:"gold_price_per_gram"`
	TotalAmount      string    `json:"total_amount"`
	Status           string    `json:"status"`
	TransactionDate  time.Time `json:"transaction_date"`
	UserID           string    `json:"user_id,omitempty"`
}

func newTransactionView(t models.Transaction) transactionView {
	return transactionView{
		ID:               t.ID,
		TransactionType:  t.TransactionType,
		GoldWeight:       money.FormatWeight(t.GoldWeight),
		GoldPricePerGram: money.FormatMoney(t.GoldPricePerGram),
		TotalAmount:      money.FormatMoney(t.TotalAmount),
		Status:           t.Status,
		TransactionDate:  t.TransactionDate,
	}
}

func transactionViews(rows []models.Transaction, withUser bool) []transactionView {
	out := make([]transactionView, 0, len(rows))
	for _, row := range rows {
		view := newTransactionView(row)
		if withUser {
			view.UserID = row.UserID
		}
		out = append(out, view)
	}
	return out
}

type tickView struct {
	ID           string    `json:"id"`
	PricePerGram string    `json:"price_per_gram"`
	PricePerBaht string    `json:"price_per_baht"`
	Currency     string    `json:"currency"`
	Source       *string   `json:"source"`
	Notes        *string   `json:"notes"`
	Timestamp    time.Time `json:"timestamp"`
}

func newTickView(t models.PriceTick) tickView {
	return tickView{
		ID:           t.ID,
		PricePerGram: money.FormatMoney(t.PricePerGram),
		PricePerBaht: money.FormatMoney(t.PricePerBaht),
		Currency:     t.Currency,
		Source:       t.Source,
		Notes:        t.Notes,
		Timestamp:    t.Timestamp,
	}
}

type depositView struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	Reference     string    `json:"reference"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newDepositView(d models.Deposit) depositView {
	return depositView{
		ID:            d.ID,
		Amount:        money.FormatMoney(d.Amount),
		Status:        d.Status,
		Reference:     d.Reference,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type alertView struct {
	ID          string     `json:"id"`
	TargetPrice string     `json:"target_price"`
	Condition   string     `json:"condition"`
	IsActive    bool       `json:"is_active"`
	IsTriggered bool       `json:"is_triggered"`
	TriggeredAt *time.Time `json:"triggered_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newAlertView(a models.PriceAlert) alertView {
	return alertView{
		ID:          a.ID,
		TargetPrice: money.FormatMoney(a.TargetPrice),
		Condition:   a.Condition,
		IsActive:    a.IsActive,
		IsTriggered: a.IsTriggered,
		TriggeredAt: a.TriggeredAt,
		CreatedAt:   a.CreatedAt,
	}
}

type auditView struct {
	ID          string          `json:"id"`
	ActorUserID *string         `json:"actor_user_id"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newAuditView(e store.AuditEntry) auditView {
	return auditView(e)
}
