package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"goldtrader/internal/broadcast"
	"goldtrader/internal/models"
	"goldtrader/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// memDB keeps every table in memory. memTxRunner serializes transactions
// and restores a snapshot when fn fails.
type memDB struct {
	mu           sync.Mutex
	users        map[string]models.User
	holdings     map[string]models.Holding
	transactions []models.Transaction
	ticks        []models.PriceTick
	deposits     map[string]models.Deposit
	alerts       map[string]models.PriceAlert
	audits       []string

	failTransactionInsert error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]models.User{},
		holdings: map[string]models.Holding{},
		deposits: map[string]models.Deposit{},
		alerts:   map[string]models.PriceAlert{},
	}
}

type memSnapshot struct {
	users        map[string]models.User
	holdings     map[string]models.Holding
	transactions []models.Transaction
	ticks        []models.PriceTick
	deposits     map[string]models.Deposit
	alerts       map[string]models.PriceAlert
	audits       []string
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		users:        copyMap(m.users),
		holdings:     copyMap(m.holdings),
		transactions: append([]models.Transaction(nil), m.transactions...),
		ticks:        append([]models.PriceTick(nil), m.ticks...),
		deposits:     copyMap(m.deposits),
		alerts:       copyMap(m.alerts),
		audits:       append([]string(nil), m.audits...),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.users
	m.holdings = s.holdings
	m.transactions = s.transactions
	m.ticks = s.ticks
	m.deposits = s.deposits
	m.alerts = s.alerts
	m.audits = s.audits
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) user(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memDB) holding(userID string) (models.Holding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holdings[userID]
	return h, ok
}

func (m *memDB) addUser(id, balance string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = models.User{ID: id, Username: id, Balance: decimal.RequireFromString(balance)}
}

func (m *memDB) addTick(price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := decimal.RequireFromString(price)
	m.ticks = append(m.ticks, models.PriceTick{ID: "tick", PricePerGram: p, Timestamp: time.Now()})
}

func (m *memDB) setHolding(userID, amount, avg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := models.NewHolding("h-"+userID, userID)
	h.Amount = decimal.RequireFromString(amount)
	h.AvgPrice = decimal.RequireFromString(avg)
	h.TotalValue = h.Amount.Mul(h.AvgPrice).Round(2)
	m.holdings[userID] = h
}

type memTxRunner struct {
	db *memDB
	mu *sync.Mutex
}

func newMemTxRunner(db *memDB) memTxRunner {
	return memTxRunner{db: db, mu: &sync.Mutex{}}
}

func (r memTxRunner) WithTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		r.db.restore(snap)
		return err
	}
	return nil
}

type memUsers struct{ db *memDB }

func (s memUsers) GetForUpdate(_ context.Context, _ store.Getter, id string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s memUsers) UpdateBalance(_ context.Context, _ store.Execer, id string, balance decimal.Decimal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := s.db.users[id]
	u.Balance = balance
	s.db.users[id] = u
	return nil
}

type memHoldings struct{ db *memDB }

func (s memHoldings) GetForUpdate(_ context.Context, _ store.Getter, userID string) (models.Holding, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h, ok := s.db.holdings[userID]
	if !ok {
		return models.Holding{}, sql.ErrNoRows
	}
	return h, nil
}

func (s memHoldings) Create(_ context.Context, _ store.Execer, h models.Holding) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.holdings[h.UserID] = h
	return nil
}

func (s memHoldings) Update(_ context.Context, _ store.Execer, h models.Holding) error {
	return s.Create(context.Background(), nil, h)
}

type memTransactions struct{ db *memDB }

func (s memTransactions) Create(_ context.Context, _ store.Execer, t models.Transaction) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failTransactionInsert != nil {
		return s.db.failTransactionInsert
	}
	s.db.transactions = append(s.db.transactions, t)
	return nil
}

type memPrices struct{ db *memDB }

func (s memPrices) LatestTx(_ context.Context, _ store.Getter) (models.PriceTick, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if len(s.db.ticks) == 0 {
		return models.PriceTick{}, sql.ErrNoRows
	}
	latest := s.db.ticks[0]
	for _, t := range s.db.ticks[1:] {
		if !t.Timestamp.Before(latest.Timestamp) {
			latest = t
		}
	}
	return latest, nil
}

func (s memPrices) Create(_ context.Context, _ store.Execer, tick models.PriceTick) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.ticks = append(s.db.ticks, tick)
	return nil
}

type memDeposits struct{ db *memDB }

func (s memDeposits) Create(_ context.Context, _ store.Execer, d models.Deposit) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deposits[d.ID] = d
	return nil
}

func (s memDeposits) GetForUpdate(_ context.Context, _ store.Getter, id, userID string) (models.Deposit, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.deposits[id]
	if !ok || d.UserID != userID {
		return models.Deposit{}, sql.ErrNoRows
	}
	return d, nil
}

func (s memDeposits) UpdateStatus(_ context.Context, _ store.Execer, id, status string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d := s.db.deposits[id]
	d.Status = status
	s.db.deposits[id] = d
	return nil
}

type memAlerts struct{ db *memDB }

func (s memAlerts) ListPending(context.Context) ([]models.PriceAlert, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.PriceAlert
	for _, a := range s.db.alerts {
		if a.IsActive && !a.IsTriggered {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memAlerts) MarkTriggered(_ context.Context, id string) (time.Time, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.alerts[id]
	if !ok || !a.IsActive || a.IsTriggered {
		return time.Time{}, false, nil
	}
	now := time.Now().UTC()
	a.IsTriggered = true
	a.IsActive = false
	a.TriggeredAt = &now
	s.db.alerts[id] = a
	return now, true, nil
}

func (s memAlerts) Create(_ context.Context, _ store.Execer, a models.PriceAlert) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.alerts[a.ID] = a
	return nil
}

func (s memAlerts) GetForUpdate(_ context.Context, _ store.Getter, id, userID string) (models.PriceAlert, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.alerts[id]
	if !ok || a.UserID != userID {
		return models.PriceAlert{}, sql.ErrNoRows
	}
	return a, nil
}

func (s memAlerts) Update(ctx context.Context, tx store.Execer, a models.PriceAlert) error {
	return s.Create(ctx, tx, a)
}

func (s memAlerts) Delete(_ context.Context, _ store.Execer, id, userID string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.alerts[id]
	if !ok || a.UserID != userID {
		return 0, nil
	}
	delete(s.db.alerts, id)
	return 1, nil
}

func (m *memDB) addAlert(id, userID, target, condition string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[id] = models.PriceAlert{
		ID:          id,
		UserID:      userID,
		TargetPrice: decimal.RequireFromString(target),
		Condition:   condition,
		IsActive:    true,
	}
}

func (m *memDB) alert(id string) models.PriceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alerts[id]
}

type memAudit struct{ db *memDB }

func (s memAudit) Log(_ context.Context, _ store.Execer, actorID, action, entityType, entityID string, _ any) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audits = append(s.db.audits, action+":"+entityID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	prices []broadcast.PriceUpdate
	alerts map[string][]broadcast.AlertEvent
	err    error
}

func (p *recordingPublisher) PublishPrice(_ context.Context, update broadcast.PriceUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = append(p.prices, update)
	return p.err
}

func (p *recordingPublisher) PublishAlert(_ context.Context, userID string, event broadcast.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.alerts == nil {
		p.alerts = map[string][]broadcast.AlertEvent{}
	}
	p.alerts[userID] = append(p.alerts[userID], event)
	return p.err
}
