package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"goldtrader/internal/db"
	"goldtrader/internal/models"
	"goldtrader/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTradeFixture() (*memDB, *TradeService) {
	mem := newMemDB()
	svc := NewTradeService(newMemTxRunner(mem), memUsers{mem}, memHoldings{mem}, memTransactions{mem}, memPrices{mem}, memAudit{mem}, nil, nil)
	return mem, svc
}

func buy(amount string) TradeRequest {
	return TradeRequest{UserID: "user-1", Type: models.TradeBuy, Amount: d(amount)}
}

func sell(amount string) TradeRequest {
	return TradeRequest{UserID: "user-1", Type: models.TradeSell, Amount: d(amount)}
}

func TestExecuteTradeBuyScenario(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "10000.00")
	mem.addTick("2500.00")

	txn, err := svc.ExecuteTrade(context.Background(), buy("2.0"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, txn.Status)
	assert.True(t, txn.TotalAmount.Equal(d("5000.00")))
	assert.True(t, txn.GoldPricePerGram.Equal(d("2500.00")))
	assert.True(t, mem.user("user-1").Balance.Equal(d("5000.00")))
	holding, ok := mem.holding("user-1")
	require.True(t, ok)
	assert.Equal(t, "2.000", holding.Amount.StringFixed(3))
	assert.True(t, holding.AvgPrice.Equal(d("2500")))
	assert.Len(t, mem.transactions, 1)
	assert.Equal(t, []string{"trade.BUY:" + txn.ID}, mem.audits)
}

func TestExecuteTradeBuyWeightedAverage(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "20000.00")
	mem.setHolding("user-1", "1.000", "2000.00")
	mem.addTick("3000.00")

	_, err := svc.ExecuteTrade(context.Background(), buy("3"))
	require.NoError(t, err)

	holding, _ := mem.holding("user-1")
	assert.True(t, holding.Amount.Equal(d("4")))
	assert.True(t, holding.AvgPrice.Equal(d("2750")))
	assert.True(t, mem.user("user-1").Balance.Equal(d("11000")))
}

func TestExecuteTradeBuyInsufficientBalance(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "100.00")
	mem.addTick("2500.00")

	_, err := svc.ExecuteTrade(context.Background(), buy("1.0"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, mem.user("user-1").Balance.Equal(d("100.00")))
	_, ok := mem.holding("user-1")
	assert.False(t, ok)
	assert.Empty(t, mem.transactions)
}

func TestExecuteTradeSellKeepsAverage(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "0.00")
	mem.setHolding("user-1", "3.000", "2400.00")
	mem.addTick("2600.00")

	txn, err := svc.ExecuteTrade(context.Background(), sell("1.5"))
	require.NoError(t, err)

	assert.True(t, txn.TotalAmount.Equal(d("3900")))
	assert.True(t, mem.user("user-1").Balance.Equal(d("3900")))
	holding, _ := mem.holding("user-1")
	assert.True(t, holding.Amount.Equal(d("1.5")))
	assert.True(t, holding.AvgPrice.Equal(d("2400")))
}

func TestExecuteTradeSellInsufficientHolding(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "50.00")
	mem.setHolding("user-1", "1.000", "2400.00")
	mem.addTick("2500.00")

	_, err := svc.ExecuteTrade(context.Background(), sell("2.0"))
	assert.ErrorIs(t, err, ErrInsufficientHolding)
	holding, _ := mem.holding("user-1")
	assert.True(t, holding.Amount.Equal(d("1")))
	assert.True(t, mem.user("user-1").Balance.Equal(d("50")))
	assert.Empty(t, mem.transactions)
}

func TestExecuteTradeSellWithoutHolding(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "50.00")
	mem.addTick("2500.00")

	_, err := svc.ExecuteTrade(context.Background(), sell("0.5"))
	assert.ErrorIs(t, err, ErrNoHolding)
	assert.True(t, mem.user("user-1").Balance.Equal(d("50")))
}

func TestExecuteTradeNoPriceData(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "50000.00")

	_, err := svc.ExecuteTrade(context.Background(), buy("1"))
	assert.ErrorIs(t, err, ErrNoPriceData)
}

func TestExecuteTradeRejectsInvalidInput(t *testing.T) {
	_, svc := newTradeFixture()
	cases := []TradeRequest{
		buy("0"),
		buy("-1"),
		buy("0.0001"),
		{UserID: "user-1", Type: "HOLD", Amount: d("1")},
	}
	for _, req := range cases {
		_, err := svc.ExecuteTrade(context.Background(), req)
		assert.Error(t, err, "request %+v", req)
	}
	_, err := svc.ExecuteTrade(context.Background(), buy("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestExecuteTradeUnknownUser(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addTick("2500.00")
	_, err := svc.ExecuteTrade(context.Background(), TradeRequest{UserID: "ghost", Type: models.TradeBuy, Amount: d("1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecuteTradeIsAllOrNothing(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "10000.00")
	mem.addTick("2500.00")
	mem.failTransactionInsert = errors.New("disk full")

	_, err := svc.ExecuteTrade(context.Background(), buy("2.0"))
	require.Error(t, err)
	assert.True(t, mem.user("user-1").Balance.Equal(d("10000")))
	_, ok := mem.holding("user-1")
	assert.False(t, ok)
}

func TestExecuteTradeUsesLatestPrice(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "10000.00")
	mem.addTick("2000.00")
	mem.addTick("2500.00")

	txn, err := svc.ExecuteTrade(context.Background(), buy("1"))
	require.NoError(t, err)
	assert.True(t, txn.GoldPricePerGram.Equal(d("2500")))
}

func TestExecuteTradeConcurrentBuysNeverOverdraw(t *testing.T) {
	mem, svc := newTradeFixture()
	mem.addUser("user-1", "10000.00")
	mem.addTick("2500.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ExecuteTrade(context.Background(), buy("1")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	assert.True(t, mem.user("user-1").Balance.IsZero())
	holding, _ := mem.holding("user-1")
	assert.True(t, holding.Amount.Equal(d("4")))
}

type failingTxRunner struct{ err error }

func (f failingTxRunner) WithTx(context.Context, func(context.Context, *sqlx.Tx) error) error {
	return f.err
}

func TestExecuteTradeSurfacesTransientErrors(t *testing.T) {
	svc := NewTradeService(failingTxRunner{err: db.ErrTransient}, nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.ExecuteTrade(context.Background(), buy("1"))
	assert.ErrorIs(t, err, db.ErrTransient)
}

type txCtxKey struct{}

// markingTxRunner hands fn a context the caller never saw, like the
// deadline-bound context of db.WithTx.
type markingTxRunner struct{ memTxRunner }

func (r markingTxRunner) WithTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	return r.memTxRunner.WithTx(ctx, func(_ context.Context, tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txCtxKey{}, true), tx)
	})
}

type ctxCheckingUsers struct {
	memUsers
	t *testing.T
}

func (s ctxCheckingUsers) GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.User, error) {
	assert.Equal(s.t, true, ctx.Value(txCtxKey{}), "user lock must run on the tx context")
	return s.memUsers.GetForUpdate(ctx, tx, id)
}

func (s ctxCheckingUsers) UpdateBalance(ctx context.Context, tx store.Execer, id string, balance decimal.Decimal) error {
	assert.Equal(s.t, true, ctx.Value(txCtxKey{}), "balance update must run on the tx context")
	return s.memUsers.UpdateBalance(ctx, tx, id, balance)
}

func TestExecuteTradeQueriesRunOnTxContext(t *testing.T) {
	mem := newMemDB()
	mem.addUser("user-1", "10000.00")
	mem.addTick("2500.00")
	svc := NewTradeService(markingTxRunner{newMemTxRunner(mem)}, ctxCheckingUsers{memUsers{mem}, t}, memHoldings{mem}, memTransactions{mem}, memPrices{mem}, memAudit{mem}, nil, nil)

	_, err := svc.ExecuteTrade(context.Background(), buy("1"))
	require.NoError(t, err)
	assert.True(t, mem.user("user-1").Balance.Equal(d("7500.00")))
}
