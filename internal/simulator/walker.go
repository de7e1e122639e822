package simulator

import (
	"errors"
	"math/rand"
	"sync"

	"goldtrader/internal/money"

	"github.com/shopspring/decimal"
)

// MaxStep is the largest relative move of a single tick.
const MaxStep = 0.02

var ErrInvalidBounds = errors.New("simulator bounds must be positive with min <= max")

// Walker produces a bounded random walk of gold prices. It starts at the
// midpoint of [min, max], moves by at most MaxStep per tick and is clamped
// to the bounds.
type Walker struct {
	mu      sync.Mutex
	min     decimal.Decimal
	max     decimal.Decimal
	current decimal.Decimal
	rng     *rand.Rand
}

func NewWalker(min, max decimal.Decimal, seed int64) (*Walker, error) {
	if !min.IsPositive() || min.GreaterThan(max) {
		return nil, ErrInvalidBounds
	}
	return &Walker{
		min:     min,
		max:     max,
		current: min.Add(max).Div(decimal.NewFromInt(2)),
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Step is one generated tick.
type Step struct {
	Price  decimal.Decimal
	Change decimal.Decimal
}

// Next advances the walk and returns the new price rounded to money places
// along with the applied relative change.
func (w *Walker) Next() Step {
	w.mu.Lock()
	defer w.mu.Unlock()

	change := decimal.NewFromFloat(w.rng.Float64()*2*MaxStep - MaxStep)
	next := w.current.Mul(decimal.NewFromInt(1).Add(change))
	if next.LessThan(w.min) {
		next = w.min
	} else if next.GreaterThan(w.max) {
		next = w.max
	}
	w.current = next
	return Step{Price: money.Money(next), Change: change}
}

func (w *Walker) Current() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return money.Money(w.current)
}
