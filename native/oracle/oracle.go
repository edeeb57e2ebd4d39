package oracle

import (
	"errors"
	"math/big"
	"sync"
)

// ErrNoPrice is returned when the oracle has not been seeded with a price.
var ErrNoPrice = errors.New("oracle: price not set")

// PriceOracle resolves the current unit price of the reward token in payment
// token terms. The vault captures it once at issuance; how the price is
// computed upstream is outside this module.
type PriceOracle interface {
	CurrentPrice() (*big.Int, error)
}

// StaticOracle is a manually seeded PriceOracle for tests and closed
// deployments where an operator pushes the reference price.
type StaticOracle struct {
	mu    sync.RWMutex
	price *big.Int
}

func NewStaticOracle() *StaticOracle {
	return &StaticOracle{}
}

// Set replaces the current price. Negative values are normalised to zero.
func (o *StaticOracle) Set(price *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if price == nil || price.Sign() < 0 {
		o.price = big.NewInt(0)
		return
	}
	o.price = new(big.Int).Set(price)
}

// CurrentPrice returns the last pushed price.
func (o *StaticOracle) CurrentPrice() (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.price == nil {
		return nil, ErrNoPrice
	}
	return new(big.Int).Set(o.price), nil
}
