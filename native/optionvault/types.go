package optionvault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Claim is a locked, transferable right to a fixed amount of escrowed reward
// token, redeemable after VestAt at the fixed SettlementPrice captured when
// the claim was issued. IDs are ordinal, starting at zero.
type Claim struct {
	ID              uint64         `json:"id"`
	Owner           common.Address `json:"owner"`
	Amount          *big.Int       `json:"amount"`
	SettlementPrice *big.Int       `json:"settlementPrice"`
	VestAt          int64          `json:"vestAt"`
	Exercised       bool           `json:"exercised"`
}

// Clone returns a deep copy so callers can mutate the result without touching
// the stored record.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	out := *c
	if c.Amount != nil {
		out.Amount = new(big.Int).Set(c.Amount)
	} else {
		out.Amount = big.NewInt(0)
	}
	if c.SettlementPrice != nil {
		out.SettlementPrice = new(big.Int).Set(c.SettlementPrice)
	} else {
		out.SettlementPrice = big.NewInt(0)
	}
	return &out
}
