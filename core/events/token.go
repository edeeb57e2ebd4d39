package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/types"
)

const (
	TypeTokenTransfer = "token.transfer"
	TypeTokenMint     = "token.mint"
)

// TokenTransfer is emitted for every ledger balance movement.
type TokenTransfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"token":  e.Token.Hex(),
			"from":   e.From.Hex(),
			"to":     e.To.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// TokenMint is emitted when an authorized minter expands supply.
type TokenMint struct {
	Token  common.Address
	Minter common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenMint) EventType() string { return TypeTokenMint }

func (e TokenMint) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMint,
		Attributes: map[string]string{
			"token":  e.Token.Hex(),
			"minter": e.Minter.Hex(),
			"to":     e.To.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}
