package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/types"
)

const (
	TypeFarmPoolAdded = "farm.pool_added"
	TypeFarmDeposit   = "farm.deposit"
	TypeFarmWithdraw  = "farm.withdraw"
)

// FarmPoolAdded is emitted when a new stake pool is appended to the registry.
type FarmPoolAdded struct {
	PoolID     uint64
	StakeToken common.Address
	Weight     uint64
}

func (FarmPoolAdded) EventType() string { return TypeFarmPoolAdded }

func (e FarmPoolAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmPoolAdded,
		Attributes: map[string]string{
			"poolId":     uintToString(e.PoolID),
			"stakeToken": e.StakeToken.Hex(),
			"weight":     uintToString(e.Weight),
		},
	}
}

// FarmDeposit is emitted after a deposit (including zero-amount harvests)
// settles against a pool.
type FarmDeposit struct {
	PoolID      uint64
	Participant common.Address
	Amount      *big.Int
}

func (FarmDeposit) EventType() string { return TypeFarmDeposit }

func (e FarmDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmDeposit,
		Attributes: map[string]string{
			"poolId":      uintToString(e.PoolID),
			"participant": e.Participant.Hex(),
			"amount":      formatAmount(e.Amount),
		},
	}
}

// FarmWithdraw is emitted after stake leaves a pool.
type FarmWithdraw struct {
	PoolID      uint64
	Participant common.Address
	Amount      *big.Int
}

func (FarmWithdraw) EventType() string { return TypeFarmWithdraw }

func (e FarmWithdraw) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmWithdraw,
		Attributes: map[string]string{
			"poolId":      uintToString(e.PoolID),
			"participant": e.Participant.Hex(),
			"amount":      formatAmount(e.Amount),
		},
	}
}
