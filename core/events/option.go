package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/types"
)

const (
	TypeOptionIssued      = "option.issued"
	TypeOptionTransferred = "option.transferred"
	TypeOptionExercised   = "option.exercised"
)

// OptionIssued is emitted when the vault mints a claim against escrowed
// reward tokens.
type OptionIssued struct {
	ClaimID         uint64
	Owner           common.Address
	Amount          *big.Int
	SettlementPrice *big.Int
	VestAt          int64
}

func (OptionIssued) EventType() string { return TypeOptionIssued }

func (e OptionIssued) Event() *types.Event {
	return &types.Event{
		Type: TypeOptionIssued,
		Attributes: map[string]string{
			"claimId":         uintToString(e.ClaimID),
			"owner":           e.Owner.Hex(),
			"amount":          formatAmount(e.Amount),
			"settlementPrice": formatAmount(e.SettlementPrice),
			"vestAt":          intToString(e.VestAt),
		},
	}
}

// OptionTransferred is emitted when claim ownership changes hands prior to
// exercise.
type OptionTransferred struct {
	ClaimID uint64
	From    common.Address
	To      common.Address
}

func (OptionTransferred) EventType() string { return TypeOptionTransferred }

func (e OptionTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOptionTransferred,
		Attributes: map[string]string{
			"claimId": uintToString(e.ClaimID),
			"from":    e.From.Hex(),
			"to":      e.To.Hex(),
		},
	}
}

// OptionExercised is emitted once a claim settles and its record is destroyed.
type OptionExercised struct {
	ClaimID uint64
	Owner   common.Address
	Amount  *big.Int
	Payment *big.Int
}

func (OptionExercised) EventType() string { return TypeOptionExercised }

func (e OptionExercised) Event() *types.Event {
	return &types.Event{
		Type: TypeOptionExercised,
		Attributes: map[string]string{
			"claimId": uintToString(e.ClaimID),
			"owner":   e.Owner.Hex(),
			"amount":  formatAmount(e.Amount),
			"payment": formatAmount(e.Payment),
		},
	}
}
