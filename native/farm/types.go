package farm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one stake pool in the registry. StakeToken is immutable after
// creation; Weight is the pool's relative share of the global emission.
// AccRewardPerShare is a fixed-point accumulator scaled by Precision.
type Pool struct {
	ID                uint64         `json:"id"`
	StakeToken        common.Address `json:"stakeToken"`
	Weight            uint64         `json:"weight"`
	TotalStaked       *big.Int       `json:"totalStaked"`
	AccRewardPerShare *big.Int       `json:"accRewardPerShare"`
	LastRewardTick    uint64         `json:"lastRewardTick"`
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	out := *p
	if p.TotalStaked != nil {
		out.TotalStaked = new(big.Int).Set(p.TotalStaked)
	} else {
		out.TotalStaked = big.NewInt(0)
	}
	if p.AccRewardPerShare != nil {
		out.AccRewardPerShare = new(big.Int).Set(p.AccRewardPerShare)
	} else {
		out.AccRewardPerShare = big.NewInt(0)
	}
	return &out
}

// Position tracks a participant's stake in a pool. RewardDebt snapshots the
// accumulator contribution already settled, so pending reward is always
// amount*accRewardPerShare/Precision - rewardDebt. Positions persist with a
// zero amount after full withdrawal.
type Position struct {
	PoolID     uint64         `json:"poolId"`
	Owner      common.Address `json:"owner"`
	Amount     *big.Int       `json:"amount"`
	RewardDebt *big.Int       `json:"rewardDebt"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	out := *p
	if p.Amount != nil {
		out.Amount = new(big.Int).Set(p.Amount)
	} else {
		out.Amount = big.NewInt(0)
	}
	if p.RewardDebt != nil {
		out.RewardDebt = new(big.Int).Set(p.RewardDebt)
	} else {
		out.RewardDebt = big.NewInt(0)
	}
	return &out
}
