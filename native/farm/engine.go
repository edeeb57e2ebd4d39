package farm

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/events"
	"optionfarm/native/optionvault"
	"optionfarm/native/token"
)

// Precision is the fixed-point scale of the per-share reward accumulator.
// 1e12 keeps rounding dust negligible for 18-decimal token amounts.
const Precision = 1_000_000_000_000

var precision = big.NewInt(Precision)

// engineState is the persistence surface for pools and stake positions.
// Pools are stored under ascending ordinal ids with a reverse index from
// stake token to pool id; the aggregate weight is persisted alongside so
// accrual never has to walk the whole registry.
type engineState interface {
	PoolCount() (uint64, error)
	PoolGet(id uint64) (*Pool, bool, error)
	PoolPut(*Pool) error
	PoolIDByToken(stakeToken common.Address) (uint64, bool, error)
	IndexPoolToken(stakeToken common.Address, id uint64) error
	SetPoolCount(count uint64) error
	TotalWeight() (uint64, error)
	SetTotalWeight(weight uint64) error
	PositionGet(poolID uint64, owner common.Address) (*Position, bool, error)
	PositionPut(*Position) error
}

// Bank is the fungible-ledger capability the engine stakes and mints through.
type Bank interface {
	BalanceOf(tkn, holder common.Address) (*big.Int, error)
	Allowance(tkn, owner, spender common.Address) (*big.Int, error)
	Transfer(tkn, from, to common.Address, amount *big.Int) error
	TransferFrom(tkn, spender, from, to common.Address, amount *big.Int) error
	Mint(tkn, minter, to common.Address, amount *big.Int) error
}

// ClaimIssuer settles harvested rewards into vested option claims. The farm
// never pays rewards out directly; every settled amount becomes a claim.
type ClaimIssuer interface {
	Issue(owner common.Address, amount, referencePrice *big.Int) (*optionvault.Claim, error)
	CustodyAddress() common.Address
}

// PriceOracle supplies the reference price captured at settlement.
type PriceOracle interface {
	CurrentPrice() (*big.Int, error)
}

// Engine combines the pool registry, the lazy emission accumulator and the
// per-participant stake ledger. The tick driving emission is injected via
// SetBlockHeight and never advanced internally.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	bank    Bank
	vault   ClaimIssuer
	oracle  PriceOracle
	emitter events.Emitter

	moduleAddress   common.Address
	rewardToken     common.Address
	emissionPerTick *big.Int
	startTick       uint64
	blockHeight     uint64
}

// NewEngine constructs a farm engine. moduleAddr is the custody account for
// staked tokens and the authorized minter of the reward token; emission
// accrual starts no earlier than startTick.
func NewEngine(moduleAddr, rewardToken common.Address, emissionPerTick *big.Int, startTick uint64) *Engine {
	emission := big.NewInt(0)
	if emissionPerTick != nil && emissionPerTick.Sign() > 0 {
		emission = new(big.Int).Set(emissionPerTick)
	}
	return &Engine{
		emitter:         events.NoopEmitter{},
		moduleAddress:   moduleAddr,
		rewardToken:     rewardToken,
		emissionPerTick: emission,
		startTick:       startTick,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank wires the fungible ledger collaborator.
func (e *Engine) SetBank(bank Bank) { e.bank = bank }

// SetVault wires the claim vault the engine settles rewards through.
func (e *Engine) SetVault(vault ClaimIssuer) { e.vault = vault }

// SetOracle wires the price oracle queried at settlement time.
func (e *Engine) SetOracle(oracle PriceOracle) { e.oracle = oracle }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetBlockHeight records the externally supplied tick used for accrual.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockHeight = height
}

// ModuleAddress returns the stake custody account.
func (e *Engine) ModuleAddress() common.Address { return e.moduleAddress }

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nil
}

// currentTick clamps the injected height to the configured emission start.
func (e *Engine) currentTick() uint64 {
	if e.blockHeight < e.startTick {
		return e.startTick
	}
	return e.blockHeight
}

// AddPool registers a new stake pool. Each stake token may back at most one
// pool. When syncAll is set every existing pool is brought current first, so
// the weight-share change cannot retroactively alter accrued history.
func (e *Engine) AddPool(weight uint64, stakeToken common.Address, syncAll bool) (*Pool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists, err := e.state.PoolIDByToken(stakeToken); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicatePool
	}
	if syncAll {
		if err := e.updateAllLocked(); err != nil {
			return nil, err
		}
	}

	id, err := e.state.PoolCount()
	if err != nil {
		return nil, err
	}
	totalWeight, err := e.state.TotalWeight()
	if err != nil {
		return nil, err
	}
	pool := &Pool{
		ID:                id,
		StakeToken:        stakeToken,
		Weight:            weight,
		TotalStaked:       big.NewInt(0),
		AccRewardPerShare: big.NewInt(0),
		LastRewardTick:    e.currentTick(),
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.state.IndexPoolToken(stakeToken, id); err != nil {
		return nil, err
	}
	if err := e.state.SetPoolCount(id + 1); err != nil {
		return nil, err
	}
	if err := e.state.SetTotalWeight(totalWeight + weight); err != nil {
		return nil, err
	}
	e.emit(events.FarmPoolAdded{PoolID: id, StakeToken: stakeToken, Weight: weight})
	return pool.Clone(), nil
}

// SetPoolWeight adjusts a pool's emission share. With syncAll the registry is
// brought current first, mirroring AddPool.
func (e *Engine) SetPoolWeight(poolID, weight uint64, syncAll bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}
	if syncAll {
		if err := e.updateAllLocked(); err != nil {
			return err
		}
		if pool, ok, err = e.state.PoolGet(poolID); err != nil || !ok {
			return err
		}
	}
	totalWeight, err := e.state.TotalWeight()
	if err != nil {
		return err
	}
	updated := pool.Clone()
	totalWeight = totalWeight - pool.Weight + weight
	updated.Weight = weight
	if err := e.state.PoolPut(updated); err != nil {
		return err
	}
	return e.state.SetTotalWeight(totalWeight)
}

// IsRegistered reports whether a stake token already backs a pool.
func (e *Engine) IsRegistered(stakeToken common.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	_, ok, err := e.state.PoolIDByToken(stakeToken)
	return ok, err
}

// PoolCount returns the number of registered pools.
func (e *Engine) PoolCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.PoolCount()
}

// GetPool returns a copy of the pool record.
func (e *Engine) GetPool(poolID uint64) (*Pool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool.Clone(), nil
}

// GetPosition returns a copy of the participant's stake position. A missing
// position reads as an empty one.
func (e *Engine) GetPosition(poolID uint64, owner common.Address) (*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.PositionGet(poolID, owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Position{PoolID: poolID, Owner: owner, Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}, nil
	}
	return pos.Clone(), nil
}

// UpdatePool lazily accrues emission for a single pool up to the current
// tick. Calling it twice at the same tick is a no-op.
func (e *Engine) UpdatePool(poolID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.updatePoolLocked(poolID)
	return err
}

func (e *Engine) updateAllLocked() error {
	count, err := e.state.PoolCount()
	if err != nil {
		return err
	}
	for id := uint64(0); id < count; id++ {
		if _, err := e.updatePoolLocked(id); err != nil {
			return err
		}
	}
	return nil
}

// updatePoolLocked advances a pool's accumulator and mints the accrued
// emission into vault custody. Emission accrued while the pool is empty is
// forfeited: the tick still advances so later stakers cannot claim it.
func (e *Engine) updatePoolLocked(poolID uint64) (*Pool, error) {
	stored, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	tick := e.currentTick()
	if tick <= stored.LastRewardTick {
		return stored.Clone(), nil
	}
	pool := stored.Clone()

	totalWeight, err := e.state.TotalWeight()
	if err != nil {
		return nil, err
	}
	emission := e.poolEmission(pool, tick, totalWeight)
	if emission.Sign() == 0 || pool.TotalStaked.Sign() == 0 {
		pool.LastRewardTick = tick
		if err := e.state.PoolPut(pool); err != nil {
			return nil, err
		}
		return pool.Clone(), nil
	}

	if e.bank == nil {
		return nil, ErrNilBank
	}
	if e.vault == nil {
		return nil, ErrNilVault
	}
	if err := e.bank.Mint(e.rewardToken, e.moduleAddress, e.vault.CustodyAddress(), emission); err != nil {
		return nil, err
	}

	perShare := new(big.Int).Mul(emission, precision)
	perShare.Quo(perShare, pool.TotalStaked)
	pool.AccRewardPerShare = new(big.Int).Add(pool.AccRewardPerShare, perShare)
	pool.LastRewardTick = tick
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// poolEmission computes the pool's emission share for the elapsed ticks,
// truncating on the weight division. A zero total weight yields zero.
func (e *Engine) poolEmission(pool *Pool, tick uint64, totalWeight uint64) *big.Int {
	if totalWeight == 0 || pool.Weight == 0 || tick <= pool.LastRewardTick {
		return big.NewInt(0)
	}
	elapsed := new(big.Int).SetUint64(tick - pool.LastRewardTick)
	emission := new(big.Int).Mul(e.emissionPerTick, elapsed)
	emission.Mul(emission, new(big.Int).SetUint64(pool.Weight))
	emission.Quo(emission, new(big.Int).SetUint64(totalWeight))
	return emission
}

// PendingReward reports the participant's settleable reward at the current
// tick without mutating any stored state.
func (e *Engine) PendingReward(poolID uint64, owner common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	pos, ok, err := e.state.PositionGet(poolID, owner)
	if err != nil {
		return nil, err
	}
	if !ok || pos.Amount == nil || pos.Amount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	acc := new(big.Int).Set(pool.AccRewardPerShare)
	tick := e.currentTick()
	if tick > pool.LastRewardTick && pool.TotalStaked.Sign() > 0 {
		totalWeight, err := e.state.TotalWeight()
		if err != nil {
			return nil, err
		}
		emission := e.poolEmission(pool, tick, totalWeight)
		if emission.Sign() > 0 {
			perShare := new(big.Int).Mul(emission, precision)
			perShare.Quo(perShare, pool.TotalStaked)
			acc.Add(acc, perShare)
		}
	}
	return pendingFor(pos, acc), nil
}

// pendingFor computes amount*acc/Precision - rewardDebt. The result is never
// negative while the reward-debt invariant holds.
func pendingFor(pos *Position, acc *big.Int) *big.Int {
	accrued := new(big.Int).Mul(pos.Amount, acc)
	accrued.Quo(accrued, precision)
	pending := accrued.Sub(accrued, pos.RewardDebt)
	if pending.Sign() < 0 {
		pending.SetInt64(0)
	}
	return pending
}

// Deposit stakes amount of the pool's stake token for the participant. A zero
// amount is a pure harvest. Ordering is load-bearing: accrual update, then
// settlement into a claim, then the stake mutation, then the reward-debt
// refresh.
func (e *Engine) Deposit(poolID uint64, participant common.Address, amount *big.Int) error {
	return e.mutateStake(poolID, participant, amount, false)
}

// Withdraw removes amount of stake and settles pending reward first.
// Withdraw(poolID, addr, 0) is the canonical harvest call.
func (e *Engine) Withdraw(poolID uint64, participant common.Address, amount *big.Int) error {
	return e.mutateStake(poolID, participant, amount, true)
}

func (e *Engine) mutateStake(poolID uint64, participant common.Address, amount *big.Int, withdrawal bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.bank == nil {
		return ErrNilBank
	}
	if e.vault == nil {
		return ErrNilVault
	}
	if e.oracle == nil {
		return ErrNilOracle
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	amt := big.NewInt(0)
	if amount != nil {
		amt = new(big.Int).Set(amount)
	}
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}

	stored, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}

	pos, ok, err := e.state.PositionGet(poolID, participant)
	if err != nil {
		return err
	}
	if !ok {
		pos = &Position{PoolID: poolID, Owner: participant, Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
	} else {
		pos = pos.Clone()
	}

	if withdrawal {
		if amt.Cmp(pos.Amount) > 0 {
			return ErrInsufficientStake
		}
	} else if amt.Sign() > 0 {
		// Validate the stake leg up front so a ledger refusal cannot
		// strand an already-issued claim.
		balance, err := e.bank.BalanceOf(stored.StakeToken, participant)
		if err != nil {
			return err
		}
		if balance.Cmp(amt) < 0 {
			return token.ErrInsufficientBalance
		}
		allowance, err := e.bank.Allowance(stored.StakeToken, participant, e.moduleAddress)
		if err != nil {
			return err
		}
		if allowance.Cmp(amt) < 0 {
			return token.ErrInsufficientAllowance
		}
	}

	pool, err := e.updatePoolLocked(poolID)
	if err != nil {
		return err
	}

	pending := pendingFor(pos, pool.AccRewardPerShare)
	if pending.Sign() > 0 {
		refPrice, err := e.oracle.CurrentPrice()
		if err != nil {
			return err
		}
		if _, err := e.vault.Issue(participant, pending, refPrice); err != nil {
			return err
		}
	}

	if amt.Sign() > 0 {
		if withdrawal {
			pos.Amount.Sub(pos.Amount, amt)
			pool.TotalStaked.Sub(pool.TotalStaked, amt)
		} else {
			pos.Amount.Add(pos.Amount, amt)
			pool.TotalStaked.Add(pool.TotalStaked, amt)
		}
		if err := e.state.PoolPut(pool); err != nil {
			return err
		}
	}

	pos.RewardDebt = new(big.Int).Mul(pos.Amount, pool.AccRewardPerShare)
	pos.RewardDebt.Quo(pos.RewardDebt, precision)
	if err := e.state.PositionPut(pos); err != nil {
		return err
	}

	// External legs run last so a reentrant ledger call observes settled
	// bookkeeping.
	if amt.Sign() > 0 {
		if withdrawal {
			if err := e.bank.Transfer(stored.StakeToken, e.moduleAddress, participant, amt); err != nil {
				return err
			}
		} else {
			if err := e.bank.TransferFrom(stored.StakeToken, e.moduleAddress, participant, e.moduleAddress, amt); err != nil {
				return err
			}
		}
	}

	if withdrawal {
		e.emit(events.FarmWithdraw{PoolID: poolID, Participant: participant, Amount: amt})
	} else {
		e.emit(events.FarmDeposit{PoolID: poolID, Participant: participant, Amount: amt})
	}
	return nil
}
