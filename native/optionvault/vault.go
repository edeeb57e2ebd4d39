package optionvault

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/events"
)

// DiscountDenominator is the fixed basis for the settlement discount factor.
const DiscountDenominator = 10_000

// engineState persists claim records, the ownership index and the id counter.
// The ownership index is removed on exercise; the record itself stays behind
// marked exercised so repeat attempts remain distinguishable.
type engineState interface {
	ClaimGet(id uint64) (*Claim, bool, error)
	ClaimPut(*Claim) error
	ClaimOwner(id uint64) (common.Address, bool, error)
	SetClaimOwner(id uint64, owner common.Address) error
	RemoveClaimOwner(id uint64) error
	NextClaimID() (uint64, error)
	SetNextClaimID(id uint64) error
}

// ledger is the fungible-asset capability the vault moves value through.
type ledger interface {
	BalanceOf(token, holder common.Address) (*big.Int, error)
	Transfer(token, from, to common.Address, amount *big.Int) error
}

// Vault escrows reward tokens and turns settled staking rewards into vested
// call-option claims. It is the only component allowed to release custody.
type Vault struct {
	mu      sync.Mutex
	state   engineState
	ledger  ledger
	emitter events.Emitter
	nowFn   func() int64

	moduleAddress common.Address
	beneficiary   common.Address
	rewardToken   common.Address
	paymentToken  common.Address
	discountBps   uint64
	lockDuration  int64
}

// NewVault constructs a vault. moduleAddr is the custody account the accrual
// engine mints reward tokens into; beneficiary receives exercise payments.
// discountBps is applied against DiscountDenominator (9_500 means 95%);
// lockDuration is the vesting delay in seconds applied to every claim.
func NewVault(moduleAddr, beneficiary, rewardToken, paymentToken common.Address, discountBps uint64, lockDuration int64) *Vault {
	return &Vault{
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		moduleAddress: moduleAddr,
		beneficiary:   beneficiary,
		rewardToken:   rewardToken,
		paymentToken:  paymentToken,
		discountBps:   discountBps,
		lockDuration:  lockDuration,
	}
}

// SetState wires the vault to its persistence layer.
func (v *Vault) SetState(state engineState) { v.state = state }

// SetLedger wires the vault to the fungible-asset collaborator.
func (v *Vault) SetLedger(l ledger) { v.ledger = l }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (v *Vault) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		v.emitter = events.NoopEmitter{}
		return
	}
	v.emitter = emitter
}

// SetNowFunc overrides the vault clock, primarily for deterministic tests.
func (v *Vault) SetNowFunc(now func() int64) {
	if now == nil {
		v.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	v.nowFn = now
}

// CustodyAddress returns the account holding escrowed reward tokens.
func (v *Vault) CustodyAddress() common.Address { return v.moduleAddress }

func (v *Vault) now() int64 {
	if v == nil || v.nowFn == nil {
		return time.Now().Unix()
	}
	return v.nowFn()
}

func (v *Vault) emit(event events.Event) {
	if v == nil || v.emitter == nil {
		return
	}
	v.emitter.Emit(event)
}

func cloneBigInt(val *big.Int) *big.Int {
	if val == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(val)
}

// Issue mints a claim for amount of escrowed reward token at a settlement
// price discounted from referencePrice. A zero amount is a no-op and returns
// a nil claim. The underlying tokens must already sit in vault custody,
// funded by the accrual engine's emission mint.
func (v *Vault) Issue(owner common.Address, amount, referencePrice *big.Int) (*Claim, error) {
	if v == nil || v.state == nil {
		return nil, ErrNilState
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil, nil
	}
	ref := cloneBigInt(referencePrice)
	if ref.Sign() < 0 {
		return nil, ErrInvalidPrice
	}

	price := new(big.Int).Mul(ref, new(big.Int).SetUint64(v.discountBps))
	price.Quo(price, big.NewInt(DiscountDenominator))

	id, err := v.state.NextClaimID()
	if err != nil {
		return nil, err
	}
	claim := &Claim{
		ID:              id,
		Owner:           owner,
		Amount:          amt,
		SettlementPrice: price,
		VestAt:          v.now() + v.lockDuration,
		Exercised:       false,
	}
	if err := v.state.ClaimPut(claim); err != nil {
		return nil, err
	}
	if err := v.state.SetClaimOwner(id, owner); err != nil {
		return nil, err
	}
	if err := v.state.SetNextClaimID(id + 1); err != nil {
		return nil, err
	}
	v.emit(events.OptionIssued{
		ClaimID:         claim.ID,
		Owner:           claim.Owner,
		Amount:          claim.Amount,
		SettlementPrice: claim.SettlementPrice,
		VestAt:          claim.VestAt,
	})
	return claim.Clone(), nil
}

// Get returns the stored record for id, including exercised ones. The boolean
// reports whether the id was ever issued.
func (v *Vault) Get(id uint64) (*Claim, bool, error) {
	if v == nil || v.state == nil {
		return nil, false, ErrNilState
	}
	claim, ok, err := v.state.ClaimGet(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return claim.Clone(), true, nil
}

// OwnerOf resolves the current owner of an unexercised claim. Exercised
// records are destroyed from the ownership index and report ErrClaimNotFound.
func (v *Vault) OwnerOf(id uint64) (common.Address, error) {
	if v == nil || v.state == nil {
		return common.Address{}, ErrNilState
	}
	owner, ok, err := v.state.ClaimOwner(id)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, ErrClaimNotFound
	}
	return owner, nil
}

// Transfer reassigns an unexercised claim to a new owner. It is a pure
// ownership-index mutation; settlement terms are untouched.
func (v *Vault) Transfer(id uint64, caller, to common.Address) error {
	if v == nil || v.state == nil {
		return ErrNilState
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	owner, ok, err := v.state.ClaimOwner(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClaimNotFound
	}
	if caller != owner {
		return ErrNotOwner
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	claim, ok, err := v.state.ClaimGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClaimNotFound
	}
	claim = claim.Clone()
	claim.Owner = to
	if err := v.state.ClaimPut(claim); err != nil {
		return err
	}
	if err := v.state.SetClaimOwner(id, to); err != nil {
		return err
	}
	v.emit(events.OptionTransferred{ClaimID: id, From: owner, To: to})
	return nil
}

// Exercise settles a vested claim: the caller pays exactly the settlement
// price in payment token and receives the claim's reward token amount from
// custody. Bookkeeping is finalized before any ledger transfer so a reentrant
// call cannot observe an unexercised record.
func (v *Vault) Exercise(id uint64, caller common.Address, payment *big.Int) error {
	if v == nil || v.state == nil {
		return ErrNilState
	}
	if v.ledger == nil {
		return ErrNilLedger
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	claim, ok, err := v.state.ClaimGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClaimNotFound
	}
	if claim.Exercised {
		return ErrAlreadyExercised
	}
	if caller != claim.Owner {
		return ErrNotOwner
	}
	if v.now() < claim.VestAt {
		return ErrNotVested
	}
	pay := cloneBigInt(payment)
	if pay.Cmp(claim.SettlementPrice) != 0 {
		return ErrBadPayment
	}

	// Pre-validate both legs so a ledger refusal cannot leave the record
	// half-settled.
	custody, err := v.ledger.BalanceOf(v.rewardToken, v.moduleAddress)
	if err != nil {
		return err
	}
	if custody.Cmp(claim.Amount) < 0 {
		return ErrCustodyShortfall
	}
	callerFunds, err := v.ledger.BalanceOf(v.paymentToken, caller)
	if err != nil {
		return err
	}
	if callerFunds.Cmp(pay) < 0 {
		return ErrUnfundedPayment
	}

	updated := claim.Clone()
	updated.Exercised = true
	if err := v.state.ClaimPut(updated); err != nil {
		return err
	}
	if err := v.state.RemoveClaimOwner(id); err != nil {
		return err
	}

	if err := v.ledger.Transfer(v.rewardToken, v.moduleAddress, caller, updated.Amount); err != nil {
		return err
	}
	if err := v.ledger.Transfer(v.paymentToken, caller, v.beneficiary, pay); err != nil {
		return err
	}
	v.emit(events.OptionExercised{
		ClaimID: id,
		Owner:   caller,
		Amount:  updated.Amount,
		Payment: pay,
	})
	return nil
}
