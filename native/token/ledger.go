package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/core/events"
)

// engineState is the narrow persistence surface the ledger runs against.
// Balance and allowance reads return a zero value for untouched entries.
type engineState interface {
	TokenBalance(token, holder common.Address) (*big.Int, error)
	SetTokenBalance(token, holder common.Address, amount *big.Int) error
	TokenAllowance(token, owner, spender common.Address) (*big.Int, error)
	SetTokenAllowance(token, owner, spender common.Address, amount *big.Int) error
	TokenMinter(token, addr common.Address) (bool, error)
	SetTokenMinter(token, addr common.Address, allowed bool) error
}

// Ledger is a multi-asset fungible ledger: per-token balances, allowances and
// a minter allow-list. It models the external asset collaborator the farm and
// vault engines move value through. Minter administration is gated on a single
// authority address fixed at construction.
type Ledger struct {
	state     engineState
	emitter   events.Emitter
	authority common.Address
}

// NewLedger constructs a ledger whose minter set is administered by authority.
func NewLedger(authority common.Address) *Ledger {
	return &Ledger{
		emitter:   events.NoopEmitter{},
		authority: authority,
	}
}

// SetState wires the ledger to its persistence layer.
func (l *Ledger) SetState(state engineState) { l.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// BalanceOf returns the holder's balance for the given token.
func (l *Ledger) BalanceOf(token, holder common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	balance, err := l.state.TokenBalance(token, holder)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// Allowance returns the amount spender may move out of owner's balance.
func (l *Ledger) Allowance(token, owner, spender common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	allowance, err := l.state.TokenAllowance(token, owner, spender)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(allowance), nil
}

// Approve sets spender's allowance over owner's balance to amount.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.state.SetTokenAllowance(token, owner, spender, amt)
}

// Transfer moves amount of token from one holder to another. Zero-amount
// transfers are accepted and do nothing.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	if err := l.move(token, from, to, amt); err != nil {
		return err
	}
	l.emit(events.TokenTransfer{Token: token, From: from, To: to, Amount: amt})
	return nil
}

// TransferFrom moves amount of token out of from's balance on behalf of
// spender, consuming allowance.
func (l *Ledger) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	allowance, err := l.state.TokenAllowance(token, from, spender)
	if err != nil {
		return err
	}
	allowance = cloneBigInt(allowance)
	if allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(token, from, to, amt); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(allowance, amt)
	if err := l.state.SetTokenAllowance(token, from, spender, remaining); err != nil {
		return err
	}
	l.emit(events.TokenTransfer{Token: token, From: from, To: to, Amount: amt})
	return nil
}

// SetMinter toggles an address on the token's minter allow-list. Only the
// ledger authority may call it.
func (l *Ledger) SetMinter(caller, token, addr common.Address, allowed bool) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if caller != l.authority {
		return ErrUnauthorized
	}
	return l.state.SetTokenMinter(token, addr, allowed)
}

// IsMinter reports whether addr may mint the given token.
func (l *Ledger) IsMinter(token, addr common.Address) (bool, error) {
	if l == nil || l.state == nil {
		return false, ErrNilState
	}
	return l.state.TokenMinter(token, addr)
}

// Mint credits amount of token to the recipient. The minter must be on the
// token's allow-list.
func (l *Ledger) Mint(token, minter, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	ok, err := l.state.TokenMinter(token, minter)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMinter
	}
	if amt.Sign() == 0 {
		return nil
	}
	balance, err := l.state.TokenBalance(token, to)
	if err != nil {
		return err
	}
	balance = cloneBigInt(balance)
	if err := l.state.SetTokenBalance(token, to, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	l.emit(events.TokenMint{Token: token, Minter: minter, To: to, Amount: amt})
	return nil
}

func (l *Ledger) move(token, from, to common.Address, amt *big.Int) error {
	fromBal, err := l.state.TokenBalance(token, from)
	if err != nil {
		return err
	}
	fromBal = cloneBigInt(fromBal)
	if fromBal.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	// Self-transfers are a funded no-op; writing both legs from the same
	// pre-read would double the balance.
	if from == to {
		return nil
	}
	toBal, err := l.state.TokenBalance(token, to)
	if err != nil {
		return err
	}
	toBal = cloneBigInt(toBal)
	if err := l.state.SetTokenBalance(token, from, new(big.Int).Sub(fromBal, amt)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(token, to, new(big.Int).Add(toBal, amt))
}

func (l *Ledger) emit(event events.Event) {
	if l == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(event)
}
