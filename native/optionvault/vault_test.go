package optionvault

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type mockState struct {
	claims map[uint64]*Claim
	owners map[uint64]common.Address
	nextID uint64
}

func newMockState() *mockState {
	return &mockState{
		claims: make(map[uint64]*Claim),
		owners: make(map[uint64]common.Address),
	}
}

func (m *mockState) ClaimGet(id uint64) (*Claim, bool, error) {
	claim, ok := m.claims[id]
	if !ok {
		return nil, false, nil
	}
	return claim.Clone(), true, nil
}

func (m *mockState) ClaimPut(claim *Claim) error {
	m.claims[claim.ID] = claim.Clone()
	return nil
}

func (m *mockState) ClaimOwner(id uint64) (common.Address, bool, error) {
	owner, ok := m.owners[id]
	return owner, ok, nil
}

func (m *mockState) SetClaimOwner(id uint64, owner common.Address) error {
	m.owners[id] = owner
	return nil
}

func (m *mockState) RemoveClaimOwner(id uint64) error {
	delete(m.owners, id)
	return nil
}

func (m *mockState) NextClaimID() (uint64, error) { return m.nextID, nil }

func (m *mockState) SetNextClaimID(id uint64) error {
	m.nextID = id
	return nil
}

type mockLedger struct {
	balances map[string]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]*big.Int)}
}

func (m *mockLedger) key(token, holder common.Address) string {
	return token.Hex() + "/" + holder.Hex()
}

func (m *mockLedger) credit(token, holder common.Address, amount int64) {
	m.balances[m.key(token, holder)] = big.NewInt(amount)
}

func (m *mockLedger) BalanceOf(token, holder common.Address) (*big.Int, error) {
	if bal, ok := m.balances[m.key(token, holder)]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (m *mockLedger) Transfer(token, from, to common.Address, amount *big.Int) error {
	fromBal, _ := m.BalanceOf(token, from)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("mock ledger: insufficient balance")
	}
	toBal, _ := m.BalanceOf(token, to)
	m.balances[m.key(token, from)] = fromBal.Sub(fromBal, amount)
	m.balances[m.key(token, to)] = toBal.Add(toBal, amount)
	return nil
}

func addr(fill byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = fill
	}
	return a
}

const lockDuration = int64(7 * 24 * 60 * 60)

func newTestVault(state *mockState, ledger *mockLedger, now *int64) *Vault {
	vault := NewVault(addr(0xEE), addr(0xBF), addr(0xA1), addr(0xA2), 9_500, lockDuration)
	vault.SetState(state)
	vault.SetLedger(ledger)
	vault.SetNowFunc(func() int64 { return *now })
	return vault
}

func TestIssueAppliesDiscountAndVesting(t *testing.T) {
	state := newMockState()
	now := int64(1_000)
	vault := newTestVault(state, newMockLedger(), &now)
	alice := addr(0x0A)

	oraclePrice := big.NewInt(1_000_000)
	claim, err := vault.Issue(alice, big.NewInt(300), oraclePrice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claim.ID != 0 {
		t.Fatalf("expected first claim id 0, got %d", claim.ID)
	}
	wantPrice := big.NewInt(950_000) // 1_000_000 * 9500 / 10000
	if claim.SettlementPrice.Cmp(wantPrice) != 0 {
		t.Fatalf("expected settlement price %s, got %s", wantPrice, claim.SettlementPrice)
	}
	if claim.VestAt != now+lockDuration {
		t.Fatalf("expected vestAt %d, got %d", now+lockDuration, claim.VestAt)
	}
	if claim.Exercised {
		t.Fatal("fresh claim must not be exercised")
	}
	if state.nextID != 1 {
		t.Fatalf("expected next id 1, got %d", state.nextID)
	}

	owner, err := vault.OwnerOf(0)
	if err != nil {
		t.Fatalf("ownerOf: %v", err)
	}
	if owner != alice {
		t.Fatalf("expected owner %s, got %s", alice.Hex(), owner.Hex())
	}
}

func TestIssueZeroAmountIsNoop(t *testing.T) {
	state := newMockState()
	now := int64(1_000)
	vault := newTestVault(state, newMockLedger(), &now)

	claim, err := vault.Issue(addr(0x0A), big.NewInt(0), big.NewInt(500))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claim != nil {
		t.Fatal("zero-amount issue must not mint a claim")
	}
	if state.nextID != 0 {
		t.Fatalf("id counter moved on no-op issue: %d", state.nextID)
	}
}

func TestExerciseGuardLadder(t *testing.T) {
	state := newMockState()
	ledger := newMockLedger()
	now := int64(1_000)
	vault := newTestVault(state, ledger, &now)

	alice := addr(0x0A)
	bob := addr(0x0B)
	rewardToken := addr(0xA1)
	paymentToken := addr(0xA2)

	claim, err := vault.Issue(alice, big.NewInt(300), big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ledger.credit(rewardToken, vault.CustodyAddress(), 300)
	ledger.credit(paymentToken, alice, 2_000_000)
	ledger.credit(paymentToken, bob, 2_000_000)

	price := new(big.Int).Set(claim.SettlementPrice)

	if err := vault.Exercise(99, alice, price); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := vault.Exercise(0, alice, price); !errors.Is(err, ErrNotVested) {
		t.Fatalf("expected ErrNotVested, got %v", err)
	}

	now += lockDuration

	if err := vault.Exercise(0, alice, big.NewInt(0)); !errors.Is(err, ErrBadPayment) {
		t.Fatalf("expected ErrBadPayment, got %v", err)
	}
	if err := vault.Exercise(0, bob, price); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if err := vault.Exercise(0, alice, price); err != nil {
		t.Fatalf("exercise: %v", err)
	}

	aliceReward, _ := ledger.BalanceOf(rewardToken, alice)
	if aliceReward.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected alice reward 300, got %s", aliceReward)
	}
	beneficiary, _ := ledger.BalanceOf(paymentToken, addr(0xBF))
	if beneficiary.Cmp(price) != 0 {
		t.Fatalf("expected beneficiary payment %s, got %s", price, beneficiary)
	}

	if _, err := vault.OwnerOf(0); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound after exercise, got %v", err)
	}
	if err := vault.Exercise(0, alice, price); !errors.Is(err, ErrAlreadyExercised) {
		t.Fatalf("expected ErrAlreadyExercised, got %v", err)
	}
}

func TestExercisePaymentIsFlatNotPerUnit(t *testing.T) {
	state := newMockState()
	ledger := newMockLedger()
	now := int64(0)
	vault := newTestVault(state, ledger, &now)
	alice := addr(0x0A)

	claim, err := vault.Issue(alice, big.NewInt(500), big.NewInt(100))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ledger.credit(addr(0xA1), vault.CustodyAddress(), 500)
	ledger.credit(addr(0xA2), alice, 1_000_000)

	now = claim.VestAt

	// The required payment is the flat settlement price, deliberately not
	// scaled by the claim amount.
	scaled := new(big.Int).Mul(claim.SettlementPrice, claim.Amount)
	if err := vault.Exercise(0, alice, scaled); !errors.Is(err, ErrBadPayment) {
		t.Fatalf("expected ErrBadPayment for scaled payment, got %v", err)
	}
	if err := vault.Exercise(0, alice, claim.SettlementPrice); err != nil {
		t.Fatalf("exercise: %v", err)
	}
}

func TestTransferMovesOwnershipOnly(t *testing.T) {
	state := newMockState()
	ledger := newMockLedger()
	now := int64(0)
	vault := newTestVault(state, ledger, &now)
	alice := addr(0x0A)
	bob := addr(0x0B)

	claim, err := vault.Issue(alice, big.NewInt(100), big.NewInt(1_000))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := vault.Transfer(0, bob, bob); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := vault.Transfer(0, alice, common.Address{}); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if err := vault.Transfer(0, alice, bob); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	owner, err := vault.OwnerOf(0)
	if err != nil {
		t.Fatalf("ownerOf: %v", err)
	}
	if owner != bob {
		t.Fatalf("expected bob as owner, got %s", owner.Hex())
	}

	stored, ok, err := vault.Get(0)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if stored.SettlementPrice.Cmp(claim.SettlementPrice) != 0 || stored.VestAt != claim.VestAt {
		t.Fatal("transfer must not change settlement terms")
	}

	ledger.credit(addr(0xA1), vault.CustodyAddress(), 100)
	ledger.credit(addr(0xA2), bob, 1_000_000)
	now = claim.VestAt
	if err := vault.Exercise(0, bob, claim.SettlementPrice); err != nil {
		t.Fatalf("exercise after transfer: %v", err)
	}
	if err := vault.Transfer(0, bob, alice); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound after exercise, got %v", err)
	}
}
