package farm

import (
	"math/big"
	"testing"
)

func TestUpdateIdempotentAtSameTick(t *testing.T) {
	h := newHarness(t, 100)
	alice := addr(0x0A)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}
	h.fund(t, alice, 100)
	if err := h.engine.Deposit(0, alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	h.engine.SetBlockHeight(5)
	if err := h.engine.UpdatePool(0); err != nil {
		t.Fatalf("update: %v", err)
	}
	pool, err := h.engine.GetPool(0)
	if err != nil {
		t.Fatalf("getPool: %v", err)
	}
	acc := new(big.Int).Set(pool.AccRewardPerShare)

	for i := 0; i < 3; i++ {
		if err := h.engine.UpdatePool(0); err != nil {
			t.Fatalf("repeat update: %v", err)
		}
	}
	pool, err = h.engine.GetPool(0)
	if err != nil {
		t.Fatalf("getPool: %v", err)
	}
	if pool.AccRewardPerShare.Cmp(acc) != 0 {
		t.Fatalf("accumulator moved at same tick: %s -> %s", acc, pool.AccRewardPerShare)
	}

	minted := h.bank.minted[rewardTkn]
	if minted.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected minted 500, got %s", minted)
	}

	pending, err := h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected pending 500 after repeated updates, got %s", pending)
	}
}

func TestAccrualMonotoneAcrossTicks(t *testing.T) {
	h := newHarness(t, 100)
	alice := addr(0x0A)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}
	h.fund(t, alice, 100)
	if err := h.engine.Deposit(0, alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	prev := big.NewInt(0)
	for tick := uint64(1); tick <= 10; tick++ {
		h.engine.SetBlockHeight(tick)
		if tick%3 == 0 {
			if err := h.engine.UpdatePool(0); err != nil {
				t.Fatalf("update: %v", err)
			}
		}
		pending, err := h.engine.PendingReward(0, alice)
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		if pending.Cmp(prev) <= 0 {
			t.Fatalf("pending not strictly increasing at tick %d: %s -> %s", tick, prev, pending)
		}
		prev = pending
	}
}

func TestEmptyPoolForfeitsEmission(t *testing.T) {
	h := newHarness(t, 100)
	alice := addr(0x0A)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}

	// Ticks pass with nobody staked; the tick must advance without credit.
	h.engine.SetBlockHeight(10)
	if err := h.engine.UpdatePool(0); err != nil {
		t.Fatalf("update: %v", err)
	}
	pool, err := h.engine.GetPool(0)
	if err != nil {
		t.Fatalf("getPool: %v", err)
	}
	if pool.LastRewardTick != 10 {
		t.Fatalf("expected lastRewardTick 10, got %d", pool.LastRewardTick)
	}
	if pool.AccRewardPerShare.Sign() != 0 {
		t.Fatal("empty pool accrued per-share reward")
	}
	if minted, ok := h.bank.minted[rewardTkn]; ok && minted.Sign() != 0 {
		t.Fatalf("emission minted for empty pool: %s", minted)
	}

	// A staker arriving later must not pick up the forfeited span.
	h.fund(t, alice, 100)
	if err := h.engine.Deposit(0, alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	pending, err := h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Sign() != 0 {
		t.Fatalf("late staker credited retroactively: %s", pending)
	}

	h.engine.SetBlockHeight(11)
	pending, err = h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100 for one staked tick, got %s", pending)
	}
}

func TestEmissionSplitsByWeight(t *testing.T) {
	h := newHarness(t, 400)
	alice := addr(0x0A)
	bob := addr(0x0B)
	otherStake := addr(0xB2)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}
	if _, err := h.engine.AddPool(300, otherStake, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}

	h.fund(t, alice, 50)
	h.bank.credit(otherStake, bob, 50)
	h.bank.approve(otherStake, bob, moduleAddr, 50)

	if err := h.engine.Deposit(0, alice, big.NewInt(50)); err != nil {
		t.Fatalf("deposit alice: %v", err)
	}
	if err := h.engine.Deposit(1, bob, big.NewInt(50)); err != nil {
		t.Fatalf("deposit bob: %v", err)
	}

	h.engine.SetBlockHeight(1)

	alicePending, err := h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending alice: %v", err)
	}
	bobPending, err := h.engine.PendingReward(1, bob)
	if err != nil {
		t.Fatalf("pending bob: %v", err)
	}
	if alicePending.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected alice quarter share 100, got %s", alicePending)
	}
	if bobPending.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected bob three-quarter share 300, got %s", bobPending)
	}
}

func TestAddPoolSyncAllFreezesHistory(t *testing.T) {
	h := newHarness(t, 100)
	alice := addr(0x0A)
	otherStake := addr(0xB2)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}
	h.fund(t, alice, 100)
	if err := h.engine.Deposit(0, alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Four ticks at full weight, then a second pool halves pool 0's share.
	h.engine.SetBlockHeight(4)
	if _, err := h.engine.AddPool(100, otherStake, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}

	pending, err := h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("history altered by weight change: %s", pending)
	}

	h.engine.SetBlockHeight(6)
	pending, err = h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	// 400 at full weight plus 2 ticks at half weight.
	if pending.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected 500, got %s", pending)
	}
}

func TestSettlementConservation(t *testing.T) {
	h := newHarness(t, 1_000)
	alice := addr(0x0A)
	bob := addr(0x0B)

	if _, err := h.engine.AddPool(100, stakeTkn, true); err != nil {
		t.Fatalf("addPool: %v", err)
	}
	h.fund(t, alice, 1_000)
	h.fund(t, bob, 1_000)

	if err := h.engine.Deposit(0, alice, big.NewInt(700)); err != nil {
		t.Fatalf("deposit alice: %v", err)
	}
	h.engine.SetBlockHeight(3)
	if err := h.engine.Deposit(0, bob, big.NewInt(300)); err != nil {
		t.Fatalf("deposit bob: %v", err)
	}
	h.engine.SetBlockHeight(7)
	if err := h.engine.Withdraw(0, alice, big.NewInt(200)); err != nil {
		t.Fatalf("withdraw alice: %v", err)
	}
	h.engine.SetBlockHeight(11)
	if err := h.engine.UpdatePool(0); err != nil {
		t.Fatalf("update: %v", err)
	}

	alicePending, err := h.engine.PendingReward(0, alice)
	if err != nil {
		t.Fatalf("pending alice: %v", err)
	}
	bobPending, err := h.engine.PendingReward(0, bob)
	if err != nil {
		t.Fatalf("pending bob: %v", err)
	}

	outstanding := new(big.Int).Add(alicePending, bobPending)
	outstanding.Add(outstanding, h.vault.issuedTotal())

	minted := h.bank.minted[rewardTkn]
	dust := new(big.Int).Sub(minted, outstanding)
	if dust.Sign() < 0 {
		t.Fatalf("over-credit: outstanding %s exceeds minted %s", outstanding, minted)
	}
	// Fixed-point truncation may strand a few units in the accumulator but
	// never more than a unit per settlement boundary.
	if dust.Cmp(big.NewInt(4)) > 0 {
		t.Fatalf("rounding dust too large: %s of %s minted", dust, minted)
	}
}
