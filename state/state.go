package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/native/farm"
	"optionfarm/native/optionvault"
	"optionfarm/storage"
)

// Manager persists all engine tables over a single key-value database. It
// satisfies the state interfaces of the farm engine, the option vault and the
// token ledger, so one Manager backs a whole deployment.
type Manager struct {
	db storage.Database
}

// NewManager wraps the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) putJSON(key []byte, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func (m *Manager) getJSON(key []byte, out any) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putUint(key []byte, value uint64) error {
	return m.db.Put(key, []byte(strconv.FormatUint(value, 10)))
}

func (m *Manager) getUint(key []byte) (uint64, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return value, nil
}

func (m *Manager) putBig(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	return m.db.Put(key, []byte(value.String()))
}

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("state: decode %s: bad integer %q", key, raw)
	}
	return value, nil
}

// --- farm engine state ---

func (m *Manager) PoolCount() (uint64, error) {
	return m.getUint(poolCountKey)
}

func (m *Manager) SetPoolCount(count uint64) error {
	return m.putUint(poolCountKey, count)
}

func (m *Manager) PoolGet(id uint64) (*farm.Pool, bool, error) {
	pool := new(farm.Pool)
	ok, err := m.getJSON(poolKey(id), pool)
	if err != nil || !ok {
		return nil, ok, err
	}
	return pool, true, nil
}

func (m *Manager) PoolPut(pool *farm.Pool) error {
	return m.putJSON(poolKey(pool.ID), pool)
}

func (m *Manager) PoolIDByToken(stakeToken common.Address) (uint64, bool, error) {
	raw, err := m.db.Get(poolTokenKey(stakeToken))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("state: decode pool index: %w", err)
	}
	return id, true, nil
}

func (m *Manager) IndexPoolToken(stakeToken common.Address, id uint64) error {
	return m.putUint(poolTokenKey(stakeToken), id)
}

func (m *Manager) TotalWeight() (uint64, error) {
	return m.getUint(totalWeightKey)
}

func (m *Manager) SetTotalWeight(weight uint64) error {
	return m.putUint(totalWeightKey, weight)
}

func (m *Manager) PositionGet(poolID uint64, owner common.Address) (*farm.Position, bool, error) {
	pos := new(farm.Position)
	ok, err := m.getJSON(positionKey(poolID, owner), pos)
	if err != nil || !ok {
		return nil, ok, err
	}
	return pos, true, nil
}

func (m *Manager) PositionPut(pos *farm.Position) error {
	return m.putJSON(positionKey(pos.PoolID, pos.Owner), pos)
}

// --- option vault state ---

func (m *Manager) ClaimGet(id uint64) (*optionvault.Claim, bool, error) {
	claim := new(optionvault.Claim)
	ok, err := m.getJSON(claimKey(id), claim)
	if err != nil || !ok {
		return nil, ok, err
	}
	return claim, true, nil
}

func (m *Manager) ClaimPut(claim *optionvault.Claim) error {
	return m.putJSON(claimKey(claim.ID), claim)
}

func (m *Manager) ClaimOwner(id uint64) (common.Address, bool, error) {
	raw, err := m.db.Get(claimOwnerKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	if len(raw) != common.AddressLength {
		return common.Address{}, false, fmt.Errorf("state: decode claim owner: %d bytes", len(raw))
	}
	return common.BytesToAddress(raw), true, nil
}

func (m *Manager) SetClaimOwner(id uint64, owner common.Address) error {
	return m.db.Put(claimOwnerKey(id), owner.Bytes())
}

func (m *Manager) RemoveClaimOwner(id uint64) error {
	return m.db.Delete(claimOwnerKey(id))
}

func (m *Manager) NextClaimID() (uint64, error) {
	return m.getUint(nextClaimKey)
}

func (m *Manager) SetNextClaimID(id uint64) error {
	return m.putUint(nextClaimKey, id)
}

// --- token ledger state ---

func (m *Manager) TokenBalance(token, holder common.Address) (*big.Int, error) {
	return m.getBig(balanceKey(token, holder))
}

func (m *Manager) SetTokenBalance(token, holder common.Address, amount *big.Int) error {
	return m.putBig(balanceKey(token, holder), amount)
}

func (m *Manager) TokenAllowance(token, owner, spender common.Address) (*big.Int, error) {
	return m.getBig(allowanceKey(token, owner, spender))
}

func (m *Manager) SetTokenAllowance(token, owner, spender common.Address, amount *big.Int) error {
	return m.putBig(allowanceKey(token, owner, spender), amount)
}

func (m *Manager) TokenMinter(token, addr common.Address) (bool, error) {
	ok, err := m.db.Has(minterKey(token, addr))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	raw, err := m.db.Get(minterKey(token, addr))
	if err != nil {
		return false, err
	}
	return len(raw) == 1 && raw[0] == 0x01, nil
}

func (m *Manager) SetTokenMinter(token, addr common.Address, allowed bool) error {
	if !allowed {
		return m.db.Delete(minterKey(token, addr))
	}
	return m.db.Put(minterKey(token, addr), []byte{0x01})
}
