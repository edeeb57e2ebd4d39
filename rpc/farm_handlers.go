package rpc

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/native/farm"
)

func poolToResult(pool *farm.Pool) poolResult {
	return poolResult{
		PoolID:            pool.ID,
		StakeToken:        pool.StakeToken.Hex(),
		Weight:            pool.Weight,
		TotalStaked:       pool.TotalStaked.String(),
		AccRewardPerShare: pool.AccRewardPerShare.String(),
		LastRewardTick:    pool.LastRewardTick,
	}
}

func decodeParams(raw json.RawMessage, dst any) *rpcError {
	if len(raw) == 0 {
		return &rpcError{Code: codeInvalidParams, Message: "params object required"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: "malformed params: " + err.Error()}
	}
	return nil
}

func parseAddressParam(name, raw string) (common.Address, *rpcError) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, &rpcError{Code: codeInvalidParams, Message: name + " must be a hex address"}
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmountParam(name, raw string) (*big.Int, *rpcError) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() < 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: name + " must be a non-negative decimal string"}
	}
	return amount, nil
}

func (s *Server) farmAddPool(raw json.RawMessage) (any, *rpcError) {
	var params addPoolParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	stakeToken, rpcErr := parseAddressParam("stakeToken", params.StakeToken)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pool, err := s.engine.AddPool(params.Weight, stakeToken, params.SyncAll)
	if err != nil {
		return nil, domainError(err)
	}
	if count, err := s.engine.PoolCount(); err == nil {
		s.metrics.SetPools(count)
	}
	return poolToResult(pool), nil
}

func (s *Server) farmSetPoolWeight(raw json.RawMessage) (any, *rpcError) {
	var params setPoolWeightParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetPoolWeight(params.PoolID, params.Weight, params.SyncAll); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) farmDeposit(raw json.RawMessage) (any, *rpcError) {
	poolID, participant, amount, rpcErr := s.stakeArgs(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.Deposit(poolID, participant, amount); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) farmWithdraw(raw json.RawMessage) (any, *rpcError) {
	poolID, participant, amount, rpcErr := s.stakeArgs(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.Withdraw(poolID, participant, amount); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

// stakeArgs parses the shared deposit/withdraw parameters. The participant is
// caller-asserted; see the Server trust model.
func (s *Server) stakeArgs(raw json.RawMessage) (uint64, common.Address, *big.Int, *rpcError) {
	var params stakeParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return 0, common.Address{}, nil, rpcErr
	}
	participant, rpcErr := parseAddressParam("participant", params.Participant)
	if rpcErr != nil {
		return 0, common.Address{}, nil, rpcErr
	}
	amount, rpcErr := parseAmountParam("amount", params.Amount)
	if rpcErr != nil {
		return 0, common.Address{}, nil, rpcErr
	}
	return params.PoolID, participant, amount, nil
}

func (s *Server) farmPendingReward(raw json.RawMessage) (any, *rpcError) {
	var params pendingParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	participant, rpcErr := parseAddressParam("participant", params.Participant)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pending, err := s.engine.PendingReward(params.PoolID, participant)
	if err != nil {
		return nil, domainError(err)
	}
	return pending.String(), nil
}

func (s *Server) farmIsRegistered(raw json.RawMessage) (any, *rpcError) {
	var params isRegisteredParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	stakeToken, rpcErr := parseAddressParam("stakeToken", params.StakeToken)
	if rpcErr != nil {
		return nil, rpcErr
	}
	registered, err := s.engine.IsRegistered(stakeToken)
	if err != nil {
		return nil, domainError(err)
	}
	return registered, nil
}

func (s *Server) farmGetPool(raw json.RawMessage) (any, *rpcError) {
	var params poolParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	pool, err := s.engine.GetPool(params.PoolID)
	if err != nil {
		return nil, domainError(err)
	}
	return poolToResult(pool), nil
}
