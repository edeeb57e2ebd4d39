package rpc

import "encoding/json"

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type addPoolParams struct {
	Weight     uint64 `json:"weight"`
	StakeToken string `json:"stakeToken"`
	SyncAll    bool   `json:"syncAll"`
}

type setPoolWeightParams struct {
	PoolID  uint64 `json:"poolId"`
	Weight  uint64 `json:"weight"`
	SyncAll bool   `json:"syncAll"`
}

type stakeParams struct {
	PoolID      uint64 `json:"poolId"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

type pendingParams struct {
	PoolID      uint64 `json:"poolId"`
	Participant string `json:"participant"`
}

type isRegisteredParams struct {
	StakeToken string `json:"stakeToken"`
}

type poolParams struct {
	PoolID uint64 `json:"poolId"`
}

type claimParams struct {
	ClaimID uint64 `json:"claimId"`
}

type transferClaimParams struct {
	ClaimID uint64 `json:"claimId"`
	Caller  string `json:"caller"`
	To      string `json:"to"`
}

type exerciseParams struct {
	ClaimID uint64 `json:"claimId"`
	Caller  string `json:"caller"`
	Payment string `json:"payment"`
}

type poolResult struct {
	PoolID            uint64 `json:"poolId"`
	StakeToken        string `json:"stakeToken"`
	Weight            uint64 `json:"weight"`
	TotalStaked       string `json:"totalStaked"`
	AccRewardPerShare string `json:"accRewardPerShare"`
	LastRewardTick    uint64 `json:"lastRewardTick"`
}

type claimResult struct {
	ClaimID         uint64 `json:"claimId"`
	Owner           string `json:"owner"`
	Amount          string `json:"amount"`
	SettlementPrice string `json:"settlementPrice"`
	VestAt          int64  `json:"vestAt"`
	Exercised       bool   `json:"exercised"`
}
