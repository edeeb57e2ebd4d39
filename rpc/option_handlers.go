package rpc

import (
	"encoding/json"

	"optionfarm/native/optionvault"
)

func claimToResult(claim *optionvault.Claim) claimResult {
	return claimResult{
		ClaimID:         claim.ID,
		Owner:           claim.Owner.Hex(),
		Amount:          claim.Amount.String(),
		SettlementPrice: claim.SettlementPrice.String(),
		VestAt:          claim.VestAt,
		Exercised:       claim.Exercised,
	}
}

func (s *Server) optionGet(raw json.RawMessage) (any, *rpcError) {
	var params claimParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	claim, ok, err := s.vault.Get(params.ClaimID)
	if err != nil {
		return nil, domainError(err)
	}
	if !ok {
		return nil, domainError(optionvault.ErrClaimNotFound)
	}
	return claimToResult(claim), nil
}

func (s *Server) optionOwnerOf(raw json.RawMessage) (any, *rpcError) {
	var params claimParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := s.vault.OwnerOf(params.ClaimID)
	if err != nil {
		return nil, domainError(err)
	}
	return owner.Hex(), nil
}

func (s *Server) optionTransfer(raw json.RawMessage) (any, *rpcError) {
	var params transferClaimParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddressParam("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddressParam("to", params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.vault.Transfer(params.ClaimID, caller, to); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) optionExercise(raw json.RawMessage) (any, *rpcError) {
	var params exerciseParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddressParam("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseAmountParam("payment", params.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.vault.Exercise(params.ClaimID, caller, payment); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}
