package farm

import "errors"

var (
	ErrNilState          = errors.New("farm: state not configured")
	ErrNilBank           = errors.New("farm: bank not configured")
	ErrNilVault          = errors.New("farm: vault not configured")
	ErrNilOracle         = errors.New("farm: oracle not configured")
	ErrDuplicatePool     = errors.New("farm: stake token already registered")
	ErrPoolNotFound      = errors.New("farm: pool not found")
	ErrInvalidAmount     = errors.New("farm: amount must be non-negative")
	ErrInsufficientStake = errors.New("farm: withdraw exceeds staked amount")
)
