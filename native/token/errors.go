package token

import "errors"

var (
	ErrNilState              = errors.New("token: state not configured")
	ErrInvalidAmount         = errors.New("token: amount must be non-negative")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrNotMinter             = errors.New("token: caller is not an authorized minter")
	ErrUnauthorized          = errors.New("token: unauthorized")
)
