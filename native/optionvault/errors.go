package optionvault

import "errors"

var (
	ErrNilState         = errors.New("optionvault: state not configured")
	ErrNilLedger        = errors.New("optionvault: ledger not configured")
	ErrInvalidAmount    = errors.New("optionvault: amount must be non-negative")
	ErrInvalidPrice     = errors.New("optionvault: reference price must be non-negative")
	ErrClaimNotFound    = errors.New("optionvault: claim not found")
	ErrNotOwner         = errors.New("optionvault: caller is not the claim owner")
	ErrAlreadyExercised = errors.New("optionvault: claim already exercised")
	ErrNotVested        = errors.New("optionvault: claim not vested yet")
	ErrBadPayment       = errors.New("optionvault: payment must equal the settlement price")
	ErrInvalidRecipient = errors.New("optionvault: invalid transfer recipient")
	ErrUnfundedPayment  = errors.New("optionvault: caller cannot fund the settlement payment")
	ErrCustodyShortfall = errors.New("optionvault: custody balance below claim amount")
)
