package ports

import "errors"

// Domain failure taxonomy. Services return these wrapped with context;
// callers branch with errors.Is.
var (
	ErrInvalidTradeTerms          = errors.New("invalid trade terms")
	ErrInvalidTransition          = errors.New("invalid trade transition")
	ErrDuplicateExternalReference = errors.New("duplicate external reference")
	ErrInsufficientPayment        = errors.New("insufficient payment amount")
	ErrLedgerTimeout              = errors.New("ledger confirmation timeout")
	ErrLedgerRevert               = errors.New("ledger submission reverted")
	ErrIntegrityMismatch          = errors.New("document integrity mismatch")
	ErrAlreadyIssued              = errors.New("document key already issued")
	ErrAlreadySettled             = errors.New("funds already released on ledger")
	ErrUnauthorized               = errors.New("actor not authorized for operation")
	ErrVersionConflict            = errors.New("trade version conflict")
	ErrTradeNotFound              = errors.New("trade not found")
)
