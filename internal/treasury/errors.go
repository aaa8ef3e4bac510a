package treasury

import "errors"

var (
	ErrPaymentNotFound     = errors.New("treasury: payment not found")
	ErrBankAccountNotFound = errors.New("treasury: bank account not found")
	ErrNotPending          = errors.New("treasury: payment is not pending")
	ErrNotConfirmed        = errors.New("treasury: payment is not confirmed")
	ErrNotPosted           = errors.New("treasury: payment has no journal entry")
	ErrDuplicate           = errors.New("treasury: duplicate number or code")
	ErrWrongThirdParty     = errors.New("treasury: third party kind does not match payment kind")
	ErrInsufficientFunds   = errors.New("treasury: insufficient bank account funds")
	ErrInvalidValue        = errors.New("treasury: payment value must be positive")
)
