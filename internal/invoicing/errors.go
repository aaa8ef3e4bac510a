package invoicing

import "errors"

var (
	ErrNotFound     = errors.New("invoicing: invoice not found")
	ErrNotDraft     = errors.New("invoicing: invoice is not a draft")
	ErrNotConfirmed = errors.New("invoicing: invoice is not confirmed")
	ErrNoLines      = errors.New("invoicing: invoice has no lines")
	ErrNotACustomer = errors.New("invoicing: third party is not a customer")
	ErrDuplicate    = errors.New("invoicing: duplicate invoice number")
	ErrNotPosted    = errors.New("invoicing: invoice has no journal entry")
	ErrLineAmounts  = errors.New("invoicing: quantity and unit price must be positive")
)
