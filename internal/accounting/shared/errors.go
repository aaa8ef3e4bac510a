package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalanced indicates total debit != total credit.
	ErrUnbalanced = errors.New("accounting: entry is not balanced")
	// ErrNoLines indicates an entry without movements.
	ErrNoLines = errors.New("accounting: entry requires at least one line")
	// ErrLineAmounts indicates a line that is neither a debit nor a credit movement.
	ErrLineAmounts = errors.New("accounting: line must carry exactly one of debit or credit")
	// ErrAccountNoPostings indicates the account does not accept movements.
	ErrAccountNoPostings = errors.New("accounting: account does not accept postings")
	// ErrNotDraft indicates an edit on a confirmed or void entry.
	ErrNotDraft = errors.New("accounting: entry is no longer a draft")
	// ErrNotConfirmed indicates void/reversal of an entry that is not confirmed.
	ErrNotConfirmed = errors.New("accounting: entry is not confirmed")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("accounting: journal entry not found")
	// ErrAccountNotFound indicates a missing account in the company scope.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrDuplicateCode indicates the (company, code) pair already exists.
	ErrDuplicateCode = errors.New("accounting: account code already exists for company")
	// ErrHierarchy indicates a posting-enabled parent with posting-enabled children.
	ErrHierarchy = errors.New("accounting: postings belong at exactly one hierarchy level")
	// ErrWrongPaymentKind indicates a payment passed to the wrong posting method.
	ErrWrongPaymentKind = errors.New("accounting: payment kind does not match posting operation")
	// ErrChartAlreadySeeded indicates the basic chart was seeded twice.
	ErrChartAlreadySeeded = errors.New("accounting: basic chart already seeded for company")
	// ErrAccountReferenced indicates a delete attempt on an account with lines.
	ErrAccountReferenced = errors.New("accounting: account is referenced by journal lines")
)

// MissingAccountError reports a required well-known code absent from the
// company chart. It wraps ErrAccountNotFound so callers can match either.
type MissingAccountError struct {
	CompanyID int64
	Code      string
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("accounting: required account %s not found in company %d chart; create it before posting", e.Code, e.CompanyID)
}

func (e *MissingAccountError) Unwrap() error { return ErrAccountNotFound }

// UnbalancedError carries both totals for user-facing messages.
type UnbalancedError struct {
	TotalDebit  string
	TotalCredit string
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("accounting: cannot confirm unbalanced entry: debit %s, credit %s", e.TotalDebit, e.TotalCredit)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }
