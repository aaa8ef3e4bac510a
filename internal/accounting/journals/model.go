package journals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/shared"
)

// EntryKind distinguishes hand-written entries from service-generated ones.
type EntryKind string

const (
	KindManual    EntryKind = "manual"
	KindAutomatic EntryKind = "automatic"
)

// EntryStatus enumerates the entry lifecycle: draft -> confirmed -> void.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "draft"
	StatusConfirmed EntryStatus = "confirmed"
	StatusVoid      EntryStatus = "void"
)

// Entry is a journal entry (asiento): a dated, balanced set of lines.
type Entry struct {
	ID          int64
	CompanyID   int64
	Number      string
	Date        time.Time
	Kind        EntryKind
	Concept     string
	Notes       string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Status      EntryStatus
	CreatedBy   int64
	ConfirmedBy *int64
	ConfirmedAt *time.Time
	SourceRef   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// Line is a single debit or credit movement (partida) against one account.
type Line struct {
	ID           int64
	EntryID      int64
	AccountID    int64
	Concept      string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Position     int
	ThirdPartyID *int64
}

// IsDebit reports whether the line moves the debit side.
func (l Line) IsDebit() bool { return l.Debit.IsPositive() }

// Amount is the value of the movement regardless of side.
func (l Line) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// ValidateAmounts enforces that exactly one side is strictly positive.
func (l Line) ValidateAmounts() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.ErrLineAmounts
	}
	debit := l.Debit.IsPositive()
	credit := l.Credit.IsPositive()
	if debit == credit {
		return shared.ErrLineAmounts
	}
	return nil
}

// RecomputeTotals refreshes the entry totals from its lines.
func (e *Entry) RecomputeTotals() {
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	e.TotalDebit = debit
	e.TotalCredit = credit
}

// IsBalanced reports whether debits equal credits at two decimal places.
func (e *Entry) IsBalanced() bool {
	return e.TotalDebit.Round(2).Equal(e.TotalCredit.Round(2))
}

// CanEdit reports whether lines may still be attached or changed.
func (e *Entry) CanEdit() bool { return e.Status == StatusDraft }

// AppendLine validates and attaches a line to a draft entry, recomputing
// the totals as a side effect.
func (e *Entry) AppendLine(account accounts.Account, concept string, debit, credit decimal.Decimal, thirdPartyID *int64) error {
	if !e.CanEdit() {
		return shared.ErrNotDraft
	}
	if !account.AcceptsPostings {
		return shared.ErrAccountNoPostings
	}
	line := Line{
		EntryID:      e.ID,
		AccountID:    account.ID,
		Concept:      concept,
		Debit:        debit,
		Credit:       credit,
		Position:     len(e.Lines) + 1,
		ThirdPartyID: thirdPartyID,
	}
	if err := line.ValidateAmounts(); err != nil {
		return err
	}
	e.Lines = append(e.Lines, line)
	e.RecomputeTotals()
	return nil
}

// Confirm transitions a balanced, non-empty draft into confirmed state.
func (e *Entry) Confirm(userID int64, now time.Time) error {
	if e.Status != StatusDraft {
		return shared.ErrNotDraft
	}
	if len(e.Lines) == 0 {
		return shared.ErrNoLines
	}
	if !e.IsBalanced() {
		return &shared.UnbalancedError{
			TotalDebit:  e.TotalDebit.StringFixed(2),
			TotalCredit: e.TotalCredit.StringFixed(2),
		}
	}
	e.Status = StatusConfirmed
	e.ConfirmedBy = &userID
	e.ConfirmedAt = &now
	return nil
}

// Void marks a confirmed entry void. Lines are kept for the audit trail.
func (e *Entry) Void() error {
	if e.Status != StatusConfirmed {
		return shared.ErrNotConfirmed
	}
	e.Status = StatusVoid
	return nil
}
