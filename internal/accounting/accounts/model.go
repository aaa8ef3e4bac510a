package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// NaturalSide is the side on which an account's normal balance grows.
type NaturalSide string

const (
	SideDebit  NaturalSide = "D"
	SideCredit NaturalSide = "C"
)

// Class enumerates chart-of-accounts categories (Colombian PUC groups).
type Class string

const (
	ClassAsset     Class = "ASSET"
	ClassLiability Class = "LIABILITY"
	ClassEquity    Class = "EQUITY"
	ClassIncome    Class = "INCOME"
	ClassExpense   Class = "EXPENSE"
	ClassCost      Class = "COST"
)

// Well-known posting codes resolved by the posting service.
const (
	CodeCash        = "1105"
	CodeBank        = "1110"
	CodeReceivables = "1305"
	CodeTaxPayable  = "2408"
	CodeSalesIncome = "4135"
	CodeExpenses    = "5105"
)

// Account models a chart of accounts node. Codes encode hierarchy by
// prefix ("1" > "11" > "1105"); only leaf accounts accept postings.
type Account struct {
	ID              int64
	CompanyID       int64
	Code            string
	Name            string
	Description     string
	Side            NaturalSide
	Class           Class
	Level           int
	ParentID        *int64
	AcceptsPostings bool
	OpeningBalance  decimal.Decimal
	DebitTotal      decimal.Decimal
	CreditTotal     decimal.Decimal
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CurrentBalance is the signed running balance by natural side.
func (a Account) CurrentBalance() decimal.Decimal {
	if a.Side == SideDebit {
		return a.OpeningBalance.Add(a.DebitTotal).Sub(a.CreditTotal)
	}
	return a.OpeningBalance.Add(a.CreditTotal).Sub(a.DebitTotal)
}

// DebtorBalance is the positive projection of the signed balance.
func (a Account) DebtorBalance() decimal.Decimal {
	if bal := a.CurrentBalance(); bal.IsPositive() {
		return bal
	}
	return decimal.Zero
}

// CreditorBalance is the zero-floored magnitude of a negative balance.
func (a Account) CreditorBalance() decimal.Decimal {
	if bal := a.CurrentBalance(); bal.IsNegative() {
		return bal.Abs()
	}
	return decimal.Zero
}
