package journals

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreateDraftInput groups fields required to open a manual draft entry.
type CreateDraftInput struct {
	CompanyID int64     `json:"company_id"`
	Date      time.Time `json:"date"`
	Concept   string    `json:"concept"`
	Notes     string    `json:"notes"`
	CreatedBy int64     `json:"created_by"`
}

// Validate ensures the draft input meets minimum criteria.
func (in CreateDraftInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("journals: company required")
	}
	if in.Date.IsZero() {
		return errors.New("journals: entry date required")
	}
	if in.Concept == "" {
		return errors.New("journals: concept required")
	}
	if in.CreatedBy == 0 {
		return errors.New("journals: creator required")
	}
	return nil
}

// AddLineInput describes a movement to attach to a draft entry.
type AddLineInput struct {
	AccountID    int64           `json:"account_id"`
	Concept      string          `json:"concept"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	ThirdPartyID *int64          `json:"third_party_id"`
}

// Validate checks line identity; amount rules live on the model.
func (in AddLineInput) Validate() error {
	if in.AccountID == 0 {
		return errors.New("journals: line account required")
	}
	return nil
}
