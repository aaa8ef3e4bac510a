package accounts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CreateInput groups the fields required to create an account.
type CreateInput struct {
	CompanyID       int64           `json:"company_id" validate:"required"`
	Code            string          `json:"code" validate:"required,numeric,max=20"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description"`
	Side            NaturalSide     `json:"side" validate:"required,oneof=D C"`
	Class           Class           `json:"class" validate:"required"`
	Level           int             `json:"level" validate:"omitempty,min=1"`
	ParentCode      string          `json:"parent_code"`
	AcceptsPostings bool            `json:"accepts_postings"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
}

// Validate ensures the input meets model constraints before hitting storage.
func (in CreateInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("accounts: company required")
	}
	if in.Code == "" {
		return errors.New("accounts: code required")
	}
	for _, r := range in.Code {
		if r < '0' || r > '9' {
			return fmt.Errorf("accounts: code %q must contain only digits", in.Code)
		}
	}
	if in.Name == "" {
		return errors.New("accounts: name required")
	}
	if in.Side != SideDebit && in.Side != SideCredit {
		return fmt.Errorf("accounts: invalid natural side %q", in.Side)
	}
	switch in.Class {
	case ClassAsset, ClassLiability, ClassEquity, ClassIncome, ClassExpense, ClassCost:
	default:
		return fmt.Errorf("accounts: invalid class %q", in.Class)
	}
	if in.Level < 0 {
		return errors.New("accounts: level must be >= 1")
	}
	return nil
}
