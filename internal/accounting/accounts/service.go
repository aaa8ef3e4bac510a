package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/shared"
)

// Service handles chart-of-accounts business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new account. The transaction covers the
// duplicate-code check, the hierarchy invariant and the insert.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	level := in.Level
	if level == 0 {
		level = 1
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var parentID *int64
		if in.ParentCode != "" {
			parent, err := tx.GetByCode(ctx, in.CompanyID, in.ParentCode)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(in.Code, parent.Code) {
				return shared.ErrHierarchy
			}
			if parent.AcceptsPostings {
				children, err := tx.HasActivePostingChildren(ctx, parent.ID)
				if err != nil {
					return err
				}
				if children && in.AcceptsPostings {
					return shared.ErrHierarchy
				}
			}
			parentID = &parent.ID
		}
		a := Account{
			CompanyID:       in.CompanyID,
			Code:            in.Code,
			Name:            in.Name,
			Description:     in.Description,
			Side:            in.Side,
			Class:           in.Class,
			Level:           level,
			ParentID:        parentID,
			AcceptsPostings: in.AcceptsPostings,
			OpeningBalance:  in.OpeningBalance,
			Active:          true,
		}
		inserted, err := tx.Insert(ctx, a)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

// LookupByCode resolves an active account within a company scope.
func (s *Service) LookupByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return s.repo.GetByCode(ctx, companyID, code)
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every account of a company ordered by code.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// BalanceResult splits the signed balance into its debtor/creditor sides.
type BalanceResult struct {
	Signed   decimal.Decimal
	Debtor   decimal.Decimal
	Creditor decimal.Decimal
}

// Balance computes an account balance. Without a cut-off it reads the
// running accumulators; with one it sums confirmed lines up to the date.
// The two paths agree when asOf is nil.
func (s *Service) Balance(ctx context.Context, accountID int64, asOf *time.Time) (BalanceResult, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return BalanceResult{}, err
	}
	if asOf != nil {
		debit, credit, err := s.repo.SumConfirmedLines(ctx, accountID, *asOf)
		if err != nil {
			return BalanceResult{}, err
		}
		account.DebitTotal = debit
		account.CreditTotal = credit
	}
	return BalanceResult{
		Signed:   account.CurrentBalance(),
		Debtor:   account.DebtorBalance(),
		Creditor: account.CreditorBalance(),
	}, nil
}

// Accumulate adds movement totals to the running balance fields. It is
// reserved for the posting service, which calls it inside its own
// transaction via the shared TxRepository.
func (s *Service) Accumulate(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Accumulate(ctx, accountID, debit, credit)
	})
}
