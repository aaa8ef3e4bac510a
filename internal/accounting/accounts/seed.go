package accounts

import (
	"context"
	"errors"

	"github.com/contaverde/contaverde/internal/accounting/shared"
)

type seedAccount struct {
	Code            string
	Name            string
	Side            NaturalSide
	Class           Class
	Level           int
	AcceptsPostings bool
	ParentCode      string
}

// basicChart is the minimal Colombian PUC tree seeded for a new company.
// Branch accounts never accept postings; the leaves are the well-known
// codes the posting service resolves.
var basicChart = []seedAccount{
	{Code: "1", Name: "ACTIVO", Side: SideDebit, Class: ClassAsset, Level: 1, AcceptsPostings: false},
	{Code: "11", Name: "ACTIVO CORRIENTE", Side: SideDebit, Class: ClassAsset, Level: 2, AcceptsPostings: false, ParentCode: "1"},
	{Code: CodeCash, Name: "CAJA", Side: SideDebit, Class: ClassAsset, Level: 3, AcceptsPostings: true, ParentCode: "11"},
	{Code: CodeBank, Name: "BANCOS", Side: SideDebit, Class: ClassAsset, Level: 3, AcceptsPostings: true, ParentCode: "11"},
	{Code: CodeReceivables, Name: "CLIENTES", Side: SideDebit, Class: ClassAsset, Level: 3, AcceptsPostings: true, ParentCode: "11"},

	{Code: "2", Name: "PASIVO", Side: SideCredit, Class: ClassLiability, Level: 1, AcceptsPostings: false},
	{Code: "24", Name: "IMPUESTOS GRAVÁMENES Y TASAS", Side: SideCredit, Class: ClassLiability, Level: 2, AcceptsPostings: false, ParentCode: "2"},
	{Code: CodeTaxPayable, Name: "IVA POR PAGAR", Side: SideCredit, Class: ClassLiability, Level: 3, AcceptsPostings: true, ParentCode: "24"},

	{Code: "3", Name: "PATRIMONIO", Side: SideCredit, Class: ClassEquity, Level: 1, AcceptsPostings: false},
	{Code: "31", Name: "CAPITAL SOCIAL", Side: SideCredit, Class: ClassEquity, Level: 2, AcceptsPostings: true, ParentCode: "3"},

	{Code: "4", Name: "INGRESOS", Side: SideCredit, Class: ClassIncome, Level: 1, AcceptsPostings: false},
	{Code: "41", Name: "INGRESOS OPERACIONALES", Side: SideCredit, Class: ClassIncome, Level: 2, AcceptsPostings: false, ParentCode: "4"},
	{Code: CodeSalesIncome, Name: "COMERCIO AL POR MAYOR Y AL POR MENOR", Side: SideCredit, Class: ClassIncome, Level: 3, AcceptsPostings: true, ParentCode: "41"},

	{Code: "5", Name: "GASTOS", Side: SideDebit, Class: ClassExpense, Level: 1, AcceptsPostings: false},
	{Code: "51", Name: "GASTOS OPERACIONALES DE ADMINISTRACIÓN", Side: SideDebit, Class: ClassExpense, Level: 2, AcceptsPostings: false, ParentCode: "5"},
	{Code: CodeExpenses, Name: "GASTOS DE PERSONAL", Side: SideDebit, Class: ClassExpense, Level: 3, AcceptsPostings: true, ParentCode: "51"},
}

// SeedBasicChart creates the standard chart for a new company in one
// transaction and returns the created accounts keyed by code. A second
// call for the same company fails with ErrChartAlreadySeeded.
func (s *Service) SeedBasicChart(ctx context.Context, companyID int64) (map[string]Account, error) {
	created := make(map[string]Account, len(basicChart))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, seed := range basicChart {
			a := Account{
				CompanyID:       companyID,
				Code:            seed.Code,
				Name:            seed.Name,
				Side:            seed.Side,
				Class:           seed.Class,
				Level:           seed.Level,
				AcceptsPostings: seed.AcceptsPostings,
				Active:          true,
			}
			if seed.ParentCode != "" {
				parent, ok := created[seed.ParentCode]
				if !ok {
					return shared.ErrAccountNotFound
				}
				a.ParentID = &parent.ID
			}
			inserted, err := tx.Insert(ctx, a)
			if err != nil {
				if errors.Is(err, shared.ErrDuplicateCode) {
					return shared.ErrChartAlreadySeeded
				}
				return err
			}
			created[seed.Code] = inserted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
