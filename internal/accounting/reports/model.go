package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
)

// AccountBalance is a posting account with its aggregated movements over
// the reporting window.
type AccountBalance struct {
	Code    string               `json:"code"`
	Name    string               `json:"name"`
	Side    accounts.NaturalSide `json:"side"`
	Class   accounts.Class       `json:"class"`
	Opening decimal.Decimal      `json:"opening"`
	Debit   decimal.Decimal      `json:"debit"`
	Credit  decimal.Decimal      `json:"credit"`
}

// Closing is the signed closing balance by natural side.
func (a AccountBalance) Closing() decimal.Decimal {
	if a.Side == accounts.SideDebit {
		return a.Opening.Add(a.Debit).Sub(a.Credit)
	}
	return a.Opening.Add(a.Credit).Sub(a.Debit)
}

// GroupKey buckets trial balance rows by PUC class digit.
func (a AccountBalance) GroupKey() string {
	if a.Code == "" {
		return ""
	}
	return a.Code[:1]
}

// TrialBalanceRow is one account inside a trial balance group.
type TrialBalanceRow struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Opening  decimal.Decimal `json:"opening"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Debtor   decimal.Decimal `json:"debtor"`
	Creditor decimal.Decimal `json:"creditor"`
}

// TrialBalanceGroup aggregates the rows of one PUC class.
type TrialBalanceGroup struct {
	Key      string            `json:"key"`
	Label    string            `json:"label"`
	Rows     []TrialBalanceRow `json:"rows"`
	Debit    decimal.Decimal   `json:"debit"`
	Credit   decimal.Decimal   `json:"credit"`
	Debtor   decimal.Decimal   `json:"debtor"`
	Creditor decimal.Decimal   `json:"creditor"`
}

// TrialBalance is the balance de prueba: movement and balance columns per
// account, grouped by class. TotalDebit always equals TotalCredit when the
// ledger holds only confirmed balanced entries.
type TrialBalance struct {
	Groups        []TrialBalanceGroup `json:"groups"`
	TotalDebit    decimal.Decimal     `json:"total_debit"`
	TotalCredit   decimal.Decimal     `json:"total_credit"`
	TotalDebtor   decimal.Decimal     `json:"total_debtor"`
	TotalCreditor decimal.Decimal     `json:"total_creditor"`
}

var classLabels = map[string]string{
	"1": "Activo",
	"2": "Pasivo",
	"3": "Patrimonio",
	"4": "Ingresos",
	"5": "Gastos",
	"6": "Costos",
}

// BuildTrialBalance groups account balances into the trial balance shape.
// Accounts with no movements and a zero balance are skipped.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	tb := TrialBalance{
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalDebtor:   decimal.Zero,
		TotalCreditor: decimal.Zero,
	}
	for _, acc := range balances {
		closing := acc.Closing()
		if acc.Debit.IsZero() && acc.Credit.IsZero() && closing.IsZero() {
			continue
		}
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{
				Key:      key,
				Label:    classLabels[key],
				Debit:    decimal.Zero,
				Credit:   decimal.Zero,
				Debtor:   decimal.Zero,
				Creditor: decimal.Zero,
			}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceRow{
			Code:     acc.Code,
			Name:     acc.Name,
			Opening:  acc.Opening,
			Debit:    acc.Debit,
			Credit:   acc.Credit,
			Debtor:   decimal.Zero,
			Creditor: decimal.Zero,
		}
		if closing.IsPositive() {
			row.Debtor = closing
		} else {
			row.Creditor = closing.Abs()
		}
		grp.Rows = append(grp.Rows, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.Debtor = grp.Debtor.Add(row.Debtor)
		grp.Creditor = grp.Creditor.Add(row.Creditor)
	}

	sort.Strings(keys)
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Rows, func(i, j int) bool { return grp.Rows[i].Code < grp.Rows[j].Code })
		tb.Groups = append(tb.Groups, *grp)
		tb.TotalDebit = tb.TotalDebit.Add(grp.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(grp.Credit)
		tb.TotalDebtor = tb.TotalDebtor.Add(grp.Debtor)
		tb.TotalCreditor = tb.TotalCreditor.Add(grp.Creditor)
	}
	return tb
}

// ReportLine is a labelled amount in a statement section.
type ReportLine struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// IncomeStatement is the estado de resultados over a date window.
type IncomeStatement struct {
	Income        []ReportLine    `json:"income"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// BuildIncomeStatement splits balances into income and expense sections.
// Income accounts contribute their creditor closing, expenses their debtor
// closing, so reversals and voids net out naturally.
func BuildIncomeStatement(balances []AccountBalance) IncomeStatement {
	out := IncomeStatement{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, acc := range sortedByCode(balances) {
		closing := acc.Closing()
		if closing.IsZero() {
			continue
		}
		line := ReportLine{Code: acc.Code, Name: acc.Name, Amount: closing, Formatted: FormatCOP(closing)}
		switch acc.Class {
		case accounts.ClassIncome:
			out.Income = append(out.Income, line)
			out.TotalIncome = out.TotalIncome.Add(closing)
		case accounts.ClassExpense, accounts.ClassCost:
			out.Expenses = append(out.Expenses, line)
			out.TotalExpenses = out.TotalExpenses.Add(closing)
		}
	}
	out.NetIncome = out.TotalIncome.Sub(out.TotalExpenses)
	return out
}

// BalanceSheet is the balance general at a cut-off date. Net income for
// the period appears as its own equity line so the equation closes.
type BalanceSheet struct {
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	NetIncome        decimal.Decimal `json:"net_income"`
}

// Balanced reports whether assets equal liabilities plus equity.
func (b BalanceSheet) Balanced() bool {
	return b.TotalAssets.Equal(b.TotalLiabilities.Add(b.TotalEquity))
}

// BuildBalanceSheet arranges balances into the accounting equation.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	out := BalanceSheet{
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	income := decimal.Zero
	expenses := decimal.Zero
	for _, acc := range sortedByCode(balances) {
		closing := acc.Closing()
		if closing.IsZero() {
			continue
		}
		line := ReportLine{Code: acc.Code, Name: acc.Name, Amount: closing, Formatted: FormatCOP(closing)}
		switch acc.Class {
		case accounts.ClassAsset:
			out.Assets = append(out.Assets, line)
			out.TotalAssets = out.TotalAssets.Add(closing)
		case accounts.ClassLiability:
			out.Liabilities = append(out.Liabilities, line)
			out.TotalLiabilities = out.TotalLiabilities.Add(closing)
		case accounts.ClassEquity:
			out.Equity = append(out.Equity, line)
			out.TotalEquity = out.TotalEquity.Add(closing)
		case accounts.ClassIncome:
			income = income.Add(closing)
		case accounts.ClassExpense, accounts.ClassCost:
			expenses = expenses.Add(closing)
		}
	}
	out.NetIncome = income.Sub(expenses)
	if !out.NetIncome.IsZero() {
		out.Equity = append(out.Equity, ReportLine{
			Code:      "3605",
			Name:      "Utilidad del ejercicio",
			Amount:    out.NetIncome,
			Formatted: FormatCOP(out.NetIncome),
		})
		out.TotalEquity = out.TotalEquity.Add(out.NetIncome)
	}
	return out
}

func sortedByCode(balances []AccountBalance) []AccountBalance {
	out := make([]AccountBalance, len(balances))
	copy(out, balances)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
