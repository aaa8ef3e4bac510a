package accounts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCurrentBalanceDebitSide(t *testing.T) {
	a := Account{
		Side:           SideDebit,
		OpeningBalance: dec("1000"),
		DebitTotal:     dec("500"),
		CreditTotal:    dec("200"),
	}
	assert.True(t, a.CurrentBalance().Equal(dec("1300")))
}

func TestCurrentBalanceCreditSide(t *testing.T) {
	a := Account{
		Side:           SideCredit,
		OpeningBalance: dec("0"),
		DebitTotal:     dec("100"),
		CreditTotal:    dec("450"),
	}
	assert.True(t, a.CurrentBalance().Equal(dec("350")))
}

func TestBalanceProjections(t *testing.T) {
	// cash with a surplus: debtor side only
	cash := Account{Side: SideDebit, DebitTotal: dec("300"), CreditTotal: dec("100")}
	assert.True(t, cash.DebtorBalance().Equal(dec("200")))
	assert.True(t, cash.CreditorBalance().IsZero())

	// overdrawn debit account flips to the creditor side
	overdrawn := Account{Side: SideDebit, DebitTotal: dec("100"), CreditTotal: dec("300")}
	assert.True(t, overdrawn.DebtorBalance().IsZero())
	assert.True(t, overdrawn.CreditorBalance().Equal(dec("200")))

	// settled account projects zero on both sides
	settled := Account{Side: SideCredit, DebitTotal: dec("150"), CreditTotal: dec("150")}
	assert.True(t, settled.DebtorBalance().IsZero())
	assert.True(t, settled.CreditorBalance().IsZero())
}
