package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/shared"
)

func TestSeedBasicChart(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	created, err := svc.SeedBasicChart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, created, len(basicChart))

	// every well-known posting code exists as an active leaf
	for _, code := range []string{CodeCash, CodeBank, CodeReceivables, CodeTaxPayable, CodeSalesIncome, CodeExpenses} {
		account, ok := created[code]
		require.True(t, ok, "missing account %s", code)
		assert.True(t, account.AcceptsPostings, "account %s must accept postings", code)
		assert.True(t, account.Active)
	}

	// class roots are branches
	for _, code := range []string{"1", "2", "3", "4", "5"} {
		root := created[code]
		assert.False(t, root.AcceptsPostings, "root %s must not accept postings", code)
		assert.Nil(t, root.ParentID)
		assert.Equal(t, 1, root.Level)
	}

	// parents wired by code prefix
	cash := created[CodeCash]
	require.NotNil(t, cash.ParentID)
	assert.Equal(t, created["11"].ID, *cash.ParentID)
	tax := created[CodeTaxPayable]
	require.NotNil(t, tax.ParentID)
	assert.Equal(t, created["24"].ID, *tax.ParentID)

	// natural sides follow the class
	assert.Equal(t, SideDebit, created[CodeCash].Side)
	assert.Equal(t, SideCredit, created[CodeTaxPayable].Side)
	assert.Equal(t, SideCredit, created[CodeSalesIncome].Side)
	assert.Equal(t, SideDebit, created[CodeExpenses].Side)
}

func TestSeedBasicChartTwice(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	_, err := svc.SeedBasicChart(context.Background(), 1)
	require.NoError(t, err)

	_, err = svc.SeedBasicChart(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrChartAlreadySeeded)

	// seeding a different company still works
	_, err = svc.SeedBasicChart(context.Background(), 2)
	assert.NoError(t, err)
}
