package journals

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/shared"
)

func postingAccount(id int64) accounts.Account {
	return accounts.Account{
		ID:              id,
		CompanyID:       1,
		Code:            "110505",
		Name:            "CAJA GENERAL",
		Side:            accounts.SideDebit,
		AcceptsPostings: true,
		Active:          true,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineValidateAmounts(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
		ok     bool
	}{
		{"debit only", "100", "0", true},
		{"credit only", "0", "250.50", true},
		{"both sides", "100", "100", false},
		{"both zero", "0", "0", false},
		{"negative debit", "-5", "0", false},
		{"negative credit", "0", "-5", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := Line{Debit: dec(tc.debit), Credit: dec(tc.credit)}
			err := line.ValidateAmounts()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrLineAmounts)
			}
		})
	}
}

func TestEntryAppendLine(t *testing.T) {
	entry := Entry{Status: StatusDraft}

	require.NoError(t, entry.AppendLine(postingAccount(1), "Caja", dec("119000"), decimal.Zero, nil))
	require.NoError(t, entry.AppendLine(postingAccount(2), "Ingreso", decimal.Zero, dec("119000"), nil))

	assert.Equal(t, 1, entry.Lines[0].Position)
	assert.Equal(t, 2, entry.Lines[1].Position)
	assert.True(t, entry.TotalDebit.Equal(dec("119000")))
	assert.True(t, entry.TotalCredit.Equal(dec("119000")))
}

func TestEntryAppendLineRejectsSummaryAccount(t *testing.T) {
	entry := Entry{Status: StatusDraft}
	summary := postingAccount(1)
	summary.AcceptsPostings = false

	err := entry.AppendLine(summary, "Caja", dec("100"), decimal.Zero, nil)
	assert.ErrorIs(t, err, shared.ErrAccountNoPostings)
	assert.Empty(t, entry.Lines)
}

func TestEntryAppendLineRequiresDraft(t *testing.T) {
	entry := Entry{Status: StatusConfirmed}
	err := entry.AppendLine(postingAccount(1), "Caja", dec("100"), decimal.Zero, nil)
	assert.ErrorIs(t, err, shared.ErrNotDraft)
}

func TestEntryConfirm(t *testing.T) {
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

	entry := Entry{Status: StatusDraft}
	require.NoError(t, entry.AppendLine(postingAccount(1), "Caja", dec("100"), decimal.Zero, nil))
	require.NoError(t, entry.AppendLine(postingAccount(2), "Ingreso", decimal.Zero, dec("100"), nil))

	require.NoError(t, entry.Confirm(9, now))
	assert.Equal(t, StatusConfirmed, entry.Status)
	require.NotNil(t, entry.ConfirmedBy)
	assert.Equal(t, int64(9), *entry.ConfirmedBy)
	require.NotNil(t, entry.ConfirmedAt)
	assert.True(t, entry.ConfirmedAt.Equal(now))

	// confirming twice is rejected
	assert.ErrorIs(t, entry.Confirm(9, now), shared.ErrNotDraft)
}

func TestEntryConfirmEmpty(t *testing.T) {
	entry := Entry{Status: StatusDraft}
	assert.ErrorIs(t, entry.Confirm(9, time.Now()), shared.ErrNoLines)
}

func TestEntryConfirmUnbalanced(t *testing.T) {
	entry := Entry{Status: StatusDraft}
	require.NoError(t, entry.AppendLine(postingAccount(1), "Caja", dec("100"), decimal.Zero, nil))
	require.NoError(t, entry.AppendLine(postingAccount(2), "Ingreso", decimal.Zero, dec("99.99"), nil))

	err := entry.Confirm(9, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnbalanced)

	var unbalanced *shared.UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, "100.00", unbalanced.TotalDebit)
	assert.Equal(t, "99.99", unbalanced.TotalCredit)
	assert.Equal(t, StatusDraft, entry.Status)
}

func TestEntryBalancedAtTwoDecimals(t *testing.T) {
	entry := Entry{Status: StatusDraft}
	require.NoError(t, entry.AppendLine(postingAccount(1), "Caja", dec("33.333"), decimal.Zero, nil))
	require.NoError(t, entry.AppendLine(postingAccount(2), "Ingreso", decimal.Zero, dec("33.334"), nil))

	// 33.333 vs 33.334 round to the same cent
	assert.True(t, entry.IsBalanced())
}

func TestEntryVoid(t *testing.T) {
	entry := Entry{Status: StatusConfirmed}
	require.NoError(t, entry.Void())
	assert.Equal(t, StatusVoid, entry.Status)

	draft := Entry{Status: StatusDraft}
	assert.ErrorIs(t, draft.Void(), shared.ErrNotConfirmed)
	assert.ErrorIs(t, entry.Void(), shared.ErrNotConfirmed)
}
