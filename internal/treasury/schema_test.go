package treasury

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cash-box payments carry no bank account and plain bank accounts carry no
// linked ledger account, so both references must stay nullable.
func TestTreasurySchemaKeepsOptionalReferencesNullable(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000006_treasury.up.sql"))
	require.NoError(t, err)

	found := 0
	for _, line := range strings.Split(string(ddl), "\n") {
		trimmed := strings.TrimSpace(line)
		for _, column := range []string{"bank_account_id ", "ledger_account_id "} {
			if strings.HasPrefix(trimmed, column) {
				found++
				assert.NotContains(t, trimmed, "NOT NULL", "column %s must stay nullable", column)
			}
		}
	}
	assert.Equal(t, 2, found)
}

func TestTreasurySchemaAcceptsModelEnums(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000006_treasury.up.sql"))
	require.NoError(t, err)
	schema := string(ddl)

	for _, status := range []PaymentStatus{StatusPending, StatusConfirmed, StatusVoid} {
		assert.Contains(t, schema, fmt.Sprintf("'%s'", status))
	}
	for _, kind := range []BankAccountType{AccountSavings, AccountChecking, AccountCashBox} {
		assert.Contains(t, schema, fmt.Sprintf("'%s'", kind))
	}
}
