package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The repository writes Class and NaturalSide as their string literals, so
// the declared schema must accept every one of them.
func TestAccountsSchemaAcceptsModelEnums(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000003_accounts.up.sql"))
	require.NoError(t, err)
	schema := string(ddl)

	for _, class := range []Class{ClassAsset, ClassLiability, ClassEquity, ClassIncome, ClassExpense, ClassCost} {
		assert.Contains(t, schema, fmt.Sprintf("'%s'", class))
	}
	for _, side := range []NaturalSide{SideDebit, SideCredit} {
		assert.Contains(t, schema, fmt.Sprintf("'%s'", side))
	}
	assert.NotContains(t, schema, "class BETWEEN")
}
