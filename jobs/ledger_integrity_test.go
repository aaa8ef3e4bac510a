package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/contaverde/contaverde/internal/jobs"
)

type stubIntegrityStore struct {
	totals  []AccountLineTotals
	entries []UnbalancedEntry
}

func (s *stubIntegrityStore) AccountLineTotals(_ context.Context, _ int64) ([]AccountLineTotals, error) {
	return s.totals, nil
}

func (s *stubIntegrityStore) UnbalancedEntries(_ context.Context, _ int64) ([]UnbalancedEntry, error) {
	return s.entries, nil
}

func newTestChecker(store IntegrityStore) *LedgerIntegrityChecker {
	return &LedgerIntegrityChecker{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestIntegrityIgnoresDraftLines(t *testing.T) {
	// The cash account matches its confirmed lines; the open draft on the
	// same account has not been accumulated and must not count as drift.
	store := &stubIntegrityStore{totals: []AccountLineTotals{
		{CompanyID: 1, Code: "110505", Status: "confirmed", StoredDebit: dec("119000"), StoredCredit: dec("0"), LineDebit: dec("119000"), LineCredit: dec("0")},
		{CompanyID: 1, Code: "110505", Status: "draft", StoredDebit: dec("119000"), StoredCredit: dec("0"), LineDebit: dec("50000"), LineCredit: dec("0")},
	}}
	checker := newTestChecker(store)

	count, err := checker.checkAccumulators(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIntegrityCountsVoidedEntryLines(t *testing.T) {
	// Void does not unwind accumulators, so an account whose stored totals
	// still carry a voided entry's amounts is consistent, not drifted.
	store := &stubIntegrityStore{totals: []AccountLineTotals{
		{CompanyID: 1, Code: "110505", Status: "confirmed", StoredDebit: dec("119000"), StoredCredit: dec("0"), LineDebit: dec("100000"), LineCredit: dec("0")},
		{CompanyID: 1, Code: "110505", Status: "void", StoredDebit: dec("119000"), StoredCredit: dec("0"), LineDebit: dec("19000"), LineCredit: dec("0")},
	}}
	checker := newTestChecker(store)

	count, err := checker.checkAccumulators(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIntegrityReportsDrift(t *testing.T) {
	store := &stubIntegrityStore{totals: []AccountLineTotals{
		{CompanyID: 1, Code: "110505", Status: "confirmed", StoredDebit: dec("119000"), StoredCredit: dec("0"), LineDebit: dec("100000"), LineCredit: dec("0")},
		{CompanyID: 1, Code: "413501", Status: "confirmed", StoredDebit: dec("0"), StoredCredit: dec("100000"), LineDebit: dec("0"), LineCredit: dec("100000")},
	}}
	checker := newTestChecker(store)

	count, err := checker.checkAccumulators(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegrityFlagsAccountWithoutLines(t *testing.T) {
	// Status is empty when an account has no lines; nonzero accumulators
	// there are drift, zero ones are not.
	store := &stubIntegrityStore{totals: []AccountLineTotals{
		{CompanyID: 1, Code: "110505", Status: "", StoredDebit: dec("5000"), StoredCredit: dec("0")},
		{CompanyID: 1, Code: "130505", Status: "", StoredDebit: dec("0"), StoredCredit: dec("0")},
	}}
	checker := newTestChecker(store)

	count, err := checker.checkAccumulators(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegrityReportsUnbalancedEntries(t *testing.T) {
	store := &stubIntegrityStore{entries: []UnbalancedEntry{
		{CompanyID: 1, Number: "000007", TotalDebit: dec("119000"), TotalCredit: dec("118000")},
	}}
	checker := newTestChecker(store)

	count, err := checker.checkEntries(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
