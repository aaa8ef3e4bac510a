package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies running balances against journal lines.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportWarmup prebuilds the financial reports for a company.
	TaskReportWarmup = "reports:warmup"
)

// LedgerIntegrityPayload scopes an integrity run. CompanyID zero means
// every company.
type LedgerIntegrityPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewLedgerIntegrityTask constructs the Asynq task.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// ReportWarmupPayload scopes a warmup run. CompanyID zero means every
// active company.
type ReportWarmupPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewReportWarmupTask constructs the Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
