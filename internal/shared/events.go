package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Domain event names emitted by the accounting services.
const (
	EventEntryConfirmed        = "entry.confirmed"
	EventEntryVoided           = "entry.voided"
	EventAccountBalanceChanged = "account.balance_changed"
	EventChartSeeded           = "chart.seeded"
)

// DomainEvent is a structured record of a state change. Mutating services
// receive an explicit EventSink from their caller instead of recovering
// ambient request state.
type DomainEvent struct {
	Name      string
	CompanyID int64
	ActorID   int64
	Entity    string
	EntityID  string
	Meta      map[string]any
	At        time.Time
}

// EventSink consumes domain events.
type EventSink interface {
	Emit(ctx context.Context, event DomainEvent) error
}

// PGEventSink persists events into the audit_events table.
type PGEventSink struct {
	pool *pgxpool.Pool
}

// NewPGEventSink returns a Postgres-backed sink.
func NewPGEventSink(pool *pgxpool.Pool) *PGEventSink {
	return &PGEventSink{pool: pool}
}

// Emit persists the event.
func (s *PGEventSink) Emit(ctx context.Context, event DomainEvent) error {
	if s == nil {
		return errors.New("event sink not initialised")
	}
	if event.Name == "" || event.Entity == "" {
		return errors.New("event requires name and entity")
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	var at any
	if !event.At.IsZero() {
		at = event.At
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO audit_events (name, company_id, actor_id, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		event.Name, event.CompanyID, event.ActorID, event.Entity, event.EntityID, metaJSON, at)
	return err
}

// LogEventSink mirrors events into the structured log, used by the worker
// and as a fallback when no database sink is wired.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink returns a slog-backed sink.
func NewLogEventSink(logger *slog.Logger) *LogEventSink {
	return &LogEventSink{logger: logger}
}

// Emit writes the event at info level.
func (s *LogEventSink) Emit(_ context.Context, event DomainEvent) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("domain event",
		slog.String("name", event.Name),
		slog.Int64("company_id", event.CompanyID),
		slog.String("entity", event.Entity),
		slog.String("entity_id", event.EntityID),
	)
	return nil
}
