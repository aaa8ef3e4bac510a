package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit events from Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Timeline returns up to limit events for the company, newest first.
// Filters on entity, name and the occurred_at window apply only when set.
func (r *PGRepository) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	query := `SELECT id, name, company_id, actor_id, entity, entity_id, meta, occurred_at
FROM audit_events WHERE company_id = $1`
	args := []any{filters.CompanyID}

	if filters.Entity != "" {
		args = append(args, filters.Entity)
		query += fmt.Sprintf(" AND entity = $%d", len(args))
	}
	if filters.Name != "" {
		args = append(args, filters.Name)
		query += fmt.Sprintf(" AND name = $%d", len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev   Event
			meta []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.CompanyID, &ev.ActorID, &ev.Entity, &ev.EntityID, &meta, &ev.OccurredAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Meta); err != nil {
				return nil, fmt.Errorf("audit: decode meta for event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
