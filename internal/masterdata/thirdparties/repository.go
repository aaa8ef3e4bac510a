package thirdparties

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaverde/contaverde/internal/masterdata/shared"
)

const thirdPartyColumns = `id, company_id, kind, document_type, document_number, name, trade_name, address, city, phone, email, active, created_at, updated_at`

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]ThirdParty, int, error)
	Get(ctx context.Context, id int64) (ThirdParty, error)
	GetByDocument(ctx context.Context, companyID int64, documentNumber string) (ThirdParty, error)
	Create(ctx context.Context, tp ThirdParty) (ThirdParty, error)
	Update(ctx context.Context, id int64, tp ThirdParty) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func scanThirdParty(row pgx.Row) (ThirdParty, error) {
	var t ThirdParty
	err := row.Scan(&t.ID, &t.CompanyID, &t.Kind, &t.DocumentType, &t.DocumentNumber, &t.Name, &t.TradeName, &t.Address, &t.City, &t.Phone, &t.Email, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ThirdParty{}, shared.ErrNotFound
		}
		return ThirdParty{}, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]ThirdParty, int, error) {
	base := ` FROM third_parties WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.CompanyID != nil {
		argCount++
		base += ` AND company_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CompanyID)
	}
	if filters.Search != "" {
		argCount++
		base += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR document_number ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Kind != "" {
		argCount++
		base += ` AND (kind = $` + strconv.Itoa(argCount) + ` OR kind = 'ambos')`
		args = append(args, filters.Kind)
	}
	if filters.Active != nil {
		argCount++
		base += ` AND active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + thirdPartyColumns + base + ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ThirdParty
	for rows.Next() {
		var t ThirdParty
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Kind, &t.DocumentType, &t.DocumentNumber, &t.Name, &t.TradeName, &t.Address, &t.City, &t.Phone, &t.Email, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (ThirdParty, error) {
	return scanThirdParty(r.pool.QueryRow(ctx, `SELECT `+thirdPartyColumns+` FROM third_parties WHERE id = $1`, id))
}

func (r *repository) GetByDocument(ctx context.Context, companyID int64, documentNumber string) (ThirdParty, error) {
	return scanThirdParty(r.pool.QueryRow(ctx, `SELECT `+thirdPartyColumns+` FROM third_parties WHERE company_id = $1 AND document_number = $2`, companyID, documentNumber))
}

func (r *repository) Create(ctx context.Context, tp ThirdParty) (ThirdParty, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO third_parties (company_id, kind, document_type, document_number, name, trade_name, address, city, phone, email, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,true) RETURNING id, active, created_at, updated_at`,
		tp.CompanyID, tp.Kind, tp.DocumentType, tp.DocumentNumber, tp.Name, tp.TradeName, tp.Address, tp.City, tp.Phone, tp.Email).
		Scan(&tp.ID, &tp.Active, &tp.CreatedAt, &tp.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ThirdParty{}, shared.ErrDuplicate
		}
		return ThirdParty{}, err
	}
	return tp, nil
}

func (r *repository) Update(ctx context.Context, id int64, tp ThirdParty) error {
	tag, err := r.pool.Exec(ctx, `UPDATE third_parties SET kind = $1, document_type = $2, document_number = $3, name = $4, trade_name = $5, address = $6, city = $7, phone = $8, email = $9, updated_at = now() WHERE id = $10`,
		tp.Kind, tp.DocumentType, tp.DocumentNumber, tp.Name, tp.TradeName, tp.Address, tp.City, tp.Phone, tp.Email, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE third_parties SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
