package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/shopspring/decimal"
)

const unitColumns = `
	id, serial, brand, brand_slug, model, color, storage, ram, condition_grade,
	cost, price, previous_price, on_promotion, margin,
	status, sold_at, created_by, created_at, updated_at`

// UnitStore is the MySQL UnitRepository.
type UnitStore struct {
	db *sql.DB
}

var _ UnitRepository = (*UnitStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(r rowScanner) (*models.Unit, error) {
	var u models.Unit
	var previous decimal.NullDecimal
	var soldAt sql.NullTime

	err := r.Scan(
		&u.ID, &u.Serial, &u.Brand, &u.BrandSlug, &u.Model, &u.Color, &u.Storage, &u.RAM, &u.Condition,
		&u.Cost, &u.Price, &previous, &u.OnPromotion, &u.Margin,
		&u.Status, &soldAt, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if previous.Valid {
		u.PreviousPrice = &previous.Decimal
	}
	if soldAt.Valid {
		t := soldAt.Time
		u.SoldAt = &t
	}
	return &u, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *UnitStore) Create(ctx context.Context, u *models.Unit) error {
	query := `
		INSERT INTO units
		(serial, brand, brand_slug, model, color, storage, ram, condition_grade,
		 cost, price, previous_price, on_promotion, margin,
		 status, sold_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		u.Serial, u.Brand, u.BrandSlug, u.Model, u.Color, u.Storage, u.RAM, u.Condition,
		u.Cost, u.Price, nullDecimal(u.PreviousPrice), u.OnPromotion, u.Margin,
		u.Status, nullTime(u.SoldAt), u.CreatedBy, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return translate("create unit", "unit", 0, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Persistence("create unit", err)
	}
	u.ID = id
	return nil
}

func (s *UnitStore) GetByID(ctx context.Context, id int64) (*models.Unit, error) {
	row := querier(ctx, s.db).QueryRowContext(ctx, "SELECT"+unitColumns+" FROM units WHERE id = ?", id)
	u, err := scanUnit(row)
	if err != nil {
		return nil, translate("get unit", "unit", id, err)
	}
	return u, nil
}

// GetForUpdate must be called with a transactional ctx; otherwise the lock
// is released as soon as the statement finishes.
func (s *UnitStore) GetForUpdate(ctx context.Context, id int64) (*models.Unit, error) {
	row := querier(ctx, s.db).QueryRowContext(ctx, "SELECT"+unitColumns+" FROM units WHERE id = ? FOR UPDATE", id)
	u, err := scanUnit(row)
	if err != nil {
		return nil, translate("lock unit", "unit", id, err)
	}
	return u, nil
}

func (s *UnitStore) Update(ctx context.Context, u *models.Unit) error {
	query := `
		UPDATE units SET
			brand = ?, brand_slug = ?, model = ?, color = ?, storage = ?, ram = ?, condition_grade = ?,
			cost = ?, price = ?, previous_price = ?, on_promotion = ?, margin = ?,
			status = ?, sold_at = ?, updated_at = ?
		WHERE id = ?`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		u.Brand, u.BrandSlug, u.Model, u.Color, u.Storage, u.RAM, u.Condition,
		u.Cost, u.Price, nullDecimal(u.PreviousPrice), u.OnPromotion, u.Margin,
		u.Status, nullTime(u.SoldAt), u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return translate("update unit", "unit", u.ID, err)
	}
	return expectOneRow(res, "update unit", "unit", u.ID)
}

func (s *UnitStore) Delete(ctx context.Context, id int64) error {
	res, err := querier(ctx, s.db).ExecContext(ctx, "DELETE FROM units WHERE id = ?", id)
	if err != nil {
		return translate("delete unit", "unit", id, err)
	}
	return expectOneRow(res, "delete unit", "unit", id)
}

func (s *UnitStore) List(ctx context.Context, f models.UnitFilter) ([]models.Unit, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT" + unitColumns + " FROM units WHERE 1 = 1")

	if f.Brand != "" {
		queryBuilder.WriteString(" AND brand_slug = ?")
		args = append(args, f.Brand)
	}
	if f.Status != "" {
		queryBuilder.WriteString(" AND status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		queryBuilder.WriteString(" AND (serial LIKE ? OR brand LIKE ? OR model LIKE ?)")
		searchTerm := "%" + escapeLike(f.Search) + "%"
		args = append(args, searchTerm, searchTerm, searchTerm)
	}

	limit, offset := NormalizePage(f.Limit, f.Offset)
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := querier(ctx, s.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, apperr.Persistence("list units", err)
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, apperr.Persistence("list units", fmt.Errorf("scan: %w", err))
		}
		units = append(units, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list units", err)
	}
	return units, nil
}
