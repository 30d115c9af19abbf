package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
)

// SaleStore is the MySQL SaleRepository.
type SaleStore struct {
	db *sql.DB
}

var _ SaleRepository = (*SaleStore)(nil)

const saleColumns = `
	s.id, s.unit_id, s.recorded_by, s.customer_name, s.notes,
	s.sale_price, s.cost, s.margin, s.created_at, s.updated_at,
	COALESCE(u.serial, ''), COALESCE(u.model, '')`

func scanSale(r rowScanner) (*models.Sale, error) {
	var s models.Sale
	err := r.Scan(
		&s.ID, &s.UnitID, &s.RecordedBy, &s.CustomerName, &s.Notes,
		&s.SalePrice, &s.Cost, &s.Margin, &s.CreatedAt, &s.UpdatedAt,
		&s.UnitSerial, &s.UnitModel,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts the sale. The unique key on unit_id is a storage-level
// backstop for the locked status check: a second sale for the same unit
// reads back as ErrAlreadySold.
func (s *SaleStore) Create(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales
		(unit_id, recorded_by, customer_name, notes, sale_price, cost, margin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		sale.UnitID, sale.RecordedBy, sale.CustomerName, sale.Notes,
		sale.SalePrice, sale.Cost, sale.Margin, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("unit %d: %w", sale.UnitID, apperr.ErrAlreadySold)
		}
		return apperr.Persistence("save sale", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Persistence("save sale", err)
	}
	sale.ID = id
	return nil
}

func (s *SaleStore) GetByID(ctx context.Context, id int64) (*models.Sale, error) {
	query := "SELECT" + saleColumns + " FROM sales s LEFT JOIN units u ON u.id = s.unit_id WHERE s.id = ?"
	sale, err := scanSale(querier(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("get sale", "sale", id, err)
	}
	return sale, nil
}

// Update only writes the editable columns; unit_id and cost never change.
func (s *SaleStore) Update(ctx context.Context, sale *models.Sale) error {
	query := `
		UPDATE sales SET customer_name = ?, notes = ?, sale_price = ?, margin = ?, updated_at = ?
		WHERE id = ?`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		sale.CustomerName, sale.Notes, sale.SalePrice, sale.Margin, sale.UpdatedAt, sale.ID,
	)
	if err != nil {
		return translate("update sale", "sale", sale.ID, err)
	}
	return expectOneRow(res, "update sale", "sale", sale.ID)
}

func (s *SaleStore) Delete(ctx context.Context, id int64) error {
	res, err := querier(ctx, s.db).ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id)
	if err != nil {
		return translate("delete sale", "sale", id, err)
	}
	return expectOneRow(res, "delete sale", "sale", id)
}

func (s *SaleStore) List(ctx context.Context, f models.SaleFilter) ([]models.Sale, error) {
	limit, offset := NormalizePage(f.Limit, f.Offset)
	query := "SELECT" + saleColumns + `
		FROM sales s LEFT JOIN units u ON u.id = s.unit_id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?`

	rows, err := querier(ctx, s.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Persistence("list sales", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, apperr.Persistence("list sales", err)
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list sales", err)
	}
	return sales, nil
}

func (s *SaleStore) CountByUnit(ctx context.Context, unitID int64) (int, error) {
	var n int
	err := querier(ctx, s.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM sales WHERE unit_id = ?", unitID).Scan(&n)
	if err != nil {
		return 0, apperr.Persistence("count sales", err)
	}
	return n, nil
}
