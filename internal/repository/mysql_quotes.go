package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/shopspring/decimal"
)

// QuoteStore is the MySQL QuoteRepository.
type QuoteStore struct {
	db *sql.DB
}

var _ QuoteRepository = (*QuoteStore)(nil)

const quoteColumns = `
	id, brand, model, storage, condition_grade, details, images,
	contact_name, contact_phone, contact_email, user_id,
	status, final_price, created_at, updated_at`

func scanQuote(r rowScanner) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	var dbImages []byte // Buffer for the JSON column
	var userID sql.NullInt64
	var finalPrice decimal.NullDecimal

	err := r.Scan(
		&q.ID, &q.Brand, &q.Model, &q.Storage, &q.Condition, &q.Details, &dbImages,
		&q.ContactName, &q.ContactPhone, &q.ContactEmail, &userID,
		&q.Status, &finalPrice, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Images = []string{}
	if len(dbImages) > 0 {
		if err := json.Unmarshal(dbImages, &q.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if userID.Valid {
		id := userID.Int64
		q.UserID = &id
	}
	if finalPrice.Valid {
		q.FinalPrice = &finalPrice.Decimal
	}
	return &q, nil
}

func (s *QuoteStore) Create(ctx context.Context, q *models.QuoteRequest) error {
	imagesJSON, err := json.Marshal(q.Images)
	if err != nil {
		return apperr.Persistence("save quote", err)
	}

	var userID sql.NullInt64
	if q.UserID != nil {
		userID = sql.NullInt64{Int64: *q.UserID, Valid: true}
	}

	query := `
		INSERT INTO quote_requests
		(brand, model, storage, condition_grade, details, images,
		 contact_name, contact_phone, contact_email, user_id,
		 status, final_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		q.Brand, q.Model, q.Storage, q.Condition, q.Details, string(imagesJSON),
		q.ContactName, q.ContactPhone, q.ContactEmail, userID,
		q.Status, nullDecimal(q.FinalPrice), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return apperr.Persistence("save quote", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Persistence("save quote", err)
	}
	q.ID = id
	return nil
}

func (s *QuoteStore) GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error) {
	row := querier(ctx, s.db).QueryRowContext(ctx, "SELECT"+quoteColumns+" FROM quote_requests WHERE id = ?", id)
	q, err := scanQuote(row)
	if err != nil {
		return nil, translate("get quote", "quote", id, err)
	}
	return q, nil
}

// Transition is a single conditional UPDATE, so two reviewers racing on the
// same quote cannot both move it out of the same state.
func (s *QuoteStore) Transition(ctx context.Context, id int64, from []models.QuoteStatus, to models.QuoteStatus, finalPrice *decimal.Decimal) (*models.QuoteRequest, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("quote %d: %w", id, apperr.ErrInvalidState)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	query := `
		UPDATE quote_requests
		SET status = ?, final_price = COALESCE(?, final_price), updated_at = ?
		WHERE id = ? AND status IN (` + placeholders + `)`

	args := []any{to, nullDecimal(finalPrice), time.Now(), id}
	for _, st := range from {
		args = append(args, st)
	}

	q := querier(ctx, s.db)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence("update quote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Persistence("update quote", err)
	}
	if n == 0 {
		// Either the quote is gone or the status guard failed.
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("quote %d is %s: %w", id, current.Status, apperr.ErrInvalidState)
	}
	return s.GetByID(ctx, id)
}

func (s *QuoteStore) List(ctx context.Context, f models.QuoteFilter) ([]models.QuoteRequest, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT" + quoteColumns + " FROM quote_requests")
	if f.Status != "" {
		queryBuilder.WriteString(" WHERE status = ?")
		args = append(args, f.Status)
	}

	limit, offset := NormalizePage(f.Limit, f.Offset)
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := querier(ctx, s.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, apperr.Persistence("list quotes", err)
	}
	defer rows.Close()

	quotes := []models.QuoteRequest{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, apperr.Persistence("list quotes", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list quotes", err)
	}
	return quotes, nil
}
