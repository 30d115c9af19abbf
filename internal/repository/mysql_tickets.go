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

// TicketStore is the MySQL TicketRepository.
type TicketStore struct {
	db *sql.DB
}

var _ TicketRepository = (*TicketStore)(nil)

const ticketColumns = `
	id, ticket_number, device_model, service_type, issue_description,
	staff_notes, estimated_cost, status, owner_id, created_at, updated_at`

func scanTicket(r rowScanner) (*models.RepairTicket, error) {
	var t models.RepairTicket
	var notes sql.NullString
	var estimate decimal.NullDecimal

	err := r.Scan(
		&t.ID, &t.TicketNumber, &t.DeviceModel, &t.ServiceType, &t.IssueDescription,
		&notes, &estimate, &t.Status, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		n := notes.String
		t.StaffNotes = &n
	}
	if estimate.Valid {
		t.EstimatedCost = &estimate.Decimal
	}
	t.Queue = t.ServiceType.Queue()
	return &t, nil
}

func (s *TicketStore) Create(ctx context.Context, t *models.RepairTicket) error {
	query := `
		INSERT INTO repair_tickets
		(ticket_number, device_model, service_type, issue_description,
		 staff_notes, estimated_cost, status, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var notes sql.NullString
	if t.StaffNotes != nil {
		notes = sql.NullString{String: *t.StaffNotes, Valid: true}
	}

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		t.TicketNumber, t.DeviceModel, t.ServiceType, t.IssueDescription,
		notes, nullDecimal(t.EstimatedCost), t.Status, t.OwnerID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return translate("open ticket", "ticket", 0, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Persistence("open ticket", err)
	}
	t.ID = id
	t.Queue = t.ServiceType.Queue()
	return nil
}

func (s *TicketStore) GetByID(ctx context.Context, id int64) (*models.RepairTicket, error) {
	row := querier(ctx, s.db).QueryRowContext(ctx, "SELECT"+ticketColumns+" FROM repair_tickets WHERE id = ?", id)
	t, err := scanTicket(row)
	if err != nil {
		return nil, translate("get ticket", "ticket", id, err)
	}
	return t, nil
}

func (s *TicketStore) UpdateStatus(ctx context.Context, id int64, from, to models.TicketStatus) (*models.RepairTicket, error) {
	query := "UPDATE repair_tickets SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	res, err := querier(ctx, s.db).ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return nil, apperr.Persistence("update ticket", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Persistence("update ticket", err)
	}
	if n == 0 {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ticket %d is %s: %w", id, current.Status, apperr.ErrInvalidState)
	}
	return s.GetByID(ctx, id)
}

func (s *TicketStore) Annotate(ctx context.Context, id int64, notes *string, estimatedCost *decimal.Decimal) (*models.RepairTicket, error) {
	var dbNotes sql.NullString
	if notes != nil {
		dbNotes = sql.NullString{String: *notes, Valid: true}
	}

	query := `
		UPDATE repair_tickets
		SET staff_notes = COALESCE(?, staff_notes), estimated_cost = COALESCE(?, estimated_cost), updated_at = ?
		WHERE id = ? AND status NOT IN (?, ?)`

	res, err := querier(ctx, s.db).ExecContext(ctx, query,
		dbNotes, nullDecimal(estimatedCost), time.Now(), id, models.TicketReady, models.TicketCancelled,
	)
	if err != nil {
		return nil, apperr.Persistence("annotate ticket", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Persistence("annotate ticket", err)
	}
	if n == 0 {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ticket %d is %s: %w", id, current.Status, apperr.ErrInvalidState)
	}
	return s.GetByID(ctx, id)
}

func (s *TicketStore) List(ctx context.Context, f models.TicketFilter) ([]models.RepairTicket, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT" + ticketColumns + " FROM repair_tickets WHERE 1 = 1")

	if types := f.Queue.ServiceTypes(); len(types) > 0 {
		queryBuilder.WriteString(" AND service_type IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(types)), ", ") + ")")
		for _, st := range types {
			args = append(args, st)
		}
	}
	if f.ServiceType != "" {
		queryBuilder.WriteString(" AND service_type = ?")
		args = append(args, f.ServiceType)
	}
	if f.Status != "" {
		queryBuilder.WriteString(" AND status = ?")
		args = append(args, f.Status)
	}

	limit, offset := NormalizePage(f.Limit, f.Offset)
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := querier(ctx, s.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, apperr.Persistence("list tickets", err)
	}
	defer rows.Close()

	tickets := []models.RepairTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, apperr.Persistence("list tickets", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list tickets", err)
	}
	return tickets, nil
}
