// Package repository persists the back-office entities. Each interface has
// a MySQL implementation (database/sql) and an in-memory one used for local
// demos and service tests.
package repository

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/01moynul/resell-golang/internal/repository AuditRepository,TxManager,UnitRepository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/01moynul/resell-golang/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Querier is the subset of *sql.DB and *sql.Tx the SQL repositories use,
// so every query can run in or out of a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs fn inside one atomic transaction. Repository calls made
// with the ctx handed to fn join that transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UnitRepository stores physical inventory units.
type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error
	GetByID(ctx context.Context, id int64) (*models.Unit, error)
	// GetForUpdate reads the unit and holds a row lock on it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Unit, error)
	Update(ctx context.Context, u *models.Unit) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f models.UnitFilter) ([]models.Unit, error)
}

// SaleRepository stores completed sales.
type SaleRepository interface {
	Create(ctx context.Context, s *models.Sale) error
	GetByID(ctx context.Context, id int64) (*models.Sale, error)
	Update(ctx context.Context, s *models.Sale) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f models.SaleFilter) ([]models.Sale, error)
	// CountByUnit is the consistency check for "a SOLD unit has exactly one
	// sale, an AVAILABLE unit none". Reconciliation jobs and tests use it;
	// the sale engine relies on the row lock instead.
	CountByUnit(ctx context.Context, unitID int64) (int, error)
}

// QuoteRepository stores trade-in quote requests.
type QuoteRepository interface {
	Create(ctx context.Context, q *models.QuoteRequest) error
	GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error)
	// Transition moves the quote to `to` only if its current status is one
	// of `from`. A non-nil finalPrice is stored with the move. It returns
	// apperr.ErrInvalidState when the guard does not hold.
	Transition(ctx context.Context, id int64, from []models.QuoteStatus, to models.QuoteStatus, finalPrice *decimal.Decimal) (*models.QuoteRequest, error)
	List(ctx context.Context, f models.QuoteFilter) ([]models.QuoteRequest, error)
}

// TicketRepository stores repair tickets.
type TicketRepository interface {
	Create(ctx context.Context, t *models.RepairTicket) error
	GetByID(ctx context.Context, id int64) (*models.RepairTicket, error)
	// UpdateStatus is a compare-and-set on the status column; a stale
	// `from` yields apperr.ErrInvalidState.
	UpdateStatus(ctx context.Context, id int64, from, to models.TicketStatus) (*models.RepairTicket, error)
	// Annotate sets the non-nil fields unless the ticket is READY or CANCELLED.
	Annotate(ctx context.Context, id int64, notes *string, estimatedCost *decimal.Decimal) (*models.RepairTicket, error)
	List(ctx context.Context, f models.TicketFilter) ([]models.RepairTicket, error)
}

// AuditRepository is the append-only audit trail.
type AuditRepository interface {
	Append(ctx context.Context, e *models.AuditLogEntry) error
	ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error)
}

// Repositories bundles one implementation of every repository plus the
// transaction manager that coordinates them.
type Repositories struct {
	Units   UnitRepository
	Sales   SaleRepository
	Quotes  QuoteRepository
	Tickets TicketRepository
	Audit   AuditRepository
	Tx      TxManager
}

// NormalizePage clamps limit/offset to sane values.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// containsIgnoreCase reports whether substr is within s, ignoring case.
// Characters in substr are literal, matching the escaped LIKE the MySQL
// store issues.
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern using the
// default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
