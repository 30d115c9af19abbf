package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitColumnNames = []string{
	"id", "serial", "brand", "brand_slug", "model", "color", "storage", "ram", "condition_grade",
	"cost", "price", "previous_price", "on_promotion", "margin",
	"status", "sold_at", "created_by", "created_at", "updated_at",
}

func unitRow(id int64, status models.UnitStatus) *sqlmock.Rows {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(unitColumnNames).AddRow(
		id, "IMEI001", "Apple", "apple", "iPhone 13", "Blue", "128GB", "4GB", "A",
		"300.00", "500.00", nil, false, "200.00",
		string(status), nil, int64(9), now, now,
	)
}

func newMock(t *testing.T) (*Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQL(db), mock
}

func TestUnitStore_GetForUpdateInsideTransaction(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM units WHERE id = \? FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(unitRow(1, models.UnitAvailable))
	mock.ExpectCommit()

	var locked *models.Unit
	err := repos.Tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		var err error
		locked, err = repos.Units.GetForUpdate(ctx, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, models.UnitAvailable, locked.Status)
	assert.True(t, locked.Cost.Equal(decimal.NewFromInt(300)))
	assert.True(t, locked.Margin.Equal(decimal.NewFromInt(200)))
	assert.Nil(t, locked.SoldAt)
	assert.Nil(t, locked.PreviousPrice)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTx_RollsBackOnError(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(1)).WillReturnRows(unitRow(1, models.UnitSold))
	mock.ExpectRollback()

	err := repos.Tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		u, err := repos.Units.GetForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		if u.Status != models.UnitAvailable {
			return apperr.ErrAlreadySold
		}
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadySold)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_GetByIDNotFound(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM units WHERE id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(unitColumnNames))

	_, err := repos.Units.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_CreateDuplicateSerial(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO units`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'IMEI001' for key 'uq_units_serial'"})

	u := newUnit("IMEI001", time.Now())
	err := repos.Units.Create(context.Background(), u)
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))
	assert.NotContains(t, err.Error(), "uq_units_serial")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_CreateSetsID(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO units`).WillReturnResult(sqlmock.NewResult(17, 1))

	u := newUnit("IMEI002", time.Now())
	require.NoError(t, repos.Units.Create(context.Background(), u))
	assert.Equal(t, int64(17), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_ListBuildsFilters(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("AND brand_slug = ? AND status = ? AND (serial LIKE ? OR brand LIKE ? OR model LIKE ?) ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs("apple", models.UnitAvailable, "%13%", "%13%", "%13%", DefaultLimit, 0).
		WillReturnRows(unitRow(1, models.UnitAvailable))

	units, err := repos.Units.List(context.Background(), models.UnitFilter{
		Brand:  "apple",
		Status: models.UnitAvailable,
		Search: "13",
	})
	require.NoError(t, err)
	assert.Len(t, units, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_ListEscapesLikeWildcards(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("(serial LIKE ? OR brand LIKE ? OR model LIKE ?)")).
		WithArgs(`%SN\_50\%\\x%`, `%SN\_50\%\\x%`, `%SN\_50\%\\x%`, DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(unitColumnNames))

	units, err := repos.Units.List(context.Background(), models.UnitFilter{Search: `SN_50%\x`})
	require.NoError(t, err)
	assert.Empty(t, units)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitStore_DeleteMissing(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM units WHERE id = \?`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repos.Units.Delete(context.Background(), 5)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleStore_DuplicateUnitIsAlreadySold(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO sales`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'uq_sales_unit'"})

	err := repos.Sales.Create(context.Background(), &models.Sale{UnitID: 1})
	assert.True(t, errors.Is(err, apperr.ErrAlreadySold))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleStore_CountByUnit(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sales WHERE unit_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	n, err := repos.Sales.CountByUnit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleStore_PersistenceErrorIsSanitised(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO sales`).WillReturnError(errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	err := repos.Sales.Create(context.Background(), &models.Sale{UnitID: 1})
	assert.True(t, errors.Is(err, apperr.ErrPersistence))
	assert.Equal(t, "failed to save sale", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteStore_TransitionGuardFails(t *testing.T) {
	repos, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(`UPDATE quote_requests`).
		WithArgs(models.QuoteReviewed, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3), models.QuotePending, models.QuoteReviewed).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM quote_requests WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "brand", "model", "storage", "condition_grade", "details", "images",
			"contact_name", "contact_phone", "contact_email", "user_id",
			"status", "final_price", "created_at", "updated_at",
		}).AddRow(
			int64(3), "Apple", "iPhone 12", "64GB", "B", "", []byte(`["https://cdn.example.com/a.jpg"]`),
			"Ana", "555-0100", "", nil,
			string(models.QuoteCompleted), "250.00", now, now,
		))

	price := decimal.NewFromInt(300)
	_, err := repos.Quotes.Transition(context.Background(), 3,
		[]models.QuoteStatus{models.QuotePending, models.QuoteReviewed}, models.QuoteReviewed, &price)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketStore_ListByQueue(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("AND service_type IN (?, ?)")).
		WithArgs(models.ServiceScreen, models.ServiceBattery, DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ticket_number", "device_model", "service_type", "issue_description",
			"staff_notes", "estimated_cost", "status", "owner_id", "created_at", "updated_at",
		}).AddRow(
			int64(1), "REP-261001-120000-ab12", "Galaxy S21", "SCREEN", "cracked",
			nil, nil, "RECEIVED", int64(4), time.Now(), time.Now(),
		))

	tickets, err := repos.Tickets.List(context.Background(), models.TicketFilter{Queue: models.QueueHardwareBench})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, models.QueueHardwareBench, tickets[0].Queue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStore_AppendBypassesTransaction(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repos.Tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := repos.Audit.Append(ctx, &models.AuditLogEntry{Action: models.AuditCreate}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
