package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnit(serial string, createdAt time.Time) *models.Unit {
	u := &models.Unit{
		Serial:    serial,
		Brand:     "Apple",
		BrandSlug: "apple",
		Model:     "iPhone 13",
		Cost:      decimal.NewFromInt(300),
		Price:     decimal.NewFromInt(500),
		Status:    models.UnitAvailable,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	u.Reprice()
	return u
}

func TestMemoryUnits_CRUD(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	u := newUnit("IMEI001", time.Now())
	require.NoError(t, repos.Units.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repos.Units.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "IMEI001", got.Serial)

	got.Price = decimal.NewFromInt(550)
	got.Reprice()
	require.NoError(t, repos.Units.Update(ctx, got))

	again, err := repos.Units.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, again.Margin.Equal(decimal.NewFromInt(250)))

	require.NoError(t, repos.Units.Delete(ctx, u.ID))
	_, err = repos.Units.GetByID(ctx, u.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMemoryUnits_DuplicateSerial(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	require.NoError(t, repos.Units.Create(ctx, newUnit("IMEI001", time.Now())))
	err := repos.Units.Create(ctx, newUnit("IMEI001", time.Now()))
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))

	// Serials collide regardless of case, like the unique index.
	err = repos.Units.Create(ctx, newUnit("imei001", time.Now()))
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))
}

func TestMemoryUnits_SearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()
	require.NoError(t, repos.Units.Create(ctx, newUnit("IMEI001", time.Now())))
	require.NoError(t, repos.Units.Create(ctx, newUnit("SN_50%", time.Now())))

	units, err := repos.Units.List(ctx, models.UnitFilter{Search: "_50%"})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "SN_50%", units[0].Serial)

	units, err = repos.Units.List(ctx, models.UnitFilter{Search: "%"})
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestMemoryUnits_ListFilteringAndOrder(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()
	base := time.Now()

	a := newUnit("AAA111", base)
	b := newUnit("BBB222", base.Add(time.Minute))
	c := newUnit("CCC333", base.Add(2*time.Minute))
	c.Brand, c.BrandSlug, c.Model = "Samsung", "samsung", "Galaxy S22"
	c.Status = models.UnitSold
	for _, u := range []*models.Unit{a, b, c} {
		require.NoError(t, repos.Units.Create(ctx, u))
	}

	all, err := repos.Units.List(ctx, models.UnitFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID, "newest first")
	assert.Equal(t, a.ID, all[2].ID)

	apple, _ := repos.Units.List(ctx, models.UnitFilter{Brand: "apple"})
	assert.Len(t, apple, 2)

	sold, _ := repos.Units.List(ctx, models.UnitFilter{Status: models.UnitSold})
	require.Len(t, sold, 1)
	assert.Equal(t, "CCC333", sold[0].Serial)

	search, _ := repos.Units.List(ctx, models.UnitFilter{Search: "galaxy"})
	assert.Len(t, search, 1)

	paged, _ := repos.Units.List(ctx, models.UnitFilter{Limit: 1, Offset: 1})
	require.Len(t, paged, 1)
	assert.Equal(t, b.ID, paged[0].ID)
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	u := newUnit("IMEI001", time.Now())
	require.NoError(t, repos.Units.Create(ctx, u))

	boom := errors.New("boom")
	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := repos.Units.GetForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		locked.Status = models.UnitSold
		if err := repos.Units.Update(ctx, locked); err != nil {
			return err
		}
		if err := repos.Sales.Create(ctx, &models.Sale{UnitID: u.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := repos.Units.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitAvailable, after.Status)

	n, err := repos.Sales.CountByUnit(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemorySales_OnePerUnit(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	require.NoError(t, repos.Sales.Create(ctx, &models.Sale{UnitID: 1}))
	err := repos.Sales.Create(ctx, &models.Sale{UnitID: 1})
	assert.True(t, errors.Is(err, apperr.ErrAlreadySold))
}

func TestMemoryQuotes_TransitionGuard(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	q := &models.QuoteRequest{Brand: "Apple", Model: "iPhone 12", Status: models.QuotePending}
	require.NoError(t, repos.Quotes.Create(ctx, q))

	price := decimal.NewFromInt(250)
	reviewed, err := repos.Quotes.Transition(ctx, q.ID, []models.QuoteStatus{models.QuotePending}, models.QuoteReviewed, &price)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteReviewed, reviewed.Status)
	require.NotNil(t, reviewed.FinalPrice)
	assert.True(t, reviewed.FinalPrice.Equal(price))

	_, err = repos.Quotes.Transition(ctx, q.ID, []models.QuoteStatus{models.QuotePending}, models.QuoteReviewed, &price)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	_, err = repos.Quotes.Transition(ctx, 99, []models.QuoteStatus{models.QuotePending}, models.QuoteReviewed, nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMemoryTickets_QueueFilter(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	for _, st := range []models.ServiceType{models.ServiceScreen, models.ServiceBattery, models.ServiceGeneral} {
		require.NoError(t, repos.Tickets.Create(ctx, &models.RepairTicket{ServiceType: st, Status: models.TicketReceived}))
	}

	bench, err := repos.Tickets.List(ctx, models.TicketFilter{Queue: models.QueueHardwareBench})
	require.NoError(t, err)
	assert.Len(t, bench, 2)

	desk, err := repos.Tickets.List(ctx, models.TicketFilter{Queue: models.QueueHelpDesk})
	require.NoError(t, err)
	require.Len(t, desk, 1)
	assert.Equal(t, models.QueueHelpDesk, desk[0].Queue)
}

func TestMemoryAudit_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := NewMemory()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, repos.Audit.Append(ctx, &models.AuditLogEntry{EntityID: i, Action: models.AuditCreate}))
	}
	entries, err := repos.Audit.ListRecent(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].EntityID)
	assert.Equal(t, int64(2), entries[1].EntityID)
}
