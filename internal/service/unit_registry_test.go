package service

import (
	"context"
	"errors"
	"testing"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/01moynul/resell-golang/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCreateUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Units.CreateUnit(ctx, staffID, models.CreateUnitInput{
		Serial: " IMEI001 ",
		Brand:  "Apple Inc",
		Model:  "iPhone 13",
		Cost:   money(300),
		Price:  money(500),
	})
	require.NoError(t, err)
	assert.Equal(t, "IMEI001", u.Serial)
	assert.Equal(t, "apple-inc", u.BrandSlug)
	assert.Equal(t, models.UnitAvailable, u.Status)
	assert.True(t, u.Margin.Equal(decimal.NewFromInt(200)))
	assert.Nil(t, u.SoldAt)
	assert.Equal(t, staffID, u.CreatedBy)

	entries, err := f.svc.Audit.ListRecent(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditCreate, entries[0].Action)
	assert.Equal(t, models.EntityUnit, entries[0].EntityType)
	assert.Equal(t, u.ID, entries[0].EntityID)
}

func TestCreateUnit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]models.CreateUnitInput{
		"blank serial":   {Serial: " ", Brand: "Apple", Model: "X", Cost: money(1), Price: money(2)},
		"missing brand":  {Serial: "S1", Model: "X", Cost: money(1), Price: money(2)},
		"missing cost":   {Serial: "S1", Brand: "Apple", Model: "X", Price: money(2)},
		"negative price": {Serial: "S1", Brand: "Apple", Model: "X", Cost: money(1), Price: money(-2)},
		"negative prev":  {Serial: "S1", Brand: "Apple", Model: "X", Cost: money(1), Price: money(2), PreviousPrice: money(-5)},
		"sub-cent cost":  {Serial: "S1", Brand: "Apple", Model: "X", Cost: amount("0.006"), Price: amount("1.004")},
		"price overflow": {Serial: "S1", Brand: "Apple", Model: "X", Cost: money(1), Price: amount("99999999999")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Units.CreateUnit(ctx, staffID, in)
			var ve *apperr.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateUnit_DuplicateSerial(t *testing.T) {
	f := newFixture(t)
	f.createUnit(t, "IMEI001")

	_, err := f.svc.Units.CreateUnit(context.Background(), staffID, models.CreateUnitInput{
		Serial: "IMEI001", Brand: "Apple", Model: "iPhone 13", Cost: money(1), Price: money(2),
	})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestUpdateUnit_RecomputesMargin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUnit(t, "IMEI001")

	updated, err := f.svc.Units.UpdateUnit(ctx, staffID, u.ID, models.UpdateUnitInput{
		Price:       money(650),
		Brand:       str("Samsung"),
		OnPromotion: func() *bool { b := true; return &b }(),
	})
	require.NoError(t, err)
	assert.True(t, updated.Margin.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, "samsung", updated.BrandSlug)
	assert.True(t, updated.OnPromotion)
	assert.Equal(t, "IMEI001", updated.Serial)

	_, err = f.svc.Units.UpdateUnit(ctx, staffID, 999, models.UpdateUnitInput{Price: money(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var ve *apperr.ValidationError
	_, err = f.svc.Units.UpdateUnit(ctx, staffID, u.ID, models.UpdateUnitInput{Model: str("")})
	assert.ErrorAs(t, err, &ve)
}

func TestDeleteUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	available := f.createUnit(t, "IMEI001")
	sold := f.createUnit(t, "IMEI002")

	_, err := f.svc.Sales.RecordSale(ctx, staffID, models.RecordSaleInput{UnitID: sold.ID, CustomerName: "Jane Doe"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Units.DeleteUnit(ctx, staffID, sold.ID), apperr.ErrInvalidState)
	require.NoError(t, f.svc.Units.DeleteUnit(ctx, staffID, available.ID))

	_, err = f.svc.Units.GetUnit(ctx, available.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	entries, err := f.svc.Audit.ListRecent(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, models.AuditDelete, entries[0].Action)
}

func TestListUnits_BrandMatchedBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUnit(t, "IMEI001")
	_, err := f.svc.Units.CreateUnit(ctx, staffID, models.CreateUnitInput{
		Serial: "IMEI002", Brand: "Samsung", Model: "Galaxy S22", Cost: money(200), Price: money(350),
	})
	require.NoError(t, err)

	units, err := f.svc.Units.ListUnits(ctx, models.UnitFilter{Brand: "APPLE"})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "IMEI001", units[0].Serial)

	units, err = f.svc.Units.ListUnits(ctx, models.UnitFilter{Search: "galaxy"})
	require.NoError(t, err)
	require.Len(t, units, 1)

	_, err = f.svc.Units.ListUnits(ctx, models.UnitFilter{Status: "LOST"})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGetUnit_RetriesOnceOnPersistenceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitRepository(ctrl)
	log, hook := test.NewNullLogger()
	repos := repository.NewMemory()
	registry := NewUnitRegistry(units, repos.Tx, NewAuditLog(repos.Audit, log), log)

	want := &models.Unit{ID: 5, Serial: "IMEI005"}
	gomock.InOrder(
		units.EXPECT().GetByID(gomock.Any(), int64(5)).Return(nil, apperr.Persistence("get unit", errors.New("bad connection"))),
		units.EXPECT().GetByID(gomock.Any(), int64(5)).Return(want, nil),
	)

	got, err := registry.GetUnit(context.Background(), 5)
	require.NoError(t, err)
	assert.Same(t, want, got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "read failed, retrying once", hook.LastEntry().Message)
}

func TestGetUnit_DoesNotRetryBusinessErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitRepository(ctrl)
	log, _ := test.NewNullLogger()
	repos := repository.NewMemory()
	registry := NewUnitRegistry(units, repos.Tx, NewAuditLog(repos.Audit, log), log)

	units.EXPECT().GetByID(gomock.Any(), int64(5)).Return(nil, apperr.NotFound("unit", 5)).Times(1)

	_, err := registry.GetUnit(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
