package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/metrics"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/sirupsen/logrus"
)

// SaleEngine is the only code path that moves a unit from AVAILABLE to SOLD.
type SaleEngine struct {
	units repository.UnitRepository
	sales repository.SaleRepository
	tx    repository.TxManager
	audit *AuditLog
	log   logrus.FieldLogger
}

func NewSaleEngine(units repository.UnitRepository, sales repository.SaleRepository, tx repository.TxManager, audit *AuditLog, log logrus.FieldLogger) *SaleEngine {
	return &SaleEngine{units: units, sales: sales, tx: tx, audit: audit, log: log}
}

// RecordSale sells one unit. The status check and the flip to SOLD happen
// under the unit's row lock in a single transaction, so of N concurrent
// callers for the same unit exactly one commits and the rest see
// ErrAlreadySold. The write is never retried.
func (e *SaleEngine) RecordSale(ctx context.Context, actorID int64, in models.RecordSaleInput) (*models.Sale, error) {
	if in.UnitID <= 0 {
		return nil, apperr.Invalid("unitId", "must be a positive id")
	}
	if err := requireText("customerName", in.CustomerName); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// 1. --- Lock the unit ---
		unit, err := e.units.GetForUpdate(ctx, in.UnitID)
		if err != nil {
			return err
		}

		// 2. --- Check ---
		if unit.Status != models.UnitAvailable {
			return fmt.Errorf("unit %d: %w", unit.ID, apperr.ErrAlreadySold)
		}

		// 3. --- Freeze the figures and insert the sale ---
		now := time.Now()
		s := &models.Sale{
			UnitID:       unit.ID,
			RecordedBy:   actorID,
			CustomerName: strings.TrimSpace(in.CustomerName),
			Notes:        in.Notes,
			SalePrice:    unit.Price,
			Cost:         unit.Cost,
			Margin:       unit.Price.Sub(unit.Cost),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := e.sales.Create(ctx, s); err != nil {
			return err
		}

		// 4. --- Flip the unit ---
		unit.Status = models.UnitSold
		unit.SoldAt = &now
		unit.UpdatedAt = now
		if err := e.units.Update(ctx, unit); err != nil {
			return err
		}

		s.UnitSerial = unit.Serial
		s.UnitModel = unit.Model
		sale = s
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadySold) {
			metrics.SaleConflicts.Inc()
			e.log.WithField("unit_id", in.UnitID).Info("sale rejected: unit already sold")
		}
		return nil, err
	}

	metrics.SalesRecorded.Inc()
	e.audit.Append(ctx, actorID, models.AuditCreate, models.EntitySale, sale.ID,
		fmt.Sprintf("unit=%d serial=%s price=%s margin=%s", sale.UnitID, sale.UnitSerial, sale.SalePrice.StringFixed(2), sale.Margin.StringFixed(2)))
	e.log.WithField("sale_id", sale.ID).
		WithField("unit_id", sale.UnitID).
		WithField("margin", sale.Margin.StringFixed(2)).
		Info("sale recorded")
	return sale, nil
}

func (e *SaleEngine) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	return readWithRetry(ctx, e.log, "get sale", func(ctx context.Context) (*models.Sale, error) {
		return e.sales.GetByID(ctx, id)
	})
}

// ListSales returns the sales history newest first.
func (e *SaleEngine) ListSales(ctx context.Context, f models.SaleFilter) ([]models.Sale, error) {
	f.Limit, f.Offset = repository.NormalizePage(f.Limit, f.Offset)
	return readWithRetry(ctx, e.log, "list sales", func(ctx context.Context) ([]models.Sale, error) {
		return e.sales.List(ctx, f)
	})
}

// UpdateSale edits the customer-facing fields. A new price recomputes the
// margin against the cost frozen on the sale; the unit is not consulted.
func (e *SaleEngine) UpdateSale(ctx context.Context, actorID, id int64, in models.UpdateSaleInput) (*models.Sale, error) {
	if in.CustomerName != nil && blank(*in.CustomerName) {
		return nil, apperr.Invalid("customerName", "must not be blank")
	}
	if err := checkAmount("salePrice", in.SalePrice); err != nil {
		return nil, err
	}

	sale, err := e.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CustomerName != nil {
		sale.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.Notes != nil {
		sale.Notes = *in.Notes
	}
	if in.SalePrice != nil {
		sale.SalePrice = *in.SalePrice
		sale.Margin = sale.SalePrice.Sub(sale.Cost)
	}
	sale.UpdatedAt = time.Now()

	if err := e.sales.Update(ctx, sale); err != nil {
		return nil, err
	}

	e.audit.Append(ctx, actorID, models.AuditUpdate, models.EntitySale, sale.ID,
		fmt.Sprintf("price=%s margin=%s", sale.SalePrice.StringFixed(2), sale.Margin.StringFixed(2)))
	e.log.WithField("sale_id", sale.ID).Info("sale updated")
	return sale, nil
}

// DeleteSale removes a sale and returns its unit to AVAILABLE in the same
// transaction, keeping "SOLD iff exactly one sale" intact.
func (e *SaleEngine) DeleteSale(ctx context.Context, actorID, id int64) error {
	var unitID int64
	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sale, err := e.sales.GetByID(ctx, id)
		if err != nil {
			return err
		}
		unitID = sale.UnitID

		// Lock the unit before touching the sale, the same order RecordSale uses.
		unit, err := e.units.GetForUpdate(ctx, sale.UnitID)
		if err != nil {
			return err
		}
		if err := e.sales.Delete(ctx, id); err != nil {
			return err
		}

		unit.Status = models.UnitAvailable
		unit.SoldAt = nil
		unit.UpdatedAt = time.Now()
		return e.units.Update(ctx, unit)
	})
	if err != nil {
		return err
	}

	e.audit.Append(ctx, actorID, models.AuditDelete, models.EntitySale, id, fmt.Sprintf("unit=%d reverted to AVAILABLE", unitID))
	e.log.WithField("sale_id", id).
		WithField("unit_id", unitID).
		Info("sale deleted")
	return nil
}
