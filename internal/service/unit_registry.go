package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

// UnitRegistry is the inventory of physical units.
type UnitRegistry struct {
	units repository.UnitRepository
	tx    repository.TxManager
	audit *AuditLog
	log   logrus.FieldLogger
}

func NewUnitRegistry(units repository.UnitRepository, tx repository.TxManager, audit *AuditLog, log logrus.FieldLogger) *UnitRegistry {
	return &UnitRegistry{units: units, tx: tx, audit: audit, log: log}
}

// CreateUnit registers a new AVAILABLE unit. Serial uniqueness is left to
// the store's unique index.
func (r *UnitRegistry) CreateUnit(ctx context.Context, actorID int64, in models.CreateUnitInput) (*models.Unit, error) {
	// 1. --- Validate ---
	if err := requireText("serial", in.Serial); err != nil {
		return nil, err
	}
	if err := requireText("brand", in.Brand); err != nil {
		return nil, err
	}
	if err := requireText("model", in.Model); err != nil {
		return nil, err
	}
	if err := requireAmount("cost", in.Cost); err != nil {
		return nil, err
	}
	if err := requireAmount("price", in.Price); err != nil {
		return nil, err
	}
	if err := checkAmount("previousPrice", in.PreviousPrice); err != nil {
		return nil, err
	}

	// 2. --- Build ---
	now := time.Now()
	brand := strings.TrimSpace(in.Brand)
	unit := &models.Unit{
		Serial:        strings.TrimSpace(in.Serial),
		Brand:         brand,
		BrandSlug:     slug.Make(brand),
		Model:         strings.TrimSpace(in.Model),
		Color:         in.Color,
		Storage:       in.Storage,
		RAM:           in.RAM,
		Condition:     in.Condition,
		Cost:          *in.Cost,
		Price:         *in.Price,
		PreviousPrice: in.PreviousPrice,
		OnPromotion:   in.OnPromotion,
		Status:        models.UnitAvailable,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	unit.Reprice()

	// 3. --- Persist ---
	if err := r.units.Create(ctx, unit); err != nil {
		return nil, err
	}

	r.audit.Append(ctx, actorID, models.AuditCreate, models.EntityUnit, unit.ID,
		fmt.Sprintf("serial=%s price=%s cost=%s", unit.Serial, unit.Price.StringFixed(2), unit.Cost.StringFixed(2)))
	r.log.WithField("unit_id", unit.ID).
		WithField("serial", unit.Serial).
		Info("unit created")
	return unit, nil
}

func (r *UnitRegistry) GetUnit(ctx context.Context, id int64) (*models.Unit, error) {
	return readWithRetry(ctx, r.log, "get unit", func(ctx context.Context) (*models.Unit, error) {
		return r.units.GetByID(ctx, id)
	})
}

// UpdateUnit applies the non-nil fields of in. The row is locked for the
// read-modify-write so a concurrent sale's status flip is never overwritten.
// Existing sales keep their frozen figures.
func (r *UnitRegistry) UpdateUnit(ctx context.Context, actorID, id int64, in models.UpdateUnitInput) (*models.Unit, error) {
	if in.Brand != nil && blank(*in.Brand) {
		return nil, apperr.Invalid("brand", "must not be blank")
	}
	if in.Model != nil && blank(*in.Model) {
		return nil, apperr.Invalid("model", "must not be blank")
	}
	if err := checkAmount("cost", in.Cost); err != nil {
		return nil, err
	}
	if err := checkAmount("price", in.Price); err != nil {
		return nil, err
	}
	if err := checkAmount("previousPrice", in.PreviousPrice); err != nil {
		return nil, err
	}

	var updated *models.Unit
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		unit, err := r.units.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if in.Brand != nil {
			unit.Brand = strings.TrimSpace(*in.Brand)
			unit.BrandSlug = slug.Make(unit.Brand)
		}
		if in.Model != nil {
			unit.Model = strings.TrimSpace(*in.Model)
		}
		if in.Color != nil {
			unit.Color = *in.Color
		}
		if in.Storage != nil {
			unit.Storage = *in.Storage
		}
		if in.RAM != nil {
			unit.RAM = *in.RAM
		}
		if in.Condition != nil {
			unit.Condition = *in.Condition
		}
		if in.Cost != nil {
			unit.Cost = *in.Cost
		}
		if in.Price != nil {
			unit.Price = *in.Price
		}
		if in.PreviousPrice != nil {
			unit.PreviousPrice = in.PreviousPrice
		}
		if in.OnPromotion != nil {
			unit.OnPromotion = *in.OnPromotion
		}
		unit.Reprice()
		unit.UpdatedAt = time.Now()

		if err := r.units.Update(ctx, unit); err != nil {
			return err
		}
		updated = unit
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.audit.Append(ctx, actorID, models.AuditUpdate, models.EntityUnit, id,
		fmt.Sprintf("price=%s cost=%s", updated.Price.StringFixed(2), updated.Cost.StringFixed(2)))
	r.log.WithField("unit_id", id).Info("unit updated")
	return updated, nil
}

// DeleteUnit hard-deletes an AVAILABLE unit. A SOLD unit is referenced by
// its sale and is refused with ErrInvalidState.
func (r *UnitRegistry) DeleteUnit(ctx context.Context, actorID, id int64) error {
	var serial string
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		unit, err := r.units.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if unit.Status == models.UnitSold {
			return fmt.Errorf("unit %d is sold: %w", id, apperr.ErrInvalidState)
		}
		serial = unit.Serial
		return r.units.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	r.audit.Append(ctx, actorID, models.AuditDelete, models.EntityUnit, id, "serial="+serial)
	r.log.WithField("unit_id", id).Info("unit deleted")
	return nil
}

// ListUnits returns units newest first. The brand filter is compared by slug.
func (r *UnitRegistry) ListUnits(ctx context.Context, f models.UnitFilter) ([]models.Unit, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown unit status")
	}
	if f.Brand != "" {
		f.Brand = slug.Make(f.Brand)
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Limit, f.Offset = repository.NormalizePage(f.Limit, f.Offset)

	return readWithRetry(ctx, r.log, "list units", func(ctx context.Context) ([]models.Unit, error) {
		return r.units.List(ctx, f)
	})
}
