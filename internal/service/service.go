// Package service holds the back-office operations: the unit registry, the
// sale engine, the trade-in and repair workflows and the audit log. Every
// service takes its repositories and logger at construction and knows
// nothing about HTTP.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Services bundles one instance of each service, sharing one audit log.
type Services struct {
	Units   *UnitRegistry
	Sales   *SaleEngine
	TradeIn *TradeInService
	Repair  *RepairService
	Audit   *AuditLog
}

// New wires every service onto repos.
func New(repos *repository.Repositories, log logrus.FieldLogger) *Services {
	audit := NewAuditLog(repos.Audit, log)
	return &Services{
		Units:   NewUnitRegistry(repos.Units, repos.Tx, audit, log),
		Sales:   NewSaleEngine(repos.Units, repos.Sales, repos.Tx, audit, log),
		TradeIn: NewTradeInService(repos.Quotes, log),
		Repair:  NewRepairService(repos.Tickets, log),
		Audit:   audit,
	}
}

// readWithRetry runs an idempotent read and repeats it once when the store
// reports a persistence failure. Writes never go through here.
func readWithRetry[T any](ctx context.Context, log logrus.FieldLogger, op string, read func(context.Context) (T, error)) (T, error) {
	v, err := read(ctx)
	if err == nil || !errors.Is(err, apperr.ErrPersistence) || ctx.Err() != nil {
		return v, err
	}
	log.WithError(err).WithField("op", op).Warn("read failed, retrying once")
	return read(ctx)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func requireText(field, value string) error {
	if blank(value) {
		return apperr.Invalid(field, "is required")
	}
	return nil
}

func requireAmount(field string, d *decimal.Decimal) error {
	if d == nil {
		return apperr.Invalid(field, "is required")
	}
	return checkAmount(field, d)
}

// maxAmount is the first value a DECIMAL(12,2) column cannot hold.
var maxAmount = decimal.New(1, 10)

// checkAmount accepts nil. Amounts must be storable as DECIMAL(12,2)
// without rounding, so margins computed here match what the store keeps.
func checkAmount(field string, d *decimal.Decimal) error {
	switch {
	case d == nil:
		return nil
	case d.IsNegative():
		return apperr.Invalid(field, "must not be negative")
	case !d.Equal(d.Round(2)):
		return apperr.Invalid(field, "must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		return apperr.Invalid(field, "is too large")
	}
	return nil
}
