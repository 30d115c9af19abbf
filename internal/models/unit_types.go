package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitStatus is the lifecycle state of a physical unit.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitSold      UnitStatus = "SOLD"
)

// Valid reports whether s is a known status.
func (s UnitStatus) Valid() bool {
	return s == UnitAvailable || s == UnitSold
}

// Unit is the model for the 'units' table: one row per physical device,
// identified by its IMEI.
type Unit struct {
	ID        int64  `json:"id" db:"id"`
	Serial    string `json:"serial" db:"serial"`
	Brand     string `json:"brand" db:"brand"`
	BrandSlug string `json:"brandSlug" db:"brand_slug"`
	Model     string `json:"model" db:"model"`
	Color     string `json:"color" db:"color"`
	Storage   string `json:"storage" db:"storage"`
	RAM       string `json:"ram" db:"ram"`
	Condition string `json:"condition" db:"condition_grade"`

	// --- Pricing ---
	Cost          decimal.Decimal  `json:"cost" db:"cost"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	PreviousPrice *decimal.Decimal `json:"previousPrice,omitempty" db:"previous_price"`
	OnPromotion   bool             `json:"onPromotion" db:"on_promotion"`
	Margin        decimal.Decimal  `json:"margin" db:"margin"`

	Status    UnitStatus `json:"status" db:"status"`
	SoldAt    *time.Time `json:"soldAt,omitempty" db:"sold_at"`
	CreatedBy int64      `json:"createdBy" db:"created_by"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Reprice recomputes the derived margin. Every write path calls it.
func (u *Unit) Reprice() {
	u.Margin = u.Price.Sub(u.Cost)
}

// --- Operation Inputs ---

// CreateUnitInput is the typed payload for registering a unit.
type CreateUnitInput struct {
	Serial        string           `json:"serial" binding:"required"`
	Brand         string           `json:"brand" binding:"required"`
	Model         string           `json:"model" binding:"required"`
	Color         string           `json:"color"`
	Storage       string           `json:"storage"`
	RAM           string           `json:"ram"`
	Condition     string           `json:"condition"`
	Cost          *decimal.Decimal `json:"cost" binding:"required"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	PreviousPrice *decimal.Decimal `json:"previousPrice"`
	OnPromotion   bool             `json:"onPromotion"`
}

// UpdateUnitInput carries a partial update. Nil fields are left untouched.
// The serial is immutable and therefore absent.
type UpdateUnitInput struct {
	Brand         *string          `json:"brand"`
	Model         *string          `json:"model"`
	Color         *string          `json:"color"`
	Storage       *string          `json:"storage"`
	RAM           *string          `json:"ram"`
	Condition     *string          `json:"condition"`
	Cost          *decimal.Decimal `json:"cost"`
	Price         *decimal.Decimal `json:"price"`
	PreviousPrice *decimal.Decimal `json:"previousPrice"`
	OnPromotion   *bool            `json:"onPromotion"`
}

// UnitFilter narrows ListUnits. Zero values mean "no filter".
type UnitFilter struct {
	Brand  string     `form:"brand"`
	Status UnitStatus `form:"status"`
	Search string     `form:"q"`
	Limit  int        `form:"limit" binding:"gte=0"`
	Offset int        `form:"offset" binding:"gte=0"`
}
