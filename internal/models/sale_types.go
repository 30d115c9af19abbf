package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the model for the 'sales' table.
// SalePrice, Cost and Margin are copies taken from the unit when the sale
// was recorded; later unit edits never reach them.
type Sale struct {
	ID           int64           `json:"id" db:"id"`
	UnitID       int64           `json:"unitId" db:"unit_id"`
	RecordedBy   int64           `json:"recordedBy" db:"recorded_by"`
	CustomerName string          `json:"customerName" db:"customer_name"`
	Notes        string          `json:"notes" db:"notes"`
	SalePrice    decimal.Decimal `json:"salePrice" db:"sale_price"`
	Cost         decimal.Decimal `json:"cost" db:"cost"`
	Margin       decimal.Decimal `json:"margin" db:"margin"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`

	// Populated for the sales-history view, not stored on the row.
	UnitSerial string `json:"unitSerial,omitempty" db:"-"`
	UnitModel  string `json:"unitModel,omitempty" db:"-"`
}

// RecordSaleInput is the typed payload for converting a unit into a sale.
type RecordSaleInput struct {
	UnitID       int64  `json:"unitId" binding:"required,gt=0"`
	CustomerName string `json:"customerName" binding:"required"`
	Notes        string `json:"notes"`
}

// UpdateSaleInput changes the customer-facing fields and, optionally, the
// sale price. Nil fields are left untouched.
type UpdateSaleInput struct {
	CustomerName *string          `json:"customerName"`
	Notes        *string          `json:"notes"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
}

// SaleFilter pages through the sales history.
type SaleFilter struct {
	Limit  int `form:"limit" binding:"gte=0"`
	Offset int `form:"offset" binding:"gte=0"`
}
