package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus is the state of a trade-in quote request.
type QuoteStatus string

const (
	QuotePending   QuoteStatus = "PENDING"
	QuoteReviewed  QuoteStatus = "REVIEWED"
	QuoteCompleted QuoteStatus = "COMPLETED"
	QuoteRejected  QuoteStatus = "REJECTED"
)

// Terminal reports whether no further mutation is allowed.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteCompleted || s == QuoteRejected
}

// Valid reports whether s is a known status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteReviewed, QuoteCompleted, QuoteRejected:
		return true
	}
	return false
}

// QuoteRequest is the model for the 'quote_requests' table.
// FinalPrice stays nil while the quote is PENDING.
type QuoteRequest struct {
	ID           int64            `json:"id" db:"id"`
	Brand        string           `json:"brand" db:"brand"`
	Model        string           `json:"model" db:"model"`
	Storage      string           `json:"storage" db:"storage"`
	Condition    string           `json:"condition" db:"condition_grade"`
	Details      string           `json:"details" db:"details"`
	Images       []string         `json:"images" db:"images"` // Stored as JSON in DB
	ContactName  string           `json:"contactName" db:"contact_name"`
	ContactPhone string           `json:"contactPhone" db:"contact_phone"`
	ContactEmail string           `json:"contactEmail" db:"contact_email"`
	UserID       *int64           `json:"userId,omitempty" db:"user_id"`
	Status       QuoteStatus      `json:"status" db:"status"`
	FinalPrice   *decimal.Decimal `json:"finalPrice" db:"final_price"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// SubmitQuoteInput is the public trade-in form payload. Images are URLs
// returned by the upload service.
type SubmitQuoteInput struct {
	Brand        string   `json:"brand" binding:"required"`
	Model        string   `json:"model" binding:"required"`
	Storage      string   `json:"storage"`
	Condition    string   `json:"condition"`
	Details      string   `json:"details"`
	Images       []string `json:"images" binding:"omitempty,dive,url"`
	ContactName  string   `json:"contactName" binding:"required"`
	ContactPhone string   `json:"contactPhone"`
	ContactEmail string   `json:"contactEmail" binding:"omitempty,email"`
}

// ReviewQuoteInput sets the offered price.
type ReviewQuoteInput struct {
	FinalPrice *decimal.Decimal `json:"finalPrice" binding:"required"`
}

// CloseQuoteInput moves a quote to a terminal outcome.
type CloseQuoteInput struct {
	Outcome QuoteStatus `json:"outcome" binding:"required,oneof=COMPLETED REJECTED"`
}

// QuoteFilter narrows the admin review list.
type QuoteFilter struct {
	Status QuoteStatus `form:"status"`
	Limit  int         `form:"limit" binding:"gte=0"`
	Offset int         `form:"offset" binding:"gte=0"`
}
