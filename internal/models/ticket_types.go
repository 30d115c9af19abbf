package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType classifies a repair ticket.
type ServiceType string

const (
	ServiceScreen  ServiceType = "SCREEN"
	ServiceBattery ServiceType = "BATTERY"
	ServiceGeneral ServiceType = "GENERAL"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	return t == ServiceScreen || t == ServiceBattery || t == ServiceGeneral
}

// Queue is the operational queue a ticket shows up in. It is derived from
// the service type and never stored.
type Queue string

const (
	QueueHardwareBench Queue = "HARDWARE_BENCH"
	QueueHelpDesk      Queue = "HELP_DESK"
)

// Queue routes GENERAL tickets to the help desk and everything else to the bench.
func (t ServiceType) Queue() Queue {
	if t == ServiceGeneral {
		return QueueHelpDesk
	}
	return QueueHardwareBench
}

// ServiceTypes returns the service types served by q.
func (q Queue) ServiceTypes() []ServiceType {
	switch q {
	case QueueHelpDesk:
		return []ServiceType{ServiceGeneral}
	case QueueHardwareBench:
		return []ServiceType{ServiceScreen, ServiceBattery}
	}
	return nil
}

// TicketStatus is the stage of a repair ticket.
type TicketStatus string

const (
	TicketReceived   TicketStatus = "RECEIVED"
	TicketDiagnosing TicketStatus = "DIAGNOSING"
	TicketRepairing  TicketStatus = "REPAIRING"
	TicketReady      TicketStatus = "READY"
	TicketCancelled  TicketStatus = "CANCELLED"
)

var ticketPipeline = map[TicketStatus]TicketStatus{
	TicketReceived:   TicketDiagnosing,
	TicketDiagnosing: TicketRepairing,
	TicketRepairing:  TicketReady,
}

// Next returns the only stage a ticket in s may advance to.
func (s TicketStatus) Next() (TicketStatus, bool) {
	next, ok := ticketPipeline[s]
	return next, ok
}

// Terminal reports whether s is READY or CANCELLED.
func (s TicketStatus) Terminal() bool {
	return s == TicketReady || s == TicketCancelled
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketReceived, TicketDiagnosing, TicketRepairing, TicketReady, TicketCancelled:
		return true
	}
	return false
}

// RepairTicket is the model for the 'repair_tickets' table.
type RepairTicket struct {
	ID               int64            `json:"id" db:"id"`
	TicketNumber     string           `json:"ticketNumber" db:"ticket_number"`
	DeviceModel      string           `json:"deviceModel" db:"device_model"`
	ServiceType      ServiceType      `json:"serviceType" db:"service_type"`
	IssueDescription string           `json:"issueDescription" db:"issue_description"`
	StaffNotes       *string          `json:"staffNotes,omitempty" db:"staff_notes"`
	EstimatedCost    *decimal.Decimal `json:"estimatedCost,omitempty" db:"estimated_cost"`
	Status           TicketStatus     `json:"status" db:"status"`
	OwnerID          int64            `json:"ownerId" db:"owner_id"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`

	// Derived from ServiceType.
	Queue Queue `json:"queue" db:"-"`
}

// OpenTicketInput is the public support form payload.
type OpenTicketInput struct {
	DeviceModel      string      `json:"deviceModel" binding:"required"`
	ServiceType      ServiceType `json:"serviceType" binding:"required,oneof=SCREEN BATTERY GENERAL"`
	IssueDescription string      `json:"issueDescription" binding:"required"`
}

// AdvanceTicketInput names the stage to move to.
type AdvanceTicketInput struct {
	Status TicketStatus `json:"status" binding:"required"`
}

// AnnotateTicketInput records staff notes and an estimate. Nil fields are
// left untouched.
type AnnotateTicketInput struct {
	StaffNotes    *string          `json:"staffNotes"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost"`
}

// TicketFilter narrows the admin ticket views.
type TicketFilter struct {
	Queue       Queue        `form:"queue"`
	ServiceType ServiceType  `form:"serviceType"`
	Status      TicketStatus `form:"status"`
	Limit       int          `form:"limit" binding:"gte=0"`
	Offset      int          `form:"offset" binding:"gte=0"`
}
