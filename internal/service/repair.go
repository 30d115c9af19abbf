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
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const ticketNumberAttempts = 3

// RepairService tracks devices through RECEIVED -> DIAGNOSING -> REPAIRING -> READY.
type RepairService struct {
	tickets repository.TicketRepository
	log     logrus.FieldLogger
}

func NewRepairService(tickets repository.TicketRepository, log logrus.FieldLogger) *RepairService {
	return &RepairService{tickets: tickets, log: log}
}

// NewTicketNumber formats REP-YYMMDD-HHMMSS-XXXX. The random suffix makes
// collisions unlikely, not impossible; the unique index catches the rest.
func NewTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("REP-%s-%s", now.Format("060102-150405"), suffix)
}

// OpenTicket creates a RECEIVED ticket with a fresh display number.
func (s *RepairService) OpenTicket(ctx context.Context, ownerID int64, in models.OpenTicketInput) (*models.RepairTicket, error) {
	if err := requireText("deviceModel", in.DeviceModel); err != nil {
		return nil, err
	}
	if !in.ServiceType.Valid() {
		return nil, apperr.Invalid("serviceType", "must be SCREEN, BATTERY or GENERAL")
	}
	if err := requireText("issueDescription", in.IssueDescription); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		now := time.Now()
		t := &models.RepairTicket{
			TicketNumber:     NewTicketNumber(now),
			DeviceModel:      strings.TrimSpace(in.DeviceModel),
			ServiceType:      in.ServiceType,
			IssueDescription: strings.TrimSpace(in.IssueDescription),
			Status:           models.TicketReceived,
			OwnerID:          ownerID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err = s.tickets.Create(ctx, t); err == nil {
			metrics.TicketTransitions.WithLabelValues(string(models.TicketReceived)).Inc()
			s.log.WithField("ticket_id", t.ID).
				WithField("ticket_number", t.TicketNumber).
				WithField("queue", t.Queue).
				Info("repair ticket opened")
			return t, nil
		}
		if !errors.Is(err, apperr.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, err
}

// AdvanceTicket moves the ticket exactly one stage forward. Skips, moves
// backwards and moves out of a terminal state fail with
// ErrInvalidTransition.
func (s *RepairService) AdvanceTicket(ctx context.Context, id int64, next models.TicketStatus) (*models.RepairTicket, error) {
	if !next.Valid() {
		return nil, apperr.Invalid("status", "unknown ticket status")
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected, ok := current.Status.Next()
	if !ok || next != expected {
		return nil, fmt.Errorf("ticket %d cannot move from %s to %s: %w", id, current.Status, next, apperr.ErrInvalidTransition)
	}

	t, err := s.tickets.UpdateStatus(ctx, id, current.Status, next)
	if err != nil {
		// Someone else moved it between our read and the conditional update.
		if errors.Is(err, apperr.ErrInvalidState) {
			return nil, fmt.Errorf("ticket %d changed concurrently: %w", id, apperr.ErrInvalidTransition)
		}
		return nil, err
	}

	metrics.TicketTransitions.WithLabelValues(string(next)).Inc()
	s.log.WithField("ticket_id", id).
		WithField("from", current.Status).
		WithField("to", next).
		Info("repair ticket advanced")
	return t, nil
}

// CancelTicket ends a ticket that is not yet READY.
func (s *RepairService) CancelTicket(ctx context.Context, id int64) (*models.RepairTicket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("ticket %d is %s: %w", id, current.Status, apperr.ErrInvalidTransition)
	}

	t, err := s.tickets.UpdateStatus(ctx, id, current.Status, models.TicketCancelled)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			return nil, fmt.Errorf("ticket %d changed concurrently: %w", id, apperr.ErrInvalidTransition)
		}
		return nil, err
	}

	metrics.TicketTransitions.WithLabelValues(string(models.TicketCancelled)).Inc()
	s.log.WithField("ticket_id", id).
		WithField("from", current.Status).
		Info("repair ticket cancelled")
	return t, nil
}

// AnnotateTicket records staff notes and/or an estimate on an open ticket.
func (s *RepairService) AnnotateTicket(ctx context.Context, id int64, in models.AnnotateTicketInput) (*models.RepairTicket, error) {
	if in.StaffNotes == nil && in.EstimatedCost == nil {
		return nil, apperr.Invalid("", "nothing to update")
	}
	if err := checkAmount("estimatedCost", in.EstimatedCost); err != nil {
		return nil, err
	}

	t, err := s.tickets.Annotate(ctx, id, in.StaffNotes, in.EstimatedCost)
	if err != nil {
		return nil, err
	}
	s.log.WithField("ticket_id", id).Info("repair ticket annotated")
	return t, nil
}

func (s *RepairService) GetTicket(ctx context.Context, id int64) (*models.RepairTicket, error) {
	return readWithRetry(ctx, s.log, "get ticket", func(ctx context.Context) (*models.RepairTicket, error) {
		return s.tickets.GetByID(ctx, id)
	})
}

// ListTickets filters by queue, service type and status.
func (s *RepairService) ListTickets(ctx context.Context, f models.TicketFilter) ([]models.RepairTicket, error) {
	switch {
	case f.Queue != "" && f.Queue.ServiceTypes() == nil:
		return nil, apperr.Invalid("queue", "must be HARDWARE_BENCH or HELP_DESK")
	case f.ServiceType != "" && !f.ServiceType.Valid():
		return nil, apperr.Invalid("serviceType", "unknown service type")
	case f.Status != "" && !f.Status.Valid():
		return nil, apperr.Invalid("status", "unknown ticket status")
	}
	f.Limit, f.Offset = repository.NormalizePage(f.Limit, f.Offset)
	return readWithRetry(ctx, s.log, "list tickets", func(ctx context.Context) ([]models.RepairTicket, error) {
		return s.tickets.List(ctx, f)
	})
}
