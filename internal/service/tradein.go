package service

import (
	"context"
	"strings"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/metrics"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// open states a quote may still move out of.
var openQuoteStates = []models.QuoteStatus{models.QuotePending, models.QuoteReviewed}

// TradeInService runs the PENDING -> REVIEWED -> COMPLETED|REJECTED pipeline.
type TradeInService struct {
	quotes repository.QuoteRepository
	log    logrus.FieldLogger
}

func NewTradeInService(quotes repository.QuoteRepository, log logrus.FieldLogger) *TradeInService {
	return &TradeInService{quotes: quotes, log: log}
}

// SubmitQuote stores a new PENDING request. Images are URLs that were
// already uploaded elsewhere.
func (s *TradeInService) SubmitQuote(ctx context.Context, in models.SubmitQuoteInput, userID *int64) (*models.QuoteRequest, error) {
	if err := requireText("brand", in.Brand); err != nil {
		return nil, err
	}
	if err := requireText("model", in.Model); err != nil {
		return nil, err
	}
	if err := requireText("contactName", in.ContactName); err != nil {
		return nil, err
	}
	if blank(in.ContactPhone) && blank(in.ContactEmail) {
		return nil, apperr.Invalid("contact", "a phone number or an email is required")
	}

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	now := time.Now()
	q := &models.QuoteRequest{
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		Storage:      in.Storage,
		Condition:    in.Condition,
		Details:      in.Details,
		Images:       images,
		ContactName:  strings.TrimSpace(in.ContactName),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		UserID:       userID,
		Status:       models.QuotePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}

	metrics.QuoteTransitions.WithLabelValues(string(models.QuotePending)).Inc()
	s.log.WithField("quote_id", q.ID).Info("trade-in quote submitted")
	return q, nil
}

// ReviewQuote sets the offered price. A REVIEWED quote can be re-priced;
// a terminal one cannot.
func (s *TradeInService) ReviewQuote(ctx context.Context, id int64, finalPrice *decimal.Decimal) (*models.QuoteRequest, error) {
	if err := requireAmount("finalPrice", finalPrice); err != nil {
		return nil, err
	}

	q, err := s.quotes.Transition(ctx, id, openQuoteStates, models.QuoteReviewed, finalPrice)
	if err != nil {
		return nil, err
	}

	metrics.QuoteTransitions.WithLabelValues(string(models.QuoteReviewed)).Inc()
	s.log.WithField("quote_id", id).
		WithField("final_price", finalPrice.StringFixed(2)).
		Info("trade-in quote reviewed")
	return q, nil
}

// CloseQuote moves the quote to COMPLETED or REJECTED. Terminal quotes are
// never changed again.
func (s *TradeInService) CloseQuote(ctx context.Context, id int64, outcome models.QuoteStatus) (*models.QuoteRequest, error) {
	if outcome != models.QuoteCompleted && outcome != models.QuoteRejected {
		return nil, apperr.Invalid("outcome", "must be COMPLETED or REJECTED")
	}

	q, err := s.quotes.Transition(ctx, id, openQuoteStates, outcome, nil)
	if err != nil {
		return nil, err
	}

	metrics.QuoteTransitions.WithLabelValues(string(outcome)).Inc()
	s.log.WithField("quote_id", id).
		WithField("outcome", outcome).
		Info("trade-in quote closed")
	return q, nil
}

func (s *TradeInService) GetQuote(ctx context.Context, id int64) (*models.QuoteRequest, error) {
	return readWithRetry(ctx, s.log, "get quote", func(ctx context.Context) (*models.QuoteRequest, error) {
		return s.quotes.GetByID(ctx, id)
	})
}

func (s *TradeInService) ListQuotes(ctx context.Context, f models.QuoteFilter) ([]models.QuoteRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown quote status")
	}
	f.Limit, f.Offset = repository.NormalizePage(f.Limit, f.Offset)
	return readWithRetry(ctx, s.log, "list quotes", func(ctx context.Context) ([]models.QuoteRequest, error) {
		return s.quotes.List(ctx, f)
	})
}
