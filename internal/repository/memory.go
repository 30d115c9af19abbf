package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore is a process-local store with simple ID generators. A
// transaction holds the store-wide write lock, which is what serialises
// concurrent sales of the same unit.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  map[string]int64
	units   map[int64]models.Unit
	sales   map[int64]models.Sale
	quotes  map[int64]models.QuoteRequest
	tickets map[int64]models.RepairTicket
	audit   []models.AuditLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  make(map[string]int64),
		units:   make(map[int64]models.Unit),
		sales:   make(map[int64]models.Sale),
		quotes:  make(map[int64]models.QuoteRequest),
		tickets: make(map[int64]models.RepairTicket),
	}
}

// NewMemory wires every repository onto one fresh MemoryStore.
func NewMemory() *Repositories {
	store := NewMemoryStore()
	return &Repositories{
		Units:   &MemoryUnits{store: store},
		Sales:   &MemorySales{store: store},
		Quotes:  &MemoryQuotes{store: store},
		Tickets: &MemoryTickets{store: store},
		Audit:   &MemoryAudit{store: store},
		Tx:      &MemoryTx{store: store},
	}
}

func (m *MemoryStore) id(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

// transaction-aware locking helpers
type memTxKey struct{}

func isMemTx(ctx context.Context) bool {
	b, ok := ctx.Value(memTxKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isMemTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isMemTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isMemTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isMemTx(ctx) {
		m.mu.Unlock()
	}
}

// MemoryTx emulates a transaction with the store write lock and restores a
// snapshot when fn fails.
type MemoryTx struct{ store *MemoryStore }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isMemTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	units := cloneMap(tx.store.units)
	sales := cloneMap(tx.store.sales)
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		tx.store.units = units
		tx.store.sales = sales
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func copyUnit(u models.Unit) *models.Unit {
	u.PreviousPrice = copyDecimal(u.PreviousPrice)
	if u.SoldAt != nil {
		t := *u.SoldAt
		u.SoldAt = &t
	}
	return &u
}

// --- Units ---

type MemoryUnits struct{ store *MemoryStore }

var _ UnitRepository = (*MemoryUnits)(nil)

func (mu *MemoryUnits) Create(ctx context.Context, u *models.Unit) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	// The MySQL unique index uses a case-insensitive collation.
	for _, existing := range mu.store.units {
		if strings.EqualFold(existing.Serial, u.Serial) {
			return fmt.Errorf("create unit: %w", apperr.ErrDuplicate)
		}
	}
	u.ID = mu.store.id("unit")
	mu.store.units[u.ID] = *copyUnit(*u)
	return nil
}

func (mu *MemoryUnits) GetByID(ctx context.Context, id int64) (*models.Unit, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.units[id]
	if !ok {
		return nil, apperr.NotFound("unit", id)
	}
	return copyUnit(u), nil
}

// GetForUpdate needs no extra locking: inside MemoryTx the whole store is
// already held exclusively.
func (mu *MemoryUnits) GetForUpdate(ctx context.Context, id int64) (*models.Unit, error) {
	return mu.GetByID(ctx, id)
}

func (mu *MemoryUnits) Update(ctx context.Context, u *models.Unit) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.units[u.ID]; !ok {
		return apperr.NotFound("unit", u.ID)
	}
	mu.store.units[u.ID] = *copyUnit(*u)
	return nil
}

func (mu *MemoryUnits) Delete(ctx context.Context, id int64) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.units[id]; !ok {
		return apperr.NotFound("unit", id)
	}
	delete(mu.store.units, id)
	return nil
}

func (mu *MemoryUnits) List(ctx context.Context, f models.UnitFilter) ([]models.Unit, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	out := make([]models.Unit, 0)
	for _, u := range mu.store.units {
		if f.Brand != "" && u.BrandSlug != f.Brand {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Search != "" && !containsIgnoreCase(u.Serial, f.Search) &&
			!containsIgnoreCase(u.Brand, f.Search) && !containsIgnoreCase(u.Model, f.Search) {
			continue
		}
		out = append(out, *copyUnit(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

// --- Sales ---

type MemorySales struct{ store *MemoryStore }

var _ SaleRepository = (*MemorySales)(nil)

func (ms *MemorySales) withUnit(s models.Sale) *models.Sale {
	if u, ok := ms.store.units[s.UnitID]; ok {
		s.UnitSerial = u.Serial
		s.UnitModel = u.Model
	}
	return &s
}

func (ms *MemorySales) Create(ctx context.Context, s *models.Sale) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	for _, existing := range ms.store.sales {
		if existing.UnitID == s.UnitID {
			return fmt.Errorf("unit %d: %w", s.UnitID, apperr.ErrAlreadySold)
		}
	}
	s.ID = ms.store.id("sale")
	ms.store.sales[s.ID] = *s
	return nil
}

func (ms *MemorySales) GetByID(ctx context.Context, id int64) (*models.Sale, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	s, ok := ms.store.sales[id]
	if !ok {
		return nil, apperr.NotFound("sale", id)
	}
	return ms.withUnit(s), nil
}

func (ms *MemorySales) Update(ctx context.Context, s *models.Sale) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	current, ok := ms.store.sales[s.ID]
	if !ok {
		return apperr.NotFound("sale", s.ID)
	}
	current.CustomerName = s.CustomerName
	current.Notes = s.Notes
	current.SalePrice = s.SalePrice
	current.Margin = s.Margin
	current.UpdatedAt = s.UpdatedAt
	ms.store.sales[s.ID] = current
	return nil
}

func (ms *MemorySales) Delete(ctx context.Context, id int64) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	if _, ok := ms.store.sales[id]; !ok {
		return apperr.NotFound("sale", id)
	}
	delete(ms.store.sales, id)
	return nil
}

func (ms *MemorySales) List(ctx context.Context, f models.SaleFilter) ([]models.Sale, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	out := make([]models.Sale, 0, len(ms.store.sales))
	for _, s := range ms.store.sales {
		out = append(out, *ms.withUnit(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (ms *MemorySales) CountByUnit(ctx context.Context, unitID int64) (int, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	n := 0
	for _, s := range ms.store.sales {
		if s.UnitID == unitID {
			n++
		}
	}
	return n, nil
}

// --- Quotes ---

type MemoryQuotes struct{ store *MemoryStore }

var _ QuoteRepository = (*MemoryQuotes)(nil)

func copyQuote(q models.QuoteRequest) *models.QuoteRequest {
	q.Images = append([]string{}, q.Images...)
	q.FinalPrice = copyDecimal(q.FinalPrice)
	if q.UserID != nil {
		id := *q.UserID
		q.UserID = &id
	}
	return &q
}

func (mq *MemoryQuotes) Create(ctx context.Context, q *models.QuoteRequest) error {
	mq.store.wlock(ctx)
	defer mq.store.wunlock(ctx)
	q.ID = mq.store.id("quote")
	mq.store.quotes[q.ID] = *copyQuote(*q)
	return nil
}

func (mq *MemoryQuotes) GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error) {
	mq.store.rlock(ctx)
	defer mq.store.runlock(ctx)
	q, ok := mq.store.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote", id)
	}
	return copyQuote(q), nil
}

func (mq *MemoryQuotes) Transition(ctx context.Context, id int64, from []models.QuoteStatus, to models.QuoteStatus, finalPrice *decimal.Decimal) (*models.QuoteRequest, error) {
	mq.store.wlock(ctx)
	defer mq.store.wunlock(ctx)
	q, ok := mq.store.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote", id)
	}
	allowed := false
	for _, st := range from {
		if q.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("quote %d is %s: %w", id, q.Status, apperr.ErrInvalidState)
	}
	q.Status = to
	if finalPrice != nil {
		q.FinalPrice = copyDecimal(finalPrice)
	}
	q.UpdatedAt = time.Now()
	mq.store.quotes[id] = q
	return copyQuote(q), nil
}

func (mq *MemoryQuotes) List(ctx context.Context, f models.QuoteFilter) ([]models.QuoteRequest, error) {
	mq.store.rlock(ctx)
	defer mq.store.runlock(ctx)
	out := make([]models.QuoteRequest, 0)
	for _, q := range mq.store.quotes {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		out = append(out, *copyQuote(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

// --- Tickets ---

type MemoryTickets struct{ store *MemoryStore }

var _ TicketRepository = (*MemoryTickets)(nil)

func copyTicket(t models.RepairTicket) *models.RepairTicket {
	if t.StaffNotes != nil {
		n := *t.StaffNotes
		t.StaffNotes = &n
	}
	t.EstimatedCost = copyDecimal(t.EstimatedCost)
	t.Queue = t.ServiceType.Queue()
	return &t
}

func (mt *MemoryTickets) Create(ctx context.Context, t *models.RepairTicket) error {
	mt.store.wlock(ctx)
	defer mt.store.wunlock(ctx)
	t.ID = mt.store.id("ticket")
	t.Queue = t.ServiceType.Queue()
	mt.store.tickets[t.ID] = *copyTicket(*t)
	return nil
}

func (mt *MemoryTickets) GetByID(ctx context.Context, id int64) (*models.RepairTicket, error) {
	mt.store.rlock(ctx)
	defer mt.store.runlock(ctx)
	t, ok := mt.store.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket", id)
	}
	return copyTicket(t), nil
}

func (mt *MemoryTickets) UpdateStatus(ctx context.Context, id int64, from, to models.TicketStatus) (*models.RepairTicket, error) {
	mt.store.wlock(ctx)
	defer mt.store.wunlock(ctx)
	t, ok := mt.store.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket", id)
	}
	if t.Status != from {
		return nil, fmt.Errorf("ticket %d is %s: %w", id, t.Status, apperr.ErrInvalidState)
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	mt.store.tickets[id] = t
	return copyTicket(t), nil
}

func (mt *MemoryTickets) Annotate(ctx context.Context, id int64, notes *string, estimatedCost *decimal.Decimal) (*models.RepairTicket, error) {
	mt.store.wlock(ctx)
	defer mt.store.wunlock(ctx)
	t, ok := mt.store.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket", id)
	}
	if t.Status.Terminal() {
		return nil, fmt.Errorf("ticket %d is %s: %w", id, t.Status, apperr.ErrInvalidState)
	}
	if notes != nil {
		n := *notes
		t.StaffNotes = &n
	}
	if estimatedCost != nil {
		t.EstimatedCost = copyDecimal(estimatedCost)
	}
	t.UpdatedAt = time.Now()
	mt.store.tickets[id] = t
	return copyTicket(t), nil
}

func (mt *MemoryTickets) List(ctx context.Context, f models.TicketFilter) ([]models.RepairTicket, error) {
	mt.store.rlock(ctx)
	defer mt.store.runlock(ctx)
	out := make([]models.RepairTicket, 0)
	for _, t := range mt.store.tickets {
		if f.Queue != "" && t.ServiceType.Queue() != f.Queue {
			continue
		}
		if f.ServiceType != "" && t.ServiceType != f.ServiceType {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, *copyTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

// --- Audit ---

type MemoryAudit struct{ store *MemoryStore }

var _ AuditRepository = (*MemoryAudit)(nil)

// Append is called after commit, outside any transaction.
func (ma *MemoryAudit) Append(ctx context.Context, e *models.AuditLogEntry) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	e.ID = ma.store.id("audit")
	ma.store.audit = append(ma.store.audit, *e)
	return nil
}

func (ma *MemoryAudit) ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	out := make([]models.AuditLogEntry, 0, len(ma.store.audit))
	for i := len(ma.store.audit) - 1; i >= 0; i-- {
		out = append(out, ma.store.audit[i])
	}
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	limit, offset = NormalizePage(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
