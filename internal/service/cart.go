package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
)

// CartStore is a single session's cart. Each method is one atomic
// read-modify-write so the item list and its totals never disagree.
//
// Stock is advisory: quantities are not capped at Product.Stock.
type CartStore struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

// NewCartStore creates a cart holding lines.
func NewCartStore(lines []domain.CartLine) *CartStore {
	s := &CartStore{}
	s.Restore(lines)
	return s
}

// Add increments the line for p, or appends a new line with quantity 1.
func (s *CartStore) Add(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity++
		return
	}
	s.lines = append(s.lines, domain.CartLine{Product: p, Quantity: 1})
}

// Remove deletes the line for productID. Unknown ids are ignored.
func (s *CartStore) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID)
}

// UpdateQuantity sets the line quantity to n, removing the line when n < 1.
// Unknown ids are ignored.
func (s *CartStore) UpdateQuantity(productID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 {
		s.remove(productID)
		return
	}
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = n
	}
}

// Clear empties the cart.
func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Items returns a copy of the lines in insertion order.
func (s *CartStore) Items() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

// Count is the sum of line quantities.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, _ := domain.SumLines(s.lines)
	return count
}

// Total is the sum of price times quantity.
func (s *CartStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, total := domain.SumLines(s.lines)
	return total
}

// Summary reads items, count and total under one lock.
func (s *CartStore) Summary() domain.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, total := domain.SumLines(s.lines)
	return domain.CartSummary{Items: s.copyLines(), Count: count, Total: total}
}

// Snapshot returns the line list for persistence.
func (s *CartStore) Snapshot() []domain.CartLine {
	return s.Items()
}

// Restore replaces the cart contents. Lines with a quantity below 1 are dropped.
func (s *CartStore) Restore(lines []domain.CartLine) {
	kept := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity >= 1 {
			kept = append(kept, l)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(kept) == 0 {
		s.lines = nil
		return
	}
	s.lines = kept
}

func (s *CartStore) index(productID int64) int {
	for i := range s.lines {
		if s.lines[i].ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) remove(productID int64) {
	if i := s.index(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

func (s *CartStore) copyLines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// DefaultCartIdleTimeout is how long an untouched cart stays in memory
// before a sweep drops it. The stored slot outlives the sweep.
const DefaultCartIdleTimeout = 2 * time.Hour

// CartSessions owns one CartStore per session. Carts are restored from the
// slot repository on first access and written back after every mutation.
//
// A checkout attempt holds the cart between snapshot and clear; mutations
// are refused with ErrCheckoutInProgress while it does.
type CartSessions struct {
	slots  repository.CartSlotRepository
	logger *slog.Logger
	idle   time.Duration
	now    func() time.Time

	mu    sync.Mutex
	carts map[string]*cartEntry
}

// cartEntry serializes mutate-and-save for one session so the slot always
// receives writes in the order they were applied.
type cartEntry struct {
	mu       sync.Mutex
	cart     *CartStore
	held     bool
	lastUsed time.Time
}

// NewCartSessions creates the per-session cart registry.
func NewCartSessions(slots repository.CartSlotRepository, logger *slog.Logger) *CartSessions {
	return &CartSessions{
		slots:  slots,
		logger: logger,
		idle:   DefaultCartIdleTimeout,
		now:    time.Now,
		carts:  make(map[string]*cartEntry),
	}
}

// WithIdleTimeout sets how long an untouched cart is kept in memory.
func (s *CartSessions) WithIdleTimeout(d time.Duration) *CartSessions {
	if d > 0 {
		s.idle = d
	}
	return s
}

func slotKey(sessionID string) string {
	return "cart:" + sessionID
}

// Cart returns the session's cart, loading it from the slot on first use.
// An unreadable slot yields an empty cart. Changes must go through Mutate.
func (s *CartSessions) Cart(ctx context.Context, sessionID string) *CartStore {
	return s.entry(ctx, sessionID).cart
}

func (s *CartSessions) entry(ctx context.Context, sessionID string) *cartEntry {
	s.mu.Lock()
	e, ok := s.carts[sessionID]
	if ok {
		e.lastUsed = s.now()
	}
	s.mu.Unlock()
	if ok {
		return e
	}

	loaded := NewCartStore(s.load(ctx, sessionID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.carts[sessionID]; ok {
		e.lastUsed = s.now()
		return e
	}
	e = &cartEntry{cart: loaded, lastUsed: s.now()}
	s.carts[sessionID] = e
	return e
}

func (s *CartSessions) load(ctx context.Context, sessionID string) []domain.CartLine {
	data, err := s.slots.Load(ctx, slotKey(sessionID))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load cart slot", "error", err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable cart slot", "error", err)
		return nil
	}
	return lines
}

// Mutate applies fn to the session's cart, saves the result and returns the
// updated summary. Save failures are logged and do not undo the change.
// While a checkout holds the cart nothing is applied and
// ErrCheckoutInProgress is returned.
func (s *CartSessions) Mutate(ctx context.Context, sessionID string, fn func(*CartStore)) (domain.CartSummary, error) {
	e := s.entry(ctx, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.held {
		return domain.CartSummary{}, domain.ErrCheckoutInProgress
	}
	fn(e.cart)
	summary := e.cart.Summary()
	s.save(ctx, sessionID, summary.Items)
	return summary, nil
}

// Hold freezes the session's cart for a checkout attempt and returns the
// lines the order will be built from. An empty cart is not held.
func (s *CartSessions) Hold(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	e := s.entry(ctx, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.held {
		return nil, domain.ErrCheckoutInProgress
	}
	lines := e.cart.Snapshot()
	if len(lines) == 0 {
		return nil, domain.ErrCartEmpty
	}
	e.held = true
	return lines, nil
}

// Release lifts a hold and leaves the cart as it was.
func (s *CartSessions) Release(ctx context.Context, sessionID string) {
	e := s.entry(ctx, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.held = false
}

// ClearHeld empties a held cart after its order was placed and lifts the hold.
func (s *CartSessions) ClearHeld(ctx context.Context, sessionID string) {
	e := s.entry(ctx, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cart.Clear()
	s.save(ctx, sessionID, nil)
	e.held = false
}

func (s *CartSessions) save(ctx context.Context, sessionID string, lines []domain.CartLine) {
	key := slotKey(sessionID)
	if len(lines) == 0 {
		if err := s.slots.Remove(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to clear cart slot", "error", err)
		}
		return
	}

	data, err := json.Marshal(lines)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode cart", "error", err)
		return
	}
	if err := s.slots.Store(ctx, key, data); err != nil {
		s.logger.WarnContext(ctx, "failed to save cart slot", "error", err)
	}
}

// Sweep drops carts untouched for longer than the idle timeout and returns
// how many it dropped. Held carts are kept.
func (s *CartSessions) Sweep() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.carts {
		if e.lastUsed.After(cutoff) || !e.mu.TryLock() {
			continue
		}
		held := e.held
		e.mu.Unlock()
		if held {
			continue
		}
		delete(s.carts, id)
		removed++
	}
	return removed
}
