package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/metrics"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"go.uber.org/zap"
)

type ChangeType string

const (
	ChangeLoaded    ChangeType = "loaded"
	ChangeSelected  ChangeType = "selected"
	ChangeLocation  ChangeType = "location"
	ChangeDelivered ChangeType = "delivered"
)

// Change describes one applied mutation. Order is a copy taken after the
// mutation; it is nil for ChangeLoaded and for clearing the selection.
type Change struct {
	Type  ChangeType
	Order *models.Order
}

// SyncResult is the outcome of one fire-and-forget repository write.
type SyncResult struct {
	OrderID string
	Patch   models.OrderPatch
	Err     error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSyncTimeout(d time.Duration) Option {
	return func(s *Store) { s.syncTimeout = d }
}

// WithSyncCallback registers fn to receive the outcome of every remote
// patch. It runs on the goroutine that issued the write.
func WithSyncCallback(fn func(SyncResult)) Option {
	return func(s *Store) { s.onSync = fn }
}

// Store holds the current order collection and the selected order. Local
// mutations are applied immediately; the matching repository patch runs in
// the background and never rolls local state back.
type Store struct {
	repo repositories.OrderRepository
	log  *zap.Logger

	now         func() time.Time
	syncTimeout time.Duration
	onSync      func(SyncResult)

	mu       sync.RWMutex
	orders   []models.Order
	selected *models.Order

	subMu  sync.RWMutex
	subs   map[int]func(Change)
	nextID int

	pending sync.WaitGroup
}

func New(repo repositories.OrderRepository, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		log:         logger.OrGlobal(log),
		now:         time.Now,
		syncTimeout: 5 * time.Second,
		subs:        make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the whole collection.
func (s *Store) Load(orders []models.Order) {
	s.mu.Lock()
	s.orders = make([]models.Order, len(orders))
	copy(s.orders, orders)
	s.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(string(ChangeLoaded)).Inc()
	s.notify(Change{Type: ChangeLoaded})
}

// Refresh reloads the collection from the repository. On failure the
// current collection is kept.
func (s *Store) Refresh(ctx context.Context) error {
	orders, err := s.repo.FetchAll(ctx)
	if err != nil {
		s.log.Warn("failed to fetch orders", zap.Error(err))
		return err
	}
	s.Load(orders)
	return nil
}

func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Select tracks order as the current selection. It does not need to be part
// of the collection; nil clears the selection.
func (s *Store) Select(order *models.Order) {
	s.mu.Lock()
	if order == nil {
		s.selected = nil
	} else {
		o := *order
		s.selected = &o
	}
	snapshot := s.selectedCopy()
	s.mu.Unlock()

	s.notify(Change{Type: ChangeSelected, Order: snapshot})
}

func (s *Store) Selected() *models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedCopy()
}

func (s *Store) selectedCopy() *models.Order {
	if s.selected == nil {
		return nil
	}
	o := *s.selected
	return &o
}

// UpdateLocation moves the order with the given id. Unknown ids are ignored.
func (s *Store) UpdateLocation(id string, lat, lng float64) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.orders[idx].Latitude = lat
	s.orders[idx].Longitude = lng
	updated := s.orders[idx]
	s.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(string(ChangeLocation)).Inc()
	s.notify(Change{Type: ChangeLocation, Order: &updated})
	s.sync(id, models.LocationPatch(lat, lng))
}

// MarkDelivered transitions the order to DELIVERED. Unknown ids and orders
// that are already delivered are ignored.
func (s *Store) MarkDelivered(id string) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.orders[idx].Status == models.OrderStatusDelivered {
		s.mu.Unlock()
		return
	}
	s.orders[idx].Status = models.OrderStatusDelivered
	updated := s.orders[idx]
	s.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(string(ChangeDelivered)).Inc()
	s.notify(Change{Type: ChangeDelivered, Order: &updated})
	s.sync(id, models.StatusPatch(models.OrderStatusDelivered))
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Today is the UTC calendar date of the store clock.
func (s *Store) Today() string {
	return s.now().UTC().Format(models.DateLayout)
}

// TodaysOrders returns the orders whose creation timestamp falls on Today.
// Orders without a timestamp are excluded.
func (s *Store) TodaysOrders() []models.Order {
	today := s.Today()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		key, ok := o.DateKey()
		if ok && strings.HasPrefix(key, today) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Store) TodaysRevenue() float64 {
	var total float64
	for _, o := range s.TodaysOrders() {
		total += o.Amount
	}
	return total
}

// TopOrdersOfDay returns at most five of today's orders by amount, highest
// first. Ties keep collection order.
func (s *Store) TopOrdersOfDay() []models.Order {
	orders := s.TodaysOrders()
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Amount > orders[j].Amount
	})
	if len(orders) > models.TopOrdersOfDayLimit {
		orders = orders[:models.TopOrdersOfDayLimit]
	}
	return orders
}

func (s *Store) Metrics() models.OrderMetrics {
	today := s.TodaysOrders()
	var revenue float64
	for _, o := range today {
		revenue += o.Amount
	}
	return models.OrderMetrics{
		Date:         s.Today(),
		TotalOrders:  len(today),
		TotalRevenue: revenue,
		TopOrders:    s.TopOrdersOfDay(),
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn is called synchronously after the mutation is applied
// and must not call back into a blocking Store method.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) sync(id string, patch models.OrderPatch) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()

		err := s.repo.Patch(ctx, id, patch)
		metrics.RecordRemoteSync("patch", err == nil)
		if err != nil {
			s.log.Warn("failed to sync order",
				zap.String("order_id", id),
				zap.Error(err),
			)
		}
		if s.onSync != nil {
			s.onSync(SyncResult{OrderID: id, Patch: patch, Err: err})
		}
	}()
}

// Flush waits for every outstanding repository write to finish.
func (s *Store) Flush() {
	s.pending.Wait()
}
