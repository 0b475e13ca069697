package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"github.com/lucsky/cuid"
)

// OrderRepository keeps orders in process memory, in insertion order.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []models.Order
	index  map[string]int
}

func NewOrderRepository(seed ...models.Order) *OrderRepository {
	r := &OrderRepository{index: make(map[string]int)}
	for _, o := range seed {
		if o.ID == "" {
			o.ID = cuid.New()
		}
		r.index[o.ID] = len(r.orders)
		r.orders = append(r.orders, cloneOrder(o))
	}
	return r
}

func (r *OrderRepository) FetchAll(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, len(r.orders))
	for i, o := range r.orders {
		orders[i] = cloneOrder(o)
	}
	return orders, nil
}

func (r *OrderRepository) Create(ctx context.Context, order models.Order) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = cuid.New()
	if order.CreatedAt == nil {
		now := time.Now().UTC()
		order.CreatedAt = &now
	}
	r.index[order.ID] = len(r.orders)
	r.orders = append(r.orders, cloneOrder(order))
	return cloneOrder(order), nil
}

func (r *OrderRepository) Patch(ctx context.Context, id string, patch models.OrderPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("patch %s: %w", id, repositories.ErrOrderNotFound)
	}
	o := &r.orders[i]
	if patch.Latitude != nil {
		o.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		o.Longitude = *patch.Longitude
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	return nil
}

func cloneOrder(o models.Order) models.Order {
	if o.CreatedAt != nil {
		t := *o.CreatedAt
		o.CreatedAt = &t
	}
	return o
}
