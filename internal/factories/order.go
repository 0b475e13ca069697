package factories

import (
	"math/rand"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/jaswdr/faker"
)

// OrderFactory builds synthetic in-transit orders. It is safe for concurrent
// use.
type OrderFactory struct {
	mu   sync.Mutex
	fake faker.Faker
	rng  *rand.Rand

	roster    []string
	bounds    models.BoundingBox
	minAmount int
	maxAmount int
	now       func() time.Time
}

// NewOrderFactory seeds the factory from cfg.Seed; zero means time based.
func NewOrderFactory(cfg *models.Config) *OrderFactory {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	roster := cfg.CustomerRoster
	if len(roster) == 0 {
		roster = models.DefaultCustomerRoster
	}
	return &OrderFactory{
		fake:      faker.NewWithSeed(rand.NewSource(seed)),
		rng:       rand.New(rand.NewSource(seed + 1)),
		roster:    roster,
		bounds:    cfg.Bounds,
		minAmount: cfg.MinAmount,
		maxAmount: cfg.MaxAmount,
		now:       time.Now,
	}
}

// WithClock replaces the timestamp source.
func (f *OrderFactory) WithClock(now func() time.Time) *OrderFactory {
	f.now = now
	return f
}

// CreateOrder returns an order without an id, ready to be submitted to a
// repository.
func (f *OrderFactory) CreateOrder() models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	createdAt := f.now().UTC()
	return models.Order{
		CustomerName: f.fake.RandomStringElement(f.roster),
		Status:       models.OrderStatusOnRoute,
		Latitude:     f.uniform(f.bounds.MinLat, f.bounds.MaxLat),
		Longitude:    f.uniform(f.bounds.MinLng, f.bounds.MaxLng),
		Amount:       float64(f.fake.IntBetween(f.minAmount, f.maxAmount)),
		CreatedAt:    &createdAt,
	}
}

// OrderCount picks a batch size uniformly in [min, max].
func (f *OrderFactory) OrderCount(min, max int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if max <= min {
		return min
	}
	return f.fake.IntBetween(min, max)
}

func (f *OrderFactory) uniform(min, max float64) float64 {
	return min + f.rng.Float64()*(max-min)
}
