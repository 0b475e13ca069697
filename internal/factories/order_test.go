package factories

import (
	"testing"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *models.Config {
	return &models.Config{
		Seed:           42,
		CustomerRoster: []string{"Aarav Sharma", "Priya Patel", "Rohan Gupta"},
		Bounds:         models.BoundingBox{MinLat: 8, MaxLat: 30, MinLng: 70, MaxLng: 88},
		MinAmount:      500,
		MaxAmount:      3000,
	}
}

func TestOrderFactory_CreateOrder(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	f := NewOrderFactory(cfg).WithClock(func() time.Time { return now })

	for i := 0; i < 200; i++ {
		o := f.CreateOrder()
		assert.Empty(t, o.ID)
		assert.Contains(t, cfg.CustomerRoster, o.CustomerName)
		assert.Equal(t, models.OrderStatusOnRoute, o.Status)
		assert.True(t, cfg.Bounds.Contains(o.Position()))
		assert.GreaterOrEqual(t, o.Amount, 500.0)
		assert.LessOrEqual(t, o.Amount, 3000.0)
		assert.Equal(t, float64(int(o.Amount)), o.Amount)
		require.NotNil(t, o.CreatedAt)
		assert.True(t, o.CreatedAt.Equal(now))
		assert.Equal(t, time.UTC, o.CreatedAt.Location())
	}
}

func TestOrderFactory_SeedIsDeterministic(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	a := NewOrderFactory(testConfig()).WithClock(now)
	b := NewOrderFactory(testConfig()).WithClock(now)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.CreateOrder(), b.CreateOrder())
	}
}

func TestOrderFactory_OrderCount(t *testing.T) {
	f := NewOrderFactory(testConfig())
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		n := f.OrderCount(5, 10)
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 10)
		seen[n] = true
	}
	assert.Len(t, seen, 6)
	assert.Equal(t, 3, f.OrderCount(3, 3))
}
