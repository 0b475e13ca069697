package simulator

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories/memory"
	"github.com/chrisdamba/orderpulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func seededStore(t *testing.T, orders ...models.Order) *store.Store {
	repo := memory.NewOrderRepository(orders...)
	st := store.New(repo, zaptest.NewLogger(t))
	st.Load(orders)
	t.Cleanup(st.Flush)
	return st
}

func onRoute(id string, lat, lng float64) models.Order {
	return models.Order{ID: id, Status: models.OrderStatusOnRoute, Latitude: lat, Longitude: lng, Amount: 100}
}

func countDelivered(orders []models.Order) int {
	n := 0
	for _, o := range orders {
		if o.Status == models.OrderStatusDelivered {
			n++
		}
	}
	return n
}

func TestMovement_JitterTick(t *testing.T) {
	delivered := onRoute("d", 20, 80)
	delivered.Status = models.OrderStatusDelivered
	st := seededStore(t, onRoute("a", 12, 77), onRoute("b", 19, 72), delivered)
	unassigned := onRoute("", 15, 75)
	st.Load(append(st.Orders(), unassigned))

	m := NewMovement(testConfig(), st, zaptest.NewLogger(t))
	m.JitterTick()

	orders := st.Orders()
	require.Len(t, orders, 4)
	assert.NotEqual(t, 12.0, orders[0].Latitude)
	assert.InDelta(t, 12, orders[0].Latitude, 0.005)
	assert.InDelta(t, 77, orders[0].Longitude, 0.005)
	assert.InDelta(t, 19, orders[1].Latitude, 0.005)
	assert.InDelta(t, 72, orders[1].Longitude, 0.005)
	assert.Equal(t, 20.0, orders[2].Latitude)
	assert.Equal(t, 80.0, orders[2].Longitude)
	assert.Equal(t, 15.0, orders[3].Latitude)
}

func TestMovement_DeliveryTick(t *testing.T) {
	tests := []struct {
		name     string
		onRoute  int
		max      int
		minCount int
		maxCount int
	}{
		{"none available", 0, 2, 0, 0},
		{"single available", 1, 2, 1, 1},
		{"many available", 6, 2, 1, 2},
		{"max one", 6, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := make([]models.Order, 0, tt.onRoute)
			for i := 0; i < tt.onRoute; i++ {
				orders = append(orders, onRoute(string(rune('a'+i)), 10, 80))
			}
			st := seededStore(t, orders...)
			cfg := testConfig()
			cfg.MaxDeliveriesPerTick = tt.max

			for i := 0; i < 20; i++ {
				st.Load(orders)
				NewMovement(cfg, st, zaptest.NewLogger(t)).DeliveryTick()
				n := countDelivered(st.Orders())
				assert.GreaterOrEqual(t, n, tt.minCount)
				assert.LessOrEqual(t, n, tt.maxCount)
			}
		})
	}
}

func TestMovement_DeliveryTickDrainsOrders(t *testing.T) {
	st := seededStore(t, onRoute("a", 1, 1), onRoute("b", 2, 2), onRoute("c", 3, 3))
	m := NewMovement(testConfig(), st, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		m.DeliveryTick()
	}
	assert.Equal(t, 3, countDelivered(st.Orders()))

	m.DeliveryTick()
	assert.Equal(t, 3, countDelivered(st.Orders()))
}

func TestMovement_StartStopIdempotent(t *testing.T) {
	st := seededStore(t, onRoute("a", 12, 77))
	m := NewMovement(testConfig(), st, zaptest.NewLogger(t))

	assert.False(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())

	m.Start()
	m.Start()
	assert.True(t, m.IsRunning())

	assert.Eventually(t, func() bool {
		o := st.Orders()[0]
		return o.Latitude != 12 || o.Longitude != 77
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())

	st.Flush()
	snapshot := st.Orders()[0]
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, snapshot, st.Orders()[0])
}

func TestMovement_DeliveriesLoop(t *testing.T) {
	st := seededStore(t, onRoute("a", 12, 77))
	cfg := testConfig()
	cfg.DeliveryInterval = 5 * time.Millisecond
	m := NewMovement(cfg, st, zaptest.NewLogger(t))

	m.StartDeliveries()
	assert.True(t, m.DeliveriesRunning())
	assert.False(t, m.IsRunning())

	assert.Eventually(t, func() bool {
		return st.Orders()[0].Status == models.OrderStatusDelivered
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.DeliveriesRunning())
}

func TestPeriodic_RecoversFromPanic(t *testing.T) {
	var calls atomic.Int32
	p := newPeriodic("test", time.Millisecond, func() {
		if calls.Add(1) == 1 {
			panic("first tick fails")
		}
	}, zaptest.NewLogger(t))

	require.True(t, p.start())
	assert.False(t, p.start())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, p.halt())
	assert.False(t, p.halt())
	assert.False(t, p.running())
}

func TestMovement_JitterRange(t *testing.T) {
	st := seededStore(t, onRoute("a", 0, 0))
	cfg := testConfig()
	cfg.JitterRange = 1
	m := NewMovement(cfg, st, zaptest.NewLogger(t))

	prev := st.Orders()[0]
	for i := 0; i < 100; i++ {
		m.JitterTick()
		cur := st.Orders()[0]
		assert.LessOrEqual(t, math.Abs(cur.Latitude-prev.Latitude), 0.5)
		assert.LessOrEqual(t, math.Abs(cur.Longitude-prev.Longitude), 0.5)
		prev = cur
	}
}
