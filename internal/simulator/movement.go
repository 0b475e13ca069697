package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/store"
	"go.uber.org/zap"
)

// Movement jitters in-transit orders and periodically delivers a few of them.
type Movement struct {
	store *store.Store
	log   *zap.Logger

	jitterRange   float64
	maxDeliveries int

	rngMu sync.Mutex
	rng   *rand.Rand

	jitter   *periodic
	delivery *periodic
}

func NewMovement(cfg *models.Config, st *store.Store, log *zap.Logger) *Movement {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &Movement{
		store:         st,
		log:           logger.OrGlobal(log),
		jitterRange:   cfg.JitterRange,
		maxDeliveries: cfg.MaxDeliveriesPerTick,
		rng:           rand.New(rand.NewSource(seed + 2)),
	}
	if m.maxDeliveries < 1 {
		m.maxDeliveries = 1
	}
	m.jitter = newPeriodic("jitter", cfg.JitterInterval, m.JitterTick, m.log)
	m.delivery = newPeriodic("delivery", cfg.DeliveryInterval, m.DeliveryTick, m.log)
	return m
}

// Start begins the jitter loop.
func (m *Movement) Start() {
	m.StartJitter()
}

// Stop halts both loops. Repository writes already issued keep running.
func (m *Movement) Stop() {
	m.StopJitter()
	m.StopDeliveries()
}

// IsRunning reports whether the jitter loop is active.
func (m *Movement) IsRunning() bool {
	return m.jitter.running()
}

func (m *Movement) StartJitter() {
	if m.jitter.start() {
		m.log.Info("movement simulator started")
	}
}

func (m *Movement) StopJitter() {
	if m.jitter.halt() {
		m.log.Info("movement simulator stopped")
	}
}

func (m *Movement) StartDeliveries() {
	m.delivery.start()
}

func (m *Movement) StopDeliveries() {
	m.delivery.halt()
}

func (m *Movement) DeliveriesRunning() bool {
	return m.delivery.running()
}

// JitterTick nudges every ON_ROUTE order that has an id by a uniform offset
// in [-jitterRange/2, jitterRange/2) on each axis.
func (m *Movement) JitterTick() {
	for _, o := range m.store.Orders() {
		if !o.IsOnRoute() || o.ID == "" {
			continue
		}
		m.rngMu.Lock()
		dLat := (m.rng.Float64() - 0.5) * m.jitterRange
		dLng := (m.rng.Float64() - 0.5) * m.jitterRange
		m.rngMu.Unlock()

		m.store.UpdateLocation(o.ID, o.Latitude+dLat, o.Longitude+dLng)
	}
}

// DeliveryTick marks between 1 and min(maxDeliveries, n) of the n ON_ROUTE
// orders as delivered, chosen uniformly.
func (m *Movement) DeliveryTick() {
	onRoute := make([]models.Order, 0)
	for _, o := range m.store.Orders() {
		if o.IsOnRoute() {
			onRoute = append(onRoute, o)
		}
	}
	if len(onRoute) == 0 {
		return
	}

	m.rngMu.Lock()
	count := int(math.Ceil(m.rng.Float64() * float64(m.maxDeliveries)))
	m.rng.Shuffle(len(onRoute), func(i, j int) {
		onRoute[i], onRoute[j] = onRoute[j], onRoute[i]
	})
	m.rngMu.Unlock()

	if count < 1 {
		count = 1
	}
	if count > len(onRoute) {
		count = len(onRoute)
	}
	for _, o := range onRoute[:count] {
		m.log.Debug("delivering order", zap.String("order_id", o.ID))
		m.store.MarkDelivered(o.ID)
	}
}
