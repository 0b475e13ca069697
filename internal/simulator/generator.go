package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/factories"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/metrics"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"github.com/chrisdamba/orderpulse/internal/store"
	"go.uber.org/zap"
)

// OrderCreatedFunc is called after each demo order is stored. done counts
// attempts so far, including failed ones.
type OrderCreatedFunc func(order models.Order, done, total int)

// Generator creates demo orders and gates the daily batch with a marker kept
// in the key-value store.
type Generator struct {
	repo    repositories.OrderRepository
	kv      repositories.KeyValueStore
	store   *store.Store
	factory *factories.OrderFactory
	log     *zap.Logger

	dailyMin int
	dailyMax int
	now      func() time.Time

	// OnOrderCreated, when set, observes generation progress.
	OnOrderCreated OrderCreatedFunc

	mu sync.Mutex
}

func NewGenerator(cfg *models.Config, repo repositories.OrderRepository, kv repositories.KeyValueStore, st *store.Store, factory *factories.OrderFactory, log *zap.Logger) *Generator {
	return &Generator{
		repo:     repo,
		kv:       kv,
		store:    st,
		factory:  factory,
		log:      logger.OrGlobal(log),
		dailyMin: cfg.DailyMinOrders,
		dailyMax: cfg.DailyMaxOrders,
		now:      time.Now,
	}
}

func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// GenerateDemoOrders submits count new orders and reloads the store after
// each one. Failed creations are logged and skipped; only a cancelled
// context stops the batch early.
func (g *Generator) GenerateDemoOrders(ctx context.Context, count int) ([]models.Order, error) {
	created := make([]models.Order, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		order, err := g.repo.Create(ctx, g.factory.CreateOrder())
		if err != nil {
			metrics.RecordRemoteSync("create", false)
			g.log.Warn("failed to create demo order", zap.Int("index", i), zap.Error(err))
			g.progress(models.Order{}, i+1, count)
			continue
		}
		metrics.RecordRemoteSync("create", true)
		metrics.OrdersCreated.Inc()
		created = append(created, order)

		_ = g.store.Refresh(ctx)
		g.progress(order, i+1, count)
	}
	return created, nil
}

func (g *Generator) progress(order models.Order, done, total int) {
	if g.OnOrderCreated != nil {
		g.OnOrderCreated(order, done, total)
	}
}

// Today is the UTC calendar date used for the daily marker.
func (g *Generator) Today() string {
	return g.now().UTC().Format(models.DateLayout)
}

// GenerateDailyOrders generates a random batch unless the marker already
// holds today's date. It returns the orders created by this call and whether
// a batch was attempted; generated is false when today's marker was already
// set. If the marker cannot be read nothing is generated.
func (g *Generator) GenerateDailyOrders(ctx context.Context) (created []models.Order, generated bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.Today()
	marker, ok, err := g.kv.Get(ctx, models.DailyGenerationKey)
	if err != nil {
		g.log.Warn("failed to read daily generation marker", zap.Error(err))
		return nil, false, fmt.Errorf("read %s: %w", models.DailyGenerationKey, err)
	}
	if ok && marker == today {
		g.log.Debug("demo orders already generated today", zap.String("date", today))
		return nil, false, nil
	}

	count := g.factory.OrderCount(g.dailyMin, g.dailyMax)
	g.log.Info("generating daily demo orders", zap.String("date", today), zap.Int("count", count))

	created, err = g.GenerateDemoOrders(ctx, count)
	if err != nil {
		return created, true, err
	}
	if err := g.kv.Set(ctx, models.DailyGenerationKey, today); err != nil {
		g.log.Warn("failed to record daily generation marker", zap.String("date", today), zap.Error(err))
	}
	return created, true, nil
}

// RunDaily checks the daily marker every interval until ctx is done.
func (g *Generator) RunDaily(ctx context.Context, interval time.Duration) {
	loop := newPeriodic("daily", interval, func() {
		if _, _, err := g.GenerateDailyOrders(ctx); err != nil && ctx.Err() == nil {
			g.log.Warn("daily generation failed", zap.Error(err))
		}
	}, g.log)
	loop.start()
	<-ctx.Done()
	loop.halt()
}
