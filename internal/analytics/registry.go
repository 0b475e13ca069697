package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/metrics"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"go.uber.org/zap"
)

// OrderSource supplies the order snapshot a new chart is computed from.
type OrderSource interface {
	Orders() []models.Order
}

type RegistryOption func(*Registry)

// WithLocation sets the time zone used for hour buckets and date filters.
func WithLocation(loc *time.Location) RegistryOption {
	return func(r *Registry) { r.loc = loc }
}

// Registry keeps user-defined charts. The whole registry is written as one
// JSON blob under models.ChartsStorageKey whenever it changes.
type Registry struct {
	kv     repositories.KeyValueStore
	source OrderSource
	log    *zap.Logger
	loc    *time.Location

	mu     sync.Mutex
	charts []models.StoredChart
	nextID int
}

func NewRegistry(ctx context.Context, kv repositories.KeyValueStore, source OrderSource, log *zap.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		kv:     kv,
		source: source,
		log:    logger.OrGlobal(log),
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reload(ctx)
	return r
}

// Reload replaces the in-memory registry with the persisted one. A missing,
// unreadable or corrupt blob leaves an empty registry.
func (r *Registry) Reload(ctx context.Context) {
	charts := r.load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.charts = charts
	r.nextID = 1
	for _, c := range charts {
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	metrics.StoredCharts.Set(float64(len(r.charts)))
}

func (r *Registry) load(ctx context.Context) []models.StoredChart {
	charts := make([]models.StoredChart, 0)
	raw, ok, err := r.kv.Get(ctx, models.ChartsStorageKey)
	if err != nil {
		r.log.Warn("failed to read chart registry", zap.Error(err))
		return charts
	}
	if !ok || raw == "" {
		return charts
	}

	var decoded []models.StoredChart
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		r.log.Warn("discarding corrupt chart registry", zap.Error(err))
		return charts
	}
	return append(charts, decoded...)
}

// AddChart computes q against the current orders and stores the frozen
// result. The chart never recomputes afterwards.
func (r *Registry) AddChart(ctx context.Context, q models.ChartQuery) (models.StoredChart, error) {
	if err := q.Validate(); err != nil {
		return models.StoredChart{}, err
	}
	result := BuildChartDataIn(r.source.Orders(), q, r.loc)

	r.mu.Lock()
	defer r.mu.Unlock()
	chart := models.StoredChart{
		ID:        r.nextID,
		ChartType: q.Kind,
		XAxis:     q.Dimension,
		YAxis:     q.Metric,
		Labels:    result.Labels,
		Data:      result.Data,
		Title:     q.Title(),
	}
	r.nextID++
	r.charts = append(r.charts, chart)
	r.persist(ctx)
	return cloneChart(chart), nil
}

// RemoveChart reports whether a chart with id existed.
func (r *Registry) RemoveChart(ctx context.Context, id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, c := range r.charts {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	r.charts = append(r.charts[:idx:idx], r.charts[idx+1:]...)
	r.persist(ctx)
	return true
}

// Clear empties the registry and erases the persisted blob.
func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charts = make([]models.StoredChart, 0)

	metrics.StoredCharts.Set(0)
	if err := r.kv.Remove(ctx, models.ChartsStorageKey); err != nil {
		r.log.Warn("failed to erase chart registry", zap.Error(err))
	}
}

func (r *Registry) Charts() []models.StoredChart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCharts(r.charts)
}

// persist writes the whole registry. Callers hold r.mu so writes land in
// mutation order.
func (r *Registry) persist(ctx context.Context) {
	metrics.StoredCharts.Set(float64(len(r.charts)))

	data, err := json.Marshal(r.charts)
	if err != nil {
		r.log.Error("failed to encode chart registry", zap.Error(err))
		return
	}
	if err := r.kv.Set(ctx, models.ChartsStorageKey, string(data)); err != nil {
		r.log.Warn("failed to persist chart registry",
			zap.Int("charts", len(r.charts)),
			zap.Error(fmt.Errorf("set %s: %w", models.ChartsStorageKey, err)),
		)
	}
}

func cloneCharts(in []models.StoredChart) []models.StoredChart {
	out := make([]models.StoredChart, 0, len(in))
	for _, c := range in {
		out = append(out, cloneChart(c))
	}
	return out
}

func cloneChart(c models.StoredChart) models.StoredChart {
	c.Labels = append(make([]string, 0, len(c.Labels)), c.Labels...)
	c.Data = append(make([]float64, 0, len(c.Data)), c.Data...)
	return c
}
