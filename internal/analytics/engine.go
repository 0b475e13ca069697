package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
)

type bucket struct {
	count int
	sum   float64
}

// BuildChartData aggregates orders for q, bucketing hours and resolving
// date filters in the local time zone.
func BuildChartData(orders []models.Order, q models.ChartQuery) models.ChartResult {
	return BuildChartDataIn(orders, q, time.Local)
}

// BuildChartDataIn is BuildChartData with an explicit location. The result is
// a pure function of its inputs.
func BuildChartDataIn(orders []models.Order, q models.ChartQuery, loc *time.Location) models.ChartResult {
	if loc == nil {
		loc = time.Local
	}

	buckets := make(map[string]*bucket)
	for _, o := range filterOrders(orders, q.Filters, loc) {
		key, ok := bucketKey(o, q.Dimension, loc)
		if !ok || key == "" {
			continue
		}
		b, found := buckets[key]
		if !found {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.sum += o.Amount
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sortKeys(keys, q.Dimension)

	result := models.ChartResult{
		Labels: make([]string, 0, len(keys)),
		Data:   make([]float64, 0, len(keys)),
	}
	for _, k := range keys {
		result.Labels = append(result.Labels, k)
		result.Data = append(result.Data, metricValue(buckets[k], q.Metric))
	}
	return result
}

func filterOrders(orders []models.Order, f models.ChartFilters, loc *time.Location) []models.Order {
	var from, to time.Time
	if f.FromDate != nil {
		from = startOfDay(*f.FromDate, loc)
	}
	if f.ToDate != nil {
		to = endOfDay(*f.ToDate, loc)
	}
	ranged := f.FromDate != nil || f.ToDate != nil

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if ranged {
			if o.CreatedAt == nil {
				continue
			}
			if f.FromDate != nil && o.CreatedAt.Before(from) {
				continue
			}
			if f.ToDate != nil && o.CreatedAt.After(to) {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

func startOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func endOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, int(999*time.Millisecond), loc)
}

func bucketKey(o models.Order, dim models.Dimension, loc *time.Location) (string, bool) {
	switch dim {
	case models.DimensionDate:
		return o.DateKey()
	case models.DimensionHour:
		if o.CreatedAt == nil {
			return "", false
		}
		return fmt.Sprintf("%02d:00", o.CreatedAt.In(loc).Hour()), true
	case models.DimensionStatus:
		return string(o.Status), true
	case models.DimensionCustomer:
		return o.CustomerName, true
	default:
		return "", false
	}
}

func sortKeys(keys []string, dim models.Dimension) {
	if dim == models.DimensionHour {
		sort.SliceStable(keys, func(i, j int) bool {
			return hourPrefix(keys[i]) < hourPrefix(keys[j])
		})
		return
	}
	sort.Strings(keys)
}

func hourPrefix(key string) int {
	h, _, _ := strings.Cut(key, ":")
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	return n
}

func metricValue(b *bucket, m models.Metric) float64 {
	switch m {
	case models.MetricOrderCount:
		return float64(b.count)
	case models.MetricTotalRevenue:
		return b.sum
	case models.MetricAvgOrderValue:
		if b.count == 0 {
			return 0
		}
		return b.sum / float64(b.count)
	default:
		return 0
	}
}
