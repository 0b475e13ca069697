package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidQuery = errors.New("invalid chart query")

type ChartKind string
type Dimension string
type Metric string

var (
	chartKindLabels = map[ChartKind]string{
		ChartKindBar:      "Bar",
		ChartKindLine:     "Line",
		ChartKindPie:      "Pie",
		ChartKindDoughnut: "Doughnut",
	}
	dimensionLabels = map[Dimension]string{
		DimensionDate:     "Date",
		DimensionHour:     "Hour of Day",
		DimensionStatus:   "Status",
		DimensionCustomer: "Customer",
	}
	metricLabels = map[Metric]string{
		MetricOrderCount:    "Order Count",
		MetricTotalRevenue:  "Total Revenue",
		MetricAvgOrderValue: "Average Order Value",
	}
)

// Label falls back to the raw value for unknown kinds.
func (k ChartKind) Label() string {
	if l, ok := chartKindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// ChartFilters narrows the orders fed into an aggregation. FromDate and
// ToDate are calendar days; only their year, month and day are used.
type ChartFilters struct {
	Status   OrderStatus `json:"status,omitempty"`
	FromDate *time.Time  `json:"fromDate,omitempty"`
	ToDate   *time.Time  `json:"toDate,omitempty"`
}

type ChartQuery struct {
	Kind      ChartKind    `json:"chartType"`
	Dimension Dimension    `json:"xAxis"`
	Metric    Metric       `json:"yAxis"`
	Filters   ChartFilters `json:"filters"`
}

func (q ChartQuery) Validate() error {
	if _, ok := chartKindLabels[q.Kind]; !ok {
		return fmt.Errorf("%w: unknown chart type %q", ErrInvalidQuery, q.Kind)
	}
	if _, ok := dimensionLabels[q.Dimension]; !ok {
		return fmt.Errorf("%w: unknown dimension %q", ErrInvalidQuery, q.Dimension)
	}
	if _, ok := metricLabels[q.Metric]; !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidQuery, q.Metric)
	}
	switch q.Filters.Status {
	case "", OrderStatusOnRoute, OrderStatusDelivered:
	default:
		return fmt.Errorf("%w: unknown status filter %q", ErrInvalidQuery, q.Filters.Status)
	}
	return nil
}

func (q ChartQuery) Title() string {
	return fmt.Sprintf("%s - %s vs %s", q.Kind.Label(), q.Dimension.Label(), q.Metric.Label())
}

type ChartResult struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// StoredChart is a chart frozen at creation time. It is never recomputed.
type StoredChart struct {
	ID        int       `json:"id"`
	ChartType ChartKind `json:"chartType"`
	XAxis     Dimension `json:"xAxis,omitempty"`
	YAxis     Metric    `json:"yAxis,omitempty"`
	Labels    []string  `json:"labels"`
	Data      []float64 `json:"data"`
	Title     string    `json:"title"`
}
