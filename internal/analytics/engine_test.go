package analytics

import (
	"testing"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func hourOrders() []models.Order {
	return []models.Order{
		{ID: "1", CustomerName: "Aarav", Status: models.OrderStatusOnRoute, Amount: 100, CreatedAt: ts("2024-01-01T09:15:00Z")},
		{ID: "2", CustomerName: "Diya", Status: models.OrderStatusOnRoute, Amount: 300, CreatedAt: ts("2024-01-01T09:45:00Z")},
		{ID: "3", CustomerName: "Aarav", Status: models.OrderStatusOnRoute, Amount: 50, CreatedAt: ts("2024-01-01T14:00:00Z")},
	}
}

func TestBuildChartData_Hour(t *testing.T) {
	tests := []struct {
		name       string
		metric     models.Metric
		wantLabels []string
		wantData   []float64
	}{
		{"total revenue", models.MetricTotalRevenue, []string{"09:00", "14:00"}, []float64{400, 50}},
		{"order count", models.MetricOrderCount, []string{"09:00", "14:00"}, []float64{2, 1}},
		{"average", models.MetricAvgOrderValue, []string{"09:00", "14:00"}, []float64{200, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := models.ChartQuery{Kind: models.ChartKindBar, Dimension: models.DimensionHour, Metric: tt.metric}
			got := BuildChartDataIn(hourOrders(), q, time.UTC)
			assert.Equal(t, tt.wantLabels, got.Labels)
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}

func TestBuildChartData_StatusFilterNoMatch(t *testing.T) {
	q := models.ChartQuery{
		Kind:      models.ChartKindPie,
		Dimension: models.DimensionHour,
		Metric:    models.MetricOrderCount,
		Filters:   models.ChartFilters{Status: models.OrderStatusDelivered},
	}
	got := BuildChartDataIn(hourOrders(), q, time.UTC)
	assert.NotNil(t, got.Labels)
	assert.NotNil(t, got.Data)
	assert.Empty(t, got.Labels)
	assert.Empty(t, got.Data)
}

func TestBuildChartData_HourSortIsNumeric(t *testing.T) {
	orders := []models.Order{
		{Amount: 1, CreatedAt: ts("2024-01-01T23:00:00Z")},
		{Amount: 1, CreatedAt: ts("2024-01-01T02:00:00Z")},
		{Amount: 1, CreatedAt: ts("2024-01-01T10:00:00Z")},
	}
	q := models.ChartQuery{Dimension: models.DimensionHour, Metric: models.MetricOrderCount}
	got := BuildChartDataIn(orders, q, time.UTC)
	assert.Equal(t, []string{"02:00", "10:00", "23:00"}, got.Labels)
}

func TestBuildChartData_HourUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	q := models.ChartQuery{Dimension: models.DimensionHour, Metric: models.MetricOrderCount}
	got := BuildChartDataIn(hourOrders()[:1], q, ist)
	assert.Equal(t, []string{"14:00"}, got.Labels)
}

func TestBuildChartData_DateDimension(t *testing.T) {
	orders := []models.Order{
		{Amount: 10, CreatedAt: ts("2024-01-02T10:00:00Z")},
		{Amount: 20, CreatedAt: ts("2024-01-01T10:00:00Z")},
		{Amount: 30, CreatedAt: ts("2024-01-02T11:00:00Z")},
		{Amount: 40},
	}
	q := models.ChartQuery{Dimension: models.DimensionDate, Metric: models.MetricTotalRevenue}
	got := BuildChartDataIn(orders, q, time.UTC)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, got.Labels)
	assert.Equal(t, []float64{20, 40}, got.Data)
}

func TestBuildChartData_CustomerAndStatus(t *testing.T) {
	orders := hourOrders()
	orders[1].Status = models.OrderStatusDelivered
	orders = append(orders, models.Order{CustomerName: "", Status: models.OrderStatusOnRoute, Amount: 5})

	byCustomer := BuildChartDataIn(orders, models.ChartQuery{Dimension: models.DimensionCustomer, Metric: models.MetricTotalRevenue}, time.UTC)
	assert.Equal(t, []string{"Aarav", "Diya"}, byCustomer.Labels)
	assert.Equal(t, []float64{150, 300}, byCustomer.Data)

	byStatus := BuildChartDataIn(orders, models.ChartQuery{Dimension: models.DimensionStatus, Metric: models.MetricOrderCount}, time.UTC)
	assert.Equal(t, []string{"DELIVERED", "ON_ROUTE"}, byStatus.Labels)
	assert.Equal(t, []float64{1, 3}, byStatus.Data)
}

func TestBuildChartData_DateRange(t *testing.T) {
	orders := []models.Order{
		{ID: "before", Status: models.OrderStatusOnRoute, Amount: 1, CreatedAt: ts("2023-12-31T23:59:59Z")},
		{ID: "start", Status: models.OrderStatusOnRoute, Amount: 2, CreatedAt: ts("2024-01-01T00:00:00Z")},
		{ID: "end", Status: models.OrderStatusOnRoute, Amount: 4, CreatedAt: ts("2024-01-02T23:59:59Z")},
		{ID: "after", Status: models.OrderStatusOnRoute, Amount: 8, CreatedAt: ts("2024-01-03T00:00:00Z")},
		{ID: "untimed", Status: models.OrderStatusOnRoute, Amount: 16},
	}
	q := models.ChartQuery{
		Dimension: models.DimensionStatus,
		Metric:    models.MetricTotalRevenue,
		Filters:   models.ChartFilters{FromDate: day("2024-01-01"), ToDate: day("2024-01-02")},
	}
	got := BuildChartDataIn(orders, q, time.UTC)
	require.Len(t, got.Data, 1)
	assert.Equal(t, 6.0, got.Data[0])

	q.Filters = models.ChartFilters{FromDate: day("2024-01-02")}
	got = BuildChartDataIn(orders, q, time.UTC)
	assert.Equal(t, []float64{12}, got.Data)
}

func TestBuildChartData_BucketInvariants(t *testing.T) {
	orders := []models.Order{
		{Amount: 120.5, CreatedAt: ts("2024-03-01T08:00:00Z")},
		{Amount: 80.25, CreatedAt: ts("2024-03-01T12:00:00Z")},
		{Amount: 99.75, CreatedAt: ts("2024-03-01T19:00:00Z")},
		{Amount: 10, CreatedAt: ts("2024-03-02T08:00:00Z")},
	}
	base := models.ChartQuery{Dimension: models.DimensionDate}

	count := BuildChartDataIn(orders, withMetric(base, models.MetricOrderCount), time.UTC)
	sum := BuildChartDataIn(orders, withMetric(base, models.MetricTotalRevenue), time.UTC)
	avg := BuildChartDataIn(orders, withMetric(base, models.MetricAvgOrderValue), time.UTC)

	assert.Equal(t, []float64{3, 1}, count.Data)
	assert.Equal(t, []float64{300.5, 10}, sum.Data)
	for i := range avg.Data {
		assert.InDelta(t, sum.Data[i]/count.Data[i], avg.Data[i], 1e-9)
	}
}

func TestBuildChartData_UnknownMetric(t *testing.T) {
	q := models.ChartQuery{Dimension: models.DimensionHour, Metric: "median"}
	got := BuildChartDataIn(hourOrders(), q, time.UTC)
	assert.Equal(t, []float64{0, 0}, got.Data)
}

func TestBuildChartData_Deterministic(t *testing.T) {
	q := models.ChartQuery{Dimension: models.DimensionCustomer, Metric: models.MetricAvgOrderValue}
	first := BuildChartDataIn(hourOrders(), q, time.UTC)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildChartDataIn(hourOrders(), q, time.UTC))
	}
}

func withMetric(q models.ChartQuery, m models.Metric) models.ChartQuery {
	q.Metric = m
	return q
}
