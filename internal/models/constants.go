package models

const (
	OrderStatusOnRoute   OrderStatus = "ON_ROUTE"
	OrderStatusDelivered OrderStatus = "DELIVERED"

	ChartKindBar      ChartKind = "bar"
	ChartKindLine     ChartKind = "line"
	ChartKindPie      ChartKind = "pie"
	ChartKindDoughnut ChartKind = "doughnut"

	DimensionDate     Dimension = "date"
	DimensionHour     Dimension = "hour"
	DimensionStatus   Dimension = "status"
	DimensionCustomer Dimension = "customer"

	MetricOrderCount    Metric = "orderCount"
	MetricTotalRevenue  Metric = "totalRevenue"
	MetricAvgOrderValue Metric = "avgOrderValue"

	// DateLayout is the YYYY-MM-DD form used for date buckets, the daily
	// marker and "today" comparisons.
	DateLayout = "2006-01-02"

	ChartsStorageKey     = "custom_analytics_charts"
	DailyGenerationKey   = "demo_orders_generated_on"
	TopOrdersOfDayLimit  = 5
	TopicOrderLocation   = "order_location_events"
	TopicOrderDelivery   = "order_delivery_events"
	OrderStoreMemory     = "memory"
	OrderStorePostgres   = "postgres"
	KVStoreMemory        = "memory"
	KVStoreFile          = "file"
	KVStorePostgres      = "postgres"
	KVStoreS3            = "s3"
	EventOutputNone      = "none"
	EventOutputConsole   = "console"
	EventOutputFile      = "file"
	EventOutputKafka     = "kafka"
	EventOutputPostgres  = "postgres"
	ProdStage            = "prod"
	DefaultTimezoneLocal = "Local"
)
