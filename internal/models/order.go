package models

import "time"

type OrderStatus string

type Order struct {
	ID           string      `json:"id,omitempty"`
	CustomerName string      `json:"customerName"`
	Status       OrderStatus `json:"status"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	Amount       float64     `json:"amount"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
}

// OrderPatch carries the fields of a partial update. Nil fields are left untouched.
type OrderPatch struct {
	Latitude  *float64     `json:"latitude,omitempty"`
	Longitude *float64     `json:"longitude,omitempty"`
	Status    *OrderStatus `json:"status,omitempty"`
}

// DateKey returns the calendar date of the creation timestamp as it was
// written, i.e. in the timestamp's own offset.
func (o Order) DateKey() (string, bool) {
	if o.CreatedAt == nil {
		return "", false
	}
	return o.CreatedAt.Format(DateLayout), true
}

func (o Order) Position() Location {
	return Location{Lat: o.Latitude, Lon: o.Longitude}
}

func (o Order) IsOnRoute() bool {
	return o.Status == OrderStatusOnRoute
}

func LocationPatch(lat, lng float64) OrderPatch {
	return OrderPatch{Latitude: &lat, Longitude: &lng}
}

func StatusPatch(status OrderStatus) OrderPatch {
	return OrderPatch{Status: &status}
}

// OrderMetrics is the dashboard summary for a single day.
type OrderMetrics struct {
	Date         string  `json:"date"`
	TotalOrders  int     `json:"totalOrders"`
	TotalRevenue float64 `json:"totalRevenue"`
	TopOrders    []Order `json:"topOrders"`
}
