package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/store"
)

const (
	EventTypeLocationUpdated = "order_location_updated"
	EventTypeOrderDelivered  = "order_delivered"
)

// OrderEvent is the message published for a location or delivery change.
// Timestamp is in Unix milliseconds.
type OrderEvent struct {
	Timestamp    int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType    string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderID      string  `json:"orderId" parquet:"name=orderId,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerName string  `json:"customerName" parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status       string  `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	Latitude     float64 `json:"latitude" parquet:"name=latitude,type=DOUBLE"`
	Longitude    float64 `json:"longitude" parquet:"name=longitude,type=DOUBLE"`
	Amount       float64 `json:"amount" parquet:"name=amount,type=DOUBLE"`
}

type EventMessage struct {
	Topic   string
	Message []byte
}

// SerializeChange converts a store change into a topic message. ok is false
// for change types that are not published.
func SerializeChange(c store.Change, at time.Time) (EventMessage, bool, error) {
	if c.Order == nil {
		return EventMessage{}, false, nil
	}

	var topic, eventType string
	switch c.Type {
	case store.ChangeLocation:
		topic, eventType = models.TopicOrderLocation, EventTypeLocationUpdated
	case store.ChangeDelivered:
		topic, eventType = models.TopicOrderDelivery, EventTypeOrderDelivered
	default:
		return EventMessage{}, false, nil
	}

	event := OrderEvent{
		Timestamp:    at.UnixMilli(),
		EventType:    eventType,
		OrderID:      c.Order.ID,
		CustomerName: c.Order.CustomerName,
		Status:       string(c.Order.Status),
		Latitude:     c.Order.Latitude,
		Longitude:    c.Order.Longitude,
		Amount:       c.Order.Amount,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return EventMessage{}, false, fmt.Errorf("failed to serialize %s event: %w", eventType, err)
	}
	return EventMessage{Topic: topic, Message: msg}, true, nil
}
