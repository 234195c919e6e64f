package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventOrderTransitioned = "OrderTransitioned"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID                string `json:"order_id"`
	BusinessID             string `json:"business_id"`
	UserID                 string `json:"user_id"`
	TotalAmount            int64  `json:"total_amount"`
	KnoottReceivedAmount   int64  `json:"knoott_received_amount"`
	ProviderReceivedAmount int64  `json:"povider_received_amount"`
}

type OrderTransitionedPayload struct {
	OrderID                string    `json:"order_id"`
	BusinessID             string    `json:"business_id"`
	Action                 Action    `json:"action"`
	From                   Status    `json:"from"`
	To                     Status    `json:"to"`
	TotalAmount            int64     `json:"total_amount"`
	KnoottReceivedAmount   int64     `json:"knoott_received_amount"`
	ProviderReceivedAmount int64     `json:"povider_received_amount"`
	OccurredAt             time.Time `json:"occurred_at"`
}

func transitionedPayload(prev, next Order, action Action) OrderTransitionedPayload {
	return OrderTransitionedPayload{
		OrderID:                next.ID,
		BusinessID:             next.BusinessID,
		Action:                 action,
		From:                   prev.Status,
		To:                     next.Status,
		TotalAmount:            next.TotalAmount,
		KnoottReceivedAmount:   next.KnoottReceivedAmount,
		ProviderReceivedAmount: next.ProviderReceivedAmount,
		OccurredAt:             next.UpdatedAt,
	}
}
