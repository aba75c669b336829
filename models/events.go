package models

import "time"

// OrderCreatedEvent is published to Kafka after an order commit succeeds.
// Publishing is best-effort; consumers must tolerate gaps.
type OrderCreatedEvent struct {
	Event       string             `json:"event"`
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	TotalAmount string             `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

type OrderCreatedItem struct {
	SweetID  string `json:"sweet_id"`
	Quantity int    `json:"quantity"`
}
