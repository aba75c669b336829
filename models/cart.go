package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the server-side cart, stored as a JSON blob in Redis keyed by user.
// It is a convenience layer only: order placement re-validates stock and
// pricing against the catalog.
type Cart struct {
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	SweetID  uuid.UUID       `json:"sweet_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (c *Cart) FindItem(sweetID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].SweetID == sweetID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) RemoveItem(sweetID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].SweetID == sweetID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

type AddCartItemRequest struct {
	SweetID  uuid.UUID `json:"sweet_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	DeliveryAddress Address `json:"deliveryAddress"`
}
