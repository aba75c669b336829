package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sweet is a catalog entry. Quantity is the on-hand stock and is guarded by a
// database check constraint so no committed write can drive it negative.
type Sweet struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(128);not null;index" json:"name"`
	Category  string          `gorm:"type:varchar(64);not null;index" json:"category"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Sweet) TableName() string {
	return "sweets"
}

type CreateSweetRequest struct {
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// UpdateSweetRequest carries partial updates; nil fields are left untouched.
type UpdateSweetRequest struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity"`
}

type RestockRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// SweetSearchQuery mirrors the /sweets/search query params. Price bounds are
// parsed by the controller so malformed numbers turn into a 400, not a zero.
type SweetSearchQuery struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}
