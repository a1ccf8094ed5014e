package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

// Stock holds the current on-hand quantity for one product.
// Quantity is never negative.
type Stock struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	ProductId string    `json:"product_id" gorm:"unique;not null"`
	Product   Product   `json:"-" gorm:"foreignKey:ProductId;references:Id"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (stock *Stock) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	stock.Id = uuid.NewString()
	return
}

// StockMovement is one append-only audit record of a quantity change.
// Quantity stores the absolute magnitude; MovementType carries the sign.
type StockMovement struct {
	Id          string       `json:"id" gorm:"primaryKey"`
	ProductId   string       `json:"product_id" gorm:"not null;index"`
	Product     Product      `json:"-" gorm:"foreignKey:ProductId;references:Id"`
	Quantity    int          `json:"quantity" gorm:"not null"`
	Type        MovementType `json:"movement_type" gorm:"column:movement_type;type:VARCHAR(10);not null;index"`
	Reason      string       `json:"reason"`
	ReferenceId *string      `json:"reference_id" gorm:"index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
}

func (movement *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	movement.Id = uuid.NewString()
	return
}
