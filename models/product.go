package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	Id          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"unique;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (category *Category) BeforeCreate(tx *gorm.DB) (err error) {
	category.Id = uuid.NewString()
	return
}

// Product is the catalog entry the ledger snapshots prices from. The live
// on-hand quantity lives in Stock, never here.
type Product struct {
	Id                string    `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Sku               string    `json:"sku" gorm:"unique;not null"`
	Barcode           string    `json:"barcode" gorm:"index"`
	CategoryId        *string   `json:"category_id" gorm:"index"`
	Category          *Category `json:"category,omitempty" gorm:"foreignKey:CategoryId;references:Id"`
	Description       string    `json:"description"`
	PurchasePrice     float64   `json:"purchase_price" gorm:"type:numeric(12,2)"`
	SellingPrice      float64   `json:"selling_price" gorm:"type:numeric(12,2)"`
	TaxRate           float64   `json:"tax_rate"`
	LowStockThreshold int       `json:"low_stock_threshold" gorm:"default:5"`
	Active            bool      `json:"active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	product.Id = uuid.NewString()
	return
}
