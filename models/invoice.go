package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceCompleted InvoiceStatus = "COMPLETED"
	InvoiceVoided    InvoiceStatus = "VOIDED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceCompleted, InvoiceVoided:
		return true
	}
	return false
}

// PaymentMethod is a closed set; invalid methods are rejected at construction.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCard   PaymentMethod = "CARD"
	MethodCheck  PaymentMethod = "CHECK"
	MethodCredit PaymentMethod = "CREDIT"
	MethodMobile PaymentMethod = "MOBILE"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodCheck, MethodCredit, MethodMobile:
		return true
	}
	return false
}

// Invoice is the sales document. TotalAmount is derived from the item
// subtotals and persisted; it is recomputed after every item mutation.
type Invoice struct {
	Id            string        `json:"id" gorm:"primaryKey"`
	InvoiceNumber string        `json:"invoice_number" gorm:"unique;not null"`
	UserId        string        `json:"user_id" gorm:"not null;index"` // seller
	CustomerId    *string       `json:"customer_id" gorm:"index"`
	Customer      *Customer     `json:"customer,omitempty" gorm:"foreignKey:CustomerId;references:Id"`
	Items         []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE"`
	TotalAmount   float64       `json:"total_amount" gorm:"type:numeric(12,2)"`
	Status        InvoiceStatus `json:"status" gorm:"type:VARCHAR(20);not null;index"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (invoice *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	invoice.Id = uuid.NewString()
	return
}

// InvoiceItem is one product line. At most one row exists per
// (invoice, product); repeated adds bump the quantity instead.
// UnitPrice is a snapshot taken when the line is created, not the live
// catalog price.
type InvoiceItem struct {
	Id            string    `json:"id" gorm:"primaryKey"`
	InvoiceId     string    `json:"-" gorm:"not null;index:idx_invoice_items_invoice_product,unique,priority:1"`
	ProductId     string    `json:"product_id" gorm:"not null;index:idx_invoice_items_invoice_product,unique,priority:2"`
	Product       Product   `json:"-" gorm:"foreignKey:ProductId;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	UnitPrice     float64   `json:"unit_price" gorm:"type:numeric(12,2)"`
	DiscountPrice *float64  `json:"discount_price" gorm:"type:numeric(12,2)"`
	Subtotal      float64   `json:"subtotal" gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (item *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	item.Id = uuid.NewString()
	return
}

// Payment is one settlement against an invoice. Voiding a payment deletes
// the row after reversing its side effects, so the stored rows are exactly
// the non-voided payments.
type Payment struct {
	Id              string        `json:"id" gorm:"primaryKey"`
	InvoiceId       string        `json:"invoice_id" gorm:"not null;index:idx_payments_invoice_paid_at,priority:1"`
	UserId          string        `json:"user_id" gorm:"not null"`
	Amount          float64       `json:"amount" gorm:"type:numeric(12,2)"`
	Method          PaymentMethod `json:"method" gorm:"type:VARCHAR(20);not null"`
	ReferenceNumber string        `json:"reference_number"`
	PaymentDate     time.Time     `json:"payment_date" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	payment.Id = uuid.NewString()
	return
}
