package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerDebt tracks an amount a customer owes for one invoice.
// IsPaid is derived (AmountPaid >= Amount) and recomputed on every update.
// At most one unpaid debt exists per invoice.
type CustomerDebt struct {
	Id              string     `json:"id" gorm:"primaryKey"`
	CustomerId      string     `json:"customer_id" gorm:"not null;index"`
	Customer        Customer   `json:"-" gorm:"foreignKey:CustomerId;references:Id"`
	InvoiceId       string     `json:"invoice_id" gorm:"not null;index"`
	Amount          float64    `json:"amount" gorm:"type:numeric(12,2)"`
	AmountPaid      float64    `json:"amount_paid" gorm:"type:numeric(12,2)"`
	IsPaid          bool       `json:"is_paid" gorm:"index"`
	LastPaymentDate *time.Time `json:"last_payment_date"`
	CreatedBy       string     `json:"created_by"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (debt *CustomerDebt) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	debt.Id = uuid.NewString()
	return
}

// Remaining is the outstanding balance on the debt.
func (debt *CustomerDebt) Remaining() float64 {
	return debt.Amount - debt.AmountPaid
}
