package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionStatus is the register session lifecycle state.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionPaused SessionStatus = "PAUSED"
	SessionClosed SessionStatus = "CLOSED"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionOpen, SessionPaused, SessionClosed:
		return true
	}
	return false
}

// TransactionType classifies a register transaction and fixes its sign:
// SALE, DEPOSIT and DEBT_PAYMENT increase the balance; REFUND, WITHDRAWAL
// and VOID decrease it.
type TransactionType string

const (
	TxSale        TransactionType = "SALE"
	TxRefund      TransactionType = "REFUND"
	TxDeposit     TransactionType = "DEPOSIT"
	TxWithdrawal  TransactionType = "WITHDRAWAL"
	TxVoid        TransactionType = "VOID"
	TxDebtPayment TransactionType = "DEBT_PAYMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxRefund, TxDeposit, TxWithdrawal, TxVoid, TxDebtPayment:
		return true
	}
	return false
}

// Increases reports whether the type adds to the register balance.
func (t TransactionType) Increases() bool {
	switch t {
	case TxSale, TxDeposit, TxDebtPayment:
		return true
	}
	return false
}

// RegisterSession is one bounded period of cash-drawer accountability.
// At most one session with status != CLOSED exists at any time.
// CurrentAmount always equals the newest transaction's NewAmount.
type RegisterSession struct {
	Id             string         `json:"id" gorm:"primaryKey"`
	UserId         string         `json:"user_id" gorm:"not null"` // opening user
	OpeningAmount  float64        `json:"opening_amount" gorm:"type:numeric(12,2)"`
	CurrentAmount  float64        `json:"current_amount" gorm:"type:numeric(12,2)"`
	ClosingAmount  *float64       `json:"closing_amount" gorm:"type:numeric(12,2)"`
	ClosingUserId  *string        `json:"closing_user_id"`
	OpeningTime    time.Time      `json:"opening_time"`
	ClosingTime    *time.Time     `json:"closing_time"`
	Status         SessionStatus  `json:"status" gorm:"type:VARCHAR(10);not null;index"`
	Notes          string         `json:"notes"`
	ClosingSummary datatypes.JSON `json:"closing_summary" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (session *RegisterSession) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	session.Id = uuid.NewString()
	return
}

// RegisterTransaction is one balance-affecting action, with the balance
// snapshot before and after. The log reconstructs the balance from zero.
type RegisterTransaction struct {
	Id             string          `json:"id" gorm:"primaryKey"`
	SessionId      string          `json:"session_id" gorm:"not null;index"`
	UserId         string          `json:"user_id" gorm:"not null"`
	Amount         float64         `json:"amount" gorm:"type:numeric(12,2)"`
	Type           TransactionType `json:"transaction_type" gorm:"column:transaction_type;type:VARCHAR(20);not null;index"`
	Description    string          `json:"description"`
	ReferenceId    *string         `json:"reference_id" gorm:"index"`
	PreviousAmount float64         `json:"previous_amount" gorm:"type:numeric(12,2)"`
	NewAmount      float64         `json:"new_amount" gorm:"type:numeric(12,2)"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
}

func (transaction *RegisterTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	transaction.Id = uuid.NewString()
	return
}
