package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pos-backend/models"
)

// PaymentResult is a created payment plus the invoice's payment rollup.
type PaymentResult struct {
	models.Payment
	IsFullyPaid     bool    `json:"is_fully_paid"`
	RemainingAmount float64 `json:"remaining_amount"`
}

// CreatePayment records a settlement on a COMPLETED invoice. CASH posts a
// SALE register transaction; CREDIT requires a customer on the invoice and
// opens a customer debt for the amount. The invoice total caps the sum of
// stored payments.
func (l *Ledger) CreatePayment(invoiceID, userID string, amount float64, method models.PaymentMethod, referenceNumber, notes string) (*PaymentResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, method)
	}

	var result PaymentResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
			}
			return err
		}
		if invoice.Status != models.InvoiceCompleted {
			return fmt.Errorf("%w: cannot pay a %s invoice", ErrInvalidState, invoice.Status)
		}

		paid, err := l.invoicePaidTx(tx, invoiceID)
		if err != nil {
			return err
		}
		amount = round2(amount)
		if paid+amount > invoice.TotalAmount {
			return fmt.Errorf("%w: %.2f exceeds remaining balance %.2f", ErrOverpayment, amount, invoice.TotalAmount-paid)
		}

		payment := models.Payment{
			InvoiceId:       invoiceID,
			UserId:          userID,
			Amount:          amount,
			Method:          method,
			ReferenceNumber: referenceNumber,
			PaymentDate:     time.Now(),
			Notes:           notes,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		switch method {
		case models.MethodCash:
			ref := payment.Id
			_, err := l.recordTransactionTx(tx, "", amount, models.TxSale,
				fmt.Sprintf("Payment for invoice %s", invoice.InvoiceNumber), userID, &ref)
			if err != nil {
				return err
			}
		case models.MethodCredit:
			if invoice.CustomerId == nil {
				return fmt.Errorf("%w: credit payment requires a customer on the invoice", ErrValidation)
			}
			_, err := l.createDebtTx(tx, *invoice.CustomerId, invoiceID, amount, 0,
				fmt.Sprintf("Credit payment for invoice %s", invoice.InvoiceNumber), userID)
			if err != nil {
				return err
			}
		}

		remaining := round2(invoice.TotalAmount - paid - amount)
		if remaining < 0 {
			remaining = 0
		}
		result = PaymentResult{
			Payment:         payment,
			IsFullyPaid:     paid+amount >= invoice.TotalAmount,
			RemainingAmount: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("invoice_id", invoiceID).Str("payment_id", result.Id).
		Float64("amount", result.Amount).Str("method", string(result.Method)).Msg("payment created")
	return &result, nil
}

// VoidPayment reverses a payment's side effects and deletes the row. CASH
// is balanced with a register VOID transaction; CREDIT cancels the linked
// unpaid debt. Payments on a VOIDED invoice are already reversed by the
// void itself and cannot be voided individually.
func (l *Ledger) VoidPayment(paymentID, reason string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("id = ?", paymentID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
			}
			return err
		}

		var invoice models.Invoice
		if err := tx.Where("id = ?", payment.InvoiceId).First(&invoice).Error; err != nil {
			return err
		}
		if invoice.Status == models.InvoiceVoided {
			return fmt.Errorf("%w: invoice %s is voided", ErrInvalidState, invoice.InvoiceNumber)
		}

		switch payment.Method {
		case models.MethodCash:
			ref := payment.Id
			desc := fmt.Sprintf("Void payment for invoice %s", invoice.InvoiceNumber)
			if reason != "" {
				desc += ": " + reason
			}
			_, err := l.recordTransactionTx(tx, "", payment.Amount, models.TxVoid, desc, payment.UserId, &ref)
			if err != nil {
				return err
			}
		case models.MethodCredit:
			var debt models.CustomerDebt
			err := tx.Where("invoice_id = ? AND is_paid = ?", payment.InvoiceId, false).First(&debt).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				note := "Voided"
				if reason != "" {
					note += ": " + reason
				}
				if err := l.cancelDebtTx(tx, &debt, note); err != nil {
					return err
				}
			}
		}

		return tx.Delete(&payment).Error
	})
}

// ChangeResult is the cash-drawer arithmetic for a tendered amount.
type ChangeResult struct {
	TotalAmount     float64 `json:"total_amount"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	TenderedAmount  float64 `json:"tendered_amount"`
	ChangeDue       float64 `json:"change_due"`
	RemainingAfter  float64 `json:"remaining_after"`
}

// CalculateChange is a pure read: what is still owed on the invoice, and
// what change a tendered amount produces.
func (l *Ledger) CalculateChange(invoiceID string, tenderedAmount float64) (*ChangeResult, error) {
	if tenderedAmount < 0 {
		return nil, fmt.Errorf("%w: tendered amount must not be negative", ErrValidation)
	}
	var invoice models.Invoice
	if err := l.db.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
		}
		return nil, err
	}
	paid, err := l.invoicePaidTx(l.db, invoiceID)
	if err != nil {
		return nil, err
	}

	remaining := round2(invoice.TotalAmount - paid)
	result := ChangeResult{
		TotalAmount:     invoice.TotalAmount,
		PaidAmount:      paid,
		RemainingAmount: remaining,
		TenderedAmount:  round2(tenderedAmount),
	}
	if tenderedAmount >= remaining {
		result.ChangeDue = round2(tenderedAmount - remaining)
	} else {
		result.RemainingAfter = round2(remaining - tenderedAmount)
	}
	return &result, nil
}

// ListInvoicePayments returns an invoice's payments in payment order.
func (l *Ledger) ListInvoicePayments(invoiceID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := l.db.Where("invoice_id = ?", invoiceID).Order("payment_date").Find(&payments).Error
	return payments, err
}

// invoicePaidTx sums the stored (non-voided) payments on an invoice.
func (l *Ledger) invoicePaidTx(tx *gorm.DB, invoiceID string) (float64, error) {
	var paid sql.NullFloat64
	err := tx.Model(&models.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Select("SUM(amount)").
		Scan(&paid).Error
	if err != nil {
		return 0, err
	}
	return round2(paid.Float64), nil
}
