package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pos-backend/models"
)

// CreateDebt opens a debt record for an invoice. At most one unpaid debt
// may exist per invoice.
func (l *Ledger) CreateDebt(customerID, invoiceID string, amount, amountPaid float64, notes, userID string) (*models.CustomerDebt, error) {
	var debt *models.CustomerDebt
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		debt, err = l.createDebtTx(tx, customerID, invoiceID, amount, amountPaid, notes, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// createDebtTx runs on an already-open transaction so CreatePayment can
// mint a debt atomically with the CREDIT payment row.
func (l *Ledger) createDebtTx(tx *gorm.DB, customerID, invoiceID string, amount, amountPaid float64, notes, userID string) (*models.CustomerDebt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debt amount must be greater than zero", ErrValidation)
	}
	if amountPaid < 0 {
		return nil, fmt.Errorf("%w: amount paid cannot be negative", ErrValidation)
	}
	if amountPaid > amount {
		return nil, fmt.Errorf("%w: amount paid cannot exceed total amount", ErrValidation)
	}

	var count int64
	if err := tx.Model(&models.Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	if err := tx.Model(&models.Invoice{}).Where("id = ?", invoiceID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
	}
	if err := tx.Model(&models.CustomerDebt{}).
		Where("invoice_id = ? AND is_paid = ?", invoiceID, false).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: an unpaid debt already exists for invoice %s", ErrConflict, invoiceID)
	}

	debt := models.CustomerDebt{
		CustomerId: customerID,
		InvoiceId:  invoiceID,
		Amount:     round2(amount),
		AmountPaid: round2(amountPaid),
		IsPaid:     amountPaid >= amount,
		CreatedBy:  userID,
		Notes:      notes,
	}
	if amountPaid > 0 {
		now := time.Now()
		debt.LastPaymentDate = &now
	}
	if err := tx.Create(&debt).Error; err != nil {
		return nil, err
	}
	l.log.Debug().Str("debt_id", debt.Id).Str("invoice_id", invoiceID).
		Float64("amount", debt.Amount).Msg("debt created")
	return &debt, nil
}

// DebtPaymentResult is the updated debt plus the payment row it produced.
type DebtPaymentResult struct {
	models.CustomerDebt
	Payment   models.Payment `json:"payment"`
	Remaining float64        `json:"remaining"`
}

// RecordDebtPayment pays down a debt. It updates the debt, writes a Payment
// row against the debt's invoice, and for CASH posts a DEBT_PAYMENT
// register transaction, all in one database transaction. The payment row is
// inserted directly: the debt's own remaining balance bounds it, not the
// invoice-level overpayment check (the invoice already carries the CREDIT
// payment row that minted the debt).
func (l *Ledger) RecordDebtPayment(debtID string, paymentAmount float64, method models.PaymentMethod, userID, notes string) (*DebtPaymentResult, error) {
	if paymentAmount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, method)
	}
	if method == models.MethodCredit {
		return nil, fmt.Errorf("%w: cannot pay a debt on credit", ErrValidation)
	}

	var result DebtPaymentResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var debt models.CustomerDebt
		if err := tx.Where("id = ?", debtID).First(&debt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: debt %s", ErrNotFound, debtID)
			}
			return err
		}
		if debt.IsPaid {
			return fmt.Errorf("%w: debt %s is already paid", ErrInvalidState, debtID)
		}

		paymentAmount = round2(paymentAmount)
		remaining := round2(debt.Amount - debt.AmountPaid)
		if paymentAmount > remaining {
			return fmt.Errorf("%w: %.2f exceeds remaining debt %.2f", ErrOverpayment, paymentAmount, remaining)
		}

		now := time.Now()
		debt.AmountPaid = round2(debt.AmountPaid + paymentAmount)
		debt.IsPaid = debt.AmountPaid >= debt.Amount
		debt.LastPaymentDate = &now
		debt.Notes = appendNote(debt.Notes, fmt.Sprintf("Payment of %.2f: %s", paymentAmount, notes))
		if err := tx.Model(&debt).Updates(map[string]any{
			"amount_paid":       debt.AmountPaid,
			"is_paid":           debt.IsPaid,
			"last_payment_date": debt.LastPaymentDate,
			"notes":             debt.Notes,
		}).Error; err != nil {
			return err
		}

		payment := models.Payment{
			InvoiceId:   debt.InvoiceId,
			UserId:      userID,
			Amount:      paymentAmount,
			Method:      method,
			PaymentDate: now,
			Notes:       fmt.Sprintf("Debt payment for debt %s", debtID),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if method == models.MethodCash {
			ref := payment.Id
			_, err := l.recordTransactionTx(tx, "", paymentAmount, models.TxDebtPayment,
				fmt.Sprintf("Debt payment for customer %s", debt.CustomerId), userID, &ref)
			if err != nil {
				return err
			}
		}

		result = DebtPaymentResult{
			CustomerDebt: debt,
			Payment:      payment,
			Remaining:    round2(debt.Amount - debt.AmountPaid),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("debt_id", debtID).Float64("amount", paymentAmount).
		Bool("is_paid", result.IsPaid).Msg("debt payment recorded")
	return &result, nil
}

// DebtUpdate carries optional field changes for UpdateDebt; nil means keep.
type DebtUpdate struct {
	Amount     *float64
	AmountPaid *float64
	IsPaid     *bool
	Notes      *string
}

// UpdateDebt applies manual corrections. IsPaid stays derived: raising the
// amount above what was paid clears it, and forcing IsPaid settles the
// outstanding balance.
func (l *Ledger) UpdateDebt(debtID string, update DebtUpdate) (*models.CustomerDebt, error) {
	var debt models.CustomerDebt
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", debtID).First(&debt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: debt %s", ErrNotFound, debtID)
			}
			return err
		}

		now := time.Now()
		if update.Amount != nil {
			if *update.Amount < 0 {
				return fmt.Errorf("%w: amount cannot be negative", ErrValidation)
			}
			if *update.Amount < debt.AmountPaid {
				return fmt.Errorf("%w: total amount cannot be less than amount already paid", ErrValidation)
			}
			debt.Amount = round2(*update.Amount)
			debt.IsPaid = debt.AmountPaid >= debt.Amount
		}
		if update.AmountPaid != nil {
			if *update.AmountPaid < 0 {
				return fmt.Errorf("%w: amount paid cannot be negative", ErrValidation)
			}
			if *update.AmountPaid > debt.Amount {
				return fmt.Errorf("%w: amount paid cannot exceed total debt amount", ErrValidation)
			}
			if *update.AmountPaid > debt.AmountPaid {
				debt.LastPaymentDate = &now
			}
			debt.AmountPaid = round2(*update.AmountPaid)
			debt.IsPaid = debt.AmountPaid >= debt.Amount
		}
		if update.IsPaid != nil && *update.IsPaid && !debt.IsPaid {
			debt.AmountPaid = debt.Amount
			debt.IsPaid = true
			debt.LastPaymentDate = &now
		}
		if update.Notes != nil {
			debt.Notes = *update.Notes
		}

		return tx.Model(&debt).Updates(map[string]any{
			"amount":            debt.Amount,
			"amount_paid":       debt.AmountPaid,
			"is_paid":           debt.IsPaid,
			"last_payment_date": debt.LastPaymentDate,
			"notes":             debt.Notes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// cancelDebtTx settles a debt without money changing hands, used when its
// invoice or minting payment is voided.
func (l *Ledger) cancelDebtTx(tx *gorm.DB, debt *models.CustomerDebt, note string) error {
	now := time.Now()
	debt.AmountPaid = debt.Amount
	debt.IsPaid = true
	debt.LastPaymentDate = &now
	debt.Notes = appendNote(debt.Notes, note)
	return tx.Model(debt).Updates(map[string]any{
		"amount_paid":       debt.AmountPaid,
		"is_paid":           debt.IsPaid,
		"last_payment_date": debt.LastPaymentDate,
		"notes":             debt.Notes,
	}).Error
}

// ListCustomerDebts returns a customer's debts, newest first. Paid debts
// are excluded unless includePaid is set.
func (l *Ledger) ListCustomerDebts(customerID string, includePaid bool) ([]models.CustomerDebt, error) {
	q := l.db.Where("customer_id = ?", customerID)
	if !includePaid {
		q = q.Where("is_paid = ?", false)
	}
	var debts []models.CustomerDebt
	err := q.Order("created_at DESC").Find(&debts).Error
	return debts, err
}

// AgeBucket aggregates outstanding debt for one age band.
type AgeBucket struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// DebtAgeSummary is the outstanding-debt picture bucketed by days open.
type DebtAgeSummary struct {
	TotalDebts  int         `json:"total_debts"`
	TotalAmount float64     `json:"total_amount"`
	Buckets     []AgeBucket `json:"buckets"`
}

// DebtSummaryByAge buckets unpaid debts into 0-30/31-60/61-90/90+ days
// outstanding. Reporting only.
func (l *Ledger) DebtSummaryByAge() (*DebtAgeSummary, error) {
	var debts []models.CustomerDebt
	if err := l.db.Where("is_paid = ?", false).Find(&debts).Error; err != nil {
		return nil, err
	}

	summary := DebtAgeSummary{
		Buckets: []AgeBucket{
			{Label: "0-30"},
			{Label: "31-60"},
			{Label: "61-90"},
			{Label: "90+"},
		},
	}
	now := time.Now()
	for _, debt := range debts {
		days := int(now.Sub(debt.CreatedAt).Hours() / 24)
		idx := 3
		switch {
		case days <= 30:
			idx = 0
		case days <= 60:
			idx = 1
		case days <= 90:
			idx = 2
		}
		remaining := debt.Remaining()
		summary.Buckets[idx].Count++
		summary.Buckets[idx].Amount = round2(summary.Buckets[idx].Amount + remaining)
		summary.TotalDebts++
		summary.TotalAmount = round2(summary.TotalAmount + remaining)
	}
	return &summary, nil
}
