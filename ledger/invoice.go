package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"pos-backend/models"
)

// CreateInvoice opens a new DRAFT invoice with a fresh invoice number and a
// zero total. The number is {YYYYMMDD}{4-digit sequence}; the sequence
// restarts at 1 each day.
func (l *Ledger) CreateInvoice(userID string, customerID *string, notes string) (*models.Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if customerID != nil {
		var count int64
		if err := l.db.Model(&models.Customer{}).Where("id = ?", *customerID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, *customerID)
		}
	}

	invoice := models.Invoice{
		UserId:     userID,
		CustomerId: customerID,
		Status:     models.InvoiceDraft,
		Notes:      notes,
	}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		number, err := l.nextInvoiceNumberTx(tx)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("invoice_id", invoice.Id).Str("number", invoice.InvoiceNumber).Msg("invoice created")
	return &invoice, nil
}

// nextInvoiceNumberTx allocates 1 + the highest sequence sharing today's
// date prefix. The suffix is compared numerically so the sequence keeps
// advancing past 9999. Runs inside the creating transaction so two inserts
// in the same transaction scope cannot collide.
func (l *Ledger) nextInvoiceNumberTx(tx *gorm.DB) (string, error) {
	prefix := time.Now().Format("20060102")

	var max sql.NullInt64
	err := tx.Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Select("MAX(CAST(SUBSTR(invoice_number, ?) AS INTEGER))", len(prefix)+1).
		Scan(&max).Error
	if err != nil {
		return "", err
	}

	next := 1
	if max.Valid {
		next = int(max.Int64) + 1
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// AddItem puts quantity units of a product on a DRAFT invoice. When the
// product is already on the invoice the existing line's quantity is
// incremented instead of creating a duplicate row. unitPrice overrides the
// catalog selling price snapshot; discountPrice, when set, must stay within
// [0, unit price]. The requested quantity, including what is already on the
// line, is validated against current stock.
func (l *Ledger) AddItem(invoiceID, productID string, quantity int, unitPrice, discountPrice *float64) (*models.InvoiceItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}

	var item *models.InvoiceItem
	err := l.db.Transaction(func(tx *gorm.DB) error {
		invoice, err := l.draftInvoiceTx(tx, invoiceID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", ErrNotFound, productID)
			}
			return err
		}
		if !product.Active {
			return fmt.Errorf("%w: product %s is not active", ErrValidation, productID)
		}

		onHand, err := l.getQuantityTx(tx, productID)
		if err != nil {
			return err
		}

		var existing models.InvoiceItem
		err = tx.Where("invoice_id = ? AND product_id = ?", invoiceID, productID).First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		newQuantity := quantity
		if found {
			newQuantity += existing.Quantity
		}
		if onHand < newQuantity {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, onHand, newQuantity)
		}

		price := product.SellingPrice
		if found {
			price = existing.UnitPrice
		}
		if unitPrice != nil {
			price = *unitPrice
		}
		if price < 0 {
			return fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
		}
		if err := validateDiscount(discountPrice, price); err != nil {
			return err
		}

		if found {
			existing.Quantity = newQuantity
			existing.UnitPrice = price
			if discountPrice != nil {
				existing.DiscountPrice = discountPrice
			}
			existing.Subtotal = lineSubtotal(newQuantity, price, existing.DiscountPrice)
			if err := tx.Model(&existing).Updates(map[string]any{
				"quantity":       existing.Quantity,
				"unit_price":     existing.UnitPrice,
				"discount_price": existing.DiscountPrice,
				"subtotal":       existing.Subtotal,
			}).Error; err != nil {
				return err
			}
			item = &existing
		} else {
			created := models.InvoiceItem{
				InvoiceId:     invoiceID,
				ProductId:     productID,
				Quantity:      quantity,
				UnitPrice:     price,
				DiscountPrice: discountPrice,
				Subtotal:      lineSubtotal(quantity, price, discountPrice),
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			item = &created
		}

		return l.recomputeInvoiceTotalTx(tx, invoice.Id)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity sets a line's quantity on a DRAFT invoice. Increases
// are checked against stock; decreases always pass.
func (l *Ledger) UpdateItemQuantity(itemID string, quantity int) (*models.InvoiceItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}

	var item models.InvoiceItem
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := l.draftItemTx(tx, itemID, &item); err != nil {
			return err
		}

		if quantity > item.Quantity {
			onHand, err := l.getQuantityTx(tx, item.ProductId)
			if err != nil {
				return err
			}
			additional := quantity - item.Quantity
			if onHand < additional {
				return fmt.Errorf("%w: available %d, additional needed %d", ErrInsufficientStock, onHand, additional)
			}
		}

		item.Quantity = quantity
		item.Subtotal = lineSubtotal(quantity, item.UnitPrice, item.DiscountPrice)
		if err := tx.Model(&item).Updates(map[string]any{
			"quantity": item.Quantity,
			"subtotal": item.Subtotal,
		}).Error; err != nil {
			return err
		}
		return l.recomputeInvoiceTotalTx(tx, item.InvoiceId)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemDiscount sets or clears (nil) a line's discount price on a
// DRAFT invoice.
func (l *Ledger) UpdateItemDiscount(itemID string, discountPrice *float64) (*models.InvoiceItem, error) {
	var item models.InvoiceItem
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := l.draftItemTx(tx, itemID, &item); err != nil {
			return err
		}
		if err := validateDiscount(discountPrice, item.UnitPrice); err != nil {
			return err
		}

		item.DiscountPrice = discountPrice
		item.Subtotal = lineSubtotal(item.Quantity, item.UnitPrice, discountPrice)
		if err := tx.Model(&item).Updates(map[string]any{
			"discount_price": item.DiscountPrice,
			"subtotal":       item.Subtotal,
		}).Error; err != nil {
			return err
		}
		return l.recomputeInvoiceTotalTx(tx, item.InvoiceId)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a line from a DRAFT invoice.
func (l *Ledger) RemoveItem(itemID string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var item models.InvoiceItem
		if err := l.draftItemTx(tx, itemID, &item); err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return l.recomputeInvoiceTotalTx(tx, item.InvoiceId)
	})
}

// Finalize commits the sale: each line's quantity is removed from stock
// with the invoice as reference, and the invoice becomes COMPLETED. Item
// editing is locked from here on.
func (l *Ledger) Finalize(invoiceID string) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		invoice, err = l.draftInvoiceTx(tx, invoiceID)
		if err != nil {
			return err
		}

		var items []models.InvoiceItem
		if err := tx.Where("invoice_id = ?", invoiceID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyInvoice, invoice.InvoiceNumber)
		}

		ref := invoiceID
		for _, item := range items {
			if _, err := l.adjustTx(tx, item.ProductId, -item.Quantity, reasonSale, &ref); err != nil {
				return err
			}
		}

		invoice.Status = models.InvoiceCompleted
		return tx.Model(invoice).Update("status", models.InvoiceCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("invoice_id", invoiceID).Str("number", invoice.InvoiceNumber).
		Float64("total", invoice.TotalAmount).Msg("invoice finalized")
	return invoice, nil
}

// Void reverses an invoice's downstream effects and makes it immutable.
// Stock is restored only for invoices that reached COMPLETED; a DRAFT never
// decremented stock, so voiding it touches no quantities. Each stored cash
// payment is reversed with a register VOID transaction, and any unpaid debt
// tied to the invoice is cancelled. All of it happens in one transaction.
func (l *Ledger) Void(invoiceID, reason string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
			}
			return err
		}
		if invoice.Status == models.InvoiceVoided {
			return fmt.Errorf("%w: invoice %s is already voided", ErrInvalidState, invoice.InvoiceNumber)
		}

		if invoice.Status == models.InvoiceCompleted {
			var items []models.InvoiceItem
			if err := tx.Where("invoice_id = ?", invoiceID).Find(&items).Error; err != nil {
				return err
			}
			ref := invoiceID
			for _, item := range items {
				if _, err := l.adjustTx(tx, item.ProductId, item.Quantity, reasonVoid, &ref); err != nil {
					return err
				}
			}
		}

		var payments []models.Payment
		if err := tx.Where("invoice_id = ?", invoiceID).Find(&payments).Error; err != nil {
			return err
		}
		for _, payment := range payments {
			if payment.Method != models.MethodCash {
				continue
			}
			ref := invoiceID
			_, err := l.recordTransactionTx(tx, "", payment.Amount, models.TxVoid,
				fmt.Sprintf("Void payment for invoice %s", invoice.InvoiceNumber), payment.UserId, &ref)
			if err != nil {
				return err
			}
		}

		var debts []models.CustomerDebt
		if err := tx.Where("invoice_id = ? AND is_paid = ?", invoiceID, false).Find(&debts).Error; err != nil {
			return err
		}
		for _, debt := range debts {
			if err := l.cancelDebtTx(tx, &debt, "Cancelled due to voided invoice"); err != nil {
				return err
			}
		}

		invoice.Status = models.InvoiceVoided
		invoice.Notes = appendNote(invoice.Notes, voidNote(reason))
		return tx.Model(&invoice).Updates(map[string]any{
			"status": invoice.Status,
			"notes":  invoice.Notes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("invoice_id", invoiceID).Str("number", invoice.InvoiceNumber).
		Str("reason", reason).Msg("invoice voided")
	return &invoice, nil
}

// InvoiceDetails is an invoice with its lines, payments and payment rollup.
type InvoiceDetails struct {
	models.Invoice
	Payments        []models.Payment `json:"payments"`
	TotalPaid       float64          `json:"total_paid"`
	IsFullyPaid     bool             `json:"is_fully_paid"`
	RemainingAmount float64          `json:"remaining_amount"`
}

// GetInvoiceWithItems loads an invoice with items, customer and payments.
func (l *Ledger) GetInvoiceWithItems(invoiceID string) (*InvoiceDetails, error) {
	var invoice models.Invoice
	err := l.db.Preload("Items").Preload("Customer").Where("id = ?", invoiceID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
	}
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	if err := l.db.Where("invoice_id = ?", invoiceID).Order("payment_date").Find(&payments).Error; err != nil {
		return nil, err
	}

	details := InvoiceDetails{Invoice: invoice, Payments: payments}
	for _, payment := range payments {
		details.TotalPaid += payment.Amount
	}
	details.TotalPaid = round2(details.TotalPaid)
	details.RemainingAmount = round2(invoice.TotalAmount - details.TotalPaid)
	if details.RemainingAmount < 0 {
		details.RemainingAmount = 0
	}
	details.IsFullyPaid = details.TotalPaid >= invoice.TotalAmount
	return &details, nil
}

// InvoiceFilter narrows Search. Zero values mean "no filter".
type InvoiceFilter struct {
	Term       string
	CustomerId string
	UserId     string
	Status     models.InvoiceStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Search returns invoices matching the filter, newest first.
func (l *Ledger) Search(filter InvoiceFilter) ([]models.Invoice, error) {
	q := l.db.Model(&models.Invoice{}).Preload("Customer")
	if filter.Term != "" {
		pattern := "%" + filter.Term + "%"
		q = q.Where("invoice_number LIKE ? OR notes LIKE ?", pattern, pattern)
	}
	if filter.CustomerId != "" {
		q = q.Where("customer_id = ?", filter.CustomerId)
	}
	if filter.UserId != "" {
		q = q.Where("user_id = ?", filter.UserId)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid invoice status %q", ErrValidation, filter.Status)
		}
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var invoices []models.Invoice
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&invoices).Error
	return invoices, err
}

// recomputeInvoiceTotalTx re-derives the persisted total from the item
// subtotals. Always a full sum, never an incremental update, so the total
// cannot drift.
func (l *Ledger) recomputeInvoiceTotalTx(tx *gorm.DB, invoiceID string) error {
	var total sql.NullFloat64
	err := tx.Model(&models.InvoiceItem{}).
		Where("invoice_id = ?", invoiceID).
		Select("SUM(subtotal)").
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Update("total_amount", round2(total.Float64)).Error
}

// draftInvoiceTx loads an invoice and requires it to still be editable.
func (l *Ledger) draftInvoiceTx(tx *gorm.DB, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
		}
		return nil, err
	}
	if invoice.Status != models.InvoiceDraft {
		return nil, fmt.Errorf("%w: invoice %s is %s", ErrInvalidState, invoice.InvoiceNumber, invoice.Status)
	}
	return &invoice, nil
}

// draftItemTx loads an item and requires its invoice to still be a draft.
func (l *Ledger) draftItemTx(tx *gorm.DB, itemID string, item *models.InvoiceItem) error {
	if err := tx.Where("id = ?", itemID).First(item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invoice item %s", ErrNotFound, itemID)
		}
		return err
	}
	_, err := l.draftInvoiceTx(tx, item.InvoiceId)
	return err
}

func validateDiscount(discountPrice *float64, unitPrice float64) error {
	if discountPrice == nil {
		return nil
	}
	if *discountPrice < 0 {
		return fmt.Errorf("%w: discount price cannot be negative", ErrValidation)
	}
	if *discountPrice > unitPrice {
		return fmt.Errorf("%w: discount price cannot exceed unit price", ErrValidation)
	}
	return nil
}

func lineSubtotal(quantity int, unitPrice float64, discountPrice *float64) float64 {
	price := unitPrice
	if discountPrice != nil {
		price = *discountPrice
	}
	return round2(float64(quantity) * price)
}

func voidNote(reason string) string {
	if reason == "" {
		return "VOIDED"
	}
	return "VOIDED: " + reason
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
