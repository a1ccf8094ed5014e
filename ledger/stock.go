package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pos-backend/models"
)

// Movement reasons used by the invoice lifecycle.
const (
	reasonSale = "sale"
	reasonVoid = "void"
)

// GetQuantity returns the on-hand quantity for a product, 0 when no stock
// record exists yet.
func (l *Ledger) GetQuantity(productID string) (int, error) {
	return l.getQuantityTx(l.db, productID)
}

func (l *Ledger) getQuantityTx(tx *gorm.DB, productID string) (int, error) {
	var stock models.Stock
	err := tx.Where("product_id = ?", productID).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stock.Quantity, nil
}

// Adjust changes a product's on-hand quantity by delta and appends the
// movement record, both in one transaction. Every stock-affecting path
// (finalize, void, manual add/remove) funnels through here.
func (l *Ledger) Adjust(productID string, delta int, reason string, referenceID *string) (*models.Stock, error) {
	var stock *models.Stock
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		stock, err = l.adjustTx(tx, productID, delta, reason, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("product_id", productID).Int("delta", delta).
		Int("quantity", stock.Quantity).Str("reason", reason).Msg("stock adjusted")
	return stock, nil
}

// adjustTx runs on an already-open transaction so invoice finalize/void can
// adjust several products atomically with their own writes.
func (l *Ledger) adjustTx(tx *gorm.DB, productID string, delta int, reason string, referenceID *string) (*models.Stock, error) {
	var stock models.Stock
	err := tx.Where("product_id = ?", productID).First(&stock).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if delta < 0 {
			return nil, fmt.Errorf("%w: cannot remove from non-existent inventory for product %s", ErrInvalidOperation, productID)
		}
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		stock = models.Stock{ProductId: productID, Quantity: delta}
		if err := tx.Create(&stock).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		newQuantity := stock.Quantity + delta
		if newQuantity < 0 {
			return nil, fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, productID, stock.Quantity, -delta)
		}
		stock.Quantity = newQuantity
		if err := tx.Model(&stock).Update("quantity", newQuantity).Error; err != nil {
			return nil, err
		}
	}

	movement := models.StockMovement{
		ProductId:   productID,
		Quantity:    abs(delta),
		Type:        movementType(delta),
		Reason:      reason,
		ReferenceId: referenceID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func movementType(delta int) models.MovementType {
	switch {
	case delta > 0:
		return models.MovementIn
	case delta < 0:
		return models.MovementOut
	}
	return models.MovementAdjust
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MovementFilter narrows ListMovements. Zero values mean "no filter".
type MovementFilter struct {
	ProductId string
	Type      models.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ListMovements returns the audit trail, newest first.
func (l *Ledger) ListMovements(filter MovementFilter) ([]models.StockMovement, error) {
	q := l.db.Model(&models.StockMovement{})
	if filter.ProductId != "" {
		q = q.Where("product_id = ?", filter.ProductId)
	}
	if filter.Type != "" {
		if !filter.Type.Valid() {
			return nil, fmt.Errorf("%w: invalid movement type %q", ErrValidation, filter.Type)
		}
		q = q.Where("movement_type = ?", filter.Type)
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

	var movements []models.StockMovement
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&movements).Error
	return movements, err
}

// LowStockItem is a product whose on-hand quantity fell under its threshold.
type LowStockItem struct {
	ProductId    string `json:"product_id"`
	Name         string `json:"name"`
	Sku          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	LowThreshold int    `json:"low_stock_threshold"`
	Shortage     int    `json:"shortage"`
}

// ListLowStock returns active products below their per-product threshold,
// worst shortage first.
func (l *Ledger) ListLowStock(limit, offset int) ([]LowStockItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []LowStockItem
	err := l.db.Model(&models.Stock{}).
		Select(`products.id as product_id, products.name, products.sku,
			stocks.quantity, products.low_stock_threshold,
			(products.low_stock_threshold - stocks.quantity) as shortage`).
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("products.active = ? AND stocks.quantity < products.low_stock_threshold", true).
		Order("shortage DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error
	return items, err
}
