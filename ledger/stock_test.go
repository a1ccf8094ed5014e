package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"pos-backend/models"
)

func TestAdjustCreatesStockAndMovement(t *testing.T) {
	l := newTestLedger(t)
	product := seedProduct(t, l, "SKU-001", 10, 0)

	stock, err := l.Adjust(product.Id, 10, "delivery", nil)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if stock.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", stock.Quantity)
	}

	qty, err := l.GetQuantity(product.Id)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if qty != 10 {
		t.Errorf("on hand = %d, want 10", qty)
	}

	movements, err := l.ListMovements(MovementFilter{ProductId: product.Id})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.Type != models.MovementIn || m.Quantity != 10 || m.Reason != "delivery" {
		t.Errorf("movement = %s/%d/%q, want IN/10/delivery", m.Type, m.Quantity, m.Reason)
	}
}

func TestAdjustUnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	if _, err := l.Adjust(uuid.NewString(), 5, "delivery", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAdjustRemoveWithoutRecord(t *testing.T) {
	l := newTestLedger(t)
	product := seedProduct(t, l, "SKU-002", 10, 0)

	if _, err := l.Adjust(product.Id, -1, "shrinkage", nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestAdjustInsufficientStock(t *testing.T) {
	l := newTestLedger(t)
	product := seedProduct(t, l, "SKU-003", 10, 5)

	if _, err := l.Adjust(product.Id, -8, "sale", nil); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Failed adjustment must leave both quantity and the log untouched.
	qty, _ := l.GetQuantity(product.Id)
	if qty != 5 {
		t.Errorf("on hand = %d, want 5", qty)
	}
	movements, _ := l.ListMovements(MovementFilter{ProductId: product.Id})
	if len(movements) != 1 {
		t.Errorf("movements = %d, want 1 (the seed)", len(movements))
	}
}

func TestMovementLogStoresMagnitude(t *testing.T) {
	l := newTestLedger(t)
	product := seedProduct(t, l, "SKU-004", 10, 0)

	if _, err := l.Adjust(product.Id, 5, "delivery", nil); err != nil {
		t.Fatalf("adjust in: %v", err)
	}
	if _, err := l.Adjust(product.Id, -3, "damage", nil); err != nil {
		t.Fatalf("adjust out: %v", err)
	}

	movements, err := l.ListMovements(MovementFilter{ProductId: product.Id})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements))
	}
	// Newest first; the OUT row carries 3, not -3.
	if movements[0].Type != models.MovementOut || movements[0].Quantity != 3 {
		t.Errorf("movement[0] = %s/%d, want OUT/3", movements[0].Type, movements[0].Quantity)
	}
	if movements[1].Type != models.MovementIn || movements[1].Quantity != 5 {
		t.Errorf("movement[1] = %s/%d, want IN/5", movements[1].Type, movements[1].Quantity)
	}
}

func TestListMovementsTypeFilter(t *testing.T) {
	l := newTestLedger(t)
	product := seedProduct(t, l, "SKU-005", 10, 0)
	l.Adjust(product.Id, 5, "delivery", nil)
	l.Adjust(product.Id, -2, "damage", nil)

	outs, err := l.ListMovements(MovementFilter{ProductId: product.Id, Type: models.MovementOut})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(outs) != 1 || outs[0].Quantity != 2 {
		t.Errorf("OUT movements = %+v, want one row of quantity 2", outs)
	}

	if _, err := l.ListMovements(MovementFilter{Type: "SIDEWAYS"}); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestListLowStock(t *testing.T) {
	l := newTestLedger(t)

	low := seedProduct(t, l, "SKU-LOW", 10, 2) // threshold 5, qty 2
	seedProduct(t, l, "SKU-OK", 10, 10)        // threshold 5, qty 10
	seedProduct(t, l, "SKU-NONE", 10, 0)       // no stock record at all

	items, err := l.ListLowStock(0, 0)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("low stock items = %d, want 1", len(items))
	}
	if items[0].ProductId != low.Id || items[0].Quantity != 2 || items[0].Shortage != 3 {
		t.Errorf("item = %+v, want product %s qty 2 shortage 3", items[0], low.Id)
	}
}
