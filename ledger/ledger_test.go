package ledger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pos-backend/models"
)

// newTestLedger opens a fresh in-memory database per test.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Category{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Stock{},
		&models.StockMovement{},
		&models.RegisterSession{},
		&models.RegisterTransaction{},
		&models.CustomerDebt{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return New(db, zerolog.Nop())
}

func seedUser(t *testing.T, l *Ledger) *models.User {
	t.Helper()
	user := models.User{
		Username: fmt.Sprintf("cashier-%d", userSeq()),
		FullName: "Test Cashier",
		Role:     models.RoleCashier,
	}
	user.SetPassword("test-password")
	if err := l.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedCustomer(t *testing.T, l *Ledger) *models.Customer {
	t.Helper()
	customer := models.Customer{FullName: "Test Customer"}
	if err := l.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return &customer
}

// seedProduct creates a catalog entry and, when qty > 0, books the
// opening stock through the ledger so the movement log stays consistent.
func seedProduct(t *testing.T, l *Ledger, sku string, price float64, qty int) *models.Product {
	t.Helper()
	product := models.Product{
		Name:         "Product " + sku,
		Sku:          sku,
		SellingPrice: price,
		Active:       true,
	}
	if err := l.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if qty > 0 {
		if _, err := l.Adjust(product.Id, qty, "initial stock", nil); err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}
	return &product
}

func seedDraftInvoice(t *testing.T, l *Ledger, userID string, customerID *string) *models.Invoice {
	t.Helper()
	invoice, err := l.CreateInvoice(userID, customerID, "")
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}

var seq int

func userSeq() int {
	seq++
	return seq
}

func ptr[T any](v T) *T { return &v }
