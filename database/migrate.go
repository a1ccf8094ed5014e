package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema hardening on top of AutoMigrate:
// - Money column types (NUMERIC(12,2))
// - Indexes (movements, register transactions, payments, debts)
// - Basic CHECK constraints backing the ledger invariants
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE products               ALTER COLUMN purchase_price  TYPE numeric(12,2)`,
			`ALTER TABLE products               ALTER COLUMN selling_price   TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN total_amount    TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items          ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items          ALTER COLUMN discount_price  TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items          ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE payments               ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE register_sessions      ALTER COLUMN opening_amount  TYPE numeric(12,2)`,
			`ALTER TABLE register_sessions      ALTER COLUMN current_amount  TYPE numeric(12,2)`,
			`ALTER TABLE register_sessions      ALTER COLUMN closing_amount  TYPE numeric(12,2)`,
			`ALTER TABLE register_transactions  ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE register_transactions  ALTER COLUMN previous_amount TYPE numeric(12,2)`,
			`ALTER TABLE register_transactions  ALTER COLUMN new_amount      TYPE numeric(12,2)`,
			`ALTER TABLE customer_debts         ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE customer_debts         ALTER COLUMN amount_paid     TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements (product_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_register_transactions_session_created ON register_transactions (session_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, payment_date)`,
			`CREATE INDEX IF NOT EXISTS idx_customer_debts_customer_paid ON customer_debts (customer_id, is_paid)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoice_items_invoice_product ON invoice_items (invoice_id, product_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []struct {
			table      string
			constraint string
			check      string
		}{
			{"stocks", "chk_stocks_quantity_nonneg", "quantity >= 0"},
			{"invoice_items", "chk_invoice_items_quantity_pos", "quantity > 0"},
			{"payments", "chk_payments_amount_pos", "amount > 0"},
			{"register_transactions", "chk_register_tx_new_amount_nonneg", "new_amount >= 0"},
			{"customer_debts", "chk_customer_debts_paid_bounds", "amount_paid >= 0 AND amount_paid <= amount"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s
		ADD CONSTRAINT %s
		CHECK (%s);
	END IF;
END $$;`, c.table, c.constraint, c.table, c.constraint, c.check)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
