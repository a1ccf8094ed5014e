// Package ledger implements the sales transaction core: invoice lifecycle,
// stock quantities with movement history, cash-register sessions, payments
// and customer debt. Every multi-step operation runs inside one store-level
// transaction; only the outermost public method opens it, and every internal
// helper takes the open *gorm.DB handle instead of beginning its own.
package ledger

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pos-backend/utils"
)

// Ledger is the entry point for all ledger operations. Cross-component side
// effects (a payment posting a register transaction, a void cancelling a
// debt) are internal calls on the same open transaction handle.
type Ledger struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(db *gorm.DB, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, log: log.With().Str("component", "ledger").Logger()}
}

// round2 keeps persisted money values on two decimals, matching the
// numeric(12,2) columns.
func round2(x float64) float64 {
	return utils.Round2(x)
}
