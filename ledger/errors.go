package ledger

import "errors"

// Sentinel errors for the ledger's failure kinds. Operations wrap these with
// detail text via fmt.Errorf("...: %w", ...), so callers match with errors.Is.
var (
	// ErrValidation marks malformed input: negative amounts, missing
	// required fields, values outside a closed enum.
	ErrValidation = errors.New("ledger: validation failed")

	// ErrNotFound marks a reference to a record that does not exist.
	ErrNotFound = errors.New("ledger: not found")

	// ErrInvalidState marks an operation that is not legal for the
	// entity's current lifecycle state.
	ErrInvalidState = errors.New("ledger: invalid state")

	// ErrInvalidOperation marks an operation that can never succeed on
	// the target, such as removing stock from non-existent inventory.
	ErrInvalidOperation = errors.New("ledger: invalid operation")

	// ErrInsufficientStock means an adjustment would drive a product's
	// on-hand quantity negative.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")

	// ErrInsufficientFunds means a transaction would drive the register
	// balance negative.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrOverpayment means a payment would exceed the amount owed.
	ErrOverpayment = errors.New("ledger: overpayment")

	// ErrEmptyInvoice means finalize was called on an invoice without items.
	ErrEmptyInvoice = errors.New("ledger: invoice has no items")

	// ErrConflict marks a uniqueness invariant violation, such as opening
	// a register session while one is already open.
	ErrConflict = errors.New("ledger: conflict")

	// ErrNoOpenSession means a transaction was recorded without a session
	// id and no OPEN session exists to resolve it against.
	ErrNoOpenSession = errors.New("ledger: no open register session")
)
