package ledger

import (
	"errors"
	"fmt"
	"testing"

	"pos-backend/models"
)

// completedInvoice builds an 80.00 COMPLETED invoice backed by stock.
func completedInvoice(t *testing.T, l *Ledger, userID string, customerID *string) *models.Invoice {
	t.Helper()
	product := seedProduct(t, l, fmt.Sprintf("SKU-PAY-%d", userSeq()), 10, 10)
	invoice := seedDraftInvoice(t, l, userID, customerID)
	if _, err := l.AddItem(invoice.Id, product.Id, 8, nil, nil); err != nil {
		t.Fatalf("add item: %v", err)
	}
	completed, err := l.Finalize(invoice.Id)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return completed
}

func TestCreatePaymentRequiresCompletedInvoice(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	draft := seedDraftInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(draft.Id, user.Id, 10, models.MethodCash, "", ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestCashPaymentPostsSaleTransaction(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	session, err := l.OpenRegister(user.Id, 100, "")
	if err != nil {
		t.Fatalf("open register: %v", err)
	}
	invoice := completedInvoice(t, l, user.Id, nil)

	result, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCash, "", "")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !result.IsFullyPaid || result.RemainingAmount != 0 {
		t.Errorf("result = full %v remaining %.2f, want true/0", result.IsFullyPaid, result.RemainingAmount)
	}

	current, _ := l.CurrentSession()
	if current.CurrentAmount != 180 {
		t.Errorf("register balance = %.2f, want 180", current.CurrentAmount)
	}

	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if len(txns) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txns))
	}
	sale := txns[0]
	if sale.Type != models.TxSale || sale.Amount != 80 {
		t.Errorf("sale tx = %s/%.2f, want SALE/80", sale.Type, sale.Amount)
	}
	if sale.ReferenceId == nil || *sale.ReferenceId != result.Id {
		t.Errorf("sale reference = %v, want payment id %s", sale.ReferenceId, result.Id)
	}
}

func TestCashPaymentNeedsOpenSession(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	invoice := completedInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCash, "", ""); !errors.Is(err, ErrNoOpenSession) {
		t.Fatalf("err = %v, want ErrNoOpenSession", err)
	}

	// Nothing was stored: card payment for the full amount still fits.
	if _, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCard, "", ""); err != nil {
		t.Errorf("card payment after failed cash: %v", err)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	invoice := completedInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 50, models.MethodCard, "", ""); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, err := l.CreatePayment(invoice.Id, user.Id, 40, models.MethodCard, "", ""); !errors.Is(err, ErrOverpayment) {
		t.Errorf("err = %v, want ErrOverpayment", err)
	}
	// The exact remainder still goes through.
	result, err := l.CreatePayment(invoice.Id, user.Id, 30, models.MethodCard, "", "")
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if !result.IsFullyPaid {
		t.Error("invoice should be fully paid")
	}
}

func TestCreditPaymentMintsDebt(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	customer := seedCustomer(t, l)
	invoice := completedInvoice(t, l, user.Id, &customer.Id)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 50, models.MethodCredit, "", ""); err != nil {
		t.Fatalf("credit payment: %v", err)
	}

	debts, err := l.ListCustomerDebts(customer.Id, false)
	if err != nil {
		t.Fatalf("list debts: %v", err)
	}
	if len(debts) != 1 {
		t.Fatalf("debts = %d, want 1", len(debts))
	}
	debt := debts[0]
	if debt.Amount != 50 || debt.AmountPaid != 0 || debt.IsPaid {
		t.Errorf("debt = %.2f paid %.2f isPaid %v, want 50/0/false", debt.Amount, debt.AmountPaid, debt.IsPaid)
	}
	if debt.InvoiceId != invoice.Id {
		t.Errorf("debt invoice = %s, want %s", debt.InvoiceId, invoice.Id)
	}
}

func TestCreditPaymentRequiresCustomer(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	invoice := completedInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 50, models.MethodCredit, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestVoidCashPaymentReversesRegister(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	session, _ := l.OpenRegister(user.Id, 100, "")
	invoice := completedInvoice(t, l, user.Id, nil)

	payment, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCash, "", "")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	if err := l.VoidPayment(payment.Id, "cashier error"); err != nil {
		t.Fatalf("void payment: %v", err)
	}

	current, _ := l.CurrentSession()
	if current.CurrentAmount != 100 {
		t.Errorf("register balance = %.2f, want 100 (reversed)", current.CurrentAmount)
	}
	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if txns[0].Type != models.TxVoid || txns[0].Amount != 80 {
		t.Errorf("reversal tx = %s/%.2f, want VOID/80", txns[0].Type, txns[0].Amount)
	}

	// The payment row is gone; the invoice is payable again.
	payments, _ := l.ListInvoicePayments(invoice.Id)
	if len(payments) != 0 {
		t.Errorf("stored payments = %d, want 0", len(payments))
	}
	details, _ := l.GetInvoiceWithItems(invoice.Id)
	if details.RemainingAmount != 80 {
		t.Errorf("remaining = %.2f, want 80", details.RemainingAmount)
	}
}

func TestVoidPaymentOnVoidedInvoice(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	l.OpenRegister(user.Id, 100, "")
	invoice := completedInvoice(t, l, user.Id, nil)

	payment, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCash, "", "")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := l.Void(invoice.Id, "return"); err != nil {
		t.Fatalf("void invoice: %v", err)
	}

	// The invoice void already reversed the cash; a second reversal is refused.
	if err := l.VoidPayment(payment.Id, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestVoidInvoiceReversesCashAtRegister(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	session, _ := l.OpenRegister(user.Id, 100, "")
	invoice := completedInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 80, models.MethodCash, "", ""); err != nil {
		t.Fatalf("payment: %v", err)
	}
	current, _ := l.CurrentSession()
	if current.CurrentAmount != 180 {
		t.Fatalf("balance before void = %.2f, want 180", current.CurrentAmount)
	}

	if _, err := l.Void(invoice.Id, "full return"); err != nil {
		t.Fatalf("void invoice: %v", err)
	}

	current, _ = l.CurrentSession()
	if current.CurrentAmount != 100 {
		t.Errorf("balance after void = %.2f, want 100", current.CurrentAmount)
	}
	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if txns[0].Type != models.TxVoid || txns[0].Amount != 80 {
		t.Errorf("reversal tx = %s/%.2f, want VOID/80", txns[0].Type, txns[0].Amount)
	}
}

func TestCalculateChange(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	invoice := completedInvoice(t, l, user.Id, nil)

	over, err := l.CalculateChange(invoice.Id, 100)
	if err != nil {
		t.Fatalf("calculate change: %v", err)
	}
	if over.ChangeDue != 20 || over.RemainingAfter != 0 {
		t.Errorf("tendered 100: change %.2f remaining-after %.2f, want 20/0", over.ChangeDue, over.RemainingAfter)
	}

	under, err := l.CalculateChange(invoice.Id, 50)
	if err != nil {
		t.Fatalf("calculate change: %v", err)
	}
	if under.ChangeDue != 0 || under.RemainingAfter != 30 {
		t.Errorf("tendered 50: change %.2f remaining-after %.2f, want 0/30", under.ChangeDue, under.RemainingAfter)
	}

	if _, err := l.CalculateChange(invoice.Id, -5); !errors.Is(err, ErrValidation) {
		t.Errorf("negative tender err = %v, want ErrValidation", err)
	}

	// A pure read: nothing was stored.
	payments, _ := l.ListInvoicePayments(invoice.Id)
	if len(payments) != 0 {
		t.Errorf("payments = %d, want 0", len(payments))
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	invoice := completedInvoice(t, l, user.Id, nil)

	if _, err := l.CreatePayment(invoice.Id, user.Id, 0, models.MethodCash, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("zero amount: err = %v, want ErrValidation", err)
	}
	if _, err := l.CreatePayment(invoice.Id, user.Id, 10, "BARTER", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid method: err = %v, want ErrValidation", err)
	}
}
