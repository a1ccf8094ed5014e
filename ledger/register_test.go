package ledger

import (
	"errors"
	"testing"

	"pos-backend/models"
)

func TestOpenRegisterPostsOpeningDeposit(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 100, "morning shift")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.Status != models.SessionOpen {
		t.Errorf("status = %s, want OPEN", session.Status)
	}
	if session.OpeningAmount != 100 || session.CurrentAmount != 100 {
		t.Errorf("amounts = %.2f/%.2f, want 100/100", session.OpeningAmount, session.CurrentAmount)
	}

	// The float arrives as a logged DEPOSIT from zero, not a silent preset.
	txns, err := l.ListTransactions(session.Id, 0, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txns))
	}
	opening := txns[0]
	if opening.Type != models.TxDeposit || opening.Amount != 100 {
		t.Errorf("opening tx = %s/%.2f, want DEPOSIT/100", opening.Type, opening.Amount)
	}
	if opening.PreviousAmount != 0 || opening.NewAmount != 100 {
		t.Errorf("balance snapshots = %.2f -> %.2f, want 0 -> 100", opening.PreviousAmount, opening.NewAmount)
	}
}

func TestOpenRegisterSingleSession(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 50, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.OpenRegister(user.Id, 50, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("second open: err = %v, want ErrConflict", err)
	}

	// A PAUSED session still blocks a new one.
	if _, err := l.PauseRegister(session.Id, user.Id, ""); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := l.OpenRegister(user.Id, 50, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("open while paused: err = %v, want ErrConflict", err)
	}
}

func TestPauseResumeTransitions(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 50, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := l.ResumeRegister(session.Id, user.Id, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resume open session: err = %v, want ErrInvalidState", err)
	}

	paused, err := l.PauseRegister(session.Id, user.Id, "lunch")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != models.SessionPaused {
		t.Errorf("status = %s, want PAUSED", paused.Status)
	}

	if _, err := l.PauseRegister(session.Id, user.Id, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pause paused session: err = %v, want ErrInvalidState", err)
	}

	resumed, err := l.ResumeRegister(session.Id, user.Id, "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != models.SessionOpen {
		t.Errorf("status = %s, want OPEN", resumed.Status)
	}
}

func TestRecordTransactionSigns(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 100, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	deposit, err := l.AddCash(session.Id, 25, user.Id, "")
	if err != nil {
		t.Fatalf("add cash: %v", err)
	}
	if deposit.NewAmount != 125 {
		t.Errorf("after deposit = %.2f, want 125", deposit.NewAmount)
	}

	withdrawal, err := l.RemoveCash(session.Id, 40, user.Id, "bank drop")
	if err != nil {
		t.Fatalf("remove cash: %v", err)
	}
	if withdrawal.Type != models.TxWithdrawal || withdrawal.NewAmount != 85 {
		t.Errorf("after withdrawal = %s/%.2f, want WITHDRAWAL/85", withdrawal.Type, withdrawal.NewAmount)
	}

	// Balance and log must agree after every write.
	current, _ := l.CurrentSession()
	if current.CurrentAmount != 85 {
		t.Errorf("session balance = %.2f, want 85", current.CurrentAmount)
	}
}

func TestRecordTransactionInsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 30, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.RemoveCash(session.Id, 31, user.Id, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// The failed withdrawal left no trace.
	current, _ := l.CurrentSession()
	if current.CurrentAmount != 30 {
		t.Errorf("balance = %.2f, want 30", current.CurrentAmount)
	}
	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if len(txns) != 1 {
		t.Errorf("transactions = %d, want 1 (opening deposit)", len(txns))
	}
}

func TestRecordTransactionResolvesOpenSession(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	if _, err := l.RecordTransaction("", 10, models.TxDeposit, "stray", user.Id, nil); !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("no session: err = %v, want ErrNoOpenSession", err)
	}

	session, err := l.OpenRegister(user.Id, 10, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	txn, err := l.RecordTransaction("", 5, models.TxDeposit, "found money", user.Id, nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if txn.SessionId != session.Id || txn.NewAmount != 15 {
		t.Errorf("tx = session %s balance %.2f, want %s/15", txn.SessionId, txn.NewAmount, session.Id)
	}
}

func TestRecordTransactionInvalidType(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)
	session, _ := l.OpenRegister(user.Id, 10, "")

	if _, err := l.RecordTransaction(session.Id, 5, "TIP", "", user.Id, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCloseRegisterWithShortage(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 100, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.AddCash(session.Id, 80, user.Id, "sale drawer"); err != nil {
		t.Fatalf("add cash: %v", err)
	}

	// Drawer says 180, count says 170: a 10 shortage.
	summary, err := l.CloseRegister(session.Id, user.Id, 170, "end of day")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if summary.Discrepancy != -10 {
		t.Errorf("discrepancy = %.2f, want -10", summary.Discrepancy)
	}
	if summary.Session.Status != models.SessionClosed {
		t.Errorf("status = %s, want CLOSED", summary.Session.Status)
	}
	if summary.Session.ClosingAmount == nil || *summary.Session.ClosingAmount != 170 {
		t.Errorf("closing amount = %v, want 170", summary.Session.ClosingAmount)
	}
	if summary.Session.CurrentAmount != 170 {
		t.Errorf("final balance = %.2f, want 170 (after shortage posting)", summary.Session.CurrentAmount)
	}
	if len(summary.Session.ClosingSummary) == 0 {
		t.Error("closing summary snapshot not persisted")
	}

	// The shortage shows up in the log as a WITHDRAWAL.
	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if len(txns) != 3 {
		t.Fatalf("transactions = %d, want 3", len(txns))
	}
	if txns[0].Type != models.TxWithdrawal || txns[0].Amount != 10 {
		t.Errorf("closing adjustment = %s/%.2f, want WITHDRAWAL/10", txns[0].Type, txns[0].Amount)
	}

	byType := map[models.TransactionType]float64{}
	for _, b := range summary.ByType {
		byType[b.Type] = b.Total
	}
	if byType[models.TxDeposit] != 180 || byType[models.TxWithdrawal] != 10 {
		t.Errorf("breakdown = %+v, want DEPOSIT 180 / WITHDRAWAL 10", summary.ByType)
	}

	if _, err := l.CloseRegister(session.Id, user.Id, 170, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double close: err = %v, want ErrInvalidState", err)
	}
	current, _ := l.CurrentSession()
	if current != nil {
		t.Errorf("current session = %v, want nil after close", current)
	}
}

func TestCloseRegisterExactCount(t *testing.T) {
	l := newTestLedger(t)
	user := seedUser(t, l)

	session, err := l.OpenRegister(user.Id, 100, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	summary, err := l.CloseRegister(session.Id, user.Id, 100, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if summary.Discrepancy != 0 {
		t.Errorf("discrepancy = %.2f, want 0", summary.Discrepancy)
	}

	// No adjustment transaction for a perfect count.
	txns, _ := l.ListTransactions(session.Id, 0, 0)
	if len(txns) != 1 {
		t.Errorf("transactions = %d, want 1", len(txns))
	}
}
