package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pos-backend/models"
)

// OpenRegister starts a new register session. Only one session may be
// anything other than CLOSED at a time. The opening float is posted as an
// initial DEPOSIT so the transaction log reconstructs the balance from zero.
func (l *Ledger) OpenRegister(userID string, openingAmount float64, notes string) (*models.RegisterSession, error) {
	if openingAmount < 0 {
		return nil, fmt.Errorf("%w: opening amount cannot be negative", ErrValidation)
	}

	var session models.RegisterSession
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var existing models.RegisterSession
		err := tx.Where("status != ?", models.SessionClosed).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: register session %s is still %s", ErrConflict, existing.Id, existing.Status)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		session = models.RegisterSession{
			UserId:        userID,
			OpeningAmount: round2(openingAmount),
			CurrentAmount: 0,
			OpeningTime:   time.Now(),
			Status:        models.SessionOpen,
			Notes:         notes,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		_, err = l.recordTransactionTx(tx, session.Id, openingAmount, models.TxDeposit,
			"Register opening", userID, nil)
		if err != nil {
			return err
		}
		session.CurrentAmount = round2(openingAmount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("session_id", session.Id).Float64("opening", session.OpeningAmount).Msg("register opened")
	return &session, nil
}

// PauseRegister suspends an OPEN session.
func (l *Ledger) PauseRegister(sessionID, userID, notes string) (*models.RegisterSession, error) {
	return l.transitionSession(sessionID, models.SessionOpen, models.SessionPaused,
		fmt.Sprintf("PAUSED by user %s. %s", userID, notes))
}

// ResumeRegister reopens a PAUSED session.
func (l *Ledger) ResumeRegister(sessionID, userID, notes string) (*models.RegisterSession, error) {
	return l.transitionSession(sessionID, models.SessionPaused, models.SessionOpen,
		fmt.Sprintf("RESUMED by user %s. %s", userID, notes))
}

func (l *Ledger) transitionSession(sessionID string, from, to models.SessionStatus, note string) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: register session %s", ErrNotFound, sessionID)
			}
			return err
		}
		if session.Status != from {
			return fmt.Errorf("%w: session is %s, must be %s", ErrInvalidState, session.Status, from)
		}
		session.Status = to
		session.Notes = appendNote(session.Notes, note)
		return tx.Model(&session).Updates(map[string]any{
			"status": session.Status,
			"notes":  session.Notes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TypeBreakdown aggregates a session's transactions for one type.
type TypeBreakdown struct {
	Type  models.TransactionType `json:"transaction_type" gorm:"column:transaction_type"`
	Count int64                  `json:"count"`
	Total float64                `json:"total"`
}

// UserBreakdown aggregates a session's transactions for one user.
type UserBreakdown struct {
	UserId   string  `json:"user_id"`
	Count    int64   `json:"count"`
	TotalIn  float64 `json:"total_in"`
	TotalOut float64 `json:"total_out"`
}

// MethodBreakdown aggregates the session's sales by payment method.
type MethodBreakdown struct {
	Method models.PaymentMethod `json:"method"`
	Count  int64                `json:"count"`
	Total  float64              `json:"total"`
}

// ClosingSummary combines the closed session with its aggregate breakdowns.
// The breakdowns are a read-side convenience, not part of the consistency
// contract.
type ClosingSummary struct {
	Session        models.RegisterSession `json:"session"`
	CountedAmount  float64                `json:"counted_amount"`
	Discrepancy    float64                `json:"discrepancy"`
	ByType         []TypeBreakdown        `json:"transactions_by_type"`
	ByUser         []UserBreakdown        `json:"transactions_by_user"`
	PaymentMethods []MethodBreakdown      `json:"payment_methods"`
}

// CloseRegister ends a session against the physically counted amount. A
// non-zero discrepancy is posted as a DEPOSIT (surplus) or WITHDRAWAL
// (shortage) before closing, so the logged balance matches the count.
func (l *Ledger) CloseRegister(sessionID, userID string, countedAmount float64, notes string) (*ClosingSummary, error) {
	if countedAmount < 0 {
		return nil, fmt.Errorf("%w: counted amount cannot be negative", ErrValidation)
	}

	var summary ClosingSummary
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var session models.RegisterSession
		if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: register session %s", ErrNotFound, sessionID)
			}
			return err
		}
		if session.Status == models.SessionClosed {
			return fmt.Errorf("%w: session %s is already closed", ErrInvalidState, sessionID)
		}

		discrepancy := round2(countedAmount - session.CurrentAmount)
		if discrepancy != 0 {
			txType := models.TxDeposit
			label := "excess"
			if discrepancy < 0 {
				txType = models.TxWithdrawal
				label = "shortage"
			}
			_, err := l.recordTransactionTx(tx, sessionID, absFloat(discrepancy), txType,
				"Register closing adjustment: "+label, userID, nil)
			if err != nil {
				return err
			}
			session.CurrentAmount = round2(countedAmount)
		}

		byType, byUser, methods, err := l.sessionBreakdownsTx(tx, sessionID)
		if err != nil {
			return err
		}

		now := time.Now()
		counted := round2(countedAmount)
		session.Status = models.SessionClosed
		session.ClosingAmount = &counted
		session.ClosingUserId = &userID
		session.ClosingTime = &now
		if notes != "" {
			session.Notes = appendNote(session.Notes, notes)
		}

		summary = ClosingSummary{
			Session:        session,
			CountedAmount:  counted,
			Discrepancy:    discrepancy,
			ByType:         byType,
			ByUser:         byUser,
			PaymentMethods: methods,
		}
		snapshot, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		session.ClosingSummary = snapshot
		summary.Session = session

		return tx.Model(&session).Updates(map[string]any{
			"status":          session.Status,
			"closing_amount":  session.ClosingAmount,
			"closing_user_id": session.ClosingUserId,
			"closing_time":    session.ClosingTime,
			"notes":           session.Notes,
			"closing_summary": session.ClosingSummary,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("session_id", sessionID).Float64("counted", summary.CountedAmount).
		Float64("discrepancy", summary.Discrepancy).Msg("register closed")
	return &summary, nil
}

func (l *Ledger) sessionBreakdownsTx(tx *gorm.DB, sessionID string) ([]TypeBreakdown, []UserBreakdown, []MethodBreakdown, error) {
	var byType []TypeBreakdown
	err := tx.Model(&models.RegisterTransaction{}).
		Select("transaction_type, COUNT(*) as count, SUM(amount) as total").
		Where("session_id = ?", sessionID).
		Group("transaction_type").
		Scan(&byType).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var byUser []UserBreakdown
	err = tx.Model(&models.RegisterTransaction{}).
		Select(`user_id, COUNT(*) as count,
			SUM(CASE WHEN transaction_type IN ('SALE','DEPOSIT','DEBT_PAYMENT') THEN amount ELSE 0 END) as total_in,
			SUM(CASE WHEN transaction_type IN ('REFUND','WITHDRAWAL','VOID') THEN amount ELSE 0 END) as total_out`).
		Where("session_id = ?", sessionID).
		Group("user_id").
		Scan(&byUser).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var methods []MethodBreakdown
	err = tx.Model(&models.Payment{}).
		Select("payments.method, COUNT(payments.id) as count, SUM(payments.amount) as total").
		Joins("JOIN register_transactions ON register_transactions.reference_id = payments.id").
		Where("register_transactions.session_id = ? AND register_transactions.transaction_type = ?", sessionID, models.TxSale).
		Group("payments.method").
		Scan(&methods).Error
	if err != nil {
		return nil, nil, nil, err
	}

	return byType, byUser, methods, nil
}

// RecordTransaction posts a balance-affecting action. When sessionID is
// empty the currently OPEN session is resolved; concurrent callers should
// pass the session id explicitly.
func (l *Ledger) RecordTransaction(sessionID string, amount float64, txType models.TransactionType, description, userID string, referenceID *string) (*models.RegisterTransaction, error) {
	var transaction *models.RegisterTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = l.recordTransactionTx(tx, sessionID, amount, txType, description, userID, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// AddCash deposits into the current session outside a sale.
func (l *Ledger) AddCash(sessionID string, amount float64, userID, notes string) (*models.RegisterTransaction, error) {
	if notes == "" {
		notes = "Cash added to register"
	}
	return l.RecordTransaction(sessionID, amount, models.TxDeposit, notes, userID, nil)
}

// RemoveCash withdraws from the current session outside a sale.
func (l *Ledger) RemoveCash(sessionID string, amount float64, userID, notes string) (*models.RegisterTransaction, error) {
	if notes == "" {
		notes = "Cash removed from register"
	}
	return l.RecordTransaction(sessionID, amount, models.TxWithdrawal, notes, userID, nil)
}

// recordTransactionTx reads the balance, applies the type's sign and writes
// the new balance together with the transaction row. It never opens its own
// transaction: payment and void operations call it on their outer handle.
func (l *Ledger) recordTransactionTx(tx *gorm.DB, sessionID string, amount float64, txType models.TransactionType, description, userID string, referenceID *string) (*models.RegisterTransaction, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: invalid transaction type %q", ErrValidation, txType)
	}

	if sessionID == "" {
		var open models.RegisterSession
		err := tx.Where("status = ?", models.SessionOpen).Order("created_at DESC").First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		if err != nil {
			return nil, err
		}
		sessionID = open.Id
	}

	var session models.RegisterSession
	if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: register session %s", ErrNotFound, sessionID)
		}
		return nil, err
	}
	if session.Status == models.SessionClosed {
		return nil, fmt.Errorf("%w: session %s is closed", ErrInvalidState, sessionID)
	}

	amount = round2(amount)
	previous := session.CurrentAmount
	var newAmount float64
	if txType.Increases() {
		newAmount = round2(previous + amount)
	} else {
		newAmount = round2(previous - amount)
		if newAmount < 0 {
			return nil, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientFunds, previous, amount)
		}
	}

	if err := tx.Model(&session).Update("current_amount", newAmount).Error; err != nil {
		return nil, err
	}

	transaction := models.RegisterTransaction{
		SessionId:      sessionID,
		UserId:         userID,
		Amount:         amount,
		Type:           txType,
		Description:    description,
		ReferenceId:    referenceID,
		PreviousAmount: previous,
		NewAmount:      newAmount,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// CurrentSession returns the one session that is not CLOSED, or nil.
func (l *Ledger) CurrentSession() (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := l.db.Where("status != ?", models.SessionClosed).Order("created_at DESC").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListTransactions returns a session's transaction log, newest first.
func (l *Ledger) ListTransactions(sessionID string, limit, offset int) ([]models.RegisterTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var transactions []models.RegisterTransaction
	err := l.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&transactions).Error
	return transactions, err
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
