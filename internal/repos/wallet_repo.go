package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

// WalletRepo is the ledger. DebitTx and CreditTx never open transactions of
// their own; the coordinator and the return workflow own the transaction, so
// the ledger row and the balance projection always land together.
type WalletRepo struct{ db *sqlx.DB }

func NewWalletRepo(db *sqlx.DB) *WalletRepo { return &WalletRepo{db: db} }

func (r *WalletRepo) DebitTx(tx *sqlx.Tx, userID string, amount float64, reason string) error {
	if amount <= 0 {
		return domain.ErrInsufficientWallet
	}
	res, err := tx.Exec(`
		UPDATE users SET wallet_balance = wallet_balance - ?
		WHERE id = ? AND wallet_balance >= ?
	`, amount, userID, amount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInsufficientWallet
	}
	_, err = tx.Exec(`
		INSERT INTO wallet_transactions(id,user_id,amount,type,reason)
		VALUES(?,?,?,?,?)
	`, uuid.NewString(), userID, amount, domain.TxnDebit, reason)
	return err
}

func (r *WalletRepo) CreditTx(tx *sqlx.Tx, userID string, amount float64, reason string) error {
	if _, err := tx.Exec(`
		UPDATE users SET wallet_balance = wallet_balance + ? WHERE id = ?
	`, amount, userID); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO wallet_transactions(id,user_id,amount,type,reason)
		VALUES(?,?,?,?,?)
	`, uuid.NewString(), userID, amount, domain.TxnCredit, reason)
	return err
}

func (r *WalletRepo) Balance(userID string) (float64, error) {
	var bal float64
	err := r.db.Get(&bal, `SELECT wallet_balance FROM users WHERE id = ?`, userID)
	return bal, err
}

// Statement returns the full ledger for a user, newest first.
func (r *WalletRepo) Statement(userID string) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	err := r.db.Select(&out, `
		SELECT id, user_id, amount, type, reason, created_at
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY datetime(created_at) DESC, id
	`, userID)
	return out, err
}
