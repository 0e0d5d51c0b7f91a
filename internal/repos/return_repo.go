package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type ReturnRepo struct{ db *sqlx.DB }

func NewReturnRepo(db *sqlx.DB) *ReturnRepo { return &ReturnRepo{db: db} }

// Create relies on the UNIQUE(user_id, order_id, product_id) constraint for
// the one-return-per-item invariant; the constraint violation surfaces as
// ErrDuplicateReturn.
func (r *ReturnRepo) Create(ret *domain.Return) error {
	_, err := r.db.Exec(`
	  INSERT INTO returns
	    (id, user_id, order_id, product_id, store_id, reason, description,
	     status, status_timeline, created_at, updated_at)
	  VALUES (?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
	`, ret.ID, ret.UserID, ret.OrderID, ret.ProductID, ret.StoreID,
		ret.Reason, ret.Description, ret.Status, ret.StatusTimeline)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrDuplicateReturn
	}
	return err
}

func (r *ReturnRepo) Get(id string) (domain.Return, error) {
	var ret domain.Return
	err := r.db.Get(&ret, `
		SELECT id, user_id, order_id, product_id, store_id, reason, description,
		       status, status_timeline, refund_amount, refunded_at,
		       pickup_date, pickup_window, pickup_address, pickup_note, admin_note,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM returns WHERE id = ?
	`, id)
	return ret, err
}

func (r *ReturnRepo) ListByUser(userID string) ([]domain.Return, error) {
	var out []domain.Return
	err := r.db.Select(&out, `
		SELECT id, user_id, order_id, product_id, store_id, reason, description,
		       status, status_timeline, refund_amount, refunded_at,
		       pickup_date, pickup_window, pickup_address, pickup_note, admin_note,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM returns WHERE user_id = ?
		ORDER BY datetime(created_at) DESC, id
	`, userID)
	return out, err
}

// UpdateStatusTx writes status, timeline, note and any refund fields in the
// caller's transaction so the wallet credit can ride along atomically. The
// write is conditional on the status the caller observed; zero rows means a
// concurrent writer moved the return first, and the caller must not credit.
func (r *ReturnRepo) UpdateStatusTx(tx *sqlx.Tx, ret *domain.Return, prevStatus string) (bool, error) {
	res, err := tx.Exec(`
		UPDATE returns
		SET status = ?, status_timeline = ?, admin_note = ?,
		    refund_amount = ?, refunded_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, ret.Status, ret.StatusTimeline, ret.AdminNote,
		ret.RefundAmount, ret.RefundedAt, ret.ID, prevStatus)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ReturnRepo) UpdatePickup(ret *domain.Return) error {
	_, err := r.db.Exec(`
		UPDATE returns
		SET pickup_date = ?, pickup_window = ?, pickup_address = ?, pickup_note = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, ret.PickupDate, ret.PickupWindow, ret.PickupAddress, ret.PickupNote, ret.ID)
	return err
}
