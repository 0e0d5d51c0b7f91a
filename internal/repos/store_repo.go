package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type StoreRepo struct{ db *sqlx.DB }

func NewStoreRepo(db *sqlx.DB) *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) Get(id string) (domain.Store, error) {
	var s domain.Store
	err := r.db.Get(&s, `SELECT id, name, owner_user_id, created_at FROM stores WHERE id = ?`, id)
	return s, err
}

// Owns reports whether userID administers storeID; seller-scoped order and
// return updates are authorized through this lookup.
func (r *StoreRepo) Owns(userID, storeID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM stores WHERE id = ? AND owner_user_id = ?`, storeID, userID)
	return n > 0, err
}

func (r *StoreRepo) ListByOwner(userID string) ([]domain.Store, error) {
	var out []domain.Store
	err := r.db.Select(&out, `
		SELECT id, name, owner_user_id, created_at
		FROM stores WHERE owner_user_id = ? ORDER BY name
	`, userID)
	return out, err
}
