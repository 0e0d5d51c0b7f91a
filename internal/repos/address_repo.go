package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

// GetForUser loads an address only when it belongs to the given user;
// anything else reads as not found.
func (r *AddressRepo) GetForUser(id, userID string) (domain.Address, error) {
	var a domain.Address
	err := r.db.Get(&a, `
		SELECT id, user_id, name, line1, COALESCE(line2,'') AS line2,
		       city, state, zip, COALESCE(phone,'') AS phone, created_at
		FROM addresses WHERE id = ? AND user_id = ?
	`, id, userID)
	return a, err
}

func (r *AddressRepo) Create(a *domain.Address) error {
	_, err := r.db.Exec(`
		INSERT INTO addresses(id, user_id, name, line1, line2, city, state, zip, phone)
		VALUES(?,?,?,?,?,?,?,?,?)
	`, a.ID, a.UserID, a.Name, a.Line1, a.Line2, a.City, a.State, a.Zip, a.Phone)
	return err
}
