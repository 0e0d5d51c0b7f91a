package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, store_id, title, price, mrp, stock_qty, in_stock,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products WHERE id = ?
	`, id)
	return p, err
}

// ByIDs loads the referenced products; ids missing from the catalog are
// simply absent from the result.
func (r *ProductRepo) ByIDs(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
	  SELECT id, store_id, title, price, mrp, stock_qty, in_stock,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	err = r.db.Select(&out, r.db.Rebind(query), args...)
	return out, err
}

// ReserveTx conditionally decrements stock inside the caller's transaction.
// The WHERE clause is the concurrency guard: zero rows affected means the
// product sold out (or went out of stock) since the pre-check.
func (r *ProductRepo) ReserveTx(tx *sqlx.Tx, productID string, qty int) (bool, error) {
	res, err := tx.Exec(`
		UPDATE products
		SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND in_stock = 1 AND stock_qty >= ?
	`, qty, productID, qty)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	_, err = tx.Exec(`
		UPDATE products SET in_stock = 0
		WHERE id = ? AND stock_qty <= 0
	`, productID)
	return true, err
}

// RestockTx returns reserved units to stock (order cancellation).
func (r *ProductRepo) RestockTx(tx *sqlx.Tx, productID string, qty int) error {
	_, err := tx.Exec(`
		UPDATE products
		SET stock_qty = stock_qty + ?, in_stock = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	return err
}
