package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- List summary ----------
type OrderSummary struct {
	ID        string  `db:"id"`
	StoreID   string  `db:"store_id"`
	StoreName string  `db:"store_name"`
	Total     float64 `db:"total"`
	Status    string  `db:"status"`
	CreatedAt string  `db:"created_at"`
}

type OrderItemDetail struct {
	ProductID string  `db:"product_id"`
	Title     string  `db:"title"`
	Size      string  `db:"size"`
	Color     string  `db:"color"`
	Qty       int     `db:"qty"`
	Price     float64 `db:"price"`
	Subtotal  float64 `db:"subtotal"`
}

// CreateTx inserts an order header inside the coordinator's transaction.
func (r *OrderRepo) CreateTx(tx *sqlx.Tx, o *domain.Order) error {
	_, err := tx.Exec(`
	  INSERT INTO orders
	    (id, user_id, store_id, address_id, payment_method, total, status,
	     status_timeline, coupon_code, coupon_percent, is_coupon_used,
	     created_at, updated_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.StoreID, o.AddressID, o.PaymentMethod, o.Total,
		o.Status, o.StatusTimeline, o.CouponCode, o.CouponPercent, o.IsCouponUsed)
	return err
}

func (r *OrderRepo) InsertItemTx(tx *sqlx.Tx, it *domain.OrderItem) error {
	_, err := tx.Exec(`
	  INSERT INTO order_items(order_id, product_id, variant_key, size, color, qty, price)
	  VALUES(?,?,?,?,?,?,?)
	`, it.OrderID, it.ProductID, it.VariantKey, it.Size, it.Color, it.Qty, it.Price)
	return err
}

func (r *OrderRepo) Get(orderID string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `
		SELECT id, user_id, store_id, address_id, payment_method, total, status,
		       status_timeline, coupon_code, coupon_percent, is_coupon_used,
		       cancelled_at, created_at, COALESCE(updated_at,'') AS updated_at
		FROM orders WHERE id = ?
	`, orderID)
	return o, err
}

func (r *OrderRepo) Items(orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := r.db.Select(&items, `
		SELECT order_id, product_id, variant_key, size, color, qty, price
		FROM order_items WHERE order_id = ?
		ORDER BY variant_key
	`, orderID)
	return items, err
}

// ItemsDetailed joins product titles for the order view.
func (r *OrderRepo) ItemsDetailed(orderID string) ([]OrderItemDetail, error) {
	var items []OrderItemDetail
	err := r.db.Select(&items, `
		SELECT oi.product_id, p.title, oi.size, oi.color, oi.qty, oi.price,
		       (oi.qty * oi.price) AS subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.title
	`, orderID)
	return items, err
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT o.id, o.store_id, s.name AS store_name, o.total, o.status, o.created_at
		FROM orders o JOIN stores s ON s.id = o.store_id
		WHERE o.user_id = ?
		ORDER BY datetime(o.created_at) DESC, o.id
	`, userID)
	return out, err
}

func (r *OrderRepo) ListByStore(storeID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT o.id, o.store_id, s.name AS store_name, o.total, o.status, o.created_at
		FROM orders o JOIN stores s ON s.id = o.store_id
		WHERE o.store_id = ?
		ORDER BY datetime(o.created_at) DESC, o.id
	`, storeID)
	return out, err
}

// UpdateStatusTx persists status and timeline together; the timeline is
// never written without its matching status. The write is conditional on
// the status the caller observed; zero rows means a concurrent writer won.
func (r *OrderRepo) UpdateStatusTx(tx *sqlx.Tx, orderID, status, timeline, prevStatus string) (bool, error) {
	res, err := tx.Exec(`
		UPDATE orders SET status = ?, status_timeline = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, status, timeline, orderID, prevStatus)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkCancelledTx flags the order cancelled only while it is still in a
// cancellable state; zero rows means it already shipped or was cancelled,
// and the caller must not restock or credit.
func (r *OrderRepo) MarkCancelledTx(tx *sqlx.Tx, orderID, at string) (bool, error) {
	res, err := tx.Exec(`
		UPDATE orders SET cancelled_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND cancelled_at = '' AND status IN ('ORDER_PLACED','PROCESSING')
	`, at, orderID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
