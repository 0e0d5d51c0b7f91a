package domain

type Store struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	OwnerUserID string `db:"owner_user_id" json:"owner_user_id"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

type Product struct {
	ID        string  `db:"id" json:"id"`
	StoreID   string  `db:"store_id" json:"store_id"`
	Title     string  `db:"title" json:"title"`
	Price     float64 `db:"price" json:"price"`
	MRP       float64 `db:"mrp" json:"mrp"`
	StockQty  int     `db:"stock_qty" json:"stock_qty"`
	InStock   bool    `db:"in_stock" json:"in_stock"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	UpdatedAt string  `db:"updated_at" json:"updated_at"`
}

// Address is an immutable shipping snapshot; rows are never updated.
type Address struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Name      string `db:"name" json:"name"`
	Line1     string `db:"line1" json:"line1"`
	Line2     string `db:"line2" json:"line2"`
	City      string `db:"city" json:"city"`
	State     string `db:"state" json:"state"`
	Zip       string `db:"zip" json:"zip"`
	Phone     string `db:"phone" json:"phone"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type Coupon struct {
	Code      string `db:"code" json:"code"`
	Percent   int    `db:"percent" json:"percent"` // 1..100
	Active    bool   `db:"active" json:"active"`
	ExpiresAt string `db:"expires_at" json:"expires_at"`
}

const (
	TxnDebit  = "DEBIT"
	TxnCredit = "CREDIT"
)

type WalletTransaction struct {
	ID        string  `db:"id" json:"id"`
	UserID    string  `db:"user_id" json:"user_id"`
	Amount    float64 `db:"amount" json:"amount"` // always > 0; Type carries the sign
	Type      string  `db:"type" json:"type"`     // DEBIT | CREDIT
	Reason    string  `db:"reason" json:"reason"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}

type Return struct {
	ID             string  `db:"id" json:"id"`
	UserID         string  `db:"user_id" json:"user_id"`
	OrderID        string  `db:"order_id" json:"order_id"`
	ProductID      string  `db:"product_id" json:"product_id"`
	StoreID        string  `db:"store_id" json:"store_id"`
	Reason         string  `db:"reason" json:"reason"`
	Description    string  `db:"description" json:"description"`
	Status         string  `db:"status" json:"status"`
	StatusTimeline string  `db:"status_timeline" json:"status_timeline"`
	RefundAmount   float64 `db:"refund_amount" json:"refund_amount"`
	RefundedAt     string  `db:"refunded_at" json:"refunded_at"`
	PickupDate     string  `db:"pickup_date" json:"pickup_date"`
	PickupWindow   string  `db:"pickup_window" json:"pickup_window"`
	PickupAddress  string  `db:"pickup_address" json:"pickup_address"`
	PickupNote     string  `db:"pickup_note" json:"pickup_note"`
	AdminNote      string  `db:"admin_note" json:"admin_note"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}
