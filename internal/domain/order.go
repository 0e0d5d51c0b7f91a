package domain

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

type Order struct {
	ID             string  `db:"id" json:"id"`
	UserID         string  `db:"user_id" json:"user_id"`
	StoreID        string  `db:"store_id" json:"store_id"`
	AddressID      string  `db:"address_id" json:"address_id"`
	PaymentMethod  string  `db:"payment_method" json:"payment_method"`
	Total          float64 `db:"total" json:"total"`
	Status         string  `db:"status" json:"status"`
	StatusTimeline string  `db:"status_timeline" json:"status_timeline"`
	CouponCode     string  `db:"coupon_code" json:"coupon_code"`
	CouponPercent  int     `db:"coupon_percent" json:"coupon_percent"`
	IsCouponUsed   bool    `db:"is_coupon_used" json:"is_coupon_used"`
	CancelledAt    string  `db:"cancelled_at" json:"cancelled_at"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}

func (o *Order) Cancelled() bool { return o.CancelledAt != "" }

// OrderItem prices are a point-in-time copy taken at checkout; they are
// never re-read from the product after creation.
type OrderItem struct {
	OrderID    string  `db:"order_id" json:"order_id"`
	ProductID  string  `db:"product_id" json:"product_id"`
	VariantKey string  `db:"variant_key" json:"variant_key"`
	Size       string  `db:"size" json:"size"`
	Color      string  `db:"color" json:"color"`
	Qty        int     `db:"qty" json:"qty"`
	Price      float64 `db:"price" json:"price"`
}

// VariantKey identifies a cart line by product plus variant attributes, so
// duplicate lines merge and line items have a stable identity.
func VariantKey(productID, size, color string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", productID, size, color)
	return fmt.Sprintf("%016x", h.Sum64())
}

// TimelineEntry is the persisted audit shape: append-only, never reordered.
type TimelineEntry struct {
	Status string `json:"status"`
	At     string `json:"at"`
}

func NewTimeline(status string, at time.Time) string {
	b, _ := json.Marshal([]TimelineEntry{{Status: status, At: at.UTC().Format(time.RFC3339)}})
	return string(b)
}

func ParseTimeline(raw string) []TimelineEntry {
	if raw == "" {
		return nil
	}
	var entries []TimelineEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

// AppendTimeline returns raw with one more entry; the existing entries are
// carried through untouched.
func AppendTimeline(raw, status string, at time.Time) string {
	entries := ParseTimeline(raw)
	entries = append(entries, TimelineEntry{Status: status, At: at.UTC().Format(time.RFC3339)})
	b, _ := json.Marshal(entries)
	return string(b)
}

// TimelineAt returns the timestamp of the first entry with the given status.
func TimelineAt(raw, status string) (time.Time, bool) {
	for _, e := range ParseTimeline(raw) {
		if e.Status == status {
			if t, err := time.Parse(time.RFC3339, e.At); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
