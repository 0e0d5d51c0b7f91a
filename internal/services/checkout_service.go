package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
	"vendora/internal/notify"
	"vendora/internal/repos"
)

// CartLine is one requested line; duplicate lines sharing a variant key are
// merged before anything else happens.
type CartLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type NewAddress struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
	Phone string `json:"phone"`
}

type CheckoutInput struct {
	UserID         string
	AddressID      string
	Address        *NewAddress
	Lines          []CartLine
	CouponCode     string
	PaymentMethod  string
	ShippingCharge float64
	WalletDebit    float64
}

// CheckoutService is the transaction coordinator: one call produces one
// order per store in the cart, or nothing at all.
type CheckoutService struct {
	DB        *sqlx.DB
	Products  *repos.ProductRepo
	Orders    *repos.OrderRepo
	Wallet    *repos.WalletRepo
	Coupons   *repos.CouponRepo
	Addresses *repos.AddressRepo
	Users     *repos.UserRepo
	Notify    notify.Dispatcher
	Timeout   time.Duration
}

func NewCheckoutService(db *sqlx.DB, products *repos.ProductRepo, orders *repos.OrderRepo,
	wallet *repos.WalletRepo, coupons *repos.CouponRepo, addresses *repos.AddressRepo,
	users *repos.UserRepo, dispatcher notify.Dispatcher, timeout time.Duration) *CheckoutService {
	return &CheckoutService{
		DB: db, Products: products, Orders: orders, Wallet: wallet,
		Coupons: coupons, Addresses: addresses, Users: users,
		Notify: dispatcher, Timeout: timeout,
	}
}

type mergedLine struct {
	variantKey string
	productID  string
	size       string
	color      string
	qty        int
	product    domain.Product
}

func (s *CheckoutService) Place(ctx context.Context, in CheckoutInput) ([]domain.Order, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	lines := mergeLines(in.Lines)
	if len(lines) == 0 {
		return nil, domain.ErrCartInvalid
	}

	// Load products; lines whose product vanished are dropped.
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.productID)
	}
	products, err := s.loadProducts(ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	kept := lines[:0]
	for _, ln := range lines {
		if p, ok := byID[ln.productID]; ok {
			ln.product = p
			kept = append(kept, ln)
		}
	}
	lines = kept
	if len(lines) == 0 {
		return nil, domain.ErrCartInvalid
	}

	// Fast-fail stock pre-check naming every offending product. The real
	// concurrency guard is the conditional decrement inside the transaction.
	var short []string
	for _, ln := range lines {
		if !ln.product.InStock || ln.product.StockQty < ln.qty {
			short = append(short, ln.product.Title)
		}
	}
	if len(short) > 0 {
		return nil, &domain.OutOfStockError{ProductTitles: short}
	}

	addressID, err := s.resolveAddress(in)
	if err != nil {
		return nil, err
	}

	coupon := s.lookupCoupon(in.CouponCode)

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Reserve inventory. Zero rows affected means a concurrent checkout got
	// there first; the whole cart aborts, every store included.
	for _, ln := range lines {
		ok, err := s.Products.ReserveTx(tx, ln.productID, ln.qty)
		if err != nil {
			return nil, fmt.Errorf("reserve %s: %w", ln.productID, err)
		}
		if !ok {
			return nil, &domain.OutOfStockError{ProductTitles: []string{ln.product.Title}}
		}
	}

	if in.WalletDebit > 0 {
		if err := s.Wallet.DebitTx(tx, in.UserID, in.WalletDebit, "checkout wallet debit"); err != nil {
			return nil, err
		}
	}

	orders, err := s.buildOrders(tx, in, lines, coupon, addressID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		// Never retried: an ambiguous commit must not risk a double charge.
		return nil, fmt.Errorf("commit checkout: %w", err)
	}
	committed = true

	s.notifyPlaced(in.UserID, orders)
	return orders, nil
}

// buildOrders partitions the reserved lines by store (ascending store id for
// a stable shipping/wallet allocation) and inserts one order per store.
func (s *CheckoutService) buildOrders(tx *sqlx.Tx, in CheckoutInput, lines []mergedLine,
	coupon *domain.Coupon, addressID string) ([]domain.Order, error) {

	byStore := make(map[string][]mergedLine)
	for _, ln := range lines {
		byStore[ln.product.StoreID] = append(byStore[ln.product.StoreID], ln)
	}
	storeIDs := make([]string, 0, len(byStore))
	for id := range byStore {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	now := time.Now()
	remainingWallet := in.WalletDebit
	orders := make([]domain.Order, 0, len(storeIDs))

	for i, storeID := range storeIDs {
		storeLines := byStore[storeID]
		sort.Slice(storeLines, func(a, b int) bool {
			return storeLines[a].variantKey < storeLines[b].variantKey
		})

		subtotal := 0.0
		for _, ln := range storeLines {
			// Always the current catalog price, never a client-supplied one.
			subtotal += ln.product.Price * float64(ln.qty)
		}

		discount := 0.0
		if coupon != nil {
			discount = subtotal * float64(coupon.Percent) / 100
		}

		// Shipping lands on the first store only, so a split cart is never
		// charged twice.
		shipping := 0.0
		if i == 0 {
			shipping = in.ShippingCharge
		}

		total := subtotal - discount + shipping
		if total < 0 {
			total = 0
		}
		walletApplied := remainingWallet
		if walletApplied > total {
			walletApplied = total
		}
		total -= walletApplied
		remainingWallet -= walletApplied

		o := domain.Order{
			ID:             uuid.NewString(),
			UserID:         in.UserID,
			StoreID:        storeID,
			AddressID:      addressID,
			PaymentMethod:  in.PaymentMethod,
			Total:          total,
			Status:         domain.OrderPlaced.String(),
			StatusTimeline: domain.NewTimeline(domain.OrderPlaced.String(), now),
		}
		if coupon != nil {
			o.CouponCode = coupon.Code
			o.CouponPercent = coupon.Percent
			o.IsCouponUsed = true
		}
		if err := s.Orders.CreateTx(tx, &o); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		for _, ln := range storeLines {
			item := domain.OrderItem{
				OrderID:    o.ID,
				ProductID:  ln.productID,
				VariantKey: ln.variantKey,
				Size:       ln.size,
				Color:      ln.color,
				Qty:        ln.qty,
				Price:      ln.product.Price,
			}
			if err := s.Orders.InsertItemTx(tx, &item); err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (s *CheckoutService) resolveAddress(in CheckoutInput) (string, error) {
	if in.AddressID != "" {
		a, err := s.Addresses.GetForUser(in.AddressID, in.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", domain.ErrNotFound
			}
			return "", fmt.Errorf("resolve address: %w", err)
		}
		return a.ID, nil
	}
	if in.Address == nil {
		return "", domain.ErrCartInvalid
	}
	a := domain.Address{
		ID:     uuid.NewString(),
		UserID: in.UserID,
		Name:   in.Address.Name,
		Line1:  in.Address.Line1,
		Line2:  in.Address.Line2,
		City:   in.Address.City,
		State:  in.Address.State,
		Zip:    in.Address.Zip,
		Phone:  in.Address.Phone,
	}
	if err := s.Addresses.Create(&a); err != nil {
		return "", fmt.Errorf("create address: %w", err)
	}
	return a.ID, nil
}

// lookupCoupon returns nil for unknown, inactive or expired codes; checkout
// proceeds without a discount rather than failing.
func (s *CheckoutService) lookupCoupon(code string) *domain.Coupon {
	if code == "" {
		return nil
	}
	c, err := s.Coupons.ByCode(code)
	if err != nil {
		return nil
	}
	if !c.Active {
		return nil
	}
	if exp, err := time.Parse(time.RFC3339, c.ExpiresAt); err != nil || !exp.After(time.Now()) {
		return nil
	}
	return &c
}

func (s *CheckoutService) notifyPlaced(userID string, orders []domain.Order) {
	if s.Notify == nil {
		return
	}
	u, err := s.Users.ByID(userID)
	if err != nil {
		return
	}
	for _, o := range orders {
		_ = s.Notify.Dispatch(u.Email, notify.KindOrderPlaced, map[string]any{
			"order_id": o.ID, "total": o.Total, "store_id": o.StoreID,
		})
	}
}

// loadProducts retries once on a transient driver error; this is the only
// auto-retried step and it is read-only.
func (s *CheckoutService) loadProducts(ids []string) ([]domain.Product, error) {
	products, err := s.Products.ByIDs(ids)
	if err != nil && isTransient(err) {
		time.Sleep(150 * time.Millisecond)
		products, err = s.Products.ByIDs(ids)
	}
	return products, err
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func mergeLines(in []CartLine) []mergedLine {
	var out []mergedLine
	index := make(map[string]int)
	for _, l := range in {
		if l.ProductID == "" || l.Qty <= 0 {
			continue
		}
		key := domain.VariantKey(l.ProductID, l.Size, l.Color)
		if i, ok := index[key]; ok {
			out[i].qty += l.Qty
			continue
		}
		index[key] = len(out)
		out = append(out, mergedLine{
			variantKey: key,
			productID:  l.ProductID,
			size:       l.Size,
			color:      l.Color,
			qty:        l.Qty,
		})
	}
	return out
}
