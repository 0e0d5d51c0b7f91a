package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
	"vendora/internal/repos"
	"vendora/internal/services"
)

func newCheckout(db *sqlx.DB) *services.CheckoutService {
	return services.NewCheckoutService(db,
		repos.NewProductRepo(db), repos.NewOrderRepo(db), repos.NewWalletRepo(db),
		repos.NewCouponRepo(db), repos.NewAddressRepo(db), repos.NewUserRepo(db),
		nil, 10*time.Second)
}

func testAddress() *services.NewAddress {
	return &services.NewAddress{Name: "Buyer", Line1: "1 Main St", City: "College Park", State: "MD", Zip: "20742"}
}

func TestCheckoutSplitsByStoreWithCoupon(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 2},
			{ProductID: "prod-b", Qty: 1},
		},
		CouponCode:    "SAVE10",
		PaymentMethod: "COD",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Fatalf("want 2 orders, got %d", len(orders))
	}

	// Orders come back in ascending store order: store-a then store-b.
	if orders[0].StoreID != "store-a" || orders[1].StoreID != "store-b" {
		t.Fatalf("bad store split: %s / %s", orders[0].StoreID, orders[1].StoreID)
	}
	if orders[0].Total != 180 { // 2x100 - 10%
		t.Fatalf("store-a total: want 180, got %v", orders[0].Total)
	}
	if orders[1].Total != 45 { // 1x50 - 10%
		t.Fatalf("store-b total: want 45, got %v", orders[1].Total)
	}
	for _, o := range orders {
		if !o.IsCouponUsed || o.CouponCode != "SAVE10" || o.CouponPercent != 10 {
			t.Fatalf("coupon snapshot missing: %+v", o)
		}
		tl := domain.ParseTimeline(o.StatusTimeline)
		if len(tl) != 1 || tl[0].Status != "ORDER_PLACED" {
			t.Fatalf("bad timeline: %s", o.StatusTimeline)
		}
	}

	if qty, _ := stockOf(t, db, "prod-a"); qty != 3 {
		t.Fatalf("prod-a stock: want 3, got %d", qty)
	}
	qty, inStock := stockOf(t, db, "prod-b")
	if qty != 0 || inStock {
		t.Fatalf("prod-b: want 0 units and out of stock, got qty=%d in_stock=%v", qty, inStock)
	}
}

func TestCheckoutAtomicAcrossStores(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// Store B's only product is short on stock.
	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 2},
			{ProductID: "prod-b", Qty: 5},
		},
	})
	var oos *domain.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("want OutOfStockError, got %v", err)
	}
	if len(oos.ProductTitles) != 1 || oos.ProductTitles[0] != "Beta Gadget" {
		t.Fatalf("error should name the product, got %v", oos.ProductTitles)
	}
	if orders != nil {
		t.Fatalf("no orders expected, got %d", len(orders))
	}
	if n := countRows(t, db, "orders"); n != 0 {
		t.Fatalf("store A's order must not exist, found %d orders", n)
	}
	if qty, _ := stockOf(t, db, "prod-a"); qty != 5 {
		t.Fatalf("store A inventory must be untouched, got %d", qty)
	}
}

func TestCheckoutNamesEveryShortProduct(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	_, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 9}, // stock 5
			{ProductID: "prod-b", Qty: 9}, // stock 1
		},
	})
	var oos *domain.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("want OutOfStockError, got %v", err)
	}
	if len(oos.ProductTitles) != 2 ||
		oos.ProductTitles[0] != "Alpha Widget" || oos.ProductTitles[1] != "Beta Gadget" {
		t.Fatalf("error should name every short product, got %v", oos.ProductTitles)
	}
}

func TestCheckoutRollsBackReservationsOnWalletFailure(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// The pre-check and the reservations succeed; the wallet debit is what
	// fails, so the reservations must roll back with it.
	_, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:      "u-buyer",
		Address:     testAddress(),
		Lines:       []services.CartLine{{ProductID: "prod-a", Qty: 2}},
		WalletDebit: 150, // balance is 100
	})
	if !errors.Is(err, domain.ErrInsufficientWallet) {
		t.Fatalf("want ErrInsufficientWallet, got %v", err)
	}
	if qty, _ := stockOf(t, db, "prod-a"); qty != 5 {
		t.Fatalf("reservation must roll back, got stock %d", qty)
	}
	if bal := balanceOf(t, db, "u-buyer"); bal != 100 {
		t.Fatalf("balance must be untouched, got %v", bal)
	}
	if n := countRows(t, db, "orders"); n != 0 {
		t.Fatalf("no orders expected, found %d", n)
	}
}

func TestCheckoutWalletDebitAllocation(t *testing.T) {
	db := memdb(t)
	if _, err := db.Exec(`UPDATE users SET wallet_balance=300 WHERE id='u-buyer'`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE wallet_transactions SET amount=300 WHERE id='wt-seed'`); err != nil {
		t.Fatal(err)
	}
	svc := newCheckout(db)

	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 2}, // 200, store-a
			{ProductID: "prod-b", Qty: 1}, // 50, store-b
		},
		WalletDebit: 220,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 220 allocates 200 to store-a (capped at its total) and 20 to store-b.
	if orders[0].Total != 0 {
		t.Fatalf("store-a total: want 0, got %v", orders[0].Total)
	}
	if orders[1].Total != 30 {
		t.Fatalf("store-b total: want 30, got %v", orders[1].Total)
	}
	if bal := balanceOf(t, db, "u-buyer"); bal != 80 {
		t.Fatalf("balance: want 80, got %v", bal)
	}
	// Ledger and projection agree.
	if net := ledgerNet(t, db, "u-buyer"); net != 80 {
		t.Fatalf("ledger net: want 80, got %v", net)
	}
}

func TestCheckoutShippingOnFirstStoreOnly(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 1},
			{ProductID: "prod-b", Qty: 1},
		},
		ShippingCharge: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if orders[0].Total != 110 {
		t.Fatalf("store-a total: want 110, got %v", orders[0].Total)
	}
	if orders[1].Total != 50 {
		t.Fatalf("store-b should not carry shipping, got %v", orders[1].Total)
	}
}

func TestCheckoutMergesDuplicateVariantLines(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines: []services.CartLine{
			{ProductID: "prod-a", Qty: 1, Size: "L", Color: "red"},
			{ProductID: "prod-a", Qty: 2, Size: "L", Color: "red"},
			{ProductID: "prod-a", Qty: 1, Size: "M", Color: "red"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	items, err := repos.NewOrderRepo(db).Items(orders[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 merged line items, got %d", len(items))
	}
	byKey := map[string]int{}
	for _, it := range items {
		byKey[it.Size] = it.Qty
	}
	if byKey["L"] != 3 || byKey["M"] != 1 {
		t.Fatalf("bad merge: %+v", byKey)
	}
	if qty, _ := stockOf(t, db, "prod-a"); qty != 1 {
		t.Fatalf("want stock 1 after 4 units reserved, got %d", qty)
	}
}

func TestCheckoutNoOverselling(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	in := services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines:   []services.CartLine{{ProductID: "prod-b", Qty: 1}}, // stock 1
	}
	if _, err := svc.Place(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Place(context.Background(), in)
	var oos *domain.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("second checkout must fail OutOfStock, got %v", err)
	}
	qty, inStock := stockOf(t, db, "prod-b")
	if qty != 0 || inStock {
		t.Fatalf("final stock: want 0/out, got %d/%v", qty, inStock)
	}
}

func TestCheckoutRejectsEmptyAndUnknownCarts(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	_, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID: "u-buyer", Address: testAddress(),
	})
	if !errors.Is(err, domain.ErrCartInvalid) {
		t.Fatalf("empty cart: want ErrCartInvalid, got %v", err)
	}

	// Lines whose product no longer exists are dropped; nothing left fails.
	_, err = svc.Place(context.Background(), services.CheckoutInput{
		UserID:  "u-buyer",
		Address: testAddress(),
		Lines:   []services.CartLine{{ProductID: "prod-gone", Qty: 1}},
	})
	if !errors.Is(err, domain.ErrCartInvalid) {
		t.Fatalf("vanished products: want ErrCartInvalid, got %v", err)
	}
}

func TestCheckoutIgnoresExpiredCoupon(t *testing.T) {
	db := memdb(t)
	if _, err := db.Exec(`UPDATE coupons SET expires_at=? WHERE code='SAVE10'`,
		time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}
	svc := newCheckout(db)

	orders, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:     "u-buyer",
		Address:    testAddress(),
		Lines:      []services.CartLine{{ProductID: "prod-a", Qty: 1}},
		CouponCode: "SAVE10",
	})
	if err != nil {
		t.Fatal(err)
	}
	if orders[0].Total != 100 || orders[0].IsCouponUsed {
		t.Fatalf("expired coupon must not apply: %+v", orders[0])
	}
}

func TestCheckoutAddressOwnership(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// addr-1 belongs to u-buyer; u-other may not reuse it.
	_, err := svc.Place(context.Background(), services.CheckoutInput{
		UserID:    "u-other",
		AddressID: "addr-1",
		Lines:     []services.CartLine{{ProductID: "prod-a", Qty: 1}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign address, got %v", err)
	}
}
