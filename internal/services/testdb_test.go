package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"vendora/internal/domain"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE users(id TEXT PRIMARY KEY, email TEXT UNIQUE, name TEXT,
	  password_hash TEXT, role TEXT, wallet_balance NUMERIC NOT NULL DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE sessions(id TEXT PRIMARY KEY, user_id TEXT, created_at TEXT, last_seen TEXT);
	CREATE TABLE stores(id TEXT PRIMARY KEY, name TEXT, owner_user_id TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE products(id TEXT PRIMARY KEY, store_id TEXT, title TEXT,
	  price NUMERIC, mrp NUMERIC DEFAULT 0, stock_qty INTEGER DEFAULT 0,
	  in_stock INTEGER DEFAULT 1, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE addresses(id TEXT PRIMARY KEY, user_id TEXT, name TEXT, line1 TEXT,
	  line2 TEXT, city TEXT, state TEXT, zip TEXT, phone TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE coupons(code TEXT PRIMARY KEY, percent INTEGER, active INTEGER DEFAULT 1,
	  expires_at TEXT);
	CREATE TABLE orders(id TEXT PRIMARY KEY, user_id TEXT, store_id TEXT, address_id TEXT,
	  payment_method TEXT, total NUMERIC, status TEXT DEFAULT 'ORDER_PLACED',
	  status_timeline TEXT, coupon_code TEXT DEFAULT '', coupon_percent INTEGER DEFAULT 0,
	  is_coupon_used INTEGER DEFAULT 0, cancelled_at TEXT DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE order_items(order_id TEXT, product_id TEXT, variant_key TEXT,
	  size TEXT DEFAULT '', color TEXT DEFAULT '', qty INTEGER, price NUMERIC,
	  PRIMARY KEY(order_id, variant_key));
	CREATE TABLE wallet_transactions(id TEXT PRIMARY KEY, user_id TEXT, amount NUMERIC,
	  type TEXT, reason TEXT, created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE returns(id TEXT PRIMARY KEY, user_id TEXT, order_id TEXT, product_id TEXT,
	  store_id TEXT, reason TEXT, description TEXT DEFAULT '',
	  status TEXT DEFAULT 'REQUESTED', status_timeline TEXT,
	  refund_amount NUMERIC DEFAULT 0, refunded_at TEXT DEFAULT '',
	  pickup_date TEXT DEFAULT '', pickup_window TEXT DEFAULT '',
	  pickup_address TEXT DEFAULT '', pickup_note TEXT DEFAULT '',
	  admin_note TEXT DEFAULT '', created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT,
	  UNIQUE(user_id, order_id, product_id));

	INSERT INTO users(id,email,name,password_hash,role,wallet_balance) VALUES
	  ('u-buyer','buyer@test.local','Buyer','-','USER',100),
	  ('u-other','other@test.local','Other','-','USER',0),
	  ('u-seller-a','sa@test.local','Seller A','-','SELLER',0),
	  ('u-seller-b','sb@test.local','Seller B','-','SELLER',0),
	  ('u-admin','admin@test.local','Admin','-','ADMIN',0);
	INSERT INTO wallet_transactions(id,user_id,amount,type,reason) VALUES
	  ('wt-seed','u-buyer',100,'CREDIT','starting balance');
	INSERT INTO stores(id,name,owner_user_id) VALUES
	  ('store-a','Alpha Goods','u-seller-a'),
	  ('store-b','Beta Wares','u-seller-b');
	INSERT INTO products(id,store_id,title,price,stock_qty,in_stock) VALUES
	  ('prod-a','store-a','Alpha Widget',100,5,1),
	  ('prod-b','store-b','Beta Gadget',50,1,1);
	INSERT INTO addresses(id,user_id,name,line1,city,state,zip) VALUES
	  ('addr-1','u-buyer','Buyer','1 Main St','College Park','MD','20742');
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO coupons(code,percent,active,expires_at) VALUES('SAVE10',10,1,?)`,
		time.Now().Add(365*24*time.Hour).UTC().Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}
	return db
}

// insertOrder writes an order row directly, with a timeline whose entries
// carry the given statuses at the given times.
func insertOrder(t *testing.T, db *sqlx.DB, id, userID, storeID, status string, entries []domain.TimelineEntry, total float64) {
	t.Helper()
	timeline := "[]"
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.At)
		if err != nil {
			t.Fatal(err)
		}
		timeline = domain.AppendTimeline(timeline, e.Status, at)
	}
	_, err := db.Exec(`
	  INSERT INTO orders(id,user_id,store_id,address_id,payment_method,total,status,status_timeline,updated_at)
	  VALUES(?,?,?,?,'COD',?,?,?,CURRENT_TIMESTAMP)
	`, id, userID, storeID, "addr-1", total, status, timeline)
	if err != nil {
		t.Fatal(err)
	}
}

func insertOrderItem(t *testing.T, db *sqlx.DB, orderID, productID string, qty int, price float64) {
	t.Helper()
	_, err := db.Exec(`
	  INSERT INTO order_items(order_id,product_id,variant_key,qty,price)
	  VALUES(?,?,?,?,?)
	`, orderID, productID, domain.VariantKey(productID, "", ""), qty, price)
	if err != nil {
		t.Fatal(err)
	}
}

func stockOf(t *testing.T, db *sqlx.DB, productID string) (int, bool) {
	t.Helper()
	var row struct {
		Qty     int  `db:"stock_qty"`
		InStock bool `db:"in_stock"`
	}
	if err := db.Get(&row, `SELECT stock_qty, in_stock FROM products WHERE id=?`, productID); err != nil {
		t.Fatal(err)
	}
	return row.Qty, row.InStock
}

func balanceOf(t *testing.T, db *sqlx.DB, userID string) float64 {
	t.Helper()
	var bal float64
	if err := db.Get(&bal, `SELECT wallet_balance FROM users WHERE id=?`, userID); err != nil {
		t.Fatal(err)
	}
	return bal
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatal(err)
	}
	return n
}

// ledgerNet recomputes the user's balance from the ledger alone.
func ledgerNet(t *testing.T, db *sqlx.DB, userID string) float64 {
	t.Helper()
	var net float64
	err := db.Get(&net, `
	  SELECT COALESCE(SUM(CASE WHEN type='CREDIT' THEN amount ELSE -amount END),0)
	  FROM wallet_transactions WHERE user_id=?
	`, userID)
	if err != nil {
		t.Fatal(err)
	}
	return net
}

// captureDispatcher records dispatched notification kinds.
type captureDispatcher struct {
	mu    sync.Mutex
	kinds []string
}

func (d *captureDispatcher) Dispatch(toEmail, kind string, payload map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds = append(d.kinds, kind)
	return nil
}

func (d *captureDispatcher) count(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.kinds {
		if k == kind {
			n++
		}
	}
	return n
}
