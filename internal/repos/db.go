package repos

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (stores/products/coupons/users);
	// all seeds are idempotent and safe to run every start.
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','SELLER','ADMIN')),
  wallet_balance NUMERIC NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Stores
CREATE TABLE IF NOT EXISTS stores(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  owner_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_stores_owner ON stores(owner_user_id);

-- Products (stock lives on the product row; in_stock is derived from
-- stock_qty and flipped inside the reservation update)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL CHECK (price >= 0),
  mrp NUMERIC NOT NULL DEFAULT 0,
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
  in_stock INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id);

-- Addresses (immutable snapshots)
CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zip TEXT NOT NULL,
  phone TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);

-- Coupons (read-only at checkout; snapshotted onto orders)
CREATE TABLE IF NOT EXISTS coupons(
  code TEXT PRIMARY KEY,
  percent INTEGER NOT NULL CHECK (percent BETWEEN 1 AND 100),
  active INTEGER NOT NULL DEFAULT 1,
  expires_at TEXT NOT NULL
);

-- Orders (one store per order; a multi-store cart yields multiple rows)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  store_id TEXT NOT NULL REFERENCES stores(id),
  address_id TEXT NOT NULL REFERENCES addresses(id),
  payment_method TEXT NOT NULL,
  total NUMERIC NOT NULL CHECK (total >= 0),
  status TEXT NOT NULL DEFAULT 'ORDER_PLACED',
  status_timeline TEXT NOT NULL,
  coupon_code TEXT NOT NULL DEFAULT '',
  coupon_percent INTEGER NOT NULL DEFAULT 0,
  is_coupon_used INTEGER NOT NULL DEFAULT 0,
  cancelled_at TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user  ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  variant_key TEXT NOT NULL,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, variant_key)
);

-- Wallet ledger (append-only; users.wallet_balance is the materialized
-- projection and is updated in the same transaction as each insert)
CREATE TABLE IF NOT EXISTS wallet_transactions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  amount NUMERIC NOT NULL CHECK (amount > 0),
  type TEXT NOT NULL CHECK (type IN ('DEBIT','CREDIT')),
  reason TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_wallet_user ON wallet_transactions(user_id);

-- Returns (one per user/order/product, enforced here, not in code)
CREATE TABLE IF NOT EXISTS returns(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  order_id TEXT NOT NULL REFERENCES orders(id),
  product_id TEXT NOT NULL REFERENCES products(id),
  store_id TEXT NOT NULL REFERENCES stores(id),
  reason TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'REQUESTED',
  status_timeline TEXT NOT NULL,
  refund_amount NUMERIC NOT NULL DEFAULT 0,
  refunded_at TEXT NOT NULL DEFAULT '',
  pickup_date TEXT NOT NULL DEFAULT '',
  pickup_window TEXT NOT NULL DEFAULT '',
  pickup_address TEXT NOT NULL DEFAULT '',
  pickup_note TEXT NOT NULL DEFAULT '',
  admin_note TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  UNIQUE(user_id, order_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_returns_order ON returns(order_id);
CREATE INDEX IF NOT EXISTS idx_returns_store ON returns(store_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM stores`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo stores/products/coupons")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO users(id,email,name,password_hash,role) VALUES
	  ('u-seller-arcade','arcade@vendora.test','Arcade Supply','-','SELLER'),
	  ('u-seller-audio','audio@vendora.test','Audio Attic','-','SELLER')`)

	tx.MustExec(`INSERT INTO stores(id,name,owner_user_id) VALUES
	  ('store-vendora','Vendora Classics','u-seller-arcade'),
	  ('store-audio','Audio Attic','u-seller-audio')`)

	tx.MustExec(`INSERT INTO products(id,store_id,title,price,mrp,stock_qty,in_stock) VALUES
	  ('gbc-001','store-vendora','Game Boy Color',129.99,159.99,8,1),
	  ('nes-001','store-vendora','NES Console',199.00,229.00,5,1),
	  ('radio-001','store-audio','Philco 1939',349.50,399.00,2,1),
	  ('radio-zenith-500','store-audio','Zenith Royal 500',89.00,119.00,0,0)`)

	tx.MustExec(`INSERT INTO coupons(code,percent,active,expires_at) VALUES
	  ('WELCOME10',10,1,?),
	  ('RETRO25',25,1,?)`,
		time.Now().AddDate(1, 0, 0).UTC().Format(time.RFC3339),
		time.Now().AddDate(0, 3, 0).UTC().Format(time.RFC3339))

	return tx.Commit()
}

// seedUsers ensures demo buyers and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
		Balance                     float64
	}
	mk := func(id, email, name, role, raw string, balance float64) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h), Balance: balance}
	}

	users := []u{
		mk("u-alice", "alice@vendora.test", "Alice", "USER", "Passw0rd!", 500),
		mk("u-bob", "bob@vendora.test", "Bob", "USER", "Passw0rd!", 0),
		mk("u-admin", "admin@vendora.test", "Admin", "ADMIN", "Passw0rd!", 0),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,wallet_balance)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, x.Balance); err != nil {
			return err
		}
	}
	// Seeded starting balances get a matching ledger row so the ledger and
	// the projection agree from the first start.
	if _, err := tx.Exec(`
		INSERT INTO wallet_transactions(id,user_id,amount,type,reason)
		SELECT 'wt-seed-'||u.id, u.id, u.wallet_balance, 'CREDIT', 'promotional starting balance'
		FROM users u
		WHERE u.wallet_balance > 0
		  AND NOT EXISTS (SELECT 1 FROM wallet_transactions w WHERE w.id = 'wt-seed-'||u.id)
	`); err != nil {
		return err
	}

	return tx.Commit()
}
