package repos

import (
	"log"

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
	// Baseline settings + demo catalog if DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure staff accounts exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Cars: license plate is the natural key; contact fields are overwritten
-- with the latest intake data. Rows are never deleted.
CREATE TABLE IF NOT EXISTS cars(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  license_plate TEXT NOT NULL UNIQUE,
  owner_name TEXT NOT NULL,
  phone_number TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  vehicle_type TEXT NOT NULL DEFAULT 'Car',
  color TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cars_plate ON cars(license_plate);

CREATE TABLE IF NOT EXISTS reception_slips(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  car_id INTEGER NOT NULL REFERENCES cars(id),
  reception_date TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','waiting','repairing','completed','paid'))
);
CREATE INDEX IF NOT EXISTS idx_reception_date   ON reception_slips(reception_date);
CREATE INDEX IF NOT EXISTS idx_reception_status ON reception_slips(status);

-- One repair slip per reception slip: the UNIQUE constraint makes
-- concurrent double-starts lose cleanly instead of duplicating work.
CREATE TABLE IF NOT EXISTS repair_slips(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  reception_slip_id INTEGER NOT NULL UNIQUE REFERENCES reception_slips(id),
  technician_id TEXT NOT NULL REFERENCES users(id),
  start_date TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  end_date TEXT
);

CREATE TABLE IF NOT EXISTS repair_details(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  repair_slip_id INTEGER NOT NULL REFERENCES repair_slips(id) ON DELETE CASCADE,
  component_id INTEGER NULL REFERENCES components(id),
  quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
  price_at_time NUMERIC NOT NULL DEFAULT 0 CHECK (price_at_time >= 0),
  category TEXT NOT NULL DEFAULT '',
  labor_fee NUMERIC NOT NULL DEFAULT 0 CHECK (labor_fee >= 0)
);
CREATE INDEX IF NOT EXISTS idx_details_repair ON repair_details(repair_slip_id);

CREATE TABLE IF NOT EXISTS components(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  current_price NUMERIC NOT NULL DEFAULT 0 CHECK (current_price >= 0),
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_deleted INTEGER NOT NULL DEFAULT 0
);

-- One invoice per repair slip, ever. Pay is terminal.
CREATE TABLE IF NOT EXISTS invoices(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  repair_slip_id INTEGER NOT NULL UNIQUE REFERENCES repair_slips(id),
  cashier_id TEXT NOT NULL REFERENCES users(id),
  total_amount NUMERIC NOT NULL,
  vat_rate NUMERIC NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices(created_at);

CREATE TABLE IF NOT EXISTS system_settings(
  setting_key TEXT PRIMARY KEY,
  setting_value TEXT NOT NULL
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('RECEPTION','TECHNICIAN','CASHIER','ADMIN')),
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
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM system_settings`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting default settings and demo components")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO system_settings(setting_key,setting_value) VALUES
	  ('max_cars_per_day','30'),
	  ('vat_rate','10')`)

	tx.MustExec(`INSERT INTO components(name,current_price,stock_quantity) VALUES
	  ('Oil filter',12.50,40),
	  ('Brake pad set',58.00,16),
	  ('Spark plug',6.90,120),
	  ('Wiper blade pair',21.00,25)`)

	return tx.Commit()
}

// seedUsers ensures one account per role exists (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-front", "front@garagedesk.test", "Front Desk", "RECEPTION", "Passw0rd!"),
		mk("u-wrench", "wrench@garagedesk.test", "Wrench", "TECHNICIAN", "Passw0rd!"),
		mk("u-till", "till@garagedesk.test", "Till", "CASHIER", "Passw0rd!"),
		mk("u-admin", "admin@garagedesk.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
