package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// OpenSQLite opens (or creates) the SQLite store at path and ensures its schema.
// Pass MemoryDSN for a throwaway database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := MemoryDSN
	if path != MemoryDSN {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer keeps constraint checks serial and keeps :memory: on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(time.Duration(0))

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			booking_id TEXT PRIMARY KEY,
			lab_name TEXT NOT NULL,
			appointment_date TEXT NOT NULL,
			appointment_time TEXT NOT NULL,
			patient_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			items TEXT NOT NULL,
			status TEXT NOT NULL,
			coupon_code TEXT NOT NULL DEFAULT '',
			original_amount REAL NOT NULL DEFAULT 0,
			discount_amount REAL NOT NULL DEFAULT 0,
			final_amount REAL NOT NULL DEFAULT 0,
			user_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_slot
			ON bookings(lab_name, appointment_date, appointment_time)
			WHERE status IN ('Confirmed', 'Pending')`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_lab_day
			ON bookings(lab_name, appointment_date)`,
		`CREATE TABLE IF NOT EXISTS coupons (
			code TEXT PRIMARY KEY,
			discount_type TEXT NOT NULL,
			discount_value REAL NOT NULL,
			min_order_amount REAL NOT NULL DEFAULT 0,
			max_discount_amount REAL NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			valid_from TEXT,
			valid_until TEXT,
			usage_limit INTEGER NOT NULL DEFAULT 0,
			used_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// TimeLayout is how timestamps are stored in SQLite text columns.
const TimeLayout = time.RFC3339Nano

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
