package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. Statements run one at
// a time so the MySQL DSN does not need multiStatements.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := mysqlSchema
	if d == SQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Amounts are exact decimals and timestamps are written by the
// application in UTC, so neither schema relies on column defaults for them.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		revoked_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		category VARCHAR(100) NOT NULL,
		price DECIMAL(18,6) NOT NULL,
		available TINYINT(1) NOT NULL DEFAULT 1,
		image_url VARCHAR(1024) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_menu_items_category (restaurant_id, category)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS restaurant_tables (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		table_number INT NOT NULL,
		status VARCHAR(16) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_restaurant_tables_number (restaurant_id, table_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bills (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		table_id BIGINT UNSIGNED NOT NULL,
		bill_number VARCHAR(64) NOT NULL,
		number_of_guests INT NOT NULL,
		waiter_name VARCHAR(255) NOT NULL,
		total_amount DECIMAL(18,6) NOT NULL,
		paid_amount DECIMAL(18,6) NOT NULL,
		status VARCHAR(16) NOT NULL,
		qr_code MEDIUMTEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		closed_at DATETIME(6) NULL,
		UNIQUE KEY uq_bills_number (bill_number),
		KEY idx_bills_table_status (table_id, status),
		CONSTRAINT fk_bills_table FOREIGN KEY (table_id) REFERENCES restaurant_tables(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		bill_id BIGINT UNSIGNED NOT NULL,
		customer_name VARCHAR(255) NULL,
		amount DECIMAL(18,6) NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		transaction_id VARCHAR(64) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_payments_transaction (transaction_id),
		KEY idx_payments_bill (bill_id),
		CONSTRAINT fk_payments_bill FOREIGN KEY (bill_id) REFERENCES bills(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bill_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		bill_id BIGINT UNSIGNED NOT NULL,
		menu_item_id BIGINT UNSIGNED NULL,
		item_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(18,6) NOT NULL,
		total_price DECIMAL(18,6) NOT NULL,
		is_paid TINYINT(1) NOT NULL DEFAULT 0,
		paid_by VARCHAR(255) NULL,
		payment_id BIGINT UNSIGNED NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_bill_items_bill_paid (bill_id, is_paid),
		CONSTRAINT fk_bill_items_bill FOREIGN KEY (bill_id) REFERENCES bills(id),
		CONSTRAINT fk_bill_items_menu FOREIGN KEY (menu_item_id) REFERENCES menu_items(id) ON DELETE SET NULL,
		CONSTRAINT fk_bill_items_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		restaurant_id INTEGER NOT NULL,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		restaurant_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		price TEXT NOT NULL,
		available INTEGER NOT NULL DEFAULT 1,
		image_url TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_menu_items_category ON menu_items(restaurant_id, category)`,
	`CREATE TABLE IF NOT EXISTS restaurant_tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		restaurant_id INTEGER NOT NULL,
		table_number INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (restaurant_id, table_number)
	)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		restaurant_id INTEGER NOT NULL,
		table_id INTEGER NOT NULL REFERENCES restaurant_tables(id),
		bill_number TEXT NOT NULL UNIQUE,
		number_of_guests INTEGER NOT NULL,
		waiter_name TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		qr_code TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		closed_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_table_status ON bills(table_id, status)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bill_id INTEGER NOT NULL REFERENCES bills(id),
		customer_name TEXT,
		amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_bill ON payments(bill_id)`,
	`CREATE TABLE IF NOT EXISTS bill_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bill_id INTEGER NOT NULL REFERENCES bills(id),
		menu_item_id INTEGER REFERENCES menu_items(id) ON DELETE SET NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		total_price TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		paid_by TEXT,
		payment_id INTEGER REFERENCES payments(id) ON DELETE SET NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bill_items_bill_paid ON bill_items(bill_id, is_paid)`,
}
