package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{in: "", want: MySQL},
		{in: "mysql", want: MySQL},
		{in: "SQLite", want: SQLite},
		{in: "sqlite3", want: SQLite},
		{in: "postgres", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTxOptions(t *testing.T) {
	if MySQL.TxOptions() == nil {
		t.Error("mysql should set an isolation level")
	}
	if SQLite.TxOptions() != nil {
		t.Error("sqlite should use driver defaults")
	}
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db, SQLite); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	for _, table := range []string{"users", "refresh_tokens", "menu_items", "restaurant_tables", "bills", "payments", "bill_items"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := Migrate(ctx, db, SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	insert := "INSERT INTO restaurant_tables (restaurant_id, table_number, status, created_at) VALUES (1, 7, 'available', '2024-01-01 00:00:00')"
	if _, err := db.ExecContext(ctx, insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.ExecContext(ctx, insert)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}

	if !IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}) {
		t.Error("mysql 1062 should be a unique violation")
	}
	if IsUniqueViolation(&mysql.MySQLError{Number: 1452}) {
		t.Error("mysql 1452 is not a unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) || IsUniqueViolation(nil) {
		t.Error("plain errors are not unique violations")
	}
}
