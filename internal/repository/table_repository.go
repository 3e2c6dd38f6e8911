package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/split-bill/internal/database"
	"github.com/iliyamo/split-bill/internal/model"
)

// TableRepo provides access to the restaurant_tables table. Occupancy is
// only ever changed inside a bill transaction, so the write methods all
// take the caller's *sql.Tx.
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, restaurant_id, table_number, status, created_at`

func scanTable(row rowScanner) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Status, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func getTableByNumber(ctx context.Context, q querier, restaurantID uint64, number int) (*model.Table, error) {
	t, err := scanTable(q.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE restaurant_id = ? AND table_number = ?`,
		restaurantID, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

// GetByNumber returns the table with the given number.
func (r *TableRepo) GetByNumber(ctx context.Context, restaurantID uint64, number int) (*model.Table, error) {
	return getTableByNumber(ctx, r.db, restaurantID, number)
}

// List returns every known table ordered by number.
func (r *TableRepo) List(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE restaurant_id = ? ORDER BY table_number`,
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// EnsureTx returns the table with the given number, creating it as
// available on first use. A concurrent insert of the same number loses
// on the unique key and re-reads the winner's row.
func (r *TableRepo) EnsureTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, number int, now time.Time) (*model.Table, error) {
	t, err := getTableByNumber(ctx, tx, restaurantID, number)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrTableNotFound) {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO restaurant_tables (restaurant_id, table_number, status, created_at) VALUES (?, ?, ?, ?)`,
		restaurantID, number, model.TableAvailable, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return getTableByNumber(ctx, tx, restaurantID, number)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Table{
		ID:           uint64(id),
		RestaurantID: restaurantID,
		TableNumber:  number,
		Status:       model.TableAvailable,
		CreatedAt:    now,
	}, nil
}

// OccupyTx flips the table from available to occupied. Only one
// transaction can win the flip, which is what keeps a table to a single
// open bill; the loser gets ErrTableOccupied.
func (r *TableRepo) OccupyTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE restaurant_tables SET status = ? WHERE id = ? AND status = ?`,
		model.TableOccupied, tableID, model.TableAvailable)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableOccupied
	}
	return nil
}

// ReleaseTx marks the table available again.
func (r *TableRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE restaurant_tables SET status = ? WHERE id = ?`,
		model.TableAvailable, tableID)
	return err
}
