package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
)

// BillRepo provides access to the bills table.
type BillRepo struct {
	db *sql.DB
}

func NewBillRepo(db *sql.DB) *BillRepo { return &BillRepo{db: db} }

const billSelect = `SELECT b.id, b.table_id, t.table_number, b.bill_number, b.number_of_guests,
	b.waiter_name, b.total_amount, b.paid_amount, b.status, b.qr_code, b.version,
	b.created_at, b.updated_at, b.closed_at
	FROM bills b JOIN restaurant_tables t ON t.id = b.table_id`

func scanBill(row rowScanner, extra ...any) (*model.Bill, error) {
	var (
		b        model.Bill
		closedAt sql.NullTime
	)
	dest := []any{&b.ID, &b.TableID, &b.TableNumber, &b.BillNumber, &b.NumberOfGuests,
		&b.WaiterName, &b.TotalAmount, &b.PaidAmount, &b.Status, &b.QRCode, &b.Version,
		&b.CreatedAt, &b.UpdatedAt, &closedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		b.ClosedAt = &t
	}
	return &b, nil
}

// getBill loads one bill. suffix follows the WHERE clause (ordering,
// limits) and may be empty.
func getBill(ctx context.Context, q querier, where, suffix string, args ...any) (*model.Bill, error) {
	query := billSelect + ` WHERE ` + where
	if suffix != "" {
		query += ` ` + suffix
	}
	b, err := scanBill(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	return b, err
}

// CreateTx inserts b and sets its ID. Version starts at zero.
func (r *BillRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Bill) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bills (restaurant_id, table_id, bill_number, number_of_guests, waiter_name,
			total_amount, paid_amount, status, qr_code, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		model.RestaurantID, b.TableID, b.BillNumber, b.NumberOfGuests, b.WaiterName,
		b.TotalAmount, b.PaidAmount, b.Status, b.QRCode, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// LockTx bumps the bill's version. It must be the first statement of a
// mutating bill transaction: the UPDATE takes the row's write lock and
// holds it until commit, so concurrent writers on the same bill queue
// behind each other. A missing bill yields ErrBillNotFound.
func (r *BillRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET version = version + 1, updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *BillRepo) GetByID(ctx context.Context, id uint64) (*model.Bill, error) {
	return getBill(ctx, r.db, `b.id = ?`, "", id)
}

func (r *BillRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Bill, error) {
	return getBill(ctx, tx, `b.id = ?`, "", id)
}

// GetByNumber looks a bill up by its public bill number.
func (r *BillRepo) GetByNumber(ctx context.Context, number string) (*model.Bill, error) {
	return getBill(ctx, r.db, `b.bill_number = ?`, "", number)
}

// GetOpenByTable returns the newest bill on the table that is not closed.
func (r *BillRepo) GetOpenByTable(ctx context.Context, restaurantID uint64, tableNumber int) (*model.Bill, error) {
	return getBill(ctx, r.db,
		`t.restaurant_id = ? AND t.table_number = ? AND b.status <> ?`, `ORDER BY b.id DESC LIMIT 1`,
		restaurantID, tableNumber, model.BillClosed)
}

// List returns bills newest first with their item and payment counts.
// An empty status lists every bill.
func (r *BillRepo) List(ctx context.Context, status string) ([]model.BillSummary, error) {
	query := `SELECT b.id, b.table_id, t.table_number, b.bill_number, b.number_of_guests,
		b.waiter_name, b.total_amount, b.paid_amount, b.status, b.qr_code, b.version,
		b.created_at, b.updated_at, b.closed_at,
		(SELECT COUNT(*) FROM bill_items i WHERE i.bill_id = b.id),
		(SELECT COUNT(*) FROM payments p WHERE p.bill_id = b.id)
		FROM bills b JOIN restaurant_tables t ON t.id = b.table_id
		WHERE b.restaurant_id = ?`
	args := []any{model.RestaurantID}
	if status != "" {
		query += ` AND b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := []model.BillSummary{}
	for rows.Next() {
		var s model.BillSummary
		b, err := scanBill(rows, &s.TotalItems, &s.TotalPayments)
		if err != nil {
			return nil, err
		}
		s.Bill = *b
		bills = append(bills, s)
	}
	return bills, rows.Err()
}

// UpdateTotalsTx writes the derived amounts and status.
func (r *BillRepo) UpdateTotalsTx(ctx context.Context, tx *sql.Tx, id uint64, total, paid money.Money, status string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bills SET total_amount = ?, paid_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		total, paid, status, now, id)
	return err
}

// CloseTx marks the bill fully paid and closed.
func (r *BillRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bills SET paid_amount = total_amount, status = ?, closed_at = ?, updated_at = ? WHERE id = ?`,
		model.BillClosed, now, now, id)
	return err
}

// DeleteTx removes the bill row. Items and payments must already be gone.
func (r *BillRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBillNotFound
	}
	return nil
}
