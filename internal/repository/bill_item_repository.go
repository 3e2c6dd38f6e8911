package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/split-bill/internal/model"
)

// BillItemRepo provides access to the bill_items table.
type BillItemRepo struct {
	db *sql.DB
}

func NewBillItemRepo(db *sql.DB) *BillItemRepo { return &BillItemRepo{db: db} }

const itemColumns = `id, bill_id, menu_item_id, item_name, quantity, unit_price, total_price,
	is_paid, paid_by, payment_id, created_at`

func scanItems(rows *sql.Rows) ([]model.BillItem, error) {
	defer rows.Close()
	items := []model.BillItem{}
	for rows.Next() {
		var (
			it        model.BillItem
			menuID    sql.NullInt64
			paidBy    sql.NullString
			paymentID sql.NullInt64
		)
		if err := rows.Scan(&it.ID, &it.BillID, &menuID, &it.Name, &it.Quantity, &it.UnitPrice,
			&it.TotalPrice, &it.IsPaid, &paidBy, &paymentID, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.MenuItemID = idPtr(menuID)
		it.PaidBy = stringPtr(paidBy)
		it.PaymentID = idPtr(paymentID)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, rows.Close()
}

func listItems(ctx context.Context, q querier, billID uint64, scope model.ItemScope) ([]model.BillItem, error) {
	query := `SELECT ` + itemColumns + ` FROM bill_items WHERE bill_id = ?`
	if scope == model.UnpaidItems {
		query += ` AND is_paid = 0`
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// CreateManyTx inserts items one row at a time and fills in their IDs.
func (r *BillItemRepo) CreateManyTx(ctx context.Context, tx *sql.Tx, items []model.BillItem) error {
	for i := range items {
		it := &items[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bill_items (bill_id, menu_item_id, item_name, quantity, unit_price, total_price, is_paid, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			it.BillID, nullID(it.MenuItemID), it.Name, it.Quantity, it.UnitPrice, it.TotalPrice, it.CreatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		it.ID = uint64(id)
	}
	return nil
}

func (r *BillItemRepo) ListByBill(ctx context.Context, billID uint64, scope model.ItemScope) ([]model.BillItem, error) {
	return listItems(ctx, r.db, billID, scope)
}

func (r *BillItemRepo) ListByBillTx(ctx context.Context, tx *sql.Tx, billID uint64, scope model.ItemScope) ([]model.BillItem, error) {
	return listItems(ctx, tx, billID, scope)
}

// ListUnpaidByIDsTx returns the requested items that belong to billID and
// are still unpaid. Unknown, foreign and already paid ids are skipped.
func (r *BillItemRepo) ListUnpaidByIDsTx(ctx context.Context, tx *sql.Tx, billID uint64, ids []uint64) ([]model.BillItem, error) {
	if len(ids) == 0 {
		return []model.BillItem{}, nil
	}
	in, args := inClause(ids)
	rows, err := tx.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM bill_items
		 WHERE bill_id = ? AND is_paid = 0 AND id IN (`+in+`) ORDER BY id`,
		append([]any{billID}, args...)...)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// MarkPaidTx flags the given items as paid by paymentID. The update only
// touches rows that are still unpaid, and the affected count is returned
// so the caller can detect an item that was paid in the meantime.
func (r *BillItemRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, billID uint64, ids []uint64, paidBy *string, paymentID uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	res, err := tx.ExecContext(ctx,
		`UPDATE bill_items SET is_paid = 1, paid_by = ?, payment_id = ?
		 WHERE bill_id = ? AND is_paid = 0 AND id IN (`+in+`)`,
		append([]any{nullString(paidBy), paymentID, billID}, args...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BillItemRepo) CountUnpaidTx(ctx context.Context, tx *sql.Tx, billID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bill_items WHERE bill_id = ? AND is_paid = 0`, billID).Scan(&n)
	return n, err
}

func (r *BillItemRepo) DeleteByBillTx(ctx context.Context, tx *sql.Tx, billID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = ?`, billID)
	return err
}
