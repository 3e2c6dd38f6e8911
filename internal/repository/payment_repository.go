package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/split-bill/internal/model"
)

// PaymentRepo provides access to the payments table. Payments are only
// written inside the settle transaction.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, bill_id, customer_name, amount, payment_method, payment_status, transaction_id, created_at`

func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (bill_id, customer_name, amount, payment_method, payment_status, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BillID, nullString(p.CustomerName), p.Amount, p.Method, p.Status, p.TransactionID, p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PaymentRepo) ListByBill(ctx context.Context, billID uint64) ([]model.Payment, error) {
	return r.list(ctx, `WHERE bill_id = ? ORDER BY id`, billID)
}

// List returns payment history newest first. A zero billID lists all.
func (r *PaymentRepo) List(ctx context.Context, billID uint64) ([]model.Payment, error) {
	if billID != 0 {
		return r.list(ctx, `WHERE bill_id = ? ORDER BY id DESC`, billID)
	}
	return r.list(ctx, `ORDER BY id DESC`)
}

func (r *PaymentRepo) list(ctx context.Context, tail string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var (
			p    model.Payment
			name sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.BillID, &name, &p.Amount, &p.Method, &p.Status,
			&p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CustomerName = stringPtr(name)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepo) DeleteByBillTx(ctx context.Context, tx *sql.Tx, billID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE bill_id = ?`, billID)
	return err
}
