// Package service holds the bill reconciliation engine and the bill
// lifecycle. Every mutation runs in one database transaction that first
// locks the bill row; events and metrics are emitted only after commit.
package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/split-bill/internal/database"
	"github.com/iliyamo/split-bill/internal/metrics"
	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
	"github.com/iliyamo/split-bill/internal/pricing"
	"github.com/iliyamo/split-bill/internal/qrcode"
	"github.com/iliyamo/split-bill/internal/queue"
	"github.com/iliyamo/split-bill/internal/repository"
)

// Deps are the collaborators of BillService. Only DB is required.
type Deps struct {
	DB          *sql.DB
	Dialect     database.Dialect
	QR          qrcode.Generator
	Events      queue.Publisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Clock       func() time.Time
	FrontendURL string
}

type BillService struct {
	db     *sql.DB
	txOpts *sql.TxOptions

	tables   *repository.TableRepo
	bills    *repository.BillRepo
	items    *repository.BillItemRepo
	payments *repository.PaymentRepo
	menu     *repository.MenuRepo

	qr          qrcode.Generator
	events      queue.Publisher
	metrics     *metrics.Metrics
	log         *slog.Logger
	clock       func() time.Time
	frontendURL string
}

func NewBillService(d Deps) *BillService {
	s := &BillService{
		db:          d.DB,
		txOpts:      d.Dialect.TxOptions(),
		tables:      repository.NewTableRepo(d.DB),
		bills:       repository.NewBillRepo(d.DB),
		items:       repository.NewBillItemRepo(d.DB),
		payments:    repository.NewPaymentRepo(d.DB),
		menu:        repository.NewMenuRepo(d.DB),
		qr:          d.QR,
		events:      d.Events,
		metrics:     d.Metrics,
		log:         d.Logger,
		clock:       d.Clock,
		frontendURL: d.FrontendURL,
	}
	if s.events == nil {
		s.events = queue.NopPublisher{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

func (s *BillService) now() time.Time { return s.clock().UTC() }

// inTx runs fn inside one transaction. Domain errors returned by fn pass
// through unchanged; any other failure is wrapped as a transaction error.
// Nothing fn wrote survives an error.
func (s *BillService) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return repository.TxError(op+": begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		if isClassified(err) {
			return err
		}
		return repository.TxError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return repository.TxError(op+": commit", err)
	}
	committed = true
	return nil
}

func isClassified(err error) bool {
	for _, c := range []error{
		repository.ErrValidation, repository.ErrNotFound, repository.ErrConflict,
		repository.ErrTransaction, repository.ErrUpstream,
	} {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// CreateBillInput opens a bill. Items may be empty.
type CreateBillInput struct {
	TableNumber    int             `json:"tableNumber"`
	NumberOfGuests int             `json:"numberOfGuests"`
	WaiterName     string          `json:"waiterName"`
	Items          []model.NewItem `json:"items"`
}

// CreateBill opens a bill on a table that has no open bill, creating the
// table on first use. The QR code is best effort: if it cannot be
// rendered the bill is created without one.
func (s *BillService) CreateBill(ctx context.Context, in CreateBillInput) (*model.BillDetail, error) {
	if in.TableNumber < 1 {
		return nil, repository.ValidationError("table number must be a positive integer")
	}
	guests := in.NumberOfGuests
	if guests == 0 {
		guests = 1
	}
	if guests < 0 {
		return nil, repository.ValidationError("number of guests must be positive")
	}

	now := s.now()
	number, err := newBillNumber(now)
	if err != nil {
		return nil, repository.UpstreamError("bill number", err)
	}
	bill := &model.Bill{
		TableNumber:    in.TableNumber,
		BillNumber:     number,
		NumberOfGuests: guests,
		WaiterName:     strings.TrimSpace(in.WaiterName),
		Status:         model.BillActive,
		QRCode:         s.renderQR(number),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.inTx(ctx, "create bill", func(tx *sql.Tx) error {
		table, err := s.tables.EnsureTx(ctx, tx, model.RestaurantID, in.TableNumber, now)
		if err != nil {
			return err
		}
		if err := s.tables.OccupyTx(ctx, tx, table.ID); err != nil {
			return err
		}
		bill.TableID = table.ID
		if err := s.bills.CreateTx(ctx, tx, bill); err != nil {
			return err
		}
		lines, err := s.resolveItemsTx(ctx, tx, bill.ID, in.Items, now)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		if err := s.items.CreateManyTx(ctx, tx, lines); err != nil {
			return err
		}
		stored, err := s.items.ListByBillTx(ctx, tx, bill.ID, model.AllItems)
		if err != nil {
			return err
		}
		return s.bills.UpdateTotalsTx(ctx, tx, bill.ID, pricing.BillTotal(stored), money.Zero, model.BillActive, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BillCreated()
	s.log.Info("bill created", "bill", bill.BillNumber, "table", bill.TableNumber, "items", len(in.Items))
	return s.GetBill(ctx, bill.ID, model.AllItems)
}

// AddItems appends order lines to an open bill and recomputes its total.
// A paid bill that receives new unpaid items becomes active again.
func (s *BillService) AddItems(ctx context.Context, billID uint64, newItems []model.NewItem) (*model.BillDetail, error) {
	if len(newItems) == 0 {
		return nil, repository.ValidationError("items are required")
	}
	now := s.now()
	err := s.inTx(ctx, "add items", func(tx *sql.Tx) error {
		if err := s.bills.LockTx(ctx, tx, billID, now); err != nil {
			return err
		}
		bill, err := s.bills.GetByIDTx(ctx, tx, billID)
		if err != nil {
			return err
		}
		if bill.Status == model.BillClosed {
			return repository.ErrBillClosed
		}
		lines, err := s.resolveItemsTx(ctx, tx, billID, newItems, now)
		if err != nil {
			return err
		}
		if err := s.items.CreateManyTx(ctx, tx, lines); err != nil {
			return err
		}
		all, err := s.items.ListByBillTx(ctx, tx, billID, model.AllItems)
		if err != nil {
			return err
		}
		// the new lines are unpaid, so a paid bill reopens
		return s.bills.UpdateTotalsTx(ctx, tx, billID, pricing.BillTotal(all), bill.PaidAmount, model.BillActive, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("items added", "bill_id", billID, "count", len(newItems))
	return s.GetBill(ctx, billID, model.AllItems)
}

// resolveItemsTx validates new order lines and snapshots menu names and
// prices where the caller left them out.
func (s *BillService) resolveItemsTx(ctx context.Context, tx *sql.Tx, billID uint64, in []model.NewItem, now time.Time) ([]model.BillItem, error) {
	lines := make([]model.BillItem, 0, len(in))
	for i, it := range in {
		name := strings.TrimSpace(it.Name)
		var price *money.Money
		if it.Price != nil {
			p := *it.Price
			price = &p
		}
		if it.MenuItemID != nil && (name == "" || price == nil) {
			m, err := s.menu.GetByIDTx(ctx, tx, *it.MenuItemID)
			if errors.Is(err, repository.ErrMenuItemNotFound) {
				return nil, repository.ValidationError("item %d: menu item %d does not exist", i+1, *it.MenuItemID)
			}
			if err != nil {
				return nil, err
			}
			if name == "" {
				name = m.Name
			}
			if price == nil {
				p := m.Price
				price = &p
			}
		}
		if name == "" {
			return nil, repository.ValidationError("item %d: name is required", i+1)
		}
		if price == nil {
			return nil, repository.ValidationError("item %d: price is required", i+1)
		}
		total, err := pricing.LineTotal(it.Quantity, *price)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", repository.ErrValidation, i+1, err)
		}
		lines = append(lines, model.BillItem{
			BillID:     billID,
			MenuItemID: it.MenuItemID,
			Name:       name,
			Quantity:   it.Quantity,
			UnitPrice:  *price,
			TotalPrice: total,
			CreatedAt:  now,
		})
	}
	return lines, nil
}

// FinishBill closes a fully settled bill and frees its table. A bill with
// unpaid items is left untouched and ErrUnsettledItems is returned.
func (s *BillService) FinishBill(ctx context.Context, billID uint64) (*model.Bill, error) {
	now := s.now()
	var closed *model.Bill
	err := s.inTx(ctx, "finish bill", func(tx *sql.Tx) error {
		if err := s.bills.LockTx(ctx, tx, billID, now); err != nil {
			return err
		}
		bill, err := s.bills.GetByIDTx(ctx, tx, billID)
		if err != nil {
			return err
		}
		if bill.Status == model.BillClosed {
			return repository.ErrBillClosed
		}
		unpaid, err := s.items.CountUnpaidTx(ctx, tx, billID)
		if err != nil {
			return err
		}
		if unpaid > 0 {
			return fmt.Errorf("%w: %d unpaid", repository.ErrUnsettledItems, unpaid)
		}
		if err := s.bills.CloseTx(ctx, tx, billID, now); err != nil {
			return err
		}
		if err := s.tables.ReleaseTx(ctx, tx, bill.TableID); err != nil {
			return err
		}
		closed, err = s.bills.GetByIDTx(ctx, tx, billID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BillFinished()
	s.log.Info("bill closed", "bill", closed.BillNumber, "table", closed.TableNumber, "total", closed.TotalAmount.String())
	s.publish("bill.closed", func(ctx context.Context) error {
		return s.events.PublishBillClosed(ctx, queue.BillClosedEvent{
			BillID:      closed.ID,
			BillNumber:  closed.BillNumber,
			TableNumber: closed.TableNumber,
			TotalAmount: closed.TotalAmount,
			ClosedAt:    now.Format(time.RFC3339),
		})
	})
	return closed, nil
}

// DeleteBill removes a bill with its items and payments regardless of
// their state. The table is released unless the bill was already closed,
// in which case the table may already belong to a newer bill.
func (s *BillService) DeleteBill(ctx context.Context, billID uint64) error {
	now := s.now()
	var deleted *model.Bill
	err := s.inTx(ctx, "delete bill", func(tx *sql.Tx) error {
		if err := s.bills.LockTx(ctx, tx, billID, now); err != nil {
			return err
		}
		bill, err := s.bills.GetByIDTx(ctx, tx, billID)
		if err != nil {
			return err
		}
		if err := s.items.DeleteByBillTx(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.payments.DeleteByBillTx(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.bills.DeleteTx(ctx, tx, billID); err != nil {
			return err
		}
		if bill.IsOpen() {
			if err := s.tables.ReleaseTx(ctx, tx, bill.TableID); err != nil {
				return err
			}
		}
		deleted = bill
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.BillDeleted()
	s.log.Info("bill deleted", "bill", deleted.BillNumber, "table", deleted.TableNumber, "status", deleted.Status)
	return nil
}

// GetBill returns the bill with its items (all or unpaid) and payments.
func (s *BillService) GetBill(ctx context.Context, id uint64, scope model.ItemScope) (*model.BillDetail, error) {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, bill, scope)
}

// GetBillByNumber is the customer lookup behind the QR code.
func (s *BillService) GetBillByNumber(ctx context.Context, number string, scope model.ItemScope) (*model.BillDetail, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, repository.ValidationError("bill number is required")
	}
	bill, err := s.bills.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, bill, scope)
}

// GetOpenBillByTable returns the table's bill that is not yet closed.
func (s *BillService) GetOpenBillByTable(ctx context.Context, tableNumber int, scope model.ItemScope) (*model.BillDetail, error) {
	if tableNumber < 1 {
		return nil, repository.ValidationError("table number must be a positive integer")
	}
	bill, err := s.bills.GetOpenByTable(ctx, model.RestaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, bill, scope)
}

func (s *BillService) detail(ctx context.Context, bill *model.Bill, scope model.ItemScope) (*model.BillDetail, error) {
	items, err := s.items.ListByBill(ctx, bill.ID, scope)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBill(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	return &model.BillDetail{Bill: *bill, Items: items, Payments: payments}, nil
}

// ListBills lists bills newest first, optionally filtered by status.
func (s *BillService) ListBills(ctx context.Context, status string) ([]model.BillSummary, error) {
	switch status {
	case "", model.BillActive, model.BillPaid, model.BillClosed:
	default:
		return nil, repository.ValidationError("unknown status %q", status)
	}
	return s.bills.List(ctx, status)
}

// ListPayments returns payment history; billID 0 lists every bill.
func (s *BillService) ListPayments(ctx context.Context, billID uint64) ([]model.Payment, error) {
	return s.payments.List(ctx, billID)
}

// ListTables returns every known table with its occupancy.
func (s *BillService) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.tables.List(ctx, model.RestaurantID)
}

func (s *BillService) renderQR(billNumber string) string {
	if s.qr == nil || s.frontendURL == "" {
		return ""
	}
	data, err := s.qr.DataURL(qrcode.BillURL(s.frontendURL, billNumber))
	if err != nil {
		s.log.Warn("qr code generation failed, creating bill without it",
			"bill", billNumber, "error", repository.UpstreamError("qrcode", err))
		return ""
	}
	return data
}

// publish sends an event after commit. The request context may already
// be done, so the send gets its own deadline.
func (s *BillService) publish(name string, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		s.log.Warn("event publish failed", "event", name, "error", err)
	}
}

var billNumberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newBillNumber returns BILL-<unix millis>-<13 base32 chars>. The suffix
// carries 64 bits from crypto/rand; the number is the only credential a
// customer needs to pay, so it must not be guessable.
func newBillNumber(now time.Time) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("BILL-%d-%s", now.UnixMilli(), billNumberEncoding.EncodeToString(b)), nil
}
