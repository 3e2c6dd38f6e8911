package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/split-bill/internal/metrics"
	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
	"github.com/iliyamo/split-bill/internal/pricing"
	"github.com/iliyamo/split-bill/internal/queue"
	"github.com/iliyamo/split-bill/internal/repository"
)

const maxMethodLen = 32

// SettleInput is one customer's request to pay for a set of items.
type SettleInput struct {
	BillID        uint64   `json:"billId"`
	ItemIDs       []uint64 `json:"itemIds"`
	CustomerName  string   `json:"customerName"`
	PaymentMethod string   `json:"paymentMethod"`
}

// SettleResult reports what was actually charged. ItemsPaid and Amount
// may be smaller than requested when another guest paid some of the
// items first; RemainingItems lists what is still unpaid on the bill.
type SettleResult struct {
	Payment        model.Payment    `json:"payment"`
	ItemsPaid      int              `json:"itemsPaid"`
	PaidItemIDs    []uint64         `json:"paidItemIds"`
	Amount         money.Money      `json:"totalAmount"`
	Bill           model.Bill       `json:"bill"`
	RemainingItems []model.BillItem `json:"remainingItems"`
}

var errOverpaid = errors.New("paid amount would exceed bill total")

// Settle pays for the requested items that are still unpaid on the bill.
// Requested ids that are unknown, belong to another bill or are already
// paid are skipped; if none remain ErrNoSettlableItems is returned and
// nothing is written.
//
// Payment row, item flags and bill amounts commit together. The bill row
// lock serializes concurrent settles on one bill, and the item update is
// conditional on is_paid = 0, so an item can never be paid twice.
func (s *BillService) Settle(ctx context.Context, in SettleInput) (*SettleResult, error) {
	if in.BillID == 0 {
		return nil, repository.ValidationError("bill id is required")
	}
	ids := uniqueIDs(in.ItemIDs)
	if len(ids) == 0 {
		return nil, repository.ValidationError("item ids are required")
	}
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = model.DefaultPaymentMethod
	}
	if len(method) > maxMethodLen {
		return nil, repository.ValidationError("payment method is too long")
	}
	var payer *string
	if name := strings.TrimSpace(in.CustomerName); name != "" {
		payer = &name
	}

	start := time.Now()
	now := s.now()
	var res SettleResult
	err := s.inTx(ctx, "settle", func(tx *sql.Tx) error {
		if err := s.bills.LockTx(ctx, tx, in.BillID, now); err != nil {
			return err
		}
		bill, err := s.bills.GetByIDTx(ctx, tx, in.BillID)
		if err != nil {
			return err
		}
		if bill.Status == model.BillClosed {
			return repository.ErrBillClosed
		}

		selected, err := s.items.ListUnpaidByIDsTx(ctx, tx, in.BillID, ids)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return repository.ErrNoSettlableItems
		}
		amount := pricing.SumSettled(selected)

		payment := model.Payment{
			BillID:        in.BillID,
			CustomerName:  payer,
			Amount:        amount,
			Method:        method,
			Status:        model.PaymentCompleted,
			TransactionID: "TXN-" + uuid.NewString(),
			CreatedAt:     now,
		}
		if err := s.payments.CreateTx(ctx, tx, &payment); err != nil {
			return err
		}

		paidIDs := make([]uint64, len(selected))
		for i, it := range selected {
			paidIDs[i] = it.ID
		}
		n, err := s.items.MarkPaidTx(ctx, tx, in.BillID, paidIDs, payer, payment.ID)
		if err != nil {
			return err
		}
		if n != int64(len(selected)) {
			return repository.TxError("mark items paid",
				fmt.Errorf("expected %d rows, updated %d", len(selected), n))
		}

		paid := bill.PaidAmount.Add(amount)
		if paid.Cmp(bill.TotalAmount) > 0 {
			return repository.TxError("update bill", fmt.Errorf("%w: paid %s, total %s", errOverpaid, paid, bill.TotalAmount))
		}
		status := bill.Status
		if paid.Cmp(bill.TotalAmount) >= 0 {
			status = model.BillPaid
		}
		if err := s.bills.UpdateTotalsTx(ctx, tx, in.BillID, bill.TotalAmount, paid, status, now); err != nil {
			return err
		}

		remaining, err := s.items.ListByBillTx(ctx, tx, in.BillID, model.UnpaidItems)
		if err != nil {
			return err
		}
		refreshed, err := s.bills.GetByIDTx(ctx, tx, in.BillID)
		if err != nil {
			return err
		}
		res = SettleResult{
			Payment:        payment,
			ItemsPaid:      len(selected),
			PaidItemIDs:    paidIDs,
			Amount:         amount,
			Bill:           *refreshed,
			RemainingItems: remaining,
		}
		return nil
	})
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			result = metrics.ResultConflict
		}
		s.metrics.ObserveSettle(result, 0, time.Since(start))
		s.log.Warn("settle failed", "bill_id", in.BillID, "items", len(ids), "error", err)
		return nil, err
	}

	s.metrics.ObserveSettle(metrics.ResultOK, res.ItemsPaid, time.Since(start))
	s.log.Info("payment completed",
		"bill", res.Bill.BillNumber, "txn", res.Payment.TransactionID,
		"items", res.ItemsPaid, "amount", res.Amount.String(), "status", res.Bill.Status)

	s.publish("payment.completed", func(ctx context.Context) error {
		ev := queue.PaymentCompletedEvent{
			PaymentID:     res.Payment.ID,
			TransactionID: res.Payment.TransactionID,
			BillID:        res.Bill.ID,
			BillNumber:    res.Bill.BillNumber,
			TableNumber:   res.Bill.TableNumber,
			Method:        res.Payment.Method,
			Amount:        res.Amount,
			ItemIDs:       res.PaidItemIDs,
			BillStatus:    res.Bill.Status,
			PaidAt:        now.Format(time.RFC3339),
		}
		if payer != nil {
			ev.CustomerName = *payer
		}
		return s.events.PublishPaymentCompleted(ctx, ev)
	})
	return &res, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
