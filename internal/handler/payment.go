package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/repository"
	"github.com/iliyamo/split-bill/internal/service"
)

// PaymentHandler lets customers pay for items and staff review payments.
type PaymentHandler struct {
	Bills *service.BillService
	Log   *slog.Logger
}

func NewPaymentHandler(bills *service.BillService, log *slog.Logger) *PaymentHandler {
	if bills == nil {
		panic("nil bill service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Bills: bills, Log: log}
}

type settleResp struct {
	Payment        model.Payment    `json:"payment"`
	ItemsPaid      int              `json:"itemsPaid"`
	TotalAmount    string           `json:"totalAmount"`
	AmountDisplay  string           `json:"amount_display"`
	Bill           billView         `json:"bill"`
	RemainingItems []model.BillItem `json:"remainingItems"`
}

// Settle pays for a subset of a bill's items. Public; called from the
// customer page the QR code opens.
func (h *PaymentHandler) Settle(c echo.Context) error {
	var req service.SettleInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Bills.Settle(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	remaining := res.RemainingItems
	if remaining == nil {
		remaining = []model.BillItem{}
	}
	return respond(c, http.StatusCreated, "payment completed", settleResp{
		Payment:        res.Payment,
		ItemsPaid:      res.ItemsPaid,
		TotalAmount:    res.Amount.String(),
		AmountDisplay:  res.Amount.Format(),
		Bill:           viewBill(res.Bill),
		RemainingItems: remaining,
	})
}

// List returns payment history, newest first. ?bill_id= narrows it to
// one bill.
func (h *PaymentHandler) List(c echo.Context) error {
	var billID uint64
	if raw := c.QueryParam("bill_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return writeError(c, h.Log, repository.ValidationError("invalid bill_id"), staff)
		}
		billID = id
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	payments, err := h.Bills.ListPayments(ctx, billID)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return respond(c, http.StatusOK, "", payments)
}
