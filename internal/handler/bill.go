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

// BillHandler serves the bill lifecycle to staff and bill lookups to
// customers.
type BillHandler struct {
	Bills *service.BillService
	Log   *slog.Logger
}

func NewBillHandler(bills *service.BillService, log *slog.Logger) *BillHandler {
	if bills == nil {
		panic("nil bill service passed to NewBillHandler")
	}
	return &BillHandler{Bills: bills, Log: log}
}

type addItemsReq struct {
	Items []model.NewItem `json:"items"`
}

// Create opens a bill for a table. Staff only.
func (h *BillHandler) Create(c echo.Context) error {
	var req service.CreateBillInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	d, err := h.Bills.CreateBill(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusCreated, "bill created", viewDetail(d))
}

// List returns bills newest first, optionally filtered with ?status=.
func (h *BillHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	rows, err := h.Bills.ListBills(ctx, c.QueryParam("status"))
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	out := make([]billSummaryView, len(rows))
	for i, r := range rows {
		out[i] = billSummaryView{billView: viewBill(r.Bill), TotalItems: r.TotalItems, TotalPayments: r.TotalPayments}
	}
	return respond(c, http.StatusOK, "", out)
}

// Get returns a bill by internal id. Every item is listed unless
// ?items=unpaid is given.
func (h *BillHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	scope, err := parseScope(c, model.AllItems)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	d, err := h.Bills.GetBill(ctx, id, scope)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	return respond(c, http.StatusOK, "", viewDetail(d))
}

// GetByNumber is the lookup behind the QR code. It lists unpaid items by
// default because that is what a paying customer chooses from.
func (h *BillHandler) GetByNumber(c echo.Context) error {
	scope, err := parseScope(c, model.UnpaidItems)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	d, err := h.Bills.GetBillByNumber(ctx, c.Param("billNumber"), scope)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	return respond(c, http.StatusOK, "", viewDetail(d))
}

// GetByTable returns the open bill of a table.
func (h *BillHandler) GetByTable(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("tableNumber"))
	if err != nil {
		return writeError(c, h.Log, repository.ValidationError("invalid table number"), public)
	}
	scope, err := parseScope(c, model.AllItems)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	d, err := h.Bills.GetOpenBillByTable(ctx, number, scope)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	return respond(c, http.StatusOK, "", viewDetail(d))
}

// AddItems appends order lines to an open bill.
func (h *BillHandler) AddItems(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	var req addItemsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	d, err := h.Bills.AddItems(ctx, id, req.Items)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "items added", viewDetail(d))
}

// Finish closes a fully paid bill and frees its table. It also serves the
// close route.
func (h *BillHandler) Finish(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Bills.FinishBill(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "bill closed", viewBill(*b))
}

// Delete removes a bill with its items and payments.
func (h *BillHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Bills.DeleteBill(ctx, id); err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "bill deleted", nil)
}

// Tables lists restaurant tables with their occupancy.
func (h *BillHandler) Tables(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	tables, err := h.Bills.ListTables(ctx)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	if tables == nil {
		tables = []model.Table{}
	}
	return respond(c, http.StatusOK, "", tables)
}
