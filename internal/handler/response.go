package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/pricing"
	"github.com/iliyamo/split-bill/internal/repository"
)

const requestTimeout = 5 * time.Second

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// audience decides how much of an error a caller may see.
type audience int

const (
	staff audience = iota
	public
)

// writeError maps an error category to a status code. Public callers
// never see storage detail.
func writeError(c echo.Context, log *slog.Logger, err error, who audience) error {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrConflict):
		if who == public && errors.Is(err, repository.ErrNoSettlableItems) {
			return fail(c, http.StatusConflict, "item already paid, please refresh")
		}
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrUpstream):
		log.Error("upstream failure", "path", c.Path(), "error", err)
		if who == public {
			return fail(c, http.StatusBadGateway, "a dependent service is unavailable, please try again")
		}
		return fail(c, http.StatusBadGateway, err.Error())
	}
	log.Error("request failed", "path", c.Path(), "error", err)
	if who == public {
		return fail(c, http.StatusInternalServerError, "something went wrong, please try again")
	}
	return fail(c, http.StatusInternalServerError, err.Error())
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.ValidationError("invalid %s", name)
	}
	return id, nil
}

func parseScope(c echo.Context, def model.ItemScope) (model.ItemScope, error) {
	switch strings.ToLower(c.QueryParam("items")) {
	case "":
		return def, nil
	case "all":
		return model.AllItems, nil
	case "unpaid":
		return model.UnpaidItems, nil
	}
	return def, repository.ValidationError("items must be all or unpaid")
}

// billView adds display strings to a bill.
type billView struct {
	model.Bill
	TotalDisplay       string `json:"total_display"`
	PaidDisplay        string `json:"paid_display"`
	OutstandingDisplay string `json:"outstanding_display"`
}

func viewBill(b model.Bill) billView {
	return billView{
		Bill:               b,
		TotalDisplay:       b.TotalAmount.Format(),
		PaidDisplay:        b.PaidAmount.Format(),
		OutstandingDisplay: pricing.Outstanding(b).Format(),
	}
}

type billDetailView struct {
	billView
	Items    []model.BillItem `json:"items"`
	Payments []model.Payment  `json:"payments"`
}

func viewDetail(d *model.BillDetail) billDetailView {
	items, payments := d.Items, d.Payments
	if items == nil {
		items = []model.BillItem{}
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return billDetailView{billView: viewBill(d.Bill), Items: items, Payments: payments}
}

type billSummaryView struct {
	billView
	TotalItems    int `json:"total_items"`
	TotalPayments int `json:"total_payments"`
}
