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

// MenuHandler serves the catalog publicly and lets admins edit it.
type MenuHandler struct {
	Menu *service.MenuService
	Log  *slog.Logger
}

func NewMenuHandler(menu *service.MenuService, log *slog.Logger) *MenuHandler {
	if menu == nil {
		panic("nil menu service passed to NewMenuHandler")
	}
	return &MenuHandler{Menu: menu, Log: log}
}

// List supports ?category= and ?available=true|false.
func (h *MenuHandler) List(c echo.Context) error {
	var available *bool
	if raw := c.QueryParam("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, h.Log, repository.ValidationError("available must be true or false"), public)
		}
		available = &v
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Menu.List(ctx, c.QueryParam("category"), available)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	if items == nil {
		items = []model.MenuItem{}
	}
	return respond(c, http.StatusOK, "", items)
}

func (h *MenuHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := h.Menu.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	return respond(c, http.StatusOK, "", item)
}

func (h *MenuHandler) Categories(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	cats, err := h.Menu.Categories(ctx)
	if err != nil {
		return writeError(c, h.Log, err, public)
	}
	if cats == nil {
		cats = []string{}
	}
	return respond(c, http.StatusOK, "", cats)
}

func (h *MenuHandler) Create(c echo.Context) error {
	var req service.CreateMenuItemInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := h.Menu.Create(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusCreated, "menu item created", item)
}

// Update applies a JSON merge-patch: absent fields are kept and null
// clears description or imageUrl.
func (h *MenuHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	var patch model.MenuItemPatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := h.Menu.Update(ctx, id, patch)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "menu item updated", item)
}

func (h *MenuHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Menu.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "menu item deleted", nil)
}
