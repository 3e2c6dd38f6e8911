package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/split-bill/internal/config"
	"github.com/iliyamo/split-bill/internal/database"
	"github.com/iliyamo/split-bill/internal/handler"
	"github.com/iliyamo/split-bill/internal/metrics"
	"github.com/iliyamo/split-bill/internal/queue"
	"github.com/iliyamo/split-bill/internal/repository"
	"github.com/iliyamo/split-bill/internal/service"
	"github.com/iliyamo/split-bill/pkg/logging"
)

type fakeQR struct{}

func (fakeQR) DataURL(content string) (string, error) { return "data:image/png;base64,QR", nil }

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Config{
		JWTSecret:      "router-test",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		FrontendURL:    "http://localhost:3000",
		CORSOrigins:    []string{"http://localhost:3000"},
	}
	log := logging.Discard()
	m := metrics.New()
	bills := service.NewBillService(service.Deps{
		DB: db, Dialect: database.SQLite, QR: fakeQR{}, Events: queue.NopPublisher{},
		Metrics: m, Logger: log, FrontendURL: cfg.FrontendURL,
	})
	return New(Deps{
		Cfg:      cfg,
		DB:       db,
		Metrics:  m,
		Logger:   log,
		Auth:     handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), log),
		Bills:    handler.NewBillHandler(bills, log),
		Payments: handler.NewPaymentHandler(bills, log),
		Menu:     handler.NewMenuHandler(service.NewMenuService(repository.NewMenuRepo(db), nil), log),
	})
}

type reply struct {
	Code    int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, e *echo.Echo, method, path, token string, body any) reply {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	r := reply{Code: rec.Code}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return r
}

func (r reply) into(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

type session struct {
	User struct {
		ID   uint64 `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	Access  struct{ Token string } `json:"access"`
	Refresh struct{ Token string } `json:"refresh"`
}

func register(t *testing.T, e *echo.Echo, email string) session {
	t.Helper()
	r := call(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct horse", "name": "Staff",
	})
	if r.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, r.Code, r.Message)
	}
	var s session
	r.into(t, &s)
	return s
}

type billJSON struct {
	ID                 uint64 `json:"id"`
	BillNumber         string `json:"bill_number"`
	Status             string `json:"status"`
	TotalAmount        string `json:"total_amount"`
	PaidAmount         string `json:"paid_amount"`
	TotalDisplay       string `json:"total_display"`
	OutstandingDisplay string `json:"outstanding_display"`
	QRCode             string `json:"qr_code"`
	Items              []struct {
		ID     uint64 `json:"id"`
		Name   string `json:"item_name"`
		IsPaid bool   `json:"is_paid"`
	} `json:"items"`
}

func TestAuthFlow(t *testing.T) {
	e := newServer(t)
	admin := register(t, e, "owner@example.com")
	waiter := register(t, e, "Waiter@Example.com")
	if admin.User.Role != "admin" || waiter.User.Role != "waiter" {
		t.Fatalf("roles = %s, %s", admin.User.Role, waiter.User.Role)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "owner@example.com", "password": "another pass"}); r.Code != http.StatusConflict {
		t.Errorf("duplicate register: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "x@example.com", "password": "short"}); r.Code != http.StatusBadRequest {
		t.Errorf("short password: %d", r.Code)
	}

	if r := call(t, e, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "waiter@example.com", "password": "wrong password"}); r.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d", r.Code)
	}
	login := call(t, e, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "WAITER@example.com", "password": "correct horse"})
	if login.Code != http.StatusOK {
		t.Fatalf("login: %d %s", login.Code, login.Message)
	}
	var s session
	login.into(t, &s)

	me := call(t, e, http.MethodGet, "/api/auth/me", s.Access.Token, nil)
	var user struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
	}
	me.into(t, &user)
	if me.Code != http.StatusOK || user.Email != "waiter@example.com" || user.ID != waiter.User.ID {
		t.Errorf("me = %d %+v", me.Code, user)
	}
	if r := call(t, e, http.MethodGet, "/api/auth/me", "", nil); r.Code != http.StatusUnauthorized {
		t.Errorf("me without token: %d", r.Code)
	}

	refreshed := call(t, e, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.Refresh.Token})
	if refreshed.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", refreshed.Code, refreshed.Message)
	}
	var next session
	refreshed.into(t, &next)
	if r := call(t, e, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.Refresh.Token}); r.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh token: %d", r.Code)
	}

	if r := call(t, e, http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh_token": next.Refresh.Token}); r.Code != http.StatusNoContent {
		t.Errorf("logout: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": next.Refresh.Token}); r.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/logout", "", nil); r.Code != http.StatusBadRequest {
		t.Errorf("empty logout: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/logout", admin.Access.Token, nil); r.Code != http.StatusNoContent {
		t.Errorf("logout everywhere: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": admin.Refresh.Token}); r.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout everywhere: %d", r.Code)
	}
}

func TestMenuPermissionsAndPatch(t *testing.T) {
	e := newServer(t)
	admin := register(t, e, "admin@example.com")
	waiter := register(t, e, "waiter@example.com")

	item := map[string]any{"name": "Soup", "category": "starters", "price": "€4,50", "description": "hot"}
	if r := call(t, e, http.MethodPost, "/api/menu", "", item); r.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d", r.Code)
	}
	if r := call(t, e, http.MethodPost, "/api/menu", waiter.Access.Token, item); r.Code != http.StatusForbidden {
		t.Errorf("waiter create: %d", r.Code)
	}
	created := call(t, e, http.MethodPost, "/api/menu", admin.Access.Token, item)
	if created.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", created.Code, created.Message)
	}
	var soup struct {
		ID          uint64  `json:"id"`
		Price       string  `json:"price"`
		Description *string `json:"description"`
		Name        string  `json:"name"`
	}
	created.into(t, &soup)
	if soup.Price != "4.50" {
		t.Errorf("price = %s", soup.Price)
	}

	path := fmt.Sprintf("/api/menu/%d", soup.ID)
	if r := call(t, e, http.MethodPatch, path, admin.Access.Token, `{"name":null}`); r.Code != http.StatusBadRequest {
		t.Errorf("null name: %d", r.Code)
	}
	patched := call(t, e, http.MethodPatch, path, admin.Access.Token, `{"description":null,"price":"5"}`)
	if patched.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", patched.Code, patched.Message)
	}
	patched.into(t, &soup)
	if soup.Description != nil || soup.Price != "5.00" || soup.Name != "Soup" {
		t.Errorf("patched = %+v", soup)
	}

	list := call(t, e, http.MethodGet, "/api/menu?category=starters", "", nil)
	var items []json.RawMessage
	list.into(t, &items)
	if list.Code != http.StatusOK || len(items) != 1 {
		t.Errorf("list = %d %d", list.Code, len(items))
	}
	cats := call(t, e, http.MethodGet, "/api/menu/categories", "", nil)
	var names []string
	cats.into(t, &names)
	if len(names) != 1 || names[0] != "starters" {
		t.Errorf("categories = %v", names)
	}
	if r := call(t, e, http.MethodGet, "/api/menu?available=maybe", "", nil); r.Code != http.StatusBadRequest {
		t.Errorf("bad filter: %d", r.Code)
	}
	if r := call(t, e, http.MethodDelete, path, admin.Access.Token, nil); r.Code != http.StatusOK {
		t.Errorf("delete: %d", r.Code)
	}
	if r := call(t, e, http.MethodGet, path, "", nil); r.Code != http.StatusNotFound {
		t.Errorf("get deleted: %d", r.Code)
	}
}

func TestSplitBillOverHTTP(t *testing.T) {
	e := newServer(t)
	register(t, e, "admin@example.com")
	waiter := register(t, e, "waiter@example.com").Access.Token

	newBill := map[string]any{
		"tableNumber": 4, "numberOfGuests": 2, "waiterName": "Sam",
		"items": []map[string]any{
			{"name": "Pasta", "quantity": 2, "price": "5.00"},
			{"name": "Wine", "quantity": 1, "price": 7.5},
		},
	}
	if r := call(t, e, http.MethodPost, "/api/bills", "", newBill); r.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d", r.Code)
	}
	created := call(t, e, http.MethodPost, "/api/bills", waiter, newBill)
	if created.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", created.Code, created.Message)
	}
	var bill billJSON
	created.into(t, &bill)
	if bill.TotalDisplay != "€17.50" || bill.Status != "active" || bill.QRCode == "" || len(bill.Items) != 2 {
		t.Fatalf("bill = %+v", bill)
	}
	if r := call(t, e, http.MethodPost, "/api/bills", waiter, newBill); r.Code != http.StatusConflict {
		t.Errorf("second bill on table: %d", r.Code)
	}

	// the customer page loads the bill from the QR code
	byNumber := call(t, e, http.MethodGet, "/api/bills/number/"+bill.BillNumber, "", nil)
	var customerView billJSON
	byNumber.into(t, &customerView)
	if byNumber.Code != http.StatusOK || len(customerView.Items) != 2 {
		t.Fatalf("by number = %d %+v", byNumber.Code, customerView)
	}
	pasta, wine := bill.Items[0].ID, bill.Items[1].ID

	alice := call(t, e, http.MethodPost, "/api/payments", "", map[string]any{
		"billId": bill.ID, "itemIds": []uint64{pasta}, "customerName": "Alice",
	})
	if alice.Code != http.StatusCreated {
		t.Fatalf("alice: %d %s", alice.Code, alice.Message)
	}
	var paid struct {
		ItemsPaid     int    `json:"itemsPaid"`
		TotalAmount   string `json:"totalAmount"`
		AmountDisplay string `json:"amount_display"`
		Bill          billJSON
	}
	alice.into(t, &paid)
	if paid.ItemsPaid != 1 || paid.TotalAmount != "10.00" || paid.AmountDisplay != "€10.00" || paid.Bill.OutstandingDisplay != "€7.50" {
		t.Errorf("alice paid = %+v", paid)
	}

	again := call(t, e, http.MethodPost, "/api/payments", "", map[string]any{"billId": bill.ID, "itemIds": []uint64{pasta}})
	if again.Code != http.StatusConflict || again.Message != "item already paid, please refresh" {
		t.Errorf("double pay = %d %q", again.Code, again.Message)
	}
	if r := call(t, e, http.MethodPost, "/api/payments", "", map[string]any{"billId": bill.ID}); r.Code != http.StatusBadRequest {
		t.Errorf("no items: %d", r.Code)
	}

	finishPath := fmt.Sprintf("/api/bills/%d/finish", bill.ID)
	if r := call(t, e, http.MethodPut, finishPath, waiter, nil); r.Code != http.StatusConflict {
		t.Errorf("finish with unpaid items: %d", r.Code)
	}

	unpaid := call(t, e, http.MethodGet, "/api/bills/number/"+bill.BillNumber, "", nil)
	unpaid.into(t, &customerView)
	if len(customerView.Items) != 1 || customerView.Items[0].ID != wine {
		t.Errorf("unpaid items = %+v", customerView.Items)
	}

	bob := call(t, e, http.MethodPost, "/api/payments", "", map[string]any{
		"billId": bill.ID, "itemIds": []uint64{wine}, "customerName": "Bob", "paymentMethod": "cash",
	})
	bob.into(t, &paid)
	if bob.Code != http.StatusCreated || paid.Bill.Status != "paid" || paid.Bill.PaidAmount != "17.50" {
		t.Errorf("bob = %d %+v", bob.Code, paid)
	}

	history := call(t, e, http.MethodGet, fmt.Sprintf("/api/payments?bill_id=%d", bill.ID), waiter, nil)
	var payments []struct {
		Method string `json:"payment_method"`
	}
	history.into(t, &payments)
	if len(payments) != 2 || payments[0].Method != "cash" {
		t.Errorf("history = %+v", payments)
	}
	if r := call(t, e, http.MethodGet, "/api/payments", "", nil); r.Code != http.StatusUnauthorized {
		t.Errorf("anonymous history: %d", r.Code)
	}

	closePath := fmt.Sprintf("/api/bills/%d/close", bill.ID)
	closed := call(t, e, http.MethodPut, closePath, waiter, nil)
	var done billJSON
	closed.into(t, &done)
	if closed.Code != http.StatusOK || done.Status != "closed" || done.PaidAmount != done.TotalAmount {
		t.Errorf("close = %d %+v", closed.Code, done)
	}
	if r := call(t, e, http.MethodPut, finishPath, waiter, nil); r.Code != http.StatusConflict {
		t.Errorf("finish twice: %d", r.Code)
	}
	if r := call(t, e, http.MethodGet, "/api/bills/table/4", "", nil); r.Code != http.StatusNotFound {
		t.Errorf("open bill after close: %d", r.Code)
	}

	list := call(t, e, http.MethodGet, "/api/bills?status=closed", waiter, nil)
	var rows []struct {
		TotalItems    int `json:"total_items"`
		TotalPayments int `json:"total_payments"`
	}
	list.into(t, &rows)
	if len(rows) != 1 || rows[0].TotalItems != 2 || rows[0].TotalPayments != 2 {
		t.Errorf("closed bills = %+v", rows)
	}

	reopened := call(t, e, http.MethodPost, "/api/bills", waiter, map[string]any{"tableNumber": 4})
	if reopened.Code != http.StatusCreated {
		t.Errorf("table not freed: %d %s", reopened.Code, reopened.Message)
	}
}

func TestAddItemsAndDeleteOverHTTP(t *testing.T) {
	e := newServer(t)
	waiter := register(t, e, "first@example.com").Access.Token

	created := call(t, e, http.MethodPost, "/api/bills", waiter, map[string]any{"tableNumber": 2})
	var bill billJSON
	created.into(t, &bill)

	itemsPath := fmt.Sprintf("/api/bills/%d/items", bill.ID)
	added := call(t, e, http.MethodPost, itemsPath, waiter, map[string]any{
		"items": []map[string]any{{"name": "Tea", "quantity": 3, "price": "2,20"}},
	})
	added.into(t, &bill)
	if added.Code != http.StatusOK || bill.TotalAmount != "6.60" {
		t.Errorf("add items = %d %+v", added.Code, bill)
	}
	if r := call(t, e, http.MethodPost, itemsPath, waiter, map[string]any{"items": []map[string]any{{"name": "X", "quantity": 0, "price": 1}}}); r.Code != http.StatusBadRequest {
		t.Errorf("zero quantity: %d", r.Code)
	}

	byTable := call(t, e, http.MethodGet, "/api/bills/table/2?items=unpaid", "", nil)
	if byTable.Code != http.StatusOK {
		t.Errorf("by table: %d", byTable.Code)
	}
	if r := call(t, e, http.MethodGet, "/api/bills/table/two", "", nil); r.Code != http.StatusBadRequest {
		t.Errorf("bad table number: %d", r.Code)
	}

	billPath := fmt.Sprintf("/api/bills/%d", bill.ID)
	if r := call(t, e, http.MethodDelete, billPath, waiter, nil); r.Code != http.StatusOK {
		t.Errorf("delete: %d", r.Code)
	}
	if r := call(t, e, http.MethodGet, billPath, "", nil); r.Code != http.StatusNotFound {
		t.Errorf("get deleted: %d", r.Code)
	}
	if r := call(t, e, http.MethodGet, "/api/bills/abc", "", nil); r.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d", r.Code)
	}

	tables := call(t, e, http.MethodGet, "/api/tables", waiter, nil)
	var rows []struct {
		Status string `json:"status"`
	}
	tables.into(t, &rows)
	if len(rows) != 1 || rows[0].Status != "available" {
		t.Errorf("tables = %+v", rows)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	e := newServer(t)
	if r := call(t, e, http.MethodGet, "/healthz", "", nil); r.Code != http.StatusOK || !r.Success {
		t.Errorf("healthz = %+v", r)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "splitbill_bills_created_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
