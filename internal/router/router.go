// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/split-bill/internal/config"
	"github.com/iliyamo/split-bill/internal/handler"
	"github.com/iliyamo/split-bill/internal/metrics"
	"github.com/iliyamo/split-bill/internal/middleware"
	"github.com/iliyamo/split-bill/internal/model"
)

// Deps are everything the HTTP surface needs. Redis may be nil.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	Auth     *handler.AuthHandler
	Bills    *handler.BillHandler
	Payments *handler.PaymentHandler
	Menu     *handler.MenuHandler
}

// New builds the Echo server with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.CORS(d.Cfg.CORSOrigins))

	RegisterRoutes(e, d.DB, d.Metrics)
	RegisterAuth(e, d.Auth, d.Cfg.JWTSecret)
	RegisterMenu(e, d.Menu, d.Cfg.JWTSecret,
		middleware.NewRedisCache(d.Cache, d.Redis, d.Logger),
		middleware.PurgeCacheOnWrite(d.Cache, d.Redis, d.Logger))
	RegisterBills(e, d.Bills, d.Cfg.JWTSecret)
	RegisterPayments(e, d.Payments, d.Cfg.JWTSecret,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger))
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

func staffOnly(secret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(secret),
		middleware.RequireRole(model.RoleAdmin, model.RoleWaiter),
	}
}

// RegisterAuth registers the account endpoints. Register, login, refresh
// and logout are public; /me needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, staffOnly(jwtSecret)...)
}

// RegisterMenu exposes the catalog publicly through the response cache
// and lets admins edit it. Edits purge the cache.
func RegisterMenu(e *echo.Echo, h *handler.MenuHandler, jwtSecret string, cache, purge echo.MiddlewareFunc) {
	pub := e.Group("/api/menu", cache)
	pub.GET("", h.List)
	pub.GET("/categories", h.Categories)
	pub.GET("/:id", h.Get)

	admin := e.Group("/api/menu",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		purge,
	)
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Update)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

// RegisterBills registers the bill lifecycle. Lookups by id, bill number
// and table are public so the customer page can load a bill.
func RegisterBills(e *echo.Echo, h *handler.BillHandler, jwtSecret string) {
	e.GET("/api/bills/:id", h.Get)
	e.GET("/api/bills/number/:billNumber", h.GetByNumber)
	e.GET("/api/bills/table/:tableNumber", h.GetByTable)

	g := e.Group("/api", staffOnly(jwtSecret)...)
	g.GET("/bills", h.List)
	g.POST("/bills", h.Create)
	g.POST("/bills/:id/items", h.AddItems)
	g.PUT("/bills/:id/finish", h.Finish)
	g.PUT("/bills/:id/close", h.Finish)
	g.DELETE("/bills/:id", h.Delete)
	g.GET("/tables", h.Tables)
}

// RegisterPayments registers settlement (public, rate limited) and the
// staff payment history.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.POST("/api/payments", h.Settle, limiter)
	e.GET("/api/payments", h.List, staffOnly(jwtSecret)...)
}
