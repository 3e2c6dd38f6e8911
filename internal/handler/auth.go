package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/split-bill/internal/config"
	"github.com/iliyamo/split-bill/internal/middleware"
	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/repository"
	"github.com/iliyamo/split-bill/internal/utils"
)

// AuthHandler bundles dependencies for staff authentication endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    *slog.Logger
	Clock  func() time.Time
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log, Clock: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

const minPasswordLen = 8

// Register creates a staff account and signs it in. The first account
// becomes the admin; every later one is a waiter.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fail(c, http.StatusBadRequest, "a valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return fail(c, http.StatusBadRequest, "password must be at least 8 characters")
	}
	if len(req.Password) > 72 {
		return fail(c, http.StatusBadRequest, "password must be at most 72 bytes")
	}
	if req.Name == "" {
		req.Name = req.Email[:strings.Index(req.Email, "@")]
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Users.Count(ctx)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	role := model.RoleWaiter
	if n == 0 {
		role = model.RoleAdmin
	}
	uid, err := h.Users.Create(ctx, req.Email, req.Name, req.Password, role, h.Cfg.BcryptCost, h.Clock().UTC())
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	h.Log.Info("staff registered", "user_id", uid, "role", role)

	resp, err := h.issue(c, u)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusCreated, "registered", resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account is disabled")
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "logged in", resp)
}

// Refresh exchanges a refresh token for a new pair. The old refresh
// token is revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestCtx(c)
	defer cancel()

	now := h.Clock().UTC()
	userID, err := h.Tokens.ValidateRefresh(ctx, hash, now)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && !u.IsActive) {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash, now); err != nil {
		return writeError(c, h.Log, err, staff)
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "token refreshed", resp)
}

// Logout revokes the refresh token in the body. Without one, a valid
// bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c)
	defer cancel()
	now := h.Clock().UTC()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash, now); err != nil {
			return fail(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash, now); err != nil {
			return writeError(c, h.Log, err, staff)
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok {
		return fail(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(bearer))
	if err != nil || claims.UserID == 0 {
		return fail(c, http.StatusUnauthorized, "invalid token")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID, now); err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated staff account.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err, staff)
	}
	return respond(c, http.StatusOK, "", u)
}

func (h *AuthHandler) issue(c echo.Context, u *model.User) (authResp, error) {
	now := h.Clock().UTC()
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}, h.Cfg.AccessTTLMin, now)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays, now)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp, now); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    *u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
