package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/middleware"
	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/repository"
	"github.com/glowscan/skincare-admin/internal/utils"
)

// AdminStore is the admin lookup used by AuthHandler.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	GetByID(ctx context.Context, id uint64) (model.Admin, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, adminID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// AuthSettings are the token parameters taken from config.
type AuthSettings struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
}

// AuthHandler bundles dependencies for the admin auth endpoints.
type AuthHandler struct {
	settings  AuthSettings
	admins    AdminStore
	tokens    TokenStore
	dummyHash string
	logger    *zap.Logger
}

// NewAuthHandler needs dummyHash (see utils.NewDummyHash) hashed at the same
// cost as stored passwords.
func NewAuthHandler(settings AuthSettings, admins AdminStore, tokens TokenStore, dummyHash string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{settings: settings, admins: admins, tokens: tokens, dummyHash: dummyHash, logger: logger.Named("auth")}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"` // accepted when username is absent
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
	Status  string    `json:"status"`
	User    string    `json:"user"`
	AdminID uint64    `json:"admin_id"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Login verifies the credentials and returns a new token pair. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	email := req.Username
	if strings.TrimSpace(email) == "" {
		email = req.Email
	}
	email = repository.NormalizeEmail(email)
	if email == "" || req.Password == "" {
		_ = utils.VerifyPassword(h.dummyHash, req.Password)
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	admin, err := h.admins.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrAdminNotFound) {
		_ = utils.VerifyPassword(h.dummyHash, req.Password)
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		logError(c, h.logger, "login lookup failed", err)
		return fail(c, http.StatusInternalServerError, "Login failed")
	}
	if !utils.VerifyPassword(admin.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	resp, err := h.issue(ctx, admin)
	if err != nil {
		logError(c, h.logger, "issue tokens failed", err)
		return fail(c, http.StatusInternalServerError, "Login failed")
	}
	h.logger.Info("admin logged in", zap.Uint64("admin_id", admin.ID))
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates the refresh token by hash, revokes it and issues a new
// pair. A token can be rotated only once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbContext(c)
	defer cancel()

	adminID, err := h.tokens.ValidateRefresh(ctx, hash)
	if err == nil {
		err = h.tokens.RevokeByHash(ctx, hash)
	}
	if errors.Is(err, repository.ErrInvalidRefresh) {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		logError(c, h.logger, "refresh validation failed", err)
		return fail(c, http.StatusInternalServerError, "Refresh failed")
	}

	admin, err := h.admins.GetByID(ctx, adminID)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		logError(c, h.logger, "refresh admin lookup failed", err)
		return fail(c, http.StatusInternalServerError, "Refresh failed")
	}

	resp, err := h.issue(ctx, admin)
	if err != nil {
		logError(c, h.logger, "issue tokens failed", err)
		return fail(c, http.StatusInternalServerError, "Refresh failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes one refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	err := h.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)))
	if errors.Is(err, repository.ErrInvalidRefresh) {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		logError(c, h.logger, "logout failed", err)
		return fail(c, http.StatusInternalServerError, "Logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the admin behind the bearer token.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.AdminID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	admin, err := h.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		logError(c, h.logger, "me lookup failed", err)
		return fail(c, http.StatusInternalServerError, "Lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "admin_id": admin.ID, "user": admin.Name})
}

func (h *AuthHandler) issue(ctx context.Context, admin model.Admin) (authResp, error) {
	access, err := utils.NewAccessToken(h.settings.JWTSecret, admin.ID, admin.Name, h.settings.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.settings.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.tokens.StoreRefresh(ctx, admin.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		Status:  "success",
		User:    admin.Name,
		AdminID: admin.ID,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}
