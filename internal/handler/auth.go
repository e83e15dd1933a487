package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/config"
	"github.com/iliyamo/videohub-auth/internal/middleware"
	"github.com/iliyamo/videohub-auth/internal/model"
	"github.com/iliyamo/videohub-auth/internal/service"
	"github.com/iliyamo/videohub-auth/internal/utils"
)

// RefreshCookie carries the refresh token for browser clients.
const RefreshCookie = "refreshToken"

// requestTimeout bounds the store and broker calls of a single request.
const requestTimeout = 5 * time.Second

// AuthAPI is the part of the auth service the handlers call.
type AuthAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (model.PublicUser, error)
	Login(ctx context.Context, username, email, password string) (service.LoginResult, error)
	Logout(ctx context.Context, userID uint64) error
	Refresh(ctx context.Context, presented string) (service.TokenPair, error)
	ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, userID uint64, fullname, email string) (model.PublicUser, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth AuthAPI
	Log  *zap.Logger
}

func NewAuthHandler(cfg config.Config, auth AuthAPI, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Auth: auth, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
type updateAccountReq struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type loginResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}
type tokensResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account. The client logs in separately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	user, err := h.Auth.Register(ctx, service.RegisterInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, utils.Success(http.StatusCreated, user, "user registered successfully"))
}

// Login verifies credentials and starts a new session. Tokens are returned in
// the body and set as cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	h.setTokenCookies(c, res.Tokens)
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, loginResp{
		User:         res.User,
		AccessToken:  res.Tokens.Access.Token,
		RefreshToken: res.Tokens.Refresh.Raw,
	}, "user logged in successfully"))
}

// Logout clears the stored refresh token of the current user and both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, user.ID); err != nil {
		return h.writeError(c, err)
	}
	h.clearTokenCookies(c)
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, echo.Map{}, "user logged out successfully"))
}

// Refresh rotates the refresh token taken from the refreshToken cookie or
// the request body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		raw = strings.TrimSpace(ck.Value)
	}
	if raw == "" {
		var req refreshReq
		// A missing or unreadable body simply means no token was presented.
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return h.writeError(c, err)
	}
	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, tokensResp{
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Raw,
	}, "access token refreshed"))
}

// CurrentUser returns the identity attached by the auth middleware.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, user, "current user fetched successfully"))
}

// ChangePassword replaces the password of the current user.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, echo.Map{}, "password changed successfully"))
}

// UpdateAccount changes the fullname and email of the current user.
func (h *AuthHandler) UpdateAccount(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	updated, err := h.Auth.UpdateAccount(ctx, user.ID, req.Fullname, req.Email)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, utils.Success(http.StatusOK, updated, "account details updated successfully"))
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair service.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, pair.Access.Token, h.Cfg.AccessTTL()))
	c.SetCookie(h.cookie(RefreshCookie, pair.Refresh.Raw, h.Cfg.RefreshTTL()))
}

func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := h.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
