package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, l, "register_failed", &req); err != nil {
		return err
	}
	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}
	l.Info("register_success", "user_id", res.User.ID)
	return httpx.Created(c, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, l, "login_failed", &req); err != nil {
		return err
	}
	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	l.Info("login_success", "user_id", res.User.ID)
	return httpx.OK(c, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bind(c, l, "refresh_failed", &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		l.Warn("refresh_failed", "status", http.StatusBadRequest, "reason", "missing refresh_token")
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
	}
	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}
	return httpx.OK(c, res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshRequest
	if err := bind(c, l, "logout_failed", &req); err != nil {
		return err
	}
	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return fail(l, "logout_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	u, err := h.Svc.Me(ctx, actor(c).UserID)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return httpx.OK(c, u)
}
