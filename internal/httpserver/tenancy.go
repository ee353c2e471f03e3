package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type TenancyHTTP struct {
	Svc *service.TenancyService
}

func (h *TenancyHTTP) CreateOrganization(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.create_organization")

	var req transport.CreateOrganizationRequest
	if err := bind(c, l, "create_organization_failed", &req); err != nil {
		return err
	}
	org, err := h.Svc.CreateOrganization(ctx, req)
	if err != nil {
		return fail(l, "create_organization_failed", err)
	}
	l.Info("create_organization_success", "organization_id", org.ID)
	return httpx.Created(c, org)
}

func (h *TenancyHTTP) ListOrganizations(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.list_organizations")

	p := pageOf(c)
	total, items, err := h.Svc.ListOrganizations(ctx, window(p))
	if err != nil {
		return fail(l, "list_organizations_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *TenancyHTTP) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.create_store")

	var req transport.CreateStoreRequest
	if err := bind(c, l, "create_store_failed", &req); err != nil {
		return err
	}
	s, err := h.Svc.CreateStore(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_store_failed", err)
	}
	l.Info("create_store_success", "store_id", s.ID)
	return httpx.Created(c, s)
}

func (h *TenancyHTTP) ListStores(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.list_stores")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "list_stores_failed", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.ListStores(ctx, actor(c), orgID, window(p))
	if err != nil {
		return fail(l, "list_stores_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *TenancyHTTP) GetStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.get_store")

	id, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "get_store_failed", err)
	}
	s, err := h.Svc.GetStore(ctx, id)
	if err != nil {
		return fail(l, "get_store_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *TenancyHTTP) PatchStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.patch_store")

	id, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "patch_store_failed", err)
	}
	var req transport.PatchStoreRequest
	if err := bind(c, l, "patch_store_failed", &req); err != nil {
		return err
	}
	s, err := h.Svc.PatchStore(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "patch_store_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *TenancyHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.create_user")

	var req transport.CreateUserRequest
	if err := bind(c, l, "create_user_failed", &req); err != nil {
		return err
	}
	u, err := h.Svc.CreateUser(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_user_failed", err)
	}
	l.Info("create_user_success", "user_id", u.ID, "role", u.Role)
	return httpx.Created(c, u)
}

func (h *TenancyHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenancy.list_users")

	p := pageOf(c)
	total, items, err := h.Svc.ListUsers(ctx, actor(c), c.QueryParam("role"), c.QueryParam("q"), window(p))
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}
