package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	var req transport.CouponRequest
	if err := bind(c, l, "create_coupon_failed", &req); err != nil {
		return err
	}
	cp, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_coupon_failed", err)
	}
	l.Info("create_coupon_success", "coupon_id", cp.ID)
	return httpx.Created(c, cp)
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list")

	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, actor(c), window(p))
	if err != nil {
		return fail(l, "list_coupons_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *CouponHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_coupon_failed", err)
	}
	cp, err := h.Svc.Get(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_coupon_failed", err)
	}
	return httpx.OK(c, cp)
}

func (h *CouponHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "patch_coupon_failed", err)
	}
	var req transport.PatchCouponRequest
	if err := bind(c, l, "patch_coupon_failed", &req); err != nil {
		return err
	}
	cp, err := h.Svc.Patch(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "patch_coupon_failed", err)
	}
	return httpx.OK(c, cp)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_coupon_failed", err)
	}
	if err := h.Svc.Delete(ctx, actor(c), id); err != nil {
		return fail(l, "delete_coupon_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := bind(c, l, "validate_coupon_failed", &req); err != nil {
		return err
	}
	q, err := h.Svc.Validate(ctx, req)
	if err != nil {
		return fail(l, "validate_coupon_failed", err)
	}
	return httpx.OK(c, q)
}

type BannerHTTP struct {
	Svc *service.BannerService
}

func (h *BannerHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.create")

	var req transport.BannerRequest
	if err := bind(c, l, "create_banner_failed", &req); err != nil {
		return err
	}
	b, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_banner_failed", err)
	}
	return httpx.Created(c, b)
}

func (h *BannerHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.list")

	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, actor(c), window(p))
	if err != nil {
		return fail(l, "list_banners_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *BannerHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_banner_failed", err)
	}
	b, err := h.Svc.Get(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_banner_failed", err)
	}
	return httpx.OK(c, b)
}

func (h *BannerHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "patch_banner_failed", err)
	}
	var req transport.PatchBannerRequest
	if err := bind(c, l, "patch_banner_failed", &req); err != nil {
		return err
	}
	b, err := h.Svc.Patch(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "patch_banner_failed", err)
	}
	return httpx.OK(c, b)
}

func (h *BannerHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_banner_failed", err)
	}
	if err := h.Svc.Delete(ctx, actor(c), id); err != nil {
		return fail(l, "delete_banner_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Active is public: the storefront shows what is live for an organization
// and, optionally, one of its stores.
func (h *BannerHTTP) Active(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "banner.active")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "active_banners_failed", err)
	}
	if orgID == nil {
		return fail(l, "active_banners_failed", echo.NewHTTPError(http.StatusBadRequest, "organization_id required"))
	}
	storeID, err := queryID(c, "store_id")
	if err != nil {
		return fail(l, "active_banners_failed", err)
	}
	items, err := h.Svc.Active(ctx, *orgID, storeID)
	if err != nil {
		return fail(l, "active_banners_failed", err)
	}
	return httpx.OK(c, items)
}
