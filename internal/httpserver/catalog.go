package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Slots *service.SlotService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "get_products_failed", err)
	}
	p := pageOf(c)
	f := repo.ProductFilter{
		StoreID:       storeID,
		Q:             c.QueryParam("q"),
		Category:      c.QueryParam("category"),
		AvailableOnly: c.QueryParam("available") == "true",
	}
	total, items, err := h.Svc.ListProducts(ctx, f, window(p))
	if err != nil {
		return fail(l, "get_products_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "search_failed", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.Search(ctx, storeID, c.QueryParam("q"), window(p))
	if err != nil {
		return fail(l, "search_failed", err)
	}
	l.Info("search_success", "total", total)
	return httpx.List(c, items, p.Meta(total))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	prod, err := h.Svc.GetProduct(ctx, storeID, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return httpx.OK(c, prod)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	var req transport.CreateProductRequest
	if err := bind(c, l, "product_create_error", &req); err != nil {
		return err
	}
	prod, err := h.Svc.CreateProduct(ctx, actor(c), storeID, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	l.Info("create_product_success", "product_id", prod.ID)
	return httpx.Created(c, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	var req transport.PatchProductRequest
	if err := bind(c, l, "product_patch_error", &req); err != nil {
		return err
	}
	prod, err := h.Svc.PatchProduct(ctx, actor(c), storeID, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	return httpx.OK(c, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "product_delete_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "product_delete_error", err)
	}
	if err := h.Svc.DeleteProduct(ctx, actor(c), storeID, id); err != nil {
		return fail(l, "product_delete_error", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) BulkStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.bulk_stock")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "bulk_stock_failed", err)
	}
	var req transport.BulkStockRequest
	if err := bind(c, l, "bulk_stock_failed", &req); err != nil {
		return err
	}
	items, err := h.Svc.BulkStock(ctx, actor(c), storeID, req)
	if err != nil {
		return fail(l, "bulk_stock_failed", err)
	}
	return httpx.OK(c, items)
}

func (h *CatalogHTTP) ListSlots(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "slot.list")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "list_slots_failed", err)
	}
	slots, err := h.Slots.List(ctx, actor(c), storeID)
	if err != nil {
		return fail(l, "list_slots_failed", err)
	}
	return httpx.OK(c, slots)
}

func (h *CatalogHTTP) CreateSlot(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "slot.create")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "create_slot_failed", err)
	}
	var req transport.CreateSlotRequest
	if err := bind(c, l, "create_slot_failed", &req); err != nil {
		return err
	}
	slot, err := h.Slots.Create(ctx, actor(c), storeID, req)
	if err != nil {
		return fail(l, "create_slot_failed", err)
	}
	return httpx.Created(c, slot)
}

func (h *CatalogHTTP) PatchSlot(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "slot.patch")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "patch_slot_failed", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "patch_slot_failed", err)
	}
	var req transport.PatchSlotRequest
	if err := bind(c, l, "patch_slot_failed", &req); err != nil {
		return err
	}
	slot, err := h.Slots.Patch(ctx, actor(c), storeID, id, req)
	if err != nil {
		return fail(l, "patch_slot_failed", err)
	}
	return httpx.OK(c, slot)
}
