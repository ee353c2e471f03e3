package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := bind(c, l, "create_order_failed", &req); err != nil {
		return err
	}
	o, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_order_failed", err)
	}
	l.Info("create_order_success", "order_id", o.ID, "total", o.Total)
	return httpx.Created(c, o)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	storeID, err := queryID(c, "store_id")
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	tripID, err := queryID(c, "trip_id")
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	p := pageOf(c)
	q := service.OrderQuery{Status: c.QueryParam("status"), StoreID: storeID, TripID: tripID}
	total, items, err := h.Svc.List(ctx, actor(c), q, window(p))
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	o, err := h.Svc.Get(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return httpx.OK(c, o)
}

func (h *OrderHTTP) Transitions(c echo.Context) error {
	return httpx.OK(c, h.Svc.Transitions())
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_status_failed", err)
	}
	var req transport.StatusRequest
	if err := bind(c, l, "update_status_failed", &req); err != nil {
		return err
	}
	o, err := h.Svc.UpdateStatus(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "update_status_failed", err)
	}
	l.Info("update_status_success", "order_id", o.ID, "status", o.Status)
	return httpx.OK(c, o)
}

func (h *OrderHTTP) BulkStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.bulk_status")

	var req transport.BulkStatusRequest
	if err := bind(c, l, "bulk_status_failed", &req); err != nil {
		return err
	}
	res, err := h.Svc.BulkStatus(ctx, actor(c), req)
	if err != nil {
		return fail(l, "bulk_status_failed", err)
	}
	l.Info("bulk_status_done", "succeeded", res.Succeeded, "failed", res.Failed)
	return httpx.OK(c, res)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "cancel_order_failed", err)
	}
	var req transport.CancelOrderRequest
	if err := bind(c, l, "cancel_order_failed", &req); err != nil {
		return err
	}
	o, err := h.Svc.Cancel(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "cancel_order_failed", err)
	}
	return httpx.OK(c, o)
}
