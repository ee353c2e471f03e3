package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type TripHTTP struct {
	Svc *service.TripService
}

type tripOp func(ctx context.Context, a service.Actor, id uint) (*models.DeliveryTrip, error)

func (h *TripHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.create")

	var req transport.CreateTripRequest
	if err := bind(c, l, "create_trip_failed", &req); err != nil {
		return err
	}
	t, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_trip_failed", err)
	}
	l.Info("create_trip_success", "trip_id", t.ID, "orders", len(req.OrderIDs))
	return httpx.Created(c, t)
}

func (h *TripHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.list")

	riderID, err := queryID(c, "rider_id")
	if err != nil {
		return fail(l, "list_trips_failed", err)
	}
	p := pageOf(c)
	q := service.TripQuery{Status: c.QueryParam("status"), RiderID: riderID}
	total, items, err := h.Svc.List(ctx, actor(c), q, window(p))
	if err != nil {
		return fail(l, "list_trips_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *TripHTTP) Get(c echo.Context) error {
	return h.byID(c, "get", h.Svc.Get)
}

func (h *TripHTTP) Start(c echo.Context) error {
	return h.byID(c, "start", h.Svc.Start)
}

func (h *TripHTTP) Complete(c echo.Context) error {
	return h.byID(c, "complete", h.Svc.Complete)
}

func (h *TripHTTP) Cancel(c echo.Context) error {
	return h.byID(c, "cancel", h.Svc.Cancel)
}

// byID serves the trip routes that take nothing but the trip id.
func (h *TripHTTP) byID(c echo.Context, name string, op tripOp) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip."+name)
	event := name + "_trip_failed"

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, event, err)
	}
	t, err := op(ctx, actor(c), id)
	if err != nil {
		return fail(l, event, err)
	}
	if name != "get" {
		l.Info(name+"_trip_success", "trip_id", t.ID, "status", t.Status)
	}
	return httpx.OK(c, t)
}

func (h *TripHTTP) Deliver(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.deliver")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "deliver_failed", err)
	}
	orderID, err := paramID(c, "orderId")
	if err != nil {
		return fail(l, "deliver_failed", err)
	}
	var req transport.DeliverRequest
	if err := bind(c, l, "deliver_failed", &req); err != nil {
		return err
	}
	o, err := h.Svc.Deliver(ctx, actor(c), id, orderID, req)
	if err != nil {
		return fail(l, "deliver_failed", err)
	}
	l.Info("deliver_success", "trip_id", id, "order_id", o.ID)
	return httpx.OK(c, o)
}

func (h *TripHTTP) Fail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.fail")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "fail_delivery_failed", err)
	}
	orderID, err := paramID(c, "orderId")
	if err != nil {
		return fail(l, "fail_delivery_failed", err)
	}
	var req transport.FailDeliveryRequest
	if err := bind(c, l, "fail_delivery_failed", &req); err != nil {
		return err
	}
	o, err := h.Svc.Fail(ctx, actor(c), id, orderID, req)
	if err != nil {
		return fail(l, "fail_delivery_failed", err)
	}
	return httpx.OK(c, o)
}

func (h *TripHTTP) COD(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.cod")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "cod_summary_failed", err)
	}
	s, err := h.Svc.COD(ctx, actor(c), id)
	if err != nil {
		return fail(l, "cod_summary_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *TripHTTP) SettleCash(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.settle_cash")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "settle_cash_failed", err)
	}
	var req transport.SettleCashRequest
	if err := bind(c, l, "settle_cash_failed", &req); err != nil {
		return err
	}
	s, err := h.Svc.SettleCash(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "settle_cash_failed", err)
	}
	l.Info("settle_cash_success", "trip_id", id, "discrepancy", s.Discrepancy)
	return httpx.OK(c, s)
}

func (h *TripHTTP) RiderCODPending(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "trip.rider_cod_pending")

	riderID, err := paramID(c, "riderId")
	if err != nil {
		return fail(l, "cod_pending_failed", err)
	}
	s, err := h.Svc.RiderCODPending(ctx, actor(c), riderID)
	if err != nil {
		return fail(l, "cod_pending_failed", err)
	}
	return httpx.OK(c, s)
}
