package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type ReturnHTTP struct {
	Svc *service.ReturnService
}

func (h *ReturnHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.create")

	var req transport.CreateReturnRequest
	if err := bind(c, l, "create_return_failed", &req); err != nil {
		return err
	}
	rr, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_return_failed", err)
	}
	l.Info("create_return_success", "return_id", rr.ID, "order_id", rr.OrderID, "refund_amount", rr.RefundAmount)
	return httpx.Created(c, rr)
}

func (h *ReturnHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.list")

	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, actor(c), c.QueryParam("status"), window(p))
	if err != nil {
		return fail(l, "list_returns_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *ReturnHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_return_failed", err)
	}
	rr, err := h.Svc.Get(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_return_failed", err)
	}
	return httpx.OK(c, rr)
}

func (h *ReturnHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.approve")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "approve_return_failed", err)
	}
	var req transport.ApproveReturnRequest
	if err := bind(c, l, "approve_return_failed", &req); err != nil {
		return err
	}
	rr, err := h.Svc.Approve(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "approve_return_failed", err)
	}
	l.Info("approve_return_success", "return_id", rr.ID, "status", rr.Status)
	return httpx.OK(c, rr)
}

func (h *ReturnHTTP) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.reject")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "reject_return_failed", err)
	}
	var req transport.RejectReturnRequest
	if err := bind(c, l, "reject_return_failed", &req); err != nil {
		return err
	}
	rr, err := h.Svc.Reject(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "reject_return_failed", err)
	}
	return httpx.OK(c, rr)
}

type SupportHTTP struct {
	Svc *service.SupportService
}

func (h *SupportHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "support.create")

	var req transport.CreateTicketRequest
	if err := bind(c, l, "create_ticket_failed", &req); err != nil {
		return err
	}
	t, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_ticket_failed", err)
	}
	l.Info("create_ticket_success", "ticket_id", t.ID, "ticket_number", t.TicketNumber)
	return httpx.Created(c, t)
}

func (h *SupportHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "support.list")

	assignee, err := queryID(c, "assigned_to_id")
	if err != nil {
		return fail(l, "list_tickets_failed", err)
	}
	p := pageOf(c)
	q := service.TicketQuery{
		Status:       c.QueryParam("status"),
		Priority:     c.QueryParam("priority"),
		AssignedToID: assignee,
	}
	total, items, err := h.Svc.List(ctx, actor(c), q, window(p))
	if err != nil {
		return fail(l, "list_tickets_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *SupportHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "support.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_ticket_failed", err)
	}
	t, err := h.Svc.Get(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_ticket_failed", err)
	}
	return httpx.OK(c, t)
}

func (h *SupportHTTP) AddMessage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "support.add_message")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "add_message_failed", err)
	}
	var req transport.TicketMessageRequest
	if err := bind(c, l, "add_message_failed", &req); err != nil {
		return err
	}
	m, err := h.Svc.AddMessage(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "add_message_failed", err)
	}
	return httpx.Created(c, m)
}

func (h *SupportHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "support.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "patch_ticket_failed", err)
	}
	var req transport.PatchTicketRequest
	if err := bind(c, l, "patch_ticket_failed", &req); err != nil {
		return err
	}
	t, err := h.Svc.Patch(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "patch_ticket_failed", err)
	}
	return httpx.OK(c, t)
}

type RatingHTTP struct {
	Svc *service.RatingService
}

func (h *RatingHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.create")

	var req transport.CreateRatingRequest
	if err := bind(c, l, "create_rating_failed", &req); err != nil {
		return err
	}
	r, err := h.Svc.Create(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_rating_failed", err)
	}
	return httpx.Created(c, r)
}

func (h *RatingHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.list")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "list_ratings_failed", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, storeID, window(p))
	if err != nil {
		return fail(l, "list_ratings_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *RatingHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.summary")

	storeID, err := paramID(c, "storeId")
	if err != nil {
		return fail(l, "rating_summary_failed", err)
	}
	s, err := h.Svc.Summary(ctx, storeID)
	if err != nil {
		return fail(l, "rating_summary_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *RatingHTTP) Moderate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.moderate")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "moderate_rating_failed", err)
	}
	var req transport.ModerateRatingRequest
	if err := bind(c, l, "moderate_rating_failed", &req); err != nil {
		return err
	}
	r, err := h.Svc.Moderate(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "moderate_rating_failed", err)
	}
	return httpx.OK(c, r)
}

func (h *RatingHTTP) Reply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.reply")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "reply_rating_failed", err)
	}
	var req transport.ReplyRatingRequest
	if err := bind(c, l, "reply_rating_failed", &req); err != nil {
		return err
	}
	r, err := h.Svc.Reply(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "reply_rating_failed", err)
	}
	return httpx.OK(c, r)
}
