package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type NotificationHTTP struct {
	Svc *service.NotificationService
}

// Send queues a campaign and answers before any notification is delivered.
// Clients follow it through the progress route.
func (h *NotificationHTTP) Send(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.send")

	var req transport.SendCampaignRequest
	if err := bind(c, l, "send_campaign_failed", &req); err != nil {
		return err
	}
	camp, err := h.Svc.Send(ctx, actor(c), req)
	if err != nil {
		return fail(l, "send_campaign_failed", err)
	}
	l.Info("send_campaign_queued", "campaign_id", camp.ID, "recipients", camp.TotalRecipients)
	return httpx.Accepted(c, camp)
}

func (h *NotificationHTTP) Campaigns(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.campaigns")

	p := pageOf(c)
	total, items, err := h.Svc.Campaigns(ctx, actor(c), window(p))
	if err != nil {
		return fail(l, "list_campaigns_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *NotificationHTTP) Progress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.progress")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "campaign_progress_failed", err)
	}
	pr, err := h.Svc.Progress(ctx, actor(c), id)
	if err != nil {
		return fail(l, "campaign_progress_failed", err)
	}
	return httpx.OK(c, pr)
}

func (h *NotificationHTTP) Inbox(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.inbox")

	p := pageOf(c)
	total, items, err := h.Svc.Inbox(ctx, actor(c), c.QueryParam("unread") == "true", window(p))
	if err != nil {
		return fail(l, "inbox_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *NotificationHTTP) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.unread_count")

	n, err := h.Svc.UnreadCount(ctx, actor(c))
	if err != nil {
		return fail(l, "unread_count_failed", err)
	}
	return httpx.OK(c, map[string]int64{"unread": n})
}

func (h *NotificationHTTP) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.mark_read")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "mark_read_failed", err)
	}
	if err := h.Svc.MarkRead(ctx, actor(c), id); err != nil {
		return fail(l, "mark_read_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHTTP) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.mark_all_read")

	n, err := h.Svc.MarkAllRead(ctx, actor(c))
	if err != nil {
		return fail(l, "mark_all_read_failed", err)
	}
	return httpx.OK(c, map[string]int64{"updated": n})
}

func (h *NotificationHTTP) RegisterDevice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.register_device")

	var req transport.DeviceTokenRequest
	if err := bind(c, l, "register_device_failed", &req); err != nil {
		return err
	}
	d, err := h.Svc.RegisterDevice(ctx, actor(c), req)
	if err != nil {
		return fail(l, "register_device_failed", err)
	}
	return httpx.Created(c, d)
}
