package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type LoyaltyHTTP struct {
	Svc *service.LoyaltyService
}

func (h *LoyaltyHTTP) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.balance")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "balance_failed", err)
	}
	var org uint
	if orgID != nil {
		org = *orgID
	}
	s, err := h.Svc.Balance(ctx, actor(c), org)
	if err != nil {
		return fail(l, "balance_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *LoyaltyHTTP) Transactions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.transactions")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "transactions_failed", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.Transactions(ctx, actor(c), orgID, window(p))
	if err != nil {
		return fail(l, "transactions_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

func (h *LoyaltyHTTP) ForUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.for_user")

	userID, err := paramID(c, "userId")
	if err != nil {
		return fail(l, "user_loyalty_failed", err)
	}
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "user_loyalty_failed", err)
	}
	p := pageOf(c)
	out, total, err := h.Svc.ForUser(ctx, actor(c), userID, orgID, window(p))
	if err != nil {
		return fail(l, "user_loyalty_failed", err)
	}
	return httpx.List(c, out, p.Meta(total))
}

func (h *LoyaltyHTTP) Adjust(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.adjust")

	var req transport.AdjustPointsRequest
	if err := bind(c, l, "adjust_points_failed", &req); err != nil {
		return err
	}
	tx, err := h.Svc.Adjust(ctx, actor(c), req)
	if err != nil {
		return fail(l, "adjust_points_failed", err)
	}
	l.Info("adjust_points_success", "user_id", req.UserID, "points", req.Points, "balance_after", tx.BalanceAfter)
	return httpx.Created(c, tx)
}

type ReferralHTTP struct {
	Svc *service.ReferralService
}

func (h *ReferralHTTP) Config(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.config")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "referral_config_failed", err)
	}
	cfg, err := h.Svc.Config(ctx, actor(c), orgID)
	if err != nil {
		return fail(l, "referral_config_failed", err)
	}
	return httpx.OK(c, cfg)
}

func (h *ReferralHTTP) PutConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.put_config")

	var req transport.ReferralConfigRequest
	if err := bind(c, l, "put_referral_config_failed", &req); err != nil {
		return err
	}
	cfg, err := h.Svc.PutConfig(ctx, actor(c), req)
	if err != nil {
		return fail(l, "put_referral_config_failed", err)
	}
	return httpx.OK(c, cfg)
}

func (h *ReferralHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.mine")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "my_referrals_failed", err)
	}
	s, err := h.Svc.Mine(ctx, actor(c), orgID)
	if err != nil {
		return fail(l, "my_referrals_failed", err)
	}
	return httpx.OK(c, s)
}

func (h *ReferralHTTP) Apply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.apply")

	var req transport.ApplyReferralRequest
	if err := bind(c, l, "apply_referral_failed", &req); err != nil {
		return err
	}
	ref, err := h.Svc.Apply(ctx, actor(c), req)
	if err != nil {
		return fail(l, "apply_referral_failed", err)
	}
	l.Info("apply_referral_success", "referral_id", ref.ID, "referrer_id", ref.ReferrerID)
	return httpx.Created(c, ref)
}

func (h *ReferralHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.list")

	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, actor(c), c.QueryParam("status"), window(p))
	if err != nil {
		return fail(l, "list_referrals_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}

type MembershipHTTP struct {
	Svc *service.MembershipService
}

func (h *MembershipHTTP) CreatePlan(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.create_plan")

	var req transport.PlanRequest
	if err := bind(c, l, "create_plan_failed", &req); err != nil {
		return err
	}
	plan, err := h.Svc.CreatePlan(ctx, actor(c), req)
	if err != nil {
		return fail(l, "create_plan_failed", err)
	}
	return httpx.Created(c, plan)
}

func (h *MembershipHTTP) PatchPlan(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.patch_plan")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "patch_plan_failed", err)
	}
	var req transport.PatchPlanRequest
	if err := bind(c, l, "patch_plan_failed", &req); err != nil {
		return err
	}
	plan, err := h.Svc.PatchPlan(ctx, actor(c), id, req)
	if err != nil {
		return fail(l, "patch_plan_failed", err)
	}
	return httpx.OK(c, plan)
}

// PublicPlans lists the active plans of an organization without a token.
func (h *MembershipHTTP) PublicPlans(c echo.Context) error {
	return h.plans(c, nil)
}

func (h *MembershipHTTP) AdminPlans(c echo.Context) error {
	a := actor(c)
	return h.plans(c, &a)
}

func (h *MembershipHTTP) plans(c echo.Context, a *service.Actor) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.plans")

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return fail(l, "list_plans_failed", err)
	}
	plans, err := h.Svc.Plans(ctx, a, orgID)
	if err != nil {
		return fail(l, "list_plans_failed", err)
	}
	return httpx.OK(c, plans)
}

func (h *MembershipHTTP) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.subscribe")

	var req transport.SubscribeRequest
	if err := bind(c, l, "subscribe_failed", &req); err != nil {
		return err
	}
	sub, err := h.Svc.Subscribe(ctx, actor(c), req)
	if err != nil {
		return fail(l, "subscribe_failed", err)
	}
	return httpx.Created(c, sub)
}

func (h *MembershipHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.cancel")

	var req transport.CancelMembershipRequest
	if err := bind(c, l, "cancel_membership_failed", &req); err != nil {
		return err
	}
	sub, err := h.Svc.Cancel(ctx, actor(c), req.OrganizationID)
	if err != nil {
		return fail(l, "cancel_membership_failed", err)
	}
	return httpx.OK(c, sub)
}

func (h *MembershipHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.mine")

	subs, err := h.Svc.Mine(ctx, actor(c))
	if err != nil {
		return fail(l, "my_memberships_failed", err)
	}
	return httpx.OK(c, subs)
}

func (h *MembershipHTTP) Subscribers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "membership.subscribers")

	p := pageOf(c)
	total, items, err := h.Svc.Subscribers(ctx, actor(c), c.QueryParam("status"), window(p))
	if err != nil {
		return fail(l, "list_subscribers_failed", err)
	}
	return httpx.List(c, items, p.Meta(total))
}
