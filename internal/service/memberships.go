package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type MembershipService struct {
	core
}

func validatePlan(p *models.MembershipPlan) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("%w: duration_days must be > 0", ErrValidation)
	}
	if p.PointsMultiplier < 100 {
		return fmt.Errorf("%w: points_multiplier must be >= 100", ErrValidation)
	}
	return nil
}

func (s *MembershipService) CreatePlan(ctx context.Context, a Actor, req transport.PlanRequest) (*models.MembershipPlan, error) {
	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	p := &models.MembershipPlan{
		OrganizationID:   orgID,
		Name:             strings.TrimSpace(req.Name),
		Price:            req.Price,
		DurationDays:     req.DurationDays,
		FreeDelivery:     req.FreeDelivery,
		PointsMultiplier: req.PointsMultiplier,
		IsActive:         true,
	}
	if p.PointsMultiplier == 0 {
		p.PointsMultiplier = 100
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *MembershipService) PatchPlan(ctx context.Context, a Actor, id uint, req transport.PatchPlanRequest) (*models.MembershipPlan, error) {
	p, err := s.Repo.GetPlan(ctx, id)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	if !a.inOrg(p.OrganizationID) {
		return nil, fmt.Errorf("%w: plan", ErrNotFound)
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.DurationDays != nil {
		p.DurationDays = *req.DurationDays
	}
	if req.FreeDelivery != nil {
		p.FreeDelivery = *req.FreeDelivery
	}
	if req.PointsMultiplier != nil {
		p.PointsMultiplier = *req.PointsMultiplier
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if err := s.Repo.SavePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Plans lists plans of an organization. Operators also see inactive ones.
func (s *MembershipService) Plans(ctx context.Context, a *Actor, orgID *uint) ([]models.MembershipPlan, error) {
	if a != nil && a.Staff() {
		org, err := a.orgFor(orgID)
		if err != nil {
			return nil, err
		}
		return s.Repo.ListPlans(ctx, &org, false)
	}
	if orgID == nil || *orgID == 0 {
		return nil, fmt.Errorf("%w: organization_id required", ErrValidation)
	}
	return s.Repo.ListPlans(ctx, orgID, true)
}

func (s *MembershipService) Subscribe(ctx context.Context, a Actor, req transport.SubscribeRequest) (*models.MembershipSubscriber, error) {
	l := logging.FromContext(ctx).With("svc", "membership.subscribe")

	plan, err := s.Repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: plan is not available", ErrValidation)
	}
	now := s.now()
	sub := &models.MembershipSubscriber{
		PlanID:         plan.ID,
		UserID:         a.UserID,
		OrganizationID: plan.OrganizationID,
		Status:         models.MembershipActive,
		StartsAt:       now,
		EndsAt:         now.AddDate(0, 0, plan.DurationDays),
	}
	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.ActiveMembership(ctx, a.UserID, plan.OrganizationID, now); err == nil {
			return fmt.Errorf("%w: already subscribed", ErrConflict)
		} else if !repo.IsNotFound(err) {
			return err
		}
		return tx.CreateSubscriber(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	sub.Plan = plan
	l.Info("subscribe_success", "user_id", a.UserID, "plan_id", plan.ID)
	return sub, nil
}

func (s *MembershipService) Cancel(ctx context.Context, a Actor, orgID uint) (*models.MembershipSubscriber, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("%w: organization_id required", ErrValidation)
	}
	now := s.now()
	sub, err := s.Repo.ActiveMembership(ctx, a.UserID, orgID, now)
	if err != nil {
		return nil, notFound(err, "active membership")
	}
	sub.Status = models.MembershipCancelled
	sub.CancelledAt = &now
	if err := s.Repo.SaveSubscriber(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *MembershipService) Mine(ctx context.Context, a Actor) ([]models.MembershipSubscriber, error) {
	subs, err := s.Repo.ListMemberships(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range subs {
		if subs[i].Status == models.MembershipActive && !subs[i].EndsAt.After(now) {
			subs[i].Status = models.MembershipExpired
		}
	}
	return subs, nil
}

func (s *MembershipService) Subscribers(ctx context.Context, a Actor, status string, w repo.Window) (int64, []models.MembershipSubscriber, error) {
	return s.Repo.ListSubscribers(ctx, repo.Scope{OrgID: a.Scope().OrgID}, status, w)
}

// ExpireDue marks subscriptions past their end date EXPIRED.
func (s *MembershipService) ExpireDue(ctx context.Context) (int64, error) {
	return s.Repo.ExpireMemberships(ctx, s.now())
}

// activePlan returns the plan of the user's live membership, or nil.
func activePlan(ctx context.Context, tx *repo.GormRepo, userID, orgID uint, now time.Time) (*models.MembershipPlan, error) {
	sub, err := tx.ActiveMembership(ctx, userID, orgID, now)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub.Plan, nil
}
