package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type ReferralService struct {
	core
}

func (s *ReferralService) Config(ctx context.Context, a Actor, orgID *uint) (*models.ReferralConfig, error) {
	org, err := a.orgFor(orgID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Repo.GetReferralConfig(ctx, org)
	if err != nil {
		if repo.IsNotFound(err) {
			return &models.ReferralConfig{OrganizationID: org}, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (s *ReferralService) PutConfig(ctx context.Context, a Actor, req transport.ReferralConfigRequest) (*models.ReferralConfig, error) {
	org, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if req.ReferrerPoints < 0 || req.RefereePoints < 0 || req.MinOrderValue < 0 || req.MaxReferralsPerUser < 0 {
		return nil, fmt.Errorf("%w: values must be >= 0", ErrValidation)
	}
	cfg, err := s.Repo.GetReferralConfig(ctx, org)
	if err != nil {
		if !repo.IsNotFound(err) {
			return nil, err
		}
		cfg = &models.ReferralConfig{OrganizationID: org}
	}
	cfg.IsActive = req.IsActive
	cfg.ReferrerPoints = req.ReferrerPoints
	cfg.RefereePoints = req.RefereePoints
	cfg.MinOrderValue = req.MinOrderValue
	cfg.MaxReferralsPerUser = req.MaxReferralsPerUser
	if err := s.Repo.SaveReferralConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *ReferralService) Mine(ctx context.Context, a Actor, orgID *uint) (*transport.ReferralSummary, error) {
	u, err := s.Repo.GetUser(ctx, a.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	sum := &transport.ReferralSummary{Code: u.ReferralCode}
	if orgID == nil {
		return sum, nil
	}
	if sum.Total, err = s.Repo.CountReferrals(ctx, a.UserID, *orgID, ""); err != nil {
		return nil, err
	}
	if sum.Completed, err = s.Repo.CountReferrals(ctx, a.UserID, *orgID, models.ReferralCompleted); err != nil {
		return nil, err
	}
	sum.Pending = sum.Total - sum.Completed
	return sum, nil
}

func (s *ReferralService) Apply(ctx context.Context, a Actor, req transport.ApplyReferralRequest) (*models.Referral, error) {
	if req.OrganizationID == 0 {
		return nil, fmt.Errorf("%w: organization_id required", ErrValidation)
	}
	var ref *models.Referral
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		ref, err = applyReferral(ctx, tx, a.UserID, req.Code, req.OrganizationID, s.now())
		return err
	})
	return ref, err
}

func (s *ReferralService) List(ctx context.Context, a Actor, status string, w repo.Window) (int64, []models.Referral, error) {
	return s.Repo.ListReferrals(ctx, repo.Scope{OrgID: a.Scope().OrgID}, status, w)
}

func applyReferral(ctx context.Context, tx *repo.GormRepo, refereeID uint, code string, orgID uint, now time.Time) (*models.Referral, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	cfg, err := tx.GetReferralConfig(ctx, orgID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, err
	}
	if cfg == nil || !cfg.IsActive {
		return nil, fmt.Errorf("%w: referral program is not active", ErrValidation)
	}
	referrer, err := tx.GetUserByReferralCode(ctx, code)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: unknown referral code", ErrValidation)
		}
		return nil, err
	}
	if referrer.ID == refereeID {
		return nil, fmt.Errorf("%w: cannot use your own referral code", ErrValidation)
	}
	if _, err := tx.RefereeReferral(ctx, refereeID, orgID); err == nil {
		return nil, fmt.Errorf("%w: a referral was already applied", ErrConflict)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}
	done, err := tx.CompletedOrderCount(ctx, refereeID, orgID)
	if err != nil {
		return nil, err
	}
	if done > 0 {
		return nil, fmt.Errorf("%w: referrals apply only before the first completed order", ErrValidation)
	}
	if cfg.MaxReferralsPerUser > 0 {
		n, err := tx.CountReferrals(ctx, referrer.ID, orgID, "")
		if err != nil {
			return nil, err
		}
		if n >= int64(cfg.MaxReferralsPerUser) {
			return nil, fmt.Errorf("%w: referrer reached the referral limit", ErrValidation)
		}
	}
	ref := &models.Referral{
		OrganizationID: orgID,
		ReferrerID:     referrer.ID,
		RefereeID:      refereeID,
		Status:         models.ReferralPending,
		CreatedAt:      now,
	}
	if err := tx.CreateReferral(ctx, ref); err != nil {
		return nil, conflictOn(err, "a referral was already applied")
	}
	return ref, nil
}

// completeReferral rewards both sides of a pending referral once the referee
// completes an order meeting the program minimum.
func completeReferral(ctx context.Context, tx *repo.GormRepo, order *models.Order, orgID uint, now time.Time) error {
	ref, err := tx.RefereeReferral(ctx, order.CustomerID, orgID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil
		}
		return err
	}
	if ref.Status != models.ReferralPending {
		return nil
	}
	cfg, err := tx.GetReferralConfig(ctx, orgID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !cfg.IsActive || order.Total < cfg.MinOrderValue {
		return nil
	}

	orderID := order.ID
	if _, err := movePoints(ctx, tx, pointsEntry{
		UserID: ref.ReferrerID, OrgID: orgID, Points: cfg.ReferrerPoints,
		Type: models.LoyaltyReferral, OrderID: &orderID, Note: "referral reward",
	}); err != nil {
		return err
	}
	if _, err := movePoints(ctx, tx, pointsEntry{
		UserID: ref.RefereeID, OrgID: orgID, Points: cfg.RefereePoints,
		Type: models.LoyaltyReferral, OrderID: &orderID, Note: "welcome reward",
	}); err != nil {
		return err
	}

	ref.Status = models.ReferralCompleted
	ref.OrderID = &orderID
	ref.RewardedAt = &now
	if err := tx.SaveReferral(ctx, ref); err != nil {
		return err
	}
	if cfg.ReferrerPoints > 0 {
		if err := notifyUser(ctx, tx, ref.ReferrerID, models.NotificationLoyalty, "Referral reward",
			fmt.Sprintf("Your friend completed their first order. You earned %d points.", cfg.ReferrerPoints)); err != nil {
			return err
		}
	}
	return nil
}
