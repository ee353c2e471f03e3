package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

// PointValue is the worth of one loyalty point in minor units.
const PointValue int64 = 100

type LoyaltyService struct {
	core
}

type pointsEntry struct {
	UserID  uint
	OrgID   uint
	Points  int64
	Type    string
	OrderID *uint
	Note    string
	ByID    *uint
}

// movePoints applies a signed points change and journals it. It must run in a
// transaction: the balance row is locked first and a debit that would go
// negative fails with ErrConflict without writing anything.
func movePoints(ctx context.Context, tx *repo.GormRepo, e pointsEntry) (*models.LoyaltyTransaction, error) {
	if e.Points == 0 {
		return nil, nil
	}
	bal, err := tx.EnsureBalance(ctx, e.UserID, e.OrgID)
	if err != nil {
		return nil, err
	}
	ok, err := tx.ApplyPoints(ctx, bal.ID, e.Points)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: insufficient points (balance %d, requested %d)", ErrConflict, bal.Points, -e.Points)
	}
	entry := &models.LoyaltyTransaction{
		UserID:         e.UserID,
		OrganizationID: e.OrgID,
		Type:           e.Type,
		Points:         e.Points,
		BalanceAfter:   bal.Points + e.Points,
		OrderID:        e.OrderID,
		Note:           e.Note,
		CreatedByID:    e.ByID,
	}
	if err := tx.AddLoyaltyTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// earnedPoints converts an order total into points: percent of the total,
// scaled by the membership multiplier (100 = 1x), in whole points.
func earnedPoints(total, percent, multiplier int64) int64 {
	if total <= 0 || percent <= 0 {
		return 0
	}
	if multiplier <= 0 {
		multiplier = 100
	}
	return total * percent * multiplier / (100 * 100 * PointValue)
}

func (s *LoyaltyService) Balance(ctx context.Context, a Actor, orgID uint) (*transport.LoyaltySummary, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("%w: organization_id required", ErrValidation)
	}
	bal, err := s.Repo.GetBalance(ctx, a.UserID, orgID)
	if err != nil {
		if !repo.IsNotFound(err) {
			return nil, err
		}
		bal = &models.LoyaltyBalance{UserID: a.UserID, OrganizationID: orgID}
	}
	return &transport.LoyaltySummary{Balance: bal, PointValue: PointValue, RedeemableBy: bal.Points * PointValue}, nil
}

func (s *LoyaltyService) Transactions(ctx context.Context, a Actor, orgID *uint, w repo.Window) (int64, []models.LoyaltyTransaction, error) {
	return s.Repo.ListLoyaltyTransactions(ctx, repo.LoyaltyTxFilter{UserID: a.UserID, OrgID: orgID}, w)
}

type UserLoyalty struct {
	User         *models.User                `json:"user"`
	Balance      *models.LoyaltyBalance      `json:"balance"`
	Transactions []models.LoyaltyTransaction `json:"transactions"`
}

func (s *LoyaltyService) ForUser(ctx context.Context, a Actor, userID uint, orgID *uint, w repo.Window) (*UserLoyalty, int64, error) {
	org, err := a.orgFor(orgID)
	if err != nil {
		return nil, 0, err
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, notFound(err, "user")
	}
	if user.Role != models.RoleCustomer {
		return nil, 0, fmt.Errorf("%w: user", ErrNotFound)
	}
	known, err := s.Repo.CustomerOfOrg(ctx, userID, org)
	if err != nil {
		return nil, 0, err
	}
	if !known {
		return nil, 0, fmt.Errorf("%w: user", ErrNotFound)
	}
	bal, err := s.Repo.GetBalance(ctx, userID, org)
	if err != nil {
		if !repo.IsNotFound(err) {
			return nil, 0, err
		}
		bal = &models.LoyaltyBalance{UserID: userID, OrganizationID: org}
	}
	total, txs, err := s.Repo.ListLoyaltyTransactions(ctx, repo.LoyaltyTxFilter{UserID: userID, OrgID: &org}, w)
	if err != nil {
		return nil, 0, err
	}
	return &UserLoyalty{User: user, Balance: bal, Transactions: txs}, total, nil
}

func (s *LoyaltyService) Adjust(ctx context.Context, a Actor, req transport.AdjustPointsRequest) (*models.LoyaltyTransaction, error) {
	l := logging.FromContext(ctx).With("svc", "loyalty.adjust")

	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if req.Points == 0 {
		return nil, fmt.Errorf("%w: points must be non-zero", ErrValidation)
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, fmt.Errorf("%w: note required", ErrValidation)
	}
	target, err := s.Repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if target.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	var entry *models.LoyaltyTransaction
	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		entry, err = movePoints(ctx, tx, pointsEntry{
			UserID: req.UserID, OrgID: orgID, Points: req.Points,
			Type: models.LoyaltyAdjust, Note: note, ByID: uintPtr(a.UserID),
		})
		if err != nil {
			return err
		}
		return notifyUser(ctx, tx, req.UserID, models.NotificationLoyalty, "Points updated",
			fmt.Sprintf("%+d points: %s", req.Points, note))
	})
	if err != nil {
		return nil, err
	}
	l.Info("adjust_points_success", "user_id", req.UserID, "points", req.Points, "by", a.UserID)
	return entry, nil
}
