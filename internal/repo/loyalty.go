package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

// EnsureBalance creates the zero balance row for (user, org) if missing and
// returns it locked for update.
func (r *GormRepo) EnsureBalance(ctx context.Context, userID, orgID uint) (*models.LoyaltyBalance, error) {
	row := models.LoyaltyBalance{UserID: userID, OrganizationID: orgID}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	var b models.LoyaltyBalance
	if err := r.locked(ctx).Where("user_id = ? AND organization_id = ?", userID, orgID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) GetBalance(ctx context.Context, userID, orgID uint) (*models.LoyaltyBalance, error) {
	var b models.LoyaltyBalance
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND organization_id = ?", userID, orgID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) ListBalances(ctx context.Context, userID uint) ([]models.LoyaltyBalance, error) {
	out := make([]models.LoyaltyBalance, 0)
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("organization_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyPoints adds delta (signed) to a balance. A debit that would take the
// balance below zero changes nothing and reports false.
func (r *GormRepo) ApplyPoints(ctx context.Context, balanceID uint, delta int64) (bool, error) {
	updates := map[string]any{"points": gorm.Expr("points + ?", delta)}
	if delta > 0 {
		updates["lifetime_earned"] = gorm.Expr("lifetime_earned + ?", delta)
	}
	res := r.DB.WithContext(ctx).Model(&models.LoyaltyBalance{}).
		Where("id = ? AND points + ? >= 0", balanceID, delta).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) AddLoyaltyTransaction(ctx context.Context, t *models.LoyaltyTransaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

type LoyaltyTxFilter struct {
	UserID uint
	OrgID  *uint
}

func (r *GormRepo) ListLoyaltyTransactions(ctx context.Context, f LoyaltyTxFilter, w Window) (int64, []models.LoyaltyTransaction, error) {
	q := r.DB.WithContext(ctx).Model(&models.LoyaltyTransaction{}).Where("user_id = ?", f.UserID)
	if f.OrgID != nil {
		q = q.Where("organization_id = ?", *f.OrgID)
	}
	out := make([]models.LoyaltyTransaction, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out)
	return total, out, err
}

func (r *GormRepo) GetReferralConfig(ctx context.Context, orgID uint) (*models.ReferralConfig, error) {
	var c models.ReferralConfig
	if err := r.DB.WithContext(ctx).Where("organization_id = ?", orgID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) SaveReferralConfig(ctx context.Context, c *models.ReferralConfig) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) CreateReferral(ctx context.Context, ref *models.Referral) error {
	return r.DB.WithContext(ctx).Create(ref).Error
}

func (r *GormRepo) RefereeReferral(ctx context.Context, refereeID, orgID uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.locked(ctx).Where("referee_id = ? AND organization_id = ?", refereeID, orgID).First(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *GormRepo) SaveReferral(ctx context.Context, ref *models.Referral) error {
	return r.DB.WithContext(ctx).Save(ref).Error
}

func (r *GormRepo) CountReferrals(ctx context.Context, referrerID, orgID uint, status string) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ? AND organization_id = ?", referrerID, orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *GormRepo) ListReferrals(ctx context.Context, s Scope, status string, w Window) (int64, []models.Referral, error) {
	q := applyOrgScope(r.DB.WithContext(ctx).Model(&models.Referral{}), s)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := make([]models.Referral, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out)
	return total, out, err
}

func (r *GormRepo) CreatePlan(ctx context.Context, p *models.MembershipPlan) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetPlan(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	var p models.MembershipPlan
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) SavePlan(ctx context.Context, p *models.MembershipPlan) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) ListPlans(ctx context.Context, orgID *uint, activeOnly bool) ([]models.MembershipPlan, error) {
	q := r.DB.WithContext(ctx).Model(&models.MembershipPlan{})
	if orgID != nil {
		q = q.Where("organization_id = ?", *orgID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	out := make([]models.MembershipPlan, 0)
	if err := q.Order("price ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveMembership returns the ACTIVE subscription of a user in an org that
// has not passed its end date.
func (r *GormRepo) ActiveMembership(ctx context.Context, userID, orgID uint, now time.Time) (*models.MembershipSubscriber, error) {
	var s models.MembershipSubscriber
	err := r.DB.WithContext(ctx).Preload("Plan").
		Where("user_id = ? AND organization_id = ? AND status = ? AND ends_at > ?", userID, orgID, models.MembershipActive, now).
		Order("ends_at DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) CreateSubscriber(ctx context.Context, s *models.MembershipSubscriber) error {
	return r.DB.WithContext(ctx).Omit("Plan").Create(s).Error
}

func (r *GormRepo) SaveSubscriber(ctx context.Context, s *models.MembershipSubscriber) error {
	return r.DB.WithContext(ctx).Omit("Plan").Save(s).Error
}

func (r *GormRepo) ListMemberships(ctx context.Context, userID uint) ([]models.MembershipSubscriber, error) {
	out := make([]models.MembershipSubscriber, 0)
	if err := r.DB.WithContext(ctx).Preload("Plan").Where("user_id = ?", userID).Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ListSubscribers(ctx context.Context, s Scope, status string, w Window) (int64, []models.MembershipSubscriber, error) {
	q := applyOrgScope(r.DB.WithContext(ctx).Model(&models.MembershipSubscriber{}), s)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := make([]models.MembershipSubscriber, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out, "Plan")
	return total, out, err
}

// ExpireMemberships moves ACTIVE subscriptions past their end to EXPIRED.
func (r *GormRepo) ExpireMemberships(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.MembershipSubscriber{}).
		Where("status = ? AND ends_at <= ?", models.MembershipActive, now).
		Update("status", models.MembershipExpired)
	return res.RowsAffected, res.Error
}

// CustomerOfOrg reports whether a customer has ordered from, or holds points
// in, the organization.
func (r *GormRepo) CustomerOfOrg(ctx context.Context, userID, orgID uint) (bool, error) {
	var n int64
	stores := r.DB.WithContext(ctx).Model(&models.Store{}).Select("id").Where("organization_id = ?", orgID)
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("customer_id = ? AND store_id IN (?)", userID, stores).
		Count(&n).Error
	if err != nil || n > 0 {
		return n > 0, err
	}
	err = r.DB.WithContext(ctx).Model(&models.LoyaltyBalance{}).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Count(&n).Error
	return n > 0, err
}
