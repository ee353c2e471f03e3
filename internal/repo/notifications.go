package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateCampaign(ctx context.Context, c *models.NotificationCampaign) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCampaign(ctx context.Context, id uint) (*models.NotificationCampaign, error) {
	var c models.NotificationCampaign
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCampaigns(ctx context.Context, s Scope, w Window) (int64, []models.NotificationCampaign, error) {
	q := applyOrgScope(r.DB.WithContext(ctx).Model(&models.NotificationCampaign{}), s)
	if s.StoreID != nil {
		q = q.Where("store_id = ?", *s.StoreID)
	}
	out := make([]models.NotificationCampaign, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out)
	return total, out, err
}

// ClaimCampaign moves a QUEUED campaign to SENDING. It reports false when
// another dispatcher already claimed it.
func (r *GormRepo) ClaimCampaign(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.NotificationCampaign{}).
		Where("id = ? AND status = ?", id, models.CampaignQueued).
		Updates(map[string]any{"status": models.CampaignSending, "started_at": now})
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) AddCampaignProgress(ctx context.Context, id uint, sent, failed int) error {
	return r.DB.WithContext(ctx).Model(&models.NotificationCampaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sent_count":   gorm.Expr("sent_count + ?", sent),
			"failed_count": gorm.Expr("failed_count + ?", failed),
		}).Error
}

func (r *GormRepo) FinishCampaign(ctx context.Context, id uint, status, lastErr string, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.NotificationCampaign{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "last_error": lastErr, "completed_at": now}).Error
}

// AudienceQuery selects the ids of the customers a campaign targets. Every
// audience is limited to customers who ordered from the store, or from the
// organization when no store is set.
type AudienceQuery struct {
	Audience string
	OrgID    uint
	StoreID  *uint
	UserIDs  []uint
}

func (r *GormRepo) audience(ctx context.Context, a AudienceQuery) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleCustomer, true)

	ordersOf := func(storeScope Scope) *gorm.DB {
		sub := r.DB.WithContext(ctx).Model(&models.Order{}).Select("customer_id")
		return applyStoreScope(sub, storeScope, "store_id")
	}

	if a.Audience == models.AudienceUsers {
		q = q.Where("id IN ?", a.UserIDs)
	}
	if a.StoreID != nil {
		return q.Where("id IN (?)", ordersOf(Scope{StoreID: a.StoreID}))
	}
	return q.Where("id IN (?)", ordersOf(Scope{OrgID: &a.OrgID}))
}

func (r *GormRepo) CountAudience(ctx context.Context, a AudienceQuery) (int64, error) {
	var n int64
	err := r.audience(ctx, a).Count(&n).Error
	return n, err
}

// AudiencePage returns up to limit recipient ids greater than afterID.
func (r *GormRepo) AudiencePage(ctx context.Context, a AudienceQuery, afterID uint, limit int) ([]uint, error) {
	ids := make([]uint, 0, limit)
	err := r.audience(ctx, a).Where("id > ?", afterID).Order("id ASC").Limit(limit).Pluck("id", &ids).Error
	return ids, err
}

func (r *GormRepo) CreateNotifications(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(ns, 200).Error
}

func (r *GormRepo) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, w Window) (int64, []models.Notification, error) {
	q := r.DB.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	out := make([]models.Notification, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out)
	return total, out, err
}

func (r *GormRepo) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) MarkRead(ctx context.Context, userID, id uint, now time.Time) error {
	var n models.Notification
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&n, id).Error; err != nil {
		return err
	}
	if n.ReadAt != nil {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&n).Update("read_at", now).Error
}

func (r *GormRepo) MarkAllRead(ctx context.Context, userID uint, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now)
	return res.RowsAffected, res.Error
}

// UpsertDeviceToken moves an existing token to userID.
func (r *GormRepo) UpsertDeviceToken(ctx context.Context, t *models.DeviceToken) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(t).Error
}

func (r *GormRepo) DeviceTokens(ctx context.Context, userIDs []uint) ([]models.DeviceToken, error) {
	out := make([]models.DeviceToken, 0)
	if len(userIDs) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&out).Error
	return out, err
}

func (r *GormRepo) DeleteDeviceToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.DeviceToken{}).Error
}
