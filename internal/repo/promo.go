package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCoupon(ctx context.Context, id uint) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCouponByCode(ctx context.Context, orgID uint, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).Where("organization_id = ? AND code = ?", orgID, code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) SaveCoupon(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListCoupons(ctx context.Context, s Scope, w Window) (int64, []models.Coupon, error) {
	q := applyOrgScope(r.DB.WithContext(ctx).Model(&models.Coupon{}), s)
	if s.StoreID != nil {
		q = q.Where("store_id = ?", *s.StoreID)
	}
	items := make([]models.Coupon, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &items)
	return total, items, err
}

// UseCoupon counts one redemption while the usage limit allows it.
func (r *GormRepo) UseCoupon(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) ReleaseCoupon(ctx context.Context, orgID uint, code string) error {
	return r.DB.WithContext(ctx).Model(&models.Coupon{}).
		Where("organization_id = ? AND code = ? AND used_count > 0", orgID, code).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}

func (r *GormRepo) CreateBanner(ctx context.Context, b *models.Banner) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) GetBanner(ctx context.Context, id uint) (*models.Banner, error) {
	var b models.Banner
	if err := r.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) SaveBanner(ctx context.Context, b *models.Banner) error {
	return r.DB.WithContext(ctx).Save(b).Error
}

func (r *GormRepo) DeleteBanner(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Banner{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListBanners(ctx context.Context, s Scope, w Window) (int64, []models.Banner, error) {
	q := applyOrgScope(r.DB.WithContext(ctx).Model(&models.Banner{}), s)
	if s.StoreID != nil {
		q = q.Where("store_id = ?", *s.StoreID)
	}
	items := make([]models.Banner, 0, w.Limit)
	total, err := findPage(q, w, "position ASC, id ASC", &items)
	return total, items, err
}

// ActiveBanners returns org-wide banners plus those of storeID, live at now.
func (r *GormRepo) ActiveBanners(ctx context.Context, orgID uint, storeID *uint, now time.Time) ([]models.Banner, error) {
	q := r.DB.WithContext(ctx).Model(&models.Banner{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Where("(starts_at IS NULL OR starts_at <= ?) AND (ends_at IS NULL OR ends_at > ?)", now, now)
	if storeID != nil {
		q = q.Where("store_id IS NULL OR store_id = ?", *storeID)
	} else {
		q = q.Where("store_id IS NULL")
	}
	items := make([]models.Banner, 0)
	if err := q.Order("position ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
