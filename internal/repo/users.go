package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// LockUser reads the user row for update. Trip creation holds it so one rider
// never ends up with two active trips.
func (r *GormRepo) LockUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.locked(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("referral_code = ?", code).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type UserFilter struct {
	Scope Scope
	Role  string
	Q     string
}

func (r *GormRepo) ListUsers(ctx context.Context, f UserFilter, w Window) (int64, []models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if f.Scope.StoreID != nil {
		q = q.Where("store_id = ?", *f.Scope.StoreID)
	} else if f.Scope.OrgID != nil {
		q = q.Where("organization_id = ?", *f.Scope.OrgID)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	users := make([]models.User, 0, w.Limit)
	total, err := findPage(q, w, "id ASC", &users)
	return total, users, err
}

func (r *GormRepo) CreateOrganization(ctx context.Context, o *models.Organization) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetOrganization(ctx context.Context, id uint) (*models.Organization, error) {
	var o models.Organization
	if err := r.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrganizations(ctx context.Context, w Window) (int64, []models.Organization, error) {
	orgs := make([]models.Organization, 0, w.Limit)
	total, err := findPage(r.DB.WithContext(ctx).Model(&models.Organization{}), w, "id ASC", &orgs)
	return total, orgs, err
}

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SaveStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) ListStores(ctx context.Context, s Scope, w Window) (int64, []models.Store, error) {
	q := r.DB.WithContext(ctx).Model(&models.Store{})
	if s.StoreID != nil {
		q = q.Where("id = ?", *s.StoreID)
	} else if s.OrgID != nil {
		q = q.Where("organization_id = ?", *s.OrgID)
	}
	stores := make([]models.Store, 0, w.Limit)
	total, err := findPage(q, w, "id ASC", &stores)
	return total, stores, err
}

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.locked(ctx).Where("jti = ?", jti).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeRefreshToken flips revoked once; it reports false when the token was
// already revoked or does not exist.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true)
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
