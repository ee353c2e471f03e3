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

type CouponService struct {
	core
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *CouponService) Create(ctx context.Context, a Actor, req transport.CouponRequest) (*models.Coupon, error) {
	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	storeID := req.StoreID
	if a.Is(models.RoleStoreManager) {
		storeID = a.StoreID
	}
	if storeID != nil {
		store, err := managedStore(ctx, s.Repo, a, *storeID)
		if err != nil {
			return nil, err
		}
		if store.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: store belongs to another organization", ErrValidation)
		}
	}
	c := &models.Coupon{
		OrganizationID: orgID,
		StoreID:        storeID,
		Code:           normalizeCode(req.Code),
		Type:           strings.ToUpper(req.Type),
		Value:          req.Value,
		MaxDiscount:    req.MaxDiscount,
		MinOrderValue:  req.MinOrderValue,
		UsageLimit:     req.UsageLimit,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		IsActive:       true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := validateCoupon(c); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetCouponByCode(ctx, orgID, c.Code); err == nil {
		return nil, fmt.Errorf("%w: coupon code already exists", ErrConflict)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}
	if err := s.Repo.CreateCoupon(ctx, c); err != nil {
		return nil, conflictOn(err, "coupon code already exists")
	}
	return c, nil
}

func validateCoupon(c *models.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code required", ErrValidation)
	}
	switch c.Type {
	case models.CouponFlat:
		if c.Value <= 0 {
			return fmt.Errorf("%w: value must be > 0", ErrValidation)
		}
	case models.CouponPercent:
		if c.Value <= 0 || c.Value > 100 {
			return fmt.Errorf("%w: percent value must be within 1..100", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: type must be FLAT or PERCENT", ErrValidation)
	}
	if c.MaxDiscount < 0 || c.MinOrderValue < 0 || c.UsageLimit < 0 {
		return fmt.Errorf("%w: limits must be >= 0", ErrValidation)
	}
	if c.StartsAt != nil && c.EndsAt != nil && !c.EndsAt.After(*c.StartsAt) {
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrValidation)
	}
	return nil
}

func (s *CouponService) load(ctx context.Context, a Actor, id uint) (*models.Coupon, error) {
	c, err := s.Repo.GetCoupon(ctx, id)
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	if !a.inOrg(c.OrganizationID) {
		return nil, fmt.Errorf("%w: coupon", ErrNotFound)
	}
	if a.Is(models.RoleStoreManager, models.RoleStaff) && (c.StoreID == nil || a.StoreID == nil || *c.StoreID != *a.StoreID) {
		return nil, fmt.Errorf("%w: coupon", ErrNotFound)
	}
	return c, nil
}

func (s *CouponService) Get(ctx context.Context, a Actor, id uint) (*models.Coupon, error) {
	return s.load(ctx, a, id)
}

func (s *CouponService) Patch(ctx context.Context, a Actor, id uint, req transport.PatchCouponRequest) (*models.Coupon, error) {
	c, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if req.Value != nil {
		c.Value = *req.Value
	}
	if req.MaxDiscount != nil {
		c.MaxDiscount = *req.MaxDiscount
	}
	if req.MinOrderValue != nil {
		c.MinOrderValue = *req.MinOrderValue
	}
	if req.UsageLimit != nil {
		c.UsageLimit = *req.UsageLimit
	}
	if req.StartsAt != nil {
		c.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		c.EndsAt = req.EndsAt
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := validateCoupon(c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCoupon(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, a Actor, id uint) error {
	if _, err := s.load(ctx, a, id); err != nil {
		return err
	}
	return notFound(s.Repo.DeleteCoupon(ctx, id), "coupon")
}

func (s *CouponService) List(ctx context.Context, a Actor, w repo.Window) (int64, []models.Coupon, error) {
	return s.Repo.ListCoupons(ctx, a.Scope(), w)
}

// Validate quotes the discount a code gives on subtotal at storeID.
func (s *CouponService) Validate(ctx context.Context, req transport.ValidateCouponRequest) (*transport.CouponQuote, error) {
	store, err := s.Repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return nil, notFound(err, "store")
	}
	c, discount, err := quoteCoupon(ctx, s.Repo, store, req.Code, req.Subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &transport.CouponQuote{Code: c.Code, Discount: discount, Valid: true}, nil
}

// quoteCoupon checks a code against a store and subtotal and returns the discount.
func quoteCoupon(ctx context.Context, r *repo.GormRepo, store *models.Store, code string, subtotal int64, now time.Time) (*models.Coupon, int64, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, 0, fmt.Errorf("%w: code required", ErrValidation)
	}
	if subtotal < 0 {
		return nil, 0, fmt.Errorf("%w: subtotal must be >= 0", ErrValidation)
	}
	c, err := r.GetCouponByCode(ctx, store.OrganizationID, code)
	if err != nil {
		return nil, 0, notFound(err, "coupon")
	}
	switch {
	case !c.IsActive:
		return nil, 0, fmt.Errorf("%w: coupon is inactive", ErrValidation)
	case c.StoreID != nil && *c.StoreID != store.ID:
		return nil, 0, fmt.Errorf("%w: coupon is not valid for this store", ErrValidation)
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return nil, 0, fmt.Errorf("%w: coupon is not active yet", ErrValidation)
	case c.EndsAt != nil && !now.Before(*c.EndsAt):
		return nil, 0, fmt.Errorf("%w: coupon has expired", ErrValidation)
	case subtotal < c.MinOrderValue:
		return nil, 0, fmt.Errorf("%w: order below coupon minimum of %d", ErrValidation, c.MinOrderValue)
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return nil, 0, fmt.Errorf("%w: coupon usage limit reached", ErrValidation)
	}
	return c, couponDiscount(c, subtotal), nil
}

func couponDiscount(c *models.Coupon, subtotal int64) int64 {
	var d int64
	switch c.Type {
	case models.CouponFlat:
		d = c.Value
	case models.CouponPercent:
		d = subtotal * c.Value / 100
		if c.MaxDiscount > 0 && d > c.MaxDiscount {
			d = c.MaxDiscount
		}
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}
