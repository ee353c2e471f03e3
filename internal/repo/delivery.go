package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateTrip(ctx context.Context, t *models.DeliveryTrip) error {
	return r.DB.WithContext(ctx).Omit("Orders").Create(t).Error
}

func (r *GormRepo) GetTrip(ctx context.Context, id uint) (*models.DeliveryTrip, error) {
	var t models.DeliveryTrip
	err := r.DB.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("trip_sequence ASC") }).
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) LockTrip(ctx context.Context, id uint) (*models.DeliveryTrip, error) {
	var t models.DeliveryTrip
	if err := r.locked(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) SaveTrip(ctx context.Context, t *models.DeliveryTrip) error {
	return r.DB.WithContext(ctx).Omit("Orders").Save(t).Error
}

type TripFilter struct {
	Scope   Scope
	Status  string
	RiderID *uint
}

func (r *GormRepo) ListTrips(ctx context.Context, f TripFilter, w Window) (int64, []models.DeliveryTrip, error) {
	q := applyStoreScope(r.DB.WithContext(ctx).Model(&models.DeliveryTrip{}), f.Scope, "store_id")
	if f.Scope.RiderID != nil {
		q = q.Where("rider_id = ?", *f.Scope.RiderID)
	}
	if f.RiderID != nil {
		q = q.Where("rider_id = ?", *f.RiderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	trips := make([]models.DeliveryTrip, 0, w.Limit)
	total, err := findPage(q, w, "created_at DESC, id DESC", &trips)
	return total, trips, err
}

func (r *GormRepo) RiderHasActiveTrip(ctx context.Context, riderID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.DeliveryTrip{}).
		Where("rider_id = ? AND status IN ?", riderID, []string{models.TripPlanned, models.TripInProgress}).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) ActiveTripForRider(ctx context.Context, riderID uint) (*models.DeliveryTrip, error) {
	var t models.DeliveryTrip
	err := r.DB.WithContext(ctx).
		Where("rider_id = ? AND status = ?", riderID, models.TripInProgress).
		Order("id DESC").First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UnsettledTrips lists completed trips of a rider whose cash is not yet settled.
func (r *GormRepo) UnsettledTrips(ctx context.Context, riderID uint, s Scope) ([]models.DeliveryTrip, error) {
	q := applyStoreScope(r.DB.WithContext(ctx).Model(&models.DeliveryTrip{}), s, "store_id").
		Where("rider_id = ? AND status = ? AND cash_settled = ?", riderID, models.TripCompleted, false)
	trips := make([]models.DeliveryTrip, 0)
	if err := q.Order("completed_at ASC").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *GormRepo) AddLocation(ctx context.Context, l *models.RiderLocation) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *GormRepo) LatestLocation(ctx context.Context, riderID uint) (*models.RiderLocation, error) {
	var l models.RiderLocation
	if err := r.DB.WithContext(ctx).Where("rider_id = ?", riderID).Order("recorded_at DESC, id DESC").First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}
