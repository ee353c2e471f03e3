package repo

import (
	"context"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder reads the order row for update inside a transaction.
func (r *GormRepo) LockOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.locked(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit("Items").Save(o).Error
}

type OrderFilter struct {
	Scope   Scope
	Status  string
	StoreID *uint
	TripID  *uint
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, w Window) (int64, []models.Order, error) {
	q := applyStoreScope(r.DB.WithContext(ctx).Model(&models.Order{}), f.Scope, "store_id")
	if f.Scope.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.Scope.CustomerID)
	}
	if f.Scope.RiderID != nil {
		q = q.Where("trip_id IN (?)", r.DB.WithContext(ctx).Model(&models.DeliveryTrip{}).
			Select("id").Where("rider_id = ?", *f.Scope.RiderID))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.TripID != nil {
		q = q.Where("trip_id = ?", *f.TripID)
	}
	orders := make([]models.Order, 0, w.Limit)
	total, err := findPage(q, w, "created_at DESC, id DESC", &orders)
	return total, orders, err
}

func (r *GormRepo) GetOrdersByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.locked(ctx).Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) TripOrders(ctx context.Context, tripID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Where("trip_id = ?", tripID).Order("trip_sequence ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) AddStatusLog(ctx context.Context, l *models.OrderStatusLog) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *GormRepo) StatusLogs(ctx context.Context, orderID uint) ([]models.OrderStatusLog, error) {
	logs := make([]models.OrderStatusLog, 0)
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CompletedOrderCount counts delivered or picked-up orders of a customer in an organization.
func (r *GormRepo) CompletedOrderCount(ctx context.Context, customerID, orgID uint) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("customer_id = ? AND status IN ?", customerID, []string{models.OrderDelivered, models.OrderPickedUp})
	q = applyStoreScope(q, Scope{OrgID: &orgID}, "store_id")
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
