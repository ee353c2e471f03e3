package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

type ProductFilter struct {
	StoreID       uint
	Q             string
	Category      string
	AvailableOnly bool
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, w Window) (int64, []models.StoreProduct, error) {
	q := r.DB.WithContext(ctx).Model(&models.StoreProduct{}).Where("store_id = ?", f.StoreID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if f.Q != "" {
		like := "%" + strings.ToLower(f.Q) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?", like, like, like)
	}
	items := make([]models.StoreProduct, 0, w.Limit)
	total, err := findPage(q, w, "name ASC, id ASC", &items)
	return total, items, err
}

func (r *GormRepo) GetProduct(ctx context.Context, storeID, id uint) (*models.StoreProduct, error) {
	var p models.StoreProduct
	if err := r.DB.WithContext(ctx).Where("store_id = ?", storeID).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.StoreProduct, error) {
	var items []models.StoreProduct
	if err := r.locked(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SKUTaken(ctx context.Context, storeID uint, sku string, exceptID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.StoreProduct{}).Where("store_id = ? AND sku = ?", storeID, sku)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.StoreProduct) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.StoreProduct) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, storeID, id uint) error {
	res := r.DB.WithContext(ctx).Where("store_id = ?", storeID).Delete(&models.StoreProduct{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock takes qty units only when enough are left.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.StoreProduct{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) IncrementStock(ctx context.Context, productID uint, qty int) error {
	return r.DB.WithContext(ctx).Model(&models.StoreProduct{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *GormRepo) SetStock(ctx context.Context, storeID, productID uint, stock int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.StoreProduct{}).
		Where("id = ? AND store_id = ?", productID, storeID).
		Update("stock", stock)
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) CreateSlot(ctx context.Context, s *models.DeliverySlot) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSlot(ctx context.Context, id uint) (*models.DeliverySlot, error) {
	var s models.DeliverySlot
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SaveSlot(ctx context.Context, s *models.DeliverySlot) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

type SlotFilter struct {
	StoreID       uint
	From          *time.Time
	AvailableOnly bool
}

func (r *GormRepo) ListSlots(ctx context.Context, f SlotFilter) ([]models.DeliverySlot, error) {
	q := r.DB.WithContext(ctx).Model(&models.DeliverySlot{}).Where("store_id = ?", f.StoreID)
	if f.From != nil {
		q = q.Where("starts_at >= ?", *f.From)
	}
	if f.AvailableOnly {
		q = q.Where("is_active = ? AND booked < capacity", true)
	}
	slots := make([]models.DeliverySlot, 0)
	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// BookSlot reserves one place when the slot is active, in the future and not full.
func (r *GormRepo) BookSlot(ctx context.Context, slotID, storeID uint, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.DeliverySlot{}).
		Where("id = ? AND store_id = ? AND is_active = ? AND booked < capacity AND starts_at > ?", slotID, storeID, true, now).
		Update("booked", gorm.Expr("booked + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) ReleaseSlot(ctx context.Context, slotID uint) error {
	return r.DB.WithContext(ctx).Model(&models.DeliverySlot{}).
		Where("id = ? AND booked > 0", slotID).
		Update("booked", gorm.Expr("booked - 1")).Error
}
