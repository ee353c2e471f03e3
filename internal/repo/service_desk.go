package repo

import (
	"context"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

func (r *GormRepo) CreateReturn(ctx context.Context, rr *models.ReturnRequest) error {
	return r.DB.WithContext(ctx).Create(rr).Error
}

func (r *GormRepo) GetReturn(ctx context.Context, id uint) (*models.ReturnRequest, error) {
	var rr models.ReturnRequest
	if err := r.DB.WithContext(ctx).Preload("Items").First(&rr, id).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *GormRepo) LockReturn(ctx context.Context, id uint) (*models.ReturnRequest, error) {
	var rr models.ReturnRequest
	if err := r.locked(ctx).First(&rr, id).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Where("return_request_id = ?", id).Find(&rr.Items).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *GormRepo) SaveReturn(ctx context.Context, rr *models.ReturnRequest) error {
	return r.DB.WithContext(ctx).Omit("Items").Save(rr).Error
}

type ReturnFilter struct {
	Scope  Scope
	Status string
}

func (r *GormRepo) ListReturns(ctx context.Context, f ReturnFilter, w Window) (int64, []models.ReturnRequest, error) {
	q := applyStoreScope(r.DB.WithContext(ctx).Model(&models.ReturnRequest{}), f.Scope, "store_id")
	q = excludeRiders(q, f.Scope)
	if f.Scope.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.Scope.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	out := make([]models.ReturnRequest, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out, "Items")
	return total, out, err
}

// ReturnedQuantities sums quantities per order item over non-rejected returns of an order.
func (r *GormRepo) ReturnedQuantities(ctx context.Context, orderID uint) (map[uint]int, error) {
	type row struct {
		OrderItemID uint
		Qty         int
	}
	var rows []row
	err := r.DB.WithContext(ctx).Table("return_items").
		Select("return_items.order_item_id AS order_item_id, SUM(return_items.quantity) AS qty").
		Joins("JOIN return_requests ON return_requests.id = return_items.return_request_id").
		Where("return_requests.order_id = ? AND return_requests.status <> ?", orderID, models.ReturnRejected).
		Group("return_items.order_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(rows))
	for _, rw := range rows {
		out[rw.OrderItemID] = rw.Qty
	}
	return out, nil
}

func (r *GormRepo) CreateTicket(ctx context.Context, t *models.SupportTicket) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetTicket(ctx context.Context, id uint, withInternal bool) (*models.SupportTicket, error) {
	var t models.SupportTicket
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	q := r.DB.WithContext(ctx).Where("ticket_id = ?", id)
	if !withInternal {
		q = q.Where("is_internal = ?", false)
	}
	t.Messages = make([]models.TicketMessage, 0)
	if err := q.Order("id ASC").Find(&t.Messages).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) SaveTicket(ctx context.Context, t *models.SupportTicket) error {
	return r.DB.WithContext(ctx).Omit("Messages").Save(t).Error
}

func (r *GormRepo) AddTicketMessage(ctx context.Context, m *models.TicketMessage) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

type TicketFilter struct {
	Scope        Scope
	Status       string
	Priority     string
	AssignedToID *uint
}

func (r *GormRepo) ListTickets(ctx context.Context, f TicketFilter, w Window) (int64, []models.SupportTicket, error) {
	q := excludeRiders(applyOrgScope(r.DB.WithContext(ctx).Model(&models.SupportTicket{}), f.Scope), f.Scope)
	if f.Scope.StoreID != nil {
		q = q.Where("store_id = ?", *f.Scope.StoreID)
	}
	if f.Scope.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.Scope.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	out := make([]models.SupportTicket, 0, w.Limit)
	total, err := findPage(q, w, "updated_at DESC, id DESC", &out)
	return total, out, err
}

func (r *GormRepo) CreateRating(ctx context.Context, sr *models.StoreRating) error {
	return r.DB.WithContext(ctx).Create(sr).Error
}

func (r *GormRepo) GetRating(ctx context.Context, id uint) (*models.StoreRating, error) {
	var sr models.StoreRating
	if err := r.DB.WithContext(ctx).First(&sr, id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *GormRepo) RatingExists(ctx context.Context, orderID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.StoreRating{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SaveRating(ctx context.Context, sr *models.StoreRating) error {
	return r.DB.WithContext(ctx).Save(sr).Error
}

func (r *GormRepo) ListRatings(ctx context.Context, storeID uint, includeHidden bool, w Window) (int64, []models.StoreRating, error) {
	q := r.DB.WithContext(ctx).Model(&models.StoreRating{}).Where("store_id = ?", storeID)
	if !includeHidden {
		q = q.Where("is_hidden = ?", false)
	}
	out := make([]models.StoreRating, 0, w.Limit)
	total, err := findPage(q, w, "id DESC", &out)
	return total, out, err
}

// RatingDistribution counts visible ratings of a store per star value.
func (r *GormRepo) RatingDistribution(ctx context.Context, storeID uint) (map[int]int64, error) {
	type row struct {
		Rating int
		N      int64
	}
	var rows []row
	err := r.DB.WithContext(ctx).Model(&models.StoreRating{}).
		Select("rating, COUNT(*) AS n").
		Where("store_id = ? AND is_hidden = ?", storeID, false).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, 5)
	for _, rw := range rows {
		out[rw.Rating] = rw.N
	}
	return out, nil
}
