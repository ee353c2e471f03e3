package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

const (
	maxOrderLines = 100
	maxBulkOrders = 200
)

type OrderService struct {
	core
}

type orderLine struct {
	ProductID uint
	Quantity  int
}

// mergeLines validates requested items and folds repeated products into one line.
func mergeLines(items []transport.CreateOrderItem) ([]orderLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrValidation)
	}
	if len(items) > maxOrderLines {
		return nil, fmt.Errorf("%w: at most %d items per order", ErrValidation, maxOrderLines)
	}
	idx := make(map[uint]int, len(items))
	lines := make([]orderLine, 0, len(items))
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: each item needs product_id and a positive quantity", ErrValidation)
		}
		if i, ok := idx[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(lines)
		lines = append(lines, orderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines, nil
}

func normalizeOrderRequest(req *transport.CreateOrderRequest) error {
	if req.StoreID == 0 {
		return fmt.Errorf("%w: store_id required", ErrValidation)
	}
	req.FulfillmentType = strings.ToUpper(strings.TrimSpace(req.FulfillmentType))
	if req.FulfillmentType == "" {
		req.FulfillmentType = models.FulfillmentDelivery
	}
	req.PaymentMethod = strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCOD
	}
	if req.PaymentMethod != models.PaymentCOD && req.PaymentMethod != models.PaymentOnline {
		return fmt.Errorf("%w: payment_method must be COD or ONLINE", ErrValidation)
	}
	if req.RedeemPoints < 0 {
		return fmt.Errorf("%w: redeem_points must be >= 0", ErrValidation)
	}

	switch req.FulfillmentType {
	case models.FulfillmentPickup:
		if req.SlotID != nil {
			return fmt.Errorf("%w: pickup orders do not take a delivery slot", ErrValidation)
		}
		req.DeliveryType = ""
	case models.FulfillmentDelivery:
		req.DeliveryType = strings.ToUpper(strings.TrimSpace(req.DeliveryType))
		if req.DeliveryType == "" {
			req.DeliveryType = models.DeliveryExpress
		}
		switch req.DeliveryType {
		case models.DeliveryExpress:
			if req.SlotID != nil {
				return fmt.Errorf("%w: express orders do not take a delivery slot", ErrValidation)
			}
		case models.DeliveryScheduled:
			if req.SlotID == nil {
				return fmt.Errorf("%w: slot_id required for scheduled delivery", ErrValidation)
			}
		default:
			return fmt.Errorf("%w: delivery_type must be EXPRESS or SCHEDULED", ErrValidation)
		}
		if strings.TrimSpace(req.AddressLine) == "" {
			return fmt.Errorf("%w: address_line required for delivery", ErrValidation)
		}
		if err := validLatLng(req.Lat, req.Lng); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: fulfillment_type must be DELIVERY or PICKUP", ErrValidation)
	}
	return nil
}

func (s *OrderService) Create(ctx context.Context, a Actor, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.create")

	if err := normalizeOrderRequest(&req); err != nil {
		return nil, err
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var order *models.Order
	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		store, err := tx.GetStore(ctx, req.StoreID)
		if err != nil {
			return notFound(err, "store")
		}
		if !store.IsActive {
			return fmt.Errorf("%w: store is not accepting orders", ErrConflict)
		}

		ids := make([]uint, 0, len(lines))
		for _, ln := range lines {
			ids = append(ids, ln.ProductID)
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.StoreProduct, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		items := make([]models.OrderItem, 0, len(lines))
		var subtotal int64
		for _, ln := range lines {
			p, ok := byID[ln.ProductID]
			if !ok || p.StoreID != store.ID || !p.IsAvailable {
				return fmt.Errorf("%w: product %d is not available in this store", ErrValidation, ln.ProductID)
			}
			took, err := tx.DecrementStock(ctx, p.ID, ln.Quantity)
			if err != nil {
				return err
			}
			if !took {
				return fmt.Errorf("%w: insufficient stock for %s (available %d)", ErrConflict, p.Name, p.Stock)
			}
			lineTotal := p.Price * int64(ln.Quantity)
			subtotal += lineTotal
			items = append(items, models.OrderItem{
				StoreProductID: p.ID, Name: p.Name, Quantity: ln.Quantity, UnitPrice: p.Price, LineTotal: lineTotal,
			})
		}

		var discount int64
		couponCode := ""
		if strings.TrimSpace(req.CouponCode) != "" {
			c, d, err := quoteCoupon(ctx, tx, store, req.CouponCode, subtotal, now)
			if err != nil {
				return err
			}
			used, err := tx.UseCoupon(ctx, c.ID)
			if err != nil {
				return err
			}
			if !used {
				return fmt.Errorf("%w: coupon usage limit reached", ErrConflict)
			}
			discount, couponCode = d, c.Code
		}

		var fee int64
		if req.FulfillmentType == models.FulfillmentDelivery {
			fee = s.Business.ExpressDeliveryFee
			if req.DeliveryType == models.DeliveryScheduled {
				fee = s.Business.ScheduledDeliveryFee
			}
			plan, err := activePlan(ctx, tx, a.UserID, store.OrganizationID, now)
			if err != nil {
				return err
			}
			freeByValue := s.Business.FreeDeliveryThreshold > 0 && subtotal-discount >= s.Business.FreeDeliveryThreshold
			if freeByValue || (plan != nil && plan.FreeDelivery) {
				fee = 0
			}
		}

		if req.DeliveryType == models.DeliveryScheduled {
			booked, err := tx.BookSlot(ctx, *req.SlotID, store.ID, now)
			if err != nil {
				return err
			}
			if !booked {
				return fmt.Errorf("%w: delivery slot is full or unavailable", ErrConflict)
			}
		}

		payable := subtotal - discount + fee
		redeemValue := req.RedeemPoints * PointValue
		if redeemValue > payable {
			return fmt.Errorf("%w: redeem_points worth %d exceed payable amount %d", ErrValidation, redeemValue, payable)
		}
		total := payable - redeemValue

		paymentStatus := models.PaymentPending
		if req.PaymentMethod == models.PaymentOnline || total == 0 {
			paymentStatus = models.PaymentPaid
		}

		order = &models.Order{
			OrderNumber:     shortCode("ORD", 10),
			StoreID:         store.ID,
			CustomerID:      a.UserID,
			Status:          models.OrderPending,
			FulfillmentType: req.FulfillmentType,
			DeliveryType:    req.DeliveryType,
			SlotID:          req.SlotID,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   paymentStatus,
			Subtotal:        subtotal,
			Discount:        discount,
			PointsRedeemed:  req.RedeemPoints,
			DeliveryFee:     fee,
			Total:           total,
			CouponCode:      couponCode,
			AddressLine:     strings.TrimSpace(req.AddressLine),
			Lat:             req.Lat,
			Lng:             req.Lng,
			Items:           items,
		}
		if _, err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		if req.RedeemPoints > 0 {
			orderID := order.ID
			if _, err := movePoints(ctx, tx, pointsEntry{
				UserID: a.UserID, OrgID: store.OrganizationID, Points: -req.RedeemPoints,
				Type: models.LoyaltyRedeem, OrderID: &orderID, Note: "order " + order.OrderNumber,
			}); err != nil {
				return err
			}
		}

		if err := tx.AddStatusLog(ctx, &models.OrderStatusLog{
			OrderID: order.ID, FromStatus: "", ToStatus: models.OrderPending, ChangedByID: a.UserID,
		}); err != nil {
			return err
		}
		return notifyUser(ctx, tx, a.UserID, models.NotificationOrderStatus,
			"Order "+order.OrderNumber, "We have received your order.")
	})
	if err != nil {
		l.Info("order_rejected", "store_id", req.StoreID, "reason", err.Error())
		return nil, err
	}

	s.publishOrder(ctx, map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"store_id":     order.StoreID,
		"customer_id":  order.CustomerID,
		"total":        order.Total,
		"at":           now,
	})
	l.Info("order_created", "order_id", order.ID, "total", order.Total)
	return order, nil
}

// visible reports ErrNotFound for orders outside the actor's reach.
func visible(ctx context.Context, r *repo.GormRepo, a Actor, o *models.Order) error {
	switch a.Role {
	case models.RoleCustomer:
		if o.CustomerID != a.UserID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
	case models.RoleRider:
		if o.TripID == nil {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		t, err := r.LockTrip(ctx, *o.TripID)
		if err != nil {
			return notFound(err, "order")
		}
		if t.RiderID != a.UserID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
	default:
		if _, err := managedStore(ctx, r, a, o.StoreID); err != nil {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, a Actor, id uint) (*transport.OrderDetail, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := visible(ctx, s.Repo, a, o); err != nil {
		return nil, err
	}
	history, err := s.Repo.StatusLogs(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &transport.OrderDetail{Order: *o, AllowedNext: AllowedNext(o), History: history}, nil
}

type OrderQuery struct {
	Status  string
	StoreID *uint
	TripID  *uint
}

func (s *OrderService) List(ctx context.Context, a Actor, q OrderQuery, w repo.Window) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, repo.OrderFilter{
		Scope:   a.Scope(),
		Status:  strings.ToUpper(q.Status),
		StoreID: q.StoreID,
		TripID:  q.TripID,
	}, w)
}

func (s *OrderService) Transitions() transport.TransitionTables {
	return transport.TransitionTables{Delivery: DeliveryTransitions, Pickup: PickupTransitions, Trip: TripTransitions}
}

// UpdateStatus is the operator status route. Orders riding on a planned or
// running trip only move through the trip endpoints.
func (s *OrderService) UpdateStatus(ctx context.Context, a Actor, id uint, req transport.StatusRequest) (*models.Order, error) {
	if strings.TrimSpace(req.Status) == "" {
		return nil, fmt.Errorf("%w: status required", ErrValidation)
	}
	var (
		order *models.Order
		ev    map[string]any
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if err := visible(ctx, tx, a, o); err != nil {
			return err
		}
		if o.TripID != nil {
			t, err := tx.LockTrip(ctx, *o.TripID)
			if err != nil && !repo.IsNotFound(err) {
				return err
			}
			if t != nil && t.Active() {
				return fmt.Errorf("%w: order is on delivery trip %d, use the trip endpoints", ErrConflict, t.ID)
			}
		}
		ev, err = s.transitionOrder(ctx, tx, o, req.Status, a.UserID, strings.TrimSpace(req.Note))
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, ev)
	logging.FromContext(ctx).Info("order_status_changed", "svc", "orders.status", "order_id", order.ID, "status", order.Status)
	return order, nil
}

// BulkStatus moves each order on its own; one failure does not stop the rest.
func (s *OrderService) BulkStatus(ctx context.Context, a Actor, req transport.BulkStatusRequest) (*transport.BulkStatusResponse, error) {
	if len(req.OrderIDs) == 0 || len(req.OrderIDs) > maxBulkOrders {
		return nil, fmt.Errorf("%w: order_ids must hold 1..%d ids", ErrValidation, maxBulkOrders)
	}
	if strings.TrimSpace(req.Status) == "" {
		return nil, fmt.Errorf("%w: status required", ErrValidation)
	}

	seen := make(map[uint]bool, len(req.OrderIDs))
	resp := &transport.BulkStatusResponse{Results: make([]transport.BulkStatusResult, 0, len(req.OrderIDs))}
	for _, id := range req.OrderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		o, err := s.UpdateStatus(ctx, a, id, transport.StatusRequest{Status: req.Status, Note: req.Note})
		if err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, transport.BulkStatusResult{OrderID: id, Error: s.resultMessage(ctx, err)})
			continue
		}
		resp.Succeeded++
		resp.Results = append(resp.Results, transport.BulkStatusResult{OrderID: id, Success: true, Status: o.Status})
	}
	return resp, nil
}

func (s *OrderService) resultMessage(ctx context.Context, err error) string {
	for _, known := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrForbidden} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	logging.FromContext(ctx).Error("bulk_status_item_failed", "error", err)
	return "internal error"
}

// Cancel is the customer's own cancellation, open until packing starts.
func (s *OrderService) Cancel(ctx context.Context, a Actor, id uint, req transport.CancelOrderRequest) (*models.Order, error) {
	var (
		order *models.Order
		ev    map[string]any
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if o.CustomerID != a.UserID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		if o.Status != models.OrderPending && o.Status != models.OrderConfirmed {
			return fmt.Errorf("%w: order can no longer be cancelled (status %s)", ErrConflict, o.Status)
		}
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "cancelled by customer"
		}
		ev, err = s.transitionOrder(ctx, tx, o, models.OrderCancelled, a.UserID, reason)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, ev)
	return order, nil
}
