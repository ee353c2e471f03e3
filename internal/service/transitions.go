package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
)

// DeliveryTransitions lists the allowed next statuses of a DELIVERY order.
var DeliveryTransitions = map[string][]string{
	models.OrderPending:        {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:      {models.OrderPacking, models.OrderCancelled},
	models.OrderPacking:        {models.OrderReady, models.OrderCancelled},
	models.OrderReady:          {models.OrderOutForDelivery, models.OrderCancelled},
	models.OrderOutForDelivery: {models.OrderDelivered, models.OrderDeliveryFailed},
	models.OrderDeliveryFailed: {models.OrderReady, models.OrderCancelled},
}

// PickupTransitions lists the allowed next statuses of a PICKUP order.
var PickupTransitions = map[string][]string{
	models.OrderPending:        {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:      {models.OrderPacking, models.OrderCancelled},
	models.OrderPacking:        {models.OrderReadyForPickup, models.OrderCancelled},
	models.OrderReadyForPickup: {models.OrderPickedUp, models.OrderCancelled},
}

var TripTransitions = map[string][]string{
	models.TripPlanned:    {models.TripInProgress, models.TripCancelled},
	models.TripInProgress: {models.TripCompleted},
}

func tableFor(o *models.Order) map[string][]string {
	if o.FulfillmentType == models.FulfillmentPickup {
		return PickupTransitions
	}
	return DeliveryTransitions
}

// AllowedNext returns the statuses o may move to in one step.
func AllowedNext(o *models.Order) []string {
	next := tableFor(o)[o.Status]
	if next == nil {
		return []string{}
	}
	return slices.Clone(next)
}

func knownOrderStatus(s string) bool {
	switch s {
	case models.OrderPending, models.OrderConfirmed, models.OrderPacking, models.OrderReady,
		models.OrderOutForDelivery, models.OrderDelivered, models.OrderDeliveryFailed,
		models.OrderReadyForPickup, models.OrderPickedUp, models.OrderCancelled:
		return true
	}
	return false
}

func canMove(table map[string][]string, from, to string) bool {
	return slices.Contains(table[from], to)
}

// transitionOrder moves o one step to `to` and applies the side effects of
// the new status. It must run inside tx; the returned event is published by
// the caller after commit.
func (c *core) transitionOrder(ctx context.Context, tx *repo.GormRepo, o *models.Order, to string, actorID uint, note string) (map[string]any, error) {
	to = strings.ToUpper(strings.TrimSpace(to))
	from := o.Status
	if !knownOrderStatus(to) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, to)
	}
	if !canMove(tableFor(o), from, to) {
		return nil, fmt.Errorf("%w: cannot move order %s from %s to %s", ErrConflict, o.OrderNumber, from, to)
	}
	now := c.now()

	store, err := tx.GetStore(ctx, o.StoreID)
	if err != nil {
		return nil, err
	}

	o.Status = to
	switch to {
	case models.OrderCancelled:
		if err := c.onCancelled(ctx, tx, o, store.OrganizationID, actorID); err != nil {
			return nil, err
		}
		o.CancelReason = note
	case models.OrderDelivered, models.OrderPickedUp:
		o.DeliveredAt = &now
		if o.PaymentMethod == models.PaymentCOD {
			o.PaymentStatus = models.PaymentPaid
		}
		if err := c.onCompleted(ctx, tx, o, store.OrganizationID); err != nil {
			return nil, err
		}
	}

	if err := tx.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	if err := tx.AddStatusLog(ctx, &models.OrderStatusLog{
		OrderID: o.ID, FromStatus: from, ToStatus: to, ChangedByID: actorID, Note: note,
	}); err != nil {
		return nil, err
	}
	if err := notifyUser(ctx, tx, o.CustomerID, models.NotificationOrderStatus,
		"Order "+o.OrderNumber, orderStatusMessage(o)); err != nil {
		return nil, err
	}

	return map[string]any{
		"type":         "order_status_changed",
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"store_id":     o.StoreID,
		"customer_id":  o.CustomerID,
		"from":         from,
		"to":           to,
		"changed_by":   actorID,
		"at":           now,
	}, nil
}

// onCancelled returns everything the order had reserved.
func (c *core) onCancelled(ctx context.Context, tx *repo.GormRepo, o *models.Order, orgID, actorID uint) error {
	items, err := tx.GetOrderItems(ctx, o.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := tx.IncrementStock(ctx, it.StoreProductID, it.Quantity); err != nil {
			return err
		}
	}
	if o.SlotID != nil {
		if err := tx.ReleaseSlot(ctx, *o.SlotID); err != nil {
			return err
		}
	}
	if o.CouponCode != "" {
		if err := tx.ReleaseCoupon(ctx, orgID, o.CouponCode); err != nil {
			return err
		}
	}
	if o.PointsRedeemed > 0 {
		orderID := o.ID
		if _, err := movePoints(ctx, tx, pointsEntry{
			UserID: o.CustomerID, OrgID: orgID, Points: o.PointsRedeemed,
			Type: models.LoyaltyRefund, OrderID: &orderID, Note: "order cancelled", ByID: &actorID,
		}); err != nil {
			return err
		}
	}
	if o.PaymentMethod == models.PaymentOnline && o.PaymentStatus == models.PaymentPaid {
		o.PaymentStatus = models.PaymentRefunded
	}
	return nil
}

func (c *core) onCompleted(ctx context.Context, tx *repo.GormRepo, o *models.Order, orgID uint) error {
	plan, err := activePlan(ctx, tx, o.CustomerID, orgID, c.now())
	if err != nil {
		return err
	}
	multiplier := int64(100)
	if plan != nil && plan.PointsMultiplier > 0 {
		multiplier = plan.PointsMultiplier
	}
	if pts := earnedPoints(o.Total, c.Business.LoyaltyEarnPercent, multiplier); pts > 0 {
		orderID := o.ID
		if _, err := movePoints(ctx, tx, pointsEntry{
			UserID: o.CustomerID, OrgID: orgID, Points: pts,
			Type: models.LoyaltyEarn, OrderID: &orderID, Note: "order " + o.OrderNumber,
		}); err != nil {
			return err
		}
	}
	return completeReferral(ctx, tx, o, orgID, c.now())
}

func orderStatusMessage(o *models.Order) string {
	switch o.Status {
	case models.OrderConfirmed:
		return "Your order has been confirmed."
	case models.OrderPacking:
		return "We are packing your order."
	case models.OrderReady:
		return "Your order is packed and waiting for a rider."
	case models.OrderReadyForPickup:
		return "Your order is ready for pickup."
	case models.OrderOutForDelivery:
		return "Your order is on the way."
	case models.OrderDelivered:
		return "Your order has been delivered."
	case models.OrderPickedUp:
		return "Your order has been picked up."
	case models.OrderDeliveryFailed:
		return "We could not deliver your order."
	case models.OrderCancelled:
		return "Your order has been cancelled."
	}
	return "Your order is now " + o.Status + "."
}

func (c *core) publishOrder(ctx context.Context, ev map[string]any) {
	if ev == nil {
		return
	}
	c.publish(ctx, events.TopicOrders, fmt.Sprint(ev["order_id"]), ev)
}
