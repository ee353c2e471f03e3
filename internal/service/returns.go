package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

type ReturnService struct {
	core
}

func (s *ReturnService) Create(ctx context.Context, a Actor, req transport.CreateReturnRequest) (*models.ReturnRequest, error) {
	l := logging.FromContext(ctx).With("svc", "returns.create")

	reason := strings.TrimSpace(req.Reason)
	if req.OrderID == 0 || reason == "" {
		return nil, fmt.Errorf("%w: order_id and reason required", ErrValidation)
	}
	method := strings.ToUpper(strings.TrimSpace(req.RefundMethod))
	if method == "" {
		method = models.RefundPoints
	}
	if method != models.RefundPoints && method != models.RefundOriginal {
		return nil, fmt.Errorf("%w: refund_method must be POINTS or ORIGINAL", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	wanted := make(map[uint]int, len(req.Items))
	itemIDs := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.OrderItemID == 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: each item needs order_item_id and a positive quantity", ErrValidation)
		}
		if _, ok := wanted[it.OrderItemID]; !ok {
			itemIDs = append(itemIDs, it.OrderItemID)
		}
		wanted[it.OrderItemID] += it.Quantity
	}

	var rr *models.ReturnRequest
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.LockOrder(ctx, req.OrderID)
		if err != nil {
			return notFound(err, "order")
		}
		if o.CustomerID != a.UserID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		if !o.IsCompleted() || o.DeliveredAt == nil {
			return fmt.Errorf("%w: only delivered or picked-up orders can be returned", ErrConflict)
		}
		window := time.Duration(s.Business.ReturnWindowDays) * 24 * time.Hour
		if s.now().After(o.DeliveredAt.Add(window)) {
			return fmt.Errorf("%w: return window of %d days has closed", ErrConflict, s.Business.ReturnWindowDays)
		}

		items, err := tx.GetOrderItems(ctx, o.ID)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.OrderItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		returned, err := tx.ReturnedQuantities(ctx, o.ID)
		if err != nil {
			return err
		}

		rr = &models.ReturnRequest{
			OrderID:      o.ID,
			CustomerID:   a.UserID,
			StoreID:      o.StoreID,
			Reason:       reason,
			Status:       models.ReturnRequested,
			RefundMethod: method,
		}
		for _, id := range itemIDs {
			it, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: item %d is not part of this order", ErrValidation, id)
			}
			left := it.Quantity - returned[id]
			if wanted[id] > left {
				return fmt.Errorf("%w: only %d of %s can still be returned", ErrValidation, left, it.Name)
			}
			rr.RefundAmount += it.UnitPrice * int64(wanted[id])
			rr.Items = append(rr.Items, models.ReturnItem{OrderItemID: id, Quantity: wanted[id]})
		}
		if rr.RefundAmount > o.Total {
			rr.RefundAmount = o.Total
		}
		return tx.CreateReturn(ctx, rr)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicOrders, fmt.Sprint(rr.OrderID), map[string]any{
		"type": "return_requested", "return_id": rr.ID, "order_id": rr.OrderID, "amount": rr.RefundAmount, "at": s.now(),
	})
	l.Info("return_requested", "return_id", rr.ID, "order_id", rr.OrderID, "amount", rr.RefundAmount)
	return rr, nil
}

func (s *ReturnService) visible(ctx context.Context, r *repo.GormRepo, a Actor, rr *models.ReturnRequest) error {
	if a.Is(models.RoleCustomer) {
		if rr.CustomerID != a.UserID {
			return fmt.Errorf("%w: return", ErrNotFound)
		}
		return nil
	}
	if !a.Staff() {
		return fmt.Errorf("%w: return", ErrNotFound)
	}
	if _, err := managedStore(ctx, r, a, rr.StoreID); err != nil {
		return fmt.Errorf("%w: return", ErrNotFound)
	}
	return nil
}

func (s *ReturnService) Get(ctx context.Context, a Actor, id uint) (*models.ReturnRequest, error) {
	rr, err := s.Repo.GetReturn(ctx, id)
	if err != nil {
		return nil, notFound(err, "return")
	}
	if err := s.visible(ctx, s.Repo, a, rr); err != nil {
		return nil, err
	}
	return rr, nil
}

func (s *ReturnService) List(ctx context.Context, a Actor, status string, w repo.Window) (int64, []models.ReturnRequest, error) {
	return s.Repo.ListReturns(ctx, repo.ReturnFilter{Scope: a.Scope(), Status: strings.ToUpper(status)}, w)
}

func (s *ReturnService) review(ctx context.Context, a Actor, id uint, fn func(tx *repo.GormRepo, rr *models.ReturnRequest) error) (*models.ReturnRequest, error) {
	var out *models.ReturnRequest
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		rr, err := tx.LockReturn(ctx, id)
		if err != nil {
			return notFound(err, "return")
		}
		if err := s.visible(ctx, tx, a, rr); err != nil {
			return err
		}
		if rr.Status != models.ReturnRequested {
			return fmt.Errorf("%w: return already %s", ErrConflict, rr.Status)
		}
		rr.ReviewedByID = uintPtr(a.UserID)
		if err := fn(tx, rr); err != nil {
			return err
		}
		if err := tx.SaveReturn(ctx, rr); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicOrders, fmt.Sprint(out.OrderID), map[string]any{
		"type": "return_reviewed", "return_id": out.ID, "order_id": out.OrderID, "status": out.Status, "at": s.now(),
	})
	return out, nil
}

// Approve settles a return. Points refunds are credited at once at one point
// per PointValue; refunds to the original method leave the return APPROVED.
func (s *ReturnService) Approve(ctx context.Context, a Actor, id uint, req transport.ApproveReturnRequest) (*models.ReturnRequest, error) {
	return s.review(ctx, a, id, func(tx *repo.GormRepo, rr *models.ReturnRequest) error {
		amount := rr.RefundAmount
		if req.RefundAmount != nil {
			if *req.RefundAmount < 0 || *req.RefundAmount > rr.RefundAmount {
				return fmt.Errorf("%w: refund_amount must be between 0 and %d", ErrValidation, rr.RefundAmount)
			}
			amount = *req.RefundAmount
		}
		rr.RefundAmount = amount
		rr.ReviewNote = strings.TrimSpace(req.Note)

		if req.Restock {
			items, err := tx.GetOrderItems(ctx, rr.OrderID)
			if err != nil {
				return err
			}
			products := make(map[uint]uint, len(items))
			for _, it := range items {
				products[it.ID] = it.StoreProductID
			}
			for _, ri := range rr.Items {
				if err := tx.IncrementStock(ctx, products[ri.OrderItemID], ri.Quantity); err != nil {
					return err
				}
			}
		}

		store, err := tx.GetStore(ctx, rr.StoreID)
		if err != nil {
			return err
		}
		switch rr.RefundMethod {
		case models.RefundPoints:
			orderID := rr.OrderID
			if _, err := movePoints(ctx, tx, pointsEntry{
				UserID: rr.CustomerID, OrgID: store.OrganizationID, Points: amount / PointValue,
				Type: models.LoyaltyRefund, OrderID: &orderID, Note: fmt.Sprintf("return #%d", rr.ID), ByID: &a.UserID,
			}); err != nil {
				return err
			}
			rr.Status = models.ReturnRefunded
		default:
			o, err := tx.LockOrder(ctx, rr.OrderID)
			if err != nil {
				return err
			}
			o.PaymentStatus = models.PaymentRefunded
			if err := tx.SaveOrder(ctx, o); err != nil {
				return err
			}
			rr.Status = models.ReturnApproved
		}
		return notifyUser(ctx, tx, rr.CustomerID, models.NotificationOrderStatus, "Return approved",
			fmt.Sprintf("Your return #%d was approved. Refund: %d.", rr.ID, amount))
	})
}

func (s *ReturnService) Reject(ctx context.Context, a Actor, id uint, req transport.RejectReturnRequest) (*models.ReturnRequest, error) {
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, fmt.Errorf("%w: note required", ErrValidation)
	}
	return s.review(ctx, a, id, func(tx *repo.GormRepo, rr *models.ReturnRequest) error {
		rr.Status = models.ReturnRejected
		rr.ReviewNote = note
		return notifyUser(ctx, tx, rr.CustomerID, models.NotificationOrderStatus, "Return rejected",
			fmt.Sprintf("Your return #%d was rejected: %s", rr.ID, note))
	})
}
