package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

const maxTripOrders = 50

type TripService struct {
	core
}

func tripVisible(ctx context.Context, r *repo.GormRepo, a Actor, t *models.DeliveryTrip) error {
	if a.Is(models.RoleRider) {
		if t.RiderID != a.UserID {
			return fmt.Errorf("%w: delivery trip", ErrNotFound)
		}
		return nil
	}
	if _, err := managedStore(ctx, r, a, t.StoreID); err != nil {
		return fmt.Errorf("%w: delivery trip", ErrNotFound)
	}
	return nil
}

func (s *TripService) lockTrip(ctx context.Context, tx *repo.GormRepo, a Actor, id uint) (*models.DeliveryTrip, error) {
	t, err := tx.LockTrip(ctx, id)
	if err != nil {
		return nil, notFound(err, "delivery trip")
	}
	if err := tripVisible(ctx, tx, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TripService) publishTrip(ctx context.Context, typ string, t *models.DeliveryTrip, extra map[string]any) {
	ev := map[string]any{
		"type":     typ,
		"trip_id":  t.ID,
		"store_id": t.StoreID,
		"rider_id": t.RiderID,
		"status":   t.Status,
		"at":       s.now(),
	}
	for k, v := range extra {
		ev[k] = v
	}
	s.publish(ctx, events.TopicTrips, strconv.FormatUint(uint64(t.ID), 10), ev)
}

func (s *TripService) Create(ctx context.Context, a Actor, req transport.CreateTripRequest) (*models.DeliveryTrip, error) {
	l := logging.FromContext(ctx).With("svc", "trips.create")

	if req.StoreID == 0 || req.RiderID == 0 {
		return nil, fmt.Errorf("%w: store_id and rider_id required", ErrValidation)
	}
	if len(req.OrderIDs) == 0 || len(req.OrderIDs) > maxTripOrders {
		return nil, fmt.Errorf("%w: order_ids must hold 1..%d ids", ErrValidation, maxTripOrders)
	}
	seen := make(map[uint]bool, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: order %d listed twice", ErrValidation, id)
		}
		seen[id] = true
	}

	var trip *models.DeliveryTrip
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		store, err := managedStore(ctx, tx, a, req.StoreID)
		if err != nil {
			return err
		}
		rider, err := tx.LockUser(ctx, req.RiderID)
		if err != nil && !repo.IsNotFound(err) {
			return err
		}
		if rider == nil || rider.Role != models.RoleRider || !rider.IsActive ||
			rider.OrganizationID == nil || *rider.OrganizationID != store.OrganizationID {
			return fmt.Errorf("%w: rider_id is not an active rider of this organization", ErrValidation)
		}
		busy, err := tx.RiderHasActiveTrip(ctx, rider.ID)
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("%w: rider already has an active trip", ErrConflict)
		}

		orders, err := tx.GetOrdersByIDs(ctx, req.OrderIDs)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.Order, len(orders))
		for i := range orders {
			byID[orders[i].ID] = &orders[i]
		}

		var codExpected int64
		for _, id := range req.OrderIDs {
			o, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: order %d", ErrNotFound, id)
			}
			switch {
			case o.StoreID != store.ID:
				return fmt.Errorf("%w: order %s belongs to another store", ErrValidation, o.OrderNumber)
			case o.FulfillmentType != models.FulfillmentDelivery:
				return fmt.Errorf("%w: order %s is not a delivery order", ErrValidation, o.OrderNumber)
			case o.Status != models.OrderReady:
				return fmt.Errorf("%w: order %s is %s, not READY", ErrConflict, o.OrderNumber, o.Status)
			}
			if o.TripID != nil {
				prev, err := tx.LockTrip(ctx, *o.TripID)
				if err != nil && !repo.IsNotFound(err) {
					return err
				}
				if prev != nil && prev.Active() {
					return fmt.Errorf("%w: order %s is already on trip %d", ErrConflict, o.OrderNumber, prev.ID)
				}
			}
			if o.PaymentMethod == models.PaymentCOD && o.PaymentStatus != models.PaymentPaid {
				codExpected += o.Total
			}
		}

		trip = &models.DeliveryTrip{
			StoreID:     store.ID,
			RiderID:     rider.ID,
			Status:      models.TripPlanned,
			CODExpected: codExpected,
		}
		if err := tx.CreateTrip(ctx, trip); err != nil {
			return err
		}
		for i, id := range req.OrderIDs {
			o := byID[id]
			o.TripID = &trip.ID
			o.TripSequence = i + 1
			o.CODCollected = 0
			if err := tx.SaveOrder(ctx, o); err != nil {
				return err
			}
			trip.Orders = append(trip.Orders, *o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishTrip(ctx, "trip_created", trip, map[string]any{"order_ids": req.OrderIDs})
	l.Info("trip_created", "trip_id", trip.ID, "rider_id", trip.RiderID, "orders", len(req.OrderIDs))
	return trip, nil
}

type TripQuery struct {
	Status  string
	RiderID *uint
}

func (s *TripService) List(ctx context.Context, a Actor, q TripQuery, w repo.Window) (int64, []models.DeliveryTrip, error) {
	return s.Repo.ListTrips(ctx, repo.TripFilter{
		Scope:   a.Scope(),
		Status:  strings.ToUpper(q.Status),
		RiderID: q.RiderID,
	}, w)
}

func (s *TripService) Get(ctx context.Context, a Actor, id uint) (*models.DeliveryTrip, error) {
	t, err := s.Repo.GetTrip(ctx, id)
	if err != nil {
		return nil, notFound(err, "delivery trip")
	}
	if err := tripVisible(ctx, s.Repo, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Start sends the rider out: the trip goes IN_PROGRESS and every order OUT_FOR_DELIVERY.
func (s *TripService) Start(ctx context.Context, a Actor, id uint) (*models.DeliveryTrip, error) {
	var (
		trip   *models.DeliveryTrip
		orderE []map[string]any
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := s.lockTrip(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if !canMove(TripTransitions, t.Status, models.TripInProgress) {
			return fmt.Errorf("%w: trip is %s", ErrConflict, t.Status)
		}
		orders, err := tx.TripOrders(ctx, t.ID)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return fmt.Errorf("%w: trip has no orders", ErrConflict)
		}
		for i := range orders {
			ev, err := s.transitionOrder(ctx, tx, &orders[i], models.OrderOutForDelivery, a.UserID, "trip started")
			if err != nil {
				return err
			}
			orderE = append(orderE, ev)
		}
		now := s.now()
		t.Status = models.TripInProgress
		t.StartedAt = &now
		if err := tx.SaveTrip(ctx, t); err != nil {
			return err
		}
		t.Orders = orders
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, ev := range orderE {
		s.publishOrder(ctx, ev)
	}
	s.publishTrip(ctx, "trip_started", trip, nil)
	return trip, nil
}

func (s *TripService) tripOrder(ctx context.Context, tx *repo.GormRepo, a Actor, tripID, orderID uint) (*models.DeliveryTrip, *models.Order, error) {
	t, err := s.lockTrip(ctx, tx, a, tripID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != models.TripInProgress {
		return nil, nil, fmt.Errorf("%w: trip is %s", ErrConflict, t.Status)
	}
	o, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return nil, nil, notFound(err, "order")
	}
	if o.TripID == nil || *o.TripID != t.ID {
		return nil, nil, fmt.Errorf("%w: order is not on this trip", ErrNotFound)
	}
	return t, o, nil
}

func (s *TripService) Deliver(ctx context.Context, a Actor, tripID, orderID uint, req transport.DeliverRequest) (*models.Order, error) {
	var (
		order *models.Order
		ev    map[string]any
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, o, err := s.tripOrder(ctx, tx, a, tripID, orderID)
		if err != nil {
			return err
		}
		if o.PaymentMethod == models.PaymentCOD && o.PaymentStatus != models.PaymentPaid {
			if req.CODAmount == nil {
				return fmt.Errorf("%w: cod_amount required for cash orders", ErrValidation)
			}
			if *req.CODAmount < 0 {
				return fmt.Errorf("%w: cod_amount must be >= 0", ErrValidation)
			}
			o.CODCollected = *req.CODAmount
		}
		ev, err = s.transitionOrder(ctx, tx, o, models.OrderDelivered, a.UserID, "")
		if err != nil {
			return err
		}
		if o.CODCollected > 0 {
			t.CODCollected += o.CODCollected
			if err := tx.SaveTrip(ctx, t); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, ev)
	if order.CODCollected != order.Total && order.PaymentMethod == models.PaymentCOD {
		logging.FromContext(ctx).Warn("cod_amount_mismatch", "svc", "trips.deliver",
			"order_id", order.ID, "expected", order.Total, "collected", order.CODCollected)
	}
	return order, nil
}

func (s *TripService) Fail(ctx context.Context, a Actor, tripID, orderID uint, req transport.FailDeliveryRequest) (*models.Order, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason required", ErrValidation)
	}
	var (
		order *models.Order
		ev    map[string]any
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		_, o, err := s.tripOrder(ctx, tx, a, tripID, orderID)
		if err != nil {
			return err
		}
		ev, err = s.transitionOrder(ctx, tx, o, models.OrderDeliveryFailed, a.UserID, reason)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, ev)
	return order, nil
}

func (s *TripService) Complete(ctx context.Context, a Actor, id uint) (*models.DeliveryTrip, error) {
	var trip *models.DeliveryTrip
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := s.lockTrip(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if !canMove(TripTransitions, t.Status, models.TripCompleted) {
			return fmt.Errorf("%w: trip is %s", ErrConflict, t.Status)
		}
		orders, err := tx.TripOrders(ctx, t.ID)
		if err != nil {
			return err
		}
		pending := 0
		for _, o := range orders {
			if o.Status != models.OrderDelivered && o.Status != models.OrderDeliveryFailed {
				pending++
			}
		}
		if pending > 0 {
			return fmt.Errorf("%w: %d orders are still out for delivery", ErrConflict, pending)
		}
		now := s.now()
		t.Status = models.TripCompleted
		t.CompletedAt = &now
		if err := tx.SaveTrip(ctx, t); err != nil {
			return err
		}
		t.Orders = orders
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishTrip(ctx, "trip_completed", trip, map[string]any{"cod_collected": trip.CODCollected})
	return trip, nil
}

// Cancel drops a trip that has not started. Its orders stay READY and can be
// planned again.
func (s *TripService) Cancel(ctx context.Context, a Actor, id uint) (*models.DeliveryTrip, error) {
	var trip *models.DeliveryTrip
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := s.lockTrip(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if !canMove(TripTransitions, t.Status, models.TripCancelled) {
			return fmt.Errorf("%w: only planned trips can be cancelled (trip is %s)", ErrConflict, t.Status)
		}
		orders, err := tx.TripOrders(ctx, t.ID)
		if err != nil {
			return err
		}
		for i := range orders {
			orders[i].TripID = nil
			orders[i].TripSequence = 0
			if err := tx.SaveOrder(ctx, &orders[i]); err != nil {
				return err
			}
		}
		t.Status = models.TripCancelled
		if err := tx.SaveTrip(ctx, t); err != nil {
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishTrip(ctx, "trip_cancelled", trip, nil)
	return trip, nil
}

func (s *TripService) COD(ctx context.Context, a Actor, id uint) (*transport.CODSummary, error) {
	t, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, err
	}
	sum := &transport.CODSummary{
		TripID:        t.ID,
		RiderID:       t.RiderID,
		Status:        t.Status,
		Expected:      t.CODExpected,
		Collected:     t.CODCollected,
		Settled:       t.CashSettled,
		SettledAmount: t.SettledAmount,
		SettledAt:     t.SettledAt,
		Orders:        make([]transport.CODOrder, 0, len(t.Orders)),
	}
	if t.CashSettled {
		sum.Discrepancy = t.CODCollected - t.SettledAmount
	}
	for _, o := range t.Orders {
		if o.PaymentMethod != models.PaymentCOD {
			continue
		}
		sum.Orders = append(sum.Orders, transport.CODOrder{
			OrderID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, Total: o.Total, Collected: o.CODCollected,
		})
	}
	return sum, nil
}

// SettleCash records the cash a rider handed over for a completed trip.
func (s *TripService) SettleCash(ctx context.Context, a Actor, id uint, req transport.SettleCashRequest) (*transport.CODSummary, error) {
	l := logging.FromContext(ctx).With("svc", "trips.settle_cash")
	if req.AmountReceived < 0 {
		return nil, fmt.Errorf("%w: amount_received must be >= 0", ErrValidation)
	}
	var trip *models.DeliveryTrip
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := s.lockTrip(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if t.Status != models.TripCompleted {
			return fmt.Errorf("%w: trip must be COMPLETED before settlement (trip is %s)", ErrConflict, t.Status)
		}
		if t.CashSettled {
			return fmt.Errorf("%w: trip cash already settled", ErrConflict)
		}
		now := s.now()
		t.CashSettled = true
		t.SettledAmount = req.AmountReceived
		t.SettledAt = &now
		t.SettledByID = uintPtr(a.UserID)
		t.SettlementNote = strings.TrimSpace(req.Note)
		trip = t
		return tx.SaveTrip(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	discrepancy := trip.CODCollected - trip.SettledAmount
	if discrepancy != 0 {
		l.Warn("cash_discrepancy", "trip_id", trip.ID, "rider_id", trip.RiderID, "discrepancy", discrepancy)
	}
	s.publishTrip(ctx, "trip_cash_settled", trip, map[string]any{
		"collected": trip.CODCollected, "received": trip.SettledAmount, "discrepancy": discrepancy,
	})
	return s.COD(ctx, a, id)
}

// RiderCODPending totals the cash a rider still holds from completed trips.
func (s *TripService) RiderCODPending(ctx context.Context, a Actor, riderID uint) (*transport.RiderCODPending, error) {
	if a.Is(models.RoleRider) && riderID != a.UserID {
		return nil, fmt.Errorf("%w: rider", ErrNotFound)
	}
	scope := a.Scope()
	scope.RiderID = nil
	trips, err := s.Repo.UnsettledTrips(ctx, riderID, scope)
	if err != nil {
		return nil, err
	}
	out := &transport.RiderCODPending{RiderID: riderID, Trips: trips}
	for _, t := range trips {
		out.TotalHeld += t.CODCollected
	}
	return out, nil
}
