package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
)

func TestMergeLines(t *testing.T) {
	t.Parallel()

	lines, err := mergeLines([]transport.CreateOrderItem{item(1, 1), item(2, 3), item(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, []orderLine{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 3}}, lines)

	_, err = mergeLines(nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = mergeLines([]transport.CreateOrderItem{item(1, 0)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeOrderRequest(t *testing.T) {
	t.Parallel()

	slot := uint(4)
	cases := []struct {
		name string
		req  transport.CreateOrderRequest
		ok   bool
	}{
		{"defaults to express cod delivery", deliveryOrder(1), true},
		{"missing store", deliveryOrder(0), false},
		{"express with slot", func() transport.CreateOrderRequest {
			r := deliveryOrder(1)
			r.SlotID = &slot
			return r
		}(), false},
		{"scheduled without slot", func() transport.CreateOrderRequest {
			r := deliveryOrder(1)
			r.DeliveryType = "scheduled"
			return r
		}(), false},
		{"delivery without address", transport.CreateOrderRequest{StoreID: 1}, false},
		{"pickup needs no address", transport.CreateOrderRequest{StoreID: 1, FulfillmentType: "pickup"}, true},
		{"unknown payment", func() transport.CreateOrderRequest {
			r := deliveryOrder(1)
			r.PaymentMethod = "CARD"
			return r
		}(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			err := normalizeOrderRequest(&req)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestOrders_CreateComputesTotalsAndReservesStock(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	bread := f.product("Bread", 4500, 3)

	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer),
		deliveryOrder(f.Store.ID, item(milk.ID, 1), item(bread.ID, 1), item(milk.ID, 1)))
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.DeliveryExpress, o.DeliveryType)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.EqualValues(t, 16500, o.Subtotal)
	assert.EqualValues(t, 4900, o.DeliveryFee)
	assert.EqualValues(t, 21400, o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 2, o.Items[0].Quantity)

	assert.Equal(t, 8, f.stock(milk.ID))
	assert.Equal(t, 2, f.stock(bread.ID))
	assert.Equal(t, []string{"order_created"}, f.eventTypes(events.TopicOrders))

	detail, err := f.Svc.Orders.Get(f.ctx, f.actor(f.Customer), o.ID)
	require.NoError(t, err)
	require.Len(t, detail.History, 1)
	assert.Equal(t, models.OrderPending, detail.History[0].ToStatus)
	assert.Equal(t, []string{models.OrderConfirmed, models.OrderCancelled}, detail.AllowedNext)

	n, err := f.Svc.Notifications.UnreadCount(f.ctx, f.actor(f.Customer))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOrders_FreeDeliveryAboveThreshold(t *testing.T) {
	f := newFixture(t)
	tv := f.product("Television", 50000, 2)

	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(tv.ID, 1)))
	require.NoError(t, err)
	assert.Zero(t, o.DeliveryFee)
	assert.EqualValues(t, 50000, o.Total)
}

func TestOrders_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 5)
	eggs := f.product("Eggs", 3000, 1)

	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer),
		deliveryOrder(f.Store.ID, item(milk.ID, 2), item(eggs.ID, 3)))
	require.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, 5, f.stock(milk.ID))
	assert.Equal(t, 1, f.stock(eggs.ID))
	var count int64
	require.NoError(t, f.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.Events.Events(events.TopicOrders))
}

func TestOrders_RejectsUnavailableProductAndClosedStore(t *testing.T) {
	f := newFixture(t)
	hidden := f.product("Seasonal", 1000, 5)
	require.NoError(t, f.DB.Model(&hidden).Update("is_available", false).Error)

	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(hidden.ID, 1)))
	assert.ErrorIs(t, err, ErrValidation)

	milk := f.product("Milk 1L", 6000, 5)
	require.NoError(t, f.DB.Model(&f.Store).Update("is_active", false).Error)
	_, err = f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOrders_RedeemPointsAndRefundOnCancel(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	f.grant(f.Customer.ID, 50)

	req := deliveryOrder(f.Store.ID, item(milk.ID, 2))
	req.RedeemPoints = 30
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	require.NoError(t, err)
	assert.EqualValues(t, 12000+4900-3000, o.Total)
	assert.EqualValues(t, 20, f.points(f.Customer.ID))

	cancelled, err := f.Svc.Orders.Cancel(f.ctx, f.actor(f.Customer), o.ID, transport.CancelOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, "cancelled by customer", cancelled.CancelReason)
	assert.EqualValues(t, 50, f.points(f.Customer.ID))
	assert.Equal(t, 10, f.stock(milk.ID))
}

func TestOrders_RedeemLimits(t *testing.T) {
	f := newFixture(t)
	gum := f.product("Gum", 1000, 10)

	req := deliveryOrder(f.Store.ID, item(gum.ID, 1))
	req.RedeemPoints = 60
	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	assert.ErrorIs(t, err, ErrValidation, "points worth more than the payable amount")

	req.RedeemPoints = 10
	_, err = f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	assert.ErrorIs(t, err, ErrConflict, "no balance to redeem from")
	assert.Equal(t, 10, f.stock(gum.ID))
}

func TestOrders_StatusGuards(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)

	mgr := f.actor(f.Manager)
	_, err = f.Svc.Orders.UpdateStatus(f.ctx, mgr, o.ID, transport.StatusRequest{Status: models.OrderDelivered})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.Svc.Orders.UpdateStatus(f.ctx, mgr, o.ID, transport.StatusRequest{Status: "SHIPPED"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.Svc.Orders.UpdateStatus(f.ctx, mgr, o.ID, transport.StatusRequest{Status: models.OrderReadyForPickup})
	assert.ErrorIs(t, err, ErrConflict, "pickup status on a delivery order")

	f.advance(o.ID, "confirmed", models.OrderPacking)
	_, err = f.Svc.Orders.Cancel(f.ctx, f.actor(f.Customer), o.ID, transport.CancelOrderRequest{})
	assert.ErrorIs(t, err, ErrConflict, "customers cannot cancel once packing started")

	other := f.user(models.RoleCustomer, false)
	_, err = f.Svc.Orders.Get(f.ctx, f.actor(other), o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := f.Svc.Orders.Get(f.ctx, mgr, o.ID)
	require.NoError(t, err)
	assert.Len(t, detail.History, 3)
	assert.Equal(t, []string{models.OrderReady, models.OrderCancelled}, detail.AllowedNext)
}

func TestOrders_PickupCompletionEarnsPoints(t *testing.T) {
	f := newFixture(t)
	basket := f.product("Weekly basket", 24900, 3)

	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), transport.CreateOrderRequest{
		StoreID: f.Store.ID, FulfillmentType: models.FulfillmentPickup, Items: []transport.CreateOrderItem{item(basket.ID, 1)},
	})
	require.NoError(t, err)
	assert.Zero(t, o.DeliveryFee)
	assert.Empty(t, o.DeliveryType)

	f.advance(o.ID, models.OrderConfirmed, models.OrderPacking, models.OrderReadyForPickup, models.OrderPickedUp)

	detail, err := f.Svc.Orders.Get(f.ctx, f.actor(f.Customer), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, detail.PaymentStatus)
	assert.NotNil(t, detail.DeliveredAt)
	assert.Empty(t, detail.AllowedNext)
	assert.EqualValues(t, 2, f.points(f.Customer.ID))
}

func TestOrders_OnlinePaymentRefundedOnCancel(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)

	req := deliveryOrder(f.Store.ID, item(milk.ID, 1))
	req.PaymentMethod = "online"
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)

	got, err := f.Svc.Orders.UpdateStatus(f.ctx, f.actor(f.Manager), o.ID,
		transport.StatusRequest{Status: models.OrderCancelled, Note: "out of milk"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, "out of milk", got.CancelReason)
}

func TestOrders_BulkStatusIsPerOrder(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	a, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	b, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	f.advance(b.ID, models.OrderConfirmed)

	resp, err := f.Svc.Orders.BulkStatus(f.ctx, f.actor(f.Staff), transport.BulkStatusRequest{
		OrderIDs: []uint{a.ID, b.ID, a.ID, 9999},
		Status:   models.OrderConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, models.OrderConfirmed, resp.Results[0].Status)
	assert.False(t, resp.Results[1].Success)
	assert.Contains(t, resp.Results[2].Error, "not found")

	_, err = f.Svc.Orders.BulkStatus(f.ctx, f.actor(f.Staff), transport.BulkStatusRequest{Status: models.OrderConfirmed})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrders_ListIsScopedToActor(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	other := f.user(models.RoleCustomer, false)
	_, err = f.Svc.Orders.Create(f.ctx, f.actor(other), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)

	total, orders, err := f.Svc.Orders.List(f.ctx, f.actor(f.Customer), OrderQuery{}, windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, f.Customer.ID, orders[0].CustomerID)

	total, _, err = f.Svc.Orders.List(f.ctx, f.actor(f.Manager), OrderQuery{Status: "pending"}, windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, _, err = f.Svc.Orders.List(f.ctx, f.actor(f.Rider), OrderQuery{}, windowAll)
	require.NoError(t, err)
	assert.Zero(t, total, "riders only see orders on their trips")
}
