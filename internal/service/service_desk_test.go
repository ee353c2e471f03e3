package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

// pickedUp places a pickup order for the fixture customer and completes it.
func (f *fixture) pickedUp(items ...transport.CreateOrderItem) *models.Order {
	f.t.Helper()
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), transport.CreateOrderRequest{
		StoreID: f.Store.ID, FulfillmentType: models.FulfillmentPickup, Items: items,
	})
	require.NoError(f.t, err)
	f.advance(o.ID, models.OrderConfirmed, models.OrderPacking, models.OrderReadyForPickup, models.OrderPickedUp)
	return o
}

func TestReturns_PointsRefundWithRestock(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o := f.pickedUp(item(milk.ID, 3))
	lineID := o.Items[0].ID
	earned := f.points(f.Customer.ID)
	customer, mgr := f.actor(f.Customer), f.actor(f.Manager)

	rr, err := f.Svc.Returns.Create(f.ctx, customer, transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "leaking", Items: []transport.ReturnItemRequest{{OrderItemID: lineID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRequested, rr.Status)
	assert.Equal(t, models.RefundPoints, rr.RefundMethod)
	assert.EqualValues(t, 12000, rr.RefundAmount)

	_, err = f.Svc.Returns.Create(f.ctx, customer, transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "again", Items: []transport.ReturnItemRequest{{OrderItemID: lineID, Quantity: 2}},
	})
	assert.ErrorIs(t, err, ErrValidation, "only one unit left to return")

	approved, err := f.Svc.Returns.Approve(f.ctx, mgr, rr.ID, transport.ApproveReturnRequest{Restock: true})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRefunded, approved.Status)
	assert.Equal(t, earned+120, f.points(f.Customer.ID))
	assert.Equal(t, 9, f.stock(milk.ID))

	_, err = f.Svc.Returns.Approve(f.ctx, mgr, rr.ID, transport.ApproveReturnRequest{})
	assert.ErrorIs(t, err, ErrConflict)

	other := f.user(models.RoleCustomer, false)
	_, err = f.Svc.Returns.Get(f.ctx, f.actor(other), rr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturns_OriginalMethodAndReject(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o := f.pickedUp(item(milk.ID, 2))
	lineID := o.Items[0].ID
	customer, mgr := f.actor(f.Customer), f.actor(f.Manager)

	first, err := f.Svc.Returns.Create(f.ctx, customer, transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "wrong brand", RefundMethod: "original",
		Items: []transport.ReturnItemRequest{{OrderItemID: lineID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.Svc.Returns.Reject(f.ctx, mgr, first.ID, transport.RejectReturnRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	rejected, err := f.Svc.Returns.Reject(f.ctx, mgr, first.ID, transport.RejectReturnRequest{Note: "seal broken"})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRejected, rejected.Status)

	second, err := f.Svc.Returns.Create(f.ctx, customer, transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "wrong brand", RefundMethod: "ORIGINAL",
		Items: []transport.ReturnItemRequest{{OrderItemID: lineID, Quantity: 2}},
	})
	require.NoError(t, err, "rejected returns free their quantity")

	partial := int64(5000)
	approved, err := f.Svc.Returns.Approve(f.ctx, mgr, second.ID, transport.ApproveReturnRequest{RefundAmount: &partial})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnApproved, approved.Status)
	assert.EqualValues(t, 5000, approved.RefundAmount)

	detail, err := f.Svc.Orders.Get(f.ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, detail.PaymentStatus)

	total, _, err := f.Svc.Returns.List(f.ctx, mgr, "rejected", windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestReturns_OnlyCompletedOrders(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)

	_, err = f.Svc.Returns.Create(f.ctx, f.actor(f.Customer), transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "changed mind", Items: []transport.ReturnItemRequest{{OrderItemID: o.Items[0].ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.Svc.Returns.Create(f.ctx, f.actor(f.Customer), transport.CreateReturnRequest{OrderID: o.ID, Reason: "x", RefundMethod: "cash",
		Items: []transport.ReturnItemRequest{{OrderItemID: o.Items[0].ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSupport_TicketThread(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	customer, staff, mgr := f.actor(f.Customer), f.actor(f.Staff), f.actor(f.Manager)

	_, err = f.Svc.Support.Create(f.ctx, customer, transport.CreateTicketRequest{Subject: "Late", Message: "Where is it?"})
	assert.ErrorIs(t, err, ErrValidation, "needs an order, store or organization")

	tk, err := f.Svc.Support.Create(f.ctx, customer, transport.CreateTicketRequest{
		OrderID: &o.ID, Subject: "Late", Message: "Where is my order?", Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TicketOpen, tk.Status)
	assert.Equal(t, models.PriorityHigh, tk.Priority)
	assert.Equal(t, f.Org.ID, tk.OrganizationID)
	require.NotNil(t, tk.StoreID)

	_, err = f.Svc.Support.AddMessage(f.ctx, staff, tk.ID, transport.TicketMessageRequest{Body: "rider stuck in traffic", IsInternal: true})
	require.NoError(t, err)
	_, err = f.Svc.Support.AddMessage(f.ctx, staff, tk.ID, transport.TicketMessageRequest{Body: "Arriving in 10 minutes."})
	require.NoError(t, err)

	seen, err := f.Svc.Support.Get(f.ctx, customer, tk.ID)
	require.NoError(t, err)
	assert.Len(t, seen.Messages, 2, "internal notes are hidden from the customer")
	full, err := f.Svc.Support.Get(f.ctx, mgr, tk.ID)
	require.NoError(t, err)
	assert.Len(t, full.Messages, 3)

	resolved := models.TicketResolved
	_, err = f.Svc.Support.Patch(f.ctx, staff, tk.ID, transport.PatchTicketRequest{Status: &resolved})
	require.NoError(t, err)
	_, err = f.Svc.Support.AddMessage(f.ctx, customer, tk.ID, transport.TicketMessageRequest{Body: "Still not here"})
	require.NoError(t, err)
	reopened, err := f.Svc.Support.Get(f.ctx, customer, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketOpen, reopened.Status)

	_, err = f.Svc.Support.Patch(f.ctx, staff, tk.ID, transport.PatchTicketRequest{AssignedToID: &f.Customer.ID})
	assert.ErrorIs(t, err, ErrValidation)
	assigned, err := f.Svc.Support.Patch(f.ctx, staff, tk.ID, transport.PatchTicketRequest{AssignedToID: &f.Staff.ID})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)

	closed := models.TicketClosed
	_, err = f.Svc.Support.Patch(f.ctx, mgr, tk.ID, transport.PatchTicketRequest{Status: &closed})
	require.NoError(t, err)
	_, err = f.Svc.Support.AddMessage(f.ctx, customer, tk.ID, transport.TicketMessageRequest{Body: "hello?"})
	assert.ErrorIs(t, err, ErrConflict)
	reopen := models.TicketOpen
	_, err = f.Svc.Support.Patch(f.ctx, mgr, tk.ID, transport.PatchTicketRequest{Status: &reopen})
	assert.ErrorIs(t, err, ErrConflict)

	total, _, err := f.Svc.Support.List(f.ctx, mgr, TicketQuery{Status: "closed"}, windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestServiceDesk_HiddenFromRiders(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o := f.pickedUp(item(milk.ID, 2))
	customer, rider := f.actor(f.Customer), f.actor(f.Rider)

	tk, err := f.Svc.Support.Create(f.ctx, customer, transport.CreateTicketRequest{
		OrderID: &o.ID, Subject: "Damaged", Message: "The bag was torn",
	})
	require.NoError(t, err)
	unread, err := f.Svc.Notifications.UnreadCount(f.ctx, customer)
	require.NoError(t, err)

	total, list, err := f.Svc.Support.List(f.ctx, rider, TicketQuery{}, windowAll)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
	_, err = f.Svc.Support.Get(f.ctx, rider, tk.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Svc.Support.AddMessage(f.ctx, rider, tk.ID, transport.TicketMessageRequest{Body: "on my way"})
	assert.ErrorIs(t, err, ErrNotFound)
	resolved := models.TicketResolved
	_, err = f.Svc.Support.Patch(f.ctx, rider, tk.ID, transport.PatchTicketRequest{Status: &resolved})
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := f.Svc.Notifications.UnreadCount(f.ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, unread, after)
	seen, err := f.Svc.Support.Get(f.ctx, customer, tk.ID)
	require.NoError(t, err)
	assert.Len(t, seen.Messages, 1)
	assert.Equal(t, models.TicketOpen, seen.Status)

	rr, err := f.Svc.Returns.Create(f.ctx, customer, transport.CreateReturnRequest{
		OrderID: o.ID, Reason: "torn", Items: []transport.ReturnItemRequest{{OrderItemID: o.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)

	total, returns, err := f.Svc.Returns.List(f.ctx, rider, "", windowAll)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, returns)
	_, err = f.Svc.Returns.Get(f.ctx, rider, rr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Svc.Returns.Approve(f.ctx, rider, rr.ID, transport.ApproveReturnRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	total, _, err = f.Svc.Returns.List(f.ctx, f.actor(f.Manager), "", windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestRatings_CompletedOrdersOnce(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	customer, mgr := f.actor(f.Customer), f.actor(f.Manager)

	open, err := f.Svc.Orders.Create(f.ctx, customer, deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	_, err = f.Svc.Ratings.Create(f.ctx, customer, transport.CreateRatingRequest{OrderID: open.ID, Rating: 5})
	assert.ErrorIs(t, err, ErrConflict)

	o := f.pickedUp(item(milk.ID, 1))
	_, err = f.Svc.Ratings.Create(f.ctx, customer, transport.CreateRatingRequest{OrderID: o.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)
	r, err := f.Svc.Ratings.Create(f.ctx, customer, transport.CreateRatingRequest{OrderID: o.ID, Rating: 4, Comment: "quick"})
	require.NoError(t, err)
	_, err = f.Svc.Ratings.Create(f.ctx, customer, transport.CreateRatingRequest{OrderID: o.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrConflict)

	sum, err := f.Svc.Ratings.Summary(f.ctx, f.Store.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Count)
	assert.InDelta(t, 4.0, sum.Average, 1e-9)
	assert.EqualValues(t, 1, sum.Distribution[4])

	_, err = f.Svc.Ratings.Reply(f.ctx, mgr, r.ID, transport.ReplyRatingRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	replied, err := f.Svc.Ratings.Reply(f.ctx, mgr, r.ID, transport.ReplyRatingRequest{Reply: "Thanks!"})
	require.NoError(t, err)
	assert.NotNil(t, replied.RepliedAt)

	_, err = f.Svc.Ratings.Moderate(f.ctx, mgr, r.ID, transport.ModerateRatingRequest{Hidden: true})
	require.NoError(t, err)
	total, _, err := f.Svc.Ratings.List(f.ctx, f.Store.ID, windowAll)
	require.NoError(t, err)
	assert.Zero(t, total)
	sum, err = f.Svc.Ratings.Summary(f.ctx, f.Store.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.Count)
	assert.Zero(t, sum.Average)

	_, err = f.Svc.Ratings.Summary(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
