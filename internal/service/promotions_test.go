package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

func TestCouponDiscount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		coupon   models.Coupon
		subtotal int64
		want     int64
	}{
		{"flat", models.Coupon{Type: models.CouponFlat, Value: 5000}, 20000, 5000},
		{"flat capped at subtotal", models.Coupon{Type: models.CouponFlat, Value: 5000}, 3000, 3000},
		{"percent", models.Coupon{Type: models.CouponPercent, Value: 10}, 20000, 2000},
		{"percent with max", models.Coupon{Type: models.CouponPercent, Value: 50, MaxDiscount: 4000}, 20000, 4000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, couponDiscount(&tc.coupon, tc.subtotal))
		})
	}
}

func TestCoupons_RedeemedByOrdersUpToLimit(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	admin := f.actor(f.OrgAdmin)

	c, err := f.Svc.Coupons.Create(f.ctx, admin, transport.CouponRequest{
		Code: " fresh10 ", Type: "percent", Value: 10, MinOrderValue: 10000, UsageLimit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "FRESH10", c.Code)

	_, err = f.Svc.Coupons.Create(f.ctx, admin, transport.CouponRequest{Code: "FRESH10", Type: "FLAT", Value: 100})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.Svc.Coupons.Create(f.ctx, admin, transport.CouponRequest{Code: "BAD", Type: "PERCENT", Value: 150})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Svc.Coupons.Validate(f.ctx, transport.ValidateCouponRequest{Code: "fresh10", StoreID: f.Store.ID, Subtotal: 5000})
	assert.ErrorIs(t, err, ErrValidation, "below minimum")
	q, err := f.Svc.Coupons.Validate(f.ctx, transport.ValidateCouponRequest{Code: "fresh10", StoreID: f.Store.ID, Subtotal: 12000})
	require.NoError(t, err)
	assert.True(t, q.Valid)
	assert.EqualValues(t, 1200, q.Discount)

	req := deliveryOrder(f.Store.ID, item(milk.ID, 2))
	req.CouponCode = "fresh10"
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1200, o.Discount)
	assert.EqualValues(t, 12000-1200+4900, o.Total)
	assert.Equal(t, "FRESH10", o.CouponCode)

	_, err = f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	assert.ErrorIs(t, err, ErrValidation, "usage limit reached")

	_, err = f.Svc.Orders.Cancel(f.ctx, f.actor(f.Customer), o.ID, transport.CancelOrderRequest{})
	require.NoError(t, err)
	_, err = f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	assert.NoError(t, err, "cancellation gives the use back")
}

func TestSlots_ScheduledOrdersBookCapacity(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	mgr := f.actor(f.Manager)
	start := time.Now().UTC().Add(3 * time.Hour).Truncate(time.Minute)

	_, err := f.Svc.Slots.Create(f.ctx, mgr, f.Store.ID, transport.CreateSlotRequest{StartsAt: start, EndsAt: start, Capacity: 1})
	assert.ErrorIs(t, err, ErrValidation)
	slot, err := f.Svc.Slots.Create(f.ctx, mgr, f.Store.ID, transport.CreateSlotRequest{
		StartsAt: start, EndsAt: start.Add(time.Hour), Capacity: 1,
	})
	require.NoError(t, err)

	req := deliveryOrder(f.Store.ID, item(milk.ID, 1))
	req.DeliveryType = models.DeliveryScheduled
	req.SlotID = &slot.ID
	o, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1900, o.DeliveryFee)

	visible, err := f.Svc.Slots.List(f.ctx, f.actor(f.Customer), f.Store.ID)
	require.NoError(t, err)
	assert.Empty(t, visible, "full slots are hidden from customers")
	all, err := f.Svc.Slots.List(f.ctx, mgr, f.Store.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Booked)

	_, err = f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), req)
	assert.ErrorIs(t, err, ErrConflict)

	zero := 0
	_, err = f.Svc.Slots.Patch(f.ctx, mgr, f.Store.ID, slot.ID, transport.PatchSlotRequest{Capacity: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Svc.Orders.Cancel(f.ctx, f.actor(f.Customer), o.ID, transport.CancelOrderRequest{})
	require.NoError(t, err)
	visible, err = f.Svc.Slots.List(f.ctx, f.actor(f.Customer), f.Store.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestMemberships_PerksApplyWhileActive(t *testing.T) {
	f := newFixture(t)
	basket := f.product("Weekly basket", 24900, 20)
	admin, customer := f.actor(f.OrgAdmin), f.actor(f.Customer)

	_, err := f.Svc.Memberships.CreatePlan(f.ctx, admin, transport.PlanRequest{Name: "Plus", DurationDays: 30, PointsMultiplier: 50})
	assert.ErrorIs(t, err, ErrValidation)
	plan, err := f.Svc.Memberships.CreatePlan(f.ctx, admin, transport.PlanRequest{
		Name: "Plus", Price: 9900, DurationDays: 30, FreeDelivery: true, PointsMultiplier: 200,
	})
	require.NoError(t, err)

	plans, err := f.Svc.Memberships.Plans(f.ctx, nil, &f.Org.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	sub, err := f.Svc.Memberships.Subscribe(f.ctx, customer, transport.SubscribeRequest{PlanID: plan.ID})
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, sub.Status)
	_, err = f.Svc.Memberships.Subscribe(f.ctx, customer, transport.SubscribeRequest{PlanID: plan.ID})
	assert.ErrorIs(t, err, ErrConflict)

	o, err := f.Svc.Orders.Create(f.ctx, customer, deliveryOrder(f.Store.ID, item(basket.ID, 1)))
	require.NoError(t, err)
	assert.Zero(t, o.DeliveryFee)

	pickup, err := f.Svc.Orders.Create(f.ctx, customer, transport.CreateOrderRequest{
		StoreID: f.Store.ID, FulfillmentType: models.FulfillmentPickup, Items: []transport.CreateOrderItem{item(basket.ID, 1)},
	})
	require.NoError(t, err)
	f.advance(pickup.ID, models.OrderConfirmed, models.OrderPacking, models.OrderReadyForPickup, models.OrderPickedUp)
	assert.EqualValues(t, 4, f.points(f.Customer.ID), "double points for members")

	_, err = f.Svc.Memberships.Cancel(f.ctx, customer, f.Org.ID)
	require.NoError(t, err)
	o, err = f.Svc.Orders.Create(f.ctx, customer, deliveryOrder(f.Store.ID, item(basket.ID, 1)))
	require.NoError(t, err)
	assert.EqualValues(t, 4900, o.DeliveryFee)

	_, err = f.Svc.Memberships.Cancel(f.ctx, customer, f.Org.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBanners_ActiveSelection(t *testing.T) {
	f := newFixture(t)
	admin, mgr := f.actor(f.OrgAdmin), f.actor(f.Manager)

	orgWide, err := f.Svc.Banners.Create(f.ctx, admin, transport.BannerRequest{Title: "Free delivery week", ImageURL: "https://cdn.example.com/b1.png", Position: 2})
	require.NoError(t, err)
	assert.Nil(t, orgWide.StoreID)

	local, err := f.Svc.Banners.Create(f.ctx, mgr, transport.BannerRequest{Title: "Mangoes are in", ImageURL: "https://cdn.example.com/b2.png", Position: 1})
	require.NoError(t, err)
	require.NotNil(t, local.StoreID, "managers always post to their own store")
	assert.Equal(t, f.Store.ID, *local.StoreID)

	later := time.Now().UTC().Add(time.Hour)
	_, err = f.Svc.Banners.Create(f.ctx, admin, transport.BannerRequest{Title: "Tomorrow", ImageURL: "https://cdn.example.com/b3.png", StartsAt: &later})
	require.NoError(t, err)
	_, err = f.Svc.Banners.Create(f.ctx, admin, transport.BannerRequest{Title: "No image"})
	assert.ErrorIs(t, err, ErrValidation)

	active, err := f.Svc.Banners.Active(f.ctx, f.Org.ID, &f.Store.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, local.ID, active[0].ID)
	assert.Equal(t, orgWide.ID, active[1].ID)

	active, err = f.Svc.Banners.Active(f.ctx, f.Org.ID, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, orgWide.ID, active[0].ID)

	_, err = f.Svc.Banners.Get(f.ctx, mgr, orgWide.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	off := false
	_, err = f.Svc.Banners.Patch(f.ctx, mgr, local.ID, transport.PatchBannerRequest{IsActive: &off})
	require.NoError(t, err)
	active, err = f.Svc.Banners.Active(f.ctx, f.Org.ID, &f.Store.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = f.Svc.Banners.Active(f.ctx, 0, nil)
	assert.ErrorIs(t, err, ErrValidation)
}
