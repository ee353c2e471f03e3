package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

func TestReferrals_RewardOnFirstQualifyingOrder(t *testing.T) {
	f := newFixture(t)
	basket := f.product("Weekly basket", 24900, 5)
	snack := f.product("Crisps", 2000, 5)

	apply := func(u models.User, code string) error {
		_, err := f.Svc.Referrals.Apply(f.ctx, f.actor(u), transport.ApplyReferralRequest{Code: code, OrganizationID: f.Org.ID})
		return err
	}
	friend := f.user(models.RoleCustomer, false)

	assert.ErrorIs(t, apply(friend, f.Customer.ReferralCode), ErrValidation, "program not configured yet")

	_, err := f.Svc.Referrals.PutConfig(f.ctx, f.actor(f.OrgAdmin), transport.ReferralConfigRequest{
		IsActive: true, ReferrerPoints: 100, RefereePoints: 50, MinOrderValue: 20000, MaxReferralsPerUser: 1,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, apply(friend, "nope"), ErrValidation)
	assert.ErrorIs(t, apply(friend, friend.ReferralCode), ErrValidation)
	require.NoError(t, apply(friend, f.Customer.ReferralCode))
	assert.ErrorIs(t, apply(friend, f.Customer.ReferralCode), ErrConflict)

	late := f.user(models.RoleCustomer, false)
	assert.ErrorIs(t, apply(late, f.Customer.ReferralCode), ErrValidation, "referrer at the limit")

	pickup := func(p models.StoreProduct) {
		o, err := f.Svc.Orders.Create(f.ctx, f.actor(friend), transport.CreateOrderRequest{
			StoreID: f.Store.ID, FulfillmentType: models.FulfillmentPickup, Items: []transport.CreateOrderItem{item(p.ID, 1)},
		})
		require.NoError(t, err)
		f.advance(o.ID, models.OrderConfirmed, models.OrderPacking, models.OrderReadyForPickup, models.OrderPickedUp)
	}

	pickup(snack)
	assert.Zero(t, f.points(f.Customer.ID), "order below the minimum does not complete the referral")

	pickup(basket)
	assert.EqualValues(t, 100, f.points(f.Customer.ID))
	assert.EqualValues(t, 50+2, f.points(friend.ID))

	mine, err := f.Svc.Referrals.Mine(f.ctx, f.actor(f.Customer), &f.Org.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Customer.ReferralCode, mine.Code)
	assert.EqualValues(t, 1, mine.Total)
	assert.EqualValues(t, 1, mine.Completed)
	assert.Zero(t, mine.Pending)

	total, refs, err := f.Svc.Referrals.List(f.ctx, f.actor(f.OrgAdmin), models.ReferralCompleted, windowAll)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, refs, 1)
	assert.Equal(t, friend.ID, refs[0].RefereeID)
}
