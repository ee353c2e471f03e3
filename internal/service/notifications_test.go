package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type stubDispatcher struct {
	ids []uint
	err error
}

func (d *stubDispatcher) Dispatch(_ context.Context, id uint) error {
	d.ids = append(d.ids, id)
	return d.err
}

func TestNotifications_CampaignLifecycle(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	regular := f.user(models.RoleCustomer, false)
	f.user(models.RoleCustomer, false)

	for _, u := range []models.User{f.Customer, regular} {
		_, err := f.Svc.Orders.Create(f.ctx, f.actor(u), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
		require.NoError(t, err)
	}
	_, err := f.Svc.Notifications.RegisterDevice(f.ctx, f.actor(f.Customer), transport.DeviceTokenRequest{Token: "tok-1", Platform: "Android"})
	require.NoError(t, err)

	disp := &stubDispatcher{}
	f.Svc.Notifications.Dispatcher = disp

	c, err := f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: "Weekend sale", Body: "20% off fruit", Audience: "all_customers",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignQueued, c.Status)
	assert.Equal(t, 2, c.TotalRecipients, "only customers who ordered from the organization")
	assert.Equal(t, []uint{c.ID}, disp.ids)

	push := &recordingQueue{}
	require.NoError(t, f.Svc.Notifications.RunCampaign(f.ctx, c.ID, 1, push))

	prog, err := f.Svc.Notifications.Progress(f.ctx, f.actor(f.OrgAdmin), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignCompleted, prog.Status)
	assert.Equal(t, 2, prog.Sent)
	assert.Zero(t, prog.Failed)
	assert.Equal(t, 100, prog.Percent)
	assert.True(t, prog.Done)
	require.Len(t, push.jobs, 1)
	job, ok := push.jobs[0].(PushJob)
	require.True(t, ok)
	assert.Equal(t, "tok-1", job.Token)
	assert.Equal(t, "android", job.Platform)

	require.NoError(t, f.Svc.Notifications.RunCampaign(f.ctx, c.ID, 1, push), "second run is a no-op")
	prog, err = f.Svc.Notifications.Progress(f.ctx, f.actor(f.OrgAdmin), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, prog.Sent)
	assert.Len(t, push.jobs, 1)

	_, inbox, err := f.Svc.Notifications.Inbox(f.ctx, f.actor(regular), true, windowAll)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, models.NotificationCampaignMsg, inbox[0].Type)

	require.NoError(t, f.Svc.Notifications.MarkRead(f.ctx, f.actor(regular), inbox[0].ID))
	n, err := f.Svc.Notifications.UnreadCount(f.ctx, f.actor(regular))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	updated, err := f.Svc.Notifications.MarkAllRead(f.ctx, f.actor(regular))
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	err = f.Svc.Notifications.MarkRead(f.ctx, f.actor(f.Customer), inbox[0].ID)
	assert.ErrorIs(t, err, ErrNotFound, "another user's notification")
}

func TestNotifications_SendRules(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	mgr := f.actor(f.Manager)

	_, err = f.Svc.Notifications.Send(f.ctx, mgr, transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceAllCustomers,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.Svc.Notifications.Send(f.ctx, mgr, transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceStoreCustomers,
	})
	require.NoError(t, err)
	require.NotNil(t, c.StoreID)
	assert.Equal(t, f.Store.ID, *c.StoreID)
	assert.Equal(t, 1, c.TotalRecipients)

	_, err = f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceUsers,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: " ", Body: "There", Audience: models.AudienceUsers, UserIDs: []uint{f.Customer.ID},
	})
	assert.ErrorIs(t, err, ErrValidation)

	f.Svc.Notifications.Dispatcher = &stubDispatcher{err: errors.New("broker down")}
	_, err = f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceUsers, UserIDs: []uint{f.Customer.ID},
	})
	require.Error(t, err)

	_, list, err := f.Svc.Notifications.Campaigns(f.ctx, f.actor(f.OrgAdmin), windowAll)
	require.NoError(t, err)
	require.Len(t, list, 2)
	statuses := []string{list[0].Status, list[1].Status}
	assert.Contains(t, statuses, models.CampaignFailed)
}

func TestNotifications_UsersAudienceStaysInTenant(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)
	stranger := f.user(models.RoleCustomer, false)

	c, err := f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceUsers, UserIDs: []uint{f.Customer.ID, stranger.ID, f.Rider.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalRecipients, "only customers of the organization")

	c, err = f.Svc.Notifications.Send(f.ctx, f.actor(f.Manager), transport.SendCampaignRequest{
		Title: "Hi", Body: "There", Audience: models.AudienceUsers, UserIDs: []uint{stranger.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, c.StoreID)
	assert.Equal(t, f.Store.ID, *c.StoreID)
	assert.Zero(t, c.TotalRecipients)

	require.NoError(t, f.Svc.Notifications.RunCampaign(f.ctx, c.ID, 10, &recordingQueue{}))
	_, inbox, err := f.Svc.Notifications.Inbox(f.ctx, f.actor(stranger), false, windowAll)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestNotifications_RunCampaignMarksFailure(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 20)
	_, err := f.Svc.Orders.Create(f.ctx, f.actor(f.Customer), deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	require.NoError(t, err)

	c, err := f.Svc.Notifications.Send(f.ctx, f.actor(f.OrgAdmin), transport.SendCampaignRequest{
		Title: "Weekend sale", Body: "20% off fruit", Audience: models.AudienceAllCustomers,
	})
	require.NoError(t, err)

	require.NoError(t, f.DB.Callback().Update().Before("gorm:update").Register("test:fail_progress", func(db *gorm.DB) {
		if m, ok := db.Statement.Dest.(map[string]any); ok {
			if _, ok := m["sent_count"]; ok {
				_ = db.AddError(errors.New("disk full"))
			}
		}
	}))

	err = f.Svc.Notifications.RunCampaign(f.ctx, c.ID, 10, &recordingQueue{})
	require.Error(t, err)

	prog, err := f.Svc.Notifications.Progress(f.ctx, f.actor(f.OrgAdmin), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignFailed, prog.Status)
	assert.True(t, prog.Done)
	assert.Equal(t, "disk full", prog.Error)

	require.NoError(t, f.Svc.Notifications.RunCampaign(f.ctx, c.ID, 10, &recordingQueue{}), "failed campaigns are not claimed again")
}

func TestProgressOf(t *testing.T) {
	t.Parallel()

	p := progressOf(&models.NotificationCampaign{Status: models.CampaignSending, TotalRecipients: 4, SentCount: 1, FailedCount: 1})
	assert.Equal(t, 50, p.Percent)
	assert.False(t, p.Done)

	p = progressOf(&models.NotificationCampaign{Status: models.CampaignCompleted})
	assert.Equal(t, 100, p.Percent)
	assert.True(t, p.Done)
}

func TestSplitIDs(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitIDs(""))
	assert.Equal(t, []uint{3, 9}, splitIDs(joinIDs([]uint{3, 9})))
}
