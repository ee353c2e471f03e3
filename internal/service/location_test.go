package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

func reading(lat, lng float64, at time.Time) transport.LocationRequest {
	return transport.LocationRequest{Lat: &lat, Lng: &lng, Speed: 4.5, Heading: 90, Accuracy: 8, RecordedAt: &at}
}

func TestLocation_ValidatesReadings(t *testing.T) {
	f := newFixture(t)
	rider := f.actor(f.Rider)
	now := time.Now().UTC()

	_, err := f.Svc.Locations.Record(f.ctx, rider, transport.LocationRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Svc.Locations.Record(f.ctx, rider, reading(91, 10, now))
	assert.ErrorIs(t, err, ErrValidation)

	bad := reading(12.9, 77.6, now)
	bad.Heading = 360
	_, err = f.Svc.Locations.Record(f.ctx, rider, bad)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.Svc.Locations.Record(f.ctx, rider, reading(12.9, 77.6, now.Add(10*time.Minute)))
	assert.ErrorIs(t, err, ErrValidation, "future timestamp")

	unknown := uint(9999)
	onTrip := reading(12.9, 77.6, now)
	onTrip.TripID = &unknown
	_, err = f.Svc.Locations.Record(f.ctx, rider, onTrip)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, f.Feed.Len())
}

func TestLocation_LatestOnlyMovesForward(t *testing.T) {
	f := newFixture(t)
	rider := f.actor(f.Rider)
	t0 := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)

	p, err := f.Svc.Locations.Record(f.ctx, rider, reading(12.90, 77.60, t0))
	require.NoError(t, err)
	assert.Equal(t, f.Rider.ID, p.RiderID)
	assert.Equal(t, 1, f.Feed.Len())

	_, err = f.Svc.Locations.Record(f.ctx, rider, reading(12.80, 77.50, t0.Add(-30*time.Second)))
	require.NoError(t, err, "late readings are accepted")
	assert.Equal(t, 1, f.Feed.Len(), "late readings are not broadcast")

	latest, err := f.Svc.Locations.Latest(f.ctx, f.Rider.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.90, latest.Lat, 1e-9)
	assert.True(t, latest.RecordedAt.Equal(t0))

	var stored int64
	require.NoError(t, f.DB.Model(&models.RiderLocation{}).Where("rider_id = ?", f.Rider.ID).Count(&stored).Error)
	assert.EqualValues(t, 2, stored)

	_, err = f.Svc.Locations.Record(f.ctx, rider, reading(12.95, 77.65, t0.Add(30*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Feed.Len())
}

func TestLocation_TripPositionVisibility(t *testing.T) {
	f := newFixture(t)
	milk := f.product("Milk 1L", 6000, 10)
	o := f.readyOrder(deliveryOrder(f.Store.ID, item(milk.ID, 1)))
	trip, err := f.Svc.Trips.Create(f.ctx, f.actor(f.Staff), transport.CreateTripRequest{
		StoreID: f.Store.ID, RiderID: f.Rider.ID, OrderIDs: []uint{o.ID},
	})
	require.NoError(t, err)

	_, err = f.Svc.Locations.TripPosition(f.ctx, f.actor(f.Customer), trip.ID)
	assert.ErrorIs(t, err, ErrNotFound, "no reading yet")

	req := reading(12.91, 77.61, time.Now().UTC())
	req.TripID = &trip.ID
	_, err = f.Svc.Locations.Record(f.ctx, f.actor(f.Rider), req)
	require.NoError(t, err)

	pos, err := f.Svc.Locations.TripPosition(f.ctx, f.actor(f.Customer), trip.ID)
	require.NoError(t, err)
	require.NotNil(t, pos.TripID)
	assert.Equal(t, trip.ID, *pos.TripID)

	_, err = f.Svc.Locations.TripPosition(f.ctx, f.actor(f.Manager), trip.ID)
	assert.NoError(t, err)

	stranger := f.user(models.RoleCustomer, false)
	_, err = f.Svc.Locations.TripPosition(f.ctx, f.actor(stranger), trip.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	otherRider := f.user(models.RoleRider, false)
	misuse := reading(12.91, 77.61, time.Now().UTC())
	misuse.TripID = &trip.ID
	_, err = f.Svc.Locations.Record(f.ctx, f.actor(otherRider), misuse)
	assert.ErrorIs(t, err, ErrValidation)
}
