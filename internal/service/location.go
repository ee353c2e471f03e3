package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

// maxClockSkew bounds how far in the future a reading's timestamp may be.
const maxClockSkew = 2 * time.Minute

// LocationCache keeps the newest known position per rider.
type LocationCache interface {
	// Put stores p unless a newer reading is already cached and reports
	// whether p became the latest.
	Put(ctx context.Context, p transport.Position) (bool, error)
	Get(ctx context.Context, riderID uint) (*transport.Position, error)
}

// LocationBroadcaster fans a rider position out to live watchers.
type LocationBroadcaster interface {
	Publish(p transport.Position)
}

type LocationService struct {
	core
	Cache     LocationCache
	Broadcast LocationBroadcaster
}

func (s *LocationService) validate(riderID uint, req transport.LocationRequest) (transport.Position, error) {
	if req.Lat == nil || req.Lng == nil {
		return transport.Position{}, fmt.Errorf("%w: lat and lng required", ErrValidation)
	}
	if err := validLatLng(*req.Lat, *req.Lng); err != nil {
		return transport.Position{}, err
	}
	if req.Speed < 0 || req.Accuracy < 0 || req.Heading < 0 || req.Heading >= 360 {
		return transport.Position{}, fmt.Errorf("%w: speed, heading or accuracy out of range", ErrValidation)
	}
	now := s.now()
	at := now
	if req.RecordedAt != nil {
		at = req.RecordedAt.UTC()
		if at.After(now.Add(maxClockSkew)) {
			return transport.Position{}, fmt.Errorf("%w: recorded_at is in the future", ErrValidation)
		}
	}
	return transport.Position{
		RiderID:    riderID,
		TripID:     req.TripID,
		Lat:        *req.Lat,
		Lng:        *req.Lng,
		Speed:      req.Speed,
		Heading:    req.Heading,
		Accuracy:   req.Accuracy,
		RecordedAt: at,
	}, nil
}

// Record stores one GPS reading. Every valid reading is appended; the cache
// and live watchers only see it when it is newer than what they have.
func (s *LocationService) Record(ctx context.Context, a Actor, req transport.LocationRequest) (*transport.Position, error) {
	l := logging.FromContext(ctx).With("svc", "location.record", "rider_id", a.UserID)

	p, err := s.validate(a.UserID, req)
	if err != nil {
		return nil, err
	}
	if p.TripID != nil {
		t, err := s.Repo.GetTrip(ctx, *p.TripID)
		if err != nil || t.RiderID != a.UserID {
			return nil, fmt.Errorf("%w: trip_id is not one of your trips", ErrValidation)
		}
	}

	if err := s.Repo.AddLocation(ctx, &models.RiderLocation{
		RiderID: p.RiderID, TripID: p.TripID, Lat: p.Lat, Lng: p.Lng,
		Speed: p.Speed, Heading: p.Heading, Accuracy: p.Accuracy, RecordedAt: p.RecordedAt,
	}); err != nil {
		return nil, err
	}

	latest := true
	if s.Cache != nil {
		latest, err = s.Cache.Put(ctx, p)
		if err != nil {
			l.Warn("location_cache_failed", "error", err)
			latest = true
		}
	}
	if latest && s.Broadcast != nil {
		s.Broadcast.Publish(p)
	}
	if !latest {
		l.Debug("location_out_of_order", "recorded_at", p.RecordedAt)
	}
	return &p, nil
}

// Latest returns the newest position of a rider from the cache, falling back
// to the stored readings.
func (s *LocationService) Latest(ctx context.Context, riderID uint) (*transport.Position, error) {
	if s.Cache != nil {
		p, err := s.Cache.Get(ctx, riderID)
		if err != nil {
			logging.FromContext(ctx).Warn("location_cache_failed", "svc", "location.latest", "rider_id", riderID, "error", err)
		} else if p != nil {
			return p, nil
		}
	}
	loc, err := s.Repo.LatestLocation(ctx, riderID)
	if err != nil {
		return nil, notFound(err, "rider location")
	}
	return &transport.Position{
		RiderID: loc.RiderID, TripID: loc.TripID, Lat: loc.Lat, Lng: loc.Lng,
		Speed: loc.Speed, Heading: loc.Heading, Accuracy: loc.Accuracy, RecordedAt: loc.RecordedAt,
	}, nil
}

// TripRider resolves the rider of a trip the actor may watch.
func (s *LocationService) TripRider(ctx context.Context, a Actor, tripID uint) (uint, error) {
	t, err := s.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return 0, notFound(err, "delivery trip")
	}
	if a.Is(models.RoleCustomer) {
		for _, o := range t.Orders {
			if o.CustomerID == a.UserID {
				return t.RiderID, nil
			}
		}
		return 0, fmt.Errorf("%w: delivery trip", ErrNotFound)
	}
	if err := tripVisible(ctx, s.Repo, a, t); err != nil {
		return 0, err
	}
	return t.RiderID, nil
}

func (s *LocationService) TripPosition(ctx context.Context, a Actor, tripID uint) (*transport.Position, error) {
	riderID, err := s.TripRider(ctx, a, tripID)
	if err != nil {
		return nil, err
	}
	return s.Latest(ctx, riderID)
}
