package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type RatingService struct {
	core
}

func (s *RatingService) Create(ctx context.Context, a Actor, req transport.CreateRatingRequest) (*models.StoreRating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	o, err := s.Repo.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.CustomerID != a.UserID {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if !o.IsCompleted() {
		return nil, fmt.Errorf("%w: only completed orders can be rated", ErrConflict)
	}
	exists, err := s.Repo.RatingExists(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: order already rated", ErrConflict)
	}
	r := &models.StoreRating{
		StoreID:    o.StoreID,
		OrderID:    o.ID,
		CustomerID: a.UserID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := s.Repo.CreateRating(ctx, r); err != nil {
		return nil, conflictOn(err, "order already rated")
	}
	return r, nil
}

func (s *RatingService) List(ctx context.Context, storeID uint, w repo.Window) (int64, []models.StoreRating, error) {
	if _, err := s.Repo.GetStore(ctx, storeID); err != nil {
		return 0, nil, notFound(err, "store")
	}
	return s.Repo.ListRatings(ctx, storeID, false, w)
}

func (s *RatingService) Summary(ctx context.Context, storeID uint) (*transport.RatingSummary, error) {
	if _, err := s.Repo.GetStore(ctx, storeID); err != nil {
		return nil, notFound(err, "store")
	}
	dist, err := s.Repo.RatingDistribution(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := &transport.RatingSummary{StoreID: storeID, Distribution: make(map[int]int64, 5)}
	var sum int64
	for star := 1; star <= 5; star++ {
		n := dist[star]
		out.Distribution[star] = n
		out.Count += n
		sum += int64(star) * n
	}
	if out.Count > 0 {
		out.Average = math.Round(float64(sum)/float64(out.Count)*100) / 100
	}
	return out, nil
}

func (s *RatingService) load(ctx context.Context, a Actor, id uint) (*models.StoreRating, error) {
	r, err := s.Repo.GetRating(ctx, id)
	if err != nil {
		return nil, notFound(err, "rating")
	}
	if _, err := managedStore(ctx, s.Repo, a, r.StoreID); err != nil {
		return nil, fmt.Errorf("%w: rating", ErrNotFound)
	}
	return r, nil
}

func (s *RatingService) Moderate(ctx context.Context, a Actor, id uint, req transport.ModerateRatingRequest) (*models.StoreRating, error) {
	r, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	r.IsHidden = req.Hidden
	if err := s.Repo.SaveRating(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RatingService) Reply(ctx context.Context, a Actor, id uint, req transport.ReplyRatingRequest) (*models.StoreRating, error) {
	reply := strings.TrimSpace(req.Reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: reply required", ErrValidation)
	}
	r, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	r.Reply = reply
	r.RepliedAt = &now
	if err := s.Repo.SaveRating(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
