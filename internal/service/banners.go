package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type BannerService struct {
	core
}

func (s *BannerService) Create(ctx context.Context, a Actor, req transport.BannerRequest) (*models.Banner, error) {
	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	storeID := req.StoreID
	if a.Is(models.RoleStoreManager) {
		storeID = a.StoreID
	}
	if storeID != nil {
		store, err := managedStore(ctx, s.Repo, a, *storeID)
		if err != nil {
			return nil, err
		}
		if store.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: store belongs to another organization", ErrValidation)
		}
	}
	b := &models.Banner{
		OrganizationID: orgID,
		StoreID:        storeID,
		Title:          strings.TrimSpace(req.Title),
		ImageURL:       strings.TrimSpace(req.ImageURL),
		LinkURL:        strings.TrimSpace(req.LinkURL),
		Position:       req.Position,
		IsActive:       true,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := validateBanner(b); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateBanner(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func validateBanner(b *models.Banner) error {
	if b.Title == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if b.ImageURL == "" {
		return fmt.Errorf("%w: image_url required", ErrValidation)
	}
	if b.Position < 0 {
		return fmt.Errorf("%w: position must be >= 0", ErrValidation)
	}
	if b.StartsAt != nil && b.EndsAt != nil && !b.EndsAt.After(*b.StartsAt) {
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrValidation)
	}
	return nil
}

func (s *BannerService) load(ctx context.Context, a Actor, id uint) (*models.Banner, error) {
	b, err := s.Repo.GetBanner(ctx, id)
	if err != nil {
		return nil, notFound(err, "banner")
	}
	if !a.inOrg(b.OrganizationID) {
		return nil, fmt.Errorf("%w: banner", ErrNotFound)
	}
	if a.Is(models.RoleStoreManager) && (b.StoreID == nil || a.StoreID == nil || *b.StoreID != *a.StoreID) {
		return nil, fmt.Errorf("%w: banner", ErrNotFound)
	}
	return b, nil
}

func (s *BannerService) Get(ctx context.Context, a Actor, id uint) (*models.Banner, error) {
	return s.load(ctx, a, id)
}

func (s *BannerService) Patch(ctx context.Context, a Actor, id uint, req transport.PatchBannerRequest) (*models.Banner, error) {
	b, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.ImageURL != nil {
		b.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.LinkURL != nil {
		b.LinkURL = strings.TrimSpace(*req.LinkURL)
	}
	if req.Position != nil {
		b.Position = *req.Position
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if req.StartsAt != nil {
		b.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		b.EndsAt = req.EndsAt
	}
	if err := validateBanner(b); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveBanner(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BannerService) Delete(ctx context.Context, a Actor, id uint) error {
	if _, err := s.load(ctx, a, id); err != nil {
		return err
	}
	return notFound(s.Repo.DeleteBanner(ctx, id), "banner")
}

func (s *BannerService) List(ctx context.Context, a Actor, w repo.Window) (int64, []models.Banner, error) {
	return s.Repo.ListBanners(ctx, a.Scope(), w)
}

// Active is the public storefront feed.
func (s *BannerService) Active(ctx context.Context, orgID uint, storeID *uint) ([]models.Banner, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("%w: organization_id required", ErrValidation)
	}
	if storeID != nil {
		store, err := s.Repo.GetStore(ctx, *storeID)
		if err != nil || store.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: store", ErrNotFound)
		}
	}
	return s.Repo.ActiveBanners(ctx, orgID, storeID, s.now())
}
