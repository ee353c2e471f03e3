package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type SlotService struct {
	core
}

func (s *SlotService) Create(ctx context.Context, a Actor, storeID uint, req transport.CreateSlotRequest) (*models.DeliverySlot, error) {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return nil, err
	}
	slot := &models.DeliverySlot{
		StoreID:  storeID,
		StartsAt: req.StartsAt.UTC(),
		EndsAt:   req.EndsAt.UTC(),
		Capacity: req.Capacity,
		IsActive: true,
	}
	if err := s.validate(slot); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *SlotService) validate(slot *models.DeliverySlot) error {
	if slot.StartsAt.IsZero() || slot.EndsAt.IsZero() {
		return fmt.Errorf("%w: starts_at and ends_at required", ErrValidation)
	}
	if !slot.EndsAt.After(slot.StartsAt) {
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrValidation)
	}
	if slot.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0", ErrValidation)
	}
	if slot.Capacity < slot.Booked {
		return fmt.Errorf("%w: capacity below %d booked orders", ErrValidation, slot.Booked)
	}
	return nil
}

func (s *SlotService) Patch(ctx context.Context, a Actor, storeID, id uint, req transport.PatchSlotRequest) (*models.DeliverySlot, error) {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return nil, err
	}
	slot, err := s.Repo.GetSlot(ctx, id)
	if err != nil || slot.StoreID != storeID {
		return nil, fmt.Errorf("%w: slot", ErrNotFound)
	}
	if req.StartsAt != nil {
		slot.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		slot.EndsAt = req.EndsAt.UTC()
	}
	if req.Capacity != nil {
		slot.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}
	if err := s.validate(slot); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// List returns every slot of the store for operators, and only bookable
// future slots for everyone else.
func (s *SlotService) List(ctx context.Context, a Actor, storeID uint) ([]models.DeliverySlot, error) {
	store, err := s.Repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, notFound(err, "store")
	}
	if a.Staff() && a.canManageStore(store) {
		return s.Repo.ListSlots(ctx, repo.SlotFilter{StoreID: storeID})
	}
	now := s.now()
	return s.Repo.ListSlots(ctx, repo.SlotFilter{StoreID: storeID, From: &now, AvailableOnly: true})
}
