package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

// ProductIndex is the full-text index kept next to the product table.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.StoreProduct) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, storeID uint, query string, from, size int) (int64, []models.StoreProduct, error)
}

type CatalogService struct {
	core
	Index ProductIndex
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, w repo.Window) (int64, []models.StoreProduct, error) {
	if _, err := s.Repo.GetStore(ctx, f.StoreID); err != nil {
		return 0, nil, notFound(err, "store")
	}
	return s.Repo.ListProducts(ctx, f, w)
}

// Search prefers the search index and falls back to a LIKE query when the
// index is not configured or unavailable.
func (s *CatalogService) Search(ctx context.Context, storeID uint, q string, w repo.Window) (int64, []models.StoreProduct, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, storeID, q, w.Offset, w.Limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.ListProducts(ctx, repo.ProductFilter{StoreID: storeID, Q: q, AvailableOnly: true}, w)
}

func (s *CatalogService) GetProduct(ctx context.Context, storeID, id uint) (*models.StoreProduct, error) {
	p, err := s.Repo.GetProduct(ctx, storeID, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func validateProduct(p *models.StoreProduct) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: sku required", ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if p.MRP < 0 {
		return fmt.Errorf("%w: mrp must be >= 0", ErrValidation)
	}
	if p.MRP != 0 && p.MRP < p.Price {
		return fmt.Errorf("%w: mrp cannot be below price", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, a Actor, storeID uint, req transport.CreateProductRequest) (*models.StoreProduct, error) {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return nil, err
	}
	p := &models.StoreProduct{
		StoreID:     storeID,
		SKU:         strings.TrimSpace(req.SKU),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		MRP:         req.MRP,
		Stock:       req.Stock,
		IsAvailable: true,
		ImageURL:    req.ImageURL,
	}
	if p.MRP == 0 {
		p.MRP = p.Price
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	taken, err := s.Repo.SKUTaken(ctx, storeID, p.SKU, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: sku already exists in this store", ErrConflict)
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, conflictOn(err, "sku already exists in this store")
	}
	s.reindex(ctx, *p)
	s.publish(ctx, events.TopicCatalog, fmt.Sprint(p.ID), map[string]any{"type": "product_created", "product_id": p.ID, "store_id": p.StoreID})
	return p, nil
}

// PatchProduct applies a partial update. STAFF may only change stock and availability.
func (s *CatalogService) PatchProduct(ctx context.Context, a Actor, storeID, id uint, req transport.PatchProductRequest) (*models.StoreProduct, error) {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return nil, err
	}
	p, err := s.GetProduct(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if a.Role == models.RoleStaff && (req.Price != nil || req.MRP != nil || req.SKU != nil || req.Name != nil) {
		return nil, fmt.Errorf("%w: staff may only update stock and availability", ErrForbidden)
	}

	if req.SKU != nil {
		p.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.MRP != nil {
		p.MRP = *req.MRP
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if req.SKU != nil {
		taken, err := s.Repo.SKUTaken(ctx, storeID, p.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: sku already exists in this store", ErrConflict)
		}
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, conflictOn(err, "sku already exists in this store")
	}
	s.reindex(ctx, *p)
	s.publish(ctx, events.TopicCatalog, fmt.Sprint(p.ID), map[string]any{"type": "product_updated", "product_id": p.ID, "store_id": p.StoreID})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, a Actor, storeID, id uint) error {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, storeID, id); err != nil {
		return notFound(err, "product")
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, events.TopicCatalog, fmt.Sprint(id), map[string]any{"type": "product_deleted", "product_id": id, "store_id": storeID})
	return nil
}

// BulkStock sets absolute stock levels. Unknown products fail the whole batch.
func (s *CatalogService) BulkStock(ctx context.Context, a Actor, storeID uint, req transport.BulkStockRequest) ([]models.StoreProduct, error) {
	if _, err := managedStore(ctx, s.Repo, a, storeID); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0 (product %d)", ErrValidation, it.ProductID)
		}
		ids = append(ids, it.ProductID)
	}

	var updated []models.StoreProduct
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		for _, it := range req.Items {
			ok, err := tx.SetStock(ctx, storeID, it.ProductID, it.Stock)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
			}
		}
		var err error
		updated, err = tx.GetProductsByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, p := range updated {
		s.reindex(ctx, p)
	}
	s.publish(ctx, events.TopicCatalog, fmt.Sprint(storeID), map[string]any{"type": "stock_updated", "store_id": storeID, "product_ids": ids})
	return updated, nil
}

func (s *CatalogService) reindex(ctx context.Context, p models.StoreProduct) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}
