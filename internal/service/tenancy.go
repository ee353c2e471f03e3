package service

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

type TenancyService struct {
	core
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func (s *TenancyService) CreateOrganization(ctx context.Context, req transport.CreateOrganizationRequest) (*models.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		slug = strings.Join(strings.Fields(strings.ToLower(name)), "-")
	}
	if !slugRe.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", ErrValidation)
	}
	org := &models.Organization{Name: name, Slug: slug}
	if err := s.Repo.CreateOrganization(ctx, org); err != nil {
		return nil, conflictOn(err, "slug already used")
	}
	return org, nil
}

func (s *TenancyService) ListOrganizations(ctx context.Context, w repo.Window) (int64, []models.Organization, error) {
	return s.Repo.ListOrganizations(ctx, w)
}

func (s *TenancyService) CreateStore(ctx context.Context, a Actor, req transport.CreateStoreRequest) (*models.Store, error) {
	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetOrganization(ctx, orgID); err != nil {
		return nil, notFound(err, "organization")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if err := validLatLng(req.Lat, req.Lng); err != nil {
		return nil, err
	}
	store := &models.Store{
		OrganizationID: orgID,
		Name:           name,
		Address:        strings.TrimSpace(req.Address),
		Lat:            req.Lat,
		Lng:            req.Lng,
		IsActive:       true,
	}
	if err := s.Repo.CreateStore(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *TenancyService) PatchStore(ctx context.Context, a Actor, id uint, req transport.PatchStoreRequest) (*models.Store, error) {
	store, err := managedStore(ctx, s.Repo, a, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		store.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		store.Address = strings.TrimSpace(*req.Address)
	}
	if req.Lat != nil {
		store.Lat = *req.Lat
	}
	if req.Lng != nil {
		store.Lng = *req.Lng
	}
	if err := validLatLng(store.Lat, store.Lng); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		store.IsActive = *req.IsActive
	}
	if err := s.Repo.SaveStore(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *TenancyService) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	store, err := s.Repo.GetStore(ctx, id)
	if err != nil {
		return nil, notFound(err, "store")
	}
	return store, nil
}

func (s *TenancyService) ListStores(ctx context.Context, a Actor, orgID *uint, w repo.Window) (int64, []models.Store, error) {
	scope := a.Scope()
	if a.Role == models.RoleSuperAdmin && orgID != nil {
		scope.OrgID = orgID
	}
	return s.Repo.ListStores(ctx, scope, w)
}

// staffRoles maps each operator role to the roles it may create.
var staffRoles = map[string][]string{
	models.RoleSuperAdmin:   {models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff, models.RoleRider},
	models.RoleOrgAdmin:     {models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff, models.RoleRider},
	models.RoleStoreManager: {models.RoleStaff, models.RoleRider},
}

func (s *TenancyService) CreateUser(ctx context.Context, a Actor, req transport.CreateUserRequest) (*models.User, error) {
	allowed := staffRoles[a.Role]
	if !models.ValidRole(req.Role) || req.Role == models.RoleCustomer {
		return nil, fmt.Errorf("%w: unknown staff role %q", ErrValidation, req.Role)
	}
	if !slices.Contains(allowed, req.Role) {
		return nil, fmt.Errorf("%w: cannot create %s accounts", ErrForbidden, req.Role)
	}

	user, err := newAccount(req.Name, req.Email, req.Phone, req.Password, req.Role)
	if err != nil {
		return nil, err
	}

	if req.Role != models.RoleSuperAdmin {
		orgID, err := a.orgFor(req.OrganizationID)
		if err != nil {
			return nil, err
		}
		if _, err := s.Repo.GetOrganization(ctx, orgID); err != nil {
			return nil, notFound(err, "organization")
		}
		user.OrganizationID = &orgID

		storeID := req.StoreID
		if a.Role == models.RoleStoreManager {
			storeID = a.StoreID
		}
		needsStore := req.Role == models.RoleStoreManager || req.Role == models.RoleStaff
		if needsStore && storeID == nil {
			return nil, fmt.Errorf("%w: store_id required for %s", ErrValidation, req.Role)
		}
		if storeID != nil && req.Role != models.RoleOrgAdmin {
			store, err := managedStore(ctx, s.Repo, a, *storeID)
			if err != nil {
				return nil, err
			}
			if store.OrganizationID != orgID {
				return nil, fmt.Errorf("%w: store belongs to another organization", ErrValidation)
			}
			user.StoreID = &store.ID
		}
	}

	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *TenancyService) ListUsers(ctx context.Context, a Actor, role, q string, w repo.Window) (int64, []models.User, error) {
	if role != "" && !models.ValidRole(role) {
		return 0, nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	f := repo.UserFilter{Scope: a.Scope(), Role: role, Q: strings.TrimSpace(q)}
	return s.Repo.ListUsers(ctx, f, w)
}

func validLatLng(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}
