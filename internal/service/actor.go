package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
)

// Actor is the authenticated caller as read from the access token.
type Actor struct {
	UserID  uint
	Role    string
	OrgID   *uint
	StoreID *uint
}

func (a Actor) Is(roles ...string) bool {
	return slices.Contains(roles, a.Role)
}

// Staff reports whether the actor works on the operator side of a tenant.
func (a Actor) Staff() bool {
	return a.Is(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff)
}

// Manager is STORE_MANAGER or anything above it.
func (a Actor) Manager() bool {
	return a.Is(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager)
}

func (a Actor) Scope() repo.Scope {
	switch a.Role {
	case models.RoleSuperAdmin:
		return repo.Scope{}
	case models.RoleOrgAdmin:
		return repo.Scope{OrgID: orNone(a.OrgID)}
	case models.RoleStoreManager, models.RoleStaff:
		return repo.Scope{OrgID: orNone(a.OrgID), StoreID: orNone(a.StoreID)}
	case models.RoleRider:
		id := a.UserID
		return repo.Scope{OrgID: orNone(a.OrgID), RiderID: &id}
	default:
		id := a.UserID
		return repo.Scope{CustomerID: &id}
	}
}

// orNone maps a missing tenant id to 0 so a misconfigured account sees nothing
// instead of everything.
func orNone(id *uint) *uint {
	if id != nil {
		return id
	}
	zero := uint(0)
	return &zero
}

func (a Actor) inOrg(orgID uint) bool {
	if a.Role == models.RoleSuperAdmin {
		return true
	}
	return a.OrgID != nil && *a.OrgID == orgID
}

// canManageStore reports whether a staff actor may operate on store s.
func (a Actor) canManageStore(s *models.Store) bool {
	switch a.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleOrgAdmin:
		return a.inOrg(s.OrganizationID)
	case models.RoleStoreManager, models.RoleStaff:
		return a.StoreID != nil && *a.StoreID == s.ID
	}
	return false
}

// orgFor resolves the organization an org-level operation targets: the
// actor's own, or the requested one for SUPER_ADMIN.
func (a Actor) orgFor(requested *uint) (uint, error) {
	if a.Role == models.RoleSuperAdmin {
		if requested == nil || *requested == 0 {
			return 0, fmt.Errorf("%w: organization_id required", ErrValidation)
		}
		return *requested, nil
	}
	if a.OrgID == nil {
		return 0, fmt.Errorf("%w: account has no organization", ErrForbidden)
	}
	if requested != nil && *requested != 0 && *requested != *a.OrgID {
		return 0, fmt.Errorf("%w: organization", ErrNotFound)
	}
	return *a.OrgID, nil
}

// managedStore loads a store the actor may operate on. Stores outside the
// actor's tenant are reported as missing.
func managedStore(ctx context.Context, r *repo.GormRepo, a Actor, storeID uint) (*models.Store, error) {
	s, err := r.GetStore(ctx, storeID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: store", ErrNotFound)
		}
		return nil, err
	}
	if !a.canManageStore(s) {
		return nil, fmt.Errorf("%w: store", ErrNotFound)
	}
	return s, nil
}

func notFound(err error, what string) error {
	if repo.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
