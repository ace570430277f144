package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/idx"
)

var (
	ErrRoleExists        = errors.New("role name already exists")
	ErrUnknownPermission = errors.New("unknown permission")
)

// RolesService exposes the role and permission graph. Permission lookups
// always read the store so a role edit takes effect on the next request,
// not the next token.
type RolesService struct {
	Store store.Store
}

// PermissionsForRole resolves the current permission names granted to a
// role. This backs the authorization middleware.
func (s *RolesService) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.PermissionNames(), nil
}

// List returns every role with its ordered permission set.
func (s *RolesService) List(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

// Get returns one role by name.
func (s *RolesService) Get(ctx context.Context, name string) (domain.Role, error) {
	role, err := s.Store.Roles().GetRoleByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Role{}, ErrUnknownRole
	}
	return role, err
}

// ListPermissions returns the capability catalogue.
func (s *RolesService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Roles().ListPermissions(ctx)
}

// Create adds a role granting the named permissions, in order.
func (s *RolesService) Create(ctx context.Context, name string, permissionNames []string) (domain.Role, error) {
	perms, err := s.resolvePermissions(ctx, permissionNames)
	if err != nil {
		return domain.Role{}, err
	}

	role := domain.Role{
		ID:          idx.New().String(),
		Name:        name,
		Permissions: perms,
	}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleExists
		}
		return domain.Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	return s.Store.Roles().GetRoleByID(ctx, role.ID)
}

// ReplacePermissions swaps a role's permission set wholesale. Holders of
// the role pick up the new set on their next authorized request.
func (s *RolesService) ReplacePermissions(ctx context.Context, roleName string, permissionNames []string) (domain.Role, error) {
	role, err := s.Get(ctx, roleName)
	if err != nil {
		return domain.Role{}, err
	}

	perms, err := s.resolvePermissions(ctx, permissionNames)
	if err != nil {
		return domain.Role{}, err
	}

	ids := make([]string, len(perms))
	for i, p := range perms {
		ids[i] = p.ID
	}
	if err := s.Store.Roles().ReplaceRolePermissions(ctx, role.ID, ids); err != nil {
		return domain.Role{}, fmt.Errorf("failed to replace permissions: %w", err)
	}
	return s.Store.Roles().GetRoleByID(ctx, role.ID)
}

func (s *RolesService) resolvePermissions(ctx context.Context, names []string) ([]domain.Permission, error) {
	perms := make([]domain.Permission, 0, len(names))
	for _, name := range names {
		perm, err := s.Store.Roles().GetPermissionByName(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPermission, name)
			}
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, nil
}
