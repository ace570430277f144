package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/idx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

// AdminSeed describes the first administrator account, taken from the
// environment on a fresh database.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// BootstrapService seeds the permission catalogue, the built-in roles, and
// optionally the first administrator. Seeding is idempotent: it only runs
// against empty tables, so restarts are safe.
type BootstrapService struct {
	Store store.Store
	Admin *AdminSeed
}

func (s *BootstrapService) Run(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	rolesEmpty, err := s.Store.Roles().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect roles: %w", err)
	}
	if rolesEmpty {
		if err := s.seedRoles(ctx); err != nil {
			return err
		}
		l.Info("seeded default roles and permissions")
	}

	usersEmpty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect users: %w", err)
	}
	if usersEmpty && s.Admin != nil {
		if err := s.seedAdmin(ctx); err != nil {
			return err
		}
		l.Info("seeded administrator account", slog.String("username", s.Admin.Username))
	}

	return nil
}

func (s *BootstrapService) seedRoles(ctx context.Context) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		permIDs := make(map[string]string)
		for _, def := range domain.DefaultPermissions() {
			perm := domain.Permission{
				ID:          idx.New().String(),
				Name:        def.Name,
				Description: def.Description,
			}
			if err := tx.Roles().CreatePermission(ctx, perm); err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", def.Name, err)
			}
			permIDs[def.Name] = perm.ID
		}

		for _, def := range domain.DefaultRoles() {
			role := domain.Role{
				ID:   idx.New().String(),
				Name: def.Name,
			}
			for _, name := range def.Permissions {
				id, ok := permIDs[name]
				if !ok {
					return fmt.Errorf("role %s references unseeded permission %s", def.Name, name)
				}
				role.Permissions = append(role.Permissions, domain.Permission{ID: id, Name: name})
			}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
			}
		}
		return nil
	})
}

func (s *BootstrapService) seedAdmin(ctx context.Context) error {
	if s.Admin.Username == "" || s.Admin.Email == "" || s.Admin.Password == "" {
		return errors.New("admin seed requires username, email and password")
	}
	if err := validatePassword(s.Admin.Password); err != nil {
		return fmt.Errorf("admin seed password rejected: %w", err)
	}

	role, err := s.Store.Roles().GetRoleByName(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to resolve admin role: %w", err)
	}

	hash, err := cryptox.HashSecret(s.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	return s.Store.Users().CreateUser(ctx, domain.User{
		ID:            idx.New().String(),
		Username:      s.Admin.Username,
		Email:         s.Admin.Email,
		PasswordHash:  hash,
		Status:        domain.StatusActive,
		RoleID:        role.ID,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
