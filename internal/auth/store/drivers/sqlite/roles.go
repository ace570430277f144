package sqlite

import (
	"context"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = ?`, id)
	return r.scanRoleWithPermissions(ctx, row)
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE name = ?`, name)
	return r.scanRoleWithPermissions(ctx, row)
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := r.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name) VALUES (?, ?)`, role.ID, role.Name); err != nil {
		return mapUnique(err)
	}
	for i, p := range role.Permissions {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_id, position) VALUES (?, ?, ?)`,
			role.ID, p.ID, i); err != nil {
			return mapUnique(err)
		}
	}
	return nil
}

func (r *rolesRepo) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
		return err
	}
	for i, pid := range permissionIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_id, position) VALUES (?, ?, ?)`,
			roleID, pid, i); err != nil {
			return mapUnique(err)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE roles SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, roleID)
	return err
}

func (r *rolesRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, name, description) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.Description)
	return mapUnique(err)
}

func (r *rolesRepo) GetPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	var p domain.Permission
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM permissions WHERE name = ?`, name).
		Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *rolesRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *rolesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *rolesRepo) scanRoleWithPermissions(ctx context.Context, row scanner) (domain.Role, error) {
	var (
		role                 domain.Role
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&role.ID, &role.Name, &createdAt, &updatedAt); err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.CreatedAt = createdAt
	role.UpdatedAt = updatedAt

	perms, err := r.rolePermissions(ctx, role.ID)
	if err != nil {
		return domain.Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// rolePermissions returns the role's permissions in their stored order.
func (r *rolesRepo) rolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = ?
		 ORDER BY rp.position`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
