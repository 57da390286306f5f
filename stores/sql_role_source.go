package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oarkflow/guard"
	"github.com/oarkflow/squealx"
)

// SQLRoleSource reads role documents from a SQL table (squealx). FetchRoles
// scans the whole table each time; the cache layer owns TTL and fallback, so
// there is deliberately no per-key query on the read path. SaveRole and
// DeleteRole exist for the external administration tool.
type SQLRoleSource struct {
	db *squealx.DB
}

func NewSQLRoleSource(db *squealx.DB) *SQLRoleSource {
	return &SQLRoleSource{db: db}
}

func (s *SQLRoleSource) FetchRoles(ctx context.Context) ([]*guard.Role, error) {
	q := `SELECT key, name, description, permissions_json, is_system, display_order, updated_at FROM roles ORDER BY display_order, key`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	defer rows.Close()

	out := make([]*guard.Role, 0)
	for rows.Next() {
		var key, name, description, permsJSON string
		var isSystem, displayOrder int
		var updatedRaw any
		if err := rows.Scan(&key, &name, &description, &permsJSON, &isSystem, &displayOrder, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role := &guard.Role{
			Key:          key,
			Name:         name,
			Description:  description,
			IsSystem:     isSystem != 0,
			DisplayOrder: displayOrder,
			UpdatedAt:    scanTime(updatedRaw),
			Permissions:  map[string]bool{},
		}
		if err := json.Unmarshal([]byte(permsJSON), &role.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions for role %s: %w", key, err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	return out, nil
}

// SaveRole inserts or updates a role document keyed by role key.
func (s *SQLRoleSource) SaveRole(ctx context.Context, r *guard.Role) error {
	perms, err := json.Marshal(r.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions for role %s: %w", r.Key, err)
	}
	q := `INSERT INTO roles(key, name, description, permissions_json, is_system, display_order, updated_at)
		VALUES(:key, :name, :description, :permissions_json, :is_system, :display_order, :updated_at)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			permissions_json = excluded.permissions_json,
			is_system = excluded.is_system,
			display_order = excluded.display_order,
			updated_at = excluded.updated_at`
	_, err = s.db.NamedExecContext(ctx, q, map[string]any{
		"key":              r.Key,
		"name":             r.Name,
		"description":      r.Description,
		"permissions_json": string(perms),
		"is_system":        boolToInt(r.IsSystem),
		"display_order":    r.DisplayOrder,
		"updated_at":       time.Now(),
	})
	return err
}

func (s *SQLRoleSource) DeleteRole(ctx context.Context, key string) error {
	q := `DELETE FROM roles WHERE key = :key`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"key": key})
	return err
}
