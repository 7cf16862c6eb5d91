package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

// Catalog is the static registry of known permission keys. It is loaded once
// at startup and serves as the validation source for every write path:
// grants or restrictions referencing an unknown key are integrity errors
// surfaced at write time, never silently dropped.
type Catalog struct {
	ordered []domain.Permission
	byKey   map[string]domain.Permission
}

// NewCatalog builds a catalog from permission definitions, rejecting
// malformed or duplicate keys.
func NewCatalog(permissions []domain.Permission) (*Catalog, error) {
	catalog := &Catalog{
		ordered: make([]domain.Permission, 0, len(permissions)),
		byKey:   make(map[string]domain.Permission, len(permissions)),
	}

	for _, permission := range permissions {
		key := strings.TrimSpace(permission.Key)
		if key == "" {
			return nil, fmt.Errorf("permission key is required")
		}
		group, action, ok := strings.Cut(key, ".")
		if !ok || group == "" || action == "" {
			return nil, fmt.Errorf("permission key %q must be of the form <group>.<action>", key)
		}
		if _, exists := catalog.byKey[key]; exists {
			return nil, fmt.Errorf("duplicate permission key %q", key)
		}

		permission.Key = key
		catalog.byKey[key] = permission
		catalog.ordered = append(catalog.ordered, permission)
	}

	return catalog, nil
}

// LoadCatalog reads the permission table and materialises the catalog.
func LoadCatalog(ctx context.Context, permissions port.PermissionRepository) (*Catalog, error) {
	rows, err := permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load permission catalog: %w", err)
	}
	return NewCatalog(rows)
}

// List returns all permissions ordered by group then key.
func (c *Catalog) List() []domain.Permission {
	out := make([]domain.Permission, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Get returns the permission for a key or ErrUnknownPermission.
func (c *Catalog) Get(key string) (domain.Permission, error) {
	permission, ok := c.byKey[key]
	if !ok {
		return domain.Permission{}, fmt.Errorf("%w: %q", domain.ErrUnknownPermission, key)
	}
	return permission, nil
}

// Validate checks every key against the catalog, reporting the first
// unknown one.
func (c *Catalog) Validate(keys ...string) error {
	for _, key := range keys {
		if _, ok := c.byKey[key]; !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownPermission, key)
		}
	}
	return nil
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
