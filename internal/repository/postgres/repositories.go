package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Permissions  *PermissionRepository
	Roles        *RoleRepository
	Grants       *GrantRepository
	Restrictions *RestrictionRepository
	Settings     *SettingsRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Permissions:  NewPermissionRepository(pool),
		Roles:        NewRoleRepository(pool),
		Grants:       NewGrantRepository(pool),
		Restrictions: NewRestrictionRepository(pool),
		Settings:     NewSettingsRepository(pool),
	}
}
