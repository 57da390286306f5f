package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oarkflow/guard/logger"
)

// DefaultRoleCacheTTL bounds how stale a role snapshot may get before the
// next access triggers a refetch.
const DefaultRoleCacheTTL = 5 * time.Minute

// roleSnapshot is an immutable view of the role collection. Readers load it
// through an atomic pointer, so the hot path takes no locks.
type roleSnapshot struct {
	roles     map[string]*Role
	fallback  bool
	expiresAt time.Time
}

// RoleCache provides an eventually-consistent, resilient view of the
// role->permission data held in the external store.
//
// All fetch failures are absorbed here: the worst outcome a caller can see
// is the hardcoded fallback table, never an error. A failed or empty fetch
// caches the fallback for a full TTL window, so recovery happens on the
// first access past expiry (or on an explicit Refresh).
type RoleCache struct {
	source   RoleSource
	ttl      time.Duration
	fallback []*Role
	log      logger.Logger

	snapshot atomic.Pointer[roleSnapshot]
	group    singleflight.Group
	warned   sync.Map // role keys already reported as unknown
}

type RoleCacheOption func(*RoleCache)

// WithTTL overrides the snapshot lifetime.
func WithTTL(d time.Duration) RoleCacheOption {
	return func(c *RoleCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithFallbackRoles replaces the hardcoded fallback table.
func WithFallbackRoles(roles []*Role) RoleCacheOption {
	return func(c *RoleCache) {
		if len(roles) > 0 {
			c.fallback = roles
		}
	}
}

// WithRoleCacheLogger installs a logger for fallback activations and
// unknown-role lookups.
func WithRoleCacheLogger(l logger.Logger) RoleCacheOption {
	return func(c *RoleCache) {
		if l != nil {
			c.log = l
		}
	}
}

func NewRoleCache(source RoleSource, opts ...RoleCacheOption) *RoleCache {
	c := &RoleCache{
		source:   source,
		ttl:      DefaultRoleCacheTTL,
		fallback: DefaultFallbackRoles(),
		log:      logger.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAllRoles returns the role collection keyed by role key, refreshing the
// snapshot if it is absent or past its TTL. Concurrent callers hitting an
// expired snapshot share a single fetch.
func (c *RoleCache) GetAllRoles(ctx context.Context) map[string]*Role {
	if snap := c.snapshot.Load(); snap != nil && time.Now().Before(snap.expiresAt) {
		return snap.roles
	}
	v, _, _ := c.group.Do("roles", func() (any, error) {
		// another caller may have repopulated while this one queued
		if snap := c.snapshot.Load(); snap != nil && time.Now().Before(snap.expiresAt) {
			return snap, nil
		}
		// the fetch is shared by every caller, so it must not inherit one
		// caller's cancellation: a request aborting mid-flight would cache
		// the fallback table for a full TTL window for everyone else
		return c.populate(context.WithoutCancel(ctx)), nil
	})
	return v.(*roleSnapshot).roles
}

// GetRolePermissions returns the permission map of the given role. An
// unknown role yields an empty map: absence of a role never grants anything.
func (c *RoleCache) GetRolePermissions(ctx context.Context, roleKey string) map[string]bool {
	role, ok := c.GetAllRoles(ctx)[roleKey]
	if !ok {
		if _, dup := c.warned.LoadOrStore(roleKey, struct{}{}); !dup {
			c.log.Warn("permission lookup for unknown role", "role", roleKey)
		}
		return map[string]bool{}
	}
	return role.Permissions
}

// HasPermission reports whether the role grants the permission key. Keys
// absent from the role's map resolve to false.
func (c *RoleCache) HasPermission(ctx context.Context, roleKey, permKey string) bool {
	return c.GetRolePermissions(ctx, roleKey)[permKey]
}

// Refresh drops the cached snapshot and eagerly repopulates it. Trusted
// administrative code calls this after a known role edit; it is needed for
// freshness only, never for correctness.
func (c *RoleCache) Refresh(ctx context.Context) {
	c.snapshot.Store(nil)
	c.GetAllRoles(ctx)
}

// UsingFallback reports whether the current snapshot is the fallback table.
func (c *RoleCache) UsingFallback() bool {
	snap := c.snapshot.Load()
	return snap != nil && snap.fallback
}

func (c *RoleCache) populate(ctx context.Context) *roleSnapshot {
	snap := &roleSnapshot{expiresAt: time.Now().Add(c.ttl)}
	roles, err := c.source.FetchRoles(ctx)
	switch {
	case err != nil:
		c.log.Warn("role fetch failed, activating fallback table", "error", err.Error())
		snap.roles = indexRoles(c.fallback)
		snap.fallback = true
	case len(roles) == 0:
		c.log.Warn("role store returned no roles, activating fallback table")
		snap.roles = indexRoles(c.fallback)
		snap.fallback = true
	default:
		snap.roles = indexRoles(roles)
	}
	c.snapshot.Store(snap)
	return snap
}

// indexRoles clones the roles into a key-indexed map. Duplicate keys keep
// the last document, matching how the store's collection scan behaves.
func indexRoles(roles []*Role) map[string]*Role {
	out := make(map[string]*Role, len(roles))
	for _, r := range roles {
		if r == nil || r.Key == "" {
			continue
		}
		out[r.Key] = r.Clone()
	}
	return out
}

// DefaultFallbackRoles is the hardcoded role table used verbatim whenever
// the remote store is unreachable or returns no documents. It is never
// merged with a partial remote result.
func DefaultFallbackRoles() []*Role {
	return []*Role{
		{
			Key: "ADMIN", Name: "Administrator", IsSystem: true, DisplayOrder: 1,
			Permissions: map[string]bool{
				PermCMSEdit:           true,
				PermCMSPublish:        true,
				PermResourcesDownload: true,
				PermResourcesUpload:   true,
				PermActivitiesView:    true,
				PermActivitiesManage:  true,
				PermUsersManage:       true,
				PermRolesManage:       true,
				PermReportsView:       true,
				PermSettingsManage:    true,
			},
		},
		{
			Key: "CONTENT_MANAGER", Name: "Content Manager", IsSystem: true, DisplayOrder: 2,
			Permissions: map[string]bool{
				PermCMSEdit:           true,
				PermCMSPublish:        true,
				PermResourcesDownload: true,
				PermResourcesUpload:   true,
				PermActivitiesView:    true,
				PermReportsView:       true,
			},
		},
		{
			Key: "REGISTERED_USER", Name: "Registered User", IsSystem: true, DisplayOrder: 3,
			Permissions: map[string]bool{
				PermResourcesDownload: true,
				PermActivitiesView:    true,
			},
		},
		{
			Key: "GUEST", Name: "Guest", IsSystem: true, DisplayOrder: 4,
			Permissions: map[string]bool{},
		},
	}
}
