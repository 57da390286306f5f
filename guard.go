package guard

import (
	"context"
	"strings"
	"time"
)

// ============================================================================
// DOMAIN OBJECTS
// ============================================================================

// Role is a named collection of grantable permissions, administered outside
// this module. The permission map is sparse: absent keys resolve to false.
type Role struct {
	Key          string          `json:"key" yaml:"key"`
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Permissions  map[string]bool `json:"permissions" yaml:"permissions"`
	IsSystem     bool            `json:"is_system" yaml:"is_system"`
	DisplayOrder int             `json:"display_order" yaml:"display_order"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// HasPermission reports whether the role grants the given permission key.
func (r *Role) HasPermission(key string) bool {
	if r == nil {
		return false
	}
	return r.Permissions[key]
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	dup := *r
	dup.Permissions = make(map[string]bool, len(r.Permissions))
	for k, v := range r.Permissions {
		dup.Permissions[k] = v
	}
	return &dup
}

// RoleSource fetches the entire role collection from the external document
// store. There is no per-key query: the cache consumes whole snapshots.
type RoleSource interface {
	FetchRoles(ctx context.Context) ([]*Role, error)
}

// Actor is the principal requesting an action. A nil or unauthenticated
// actor is always denied. TenantID may be empty when the principal is not
// bound to a tenant.
type Actor interface {
	ID() string
	IsAuthenticated() bool
	RoleKey() string
	TenantID() string
}

// PermissionHolder is an optional Actor extension. When an actor implements
// it the engine asks the actor directly instead of resolving permissions
// through the role cache.
type PermissionHolder interface {
	HasPermission(key string) bool
}

// Principal is the default Actor implementation handed to the engine by the
// request-handling layer after authentication.
type Principal struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	Tenant        string `json:"tenant,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

func (p *Principal) ID() string { return p.UserID }

func (p *Principal) IsAuthenticated() bool { return p != nil && p.Authenticated }

func (p *Principal) RoleKey() string { return p.Role }

func (p *Principal) TenantID() string { return p.Tenant }

// StatusPublished is the visibility state that opens a resource to readers
// who are not its owner. Compared case-insensitively.
const StatusPublished = "published"

// Resource is the optional target object of an action. Every field may be
// empty, meaning "not constrained by this field"; a nil Resource means the
// action has no object scope at all.
type Resource struct {
	TenantID string `json:"tenant_id,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// IsPublished reports whether the resource's visibility state is published.
func (r *Resource) IsPublished() bool {
	return r != nil && strings.EqualFold(r.Status, StatusPublished)
}

// IsOwnedBy reports whether the resource records the given principal as its
// owner. An absent owner field never matches, even for actors without an ID.
func (r *Resource) IsOwnedBy(actorID string) bool {
	return r != nil && r.OwnerID != "" && r.OwnerID == actorID
}

// Reason classifies the outcome of a Decision.
type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonMissingPermission Reason = "missing_permission"
	ReasonScopeDenied       Reason = "scope_denied"
	ReasonAllowed           Reason = "allowed"
)

// Decision is the structured result of evaluating an action request. It is
// constructed fresh per call and never persisted. Missing is always a subset
// of Required, and Allowed implies ReasonAllowed with an empty Missing.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Action    string    `json:"action"`
	Required  []string  `json:"required_permissions"`
	Missing   []string  `json:"missing_permissions"`
	Reason    Reason    `json:"reason"`
	Trace     []string  `json:"trace,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a deep copy of the decision.
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	dup := *d
	dup.Required = append([]string(nil), d.Required...)
	dup.Missing = append([]string(nil), d.Missing...)
	dup.Trace = append([]string(nil), d.Trace...)
	return &dup
}
