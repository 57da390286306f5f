package stores

import (
	"context"
	"sync"

	"github.com/oarkflow/guard"
)

// MemoryRoleSource is an in-memory RoleSource. It doubles as the primary
// test fake: Fail injects fetch errors and Fetches counts remote reads, which
// is how TTL and single-flight behavior get asserted.
type MemoryRoleSource struct {
	mu      sync.Mutex
	roles   []*guard.Role
	err     error
	fetches int
}

func NewMemoryRoleSource(roles ...*guard.Role) *MemoryRoleSource {
	return &MemoryRoleSource{roles: roles}
}

// SetRoles replaces the stored collection.
func (m *MemoryRoleSource) SetRoles(roles ...*guard.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles = roles
}

// Fail makes every subsequent fetch return err. Pass nil to heal the source.
func (m *MemoryRoleSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Fetches returns how many times FetchRoles has been called.
func (m *MemoryRoleSource) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func (m *MemoryRoleSource) FetchRoles(ctx context.Context) ([]*guard.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*guard.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r.Clone())
	}
	return out, nil
}
