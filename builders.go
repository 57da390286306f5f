package guard

import "time"

// Builders provide a fluent API for assembling role documents and configs,
// mainly for seeding stores and writing tests.

// RoleBuilder builds a Role document.
type RoleBuilder struct {
	r *Role
}

func NewRoleBuilder(key string) *RoleBuilder {
	return &RoleBuilder{r: &Role{Key: key, Permissions: map[string]bool{}}}
}

func (b *RoleBuilder) Name(n string) *RoleBuilder        { b.r.Name = n; return b }
func (b *RoleBuilder) Description(d string) *RoleBuilder { b.r.Description = d; return b }
func (b *RoleBuilder) System() *RoleBuilder              { b.r.IsSystem = true; return b }
func (b *RoleBuilder) Order(n int) *RoleBuilder          { b.r.DisplayOrder = n; return b }
func (b *RoleBuilder) Grant(keys ...string) *RoleBuilder {
	for _, k := range keys {
		b.r.Permissions[k] = true
	}
	return b
}
func (b *RoleBuilder) Deny(keys ...string) *RoleBuilder {
	for _, k := range keys {
		b.r.Permissions[k] = false
	}
	return b
}
func (b *RoleBuilder) Build() *Role { return b.r }

// ConfigBuilder builds a Config programmatically.
type ConfigBuilder struct {
	cfg *Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: &Config{
		Version: 1,
		Policy:  make(map[string][]string),
	}}
}

func (b *ConfigBuilder) Version(v int) *ConfigBuilder {
	b.cfg.Version = v
	return b
}

func (b *ConfigBuilder) RoleCacheTTL(d time.Duration) *ConfigBuilder {
	b.cfg.RoleCacheTTL = d.Milliseconds()
	return b
}

func (b *ConfigBuilder) OverridePermission(key string) *ConfigBuilder {
	b.cfg.OverridePermission = key
	return b
}

func (b *ConfigBuilder) MapAction(action string, keys ...string) *ConfigBuilder {
	b.cfg.Policy[action] = keys
	return b
}

func (b *ConfigBuilder) AddFallbackRole(r *Role) *ConfigBuilder {
	b.cfg.FallbackRoles = append(b.cfg.FallbackRoles, r)
	return b
}

func (b *ConfigBuilder) DecisionCache(ttl time.Duration) *ConfigBuilder {
	b.cfg.DecisionCache.Enabled = true
	b.cfg.DecisionCache.TTL = ttl.Milliseconds()
	return b
}

func (b *ConfigBuilder) Build() *Config { return b.cfg }

func (b *ConfigBuilder) ToYAML() ([]byte, error) { return b.cfg.ToYAML() }

func (b *ConfigBuilder) ToJSON() ([]byte, error) { return b.cfg.ToJSON() }
