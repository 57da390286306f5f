package guard

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oarkflow/guard/logger"
)

// Config is the deployable shape of everything this module lets an operator
// tune: cache lifetimes, the override permission, policy aliases, and the
// fallback role table. The external administration tool exports it as YAML
// or JSON.
type Config struct {
	Version            int                 `json:"version" yaml:"version"`
	RoleCacheTTL       int64               `json:"role_cache_ttl_ms" yaml:"role_cache_ttl_ms"`
	OverridePermission string              `json:"override_permission,omitempty" yaml:"override_permission,omitempty"`
	Policy             map[string][]string `json:"policy,omitempty" yaml:"policy,omitempty"`
	FallbackRoles      []*Role             `json:"fallback_roles,omitempty" yaml:"fallback_roles,omitempty"`
	DecisionCache      DecisionCacheConfig `json:"decision_cache,omitempty" yaml:"decision_cache,omitempty"`
}

// DecisionCacheConfig tunes the optional ristretto decision memoization.
type DecisionCacheConfig struct {
	Enabled     bool  `json:"enabled" yaml:"enabled"`
	TTL         int64 `json:"ttl_ms" yaml:"ttl_ms"`
	NumCounters int64 `json:"ristretto_num_counter" yaml:"ristretto_num_counter"`
	MaxCost     int64 `json:"ristretto_max_cost" yaml:"ristretto_max_cost"`
	BufferItems int64 `json:"ristretto_buffer" yaml:"ristretto_buffer"`
}

// ConfigLoader loads configuration from the supported formats.
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML exports config to YAML.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate rejects structurally broken configs: fallback roles without a
// key, duplicate fallback keys, and policy entries with no permission keys.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.FallbackRoles))
	for i, r := range c.FallbackRoles {
		if r == nil || r.Key == "" {
			return fmt.Errorf("fallback role %d is missing a key", i)
		}
		if seen[r.Key] {
			return fmt.Errorf("duplicate fallback role key %q", r.Key)
		}
		seen[r.Key] = true
	}
	for action, keys := range c.Policy {
		if action == "" {
			return fmt.Errorf("policy entry with empty action")
		}
		if len(keys) == 0 {
			return fmt.Errorf("policy entry %q has no permission keys", action)
		}
	}
	return nil
}

// UnknownPermissionKeys reports every permission key referenced by the
// config that is outside the canonical enumeration. The engine tolerates
// such keys (they resolve to false), so this is diagnostic, not fatal.
func (c *Config) UnknownPermissionKeys() []string {
	unknown := make(map[string]bool)
	for _, keys := range c.Policy {
		for _, k := range keys {
			if !IsKnownPermission(k) {
				unknown[k] = true
			}
		}
	}
	for _, r := range c.FallbackRoles {
		if r == nil {
			continue
		}
		for k := range r.Permissions {
			if !IsKnownPermission(k) {
				unknown[k] = true
			}
		}
	}
	if c.OverridePermission != "" && !IsKnownPermission(c.OverridePermission) {
		unknown[c.OverridePermission] = true
	}
	out := make([]string, 0, len(unknown))
	for k := range unknown {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PolicyTable merges the config's entries over the curated defaults.
func (c *Config) PolicyTable() *PolicyTable {
	entries := DefaultPolicyEntries()
	for action, keys := range c.Policy {
		entries[action] = keys
	}
	return NewPolicyTable(entries)
}

// NewFromConfig assembles a RoleCache and Engine from a validated config.
// The log argument may be nil; both components then stay silent.
func NewFromConfig(source RoleSource, cfg *Config, log logger.Logger) (*Engine, *RoleCache, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	cacheOpts := []RoleCacheOption{}
	if cfg.RoleCacheTTL > 0 {
		cacheOpts = append(cacheOpts, WithTTL(time.Duration(cfg.RoleCacheTTL)*time.Millisecond))
	}
	if len(cfg.FallbackRoles) > 0 {
		cacheOpts = append(cacheOpts, WithFallbackRoles(cfg.FallbackRoles))
	}
	if log != nil {
		cacheOpts = append(cacheOpts, WithRoleCacheLogger(log))
	}
	cache := NewRoleCache(source, cacheOpts...)

	engineOpts := []EngineOption{WithPolicyTable(cfg.PolicyTable())}
	if cfg.OverridePermission != "" {
		engineOpts = append(engineOpts, WithOverridePermission(cfg.OverridePermission))
	}
	if log != nil {
		engineOpts = append(engineOpts, WithLogger(log))
	}
	if cfg.DecisionCache.Enabled {
		engineOpts = append(engineOpts, WithDecisionCache(
			time.Duration(cfg.DecisionCache.TTL)*time.Millisecond,
			cfg.DecisionCache.NumCounters,
			cfg.DecisionCache.MaxCost,
			cfg.DecisionCache.BufferItems,
		))
	}
	eng, err := NewEngine(cache, engineOpts...)
	if err != nil {
		return nil, nil, err
	}
	return eng, cache, nil
}
