package guard

import (
	"sort"

	"github.com/oarkflow/guard/utils"
)

// PolicyTable translates a domain-facing action name into the permission
// keys an actor must all hold. The table is static after construction and
// safe for concurrent lookups.
//
// An action absent from the table resolves to itself: simple 1:1
// action/permission pairs need no entry, while curated aliases map domain
// vocabulary onto canonical keys. Entries whose action contains a '*' act as
// patterns and are consulted only after an exact lookup misses.
type PolicyTable struct {
	exact    map[string][]string
	patterns []policyPattern
}

type policyPattern struct {
	pattern string
	keys    []string
}

// NewPolicyTable builds a table from explicit entries.
func NewPolicyTable(entries map[string][]string) *PolicyTable {
	t := &PolicyTable{exact: make(map[string][]string, len(entries))}
	for action, keys := range entries {
		t.add(action, keys)
	}
	// longest pattern first so "content.archive.*" beats "content.*"
	sort.Slice(t.patterns, func(i, j int) bool {
		return len(t.patterns[i].pattern) > len(t.patterns[j].pattern)
	})
	return t
}

// DefaultPolicyTable returns the curated platform table.
func DefaultPolicyTable() *PolicyTable {
	return NewPolicyTable(DefaultPolicyEntries())
}

// DefaultPolicyEntries returns the curated alias map. Callers that extend the
// table (configuration, tests) merge their entries over this map.
func DefaultPolicyEntries() map[string][]string {
	return map[string][]string{
		"activity_view":     {PermActivitiesView},
		"video_stream":      {PermActivitiesView},
		"activity_manage":   {PermActivitiesManage},
		"resource_download": {PermResourcesDownload},
		"resource_upload":   {PermResourcesUpload},
		"content.approve":   {PermCMSPublish},
		"content.publish":   {PermCMSPublish},
		"content.*":         {PermCMSEdit},
		"user.*":            {PermUsersManage},
		"role.*":            {PermRolesManage},
		"report_export":     {PermReportsView, PermResourcesDownload},
		"settings.*":        {PermSettingsManage},
	}
}

func (t *PolicyTable) add(action string, keys []string) {
	dup := append([]string(nil), keys...)
	if utils.HasWildcard(action) {
		t.patterns = append(t.patterns, policyPattern{pattern: action, keys: dup})
		return
	}
	t.exact[action] = dup
}

// Lookup resolves the permission keys required for an action. The second
// return value reports whether the table had an entry; when it did not, the
// action name itself is returned as the single required key.
func (t *PolicyTable) Lookup(action string) ([]string, bool) {
	if keys, ok := t.exact[action]; ok {
		return append([]string(nil), keys...), true
	}
	for _, p := range t.patterns {
		if utils.MatchAction(action, p.pattern) {
			return append([]string(nil), p.keys...), true
		}
	}
	return []string{action}, false
}

// Actions returns every explicitly registered action, patterns included, in
// a stable order. Used by the config tool for stats and validation.
func (t *PolicyTable) Actions() []string {
	out := make([]string, 0, len(t.exact)+len(t.patterns))
	for a := range t.exact {
		out = append(out, a)
	}
	for _, p := range t.patterns {
		out = append(out, p.pattern)
	}
	sort.Strings(out)
	return out
}
