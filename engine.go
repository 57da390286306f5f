package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oarkflow/guard/logger"
)

// DefaultOverridePermission is the permission key whose possession waives
// object-scope checks for every action. Holders are trusted across tenant,
// ownership, and visibility boundaries regardless of what was requested.
const DefaultOverridePermission = PermCMSEdit

// Engine produces a Decision for (actor, action, object?). It is a total
// function with respect to error flow: it always returns a Decision and
// never an error - store failures are absorbed by the RoleCache.
type Engine struct {
	cache       *RoleCache
	policy      *PolicyTable
	override    string
	logger      logger.Logger
	traceIDFunc logger.TraceIDFunc
	decisions   *decisionCache

	warnedActions sync.Map // actions already reported as unmapped
}

type EngineOption func(*Engine) error

// WithPolicyTable replaces the default action policy table.
func WithPolicyTable(t *PolicyTable) EngineOption {
	return func(e *Engine) error {
		if t == nil {
			return fmt.Errorf("policy table must not be nil")
		}
		e.policy = t
		return nil
	}
}

// WithOverridePermission changes the scope-bypass permission key. An empty
// key disables the bypass entirely.
func WithOverridePermission(key string) EngineOption {
	return func(e *Engine) error {
		e.override = key
		return nil
	}
}

func NewEngine(cache *RoleCache, opts ...EngineOption) (*Engine, error) {
	if cache == nil {
		return nil, fmt.Errorf("role cache must not be nil")
	}
	e := &Engine{
		cache:    cache,
		policy:   DefaultPolicyTable(),
		override: DefaultOverridePermission,
		logger:   logger.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Decide evaluates whether the actor may perform the action on the optional
// target resource.
func (e *Engine) Decide(ctx context.Context, actor Actor, action string, resource *Resource) *Decision {
	return e.decide(ctx, actor, action, resource, false)
}

// Can is the boolean convenience wrapper around Decide.
func (e *Engine) Can(ctx context.Context, actor Actor, action string, resource *Resource) bool {
	return e.Decide(ctx, actor, action, resource).Allowed
}

// Explain evaluates like Decide but records a step-by-step trace on the
// returned Decision. Explain never consults the decision cache.
func (e *Engine) Explain(ctx context.Context, actor Actor, action string, resource *Resource) *Decision {
	return e.decide(ctx, actor, action, resource, true)
}

// Refresh forces the role snapshot to be recomputed immediately and drops
// any memoized decisions, since role edits change outcomes in place.
func (e *Engine) Refresh(ctx context.Context) {
	e.cache.Refresh(ctx)
	if e.decisions != nil {
		e.decisions.clear()
	}
}

func (e *Engine) decide(ctx context.Context, actor Actor, action string, resource *Resource, includeTrace bool) *Decision {
	d := &Decision{
		Action:    action,
		Required:  []string{},
		Missing:   []string{},
		Timestamp: time.Now(),
	}

	// 1. Authentication gate: action and object are irrelevant here.
	if actor == nil || !actor.IsAuthenticated() {
		d.Reason = ReasonUnauthenticated
		if includeTrace {
			d.Trace = append(d.Trace, "DENY: actor missing or not authenticated")
		}
		e.logDecision(d)
		return d
	}

	var ck string
	if e.decisions != nil && !includeTrace {
		ck = decisionKey(actor, action, resource)
		if cached, ok := e.decisions.get(ck); ok {
			return cached
		}
	}

	// 2. Resolve required permission keys.
	d.Required = e.requiredPermissions(action)
	if includeTrace {
		d.Trace = append(d.Trace, fmt.Sprintf("required permissions: %v", d.Required))
	}

	// 3. Coarse permission check.
	for _, p := range d.Required {
		if !e.actorHasPermission(ctx, actor, p) {
			d.Missing = append(d.Missing, p)
		}
	}
	if len(d.Missing) > 0 {
		d.Reason = ReasonMissingPermission
		if includeTrace {
			d.Trace = append(d.Trace, fmt.Sprintf("DENY: role %s lacks %v", actor.RoleKey(), d.Missing))
		}
		return e.finish(ck, d)
	}

	// 4. Object scope.
	if ok, why := e.scopeAllows(ctx, actor, resource); !ok {
		d.Reason = ReasonScopeDenied
		if includeTrace {
			d.Trace = append(d.Trace, "DENY: "+why)
		}
		return e.finish(ck, d)
	} else if includeTrace {
		d.Trace = append(d.Trace, "scope: "+why)
	}

	d.Allowed = true
	d.Reason = ReasonAllowed
	if includeTrace {
		d.Trace = append(d.Trace, "ALLOW")
	}
	return e.finish(ck, d)
}

// scopeAllows applies the tenant/ownership/visibility rules uniformly for
// every action; the override permission is the only short-circuit.
func (e *Engine) scopeAllows(ctx context.Context, actor Actor, resource *Resource) (bool, string) {
	if resource == nil {
		return true, "no target object"
	}
	if e.override != "" && e.actorHasPermission(ctx, actor, e.override) {
		return true, "override permission " + e.override + " held"
	}
	if resource.TenantID != "" && resource.TenantID != actor.TenantID() {
		return false, "tenant mismatch"
	}
	if resource.IsOwnedBy(actor.ID()) {
		return true, "actor owns the object"
	}
	if resource.IsPublished() {
		return true, "object is published"
	}
	return false, "actor is not the owner and object is not published"
}

func (e *Engine) actorHasPermission(ctx context.Context, actor Actor, key string) bool {
	if h, ok := actor.(PermissionHolder); ok {
		return h.HasPermission(key)
	}
	return e.cache.HasPermission(ctx, actor.RoleKey(), key)
}

func (e *Engine) requiredPermissions(action string) []string {
	required, mapped := e.policy.Lookup(action)
	if !mapped {
		// a typo in an action string fails closed; surface it once so it
		// cannot silently mask a misconfigured route
		if _, dup := e.warnedActions.LoadOrStore(action, struct{}{}); !dup {
			e.logger.Warn("action has no policy entry, treating its name as the required permission key", "action", action)
		}
	}
	return required
}

func (e *Engine) finish(ck string, d *Decision) *Decision {
	if e.decisions != nil && ck != "" {
		e.decisions.set(ck, d)
	}
	e.logDecision(d)
	return d
}

func (e *Engine) logDecision(d *Decision) {
	kv := []any{"action", d.Action, "allowed", d.Allowed, "reason", string(d.Reason)}
	if e.traceIDFunc != nil {
		kv = append(kv, "trace_id", e.traceIDFunc())
	}
	e.logger.Debug("authorization decision", kv...)
}
