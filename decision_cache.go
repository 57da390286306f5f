package guard

import (
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultDecisionCacheTTL     = time.Second
	defaultRistrettoNumCounters = 10_000
	defaultRistrettoMaxCost     = 1 << 20
	defaultRistrettoBuffer      = 64
)

// decisionCache memoizes recent decisions in a ristretto cache. The key
// carries everything a decision depends on except the role definitions
// themselves, which is why Engine.Refresh clears the cache outright: a role
// edit changes outcomes without changing keys.
type decisionCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newDecisionCache(ttl time.Duration, numCounters, maxCost, bufferItems int64) (*decisionCache, error) {
	if ttl <= 0 {
		ttl = defaultDecisionCacheTTL
	}
	if numCounters <= 0 {
		numCounters = defaultRistrettoNumCounters
	}
	if maxCost <= 0 {
		maxCost = defaultRistrettoMaxCost
	}
	if bufferItems <= 0 {
		bufferItems = defaultRistrettoBuffer
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &decisionCache{cache: c, ttl: ttl}, nil
}

func (dc *decisionCache) get(key string) (*Decision, bool) {
	v, ok := dc.cache.Get(key)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Decision)
	if !ok {
		return nil, false
	}
	// decisions are immutable per contract; clone so a caller holding the
	// result cannot poison later hits, and restamp so the timestamp always
	// reflects when this caller asked
	dup := d.Clone()
	dup.Timestamp = time.Now()
	return dup, true
}

func (dc *decisionCache) set(key string, d *Decision) {
	dc.cache.SetWithTTL(key, d.Clone(), 1, dc.ttl)
}

func (dc *decisionCache) clear() {
	dc.cache.Clear()
}

// wait flushes pending writes; used by tests for deterministic visibility.
func (dc *decisionCache) wait() {
	dc.cache.Wait()
}

// WithDecisionCache enables decision memoization. Zero values fall back to
// conservative defaults (1s TTL, small ristretto cache).
func WithDecisionCache(ttl time.Duration, numCounters, maxCost, bufferItems int64) EngineOption {
	return func(e *Engine) error {
		dc, err := newDecisionCache(ttl, numCounters, maxCost, bufferItems)
		if err != nil {
			return err
		}
		e.decisions = dc
		return nil
	}
}

func decisionKey(actor Actor, action string, resource *Resource) string {
	var b strings.Builder
	b.WriteString(actor.ID())
	b.WriteByte('|')
	b.WriteString(actor.RoleKey())
	b.WriteByte('|')
	b.WriteString(actor.TenantID())
	b.WriteByte('|')
	b.WriteString(action)
	if resource != nil {
		b.WriteByte('|')
		b.WriteString(resource.TenantID)
		b.WriteByte('|')
		b.WriteString(resource.OwnerID)
		b.WriteByte('|')
		b.WriteString(resource.Status)
	}
	return b.String()
}
