package fake

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable, ordered view of a registry. Index 0 has the
// highest priority.
type Snapshot struct {
	version uint64
	rules   []*Rule
}

// Version increases by one with every mutation of the registry.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of rules.
func (s *Snapshot) Len() int {
	return len(s.rules)
}

// At returns the rule at position i.
func (s *Snapshot) At(i int) *Rule {
	return s.rules[i]
}

// Rules returns a copy of the ordered rules.
func (s *Snapshot) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Registry is the ordered, mutable rule list of one fake.
//
// Readers load the current snapshot without locking. Writers build a new
// slice from the current snapshot and swap it in under mu, so an iteration
// in progress keeps seeing the slice it started with. mu is never held while
// user code runs, which lets rule predicates mutate the registry re-entrantly.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&Snapshot{})
	return r
}

// Snapshot returns the current ordered rules.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return r.current.Load().Len()
}

// InsertFirst gives rule precedence over every rule already present.
// A rule that is already registered moves to the front.
func (r *Registry) InsertFirst(rule *Rule) {
	r.mutate(func(rules []*Rule) []*Rule {
		next := make([]*Rule, 0, len(rules)+1)
		next = append(next, rule)
		return append(next, without(rules, rule)...)
	})
}

// InsertLast gives rule the lowest precedence.
// A rule that is already registered moves to the back.
func (r *Registry) InsertLast(rule *Rule) {
	r.mutate(func(rules []*Rule) []*Rule {
		next := make([]*Rule, 0, len(rules)+1)
		next = append(next, without(rules, rule)...)
		return append(next, rule)
	})
}

// Remove deletes rule, reporting whether it was registered.
func (r *Registry) Remove(rule *Rule) bool {
	removed := false
	r.mutate(func(rules []*Rule) []*Rule {
		next := without(rules, rule)
		removed = len(next) != len(rules)
		return next
	})
	return removed
}

// RemoveByID deletes the rule with the given ID.
func (r *Registry) RemoveByID(id string) bool {
	rule := r.Find(id)
	if rule == nil {
		return false
	}
	return r.Remove(rule)
}

// Find returns the registered rule with the given ID, or nil.
func (r *Registry) Find(id string) *Rule {
	for _, rule := range r.current.Load().rules {
		if rule.id == id {
			return rule
		}
	}
	return nil
}

// Clear removes every rule.
func (r *Registry) Clear() {
	r.mutate(func([]*Rule) []*Rule {
		return nil
	})
}

func (r *Registry) mutate(fn func(rules []*Rule) []*Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	r.current.Store(&Snapshot{
		version: cur.version + 1,
		rules:   fn(cur.rules),
	})
}

// without returns a fresh slice; rules itself is never modified.
func without(rules []*Rule, rule *Rule) []*Rule {
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		if r != rule {
			out = append(out, r)
		}
	}
	return out
}
