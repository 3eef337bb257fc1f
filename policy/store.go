package policy

import (
	"sync"
)

// Store is an ordered, concurrency-safe collection of policies. Insertion
// order is significant: the engine scans applicable policies in that order.
type Store struct {
	mu       sync.RWMutex
	policies []Policy
}

// NewStore returns a store seeded with the given policies, in order.
func NewStore(policies ...Policy) *Store {
	s := &Store{}
	for _, p := range policies {
		s.Add(p)
	}
	return s
}

// Add appends p. Ids are not checked for uniqueness.
func (s *Store) Add(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p.clone())
}

// Remove deletes the first policy with the given id. It reports whether a
// policy was removed; a missing id is not an error.
func (s *Store) Remove(id string) (Policy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.policies {
		if p.ID == id {
			s.policies = append(s.policies[:i:i], s.policies[i+1:]...)
			return p, true
		}
	}
	return Policy{}, false
}

// List returns a copy of every stored policy.
func (s *Store) List() []Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Policy, len(s.policies))
	for i, p := range s.policies {
		out[i] = p.clone()
	}
	return out
}

// FindApplicable returns, in insertion order, the policies whose resource
// and action both match.
func (s *Store) FindApplicable(resource ResourceType, action Action) []Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Policy
	for _, p := range s.policies {
		if p.Resource == resource && p.Action == action {
			out = append(out, p.clone())
		}
	}
	return out
}

// Len returns the number of stored policies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.policies)
}
