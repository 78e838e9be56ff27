package cache

import (
	"sync"
	"time"
)

// Known cache domains. Mutations in the reservation service invalidate the
// domains they touch; the TTL is a correctness backstop for the case where a
// mutation landed on a different process instance.
const (
	DomainProducts     = "products"
	DomainReservations = "reservations"
	DomainStoreConfig  = "store-config"
)

type entry struct {
	value     any
	createdAt time.Time
}

// Store is a process-local TTL cache for derived response payloads, keyed by
// logical domain and an entry key within it. It is best-effort only: a
// multi-instance deployment sees invalidations on the mutating instance
// alone and relies on the TTL elsewhere.
type Store struct {
	mu      sync.RWMutex
	domains map[string]map[string]entry
	ttl     time.Duration
	stopCh  chan struct{}
}

func New(ttl time.Duration) *Store {
	s := &Store{
		domains: make(map[string]map[string]entry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go s.cleanup()

	return s
}

func (s *Store) Get(domain, key string) (any, bool) {
	s.mu.RLock()
	e, exists := s.domains[domain][key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(e.createdAt) > s.ttl {
		s.mu.Lock()
		delete(s.domains[domain], key)
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(domain, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domains[domain] == nil {
		s.domains[domain] = make(map[string]entry)
	}
	s.domains[domain][key] = entry{value: value, createdAt: time.Now()}
}

// Invalidate drops every entry in the given domains.
func (s *Store) Invalidate(domains ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, domain := range domains {
		delete(s.domains, domain)
	}
}

func (s *Store) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for domain, entries := range s.domains {
				for key, e := range entries {
					if time.Since(e.createdAt) > s.ttl {
						delete(entries, key)
					}
				}
				if len(entries) == 0 {
					delete(s.domains, domain)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (s *Store) Stop() {
	close(s.stopCh)
}
