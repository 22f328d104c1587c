package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type StoreMetrics interface {
	SessionOpened()
	SessionClosed()
}

// Store keeps the live machines of this process. Sessions are never shared across
// processes and never reused after confirmation.
type Store struct {
	mu       sync.RWMutex
	machines map[uuid.UUID]*entry
	metrics  StoreMetrics
}

type entry struct {
	machine   *Machine
	createdAt time.Time
}

func NewStore(metrics StoreMetrics) *Store {
	return &Store{
		machines: map[uuid.UUID]*entry{},
		metrics:  metrics,
	}
}

func (s *Store) Put(m *Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.machines[m.ID()]; !ok && s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.machines[m.ID()] = &entry{machine: m, createdAt: m.session.CreatedAt}
}

func (s *Store) Get(id uuid.UUID) (*Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.machines[id]
	if !ok {
		return nil, NewSessionNotFoundError(id.String())
	}
	return e.machine, nil
}

// Discard drops a session. It reports whether the session existed.
func (s *Store) Discard(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discardLocked(id)
}

func (s *Store) discardLocked(id uuid.UUID) bool {
	if _, ok := s.machines[id]; !ok {
		return false
	}
	delete(s.machines, id)
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	return true
}

// Sweep discards sessions created before the cutoff and returns how many went away.
func (s *Store) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.machines {
		if e.createdAt.Before(cutoff) && s.discardLocked(id) {
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.machines)
}
