// Package runstore keeps completed localization runs in memory for
// reporters and batch summaries. Nothing is persisted; the pipeline has no
// durable state.
package runstore

import (
	"fmt"
	"sync"

	"github.com/geosignals/quake-locator/core"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventRunAdded EventType = iota
)

// Event is emitted to subscribers when a run is recorded.
type Event struct {
	Type EventType
	ID   string
	Run  *core.Run
}

// Store is an in-memory, thread-safe collection of completed runs.
type Store struct {
	mu sync.RWMutex

	runs  map[string]*core.Run
	order []string

	subs []func(Event)
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*core.Run)}
}

// Add records a completed run under the given ID. It returns an error if the
// ID already exists.
func (s *Store) Add(id string, run *core.Run) error {
	s.mu.Lock()
	if _, exists := s.runs[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("run with ID %q already exists", id)
	}
	s.runs[id] = run
	s.order = append(s.order, id)
	event := Event{Type: EventRunAdded, ID: id, Run: run}
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Get returns the run with the given ID, or nil if not found.
func (s *Store) Get(id string) *core.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id]
}

// List returns all recorded runs in insertion order.
func (s *Store) List() []*core.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*core.Run, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.runs[id])
	}
	return res
}

// Len returns the number of recorded runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Subscribe registers a callback for store events. It returns an unsubscribe
// function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}
