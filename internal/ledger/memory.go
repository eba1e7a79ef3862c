package ledger

import (
	"context"
	"sort"
	"sync"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// InMemoryStore keeps ledger events in process memory. It backs unit tests
// and local development; the immutability contract is enforced exactly as in
// the postgres store so tests exercise the same semantics.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.EventID]Event
	order  []domain.EventID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.EventID]Event)}
}

func (s *InMemoryStore) Insert(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	s.events[event.ID] = event
	s.order = append(s.order, event.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.EventID) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if event, ok := s.events[id]; ok {
		return event, nil
	}
	return Event{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Event
	for _, id := range s.order {
		event := s.events[id]
		if !filter.TenantID.IsNil() && event.FinalTenantID != filter.TenantID {
			continue
		}
		if filter.AttentionPending && (!event.RequiresAttention || event.Reviewed) {
			continue
		}
		matched = append(matched, event)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) SetReviewed(_ context.Context, id domain.EventID, reviewedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	event.Reviewed = true
	event.ReviewedBy = reviewedBy
	s.events[id] = event
	return nil
}

// Tamper overwrites a stored event in place, bypassing the immutability
// contract. Test-only hook for exercising Verify against altered rows; the
// postgres store has no equivalent.
func (s *InMemoryStore) Tamper(id domain.EventID, mutate func(*Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return false
	}
	mutate(&event)
	s.events[id] = event
	return true
}
