package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/career-transitions/internal/types"
)

type stamped[T any] struct {
	value     T
	fetchedAt time.Time
}

type storedTransition struct {
	transition types.Transition
	computedAt time.Time
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	now         func() time.Time
	companies   map[string]stamped[types.CompanyRecord]
	persons     map[string]stamped[types.Person]
	transitions map[string]storedTransition
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an empty in-memory store that reads time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		now:         now,
		companies:   make(map[string]stamped[types.CompanyRecord]),
		persons:     make(map[string]stamped[types.Person]),
		transitions: make(map[string]storedTransition),
	}
}

// Close is a no-op.
func (m *Memory) Close() {}

// UpsertCompany stores a company keyed by ID.
func (m *Memory) UpsertCompany(_ context.Context, company *types.CompanyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[company.ID] = stamped[types.CompanyRecord]{value: *company, fetchedAt: m.now()}
	return nil
}

// GetFreshCompanyByName mirrors DB.GetFreshCompanyByName.
func (m *Memory) GetFreshCompanyByName(_ context.Context, name string, maxAge time.Duration) (*types.CompanyRecord, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-maxAge)
	var best *types.CompanyRecord
	for _, entry := range m.companies {
		if !entry.fetchedAt.After(cutoff) || NormalizeName(entry.value.Name) != normalized {
			continue
		}
		if best == nil || entry.value.ID < best.ID {
			c := entry.value
			best = &c
		}
	}
	return best, nil
}

// UpsertPerson stores a copy of person keyed by ID.
func (m *Memory) UpsertPerson(_ context.Context, person *types.Person) error {
	stored := *person
	stored.Positions = append([]types.Position(nil), person.Positions...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons[person.ID] = stamped[types.Person]{value: stored, fetchedAt: m.now()}
	return nil
}

// GetFreshPerson returns a copy of a person stored within maxAge.
func (m *Memory) GetFreshPerson(_ context.Context, id string, maxAge time.Duration) (*types.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.persons[id]
	if !ok || !entry.fetchedAt.After(m.now().Add(-maxAge)) {
		return nil, nil
	}
	person := entry.value
	person.Positions = append([]types.Position{}, entry.value.Positions...)
	return &person, nil
}

// UpsertTransitions stores transitions keyed by (person, source company).
func (m *Memory) UpsertTransitions(_ context.Context, transitions []types.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, t := range transitions {
		m.transitions[t.PersonID+"|"+TransitionKey(t)] = storedTransition{transition: t, computedAt: now}
	}
	return nil
}

// ListTransitionsBySource mirrors DB.ListTransitionsBySource: newest first.
func (m *Memory) ListTransitionsBySource(_ context.Context, source string, limit int) ([]types.Transition, error) {
	needle := strings.ToLower(strings.TrimSpace(source))

	m.mu.RLock()
	matched := make([]storedTransition, 0)
	for _, st := range m.transitions {
		if strings.Contains(strings.ToLower(st.transition.SourceCompany), needle) {
			matched = append(matched, st)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].computedAt.Equal(matched[j].computedAt) {
			return matched[i].computedAt.After(matched[j].computedAt)
		}
		return matched[i].transition.PersonID < matched[j].transition.PersonID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	transitions := make([]types.Transition, 0, len(matched))
	for _, st := range matched {
		transitions = append(transitions, st.transition)
	}
	return transitions, nil
}
