package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "contactgraph/backend/pkg/errors"
)

// MemoryStore is an in-memory Store implementation with the same merge and
// traversal semantics as the Neo4j repository. It backs unit tests so merge
// idempotence and shortest-path behavior can be exercised without a running
// database.
type MemoryStore struct {
	mu      sync.Mutex
	persons map[string]*Person
	edges   map[string]map[string]bool // owner phone -> set of contact phones
	err     error
}

// NewMemoryStore creates an empty in-memory contact graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		persons: make(map[string]*Person),
		edges:   make(map[string]map[string]bool),
	}
}

// WithError forces every subsequent operation to fail with err, simulating
// an unreachable graph engine
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MemoryStore) EnsureSchema(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryStore) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

func (m *MemoryStore) UpsertPerson(_ context.Context, params UpsertParams) (*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	p, exists := m.persons[params.Phone]
	if !exists {
		p = &Person{
			Phone:     params.Phone,
			Name:      params.Name,
			Email:     params.Email,
			GoogleID:  params.GoogleID,
			IsAppUser: params.IsAppUser,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		m.persons[params.Phone] = p
	} else {
		p.Name = params.Name
		if params.Email != "" {
			p.Email = params.Email
		}
		if params.GoogleID != "" {
			p.GoogleID = params.GoogleID
		}
		if params.IsAppUser {
			p.IsAppUser = true
		}
	}

	clone := *p
	return &clone, nil
}

func (m *MemoryStore) GetPerson(_ context.Context, phone string) (*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	p, ok := m.persons[phone]
	if !ok {
		return nil, apperrors.NewPersonNotFound(phone)
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryStore) BulkUpsertAndLink(_ context.Context, ownerPhone string, contacts []Contact) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if len(contacts) == 0 {
		return 0, nil
	}

	for _, c := range contacts {
		p, exists := m.persons[c.Phone]
		if !exists {
			m.persons[c.Phone] = &Person{
				Phone:     c.Phone,
				Name:      c.Name,
				IsAppUser: false,
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			}
		} else if !p.IsAppUser {
			// A member's own profile name wins over address-book entries
			p.Name = c.Name
		}
	}

	// No owner node means no edges, matching the Cypher where the owner
	// MATCH drops every row
	if _, ok := m.persons[ownerPhone]; !ok {
		return 0, nil
	}

	if m.edges[ownerPhone] == nil {
		m.edges[ownerPhone] = make(map[string]bool)
	}
	for _, c := range contacts {
		m.edges[ownerPhone][c.Phone] = true
	}
	return len(contacts), nil
}

func (m *MemoryStore) RemoveKnows(_ context.Context, ownerPhone, contactPhone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}

	set, ok := m.edges[ownerPhone]
	if !ok || !set[contactPhone] {
		return false, nil
	}
	delete(set, contactPhone)
	return true, nil
}

func (m *MemoryStore) ShortestPath(_ context.Context, fromPhone, toPhone string, maxHops int) (*Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if maxHops < 1 {
		maxHops = 1
	}
	if _, ok := m.persons[fromPhone]; !ok {
		return nil, nil
	}
	if _, ok := m.persons[toPhone]; !ok {
		return nil, nil
	}

	// BFS over the undirected view of KNOWS edges
	type queued struct {
		phone string
		depth int
	}
	prev := map[string]string{fromPhone: ""}
	queue := []queued{{fromPhone, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.phone == toPhone && cur.depth > 0 {
			nodes := []Person{}
			for at := toPhone; at != ""; at = prev[at] {
				nodes = append([]Person{*m.persons[at]}, nodes...)
			}
			return &Path{Degree: cur.depth, Nodes: nodes}, nil
		}
		if cur.depth == maxHops {
			continue
		}
		for _, next := range m.neighborsLocked(cur.phone) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur.phone
			queue = append(queue, queued{next, cur.depth + 1})
		}
	}
	return nil, nil
}

func (m *MemoryStore) DirectNeighbors(_ context.Context, ownerPhone string) ([]Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	neighbors := []Person{}
	for phone := range m.edges[ownerPhone] {
		if p, ok := m.persons[phone]; ok {
			neighbors = append(neighbors, *p)
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Name < neighbors[j].Name
	})
	return neighbors, nil
}

func (m *MemoryStore) NetworkStats(_ context.Context, ownerPhone string) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	stats := &Stats{}
	for phone := range m.edges[ownerPhone] {
		p, ok := m.persons[phone]
		if !ok {
			continue
		}
		stats.TotalContacts++
		if p.IsAppUser {
			stats.AppUsersCount++
		} else {
			stats.NonAppUsersCount++
		}
	}
	return stats, nil
}

// neighborsLocked returns the undirected neighbor set of a phone; callers
// hold m.mu
func (m *MemoryStore) neighborsLocked(phone string) []string {
	out := []string{}
	for contact := range m.edges[phone] {
		out = append(out, contact)
	}
	for owner, set := range m.edges {
		if owner != phone && set[phone] {
			out = append(out, owner)
		}
	}
	sort.Strings(out)
	return out
}
