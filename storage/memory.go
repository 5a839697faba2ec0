package storage

import (
	"context"
	"sync"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
)

// MemoryRepository keeps partitions in process memory. Graphs are copied on
// the way in and out so callers own what they hold.
type MemoryRepository struct {
	mu         sync.RWMutex
	partitions map[string]*rdf2go.Graph
	revisions  map[string]uint64
	next       uint64
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		partitions: make(map[string]*rdf2go.Graph),
		revisions:  make(map[string]uint64),
	}
}

// Fetch implements Repository.
func (m *MemoryRepository) Fetch(_ context.Context, graphURI string) (*Partition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.partitions[graphURI]
	if !ok {
		return nil, ErrNotFound
	}
	return &Partition{URI: graphURI, Graph: graph.Clone(g), Revision: m.revisions[graphURI]}, nil
}

// Put implements Repository.
func (m *MemoryRepository) Put(_ context.Context, graphURI string, g *rdf2go.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(graphURI, g)
	return nil
}

// PutIfUnchanged implements Repository.
func (m *MemoryRepository) PutIfUnchanged(_ context.Context, graphURI string, g *rdf2go.Graph, revision uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.revisions[graphURI] != revision {
		return errs.ErrConflict
	}
	m.store(graphURI, g)
	return nil
}

func (m *MemoryRepository) store(graphURI string, g *rdf2go.Graph) {
	m.next++
	m.partitions[graphURI] = graph.Clone(g)
	m.revisions[graphURI] = m.next
}

// Delete implements Repository.
func (m *MemoryRepository) Delete(_ context.Context, graphURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.partitions, graphURI)
	delete(m.revisions, graphURI)
	return nil
}

// Exists implements Repository.
func (m *MemoryRepository) Exists(_ context.Context, graphURI string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.partitions[graphURI]
	return ok, nil
}

// ResourceExists implements Repository.
func (m *MemoryRepository) ResourceExists(_ context.Context, graphURI, resourceURI string, includeVersions bool) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view(nil).resourceExists(graphURI, resourceURI, includeVersions), nil
}

// Ask implements Repository.
func (m *MemoryRepository) Ask(_ context.Context, q AskQuery) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view(askGraphs(q)).ask(q)
}

// Construct implements Repository.
func (m *MemoryRepository) Construct(_ context.Context, p Pattern) (*rdf2go.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view(p.Graphs).construct(p), nil
}

// Select implements Repository.
func (m *MemoryRepository) Select(_ context.Context, p Pattern) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view(p.Graphs).selectRows(p), nil
}

// Graphs returns the names of all stored partitions.
func (m *MemoryRepository) Graphs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view(nil).names()
}

// view must be called with the lock held. The returned graphs are shared
// and must not be mutated.
func (m *MemoryRepository) view(graphs []string) dataset {
	d := dataset{}
	if len(graphs) == 0 {
		for name, g := range m.partitions {
			d[name] = g
		}
		return d
	}
	for _, name := range graphs {
		if g, ok := m.partitions[name]; ok {
			d[name] = g
		}
	}
	return d
}
