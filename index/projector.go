// Package index projects data model resources into search documents.
//
// Projection trails the graph write: callers invoke a Projector only after
// the repository accepted the new graph, and a failed projection never rolls
// the graph back.
package index

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Projector receives resource documents on create, update and delete.
type Projector interface {
	CreateResource(ctx context.Context, doc Document) error
	UpdateResource(ctx context.Context, doc Document) error
	DeleteResource(ctx context.Context, id string) error
}

// MemoryIndex keeps documents in process memory.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

// CreateResource implements Projector.
func (m *MemoryIndex) CreateResource(_ context.Context, doc Document) error {
	return m.put(doc)
}

// UpdateResource implements Projector.
func (m *MemoryIndex) UpdateResource(_ context.Context, doc Document) error {
	return m.put(doc)
}

// DeleteResource implements Projector. Deleting an unknown id is not an
// error.
func (m *MemoryIndex) DeleteResource(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *MemoryIndex) put(doc Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

// Get returns the document stored under id.
func (m *MemoryIndex) Get(id string) (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok
}

// Documents returns all documents ordered by id.
func (m *MemoryIndex) Documents() []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Multi fans one projection out to several projectors. Every projector is
// called; the errors are joined.
type Multi []Projector

// CreateResource implements Projector.
func (m Multi) CreateResource(ctx context.Context, doc Document) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.CreateResource(ctx, doc))
	}
	return errors.Join(errs...)
}

// UpdateResource implements Projector.
func (m Multi) UpdateResource(ctx context.Context, doc Document) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.UpdateResource(ctx, doc))
	}
	return errors.Join(errs...)
}

// DeleteResource implements Projector.
func (m Multi) DeleteResource(ctx context.Context, id string) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.DeleteResource(ctx, id))
	}
	return errors.Join(errs...)
}
