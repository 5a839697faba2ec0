// Package storage provides the graph repository used by the data model
// services.
//
// The write unit is one named graph partition: Put replaces a whole
// partition and no triple-level updates are exposed. Three backends are
// provided: MemoryRepository for tests and single-process use, KVRepository
// on NATS JetStream KV, and SPARQLRepository for an external SPARQL 1.1
// store with a Graph Store Protocol endpoint.
package storage

import (
	"context"

	"github.com/deiu/rdf2go"
)

// Partition is one named graph as read from a repository.
type Partition struct {
	URI   string
	Graph *rdf2go.Graph
	// Revision identifies the stored state for PutIfUnchanged. Backends
	// without revision support report 0.
	Revision uint64
}

// Repository is the graph store facade.
type Repository interface {
	// Fetch returns the partition graphURI or ErrNotFound.
	Fetch(ctx context.Context, graphURI string) (*Partition, error)
	// Put atomically replaces the partition.
	Put(ctx context.Context, graphURI string, g *rdf2go.Graph) error
	// PutIfUnchanged replaces the partition only if its revision still
	// equals revision; 0 means the partition must not exist. It fails with
	// errs.ErrConflict otherwise.
	PutIfUnchanged(ctx context.Context, graphURI string, g *rdf2go.Graph, revision uint64) error
	// Delete removes the partition. Deleting an absent partition is not an
	// error.
	Delete(ctx context.Context, graphURI string) error
	// Exists reports whether the partition exists.
	Exists(ctx context.Context, graphURI string) (bool, error)
	// ResourceExists reports whether resourceURI is described in graphURI.
	// With includeVersions the release partitions of graphURI are searched
	// for the same local identifier as well.
	ResourceExists(ctx context.Context, graphURI, resourceURI string, includeVersions bool) (bool, error)
	// Ask evaluates a boolean query.
	Ask(ctx context.Context, q AskQuery) (bool, error)
	// Construct returns the triples matching p.
	Construct(ctx context.Context, p Pattern) (*rdf2go.Graph, error)
	// Select returns one row per triple matching p, with bindings
	// "g", "s", "p" and "o".
	Select(ctx context.Context, p Pattern) ([]Row, error)
}

// Pattern is a single triple pattern. Nil terms are wildcards. Graphs
// restricts the partitions searched; empty means all partitions.
type Pattern struct {
	Graphs    []string
	Subject   rdf2go.Term
	Predicate rdf2go.Term
	Object    rdf2go.Term
	// Describe also returns the blank-node structures owned by matched
	// objects. Only used by Construct.
	Describe bool
}

// Row is one solution of a Select.
type Row map[string]rdf2go.Term

// IRI returns the IRI bound to name, or "".
func (r Row) IRI(name string) string {
	if res, ok := r[name].(*rdf2go.Resource); ok {
		return res.URI
	}
	return ""
}

// AskQuery is a boolean query understood by every backend.
type AskQuery interface {
	askQuery()
}

// PathQuery asks whether To is reachable from From by following Predicate
// zero or more times.
type PathQuery struct {
	Graphs    []string
	From      string
	Predicate string
	To        string
}

// ReferenceQuery asks whether any subject other than Resource references
// Resource through a predicate not listed in Exclude. Blank nodes owned by
// Resource do not count as other subjects.
type ReferenceQuery struct {
	Graphs   []string
	Resource string
	Exclude  []string
}

func (PathQuery) askQuery()      {}
func (ReferenceQuery) askQuery() {}
