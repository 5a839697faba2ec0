package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
)

// dataset is a read-only view over a set of partitions, used by the
// backends that evaluate queries in process.
type dataset map[string]*rdf2go.Graph

// names returns the partition names in deterministic order.
func (d dataset) names() []string {
	out := make([]string, 0, len(d))
	for name := range d {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (d dataset) ask(q AskQuery) (bool, error) {
	switch q := q.(type) {
	case PathQuery:
		return d.askPath(q), nil
	case *PathQuery:
		return d.askPath(*q), nil
	case ReferenceQuery:
		return d.askReference(q), nil
	case *ReferenceQuery:
		return d.askReference(*q), nil
	default:
		return false, fmt.Errorf("unsupported ask query %T", q)
	}
}

// askPath follows the predicate across the union of the selected
// partitions.
func (d dataset) askPath(q PathQuery) bool {
	union := graph.New("")
	for _, name := range d.names() {
		for _, t := range d[name].All(nil, graph.IRI(q.Predicate), nil) {
			graph.Add(union, t.Subject, t.Predicate, t.Object)
		}
	}
	return graph.Reachable(union, q.From, q.Predicate, q.To)
}

func (d dataset) askReference(q ReferenceQuery) bool {
	target := graph.IRI(q.Resource)
	for _, name := range d.names() {
		g := d[name]
		owned := graph.Describe(g, target)
		for _, t := range g.All(nil, nil, target) {
			if t.Subject.Equal(target) {
				continue
			}
			if _, ok := t.Subject.(*rdf2go.BlankNode); ok && owned.One(nil, nil, t.Subject) != nil {
				continue
			}
			if pred, ok := t.Predicate.(*rdf2go.Resource); ok && slices.Contains(q.Exclude, pred.URI) {
				continue
			}
			return true
		}
	}
	return false
}

func (d dataset) construct(p Pattern) *rdf2go.Graph {
	out := graph.New("")
	for _, name := range d.names() {
		g := d[name]
		for _, t := range g.All(p.Subject, p.Predicate, p.Object) {
			graph.Add(out, t.Subject, t.Predicate, t.Object)
			if _, ok := t.Object.(*rdf2go.BlankNode); ok && p.Describe {
				graph.Merge(out, graph.Describe(g, t.Object))
			}
		}
	}
	return out
}

func (d dataset) selectRows(p Pattern) []Row {
	var rows []Row
	for _, name := range d.names() {
		for _, t := range d[name].All(p.Subject, p.Predicate, p.Object) {
			rows = append(rows, Row{
				"g": graph.IRI(name),
				"s": t.Subject,
				"p": t.Predicate,
				"o": t.Object,
			})
		}
	}
	return rows
}

// resourceExists implements Repository.ResourceExists over the partitions
// in d. The draft partition must be named graphURI; release partitions are
// those named graphURI + "/" + version.
func (d dataset) resourceExists(graphURI, resourceURI string, includeVersions bool) bool {
	if g, ok := d[graphURI]; ok && g.One(graph.IRI(resourceURI), nil, nil) != nil {
		return true
	}
	if !includeVersions {
		return false
	}
	local := strings.TrimPrefix(resourceURI, graphURI)
	for _, name := range d.names() {
		if !isReleaseOf(name, graphURI) {
			continue
		}
		if d[name].One(graph.IRI(name+local), nil, nil) != nil {
			return true
		}
	}
	return false
}

// isReleaseOf reports whether name is a version partition of graphURI.
func isReleaseOf(name, graphURI string) bool {
	rest, ok := strings.CutPrefix(name, graphURI+"/")
	return ok && rest != "" && !strings.Contains(rest, "/") && rest[0] >= '0' && rest[0] <= '9'
}

func askGraphs(q AskQuery) []string {
	switch q := q.(type) {
	case PathQuery:
		return q.Graphs
	case *PathQuery:
		return q.Graphs
	case ReferenceQuery:
		return q.Graphs
	case *ReferenceQuery:
		return q.Graphs
	}
	return nil
}

// Locator returns the partition that describes resourceURI. ok is false
// for resources no partition describes, such as external IRIs.
type Locator func(resourceURI string) (graphURI string, ok bool)

// walkPath answers a path query by loading only the partitions of the
// resources visited on the way. fetch returns nil for absent partitions.
func walkPath(ctx context.Context, q PathQuery, locate Locator, fetch func(context.Context, string) (*rdf2go.Graph, error)) (bool, error) {
	if q.From == q.To {
		return true, nil
	}
	p := graph.IRI(q.Predicate)
	loaded := map[string]*rdf2go.Graph{}
	visited := map[string]bool{q.From: true}
	queue := []string{q.From}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		name, ok := locate(cur)
		if !ok {
			continue
		}
		g, seen := loaded[name]
		if !seen {
			var err error
			if g, err = fetch(ctx, name); err != nil {
				return false, err
			}
			loaded[name] = g
		}
		if g == nil {
			continue
		}
		for _, next := range graph.ObjectIRIs(g, graph.IRI(cur), p) {
			if next == q.To {
				return true, nil
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false, nil
}
