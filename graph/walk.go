package graph

import (
	"github.com/deiu/rdf2go"
)

// Reachable reports whether to can be reached from from by following edges
// labelled predicate zero or more times. Only IRI objects are followed.
func Reachable(g *rdf2go.Graph, from, predicate, to string) bool {
	if from == to {
		return true
	}
	p := rdf2go.NewResource(predicate)
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range ObjectIRIs(g, rdf2go.NewResource(cur), p) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Closure returns every IRI reachable from from over predicate, excluding
// from itself unless it lies on a cycle.
func Closure(g *rdf2go.Graph, from, predicate string) []string {
	p := rdf2go.NewResource(predicate)
	visited := map[string]bool{}
	var out []string
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range ObjectIRIs(g, rdf2go.NewResource(cur), p) {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}
