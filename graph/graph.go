// Package graph provides helpers over in-memory RDF graphs.
//
// Graphs are *rdf2go.Graph values. rdf2go keys triples by pointer, so the
// helpers here treat a graph as a set: Add skips triples that are already
// present and Set replaces every object of a subject/predicate pair.
package graph

import (
	"sort"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// New returns an empty graph named uri.
func New(uri string) *rdf2go.Graph {
	return rdf2go.NewGraph(uri)
}

// IRI returns a resource term.
func IRI(uri string) rdf2go.Term {
	return rdf2go.NewResource(uri)
}

// Literal returns a plain literal.
func Literal(value string) rdf2go.Term {
	return rdf2go.NewLiteral(value)
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) rdf2go.Term {
	return rdf2go.NewLiteralWithLanguage(value, lang)
}

// TypedLiteral returns a literal with datatype IRI datatype.
func TypedLiteral(value, datatype string) rdf2go.Term {
	return rdf2go.NewLiteralWithDatatype(value, rdf2go.NewResource(datatype))
}

// Blank returns a blank node term.
func Blank(id string) rdf2go.Term {
	return rdf2go.NewBlankNode(id)
}

// Add inserts s p o unless an equal triple already exists.
// It reports whether the graph changed.
func Add(g *rdf2go.Graph, s, p, o rdf2go.Term) bool {
	if g.One(s, p, o) != nil {
		return false
	}
	g.AddTriple(s, p, o)
	return true
}

// Set replaces all objects of s p with objs.
func Set(g *rdf2go.Graph, s, p rdf2go.Term, objs ...rdf2go.Term) {
	RemoveAll(g, s, p, nil)
	for _, o := range objs {
		Add(g, s, p, o)
	}
}

// RemoveAll deletes every triple matching the pattern; nil terms are
// wildcards. It returns the number of removed triples.
func RemoveAll(g *rdf2go.Graph, s, p, o rdf2go.Term) int {
	matches := g.All(s, p, o)
	for _, t := range matches {
		g.Remove(t)
	}
	return len(matches)
}

// Has reports whether any triple matches the pattern.
func Has(g *rdf2go.Graph, s, p, o rdf2go.Term) bool {
	return g.One(s, p, o) != nil
}

// HasType reports whether s is typed with class.
func HasType(g *rdf2go.Graph, s rdf2go.Term, class string) bool {
	return g.One(s, IRI(datamodel.Type), IRI(class)) != nil
}

// Objects returns the objects of s p.
func Objects(g *rdf2go.Graph, s, p rdf2go.Term) []rdf2go.Term {
	triples := g.All(s, p, nil)
	out := make([]rdf2go.Term, 0, len(triples))
	for _, t := range triples {
		out = append(out, t.Object)
	}
	return out
}

// Object returns one object of s p, or nil.
func Object(g *rdf2go.Graph, s, p rdf2go.Term) rdf2go.Term {
	if t := g.One(s, p, nil); t != nil {
		return t.Object
	}
	return nil
}

// ObjectIRIs returns the sorted IRIs among the objects of s p. Literals and
// blank nodes are skipped.
func ObjectIRIs(g *rdf2go.Graph, s, p rdf2go.Term) []string {
	var out []string
	for _, t := range g.All(s, p, nil) {
		if r, ok := t.Object.(*rdf2go.Resource); ok {
			out = append(out, r.URI)
		}
	}
	sort.Strings(out)
	return out
}

// ObjectIRI returns the first IRI object of s p in sorted order, or "".
func ObjectIRI(g *rdf2go.Graph, s, p rdf2go.Term) string {
	if iris := ObjectIRIs(g, s, p); len(iris) > 0 {
		return iris[0]
	}
	return ""
}

// LiteralValue returns the lexical value of one literal object of s p.
func LiteralValue(g *rdf2go.Graph, s, p rdf2go.Term) string {
	for _, t := range g.All(s, p, nil) {
		if l, ok := t.Object.(*rdf2go.Literal); ok {
			return l.Value
		}
	}
	return ""
}

// LangMap collects the language-tagged literals of s p by language.
// Untagged literals are stored under "".
func LangMap(g *rdf2go.Graph, s, p rdf2go.Term) map[string]string {
	out := map[string]string{}
	for _, t := range g.All(s, p, nil) {
		if l, ok := t.Object.(*rdf2go.Literal); ok {
			out[l.Language] = l.Value
		}
	}
	return out
}

// SetLangMap replaces the literals of s p with one tagged literal per entry.
// Empty values are skipped.
func SetLangMap(g *rdf2go.Graph, s, p rdf2go.Term, values map[string]string) {
	RemoveAll(g, s, p, nil)
	for lang, v := range values {
		if v == "" {
			continue
		}
		if lang == "" {
			Add(g, s, p, Literal(v))
			continue
		}
		Add(g, s, p, LangLiteral(v, lang))
	}
}

// Subjects returns the distinct IRI subjects of triples matching ? p o,
// sorted.
func Subjects(g *rdf2go.Graph, p, o rdf2go.Term) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range g.All(nil, p, o) {
		r, ok := t.Subject.(*rdf2go.Resource)
		if !ok || seen[r.URI] {
			continue
		}
		seen[r.URI] = true
		out = append(out, r.URI)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of g under the same name.
func Clone(g *rdf2go.Graph) *rdf2go.Graph {
	out := rdf2go.NewGraph(g.URI())
	for _, t := range g.All(nil, nil, nil) {
		out.AddTriple(t.Subject, t.Predicate, t.Object)
	}
	return out
}

// Merge adds every triple of src to dst, skipping duplicates.
func Merge(dst, src *rdf2go.Graph) {
	for _, t := range src.All(nil, nil, nil) {
		Add(dst, t.Subject, t.Predicate, t.Object)
	}
}

// Describe copies every triple whose subject is s into a new graph, following
// blank-node objects so that nested structures come along.
func Describe(g *rdf2go.Graph, s rdf2go.Term) *rdf2go.Graph {
	out := rdf2go.NewGraph(g.URI())
	describeInto(out, g, s, map[string]bool{})
	return out
}

func describeInto(dst, src *rdf2go.Graph, s rdf2go.Term, visited map[string]bool) {
	key := s.String()
	if visited[key] {
		return
	}
	visited[key] = true
	for _, t := range src.All(s, nil, nil) {
		Add(dst, t.Subject, t.Predicate, t.Object)
		if _, ok := t.Object.(*rdf2go.BlankNode); ok {
			describeInto(dst, src, t.Object, visited)
		}
	}
}

// RemoveSubject deletes every triple with subject s, together with the
// blank-node structures it owns.
func RemoveSubject(g *rdf2go.Graph, s rdf2go.Term) int {
	owned := Describe(g, s)
	removed := 0
	for _, t := range owned.All(nil, nil, nil) {
		removed += RemoveAll(g, t.Subject, t.Predicate, t.Object)
	}
	return removed
}

// Rewrite returns a copy of g where every resource URI is passed through fn.
// Literals and blank nodes are kept.
func Rewrite(g *rdf2go.Graph, name string, fn func(uri string) string) *rdf2go.Graph {
	out := rdf2go.NewGraph(name)
	for _, t := range g.All(nil, nil, nil) {
		Add(out, rewriteTerm(t.Subject, fn), rewriteTerm(t.Predicate, fn), rewriteTerm(t.Object, fn))
	}
	return out
}

func rewriteTerm(t rdf2go.Term, fn func(string) string) rdf2go.Term {
	if r, ok := t.(*rdf2go.Resource); ok {
		return rdf2go.NewResource(fn(r.URI))
	}
	return t
}

// Equal reports whether a and b hold the same triples. Blank node labels
// must match.
func Equal(a, b *rdf2go.Graph) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, t := range a.All(nil, nil, nil) {
		if b.One(t.Subject, t.Predicate, t.Object) == nil {
			return false
		}
	}
	return true
}
