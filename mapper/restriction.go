package mapper

import (
	"github.com/deiu/rdf2go"
	"github.com/google/uuid"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Restriction is an anonymous owl:Restriction attached to a class through
// rdfs:subClassOf.
type Restriction struct {
	OnProperty     string
	SomeValuesFrom string
	AllValuesFrom  string
}

// Target returns the value class or datatype of the restriction.
func (r Restriction) Target() string {
	if r.SomeValuesFrom != "" {
		return r.SomeValuesFrom
	}
	return r.AllValuesFrom
}

// Restrictions returns the restrictions of classURI in g.
func Restrictions(g *rdf2go.Graph, classURI string) []Restriction {
	var out []Restriction
	for _, o := range graph.Objects(g, iri(classURI), iri(datamodel.SubClassOf)) {
		if _, ok := o.(*rdf2go.BlankNode); !ok {
			continue
		}
		onProperty := graph.ObjectIRI(g, o, iri(datamodel.OnProperty))
		if onProperty == "" {
			continue
		}
		out = append(out, Restriction{
			OnProperty:     onProperty,
			SomeValuesFrom: graph.ObjectIRI(g, o, iri(datamodel.SomeValuesFrom)),
			AllValuesFrom:  graph.ObjectIRI(g, o, iri(datamodel.AllValuesFrom)),
		})
	}
	return out
}

// AddRestriction attaches a restriction on propertyURI to classURI. It
// reports false when one already exists.
func AddRestriction(g *rdf2go.Graph, classURI, propertyURI, valuesFrom string) bool {
	for _, r := range Restrictions(g, classURI) {
		if r.OnProperty == propertyURI {
			return false
		}
	}
	b := graph.Blank(uuid.New().String())
	graph.Add(g, iri(classURI), iri(datamodel.SubClassOf), b)
	graph.Add(g, b, iri(datamodel.Type), iri(datamodel.Restriction))
	graph.Add(g, b, iri(datamodel.OnProperty), iri(propertyURI))
	if valuesFrom != "" {
		graph.Add(g, b, iri(datamodel.SomeValuesFrom), iri(valuesFrom))
	}
	return true
}

// RemoveRestriction detaches the restrictions on propertyURI from
// classURI. It reports whether any was removed.
func RemoveRestriction(g *rdf2go.Graph, classURI, propertyURI string) bool {
	removed := false
	for _, t := range g.All(iri(classURI), iri(datamodel.SubClassOf), nil) {
		if _, ok := t.Object.(*rdf2go.BlankNode); !ok {
			continue
		}
		if graph.ObjectIRI(g, t.Object, iri(datamodel.OnProperty)) != propertyURI {
			continue
		}
		graph.RemoveAll(g, t.Object, nil, nil)
		g.Remove(t)
		removed = true
	}
	return removed
}
