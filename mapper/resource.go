package mapper

import (
	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// DeleteResource removes resourceURI, the blank-node structures it owns and
// its containment link from the model.
func DeleteResource(g *rdf2go.Graph, modelURI, resourceURI string) {
	graph.RemoveSubject(g, iri(resourceURI))
	graph.RemoveAll(g, iri(modelURI), iri(datamodel.HasPart), iri(resourceURI))
}

// RenameResource replaces every occurrence of oldURI in g with newURI and
// rewrites the identifier literal.
func RenameResource(g *rdf2go.Graph, oldURI, newURI, newIdentifier string) *rdf2go.Graph {
	out := graph.Rewrite(g, g.URI(), func(u string) string {
		if u == oldURI {
			return newURI
		}
		return u
	})
	s := iri(newURI)
	if graph.Has(out, s, iri(datamodel.Identifier), nil) {
		graph.Set(out, s, iri(datamodel.Identifier), graph.TypedLiteral(newIdentifier, datamodel.XSDNCName))
	}
	return out
}

// SetPositions replaces the content of a positions graph.
func SetPositions(g *rdf2go.Graph, resourceURI func(identifier string) string, positions []Position) {
	graph.RemoveAll(g, nil, nil, nil)
	for _, p := range positions {
		s := iri(resourceURI(p.Identifier))
		graph.Add(g, s, iri(datamodel.Identifier), graph.TypedLiteral(p.Identifier, datamodel.XSDNCName))
		graph.Add(g, s, iri(datamodel.PositionX), graph.TypedLiteral(formatFloat(p.X), datamodel.XSDDecimal))
		graph.Add(g, s, iri(datamodel.PositionY), graph.TypedLiteral(formatFloat(p.Y), datamodel.XSDDecimal))
	}
}
