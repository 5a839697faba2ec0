package mapper

import (
	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// MapPlaceholder writes a minimal property shape standing in for a property
// that is referenced but not yet described in the model. kind is
// KindAttribute or KindAssociation.
func MapPlaceholder(g *rdf2go.Graph, modelURI, shapeURI, identifier, path string, kind Kind, stamp Stamp) {
	s := iri(shapeURI)
	graph.Set(g, s, iri(datamodel.Type), iri(datamodel.PropertyShape))
	graph.Add(g, s, iri(datamodel.Type), iri(kind.TypeIRI()))
	graph.Set(g, s, iri(datamodel.Path), iri(path))
	graph.Set(g, s, iri(datamodel.IsDefinedBy), iri(modelURI))
	graph.Set(g, s, iri(datamodel.Identifier), graph.TypedLiteral(identifier, datamodel.XSDNCName))
	setLiteral(g, s, datamodel.PublicationStatus, string(StatusDraft))
	graph.Set(g, s, iri(datamodel.Created), dateTime(stamp.Time))
	setLiteral(g, s, datamodel.Creator, stamp.User)
	graph.Add(g, iri(modelURI), iri(datamodel.HasPart), s)
	touch(g, modelURI, shapeURI, stamp)
}

// PlaceholderKind infers whether a property ranging over target is an
// attribute or an association.
func PlaceholderKind(target string) Kind {
	if target == "" || datamodel.IsDatatype(target) {
		return KindAttribute
	}
	return KindAssociation
}
