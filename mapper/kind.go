package mapper

import (
	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Kind is the type of a model resource.
type Kind string

const (
	KindClass         Kind = "CLASS"
	KindNodeShape     Kind = "NODE_SHAPE"
	KindAttribute     Kind = "ATTRIBUTE"
	KindAssociation   Kind = "ASSOCIATION"
	KindPropertyShape Kind = "PROPERTY_SHAPE"
)

// ModelType distinguishes ontologies from application profiles.
type ModelType string

const (
	ModelLibrary ModelType = "LIBRARY"
	ModelProfile ModelType = "PROFILE"
)

// Status is the publication status of models and resources.
type Status string

const (
	StatusIncomplete Status = "INCOMPLETE"
	StatusDraft      Status = "DRAFT"
	StatusSuggested  Status = "SUGGESTED"
	StatusValid      Status = "VALID"
	StatusSuperseded Status = "SUPERSEDED"
	StatusRetired    Status = "RETIRED"
	StatusInvalid    Status = "INVALID"
)

// typeIRI is the rdf:type written for each kind.
var typeIRI = map[Kind]string{
	KindClass:         datamodel.Class,
	KindNodeShape:     datamodel.NodeShape,
	KindAttribute:     datamodel.DatatypeProperty,
	KindAssociation:   datamodel.ObjectProperty,
	KindPropertyShape: datamodel.PropertyShape,
}

// TypeIRI returns the rdf:type of kind.
func (k Kind) TypeIRI() string { return typeIRI[k] }

// ModelType returns the model type that may contain resources of kind k.
func (k Kind) ModelType() ModelType {
	switch k {
	case KindNodeShape, KindPropertyShape:
		return ModelProfile
	default:
		return ModelLibrary
	}
}

// CheckKind fails with an invalid-kind MappingError when resources of kind
// cannot live in a model of type t.
func CheckKind(t ModelType, kind Kind) error {
	if kind.ModelType() != t {
		return errs.Mappingf(errs.KeyInvalidKind, string(kind), "%s resources are not allowed in %s models", kind, t)
	}
	return nil
}

// KindOf derives the kind of the resource s from its rdf:type triples.
// ok is false when s is not a model resource.
func KindOf(g *rdf2go.Graph, s rdf2go.Term) (Kind, bool) {
	switch {
	case graph.HasType(g, s, datamodel.PropertyShape):
		return KindPropertyShape, true
	case graph.HasType(g, s, datamodel.NodeShape):
		return KindNodeShape, true
	case graph.HasType(g, s, datamodel.Class):
		return KindClass, true
	case graph.HasType(g, s, datamodel.DatatypeProperty):
		return KindAttribute, true
	case graph.HasType(g, s, datamodel.ObjectProperty):
		return KindAssociation, true
	}
	return "", false
}
