package mapper

import (
	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// MapClass writes an owl:Class. An empty SubClassOf falls back to
// owl:Thing; restrictions under rdfs:subClassOf are never touched.
func MapClass(g *rdf2go.Graph, modelURI, classURI string, dto ClassDTO, stamp Stamp, create bool) {
	writeBase(g, modelURI, classURI, KindClass, dto.BaseDTO, stamp, create)

	s := iri(classURI)
	subClassOf := dto.SubClassOf
	if len(subClassOf) == 0 {
		subClassOf = []string{datamodel.Thing}
	}
	setIRIs(g, s, datamodel.SubClassOf, subClassOf)
	setIRIs(g, s, datamodel.EquivalentClass, dto.EquivalentClass)
	setIRIs(g, s, datamodel.DisjointWith, dto.DisjointWith)
}

// MapNodeShape writes an sh:NodeShape. Direct sh:property links are only
// seeded on create; afterwards they are owned by the inheritance resolver
// and the property reference operations.
func MapNodeShape(g *rdf2go.Graph, modelURI, shapeURI string, dto NodeShapeDTO, stamp Stamp, create bool) {
	writeBase(g, modelURI, shapeURI, KindNodeShape, dto.BaseDTO, stamp, create)

	s := iri(shapeURI)
	setIRI(g, s, datamodel.TargetClass, dto.TargetClass)
	setIRI(g, s, datamodel.Node, dto.TargetNode)
	if create {
		setIRIs(g, s, datamodel.Property, dto.Properties)
		setIRIs(g, s, datamodel.DirectProperty, dto.Properties)
	}
}

// SetProperties replaces the sh:property links of a node shape.
func SetProperties(g *rdf2go.Graph, shapeURI string, properties []string) {
	setIRIs(g, iri(shapeURI), datamodel.Property, properties)
}

// DirectProperties returns the sh:property links a user attached to the
// node shape, as opposed to those inherited or induced.
func DirectProperties(g *rdf2go.Graph, shapeURI string) []string {
	return graph.ObjectIRIs(g, iri(shapeURI), iri(datamodel.DirectProperty))
}

// SetDirectProperties replaces the record of user-attached links.
func SetDirectProperties(g *rdf2go.Graph, shapeURI string, properties []string) {
	setIRIs(g, iri(shapeURI), datamodel.DirectProperty, properties)
}

// MapResource writes an attribute or association. An empty SubResourceOf
// falls back to owl:topDataProperty or owl:topObjectProperty.
func MapResource(g *rdf2go.Graph, modelURI, resourceURI string, kind Kind, dto ResourceDTO, stamp Stamp, create bool) {
	writeBase(g, modelURI, resourceURI, kind, dto.BaseDTO, stamp, create)

	s := iri(resourceURI)
	setIRI(g, s, datamodel.Domain, dto.Domain)
	setIRI(g, s, datamodel.Range, dto.Range)
	parents := dto.SubResourceOf
	if len(parents) == 0 {
		parents = []string{datamodel.TopDataProperty}
		if kind == KindAssociation {
			parents = []string{datamodel.TopObjectProperty}
		}
	}
	setIRIs(g, s, datamodel.SubProperty, parents)
	setIRIs(g, s, datamodel.EquivalentProperty, dto.EquivalentResource)
}

// MapPropertyShape writes an sh:PropertyShape. The shape is also typed as
// owl:DatatypeProperty or owl:ObjectProperty after dto.Type.
func MapPropertyShape(g *rdf2go.Graph, modelURI, shapeURI string, dto PropertyShapeDTO, stamp Stamp, create bool) {
	writeBase(g, modelURI, shapeURI, KindPropertyShape, dto.BaseDTO, stamp, create)

	s := iri(shapeURI)
	graph.RemoveAll(g, s, iri(datamodel.Type), iri(datamodel.DatatypeProperty))
	graph.RemoveAll(g, s, iri(datamodel.Type), iri(datamodel.ObjectProperty))
	graph.Add(g, s, iri(datamodel.Type), iri(dto.Type.TypeIRI()))

	setIRI(g, s, datamodel.Path, dto.Path)
	if dto.Type == KindAssociation {
		setIRI(g, s, datamodel.ShClass, dto.ClassType)
		graph.RemoveAll(g, s, iri(datamodel.Datatype), nil)
	} else {
		setIRI(g, s, datamodel.Datatype, dto.DataType)
		graph.RemoveAll(g, s, iri(datamodel.ShClass), nil)
	}
	setInt(g, s, datamodel.MinCount, dto.MinCount)
	setInt(g, s, datamodel.MaxCount, dto.MaxCount)
	setInt(g, s, datamodel.MinLength, dto.MinLength)
	setInt(g, s, datamodel.MaxLength, dto.MaxLength)
	setInt(g, s, datamodel.MinInclusive, dto.MinInclusive)
	setInt(g, s, datamodel.MaxInclusive, dto.MaxInclusive)
	setInt(g, s, datamodel.MinExclusive, dto.MinExclusive)
	setInt(g, s, datamodel.MaxExclusive, dto.MaxExclusive)
	setLiteral(g, s, datamodel.Pattern, dto.Pattern)
	setLiterals(g, s, datamodel.In, dto.AllowedValues)
	setLiteral(g, s, datamodel.DefaultValue, dto.DefaultValue)
	setLiteral(g, s, datamodel.HasValue, dto.HasValue)
	setIRIs(g, s, datamodel.CodeList, dto.CodeLists)
}
