package mapper

import (
	"sort"
	"strconv"
	"time"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// ResourceInfo is the parsed, read-only view of one resource. Fields that do
// not apply to Kind are zero.
type ResourceInfo struct {
	URI           string
	Identifier    string
	Kind          Kind
	ModelURI      string
	Label         map[string]string
	Note          map[string]string
	EditorialNote string
	Status        Status
	Subject       string
	Created       time.Time
	Modified      time.Time
	Creator       string
	Modifier      string

	// Classes.
	SubClassOf      []string
	EquivalentClass []string
	DisjointWith    []string
	Restrictions    []Restriction

	// Node shapes.
	TargetClass string
	TargetNode  string
	Properties  []string

	// Attributes and associations.
	Domain             string
	Range              string
	SubResourceOf      []string
	EquivalentResource []string

	// Property shapes.
	PropertyType  Kind
	Path          string
	ClassType     string
	DataType      string
	MinCount      *int
	MaxCount      *int
	MinLength     *int
	MaxLength     *int
	MinInclusive  *int
	MaxInclusive  *int
	MinExclusive  *int
	MaxExclusive  *int
	Pattern       string
	AllowedValues []string
	DefaultValue  string
	HasValue      string
	CodeLists     []string
}

// ParseResource reads resourceURI from g. It fails with NotFound when the
// resource is not described and with invalid-kind when it has no known
// resource type.
func ParseResource(g *rdf2go.Graph, resourceURI string) (ResourceInfo, error) {
	s := iri(resourceURI)
	if !graph.Has(g, s, iri(datamodel.Type), nil) {
		return ResourceInfo{}, errs.NotFound(resourceURI)
	}
	kind, ok := KindOf(g, s)
	if !ok {
		return ResourceInfo{}, errs.Mappingf(errs.KeyInvalidKind, resourceURI, "unknown resource type")
	}

	info := ResourceInfo{
		URI:           resourceURI,
		Identifier:    graph.LiteralValue(g, s, iri(datamodel.Identifier)),
		Kind:          kind,
		ModelURI:      graph.ObjectIRI(g, s, iri(datamodel.IsDefinedBy)),
		Label:         graph.LangMap(g, s, iri(datamodel.Label)),
		Note:          graph.LangMap(g, s, iri(datamodel.Note)),
		EditorialNote: graph.LiteralValue(g, s, iri(datamodel.EditorialNote)),
		Status:        Status(graph.LiteralValue(g, s, iri(datamodel.PublicationStatus))),
		Subject:       graph.ObjectIRI(g, s, iri(datamodel.Subject)),
		Created:       parseDateTime(graph.LiteralValue(g, s, iri(datamodel.Created))),
		Modified:      parseDateTime(graph.LiteralValue(g, s, iri(datamodel.Modified))),
		Creator:       graph.LiteralValue(g, s, iri(datamodel.Creator)),
		Modifier:      graph.LiteralValue(g, s, iri(datamodel.Modifier)),
	}

	switch kind {
	case KindClass:
		info.SubClassOf = graph.ObjectIRIs(g, s, iri(datamodel.SubClassOf))
		info.EquivalentClass = graph.ObjectIRIs(g, s, iri(datamodel.EquivalentClass))
		info.DisjointWith = graph.ObjectIRIs(g, s, iri(datamodel.DisjointWith))
		info.Restrictions = Restrictions(g, resourceURI)
	case KindNodeShape:
		info.TargetClass = graph.ObjectIRI(g, s, iri(datamodel.TargetClass))
		info.TargetNode = graph.ObjectIRI(g, s, iri(datamodel.Node))
		info.Properties = graph.ObjectIRIs(g, s, iri(datamodel.Property))
	case KindAttribute, KindAssociation:
		info.Domain = graph.ObjectIRI(g, s, iri(datamodel.Domain))
		info.Range = graph.ObjectIRI(g, s, iri(datamodel.Range))
		info.SubResourceOf = graph.ObjectIRIs(g, s, iri(datamodel.SubProperty))
		info.EquivalentResource = graph.ObjectIRIs(g, s, iri(datamodel.EquivalentProperty))
	case KindPropertyShape:
		info.PropertyType = KindAttribute
		if graph.HasType(g, s, datamodel.ObjectProperty) {
			info.PropertyType = KindAssociation
		}
		info.Path = graph.ObjectIRI(g, s, iri(datamodel.Path))
		info.ClassType = graph.ObjectIRI(g, s, iri(datamodel.ShClass))
		info.DataType = graph.ObjectIRI(g, s, iri(datamodel.Datatype))
		info.MinCount = getInt(g, s, datamodel.MinCount)
		info.MaxCount = getInt(g, s, datamodel.MaxCount)
		info.MinLength = getInt(g, s, datamodel.MinLength)
		info.MaxLength = getInt(g, s, datamodel.MaxLength)
		info.MinInclusive = getInt(g, s, datamodel.MinInclusive)
		info.MaxInclusive = getInt(g, s, datamodel.MaxInclusive)
		info.MinExclusive = getInt(g, s, datamodel.MinExclusive)
		info.MaxExclusive = getInt(g, s, datamodel.MaxExclusive)
		info.Pattern = graph.LiteralValue(g, s, iri(datamodel.Pattern))
		info.AllowedValues = literals(g, s, datamodel.In)
		sort.Strings(info.AllowedValues)
		info.DefaultValue = graph.LiteralValue(g, s, iri(datamodel.DefaultValue))
		info.HasValue = graph.LiteralValue(g, s, iri(datamodel.HasValue))
		info.CodeLists = graph.ObjectIRIs(g, s, iri(datamodel.CodeList))
	}
	return info, nil
}

// PropertyShapeDTO converts a parsed property shape back into a DTO, used
// when copying shapes between models.
func (r ResourceInfo) PropertyShapeDTO() PropertyShapeDTO {
	return PropertyShapeDTO{
		BaseDTO: BaseDTO{
			Identifier:    r.Identifier,
			Label:         r.Label,
			Note:          r.Note,
			EditorialNote: r.EditorialNote,
			Status:        r.Status,
			Subject:       r.Subject,
		},
		Type:          r.PropertyType,
		Path:          r.Path,
		ClassType:     r.ClassType,
		DataType:      r.DataType,
		MinCount:      r.MinCount,
		MaxCount:      r.MaxCount,
		MinLength:     r.MinLength,
		MaxLength:     r.MaxLength,
		MinInclusive:  r.MinInclusive,
		MaxInclusive:  r.MaxInclusive,
		MinExclusive:  r.MinExclusive,
		MaxExclusive:  r.MaxExclusive,
		Pattern:       r.Pattern,
		AllowedValues: r.AllowedValues,
		DefaultValue:  r.DefaultValue,
		HasValue:      r.HasValue,
		CodeLists:     r.CodeLists,
	}
}

// ParsePositions reads a positions graph.
func ParsePositions(g *rdf2go.Graph) []Position {
	var out []Position
	for _, t := range g.All(nil, iri(datamodel.PositionX), nil) {
		x, _ := strconv.ParseFloat(literalOf(t.Object), 64)
		y, _ := strconv.ParseFloat(graph.LiteralValue(g, t.Subject, iri(datamodel.PositionY)), 64)
		out = append(out, Position{
			Identifier: graph.LiteralValue(g, t.Subject, iri(datamodel.Identifier)),
			X:          x,
			Y:          y,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

func literalOf(t rdf2go.Term) string {
	if l, ok := t.(*rdf2go.Literal); ok {
		return l.Value
	}
	return ""
}
