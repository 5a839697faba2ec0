package mapper

import (
	"sort"
	"strings"
	"time"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// OrganizationURN is the contributor IRI of an organization id.
func OrganizationURN(id string) string {
	return "urn:uuid:" + id
}

var modelTypeIRI = map[ModelType]string{
	ModelLibrary: datamodel.Library,
	ModelProfile: datamodel.ApplicationProfile,
}

// NewModelGraph builds the draft graph of a new model.
func NewModelGraph(modelURI, namespace string, dto ModelDTO, stamp Stamp) *rdf2go.Graph {
	g := graph.New(modelURI)
	s := iri(modelURI)
	graph.Add(g, s, iri(datamodel.Type), iri(datamodel.Ontology))
	graph.Add(g, s, iri(datamodel.Type), iri(modelTypeIRI[dto.Type]))
	graph.Set(g, s, iri(datamodel.Prefix), graph.Literal(dto.Prefix))
	graph.Set(g, s, iri(datamodel.Namespace), graph.TypedLiteral(namespace, datamodel.XSDAnyURI))
	graph.Set(g, s, iri(datamodel.Created), dateTime(stamp.Time))
	setLiteral(g, s, datamodel.Creator, stamp.User)
	UpdateModel(g, modelURI, dto, stamp)
	return g
}

// UpdateModel rewrites the editable model fields. Type and prefix are fixed
// at creation.
func UpdateModel(g *rdf2go.Graph, modelURI string, dto ModelDTO, stamp Stamp) {
	s := iri(modelURI)
	graph.SetLangMap(g, s, iri(datamodel.Label), dto.Label)
	graph.SetLangMap(g, s, iri(datamodel.Description), dto.Description)
	setLiterals(g, s, datamodel.Language, dto.Languages)
	orgs := make([]string, 0, len(dto.Organizations))
	for _, id := range dto.Organizations {
		orgs = append(orgs, OrganizationURN(id))
	}
	setIRIs(g, s, datamodel.Contributor, orgs)
	setLiteral(g, s, datamodel.PublicationStatus, string(dto.Status))
	setIRIs(g, s, datamodel.Requires, dto.Requires)
	setIRIs(g, s, datamodel.References, dto.Terminologies)
	setIRIs(g, s, datamodel.CodeList, dto.CodeLists)
	touch(g, modelURI, "", stamp)
}

// ModelInfo is the parsed, read-only view of a model resource.
type ModelInfo struct {
	URI           string
	Prefix        string
	Namespace     string
	Type          ModelType
	Label         map[string]string
	Description   map[string]string
	Languages     []string
	Organizations []string
	Status        Status
	Requires      []string
	Terminologies []string
	CodeLists     []string
	Resources     []string
	Version       string
	VersionIRI    string
	PriorVersion  string
	Created       time.Time
	Modified      time.Time
	Creator       string
	Modifier      string
}

// ParseModel reads the model resource modelURI from g.
func ParseModel(g *rdf2go.Graph, modelURI string) (ModelInfo, error) {
	s := iri(modelURI)
	if !graph.HasType(g, s, datamodel.Ontology) {
		return ModelInfo{}, errs.NotFound(modelURI)
	}
	info := ModelInfo{
		URI:           modelURI,
		Prefix:        graph.LiteralValue(g, s, iri(datamodel.Prefix)),
		Namespace:     graph.LiteralValue(g, s, iri(datamodel.Namespace)),
		Label:         graph.LangMap(g, s, iri(datamodel.Label)),
		Description:   graph.LangMap(g, s, iri(datamodel.Description)),
		Languages:     literals(g, s, datamodel.Language),
		Status:        Status(graph.LiteralValue(g, s, iri(datamodel.PublicationStatus))),
		Requires:      graph.ObjectIRIs(g, s, iri(datamodel.Requires)),
		Terminologies: graph.ObjectIRIs(g, s, iri(datamodel.References)),
		CodeLists:     graph.ObjectIRIs(g, s, iri(datamodel.CodeList)),
		Resources:     graph.ObjectIRIs(g, s, iri(datamodel.HasPart)),
		Version:       graph.LiteralValue(g, s, iri(datamodel.VersionInfo)),
		VersionIRI:    graph.ObjectIRI(g, s, iri(datamodel.VersionIRI)),
		PriorVersion:  graph.ObjectIRI(g, s, iri(datamodel.PriorVersion)),
		Created:       parseDateTime(graph.LiteralValue(g, s, iri(datamodel.Created))),
		Modified:      parseDateTime(graph.LiteralValue(g, s, iri(datamodel.Modified))),
		Creator:       graph.LiteralValue(g, s, iri(datamodel.Creator)),
		Modifier:      graph.LiteralValue(g, s, iri(datamodel.Modifier)),
	}
	switch {
	case graph.HasType(g, s, datamodel.ApplicationProfile):
		info.Type = ModelProfile
	case graph.HasType(g, s, datamodel.Library):
		info.Type = ModelLibrary
	default:
		return ModelInfo{}, errs.Mappingf(errs.KeyInvalidKind, modelURI, "model has no library or profile type")
	}
	for _, org := range graph.ObjectIRIs(g, s, iri(datamodel.Contributor)) {
		info.Organizations = append(info.Organizations, strings.TrimPrefix(org, "urn:uuid:"))
	}
	sort.Strings(info.Languages)
	return info, nil
}

// ReleaseGraph derives the release partition of a draft model graph.
// Resources of the model are renamed into the version namespace, the model
// resource keeps its URI and gains the version triples, and every resource
// takes status.
func ReleaseGraph(draft *rdf2go.Graph, modelURI, versionURI, separator, version, priorVersion string, status Status, stamp Stamp) *rdf2go.Graph {
	rel := graph.Rewrite(draft, versionURI, func(u string) string {
		if local, ok := strings.CutPrefix(u, modelURI+separator); ok && isLocalName(local) {
			return versionURI + separator + local
		}
		return u
	})
	s := iri(modelURI)
	graph.Set(rel, s, iri(datamodel.VersionInfo), graph.Literal(version))
	graph.Set(rel, s, iri(datamodel.VersionIRI), iri(versionURI))
	setIRI(rel, s, datamodel.PriorVersion, priorVersion)
	for _, t := range rel.All(nil, iri(datamodel.PublicationStatus), nil) {
		graph.Set(rel, t.Subject, iri(datamodel.PublicationStatus), graph.Literal(string(status)))
	}
	touch(rel, modelURI, "", stamp)
	return rel
}

// isLocalName reports whether s is a bare resource identifier rather than a
// version or positions path.
func isLocalName(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/#") && !(s[0] >= '0' && s[0] <= '9') && !uri.IsReserved(s)
}
