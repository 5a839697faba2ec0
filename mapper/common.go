package mapper

import (
	"strconv"
	"time"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Stamp identifies who changes a graph and when.
type Stamp struct {
	User string
	Time time.Time
}

func iri(u string) rdf2go.Term { return graph.IRI(u) }

func dateTime(t time.Time) rdf2go.Term {
	return graph.TypedLiteral(t.UTC().Format(time.RFC3339), datamodel.XSDDateTime)
}

func parseDateTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}

// writeBase writes the fields shared by every resource kind. On create the
// identity triples are added and the resource is attached to its model.
func writeBase(g *rdf2go.Graph, modelURI, resourceURI string, kind Kind, dto BaseDTO, stamp Stamp, create bool) {
	s := iri(resourceURI)
	if create {
		graph.Set(g, s, iri(datamodel.Type), iri(kind.TypeIRI()))
		graph.Set(g, s, iri(datamodel.IsDefinedBy), iri(modelURI))
		graph.Set(g, s, iri(datamodel.Identifier), graph.TypedLiteral(dto.Identifier, datamodel.XSDNCName))
		graph.Set(g, s, iri(datamodel.Created), dateTime(stamp.Time))
		setLiteral(g, s, datamodel.Creator, stamp.User)
		graph.Add(g, iri(modelURI), iri(datamodel.HasPart), s)
	}

	graph.SetLangMap(g, s, iri(datamodel.Label), dto.Label)
	graph.SetLangMap(g, s, iri(datamodel.Note), dto.Note)
	setLiteral(g, s, datamodel.EditorialNote, dto.EditorialNote)
	setLiteral(g, s, datamodel.PublicationStatus, string(dto.Status))
	setIRI(g, s, datamodel.Subject, dto.Subject)
	touch(g, modelURI, resourceURI, stamp)
}

// touch updates the modification stamp of the resource and its model.
func touch(g *rdf2go.Graph, modelURI, resourceURI string, stamp Stamp) {
	for _, u := range []string{resourceURI, modelURI} {
		if u == "" {
			continue
		}
		graph.Set(g, iri(u), iri(datamodel.Modified), dateTime(stamp.Time))
		setLiteral(g, iri(u), datamodel.Modifier, stamp.User)
	}
}

// setLiteral replaces the literal of s p; an empty value removes it.
func setLiteral(g *rdf2go.Graph, s rdf2go.Term, p, value string) {
	if value == "" {
		graph.RemoveAll(g, s, iri(p), nil)
		return
	}
	graph.Set(g, s, iri(p), graph.Literal(value))
}

// setIRI replaces the IRI object of s p; an empty value removes it.
func setIRI(g *rdf2go.Graph, s rdf2go.Term, p, value string) {
	if value == "" {
		graph.RemoveAll(g, s, iri(p), nil)
		return
	}
	graph.Set(g, s, iri(p), iri(value))
}

// setIRIs replaces the IRI objects of s p with values. Blank-node objects,
// such as OWL restrictions under rdfs:subClassOf, are kept.
func setIRIs(g *rdf2go.Graph, s rdf2go.Term, p string, values []string) {
	pred := iri(p)
	for _, t := range g.All(s, pred, nil) {
		if _, ok := t.Object.(*rdf2go.Resource); ok {
			g.Remove(t)
		}
	}
	for _, v := range values {
		graph.Add(g, s, pred, iri(v))
	}
}

func setInt(g *rdf2go.Graph, s rdf2go.Term, p string, value *int) {
	if value == nil {
		graph.RemoveAll(g, s, iri(p), nil)
		return
	}
	graph.Set(g, s, iri(p), graph.TypedLiteral(strconv.Itoa(*value), datamodel.XSDInteger))
}

func getInt(g *rdf2go.Graph, s rdf2go.Term, p string) *int {
	v := graph.LiteralValue(g, s, iri(p))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func setLiterals(g *rdf2go.Graph, s rdf2go.Term, p string, values []string) {
	graph.RemoveAll(g, s, iri(p), nil)
	for _, v := range values {
		if v != "" {
			graph.Add(g, s, iri(p), graph.Literal(v))
		}
	}
}

func literals(g *rdf2go.Graph, s rdf2go.Term, p string) []string {
	var out []string
	for _, o := range graph.Objects(g, s, iri(p)) {
		if l, ok := o.(*rdf2go.Literal); ok {
			out = append(out, l.Value)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Touch updates the modification stamp of resourceURI and of its model.
func Touch(g *rdf2go.Graph, modelURI, resourceURI string, stamp Stamp) {
	touch(g, modelURI, resourceURI, stamp)
}
