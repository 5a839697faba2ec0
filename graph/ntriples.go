package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/deiu/rdf2go"
	"github.com/knakk/rdf"
)

const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// EncodeNTriples serializes g as N-Triples.
func EncodeNTriples(g *rdf2go.Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	for _, t := range g.All(nil, nil, nil) {
		triple, err := toKnakk(t)
		if err != nil {
			return nil, fmt.Errorf("encode triple %s: %w", t, err)
		}
		if err := enc.Encode(triple); err != nil {
			return nil, fmt.Errorf("encode triple %s: %w", t, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush n-triples: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeNTriples parses N-Triples data into a new graph named uri.
func DecodeNTriples(uri string, data []byte) (*rdf2go.Graph, error) {
	g := rdf2go.NewGraph(uri)
	if len(bytes.TrimSpace(data)) == 0 {
		return g, nil
	}
	dec := rdf.NewTripleDecoder(bytes.NewReader(data), rdf.NTriples)
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode n-triples: %w", err)
		}
		Add(g, FromKnakk(t.Subj), FromKnakk(t.Pred), FromKnakk(t.Obj))
	}
	return g, nil
}

// ParseTurtle parses a Turtle document into a new graph named uri.
func ParseTurtle(uri string, r io.Reader) (*rdf2go.Graph, error) {
	g := rdf2go.NewGraph(uri)
	if err := g.Parse(r, "text/turtle"); err != nil {
		return nil, fmt.Errorf("parse turtle: %w", err)
	}
	return g, nil
}

// WriteTurtle serializes g as Turtle.
func WriteTurtle(w io.Writer, g *rdf2go.Graph) error {
	if err := g.Serialize(w, "text/turtle"); err != nil {
		return fmt.Errorf("serialize turtle: %w", err)
	}
	return nil
}

// FromKnakk converts a knakk/rdf term, as returned by SPARQL result
// bindings and the N-Triples decoder, into an rdf2go term.
func FromKnakk(t rdf.Term) rdf2go.Term {
	switch v := t.(type) {
	case rdf.IRI:
		return rdf2go.NewResource(v.String())
	case rdf.Blank:
		return rdf2go.NewBlankNode(strings.TrimPrefix(v.String(), "_:"))
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return rdf2go.NewLiteralWithLanguage(v.String(), lang)
		}
		if dt := v.DataType.String(); dt != "" && dt != xsdString {
			return rdf2go.NewLiteralWithDatatype(v.String(), rdf2go.NewResource(dt))
		}
		return rdf2go.NewLiteral(v.String())
	default:
		return rdf2go.NewLiteral(t.String())
	}
}

// ToKnakk converts an rdf2go term into a knakk/rdf term.
func ToKnakk(t rdf2go.Term) (rdf.Term, error) {
	switch v := t.(type) {
	case *rdf2go.Resource:
		return rdf.NewIRI(v.URI)
	case *rdf2go.BlankNode:
		return rdf.NewBlank(strings.TrimPrefix(v.ID, "_:"))
	case *rdf2go.Literal:
		if v.Language != "" {
			return rdf.NewLangLiteral(v.Value, v.Language)
		}
		dt := xsdString
		if v.Datatype != nil {
			dt = v.Datatype.RawValue()
		}
		iri, err := rdf.NewIRI(dt)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(v.Value, iri), nil
	default:
		return nil, fmt.Errorf("unsupported term %T", t)
	}
}

func toKnakk(t *rdf2go.Triple) (rdf.Triple, error) {
	s, err := ToKnakk(t.Subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := ToKnakk(t.Predicate)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := ToKnakk(t.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	subj, ok := s.(rdf.Subject)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("literal subject %s", s)
	}
	pred, ok := p.(rdf.Predicate)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("non-IRI predicate %s", p)
	}
	obj, ok := o.(rdf.Object)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("invalid object %s", o)
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: obj}, nil
}
