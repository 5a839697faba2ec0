package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// fakeStore answers the Graph Store Protocol and returns canned SPARQL
// results keyed on the stored partitions.
type fakeStore struct {
	mu      sync.Mutex
	graphs  map[string]string
	queries []string
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/data":
		name := r.URL.Query().Get("graph")
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.graphs[name] = string(body)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			if _, ok := f.graphs[name]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.graphs, name)
			w.WriteHeader(http.StatusNoContent)
		}
	case "/query":
		q := r.FormValue("query")
		f.queries = append(f.queries, q)
		if strings.Contains(q, "CONSTRUCT") {
			w.Header().Set("Content-Type", "text/turtle")
			for name, data := range f.graphs {
				if strings.Contains(q, "<"+name+">") {
					_, _ = io.WriteString(w, data)
				}
			}
			return
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		if start := strings.Index(q, "?s <"); start >= 0 && strings.Contains(q, "SELECT DISTINCT ?g") {
			pred := q[start+3 : start+5+strings.Index(q[start+4:], ">")]
			var rows []string
			for name, data := range f.graphs {
				if strings.Contains(data, " "+pred+" ") {
					rows = append(rows, `{"g":{"type":"uri","value":"`+name+`"}}`)
				}
			}
			_, _ = io.WriteString(w, `{"head":{"vars":["g"]},"results":{"bindings":[`+strings.Join(rows, ",")+`]}}`)
			return
		}
		found := false
		for name := range f.graphs {
			if strings.Contains(q, "GRAPH <"+name+">") {
				found = true
			}
		}
		if found {
			_, _ = io.WriteString(w, `{"head":{"vars":["found"]},"results":{"bindings":[{"found":{"type":"literal","value":"1"}}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"head":{"vars":["found"]},"results":{"bindings":[]}}`)
	default:
		http.NotFound(w, r)
	}
}

func TestSPARQLRepository(t *testing.T) {
	fake := &fakeStore{graphs: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	repo, err := NewSPARQLRepository(SPARQLConfig{
		QueryEndpoint: srv.URL + "/query",
		DataEndpoint:  srv.URL + "/data",
	})
	require.NoError(t, err)
	ctx := context.Background()

	g := graph.New(model)
	graph.Add(g, graph.IRI(model+"/A"), graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))
	graph.Add(g, graph.IRI(model+"/A"), graph.IRI(datamodel.Label), graph.LangLiteral("A", "en"))

	_, err = repo.Fetch(ctx, model)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Put(ctx, model, g))
	assert.Contains(t, fake.graphs[model], "<"+model+"/A>")

	p, err := repo.Fetch(ctx, model)
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, p.Graph))
	assert.Zero(t, p.Revision)

	require.NoError(t, repo.Delete(ctx, model))
	require.NoError(t, repo.Delete(ctx, model), "deleting an absent graph is not an error")
}

func TestSPARQLPathCrossesModels(t *testing.T) {
	fake := &fakeStore{graphs: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	repo, err := NewSPARQLRepository(SPARQLConfig{
		QueryEndpoint: srv.URL + "/query",
		DataEndpoint:  srv.URL + "/data",
	})
	require.NoError(t, err)
	ctx := context.Background()

	for name, g := range crossModelChain() {
		require.NoError(t, repo.Put(ctx, name, g))
	}
	fake.queries = nil

	_, err = repo.Ask(ctx, PathQuery{From: otherModel + "/b", Predicate: datamodel.SubClassOf, To: otherModel + "/b"})
	require.NoError(t, err)
	assert.Empty(t, fake.queries, "a zero-length path needs no query")

	_, err = repo.Ask(ctx, PathQuery{From: model + "/a", Predicate: datamodel.SubClassOf, To: model + "/c"})
	require.NoError(t, err)
	require.Len(t, fake.queries, 2)
	path := fake.queries[1]
	assert.Contains(t, path, "FROM <"+model+">")
	assert.Contains(t, path, "FROM <"+otherModel+">")
	assert.NotContains(t, path, "GRAPH ?g", "the path must run over the union, not per graph")

	fake.queries = nil
	ok, err := repo.Ask(ctx, PathQuery{From: model + "/a", Predicate: datamodel.EquivalentClass, To: otherModel + "/b"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, fake.queries, 1, "no partition uses the predicate")
}

func TestSPARQLQueryBank(t *testing.T) {
	repo, err := NewSPARQLRepository(SPARQLConfig{QueryEndpoint: "http://localhost/sparql"})
	require.NoError(t, err)

	t.Run("path query per graph", func(t *testing.T) {
		q, err := repo.bank.Prepare("ask-path", PathQuery{
			Graphs:    []string{model},
			From:      model + "/B",
			Predicate: datamodel.SubClassOf,
			To:        model + "/A",
		})
		require.NoError(t, err)
		assert.Contains(t, q, "FROM <"+model+">")
		assert.Contains(t, q, "<"+model+"/B> <"+datamodel.SubClassOf+">* <"+model+"/A>")
	})

	t.Run("reference query excludes containment", func(t *testing.T) {
		rq := ReferenceQuery{
			Resource: model + "/A",
			Exclude:  []string{datamodel.HasPart},
		}
		q, err := repo.bank.Prepare("ask-reference", referenceData{rq, ownedPattern(rq.Resource, ownedDepth)})
		require.NoError(t, err)
		assert.Contains(t, q, "FILTER(?p NOT IN (<"+datamodel.HasPart+">))")
		assert.Contains(t, q, "FILTER(!isBlank(?s) || NOT EXISTS {")
		assert.Contains(t, q, "{ <"+model+"/A> ?o0 ?s . }")
	})

	t.Run("owned blank nodes nest", func(t *testing.T) {
		owned := ownedPattern(model+"/A", 3)
		assert.Equal(t, 2, strings.Count(owned, "UNION"))
		assert.Contains(t, owned, "{ <"+model+"/A> ?o0 ?b1 . ?b1 ?o1 ?s . FILTER(isBlank(?b1)) }")
		assert.Contains(t, owned, "?b2 ?o2 ?s . FILTER(isBlank(?b1) && isBlank(?b2)) }")
	})

	t.Run("select binds fixed positions", func(t *testing.T) {
		d, err := renderPattern(Pattern{Predicate: graph.IRI(datamodel.Type)})
		require.NoError(t, err)
		q, err := repo.bank.Prepare("select", d)
		require.NoError(t, err)
		assert.Contains(t, q, "?s <"+datamodel.Type+"> ?o")
		assert.Contains(t, q, "BIND(<"+datamodel.Type+"> AS ?p)")
	})
}
