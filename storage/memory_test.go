package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/deiu/rdf2go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

const (
	model      = "https://iri.suomi.fi/model/test"
	otherModel = "https://iri.suomi.fi/model/other"
)

// crossModelChain links test:a to test:c only through other:b, so the
// path exists in the union of the partitions but in neither one alone.
func crossModelChain() map[string]*rdf2go.Graph {
	g := graph.New(model)
	graph.Add(g, graph.IRI(model+"/a"), graph.IRI(datamodel.SubClassOf), graph.IRI(otherModel+"/b"))
	graph.Add(g, graph.IRI(model+"/c"), graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))
	o := graph.New(otherModel)
	graph.Add(o, graph.IRI(otherModel+"/b"), graph.IRI(datamodel.SubClassOf), graph.IRI(model+"/c"))
	return map[string]*rdf2go.Graph{model: g, otherModel: o}
}

// locateChain maps the resources of crossModelChain to their partitions.
func locateChain(resource string) (string, bool) {
	for _, name := range []string{model, otherModel} {
		if strings.HasPrefix(resource, name+"/") {
			return name, true
		}
	}
	return "", false
}

func fixture(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()

	g := graph.New(model)
	graph.Add(g, graph.IRI(model), graph.IRI(datamodel.Type), graph.IRI(datamodel.Ontology))
	for _, id := range []string{"A", "B", "C"} {
		graph.Add(g, graph.IRI(model+"/"+id), graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))
		graph.Add(g, graph.IRI(model), graph.IRI(datamodel.HasPart), graph.IRI(model+"/"+id))
	}
	graph.Add(g, graph.IRI(model+"/B"), graph.IRI(datamodel.SubClassOf), graph.IRI(model+"/A"))
	graph.Add(g, graph.IRI(model+"/C"), graph.IRI(datamodel.SubClassOf), graph.IRI(model+"/B"))
	graph.Add(g, graph.IRI(model+"/C"), graph.IRI(datamodel.SubClassOf), graph.Blank("r1"))
	graph.Add(g, graph.Blank("r1"), graph.IRI(datamodel.OnProperty), graph.IRI(model+"/C"))

	release := graph.New(model + "/1.0.0")
	graph.Add(release, graph.IRI(model+"/1.0.0/Old"), graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))

	require.NoError(t, repo.Put(context.Background(), model, g))
	require.NoError(t, repo.Put(context.Background(), model+"/1.0.0", release))
	return repo
}

func TestMemoryRepositoryFetch(t *testing.T) {
	ctx := context.Background()
	repo := fixture(t)

	t.Run("returns a copy", func(t *testing.T) {
		p, err := repo.Fetch(ctx, model)
		require.NoError(t, err)
		before := p.Graph.Len()
		graph.RemoveAll(p.Graph, nil, nil, nil)

		again, err := repo.Fetch(ctx, model)
		require.NoError(t, err)
		assert.Equal(t, before, again.Graph.Len())
	})

	t.Run("missing partition", func(t *testing.T) {
		_, err := repo.Fetch(ctx, model+"/nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, model+"/1.0.0"))
		ok, err := repo.Exists(ctx, model+"/1.0.0")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, repo.Delete(ctx, model+"/1.0.0"))
	})
}

func TestMemoryRepositoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := fixture(t)

	p, err := repo.Fetch(ctx, model)
	require.NoError(t, err)
	require.NotZero(t, p.Revision)

	require.NoError(t, repo.PutIfUnchanged(ctx, model, p.Graph, p.Revision))

	err = repo.PutIfUnchanged(ctx, model, p.Graph, p.Revision)
	assert.ErrorIs(t, err, errs.ErrConflict, "stale revision")

	err = repo.PutIfUnchanged(ctx, model, p.Graph, 0)
	assert.ErrorIs(t, err, errs.ErrConflict, "create over existing partition")

	assert.NoError(t, repo.PutIfUnchanged(ctx, model+"/new", p.Graph, 0))
}

func TestMemoryRepositoryResourceExists(t *testing.T) {
	ctx := context.Background()
	repo := fixture(t)

	tests := []struct {
		name            string
		resource        string
		includeVersions bool
		want            bool
	}{
		{"draft resource", model + "/A", false, true},
		{"unknown resource", model + "/Z", false, false},
		{"released only, drafts", model + "/Old", false, false},
		{"released only, with versions", model + "/Old", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ResourceExists(ctx, model, tc.resource, tc.includeVersions)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMemoryRepositoryAsk(t *testing.T) {
	ctx := context.Background()
	repo := fixture(t)

	tests := []struct {
		name string
		q    AskQuery
		want bool
	}{
		{"transitive path", PathQuery{Graphs: []string{model}, From: model + "/C", Predicate: datamodel.SubClassOf, To: model + "/A"}, true},
		{"reflexive path", PathQuery{From: model + "/A", Predicate: datamodel.SubClassOf, To: model + "/A"}, true},
		{"reverse path", PathQuery{From: model + "/A", Predicate: datamodel.SubClassOf, To: model + "/C"}, false},
		{"other predicate", PathQuery{From: model + "/C", Predicate: datamodel.EquivalentClass, To: model + "/A"}, false},
		{"referenced", ReferenceQuery{Graphs: []string{model}, Resource: model + "/A", Exclude: []string{datamodel.HasPart}}, true},
		{"only containment", ReferenceQuery{Resource: model + "/C", Exclude: []string{datamodel.HasPart}}, false},
		{"containment counts when not excluded", ReferenceQuery{Resource: model + "/C"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Ask(ctx, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathAcrossModels(t *testing.T) {
	ctx := context.Background()
	chain := crossModelChain()
	across := PathQuery{From: model + "/a", Predicate: datamodel.SubClassOf, To: model + "/c"}
	backwards := PathQuery{From: model + "/c", Predicate: datamodel.SubClassOf, To: model + "/a"}

	t.Run("memory", func(t *testing.T) {
		repo := NewMemoryRepository()
		for name, g := range chain {
			require.NoError(t, repo.Put(ctx, name, g))
		}
		ok, err := repo.Ask(ctx, across)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Ask(ctx, backwards)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("partition walk", func(t *testing.T) {
		var loaded []string
		fetch := func(_ context.Context, name string) (*rdf2go.Graph, error) {
			loaded = append(loaded, name)
			return chain[name], nil
		}
		ok, err := walkPath(ctx, across, locateChain, fetch)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.ElementsMatch(t, []string{model, otherModel}, loaded)

		loaded = nil
		ok, err = walkPath(ctx, backwards, locateChain, fetch)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []string{model}, loaded, "only the partition of the start is read")

		ok, err = walkPath(ctx, PathQuery{From: "http://example.org/x", Predicate: datamodel.SubClassOf, To: "http://example.org/x"}, locateChain, fetch)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemoryRepositoryConstructAndSelect(t *testing.T) {
	ctx := context.Background()
	repo := fixture(t)

	t.Run("construct describes blank nodes", func(t *testing.T) {
		g, err := repo.Construct(ctx, Pattern{
			Subject:   graph.IRI(model + "/C"),
			Predicate: graph.IRI(datamodel.SubClassOf),
			Describe:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, g.Len())
	})

	t.Run("select binds graph", func(t *testing.T) {
		rows, err := repo.Select(ctx, Pattern{Predicate: graph.IRI(datamodel.Type), Object: graph.IRI(datamodel.Class)})
		require.NoError(t, err)
		require.Len(t, rows, 4)

		graphs := map[string]int{}
		for _, row := range rows {
			graphs[row.IRI("g")]++
		}
		assert.Equal(t, map[string]int{model: 3, model + "/1.0.0": 1}, graphs)
	})
}
