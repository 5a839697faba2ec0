package consistency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

const (
	model = "https://iri.suomi.fi/model/test"
	ns    = model + "/"
)

func setup(t *testing.T, edges ...[3]string) *Validator {
	t.Helper()
	g := graph.New(model)
	for _, e := range edges {
		graph.Add(g, graph.IRI(e[0]), graph.IRI(e[1]), graph.IRI(e[2]))
	}
	repo := storage.NewMemoryRepository()
	require.NoError(t, repo.Put(context.Background(), model, g))
	return New(repo, uri.NewResolver("", "/"), nil)
}

func TestDiff(t *testing.T) {
	links := Diff(ns+"A", datamodel.SubClassOf, []string{ns + "B", ns + "C"}, []string{ns + "C", ns + "D"})
	assert.Equal(t, []Link{{Resource: ns + "A", Predicate: datamodel.SubClassOf, Target: ns + "D"}}, links)
	assert.Empty(t, Diff(ns+"A", datamodel.SubClassOf, []string{ns + "B"}, nil))
}

// For every structural predicate P, if A reaches B via P then a P-edge
// from B back to A is rejected, while the same edge over another
// predicate is accepted.
func TestCheckCyclesPerPredicate(t *testing.T) {
	ctx := context.Background()
	predicates := []string{
		datamodel.SubClassOf,
		datamodel.EquivalentClass,
		datamodel.DisjointWith,
		datamodel.TargetClass,
		datamodel.Node,
		datamodel.SubProperty,
		datamodel.EquivalentProperty,
	}
	for i, p := range predicates {
		other := predicates[(i+1)%len(predicates)]
		t.Run(p, func(t *testing.T) {
			v := setup(t,
				[3]string{ns + "A", p, ns + "M"},
				[3]string{ns + "M", p, ns + "B"},
			)

			err := v.CheckCycles(ctx, []Link{{Resource: ns + "B", Predicate: p, Target: ns + "A"}})
			assert.True(t, errs.IsMapping(err, errs.KeyCyclicalReference), "transitive cycle over %s: %v", p, err)

			err = v.CheckCycles(ctx, []Link{{Resource: ns + "B", Predicate: p, Target: ns + "M"}})
			assert.True(t, errs.IsMapping(err, errs.KeyCyclicalReference), "direct cycle over %s", p)

			err = v.CheckCycles(ctx, []Link{{Resource: ns + "B", Predicate: other, Target: ns + "A"}})
			assert.NoError(t, err, "predicates are never unioned")
		})
	}
}

func TestCheckCyclesSelfLink(t *testing.T) {
	v := setup(t)
	err := v.CheckCycles(context.Background(), []Link{{Resource: ns + "A", Predicate: datamodel.SubClassOf, Target: ns + "A"}})
	assert.True(t, errs.IsMapping(err, errs.KeyCyclicalReference))
}

func TestCheckDeletable(t *testing.T) {
	ctx := context.Background()
	v := setup(t,
		[3]string{model, datamodel.HasPart, ns + "C"},
		[3]string{model, datamodel.HasPart, ns + "D"},
		[3]string{ns + "D", datamodel.SubClassOf, ns + "C"},
	)

	err := v.CheckDeletable(ctx, model, ns+"C")
	assert.True(t, errs.IsMapping(err, errs.KeyReferencedByOthers))

	assert.NoError(t, v.CheckDeletable(ctx, model, ns+"D"), "containment alone does not block deletion")
}

func TestCheckPropertyReferences(t *testing.T) {
	ctx := context.Background()
	v := setup(t,
		[3]string{ns + "stored", datamodel.Type, datamodel.PropertyShape},
	)
	g := graph.New(model)
	graph.Add(g, graph.IRI(ns+"local"), graph.IRI(datamodel.Type), graph.IRI(datamodel.PropertyShape))

	assert.NoError(t, v.CheckPropertyReferences(ctx, g, []string{ns + "local", ns + "stored", "http://example.org/external#p"}))

	err := v.CheckPropertyReferences(ctx, g, []string{ns + "missing"})
	assert.True(t, errs.IsMapping(err, errs.KeyDanglingReference))
}
