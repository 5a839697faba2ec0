package inheritance

import (
	"context"
	"testing"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

const (
	profile = uri.DefaultNamespace + "prof"
	library = uri.DefaultNamespace + "lib"
	other   = uri.DefaultNamespace + "other"
	p       = profile + "/"
	l       = library + "/"
)

var stamp = mapper.Stamp{User: "tester", Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

func nodeShape(g *rdf2go.Graph, shape, node string, props ...string) {
	s := graph.IRI(shape)
	graph.Add(g, s, graph.IRI(datamodel.Type), graph.IRI(datamodel.NodeShape))
	if node != "" {
		graph.Set(g, s, graph.IRI(datamodel.Node), graph.IRI(node))
	}
	for _, prop := range props {
		graph.Add(g, s, graph.IRI(datamodel.Property), graph.IRI(prop))
		// Each property gets its own path unless the test sets one.
		if !graph.Has(g, graph.IRI(prop), graph.IRI(datamodel.Path), nil) {
			graph.Set(g, graph.IRI(prop), graph.IRI(datamodel.Path), graph.IRI(prop+"-path"))
		}
	}
}

func newResolver(t *testing.T, graphs ...*rdf2go.Graph) (*Resolver, *storage.MemoryRepository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	for _, g := range graphs {
		require.NoError(t, repo.Put(context.Background(), g.URI(), g))
	}
	return New(uri.NewResolver("", "/"), nil, repo), repo
}

func TestApplyRetarget(t *testing.T) {
	g := graph.New(profile)
	nodeShape(g, p+"M1", "", p+"p1", p+"p2")
	nodeShape(g, p+"M2", "", p+"p2", p+"p4")
	nodeShape(g, p+"N", p+"M1", p+"p1", p+"p2", p+"p3")
	r, _ := newResolver(t)

	graph.Set(g, graph.IRI(p+"N"), graph.IRI(datamodel.Node), graph.IRI(p+"M2"))
	res, err := r.Apply(context.Background(), g, profile, Change{Shape: p + "N", OldNode: p + "M1", NewNode: p + "M2"}, stamp)
	require.NoError(t, err)

	want := []string{p + "p2", p + "p3", p + "p4"}
	assert.Equal(t, want, res.Properties)
	assert.Empty(t, res.Placeholders)
	assert.Equal(t, want, graph.ObjectIRIs(g, graph.IRI(p+"N"), graph.IRI(datamodel.Property)))
}

func TestApplyRetargetKeepsDirectProperty(t *testing.T) {
	g := graph.New(profile)
	nodeShape(g, p+"M", "", p+"p1", p+"p2")
	nodeShape(g, p+"M2", "", p+"p2", p+"p4")
	nodeShape(g, p+"N", p+"M", p+"p1", p+"p2")
	mapper.SetDirectProperties(g, p+"N", []string{p + "p1"})
	r, _ := newResolver(t)

	graph.Set(g, graph.IRI(p+"N"), graph.IRI(datamodel.Node), graph.IRI(p+"M2"))
	res, err := r.Apply(context.Background(), g, profile, Change{Shape: p + "N", OldNode: p + "M", NewNode: p + "M2"}, stamp)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{p + "p1", p + "p2", p + "p4"}, res.Properties)
	assert.Equal(t, []string{p + "p1"}, mapper.DirectProperties(g, p+"N"))

	// Clearing the node leaves only the direct link.
	graph.RemoveAll(g, graph.IRI(p+"N"), graph.IRI(datamodel.Node), nil)
	res, err = r.Apply(context.Background(), g, profile, Change{Shape: p + "N", OldNode: p + "M2"}, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{p + "p1"}, res.Properties)
}

func TestApplyRemovesInheritedWhenNodeCleared(t *testing.T) {
	g := graph.New(profile)
	nodeShape(g, p+"M", "", p+"p1")
	nodeShape(g, p+"N", "", p+"p1", p+"p3")
	r, _ := newResolver(t)

	res, err := r.Apply(context.Background(), g, profile, Change{Shape: p + "N", OldNode: p + "M"}, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{p + "p3"}, res.Properties)
}

func TestApplyIsIdempotent(t *testing.T) {
	g := graph.New(profile)
	nodeShape(g, p+"M", "", p+"p1")
	nodeShape(g, p+"N", p+"M", p+"p3")
	r, _ := newResolver(t)
	ctx := context.Background()
	change := Change{Shape: p + "N", NewNode: p + "M"}

	first, err := r.Apply(ctx, g, profile, change, stamp)
	require.NoError(t, err)
	change.OldNode = p + "M"
	second, err := r.Apply(ctx, g, profile, change, stamp)
	require.NoError(t, err)
	assert.Equal(t, first.Properties, second.Properties)

	e1, err := r.Effective(ctx, g, p+"N")
	require.NoError(t, err)
	e2, err := r.Effective(ctx, g, p+"N")
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
	assert.Equal(t, []string{p + "p1", p + "p3"}, e1)
}

func TestInheritedFollowsChainAcrossModels(t *testing.T) {
	o := graph.New(other)
	nodeShape(o, other+"/Base", "", other+"/q")
	g := graph.New(profile)
	nodeShape(g, p+"M", other+"/Base", p+"p1")
	nodeShape(g, p+"N", p+"M")
	r, _ := newResolver(t, o)

	props, err := r.Inherited(context.Background(), g, p+"N", p+"M")
	require.NoError(t, err)
	assert.Equal(t, []string{other + "/q", p + "p1"}, props)
}

func TestInheritedDetectsCircularDependency(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *rdf2go.Graph)
		node  string
	}{
		{
			name:  "self",
			build: func(g *rdf2go.Graph) { nodeShape(g, p+"N", p+"N") },
			node:  p + "N",
		},
		{
			name: "two step",
			build: func(g *rdf2go.Graph) {
				nodeShape(g, p+"N", p+"M")
				nodeShape(g, p+"M", p+"N")
			},
			node: p + "M",
		},
		{
			name: "loop beyond the shape",
			build: func(g *rdf2go.Graph) {
				nodeShape(g, p+"N", p+"A")
				nodeShape(g, p+"A", p+"B")
				nodeShape(g, p+"B", p+"A")
			},
			node: p + "A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(profile)
			tt.build(g)
			r, _ := newResolver(t)

			_, err := r.Inherited(context.Background(), g, p+"N", tt.node)
			require.Error(t, err)
			assert.True(t, errs.IsMapping(err, errs.KeyCircularDependency))

			_, err = r.Apply(context.Background(), g, profile, Change{Shape: p + "N", NewNode: tt.node}, stamp)
			assert.True(t, errs.IsMapping(err, errs.KeyCircularDependency))
		})
	}
}

func TestInheritedMissingNode(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.Inherited(context.Background(), graph.New(profile), p+"N", p+"Missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestDirectPropertyOverridesInheritedPath(t *testing.T) {
	g := graph.New(profile)
	graph.Set(g, graph.IRI(p+"own"), graph.IRI(datamodel.Path), graph.IRI(l+"name"))
	graph.Set(g, graph.IRI(p+"inherited"), graph.IRI(datamodel.Path), graph.IRI(l+"name"))
	nodeShape(g, p+"M", "", p+"inherited")
	nodeShape(g, p+"N", "", p+"own")
	r, _ := newResolver(t)

	res, err := r.Apply(context.Background(), g, profile, Change{Shape: p + "N", NewNode: p + "M"}, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{p + "own"}, res.Properties)

	effective, err := r.Effective(context.Background(), g, p+"N")
	require.NoError(t, err)
	assert.Equal(t, []string{p + "own"}, effective)
}

func libraryWithPerson() *rdf2go.Graph {
	lib := graph.New(library)
	class := graph.IRI(l + "Person")
	graph.Add(lib, class, graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))
	graph.Add(lib, class, graph.IRI(datamodel.SubClassOf), graph.IRI(datamodel.Thing))
	mapper.AddRestriction(lib, l+"Person", l+"name", datamodel.XSD+"string")
	mapper.AddRestriction(lib, l+"Person", l+"knows", l+"Person")
	return lib
}

func TestApplyInducesPlaceholders(t *testing.T) {
	g := graph.New(profile)
	graph.Set(g, graph.IRI(p+"name"), graph.IRI(datamodel.Path), graph.IRI(l+"name"))
	nodeShape(g, p+"N", "", p+"name")
	r, _ := newResolver(t, libraryWithPerson())

	res, err := r.Apply(context.Background(), g, profile,
		Change{Shape: p + "N", NewTargetClass: l + "Person"}, stamp)
	require.NoError(t, err)

	require.Equal(t, []string{p + "knows"}, res.Placeholders)
	assert.Equal(t, []string{p + "knows", p + "name"}, res.Properties)

	info, err := mapper.ParseResource(g, p+"knows")
	require.NoError(t, err)
	assert.Equal(t, mapper.KindPropertyShape, info.Kind)
	assert.Equal(t, l+"knows", graph.ObjectIRI(g, graph.IRI(p+"knows"), graph.IRI(datamodel.Path)))
	assert.True(t, graph.HasType(g, graph.IRI(p+"knows"), datamodel.ObjectProperty))

	again, err := r.Apply(context.Background(), g, profile,
		Change{Shape: p + "N", OldTargetClass: l + "Person", NewTargetClass: l + "Person"}, stamp)
	require.NoError(t, err)
	assert.Empty(t, again.Placeholders)
	assert.Equal(t, res.Properties, again.Properties)
}

func TestPlaceholderIdentifierProbing(t *testing.T) {
	stored := graph.New(profile)
	graph.Set(stored, graph.IRI(p+"knows"), graph.IRI(datamodel.Type), graph.IRI(datamodel.PropertyShape))
	graph.Set(stored, graph.IRI(p+"name"), graph.IRI(datamodel.Type), graph.IRI(datamodel.PropertyShape))

	g := graph.New(profile)
	graph.Set(g, graph.IRI(p+"name-1"), graph.IRI(datamodel.Type), graph.IRI(datamodel.PropertyShape))
	nodeShape(g, p+"N", "")
	r, _ := newResolver(t, libraryWithPerson(), stored)

	res, err := r.Apply(context.Background(), g, profile,
		Change{Shape: p + "N", NewTargetClass: l + "Person"}, stamp)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p + "knows-1", p + "name-2"}, res.Placeholders)
	assert.True(t, graph.HasType(g, graph.IRI(p+"name-2"), datamodel.DatatypeProperty))
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "name", localName("http://example.org/ns#name"))
	assert.Equal(t, "knows", localName("http://example.org/ns/knows"))
	assert.Equal(t, "property", localName("http://example.org/ns/1st"))
}
