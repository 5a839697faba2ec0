//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

func TestKVRepository(t *testing.T) {
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	js, err := tc.Client.JetStream()
	require.NoError(t, err)

	repo, err := NewKVRepository(ctx, js, "TEST_DATAMODEL_GRAPHS", 3)
	require.NoError(t, err)

	g := graph.New(model)
	graph.Add(g, graph.IRI(model+"/A"), graph.IRI(datamodel.Type), graph.IRI(datamodel.Class))
	graph.Add(g, graph.IRI(model+"/B"), graph.IRI(datamodel.SubClassOf), graph.IRI(model+"/A"))

	t.Run("create then conflict", func(t *testing.T) {
		require.NoError(t, repo.PutIfUnchanged(ctx, model, g, 0))
		err := repo.PutIfUnchanged(ctx, model, g, 0)
		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("fetch returns revision", func(t *testing.T) {
		p, err := repo.Fetch(ctx, model)
		require.NoError(t, err)
		assert.True(t, graph.Equal(g, p.Graph))
		require.NoError(t, repo.PutIfUnchanged(ctx, model, p.Graph, p.Revision))
		assert.ErrorIs(t, repo.PutIfUnchanged(ctx, model, p.Graph, p.Revision), errs.ErrConflict)
	})

	t.Run("queries", func(t *testing.T) {
		ok, err := repo.Ask(ctx, PathQuery{From: model + "/B", Predicate: datamodel.SubClassOf, To: model + "/A"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ResourceExists(ctx, model, model+"/B", false)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, model))
		_, err := repo.Fetch(ctx, model)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestKVRepositoryAcrossModels(t *testing.T) {
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	js, err := tc.Client.JetStream()
	require.NoError(t, err)

	full, err := NewKVRepository(ctx, js, "TEST_DATAMODEL_CROSS", 1)
	require.NoError(t, err)
	located, err := NewKVRepository(ctx, js, "TEST_DATAMODEL_CROSS", 1, WithLocator(locateChain))
	require.NoError(t, err)
	for name, g := range crossModelChain() {
		require.NoError(t, full.Put(ctx, name, g))
	}

	across := PathQuery{From: model + "/a", Predicate: datamodel.SubClassOf, To: model + "/c"}
	for name, repo := range map[string]*KVRepository{"all partitions": full, "located": located} {
		t.Run(name, func(t *testing.T) {
			ok, err := repo.Ask(ctx, across)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = repo.Ask(ctx, PathQuery{From: model + "/c", Predicate: datamodel.SubClassOf, To: model + "/a"})
			require.NoError(t, err)
			assert.False(t, ok)

			g, err := repo.Construct(ctx, Pattern{Subject: graph.IRI(otherModel + "/b")})
			require.NoError(t, err)
			assert.Equal(t, 1, g.Len())
		})
	}

	t.Run("unlocated subject reads nothing", func(t *testing.T) {
		g, err := located.Construct(ctx, Pattern{Subject: graph.IRI("http://example.org/x")})
		require.NoError(t, err)
		assert.Zero(t, g.Len())
	})
}
