//go:build integration

package index

import (
	"context"
	"testing"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVIndex(t *testing.T) {
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	js, err := tc.Client.JetStream()
	require.NoError(t, err)

	idx, err := NewKVIndex(ctx, js, "TEST_DATAMODEL_INDEX")
	require.NoError(t, err)

	d := doc(model + "/Person")
	require.NoError(t, idx.CreateResource(ctx, d))

	got, ok, err := idx.Get(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d.Label, got.Label)
	assert.True(t, d.Created.Equal(got.Created))

	require.NoError(t, idx.DeleteResource(ctx, d.ID))
	_, ok, err = idx.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
