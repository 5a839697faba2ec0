package index

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

const model = uri.DefaultNamespace + "test"

func doc(id string) Document {
	return Document{
		ID:           id,
		URI:          id,
		Status:       "DRAFT",
		IsDefinedBy:  model,
		ResourceType: "CLASS",
		Identifier:   "Person",
		Namespace:    model + "/",
		Label:        map[string]string{"fi": "Henkilö", "en": "Person"},
		Created:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Modified:     time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC),
	}
}

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.CreateResource(ctx, doc(model+"/Person")))
	updated := doc(model + "/Person")
	updated.Status = "VALID"
	require.NoError(t, idx.UpdateResource(ctx, updated))

	got, ok := idx.Get(model + "/Person")
	require.True(t, ok)
	assert.Equal(t, "VALID", got.Status)

	require.NoError(t, idx.DeleteResource(ctx, model+"/Person"))
	require.NoError(t, idx.DeleteResource(ctx, model+"/Person"))
	assert.Empty(t, idx.Documents())

	assert.Error(t, idx.CreateResource(ctx, Document{}))
}

type failing struct{}

func (failing) CreateResource(context.Context, Document) error { return errors.New("down") }
func (failing) UpdateResource(context.Context, Document) error { return errors.New("down") }
func (failing) DeleteResource(context.Context, string) error   { return errors.New("down") }

func TestMultiCallsEveryProjector(t *testing.T) {
	ctx := context.Background()
	a, b := NewMemoryIndex(), NewMemoryIndex()
	m := Multi{a, failing{}, b}

	err := m.CreateResource(ctx, doc(model+"/Person"))
	require.Error(t, err)
	assert.Len(t, a.Documents(), 1)
	assert.Len(t, b.Documents(), 1)

	require.NoError(t, Multi{a, b}.DeleteResource(ctx, model+"/Person"))
	assert.Empty(t, a.Documents())
}

type recorder struct {
	subjects []string
	data     [][]byte
}

func (r *recorder) PublishToStream(_ context.Context, subject string, data []byte) error {
	r.subjects = append(r.subjects, subject)
	r.data = append(r.data, data)
	return nil
}

func TestGraphPublisher(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	p := NewGraphPublisher(rec, uri.NewResolver("", "/"))
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	require.NoError(t, p.CreateResource(ctx, doc(model+"/Person")))
	require.Len(t, rec.subjects, 1)
	assert.Equal(t, GraphIngestSubject, rec.subjects[0])

	var entity ResourceEntity
	require.NoError(t, json.Unmarshal(rec.data[0], &entity))
	assert.Equal(t, "datamodel.yti.test.draft.resource.Person", entity.EntityID())
	assert.Equal(t, now, entity.Published)
	assert.Equal(t, doc(model+"/Person"), entity.Document)

	var wire struct {
		Triples []json.RawMessage `json:"triples"`
	}
	require.NoError(t, json.Unmarshal(rec.data[0], &wire))
	assert.Len(t, wire.Triples, len(entity.Triples()), "the wire form carries the derived triples")

	objects := map[string][]any{}
	for _, tr := range entity.Triples() {
		assert.Equal(t, entity.Entity, tr.Subject)
		objects[tr.Predicate] = append(objects[tr.Predicate], tr.Object)
	}
	assert.Equal(t, []any{model + "/Person"}, objects[datamodel.ResourceURI])
	assert.Equal(t, []any{"CLASS"}, objects[datamodel.ResourceKind])
	assert.Equal(t, []any{"en:Person", "fi:Henkilö"}, objects[datamodel.ResourceLabel])
	assert.NotContains(t, objects, datamodel.ResourceTargetClass)

	require.NoError(t, p.DeleteResource(ctx, model+"/1.0.0/Person"))
	assert.Equal(t, GraphDeleteSubject, rec.subjects[1])
	var del ResourceRemoval
	require.NoError(t, json.Unmarshal(rec.data[1], &del))
	assert.Equal(t, "datamodel.yti.test.1-0-0.resource.Person", del.Entity)
	assert.Equal(t, model+"/1.0.0/Person", del.URI)
}

func TestGraphPublisherRejectsForeignURI(t *testing.T) {
	p := NewGraphPublisher(&recorder{}, uri.NewResolver("", "/"))
	err := p.CreateResource(context.Background(), doc("http://example.org/other"))
	assert.Error(t, err)
}

func TestGraphPublisherWithoutClient(t *testing.T) {
	p := NewGraphPublisher(nil, uri.NewResolver("", "/"))
	assert.NoError(t, p.CreateResource(context.Background(), doc(model+"/Person")))
	assert.NoError(t, p.DeleteResource(context.Background(), model+"/Person"))
}

func TestResourceEntityValidate(t *testing.T) {
	valid := &ResourceEntity{Entity: "datamodel.yti.test.draft.resource.Person", Document: doc(model + "/Person")}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, ResourceType, valid.Schema())

	err := (&ResourceEntity{Entity: "datamodel.yti..draft.resource.Person"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "six non-empty parts")
	assert.Contains(t, err.Error(), "resource URI is required")
	assert.Contains(t, err.Error(), "defining model is required")
}
