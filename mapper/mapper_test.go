package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

const (
	modelURI = "https://iri.suomi.fi/model/test"
	ns       = modelURI + "/"
)

var stamp = Stamp{User: "4ce70937-6fa4-49af-a229-b5f10328adb8", Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

func newLibrary() ModelDTO {
	return ModelDTO{
		Prefix:        "test",
		Type:          ModelLibrary,
		Label:         map[string]string{"fi": "Testi", "en": "Test"},
		Languages:     []string{"fi", "en"},
		Organizations: []string{"7d3a3c00-5a6b-489b-a3ed-63bb58c26a63"},
		Status:        StatusDraft,
	}
}

func classDTO(id string, parents ...string) ClassDTO {
	return ClassDTO{
		BaseDTO: BaseDTO{
			Identifier: id,
			Label:      map[string]string{"en": id},
			Status:     StatusDraft,
		},
		SubClassOf: parents,
	}
}

func TestModelRoundTrip(t *testing.T) {
	g := NewModelGraph(modelURI, ns, newLibrary(), stamp)

	m, err := ParseModel(g, modelURI)
	require.NoError(t, err)
	assert.Equal(t, ModelLibrary, m.Type)
	assert.Equal(t, "test", m.Prefix)
	assert.Equal(t, ns, m.Namespace)
	assert.Equal(t, []string{"7d3a3c00-5a6b-489b-a3ed-63bb58c26a63"}, m.Organizations)
	assert.Equal(t, []string{"en", "fi"}, m.Languages)
	assert.Equal(t, stamp.Time, m.Created)

	_, err = ParseModel(g, modelURI+"/other")
	assert.True(t, errs.IsNotFound(err))
}

func TestMapClass(t *testing.T) {
	t.Run("empty subClassOf defaults to owl:Thing", func(t *testing.T) {
		g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
		MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)

		info, err := ParseResource(g, ns+"A")
		require.NoError(t, err)
		assert.Equal(t, []string{datamodel.Thing}, info.SubClassOf)
		assert.Equal(t, KindClass, info.Kind)
		assert.Equal(t, modelURI, info.ModelURI)
		assert.Contains(t, graph.ObjectIRIs(g, graph.IRI(modelURI), graph.IRI(datamodel.HasPart)), ns+"A")
	})

	t.Run("update to empty set leaves exactly one default", func(t *testing.T) {
		g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
		MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)
		MapClass(g, modelURI, ns+"B", classDTO("B", ns+"A"), stamp, true)

		MapClass(g, modelURI, ns+"B", classDTO("B"), stamp, false)

		assert.Len(t, g.All(graph.IRI(ns+"B"), graph.IRI(datamodel.SubClassOf), nil), 1)
		assert.Equal(t, []string{datamodel.Thing}, graph.ObjectIRIs(g, graph.IRI(ns+"B"), graph.IRI(datamodel.SubClassOf)))
	})

	t.Run("null label clears all labels", func(t *testing.T) {
		g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
		MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)

		dto := classDTO("A")
		dto.Label = nil
		MapClass(g, modelURI, ns+"A", dto, stamp, false)

		assert.Empty(t, g.All(graph.IRI(ns+"A"), graph.IRI(datamodel.Label), nil))
	})

	t.Run("named subClassOf update keeps restrictions", func(t *testing.T) {
		g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
		MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)
		require.True(t, AddRestriction(g, ns+"A", ns+"name", datamodel.XSDString))
		require.False(t, AddRestriction(g, ns+"A", ns+"name", datamodel.XSDString))

		MapClass(g, modelURI, ns+"A", classDTO("A", ns+"Other"), stamp, false)

		info, err := ParseResource(g, ns+"A")
		require.NoError(t, err)
		assert.Equal(t, []string{ns + "Other"}, info.SubClassOf)
		require.Len(t, info.Restrictions, 1)
		assert.Equal(t, ns+"name", info.Restrictions[0].OnProperty)
		assert.Equal(t, datamodel.XSDString, info.Restrictions[0].Target())

		assert.True(t, RemoveRestriction(g, ns+"A", ns+"name"))
		info, err = ParseResource(g, ns+"A")
		require.NoError(t, err)
		assert.Empty(t, info.Restrictions)
		assert.Empty(t, g.All(nil, graph.IRI(datamodel.OnProperty), nil))
	})

	t.Run("identifier literal is typed NCName", func(t *testing.T) {
		g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
		MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)
		assert.True(t, graph.Has(g, graph.IRI(ns+"A"), graph.IRI(datamodel.Identifier), graph.TypedLiteral("A", datamodel.XSDNCName)))
	})
}

func TestMapResourceDefaults(t *testing.T) {
	g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
	base := BaseDTO{Identifier: "name", Label: map[string]string{"en": "name"}, Status: StatusDraft}

	MapResource(g, modelURI, ns+"name", KindAttribute, ResourceDTO{BaseDTO: base, Range: datamodel.XSDString}, stamp, true)
	base.Identifier = "owner"
	MapResource(g, modelURI, ns+"owner", KindAssociation, ResourceDTO{BaseDTO: base}, stamp, true)

	attr, err := ParseResource(g, ns+"name")
	require.NoError(t, err)
	assert.Equal(t, KindAttribute, attr.Kind)
	assert.Equal(t, []string{datamodel.TopDataProperty}, attr.SubResourceOf)
	assert.Equal(t, datamodel.XSDString, attr.Range)

	assoc, err := ParseResource(g, ns+"owner")
	require.NoError(t, err)
	assert.Equal(t, KindAssociation, assoc.Kind)
	assert.Equal(t, []string{datamodel.TopObjectProperty}, assoc.SubResourceOf)
}

func TestMapPropertyShape(t *testing.T) {
	g := graph.New(modelURI)
	minCount, maxCount := 1, 3
	dto := PropertyShapeDTO{
		BaseDTO:       BaseDTO{Identifier: "name", Label: map[string]string{"en": "name"}, Status: StatusDraft},
		Type:          KindAttribute,
		Path:          ns + "name",
		DataType:      datamodel.XSDString,
		MinCount:      &minCount,
		MaxCount:      &maxCount,
		AllowedValues: []string{"b", "a"},
	}
	MapPropertyShape(g, modelURI, ns+"name", dto, stamp, true)

	info, err := ParseResource(g, ns+"name")
	require.NoError(t, err)
	assert.Equal(t, KindPropertyShape, info.Kind)
	assert.Equal(t, KindAttribute, info.PropertyType)
	assert.Equal(t, 1, *info.MinCount)
	assert.Equal(t, 3, *info.MaxCount)
	assert.Equal(t, []string{"a", "b"}, info.AllowedValues)

	t.Run("switching to association drops datatype", func(t *testing.T) {
		dto.Type = KindAssociation
		dto.ClassType = ns + "Person"
		dto.MaxCount = nil
		MapPropertyShape(g, modelURI, ns+"name", dto, stamp, false)

		info, err := ParseResource(g, ns+"name")
		require.NoError(t, err)
		assert.Equal(t, KindAssociation, info.PropertyType)
		assert.Empty(t, info.DataType)
		assert.Equal(t, ns+"Person", info.ClassType)
		assert.Nil(t, info.MaxCount)
	})

	t.Run("copy back to dto", func(t *testing.T) {
		info, err := ParseResource(g, ns+"name")
		require.NoError(t, err)
		back := info.PropertyShapeDTO()
		assert.Equal(t, "name", back.Identifier)
		assert.Equal(t, ns+"name", back.Path)
	})
}

func TestCheckKind(t *testing.T) {
	tests := []struct {
		model ModelType
		kind  Kind
		ok    bool
	}{
		{ModelLibrary, KindClass, true},
		{ModelLibrary, KindAttribute, true},
		{ModelLibrary, KindAssociation, true},
		{ModelLibrary, KindPropertyShape, false},
		{ModelLibrary, KindNodeShape, false},
		{ModelProfile, KindNodeShape, true},
		{ModelProfile, KindPropertyShape, true},
		{ModelProfile, KindClass, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.model)+"/"+string(tc.kind), func(t *testing.T) {
			err := CheckKind(tc.model, tc.kind)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errs.IsMapping(err, errs.KeyInvalidKind))
		})
	}
}

func TestParseResourceErrors(t *testing.T) {
	g := graph.New(modelURI)
	graph.Add(g, graph.IRI(ns+"X"), graph.IRI(datamodel.Type), graph.IRI(datamodel.Restriction))

	_, err := ParseResource(g, ns+"missing")
	assert.True(t, errs.IsNotFound(err))

	_, err = ParseResource(g, ns+"X")
	assert.True(t, errs.IsMapping(err, errs.KeyInvalidKind))
}

func TestRenameResource(t *testing.T) {
	g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
	MapClass(g, modelURI, ns+"X", classDTO("X"), stamp, true)
	MapClass(g, modelURI, ns+"C", classDTO("C", ns+"X"), stamp, true)
	before, err := ParseResource(g, ns+"X")
	require.NoError(t, err)

	out := RenameResource(g, ns+"X", ns+"Y", "Y")

	_, err = ParseResource(out, ns+"X")
	assert.True(t, errs.IsNotFound(err))
	after, err := ParseResource(out, ns+"Y")
	require.NoError(t, err)
	assert.Equal(t, "Y", after.Identifier)
	assert.Equal(t, before.Label, after.Label)
	assert.Equal(t, before.SubClassOf, after.SubClassOf)
	assert.Equal(t, []string{ns + "Y"}, graph.ObjectIRIs(out, graph.IRI(ns+"C"), graph.IRI(datamodel.SubClassOf)))
	assert.Equal(t, g.Len(), out.Len())
}

func TestDeleteResource(t *testing.T) {
	g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
	MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)
	AddRestriction(g, ns+"A", ns+"p", "")

	DeleteResource(g, modelURI, ns+"A")

	assert.False(t, graph.Has(g, graph.IRI(ns+"A"), nil, nil))
	assert.False(t, graph.Has(g, nil, nil, graph.IRI(ns+"A")))
	assert.False(t, graph.Has(g, nil, graph.IRI(datamodel.OnProperty), nil))
}

func TestReleaseGraph(t *testing.T) {
	g := NewModelGraph(modelURI, ns, newLibrary(), stamp)
	MapClass(g, modelURI, ns+"A", classDTO("A"), stamp, true)
	MapClass(g, modelURI, ns+"B", classDTO("B", ns+"A"), stamp, true)

	rel := ReleaseGraph(g, modelURI, modelURI+"/1.0.0", "/", "1.0.0", "", StatusValid, stamp)

	m, err := ParseModel(rel, modelURI)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, modelURI+"/1.0.0", m.VersionIRI)
	assert.Equal(t, StatusValid, m.Status)
	assert.ElementsMatch(t, []string{modelURI + "/1.0.0/A", modelURI + "/1.0.0/B"}, m.Resources)

	b, err := ParseResource(rel, modelURI+"/1.0.0/B")
	require.NoError(t, err)
	assert.Equal(t, []string{modelURI + "/1.0.0/A"}, b.SubClassOf)
	assert.Equal(t, StatusValid, b.Status)
	assert.Equal(t, modelURI, b.ModelURI)

	doc := IndexDocument(b, m)
	assert.Equal(t, "1.0.0", doc.FromVersion)
	assert.Equal(t, modelURI+"/1.0.0", doc.VersionIRI)
	assert.Equal(t, string(KindClass), doc.ResourceType)
}

func TestPlaceholder(t *testing.T) {
	g := graph.New(modelURI)
	MapPlaceholder(g, modelURI, ns+"age", "age", ns+"age", PlaceholderKind(datamodel.XSDInteger), stamp)

	info, err := ParseResource(g, ns+"age")
	require.NoError(t, err)
	assert.Equal(t, KindPropertyShape, info.Kind)
	assert.Equal(t, KindAttribute, info.PropertyType)
	assert.Equal(t, ns+"age", info.Path)
	assert.Equal(t, KindAssociation, PlaceholderKind(ns+"Person"))
}

func TestPositions(t *testing.T) {
	g := graph.New(modelURI + "/positions")
	SetPositions(g, func(id string) string { return ns + id }, []Position{{Identifier: "B", X: 1.5, Y: -2}, {Identifier: "A", X: 0, Y: 10}})

	got := ParsePositions(g)
	assert.Equal(t, []Position{{Identifier: "A", X: 0, Y: 10}, {Identifier: "B", X: 1.5, Y: -2}}, got)
}

func TestValidate(t *testing.T) {
	t.Run("valid class", func(t *testing.T) {
		assert.NoError(t, ValidateCreate(classDTO("Person"), map[string]string{"en": "Person"}))
	})

	t.Run("bad identifier", func(t *testing.T) {
		err := Validate(classDTO("1Person"))
		assert.True(t, errs.IsMapping(err, errs.KeyInvalidIdentifier), "got %v", err)
	})

	t.Run("reserved identifier", func(t *testing.T) {
		err := Validate(classDTO("positions"))
		assert.True(t, errs.IsMapping(err, errs.KeyInvalidIdentifier), "got %v", err)
		assert.Contains(t, err.Error(), "reserved")
	})

	t.Run("unicode identifier", func(t *testing.T) {
		assert.NoError(t, Validate(classDTO("Henkilö")))
	})

	t.Run("validator registers custom tags", func(t *testing.T) {
		v, err := newValidator()
		require.NoError(t, err)
		assert.NotNil(t, v)
	})

	t.Run("bad status", func(t *testing.T) {
		dto := classDTO("Person")
		dto.Status = "PUBLISHED"
		assert.True(t, errs.IsMapping(Validate(dto), errs.KeyInvalidDTO))
	})

	t.Run("label required on create", func(t *testing.T) {
		dto := classDTO("Person")
		dto.Label = nil
		assert.NoError(t, Validate(dto))
		assert.True(t, errs.IsMapping(ValidateCreate(dto, dto.Label), errs.KeyInvalidDTO))
	})

	t.Run("model organizations must be uuids", func(t *testing.T) {
		m := newLibrary()
		m.Organizations = []string{"not-a-uuid"}
		assert.True(t, errs.IsMapping(Validate(m), errs.KeyInvalidDTO))
	})
}
