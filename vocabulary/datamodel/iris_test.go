package datamodel_test

import (
	"testing"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

func TestIsDatatype(t *testing.T) {
	tests := []struct {
		iri  string
		want bool
	}{
		{datamodel.XSDString, true},
		{datamodel.XSDInteger, true},
		{datamodel.RDFSLiteral, true},
		{datamodel.LangString, true},
		{datamodel.XSD, false},
		{datamodel.Thing, false},
		{"https://iri.suomi.fi/model/test/Person", false},
	}

	for _, tc := range tests {
		t.Run(tc.iri, func(t *testing.T) {
			if got := datamodel.IsDatatype(tc.iri); got != tc.want {
				t.Errorf("IsDatatype(%q) = %v, want %v", tc.iri, got, tc.want)
			}
		})
	}
}

func TestStructuralPredicatesAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range datamodel.StructuralPredicates {
		if seen[p] {
			t.Errorf("duplicate structural predicate %s", p)
		}
		seen[p] = true
	}
	if seen[datamodel.HasPart] {
		t.Error("containment predicate listed as structural")
	}
}
