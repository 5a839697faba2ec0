package export_test

import (
	"testing"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/export"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    export.Format
		wantErr bool
	}{
		{"", export.FormatTurtle, false},
		{"turtle", export.FormatTurtle, false},
		{"TTL", export.FormatTurtle, false},
		{".nt", export.FormatNTriples, false},
		{"application/n-triples", export.FormatNTriples, false},
		{"jsonld", export.FormatJSONLD, false},
		{"application/ld+json", export.FormatJSONLD, false},
		{"rdfxml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	if got := export.FormatForPath("model.jsonld"); got != export.FormatJSONLD {
		t.Errorf("expected jsonld, got %s", got)
	}
	if got := export.FormatForPath("model"); got != export.FormatTurtle {
		t.Errorf("expected turtle fallback, got %s", got)
	}
	if got := export.FormatForPath("model.xml"); got != export.FormatTurtle {
		t.Errorf("expected turtle fallback, got %s", got)
	}
}

func TestFormatRegistryComplete(t *testing.T) {
	for _, name := range export.FormatNames() {
		info, ok := export.GetFormatInfo(export.Format(name))
		if !ok {
			t.Fatalf("format %s missing from registry", name)
		}
		if info.MIMEType == "" || info.Extension == "" {
			t.Errorf("format %s has incomplete metadata: %+v", name, info)
		}
	}
}

func TestGetProfileConfigFallsBackToPublic(t *testing.T) {
	if got := export.GetProfileConfig("unknown"); got.Name != export.ProfilePublic {
		t.Errorf("expected public profile, got %s", got.Name)
	}
	if got := export.GetProfileConfig(export.ProfileFull); len(got.ExcludePredicates) != 0 {
		t.Errorf("full profile should not exclude predicates, got %v", got.ExcludePredicates)
	}
}
