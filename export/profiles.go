package export

import (
	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Profile determines which statements are included in the export.
type Profile string

const (
	// ProfileFull exports the graph as stored.
	ProfileFull Profile = "full"

	// ProfilePublic drops editor identities and editorial notes.
	ProfilePublic Profile = "public"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// ExcludePredicates are removed from every subject.
	ExcludePredicates []string
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileFull: {
		Name:        ProfileFull,
		Description: "Every statement of the model graph",
	},
	ProfilePublic: {
		Name:        ProfilePublic,
		Description: "Model graph without editor metadata",
		ExcludePredicates: []string{
			datamodel.Creator,
			datamodel.Modifier,
			datamodel.EditorialNote,
		},
	},
}

// GetProfileConfig returns the configuration for a profile. Unknown
// profiles fall back to the public one.
func GetProfileConfig(profile Profile) ProfileConfig {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfilePublic]
}

// Apply returns a copy of g without the statements the profile excludes.
func (c ProfileConfig) Apply(g *rdf2go.Graph) *rdf2go.Graph {
	out := graph.Clone(g)
	for _, p := range c.ExcludePredicates {
		graph.RemoveAll(out, nil, graph.IRI(p), nil)
	}
	return out
}
