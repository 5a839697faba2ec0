// Package uri derives the canonical graph, model and resource URIs of data
// models from a model prefix, an optional semantic version and an optional
// resource identifier.
//
// URI layout, with namespace "https://iri.suomi.fi/model/" and separator "/":
//
//	model           https://iri.suomi.fi/model/{prefix}
//	resource        https://iri.suomi.fi/model/{prefix}/{identifier}
//	version         https://iri.suomi.fi/model/{prefix}/{version}
//	version res.    https://iri.suomi.fi/model/{prefix}/{version}/{identifier}
//	positions       https://iri.suomi.fi/model/{prefix}/positions
//
// The draft graph partition of a model is keyed by the model URI, a release
// by its version URI.
package uri

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
)

// DefaultNamespace is the base IRI under which all models are minted.
const DefaultNamespace = "https://iri.suomi.fi/model/"

// positionsSegment names the visualization partition of a model.
const positionsSegment = "positions"

var (
	prefixPattern     = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,31}$`)
	identifierPattern = regexp.MustCompile(`^[\p{L}\p{Nl}_][\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}_.\x{00B7}-]*$`)
)

// URIs holds the canonical URIs for one prefix/version/identifier triplet.
type URIs struct {
	Prefix     string
	Version    string
	Identifier string

	// GraphURI is the storage partition: the version URI when a version was
	// given, otherwise the draft model URI.
	GraphURI string
	// ModelURI is the draft model resource.
	ModelURI string
	// VersionURI is the pinned model snapshot, empty for drafts.
	VersionURI string
	// ResourceURI is the draft resource, empty without identifier.
	ResourceURI string
	// ResourceVersionURI is the resource pinned to Version, empty for drafts.
	ResourceVersionURI string
}

// IsVersioned reports whether the URIs point to a release partition.
func (u URIs) IsVersioned() bool { return u.Version != "" }

// PositionsGraphURI is the visualization partition of the model.
func (u URIs) PositionsGraphURI() string {
	return u.ModelURI + "/" + positionsSegment
}

// Resolver derives URIs within one namespace.
type Resolver struct {
	namespace string
	separator string
}

// NewResolver creates a resolver for namespace. separator is "/" or "#";
// anything else falls back to "/".
func NewResolver(namespace, separator string) *Resolver {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if !strings.HasSuffix(namespace, "/") && !strings.HasSuffix(namespace, "#") {
		namespace += "/"
	}
	if separator != "#" {
		separator = "/"
	}
	return &Resolver{namespace: namespace, separator: separator}
}

// Namespace returns the base IRI of all models.
func (r *Resolver) Namespace() string { return r.namespace }

// Separator returns the string placed between a model URI and an identifier.
func (r *Resolver) Separator() string { return r.separator }

// Resolve derives the URIs for prefix, version and identifier. Version and
// identifier may be empty.
func (r *Resolver) Resolve(prefix, version, identifier string) (URIs, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return URIs{}, err
	}
	if version != "" {
		if err := ValidateVersion(version); err != nil {
			return URIs{}, err
		}
	}
	if identifier != "" {
		if err := ValidateIdentifier(identifier); err != nil {
			return URIs{}, err
		}
	}

	modelURI := r.namespace + prefix
	u := URIs{
		Prefix:     prefix,
		Version:    version,
		Identifier: identifier,
		ModelURI:   modelURI,
		GraphURI:   modelURI,
	}
	if version != "" {
		u.VersionURI = modelURI + "/" + version
		u.GraphURI = u.VersionURI
	}
	if identifier != "" {
		u.ResourceURI = modelURI + r.separator + identifier
		if version != "" {
			u.ResourceVersionURI = u.VersionURI + r.separator + identifier
		}
	}
	return u, nil
}

// MustResolve is Resolve for inputs known to be valid. It panics otherwise.
func (r *Resolver) MustResolve(prefix, version, identifier string) URIs {
	u, err := r.Resolve(prefix, version, identifier)
	if err != nil {
		panic(err)
	}
	return u
}

// Parse splits a model, version or resource URI minted by this resolver back
// into its components. ok is false for URIs outside the namespace.
func (r *Resolver) Parse(raw string) (URIs, bool) {
	rest, found := strings.CutPrefix(raw, r.namespace)
	if !found || rest == "" {
		return URIs{}, false
	}

	var prefix, tail string
	if r.separator == "#" {
		var hash string
		before, after, hasHash := strings.Cut(rest, "#")
		if hasHash {
			hash = after
		}
		prefix, tail, _ = strings.Cut(before, "/")
		if hasHash {
			if tail != "" {
				tail += "/"
			}
			tail += hash
		}
	} else {
		prefix, tail, _ = strings.Cut(rest, "/")
	}

	version, identifier := "", tail
	if v, id, hasMore := strings.Cut(tail, "/"); hasMore && isVersion(v) {
		version, identifier = v, id
	} else if isVersion(tail) {
		version, identifier = tail, ""
	}
	u, err := r.Resolve(prefix, version, identifier)
	if err != nil {
		return URIs{}, false
	}
	return u, true
}

// Locate returns the graph partition that describes raw: the release
// partition for versioned URIs, the draft partition otherwise.
func (r *Resolver) Locate(raw string) (string, bool) {
	if u, ok := r.Parse(raw); ok {
		return u.GraphURI, true
	}
	if base, _, ok := strings.Cut(raw, "/"+positionsSegment); ok {
		if u, ok := r.Parse(base); ok && u.Version == "" && u.Identifier == "" {
			return u.PositionsGraphURI(), true
		}
	}
	return "", false
}

// IsModelResource reports whether raw lies in the namespace of the model
// identified by modelURI, either as draft or as a pinned version.
func (r *Resolver) IsModelResource(modelURI, raw string) bool {
	return strings.HasPrefix(raw, modelURI+r.separator) || strings.HasPrefix(raw, modelURI+"/")
}

// ValidatePrefix checks a model prefix.
func ValidatePrefix(prefix string) error {
	if !prefixPattern.MatchString(prefix) {
		return errs.InvalidURI(prefix, "prefix must match "+prefixPattern.String())
	}
	return nil
}

// ValidateVersion checks a semantic version of the form MAJOR.MINOR.PATCH.
func ValidateVersion(version string) error {
	if !isVersion(version) {
		return errs.InvalidURI(version, "version must be a semantic version MAJOR.MINOR.PATCH")
	}
	return nil
}

// ValidateIdentifier checks that identifier is an XML NCName that does not
// collide with a partition segment.
func ValidateIdentifier(identifier string) error {
	if !IsNCName(identifier) {
		return errs.InvalidURI(identifier, "identifier must be an NCName")
	}
	if IsReserved(identifier) {
		return errs.InvalidURI(identifier, "identifier is reserved")
	}
	return nil
}

// IsReserved reports whether identifier names a partition of the model
// rather than a resource. Under the "/" separator such a resource URI would
// equal the partition URI.
func IsReserved(identifier string) bool {
	return identifier == positionsSegment
}

// IsNCName reports whether s is a syntactically valid XML NCName. Letters
// and digits from any script are accepted.
func IsNCName(s string) bool {
	return identifierPattern.MatchString(s)
}

func isVersion(v string) bool {
	if v == "" || strings.HasPrefix(v, "v") {
		return false
	}
	canonical := "v" + v
	// semver accepts v1 and v1.2 as shorthands; releases need all three parts.
	return semver.IsValid(canonical) && semver.Canonical(canonical) == canonical &&
		strings.Count(strings.SplitN(v, "-", 2)[0], ".") == 2
}

// CompareVersions orders two semantic versions like strings.Compare.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
