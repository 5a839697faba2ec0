package mapper

import (
	"github.com/VRK-YTI/yti-datamodel-api-sub003/index"
)

// IndexDocument projects a resource into its search document. For release
// partitions pass the model's version and version IRI.
func IndexDocument(r ResourceInfo, m ModelInfo) index.Document {
	doc := index.Document{
		ID:           r.URI,
		URI:          r.URI,
		Status:       string(r.Status),
		IsDefinedBy:  r.ModelURI,
		ResourceType: string(r.Kind),
		Identifier:   r.Identifier,
		Namespace:    m.Namespace,
		Label:        r.Label,
		Created:      r.Created,
		Modified:     r.Modified,
		TargetClass:  r.TargetClass,
	}
	if m.Version != "" {
		doc.FromVersion = m.Version
		doc.VersionIRI = m.VersionIRI
	}
	return doc
}
