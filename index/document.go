package index

import "time"

// Document is the search projection of one resource.
type Document struct {
	ID           string            `json:"id"`
	URI          string            `json:"uri"`
	Status       string            `json:"status"`
	IsDefinedBy  string            `json:"isDefinedBy"`
	ResourceType string            `json:"resourceType"`
	Identifier   string            `json:"identifier"`
	Namespace    string            `json:"namespace"`
	Label        map[string]string `json:"label,omitempty"`
	Created      time.Time         `json:"created"`
	Modified     time.Time         `json:"modified"`
	FromVersion  string            `json:"fromVersion,omitempty"`
	TargetClass  string            `json:"targetClass,omitempty"`
	VersionIRI   string            `json:"versionIri,omitempty"`
}
