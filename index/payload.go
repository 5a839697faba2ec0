package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "datamodel",
		Category:    "resource",
		Version:     "v1",
		Description: "Class, attribute, association or shape of a data model",
		Factory:     func() any { return &ResourceEntity{} },
	})
	if err != nil {
		panic("failed to register ResourceEntity: " + err.Error())
	}
}

// ResourceType is the message type of resource entities.
var ResourceType = message.Type{Domain: "datamodel", Category: "resource", Version: "v1"}

// ResourceEntity carries the index document of one resource into the
// knowledge graph. Its triples are derived from the document, so the wire
// form holds both and decoding keeps only the document.
type ResourceEntity struct {
	Entity    string
	Document  Document
	Published time.Time
}

// wireEntity is the JSON form of ResourceEntity.
type wireEntity struct {
	ID        string           `json:"id"`
	Resource  Document         `json:"resource"`
	Triples   []message.Triple `json:"triples,omitempty"`
	Published time.Time        `json:"published"`
}

func (e *ResourceEntity) EntityID() string     { return e.Entity }
func (e *ResourceEntity) Schema() message.Type { return ResourceType }

// Triples implements message.Graphable.
func (e *ResourceEntity) Triples() []message.Triple {
	return Triples(e.Entity, e.Document, e.Published)
}

// Validate checks that the entity names a resource of a known model.
func (e *ResourceEntity) Validate() error {
	var problems []error
	if parts := strings.Split(e.Entity, "."); len(parts) != 6 || slices.Contains(parts, "") {
		problems = append(problems, fmt.Errorf("entity id %q must have six non-empty parts", e.Entity))
	}
	if e.Document.URI == "" {
		problems = append(problems, errors.New("resource URI is required"))
	}
	if e.Document.ResourceType == "" {
		problems = append(problems, errors.New("resource type is required"))
	}
	if e.Document.IsDefinedBy == "" {
		problems = append(problems, errors.New("defining model is required"))
	}
	return errors.Join(problems...)
}

func (e *ResourceEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntity{
		ID:        e.Entity,
		Resource:  e.Document,
		Triples:   e.Triples(),
		Published: e.Published,
	})
}

func (e *ResourceEntity) UnmarshalJSON(data []byte) error {
	var w wireEntity
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = ResourceEntity{Entity: w.ID, Document: w.Resource, Published: w.Published}
	return nil
}

// ResourceRemoval announces that a resource left the model, either deleted
// or renamed away.
type ResourceRemoval struct {
	Entity    string    `json:"entity_id"`
	URI       string    `json:"uri"`
	Reason    string    `json:"reason"`
	RemovedAt time.Time `json:"removed_at"`
}
