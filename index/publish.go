package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/semstreams/message"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Subjects for graph publication.
const (
	GraphIngestSubject = "graph.ingest.entity"
	GraphDeleteSubject = "graph.events.entity.delete"
)

const publishSource = "datamodel.lifecycle"

// Publisher publishes to a JetStream stream. *natsclient.Client satisfies
// it.
type Publisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// GraphPublisher projects resources into the knowledge graph as entities.
type GraphPublisher struct {
	pub  Publisher
	uris *uri.Resolver
	now  func() time.Time
}

// NewGraphPublisher creates a publisher. A nil pub makes every call a no-op.
func NewGraphPublisher(pub Publisher, uris *uri.Resolver) *GraphPublisher {
	return &GraphPublisher{pub: pub, uris: uris, now: time.Now}
}

// CreateResource implements Projector.
func (g *GraphPublisher) CreateResource(ctx context.Context, doc Document) error {
	return g.publish(ctx, doc)
}

// UpdateResource implements Projector.
func (g *GraphPublisher) UpdateResource(ctx context.Context, doc Document) error {
	return g.publish(ctx, doc)
}

// DeleteResource implements Projector.
func (g *GraphPublisher) DeleteResource(ctx context.Context, id string) error {
	if g.pub == nil {
		return nil
	}
	entityID, err := g.EntityID(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ResourceRemoval{Entity: entityID, URI: id, Reason: "resource deleted", RemovedAt: g.now()})
	if err != nil {
		return fmt.Errorf("marshal delete event: %w", err)
	}
	if err := g.pub.PublishToStream(ctx, GraphDeleteSubject, data); err != nil {
		return fmt.Errorf("publish delete event: %w", err)
	}
	return nil
}

// EntityID derives the six-part entity id of a resource URI:
// datamodel.yti.<prefix>.<version or draft>.resource.<identifier>.
func (g *GraphPublisher) EntityID(resourceURI string) (string, error) {
	u, ok := g.uris.Parse(resourceURI)
	if !ok || u.Identifier == "" {
		return "", fmt.Errorf("derive entity id: %s is not a resource URI", resourceURI)
	}
	version := "draft"
	if u.Version != "" {
		version = u.Version
	}
	return strings.Join([]string{"datamodel", "yti", segment(u.Prefix), segment(version), "resource", segment(u.Identifier)}, "."), nil
}

func (g *GraphPublisher) publish(ctx context.Context, doc Document) error {
	if g.pub == nil {
		return nil
	}
	entityID, err := g.EntityID(doc.ID)
	if err != nil {
		return err
	}
	entity := &ResourceEntity{Entity: entityID, Document: doc, Published: g.now()}
	if err := entity.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal resource entity: %w", err)
	}
	if err := g.pub.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish resource entity: %w", err)
	}
	return nil
}

// Triples converts a document into entity triples. Empty fields are
// omitted.
func Triples(entityID string, doc Document, now time.Time) []message.Triple {
	var triples []message.Triple
	add := func(predicate string, object any) {
		if s, ok := object.(string); ok && s == "" {
			return
		}
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  predicate,
			Object:     object,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	add(datamodel.ResourceURI, doc.URI)
	add(datamodel.ResourceIdentifier, doc.Identifier)
	add(datamodel.ResourceKind, doc.ResourceType)
	add(datamodel.ResourceStatus, doc.Status)
	add(datamodel.ResourceModel, doc.IsDefinedBy)
	add(datamodel.ResourceNamespace, doc.Namespace)
	add(datamodel.ResourceTargetClass, doc.TargetClass)
	add(datamodel.ResourceVersion, doc.FromVersion)
	add(datamodel.ResourceVersionIRI, doc.VersionIRI)

	langs := make([]string, 0, len(doc.Label))
	for lang := range doc.Label {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		add(datamodel.ResourceLabel, lang+":"+doc.Label[lang])
	}

	if !doc.Created.IsZero() {
		add(datamodel.ResourceCreated, doc.Created.Format(time.RFC3339))
	}
	if !doc.Modified.IsZero() {
		add(datamodel.ResourceModified, doc.Modified.Format(time.RFC3339))
	}
	return triples
}

// segment makes s safe as one dot-separated entity id part.
func segment(s string) string {
	return strings.ReplaceAll(s, ".", "-")
}
