package index

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// BucketIndex is the default bucket for search documents.
const BucketIndex = "DATAMODEL_INDEX"

// KVIndex stores one JSON document per resource in a JetStream KV bucket.
type KVIndex struct {
	kv jetstream.KeyValue
}

// NewKVIndex opens or creates bucket.
func NewKVIndex(ctx context.Context, js jetstream.JetStream, bucket string) (*KVIndex, error) {
	if bucket == "" {
		bucket = BucketIndex
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		// Bucket doesn't exist, create it
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "Data model resource search documents",
			History:     1,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
		}
	}
	return &KVIndex{kv: kv}, nil
}

// CreateResource implements Projector.
func (k *KVIndex) CreateResource(ctx context.Context, doc Document) error {
	return k.put(ctx, doc)
}

// UpdateResource implements Projector.
func (k *KVIndex) UpdateResource(ctx context.Context, doc Document) error {
	return k.put(ctx, doc)
}

// DeleteResource implements Projector.
func (k *KVIndex) DeleteResource(ctx context.Context, id string) error {
	if err := k.kv.Delete(ctx, documentKey(id)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Get returns the document stored under id.
func (k *KVIndex) Get(ctx context.Context, id string) (Document, bool, error) {
	entry, err := k.kv.Get(ctx, documentKey(id))
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("get document %s: %w", id, err)
	}
	var doc Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return Document{}, false, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return doc, true, nil
}

func (k *KVIndex) put(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	if _, err := k.kv.Put(ctx, documentKey(doc.ID), data); err != nil {
		return fmt.Errorf("put document %s: %w", doc.ID, err)
	}
	return nil
}

func documentKey(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}
