package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/deiu/rdf2go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
)

// Default bucket names.
const (
	BucketCore    = "DATAMODEL_GRAPHS"
	BucketImports = "DATAMODEL_IMPORTS"
)

const kvComponent = "storage.kv"

// KVRepository stores one N-Triples document per partition in a JetStream
// KV bucket. Queries load the partitions they touch and are evaluated in
// process.
//
// Without a Locator, queries that name no graphs load every partition. With
// one, subject patterns load only the subject's partition (plus its
// releases when the subject is the partition itself) and path queries load
// partitions as the walk reaches them.
type KVRepository struct {
	kv     jetstream.KeyValue
	locate Locator
}

// KVOption configures a KVRepository.
type KVOption func(*KVRepository)

// WithLocator scopes unscoped queries to the partitions located by l.
func WithLocator(l Locator) KVOption {
	return func(r *KVRepository) {
		r.locate = l
	}
}

// NewKVRepository opens or creates bucket.
func NewKVRepository(ctx context.Context, js jetstream.JetStream, bucket string, history uint8, opts ...KVOption) (*KVRepository, error) {
	kv, err := getOrCreateBucket(ctx, js, bucket, history)
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	r := &KVRepository{kv: kv}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string, history uint8) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if history == 0 {
		history = 5
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Data model %s graph partitions", strings.ToLower(name)),
		History:     history,
	})
}

// partitionKey maps a graph URI onto the KV key alphabet.
func partitionKey(graphURI string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(graphURI))
}

func partitionURI(key string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decode partition key %q: %w", key, err)
	}
	return string(b), nil
}

// Fetch implements Repository.
func (r *KVRepository) Fetch(ctx context.Context, graphURI string) (*Partition, error) {
	entry, err := r.kv.Get(ctx, partitionKey(graphURI))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errs.Repository(kvComponent, "fetch", fmt.Errorf("get %s: %w", graphURI, err))
	}
	g, err := graph.DecodeNTriples(graphURI, entry.Value())
	if err != nil {
		return nil, errs.RepositoryFatal(kvComponent, "fetch", fmt.Errorf("decode %s: %w", graphURI, err))
	}
	return &Partition{URI: graphURI, Graph: g, Revision: entry.Revision()}, nil
}

// Put implements Repository.
func (r *KVRepository) Put(ctx context.Context, graphURI string, g *rdf2go.Graph) error {
	data, err := graph.EncodeNTriples(g)
	if err != nil {
		return errs.RepositoryFatal(kvComponent, "put", fmt.Errorf("encode %s: %w", graphURI, err))
	}
	if _, err := r.kv.Put(ctx, partitionKey(graphURI), data); err != nil {
		return errs.Repository(kvComponent, "put", fmt.Errorf("put %s: %w", graphURI, err))
	}
	return nil
}

// PutIfUnchanged implements Repository.
func (r *KVRepository) PutIfUnchanged(ctx context.Context, graphURI string, g *rdf2go.Graph, revision uint64) error {
	data, err := graph.EncodeNTriples(g)
	if err != nil {
		return errs.RepositoryFatal(kvComponent, "put", fmt.Errorf("encode %s: %w", graphURI, err))
	}
	key := partitionKey(graphURI)
	if revision == 0 {
		_, err = r.kv.Create(ctx, key, data)
	} else {
		_, err = r.kv.Update(ctx, key, data, revision)
	}
	if err != nil {
		if isConflict(err) {
			return fmt.Errorf("put %s: %w", graphURI, errs.ErrConflict)
		}
		return errs.Repository(kvComponent, "put", fmt.Errorf("update %s: %w", graphURI, err))
	}
	return nil
}

// Delete implements Repository.
func (r *KVRepository) Delete(ctx context.Context, graphURI string) error {
	if err := r.kv.Delete(ctx, partitionKey(graphURI)); err != nil && !isNotFound(err) {
		return errs.Repository(kvComponent, "delete", fmt.Errorf("delete %s: %w", graphURI, err))
	}
	return nil
}

// Exists implements Repository.
func (r *KVRepository) Exists(ctx context.Context, graphURI string) (bool, error) {
	_, err := r.kv.Get(ctx, partitionKey(graphURI))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errs.Repository(kvComponent, "exists", fmt.Errorf("get %s: %w", graphURI, err))
	}
	return true, nil
}

// ResourceExists implements Repository.
func (r *KVRepository) ResourceExists(ctx context.Context, graphURI, resourceURI string, includeVersions bool) (bool, error) {
	names := []string{graphURI}
	if includeVersions {
		all, err := r.Graphs(ctx)
		if err != nil {
			return false, err
		}
		for _, name := range all {
			if isReleaseOf(name, graphURI) {
				names = append(names, name)
			}
		}
	}
	d, err := r.load(ctx, names)
	if err != nil {
		return false, err
	}
	return d.resourceExists(graphURI, resourceURI, includeVersions), nil
}

// Ask implements Repository.
func (r *KVRepository) Ask(ctx context.Context, q AskQuery) (bool, error) {
	if r.locate != nil && len(askGraphs(q)) == 0 {
		switch pq := q.(type) {
		case PathQuery:
			return walkPath(ctx, pq, r.locate, r.fetchGraph)
		case *PathQuery:
			return walkPath(ctx, *pq, r.locate, r.fetchGraph)
		}
	}
	names := askGraphs(q)
	if len(names) == 0 {
		names = nil
	}
	d, err := r.load(ctx, names)
	if err != nil {
		return false, err
	}
	return d.ask(q)
}

// Construct implements Repository.
func (r *KVRepository) Construct(ctx context.Context, p Pattern) (*rdf2go.Graph, error) {
	names, err := r.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	d, err := r.load(ctx, names)
	if err != nil {
		return nil, err
	}
	return d.construct(p), nil
}

// Select implements Repository.
func (r *KVRepository) Select(ctx context.Context, p Pattern) ([]Row, error) {
	names, err := r.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	d, err := r.load(ctx, names)
	if err != nil {
		return nil, err
	}
	return d.selectRows(p), nil
}

// Graphs lists the stored partition names.
func (r *KVRepository) Graphs(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, errs.Repository(kvComponent, "list", fmt.Errorf("list partition keys: %w", err))
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name, err := partitionURI(key)
		if err != nil {
			continue // Skip keys not written by this repository
		}
		names = append(names, name)
	}
	return names, nil
}

// scope returns the partitions a pattern can match. nil means all of them;
// an empty non-nil slice means none.
func (r *KVRepository) scope(ctx context.Context, p Pattern) ([]string, error) {
	if len(p.Graphs) > 0 {
		return p.Graphs, nil
	}
	if r.locate == nil {
		return nil, nil
	}
	s, ok := p.Subject.(*rdf2go.Resource)
	if !ok {
		return nil, nil
	}
	name, ok := r.locate(s.URI)
	if !ok {
		return []string{}, nil
	}
	names := []string{name}
	if s.URI != name {
		return names, nil
	}
	all, err := r.Graphs(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range all {
		if isReleaseOf(n, name) {
			names = append(names, n)
		}
	}
	return names, nil
}

func (r *KVRepository) fetchGraph(ctx context.Context, name string) (*rdf2go.Graph, error) {
	p, err := r.Fetch(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Graph, nil
}

// load reads the named partitions, or all of them when names is nil.
// Missing partitions are skipped.
func (r *KVRepository) load(ctx context.Context, names []string) (dataset, error) {
	if names == nil {
		all, err := r.Graphs(ctx)
		if err != nil {
			return nil, err
		}
		names = all
	}
	d := dataset{}
	for _, name := range names {
		p, err := r.Fetch(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		d[name] = p.Graph
	}
	return d, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}

// isConflict reports a failed Create or revision-checked Update.
func isConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "wrong last sequence") || strings.Contains(msg, "10071")
}
