// Package lifecycle orchestrates changes to data models and their resources.
//
// Every mutating operation follows the same sequence: resolve URIs, load the
// model graph, authorize, validate against the loaded state, apply the
// mapper, write the whole partition, and finally project the change into
// the search index. Validation failures are reported before anything is
// written. A failed index projection is logged and counted but does not
// undo the graph write.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/auth"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/consistency"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/index"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/inheritance"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/terminology"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
)

// Service implements the model and resource operations.
type Service struct {
	repo        storage.Repository
	imports     storage.Repository
	uris        *uri.Resolver
	validator   *consistency.Validator
	inheritance *inheritance.Resolver
	index       index.Projector
	auth        auth.Authorizer
	terms       terminology.Resolver
	codes       terminology.Resolver
	metrics     *metrics
	logger      *slog.Logger
	now         func() time.Time
	cas         bool

	registerer prometheus.Registerer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for modification stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCompareAndSwap makes every write conditional on the revision read at
// the start of the operation. Without it the last write wins.
func WithCompareAndSwap(enabled bool) Option {
	return func(s *Service) { s.cas = enabled }
}

// WithMetrics registers the lifecycle collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = reg }
}

// WithImports adds the repository holding cached external descriptions.
// It is searched after the core repository for shapes and classes.
func WithImports(repo storage.Repository) Option {
	return func(s *Service) { s.imports = repo }
}

// WithTerminology sets the resolver for concept and terminology URIs.
func WithTerminology(r terminology.Resolver) Option {
	return func(s *Service) { s.terms = r }
}

// WithCodeLists sets the resolver for code list URIs.
func WithCodeLists(r terminology.Resolver) Option {
	return func(s *Service) { s.codes = r }
}

// New creates a service.
func New(repo storage.Repository, uris *uri.Resolver, projector index.Projector, authz auth.Authorizer, opts ...Option) (*Service, error) {
	s := &Service{
		repo:   repo,
		uris:   uris,
		index:  projector,
		auth:   authz,
		terms:  terminology.Nop{},
		codes:  terminology.Nop{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newMetrics(s.registerer)
	if err != nil {
		return nil, fmt.Errorf("register lifecycle metrics: %w", err)
	}
	s.metrics = m

	repos := []storage.Repository{repo}
	if s.imports != nil {
		repos = append(repos, s.imports)
	}
	s.validator = consistency.New(repo, uris, s.logger)
	s.inheritance = inheritance.New(uris, s.logger, repos...)
	return s, nil
}

// modelState is the model graph loaded at the start of an operation. The
// graph is owned by the operation.
type modelState struct {
	uris     uri.URIs
	info     mapper.ModelInfo
	graph    *rdf2go.Graph
	revision uint64
}

// load reads the draft graph of prefix.
func (s *Service) load(ctx context.Context, prefix string) (*modelState, error) {
	u, err := s.uris.Resolve(prefix, "", "")
	if err != nil {
		return nil, err
	}
	return s.loadGraph(ctx, u)
}

func (s *Service) loadGraph(ctx context.Context, u uri.URIs) (*modelState, error) {
	p, err := s.repo.Fetch(ctx, u.GraphURI)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errs.NotFound(u.GraphURI)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch model %s: %w", u.Prefix, err)
	}
	info, err := mapper.ParseModel(p.Graph, u.ModelURI)
	if err != nil {
		return nil, err
	}
	return &modelState{uris: u, info: info, graph: p.Graph, revision: p.Revision}, nil
}

// authorize fails with Unauthorized unless the caller may modify the model.
func (s *Service) authorize(ctx context.Context, st *modelState) error {
	if !s.auth.HasRightToModel(ctx, st.uris.Prefix, st.graph) {
		return errs.Unauthorized(st.uris.ModelURI)
	}
	return nil
}

// save replaces the model partition with g.
func (s *Service) save(ctx context.Context, st *modelState, g *rdf2go.Graph) error {
	return s.write(ctx, st.uris.GraphURI, g, st.revision)
}

func (s *Service) write(ctx context.Context, graphURI string, g *rdf2go.Graph, revision uint64) error {
	var err error
	if s.cas {
		err = s.repo.PutIfUnchanged(ctx, graphURI, g, revision)
	} else {
		err = s.repo.Put(ctx, graphURI, g)
	}
	if err != nil {
		return fmt.Errorf("write graph %s: %w", graphURI, err)
	}
	return nil
}

// stamp identifies the caller and the time of the change.
func (s *Service) stamp(ctx context.Context) mapper.Stamp {
	st := mapper.Stamp{Time: s.now().UTC()}
	if u, ok := auth.UserFromContext(ctx); ok {
		st.User = u.ID
	}
	return st
}

// identifierTaken reports whether resourceURI is described in the loaded
// graph or in any stored version of the model.
func (s *Service) identifierTaken(ctx context.Context, st *modelState, resourceURI string) (bool, error) {
	if graph.Has(st.graph, graph.IRI(resourceURI), nil, nil) {
		return true, nil
	}
	exists, err := s.repo.ResourceExists(ctx, st.uris.GraphURI, resourceURI, true)
	if err != nil {
		return false, fmt.Errorf("check identifier: %w", err)
	}
	return exists, nil
}

// project sends the current state of each resource to the index. Failures
// are logged and counted.
func (s *Service) project(ctx context.Context, op string, st *modelState, g *rdf2go.Graph, created bool, resources ...string) {
	for _, r := range resources {
		info, err := mapper.ParseResource(g, r)
		if err != nil {
			s.logger.Warn("Skipping index projection", "operation", op, "resource", r, "error", err)
			continue
		}
		doc := mapper.IndexDocument(info, st.info)
		if created {
			err = s.index.CreateResource(ctx, doc)
		} else {
			err = s.index.UpdateResource(ctx, doc)
		}
		if err != nil {
			s.indexFailed(op, r, err)
		}
	}
}

func (s *Service) unproject(ctx context.Context, op string, ids ...string) {
	for _, id := range ids {
		if err := s.index.DeleteResource(ctx, id); err != nil {
			s.indexFailed(op, id, err)
		}
	}
}

func (s *Service) indexFailed(op, id string, err error) {
	s.metrics.indexFailed(op)
	s.logger.Warn("Index projection failed", "operation", op, "resource", id, "error", err)
}

// resolveExternal resolves terminology and code list references. Failures
// are logged by the resolvers and never returned.
func (s *Service) resolveExternal(ctx context.Context, concepts, codeLists []string) {
	if len(concepts) > 0 {
		for _, u := range terminology.Unresolved(s.terms.Resolve(ctx, concepts)) {
			s.logger.Debug("Unresolved terminology reference", "uri", u)
		}
	}
	if len(codeLists) > 0 {
		for _, u := range terminology.Unresolved(s.codes.Resolve(ctx, codeLists)) {
			s.logger.Debug("Unresolved code list reference", "uri", u)
		}
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
