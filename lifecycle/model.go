package lifecycle

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/export"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// CreateModel creates the draft graph of a new model and returns its URI.
func (s *Service) CreateModel(ctx context.Context, dto mapper.ModelDTO) (modelURI string, err error) {
	defer func(start time.Time) { s.metrics.observe("create_model", start, err) }(time.Now())

	if err := mapper.Validate(dto); err != nil {
		return "", err
	}
	u, err := s.uris.Resolve(dto.Prefix, "", "")
	if err != nil {
		return "", err
	}
	if !s.auth.HasRightToAnyOrganization(ctx, dto.Organizations) {
		return "", errs.Unauthorized(u.ModelURI)
	}
	exists, err := s.repo.Exists(ctx, u.GraphURI)
	if err != nil {
		return "", fmt.Errorf("check model %s: %w", dto.Prefix, err)
	}
	if exists {
		return "", errs.Mapping(errs.KeyAlreadyExists, u.ModelURI)
	}

	s.resolveExternal(ctx, dto.Terminologies, dto.CodeLists)

	g := mapper.NewModelGraph(u.ModelURI, u.ModelURI+s.uris.Separator(), dto, s.stamp(ctx))
	if err := s.write(ctx, u.GraphURI, g, 0); err != nil {
		return "", err
	}
	s.logger.Info("Model created", "prefix", dto.Prefix, "type", dto.Type)
	return u.ModelURI, nil
}

// UpdateModel rewrites the editable fields of a model. The model type is
// fixed at creation.
func (s *Service) UpdateModel(ctx context.Context, prefix string, dto mapper.ModelDTO) (err error) {
	defer func(start time.Time) { s.metrics.observe("update_model", start, err) }(time.Now())

	dto.Prefix = prefix
	if err := mapper.Validate(dto); err != nil {
		return err
	}
	st, err := s.load(ctx, prefix)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, st); err != nil {
		return err
	}
	if !s.auth.HasRightToAnyOrganization(ctx, dto.Organizations) {
		return errs.Unauthorized(st.uris.ModelURI)
	}
	if dto.Type != st.info.Type {
		return errs.Mappingf(errs.KeyInvalidKind, st.uris.ModelURI, "model type cannot change from %s to %s", st.info.Type, dto.Type)
	}

	s.resolveExternal(ctx, dto.Terminologies, dto.CodeLists)

	mapper.UpdateModel(st.graph, st.uris.ModelURI, dto, s.stamp(ctx))
	return s.save(ctx, st, st.graph)
}

// DeleteModel drops the draft and positions partitions of a model and
// removes its resources from the index. Released versions are kept.
func (s *Service) DeleteModel(ctx context.Context, prefix string) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete_model", start, err) }(time.Now())

	st, err := s.load(ctx, prefix)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, st); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, st.uris.GraphURI); err != nil {
		return fmt.Errorf("delete model %s: %w", prefix, err)
	}
	if err := s.repo.Delete(ctx, st.uris.PositionsGraphURI()); err != nil {
		return fmt.Errorf("delete positions of %s: %w", prefix, err)
	}
	s.unproject(ctx, "delete_model", st.info.Resources...)
	s.logger.Info("Model deleted", "prefix", prefix, "resources", len(st.info.Resources))
	return nil
}

// CreateRelease copies the draft into the partition of version, pins every
// resource URI to the version and indexes the released resources. It
// returns the version URI.
func (s *Service) CreateRelease(ctx context.Context, prefix, version string, status mapper.Status) (versionURI string, err error) {
	defer func(start time.Time) { s.metrics.observe("create_release", start, err) }(time.Now())

	st, err := s.load(ctx, prefix)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, st); err != nil {
		return "", err
	}
	rel, err := s.uris.Resolve(prefix, version, "")
	if err != nil {
		return "", err
	}
	exists, err := s.repo.Exists(ctx, rel.GraphURI)
	if err != nil {
		return "", fmt.Errorf("check release %s: %w", rel.VersionURI, err)
	}
	if exists {
		return "", errs.Mapping(errs.KeyAlreadyExists, rel.VersionURI)
	}
	prior, err := s.priorVersion(ctx, st.uris, version)
	if err != nil {
		return "", err
	}

	g := mapper.ReleaseGraph(st.graph, st.uris.ModelURI, rel.VersionURI, s.uris.Separator(), version, prior, status, s.stamp(ctx))
	if err := s.write(ctx, rel.GraphURI, g, 0); err != nil {
		return "", err
	}

	info, err := mapper.ParseModel(g, st.uris.ModelURI)
	if err != nil {
		return "", err
	}
	relState := &modelState{uris: rel, info: info, graph: g}
	s.project(ctx, "create_release", relState, g, true, info.Resources...)
	s.logger.Info("Model released", "prefix", prefix, "version", version, "prior", prior)
	return rel.VersionURI, nil
}

// priorVersion returns the URI of the highest stored release below version.
func (s *Service) priorVersion(ctx context.Context, model uri.URIs, version string) (string, error) {
	rows, err := s.repo.Select(ctx, storage.Pattern{
		Subject:   graph.IRI(model.ModelURI),
		Predicate: graph.IRI(datamodel.VersionInfo),
	})
	if err != nil {
		return "", fmt.Errorf("list releases: %w", err)
	}
	best := ""
	for _, row := range rows {
		lit, ok := row["o"].(*rdf2go.Literal)
		if !ok || uri.CompareVersions(lit.Value, version) >= 0 {
			continue
		}
		if best == "" || uri.CompareVersions(lit.Value, best) > 0 {
			best = lit.Value
		}
	}
	if best == "" {
		return "", nil
	}
	u, err := s.uris.Resolve(model.Prefix, best, "")
	if err != nil {
		return "", err
	}
	return u.VersionURI, nil
}

// GetModel returns the draft model, or the release when version is set.
func (s *Service) GetModel(ctx context.Context, prefix, version string) (mapper.ModelInfo, error) {
	u, err := s.uris.Resolve(prefix, version, "")
	if err != nil {
		return mapper.ModelInfo{}, err
	}
	st, err := s.loadGraph(ctx, u)
	if err != nil {
		return mapper.ModelInfo{}, err
	}
	return st.info, nil
}

// ExportModel writes the draft model, or the release when version is set,
// to w. Callers without rights to the model always get the public profile.
// A non-empty identifier limits the export to that resource.
func (s *Service) ExportModel(ctx context.Context, prefix, version, identifier string, w io.Writer, opts export.Options) (err error) {
	defer func(start time.Time) { s.metrics.observe("export_model", start, err) }(time.Now())

	u, err := s.uris.Resolve(prefix, version, identifier)
	if err != nil {
		return err
	}
	st, err := s.loadGraph(ctx, u)
	if err != nil {
		return err
	}
	if opts.Profile != export.ProfilePublic && !s.auth.HasRightToModel(ctx, prefix, st.graph) {
		opts.Profile = export.ProfilePublic
	}
	if identifier != "" {
		opts.Resource = u.ResourceURI
		if u.IsVersioned() {
			opts.Resource = u.ResourceVersionURI
		}
		if _, ok := mapper.KindOf(st.graph, graph.IRI(opts.Resource)); !ok {
			return errs.NotFound(opts.Resource)
		}
	}
	return export.Write(w, st.graph, opts)
}
