package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// loadResource loads and authorizes the model of prefix and checks that
// identifier names a resource of kind.
func (s *Service) loadResource(ctx context.Context, prefix, identifier string, kind mapper.Kind) (*modelState, string, error) {
	st, err := s.load(ctx, prefix)
	if err != nil {
		return nil, "", err
	}
	if err := s.authorize(ctx, st); err != nil {
		return nil, "", err
	}
	u, err := s.uris.Resolve(prefix, "", identifier)
	if err != nil {
		return nil, "", err
	}
	got, ok := mapper.KindOf(st.graph, graph.IRI(u.ResourceURI))
	if !ok {
		return nil, "", errs.NotFound(u.ResourceURI)
	}
	if got != kind {
		return nil, "", errs.Mappingf(errs.KeyInvalidKind, u.ResourceURI, "resource is %s, not %s", got, kind)
	}
	return st, u.ResourceURI, nil
}

// commit stamps resourceURI, writes the model and reprojects the resource.
func (s *Service) commit(ctx context.Context, op string, st *modelState, resourceURI string) error {
	mapper.Touch(st.graph, st.uris.ModelURI, resourceURI, s.stamp(ctx))
	if err := s.save(ctx, st, st.graph); err != nil {
		return err
	}
	s.project(ctx, op, st, st.graph, false, resourceURI)
	return nil
}

// RenameResource moves a resource to newID. Every reference inside the
// model follows, and so does the resource's node in the positions graph.
// Either both graphs are renamed or neither is.
func (s *Service) RenameResource(ctx context.Context, prefix, oldID, newID string) (newURI string, err error) {
	defer func(start time.Time) { s.metrics.observe("rename_resource", start, err) }(time.Now())

	if err := uri.ValidateIdentifier(newID); err != nil {
		return "", errs.Mappingf(errs.KeyInvalidIdentifier, newID, "identifier must be an NCName and not reserved")
	}
	st, err := s.load(ctx, prefix)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, st); err != nil {
		return "", err
	}
	oldU, err := s.uris.Resolve(prefix, "", oldID)
	if err != nil {
		return "", err
	}
	newU, err := s.uris.Resolve(prefix, "", newID)
	if err != nil {
		return "", err
	}
	if !graph.Has(st.graph, graph.IRI(oldU.ResourceURI), graph.IRI(datamodel.Type), nil) {
		return "", errs.NotFound(oldU.ResourceURI)
	}
	taken, err := s.identifierTaken(ctx, st, newU.ResourceURI)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errs.Mapping(errs.KeyAlreadyExists, newU.ResourceURI)
	}

	positionsURI := st.uris.PositionsGraphURI()
	positions, err := s.repo.Fetch(ctx, positionsURI)
	if errors.Is(err, storage.ErrNotFound) {
		positions = nil
	} else if err != nil {
		return "", fmt.Errorf("fetch positions of %s: %w", prefix, err)
	}

	renamed := mapper.RenameResource(st.graph, oldU.ResourceURI, newU.ResourceURI, newID)
	mapper.Touch(renamed, st.uris.ModelURI, newU.ResourceURI, s.stamp(ctx))
	if err := s.save(ctx, st, renamed); err != nil {
		return "", err
	}

	if positions != nil && graph.Has(positions.Graph, graph.IRI(oldU.ResourceURI), nil, nil) {
		moved := mapper.RenameResource(positions.Graph, oldU.ResourceURI, newU.ResourceURI, newID)
		if err := s.write(ctx, positionsURI, moved, positions.Revision); err != nil {
			if restoreErr := s.repo.Put(ctx, st.uris.GraphURI, st.graph); restoreErr != nil {
				s.logger.Error("Failed to restore model after position rename failed",
					"prefix", prefix, "resource", oldU.ResourceURI, "error", restoreErr)
			}
			return "", fmt.Errorf("rename position: %w", err)
		}
	}

	s.unproject(ctx, "rename_resource", oldU.ResourceURI)
	s.project(ctx, "rename_resource", st, renamed, true, newU.ResourceURI)
	s.logger.Info("Resource renamed", "prefix", prefix, "from", oldID, "to", newID)
	return newU.ResourceURI, nil
}

// AddPropertyReferences links existing property shapes to a node shape as
// direct properties.
func (s *Service) AddPropertyReferences(ctx context.Context, prefix, shapeID string, properties []string) (err error) {
	defer func(start time.Time) { s.metrics.observe("add_property_references", start, err) }(time.Now())

	st, shapeURI, err := s.loadResource(ctx, prefix, shapeID, mapper.KindNodeShape)
	if err != nil {
		return err
	}
	if err := s.validator.CheckPropertyReferences(ctx, st.graph, properties); err != nil {
		return err
	}
	current := graph.ObjectIRIs(st.graph, graph.IRI(shapeURI), graph.IRI(datamodel.Property))
	mapper.SetProperties(st.graph, shapeURI, append(current, properties...))
	mapper.SetDirectProperties(st.graph, shapeURI, append(mapper.DirectProperties(st.graph, shapeURI), properties...))
	return s.commit(ctx, "add_property_references", st, shapeURI)
}

// RemovePropertyReference unlinks one property shape from a node shape.
func (s *Service) RemovePropertyReference(ctx context.Context, prefix, shapeID, property string) (err error) {
	defer func(start time.Time) { s.metrics.observe("remove_property_reference", start, err) }(time.Now())

	st, shapeURI, err := s.loadResource(ctx, prefix, shapeID, mapper.KindNodeShape)
	if err != nil {
		return err
	}
	if graph.RemoveAll(st.graph, graph.IRI(shapeURI), graph.IRI(datamodel.Property), graph.IRI(property)) == 0 {
		return errs.NotFound(property)
	}
	graph.RemoveAll(st.graph, graph.IRI(shapeURI), graph.IRI(datamodel.DirectProperty), graph.IRI(property))
	return s.commit(ctx, "remove_property_reference", st, shapeURI)
}

// AddClassRestriction adds an owl:Restriction on property to a class. The
// restriction's owl:someValuesFrom is the property's range when known.
func (s *Service) AddClassRestriction(ctx context.Context, prefix, classID, property string) (err error) {
	defer func(start time.Time) { s.metrics.observe("add_class_restriction", start, err) }(time.Now())

	st, classURI, err := s.loadResource(ctx, prefix, classID, mapper.KindClass)
	if err != nil {
		return err
	}
	rng, err := s.propertyRange(ctx, st, property)
	if err != nil {
		return err
	}
	if !mapper.AddRestriction(st.graph, classURI, property, rng) {
		return errs.Mapping(errs.KeyAlreadyExists, property)
	}
	return s.commit(ctx, "add_class_restriction", st, classURI)
}

// RemoveClassRestriction removes the restriction on property from a class.
func (s *Service) RemoveClassRestriction(ctx context.Context, prefix, classID, property string) (err error) {
	defer func(start time.Time) { s.metrics.observe("remove_class_restriction", start, err) }(time.Now())

	st, classURI, err := s.loadResource(ctx, prefix, classID, mapper.KindClass)
	if err != nil {
		return err
	}
	if !mapper.RemoveRestriction(st.graph, classURI, property) {
		return errs.NotFound(property)
	}
	return s.commit(ctx, "remove_class_restriction", st, classURI)
}

// propertyRange checks that property is an attribute or association and
// returns its rdfs:range. Properties outside every model namespace are
// accepted without a range.
func (s *Service) propertyRange(ctx context.Context, st *modelState, property string) (string, error) {
	p := graph.IRI(property)
	if kind, ok := mapper.KindOf(st.graph, p); ok {
		if kind != mapper.KindAttribute && kind != mapper.KindAssociation {
			return "", errs.Mappingf(errs.KeyInvalidKind, property, "restrictions need an attribute or association, not %s", kind)
		}
		return graph.ObjectIRI(st.graph, p, graph.IRI(datamodel.Range)), nil
	}

	desc, err := s.repo.Construct(ctx, storage.Pattern{Subject: p})
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", property, err)
	}
	if desc.Len() == 0 {
		if u, ok := s.uris.Parse(property); ok && u.Identifier != "" {
			return "", errs.Mapping(errs.KeyDanglingReference, property)
		}
		return "", nil
	}
	return graph.ObjectIRI(desc, p, graph.IRI(datamodel.Range)), nil
}

// CopyPropertyShape copies a property shape into another profile as a new
// draft. Only the target model is written. An empty newID keeps the
// identifier.
func (s *Service) CopyPropertyShape(ctx context.Context, sourcePrefix, identifier, targetPrefix, newID string) (newURI string, err error) {
	defer func(start time.Time) { s.metrics.observe("copy_property_shape", start, err) }(time.Now())

	src, err := s.load(ctx, sourcePrefix)
	if err != nil {
		return "", err
	}
	srcU, err := s.uris.Resolve(sourcePrefix, "", identifier)
	if err != nil {
		return "", err
	}
	info, err := mapper.ParseResource(src.graph, srcU.ResourceURI)
	if err != nil {
		return "", err
	}
	if info.Kind != mapper.KindPropertyShape {
		return "", errs.Mappingf(errs.KeyInvalidKind, srcU.ResourceURI, "only property shapes can be copied, not %s", info.Kind)
	}

	dst, err := s.load(ctx, targetPrefix)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, dst); err != nil {
		return "", err
	}
	if err := mapper.CheckKind(dst.info.Type, mapper.KindPropertyShape); err != nil {
		return "", err
	}
	if newID == "" {
		newID = identifier
	}
	dstU, err := s.uris.Resolve(targetPrefix, "", newID)
	if err != nil {
		return "", err
	}
	taken, err := s.identifierTaken(ctx, dst, dstU.ResourceURI)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errs.Mapping(errs.KeyAlreadyExists, dstU.ResourceURI)
	}

	dto := info.PropertyShapeDTO()
	dto.Identifier = newID
	dto.Status = mapper.StatusDraft
	mapper.MapPropertyShape(dst.graph, dst.uris.ModelURI, dstU.ResourceURI, dto, s.stamp(ctx), true)
	if err := s.save(ctx, dst, dst.graph); err != nil {
		return "", err
	}
	s.project(ctx, "copy_property_shape", dst, dst.graph, true, dstU.ResourceURI)
	return dstU.ResourceURI, nil
}

// SavePositions replaces the diagram positions of a model.
func (s *Service) SavePositions(ctx context.Context, prefix string, positions []mapper.Position) (err error) {
	defer func(start time.Time) { s.metrics.observe("save_positions", start, err) }(time.Now())

	resources := make(map[string]string, len(positions))
	for _, p := range positions {
		if err := mapper.Validate(p); err != nil {
			return err
		}
		u, err := s.uris.Resolve(prefix, "", p.Identifier)
		if err != nil {
			return err
		}
		resources[p.Identifier] = u.ResourceURI
	}
	st, err := s.load(ctx, prefix)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, st); err != nil {
		return err
	}

	g := graph.New(st.uris.PositionsGraphURI())
	mapper.SetPositions(g, func(id string) string { return resources[id] }, positions)
	if err := s.repo.Put(ctx, st.uris.PositionsGraphURI(), g); err != nil {
		return fmt.Errorf("write positions of %s: %w", prefix, err)
	}
	return nil
}

// GetPositions returns the diagram positions of a model.
func (s *Service) GetPositions(ctx context.Context, prefix string) ([]mapper.Position, error) {
	u, err := s.uris.Resolve(prefix, "", "")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Fetch(ctx, u.PositionsGraphURI())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch positions of %s: %w", prefix, err)
	}
	return mapper.ParsePositions(p.Graph), nil
}
