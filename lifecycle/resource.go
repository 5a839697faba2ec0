package lifecycle

import (
	"context"
	"time"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/consistency"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/inheritance"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// resourceWrite describes one create or update of a resource.
type resourceWrite struct {
	op     string
	prefix string
	kind   mapper.Kind
	base   mapper.BaseDTO
	dto    any
	create bool
	// codeLists are resolved best-effort before the write.
	codeLists []string
	// apply validates and maps the DTO into the loaded graph. before is the
	// parsed resource on update and the zero value on create. It returns
	// further resources it created in the graph.
	apply func(ctx context.Context, st *modelState, resourceURI string, before mapper.ResourceInfo, stamp mapper.Stamp) ([]string, error)
}

func (s *Service) writeResource(ctx context.Context, w resourceWrite) (resourceURI string, err error) {
	defer func(start time.Time) { s.metrics.observe(w.op, start, err) }(time.Now())

	if w.create {
		err = mapper.ValidateCreate(w.dto, w.base.Label)
	} else {
		err = mapper.Validate(w.dto)
	}
	if err != nil {
		return "", err
	}

	st, err := s.load(ctx, w.prefix)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, st); err != nil {
		return "", err
	}
	if err := mapper.CheckKind(st.info.Type, w.kind); err != nil {
		return "", err
	}
	u, err := s.uris.Resolve(w.prefix, "", w.base.Identifier)
	if err != nil {
		return "", err
	}

	var before mapper.ResourceInfo
	if w.create {
		taken, err := s.identifierTaken(ctx, st, u.ResourceURI)
		if err != nil {
			return "", err
		}
		if taken {
			return "", errs.Mapping(errs.KeyAlreadyExists, u.ResourceURI)
		}
	} else {
		before, err = mapper.ParseResource(st.graph, u.ResourceURI)
		if err != nil {
			return "", err
		}
		if before.Kind != w.kind {
			return "", errs.Mappingf(errs.KeyInvalidKind, u.ResourceURI, "resource is %s, not %s", before.Kind, w.kind)
		}
	}

	s.resolveExternal(ctx, nonEmpty(w.base.Subject), w.codeLists)

	stamp := s.stamp(ctx)
	extra, err := w.apply(ctx, st, u.ResourceURI, before, stamp)
	if err != nil {
		return "", err
	}
	if err := s.save(ctx, st, st.graph); err != nil {
		return "", err
	}

	s.project(ctx, w.op, st, st.graph, w.create, u.ResourceURI)
	s.project(ctx, w.op, st, st.graph, true, extra...)
	s.logger.Debug("Resource written", "operation", w.op, "resource", u.ResourceURI, "placeholders", len(extra))
	return u.ResourceURI, nil
}

// CreateClass adds an owl:Class to a library.
func (s *Service) CreateClass(ctx context.Context, prefix string, dto mapper.ClassDTO) (string, error) {
	return s.writeResource(ctx, s.classWrite("create_class", prefix, dto, true))
}

// UpdateClass replaces the editable fields of a class.
func (s *Service) UpdateClass(ctx context.Context, prefix string, dto mapper.ClassDTO) error {
	_, err := s.writeResource(ctx, s.classWrite("update_class", prefix, dto, false))
	return err
}

func (s *Service) classWrite(op, prefix string, dto mapper.ClassDTO, create bool) resourceWrite {
	return resourceWrite{
		op: op, prefix: prefix, kind: mapper.KindClass, base: dto.BaseDTO, dto: dto, create: create,
		apply: func(ctx context.Context, st *modelState, r string, before mapper.ResourceInfo, stamp mapper.Stamp) ([]string, error) {
			var links []consistency.Link
			links = append(links, consistency.Diff(r, datamodel.SubClassOf, before.SubClassOf, dto.SubClassOf)...)
			links = append(links, consistency.Diff(r, datamodel.EquivalentClass, before.EquivalentClass, dto.EquivalentClass)...)
			links = append(links, consistency.Diff(r, datamodel.DisjointWith, before.DisjointWith, dto.DisjointWith)...)
			if err := s.validator.CheckCycles(ctx, links); err != nil {
				return nil, err
			}
			mapper.MapClass(st.graph, st.uris.ModelURI, r, dto, stamp, create)
			return nil, nil
		},
	}
}

// CreateNodeShape adds an sh:NodeShape to a profile. Properties inherited
// through sh:node and placeholders induced from sh:targetClass are added
// to the direct properties of the DTO.
func (s *Service) CreateNodeShape(ctx context.Context, prefix string, dto mapper.NodeShapeDTO) (string, error) {
	return s.writeResource(ctx, s.nodeShapeWrite("create_node_shape", prefix, dto, true))
}

// UpdateNodeShape replaces the editable fields of a node shape. A changed
// sh:node target swaps the inherited properties; direct properties stay.
func (s *Service) UpdateNodeShape(ctx context.Context, prefix string, dto mapper.NodeShapeDTO) error {
	_, err := s.writeResource(ctx, s.nodeShapeWrite("update_node_shape", prefix, dto, false))
	return err
}

func (s *Service) nodeShapeWrite(op, prefix string, dto mapper.NodeShapeDTO, create bool) resourceWrite {
	return resourceWrite{
		op: op, prefix: prefix, kind: mapper.KindNodeShape, base: dto.BaseDTO, dto: dto, create: create,
		apply: func(ctx context.Context, st *modelState, r string, before mapper.ResourceInfo, stamp mapper.Stamp) ([]string, error) {
			var links []consistency.Link
			links = append(links, consistency.Diff(r, datamodel.TargetClass, nonEmpty(before.TargetClass), nonEmpty(dto.TargetClass))...)
			links = append(links, consistency.Diff(r, datamodel.Node, nonEmpty(before.TargetNode), nonEmpty(dto.TargetNode))...)
			if err := s.validator.CheckCycles(ctx, links); err != nil {
				return nil, err
			}
			if create {
				if err := s.validator.CheckPropertyReferences(ctx, st.graph, dto.Properties); err != nil {
					return nil, err
				}
			}
			mapper.MapNodeShape(st.graph, st.uris.ModelURI, r, dto, stamp, create)
			res, err := s.inheritance.Apply(ctx, st.graph, st.uris.ModelURI, inheritance.Change{
				Shape:          r,
				OldNode:        before.TargetNode,
				NewNode:        dto.TargetNode,
				OldTargetClass: before.TargetClass,
				NewTargetClass: dto.TargetClass,
			}, stamp)
			if err != nil {
				return nil, err
			}
			return res.Placeholders, nil
		},
	}
}

// CreateAttribute adds an owl:DatatypeProperty to a library.
func (s *Service) CreateAttribute(ctx context.Context, prefix string, dto mapper.ResourceDTO) (string, error) {
	return s.writeResource(ctx, s.propertyWrite("create_attribute", prefix, mapper.KindAttribute, dto, true))
}

// UpdateAttribute replaces the editable fields of an attribute.
func (s *Service) UpdateAttribute(ctx context.Context, prefix string, dto mapper.ResourceDTO) error {
	_, err := s.writeResource(ctx, s.propertyWrite("update_attribute", prefix, mapper.KindAttribute, dto, false))
	return err
}

// CreateAssociation adds an owl:ObjectProperty to a library.
func (s *Service) CreateAssociation(ctx context.Context, prefix string, dto mapper.ResourceDTO) (string, error) {
	return s.writeResource(ctx, s.propertyWrite("create_association", prefix, mapper.KindAssociation, dto, true))
}

// UpdateAssociation replaces the editable fields of an association.
func (s *Service) UpdateAssociation(ctx context.Context, prefix string, dto mapper.ResourceDTO) error {
	_, err := s.writeResource(ctx, s.propertyWrite("update_association", prefix, mapper.KindAssociation, dto, false))
	return err
}

func (s *Service) propertyWrite(op, prefix string, kind mapper.Kind, dto mapper.ResourceDTO, create bool) resourceWrite {
	return resourceWrite{
		op: op, prefix: prefix, kind: kind, base: dto.BaseDTO, dto: dto, create: create,
		apply: func(ctx context.Context, st *modelState, r string, before mapper.ResourceInfo, stamp mapper.Stamp) ([]string, error) {
			var links []consistency.Link
			links = append(links, consistency.Diff(r, datamodel.SubProperty, before.SubResourceOf, dto.SubResourceOf)...)
			links = append(links, consistency.Diff(r, datamodel.EquivalentProperty, before.EquivalentResource, dto.EquivalentResource)...)
			if err := s.validator.CheckCycles(ctx, links); err != nil {
				return nil, err
			}
			mapper.MapResource(st.graph, st.uris.ModelURI, r, kind, dto, stamp, create)
			return nil, nil
		},
	}
}

// CreatePropertyShape adds an sh:PropertyShape to a profile.
func (s *Service) CreatePropertyShape(ctx context.Context, prefix string, dto mapper.PropertyShapeDTO) (string, error) {
	return s.writeResource(ctx, s.propertyShapeWrite("create_property_shape", prefix, dto, true))
}

// UpdatePropertyShape replaces the editable fields of a property shape.
func (s *Service) UpdatePropertyShape(ctx context.Context, prefix string, dto mapper.PropertyShapeDTO) error {
	_, err := s.writeResource(ctx, s.propertyShapeWrite("update_property_shape", prefix, dto, false))
	return err
}

func (s *Service) propertyShapeWrite(op, prefix string, dto mapper.PropertyShapeDTO, create bool) resourceWrite {
	return resourceWrite{
		op: op, prefix: prefix, kind: mapper.KindPropertyShape, base: dto.BaseDTO, dto: dto, create: create,
		codeLists: dto.CodeLists,
		apply: func(_ context.Context, st *modelState, r string, _ mapper.ResourceInfo, stamp mapper.Stamp) ([]string, error) {
			mapper.MapPropertyShape(st.graph, st.uris.ModelURI, r, dto, stamp, create)
			return nil, nil
		},
	}
}

// DeleteResource removes a resource that nothing else in its model
// references.
func (s *Service) DeleteResource(ctx context.Context, prefix, identifier string) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete_resource", start, err) }(time.Now())

	st, err := s.load(ctx, prefix)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, st); err != nil {
		return err
	}
	u, err := s.uris.Resolve(prefix, "", identifier)
	if err != nil {
		return err
	}
	if !graph.Has(st.graph, graph.IRI(u.ResourceURI), graph.IRI(datamodel.Type), nil) {
		return errs.NotFound(u.ResourceURI)
	}
	if err := s.validator.CheckDeletable(ctx, st.uris.GraphURI, u.ResourceURI); err != nil {
		return err
	}

	mapper.DeleteResource(st.graph, st.uris.ModelURI, u.ResourceURI)
	mapper.Touch(st.graph, st.uris.ModelURI, "", s.stamp(ctx))
	if err := s.save(ctx, st, st.graph); err != nil {
		return err
	}
	s.unproject(ctx, "delete_resource", u.ResourceURI)
	return nil
}

// GetResource returns a draft resource, or its released form when version
// is set.
func (s *Service) GetResource(ctx context.Context, prefix, version, identifier string) (mapper.ResourceInfo, error) {
	u, err := s.uris.Resolve(prefix, version, identifier)
	if err != nil {
		return mapper.ResourceInfo{}, err
	}
	st, err := s.loadGraph(ctx, u)
	if err != nil {
		return mapper.ResourceInfo{}, err
	}
	resourceURI := u.ResourceURI
	if u.IsVersioned() {
		resourceURI = u.ResourceVersionURI
	}
	return mapper.ParseResource(st.graph, resourceURI)
}

// EffectiveProperties returns the direct and inherited properties of a
// node shape without writing anything.
func (s *Service) EffectiveProperties(ctx context.Context, prefix, identifier string) ([]string, error) {
	st, err := s.load(ctx, prefix)
	if err != nil {
		return nil, err
	}
	u, err := s.uris.Resolve(prefix, "", identifier)
	if err != nil {
		return nil, err
	}
	if kind, ok := mapper.KindOf(st.graph, graph.IRI(u.ResourceURI)); !ok || kind != mapper.KindNodeShape {
		return nil, errs.NotFound(u.ResourceURI)
	}
	return s.inheritance.Effective(ctx, st.graph, u.ResourceURI)
}
