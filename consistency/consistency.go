// Package consistency guards the structural invariants of model graphs
// before they are written: acyclic structural links, no deletion of
// referenced resources, and no links to undescribed property shapes.
package consistency

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// Link is a candidate structural edge Resource --Predicate--> Target.
type Link struct {
	Resource  string
	Predicate string
	Target    string
}

// Validator runs the checks against the stored state of the repository.
type Validator struct {
	repo     storage.Repository
	resolver *uri.Resolver
	logger   *slog.Logger
}

// New creates a validator. A nil logger uses slog.Default().
func New(repo storage.Repository, resolver *uri.Resolver, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{repo: repo, resolver: resolver, logger: logger}
}

// Diff returns the links of predicate that after adds to before.
func Diff(resource, predicate string, before, after []string) []Link {
	old := make(map[string]bool, len(before))
	for _, b := range before {
		old[b] = true
	}
	var links []Link
	for _, a := range after {
		if !old[a] {
			links = append(links, Link{Resource: resource, Predicate: predicate, Target: a})
		}
	}
	return links
}

// CheckCycles rejects any link whose target already reaches its resource
// over the link's own predicate. Each link is one reflexive-transitive
// path query over a single predicate.
func (v *Validator) CheckCycles(ctx context.Context, links []Link) error {
	for _, l := range links {
		cyclic, err := v.repo.Ask(ctx, storage.PathQuery{
			From:      l.Target,
			Predicate: l.Predicate,
			To:        l.Resource,
		})
		if err != nil {
			return fmt.Errorf("check %s cycle: %w", l.Predicate, err)
		}
		if cyclic {
			v.logger.Debug("Rejected cyclic link",
				"resource", l.Resource, "predicate", l.Predicate, "target", l.Target)
			return errs.Mappingf(errs.KeyCyclicalReference, l.Resource, "%s %s", l.Predicate, l.Target)
		}
	}
	return nil
}

// CheckDeletable fails with referenced-by-others when any other subject in
// graphURI references resourceURI through a non-containment predicate.
func (v *Validator) CheckDeletable(ctx context.Context, graphURI, resourceURI string) error {
	referenced, err := v.repo.Ask(ctx, storage.ReferenceQuery{
		Graphs:   []string{graphURI},
		Resource: resourceURI,
		Exclude:  datamodel.ContainmentPredicates,
	})
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}
	if referenced {
		return errs.Mapping(errs.KeyReferencedByOthers, resourceURI)
	}
	return nil
}

// CheckPropertyReferences fails with dangling-reference when a property
// shape in the namespace is neither described in g nor stored in its
// model. Property shapes of other namespaces are accepted as is.
func (v *Validator) CheckPropertyReferences(ctx context.Context, g *rdf2go.Graph, properties []string) error {
	for _, p := range properties {
		if graph.HasType(g, graph.IRI(p), datamodel.PropertyShape) {
			continue
		}
		u, ok := v.resolver.Parse(p)
		if !ok || u.Identifier == "" {
			continue
		}
		exists, err := v.repo.ResourceExists(ctx, u.GraphURI, p, false)
		if err != nil {
			return fmt.Errorf("check property reference: %w", err)
		}
		if !exists {
			return errs.Mapping(errs.KeyDanglingReference, p)
		}
	}
	return nil
}
