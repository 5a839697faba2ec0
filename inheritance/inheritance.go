// Package inheritance computes the effective property shapes of SHACL node
// shapes.
//
// A node shape N exposes the union of
//
//  1. its direct sh:property links,
//  2. the sh:property links inherited along its sh:node chain, and
//  3. placeholder property shapes induced from the OWL restrictions of its
//     sh:targetClass.
//
// Inherited properties whose sh:path is already covered by a direct
// property are dropped, so a shape never exposes two properties for one
// path from conflicting sources.
package inheritance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// maxPlaceholderProbes bounds the identifier suffix search.
const maxPlaceholderProbes = 1000

// Resolver reads node shapes from the request graph first and falls back to
// the repositories for shapes and classes of other models.
type Resolver struct {
	repos  []storage.Repository
	uris   *uri.Resolver
	logger *slog.Logger
}

// New creates a resolver. repos are searched in order, typically the core
// store followed by the imports store.
func New(uris *uri.Resolver, logger *slog.Logger, repos ...storage.Repository) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repos: repos, uris: uris, logger: logger}
}

// Change describes a write to a node shape.
type Change struct {
	Shape          string
	OldNode        string
	NewNode        string
	OldTargetClass string
	NewTargetClass string
}

// Result is the outcome of Apply.
type Result struct {
	// Properties is the new sh:property set of the shape.
	Properties []string
	// Placeholders lists the property shapes synthesized in the graph.
	Placeholders []string
}

// Apply recomputes the sh:property set of c.Shape in g and writes it back.
// Direct properties are kept, properties inherited from the old sh:node
// target that the new target does not provide are removed, newly inherited
// ones are added, and a changed sh:targetClass induces placeholders.
func (r *Resolver) Apply(ctx context.Context, g *rdf2go.Graph, modelURI string, c Change, stamp mapper.Stamp) (Result, error) {
	current := graph.ObjectIRIs(g, graph.IRI(c.Shape), graph.IRI(datamodel.Property))

	oldInherited, err := r.Inherited(ctx, g, c.Shape, c.OldNode)
	if err != nil {
		if c.OldNode == c.NewNode {
			return Result{}, err
		}
		// A broken old chain only narrows what is removed.
		r.logger.Debug("Old sh:node chain unreadable", "shape", c.Shape, "error", err)
		oldInherited = nil
	}
	newInherited, err := r.Inherited(ctx, g, c.Shape, c.NewNode)
	if err != nil {
		return Result{}, err
	}

	// Links the user attached survive even when the old chain supplied
	// them too.
	stale := subtract(subtract(oldInherited, newInherited), mapper.DirectProperties(g, c.Shape))
	fresh := subtract(newInherited, oldInherited)
	kept := subtract(current, stale)

	paths, err := r.paths(ctx, g, kept)
	if err != nil {
		return Result{}, err
	}
	props := append([]string(nil), kept...)
	for _, p := range fresh {
		path, err := r.path(ctx, g, p)
		if err != nil {
			return Result{}, err
		}
		if path != "" && paths[path] {
			r.logger.Debug("Inherited property overridden", "shape", c.Shape, "property", p, "path", path)
			continue
		}
		if path != "" {
			paths[path] = true
		}
		props = append(props, p)
	}

	var res Result
	if c.NewTargetClass != "" && c.NewTargetClass != c.OldTargetClass {
		induced, err := r.induce(ctx, g, modelURI, c.NewTargetClass, paths, stamp)
		if err != nil {
			return Result{}, err
		}
		props = append(props, induced...)
		res.Placeholders = induced
	}

	res.Properties = dedupe(props)
	mapper.SetProperties(g, c.Shape, res.Properties)
	return res, nil
}

// Inherited returns the properties collected along the sh:node chain that
// starts at node, on behalf of shape. Revisiting a node shape, including
// shape itself, fails with a circular dependency MappingError.
func (r *Resolver) Inherited(ctx context.Context, g *rdf2go.Graph, shape, node string) ([]string, error) {
	visited := map[string]bool{shape: true}
	var out []string
	for node != "" {
		if visited[node] {
			return nil, errs.Mappingf(errs.KeyCircularDependency, shape, "sh:node %s revisited", node)
		}
		visited[node] = true

		desc, err := r.describe(ctx, g, node)
		if err != nil {
			return nil, err
		}
		s := graph.IRI(node)
		out = append(out, graph.ObjectIRIs(desc, s, graph.IRI(datamodel.Property))...)
		node = graph.ObjectIRI(desc, s, graph.IRI(datamodel.Node))
	}
	return dedupe(out), nil
}

// Effective returns the direct and inherited properties of shape without
// writing anything. Calling it repeatedly on the same state yields the same
// set.
func (r *Resolver) Effective(ctx context.Context, g *rdf2go.Graph, shape string) ([]string, error) {
	s := graph.IRI(shape)
	direct := graph.ObjectIRIs(g, s, graph.IRI(datamodel.Property))
	inherited, err := r.Inherited(ctx, g, shape, graph.ObjectIRI(g, s, graph.IRI(datamodel.Node)))
	if err != nil {
		return nil, err
	}
	paths, err := r.paths(ctx, g, direct)
	if err != nil {
		return nil, err
	}
	out := append([]string(nil), direct...)
	for _, p := range inherited {
		path, err := r.path(ctx, g, p)
		if err != nil {
			return nil, err
		}
		if path != "" && paths[path] {
			continue
		}
		out = append(out, p)
	}
	return dedupe(out), nil
}

// induce synthesizes a placeholder property shape in g for every
// restriction of class whose property is not yet covered by paths.
func (r *Resolver) induce(ctx context.Context, g *rdf2go.Graph, modelURI, class string, paths map[string]bool, stamp mapper.Stamp) ([]string, error) {
	desc, err := r.describeClass(ctx, class)
	if err != nil {
		return nil, err
	}
	var created []string
	for _, restriction := range mapper.Restrictions(desc, class) {
		if paths[restriction.OnProperty] {
			continue
		}
		id, shapeURI, err := r.freeIdentifier(ctx, g, modelURI, localName(restriction.OnProperty))
		if err != nil {
			return nil, err
		}
		kind := mapper.PlaceholderKind(restriction.Target())
		mapper.MapPlaceholder(g, modelURI, shapeURI, id, restriction.OnProperty, kind, stamp)
		paths[restriction.OnProperty] = true
		created = append(created, shapeURI)
		r.logger.Debug("Created placeholder property shape",
			"class", class, "path", restriction.OnProperty, "shape", shapeURI)
	}
	return created, nil
}

// freeIdentifier probes base, base-1, base-2, ... until an identifier is
// free in the model, including its released versions.
func (r *Resolver) freeIdentifier(ctx context.Context, g *rdf2go.Graph, modelURI, base string) (string, string, error) {
	u, ok := r.uris.Parse(modelURI)
	if !ok {
		return "", "", errs.InvalidURI(modelURI, "not a model URI")
	}
	for i := 0; i < maxPlaceholderProbes; i++ {
		id := base
		if i > 0 {
			id = base + "-" + strconv.Itoa(i)
		}
		candidate, err := r.uris.Resolve(u.Prefix, "", id)
		if err != nil {
			return "", "", err
		}
		if graph.Has(g, graph.IRI(candidate.ResourceURI), nil, nil) {
			continue
		}
		taken := false
		for _, repo := range r.repos {
			exists, err := repo.ResourceExists(ctx, candidate.GraphURI, candidate.ResourceURI, true)
			if err != nil {
				return "", "", fmt.Errorf("probe identifier %s: %w", id, err)
			}
			if exists {
				taken = true
				break
			}
		}
		if !taken {
			return id, candidate.ResourceURI, nil
		}
	}
	return "", "", errs.Mappingf(errs.KeyAlreadyExists, base, "no free identifier after %d attempts", maxPlaceholderProbes)
}

// describe returns the triples of a node shape, preferring g.
func (r *Resolver) describe(ctx context.Context, g *rdf2go.Graph, node string) (*rdf2go.Graph, error) {
	s := graph.IRI(node)
	if graph.Has(g, s, nil, nil) {
		return g, nil
	}
	for _, repo := range r.repos {
		desc, err := repo.Construct(ctx, storage.Pattern{Subject: s})
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", node, err)
		}
		if desc.Len() > 0 {
			return desc, nil
		}
	}
	return nil, errs.NotFound(node)
}

func (r *Resolver) describeClass(ctx context.Context, class string) (*rdf2go.Graph, error) {
	for _, repo := range r.repos {
		desc, err := repo.Construct(ctx, storage.Pattern{
			Subject:   graph.IRI(class),
			Predicate: graph.IRI(datamodel.SubClassOf),
			Describe:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("describe class %s: %w", class, err)
		}
		if desc.Len() > 0 {
			return desc, nil
		}
	}
	return graph.New(""), nil
}

// path returns the sh:path of a property shape, or "" when unknown.
func (r *Resolver) path(ctx context.Context, g *rdf2go.Graph, property string) (string, error) {
	s := graph.IRI(property)
	if p := graph.ObjectIRI(g, s, graph.IRI(datamodel.Path)); p != "" {
		return p, nil
	}
	for _, repo := range r.repos {
		desc, err := repo.Construct(ctx, storage.Pattern{Subject: s, Predicate: graph.IRI(datamodel.Path)})
		if err != nil {
			return "", fmt.Errorf("read path of %s: %w", property, err)
		}
		if p := graph.ObjectIRI(desc, s, graph.IRI(datamodel.Path)); p != "" {
			return p, nil
		}
	}
	return "", nil
}

func (r *Resolver) paths(ctx context.Context, g *rdf2go.Graph, properties []string) (map[string]bool, error) {
	out := make(map[string]bool, len(properties))
	for _, p := range properties {
		path, err := r.path(ctx, g, p)
		if err != nil {
			return nil, err
		}
		if path != "" {
			out[path] = true
		}
	}
	return out, nil
}

// localName derives an identifier candidate from a property IRI.
func localName(iri string) string {
	name := iri
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		name = iri[i+1:]
	}
	if uri.ValidateIdentifier(name) != nil {
		return "property"
	}
	return name
}

func subtract(a, b []string) []string {
	drop := make(map[string]bool, len(b))
	for _, x := range b {
		drop[x] = true
	}
	var out []string
	for _, x := range a {
		if !drop[x] {
			out = append(out, x)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, x := range in {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Strings(out)
	return out
}
