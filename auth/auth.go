// Package auth decides whether the calling user may modify a model.
package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/vocabulary/datamodel"
)

// User is the authenticated caller.
type User struct {
	ID            string
	Name          string
	Organizations []string
	SuperUser     bool
}

type userKey struct{}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user attached to ctx.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// Authorizer is consulted before every mutation.
type Authorizer interface {
	// HasRightToModel reports whether the caller may modify the model
	// prefix whose current graph is g.
	HasRightToModel(ctx context.Context, prefix string, g *rdf2go.Graph) bool
	// HasRightToAnyOrganization reports whether the caller belongs to at
	// least one of orgIDs.
	HasRightToAnyOrganization(ctx context.Context, orgIDs []string) bool
}

// OrganizationAuthorizer grants access to members of a model's
// contributing organizations.
type OrganizationAuthorizer struct{}

// HasRightToModel implements Authorizer.
func (OrganizationAuthorizer) HasRightToModel(ctx context.Context, _ string, g *rdf2go.Graph) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	return u.SuperUser || intersects(u.Organizations, ModelOrganizations(g))
}

// HasRightToAnyOrganization implements Authorizer.
func (OrganizationAuthorizer) HasRightToAnyOrganization(ctx context.Context, orgIDs []string) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	return u.SuperUser || intersects(u.Organizations, orgIDs)
}

// AllowAll grants everything. It is meant for local development.
type AllowAll struct{}

func (AllowAll) HasRightToModel(context.Context, string, *rdf2go.Graph) bool { return true }
func (AllowAll) HasRightToAnyOrganization(context.Context, []string) bool    { return true }

// ModelOrganizations returns the organization ids contributing to the model
// described in g.
func ModelOrganizations(g *rdf2go.Graph) []string {
	if g == nil {
		return nil
	}
	var out []string
	for _, model := range graph.Subjects(g, graph.IRI(datamodel.Type), graph.IRI(datamodel.Ontology)) {
		for _, org := range graph.ObjectIRIs(g, graph.IRI(model), graph.IRI(datamodel.Contributor)) {
			out = append(out, strings.TrimPrefix(org, "urn:uuid:"))
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
