package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/deiu/rdf2go"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Policy lists extra grants on top of organization membership.
type Policy struct {
	// SuperUsers may modify every model.
	SuperUsers []string `yaml:"superusers"`
	Grants     []Grant  `yaml:"grants"`
}

// Grant gives a user, or every user with "*", rights to models whose prefix
// matches one of Models, and membership in Organizations.
type Grant struct {
	User          string   `yaml:"user"`
	Models        []string `yaml:"models"`
	Organizations []string `yaml:"organizations"`
}

// Validate checks glob syntax.
func (p *Policy) Validate() error {
	for i, g := range p.Grants {
		if g.User == "" {
			return fmt.Errorf("grant %d: user is required", i)
		}
		for _, pattern := range g.Models {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("grant %d: invalid model pattern %q", i, pattern)
			}
		}
	}
	return nil
}

// ParsePolicy decodes a YAML policy.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &p, nil
}

// PolicyAuthorizer combines organization membership with a policy file that
// is reloaded when it changes on disk.
type PolicyAuthorizer struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	policy *Policy
}

// NewPolicyAuthorizer loads the policy at path.
func NewPolicyAuthorizer(path string, logger *slog.Logger) (*PolicyAuthorizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &PolicyAuthorizer{path: path, logger: logger}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewStaticPolicyAuthorizer uses p without a backing file.
func NewStaticPolicyAuthorizer(p *Policy) *PolicyAuthorizer {
	return &PolicyAuthorizer{policy: p, logger: slog.Default()}
}

// Reload rereads the policy file. The previous policy stays active when the
// file is invalid.
func (a *PolicyAuthorizer) Reload() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.policy = p
	a.mu.Unlock()
	a.logger.Info("Authorization policy loaded", "path", a.path, "grants", len(p.Grants))
	return nil
}

// Watch reloads the policy whenever its file is written or replaced, until
// ctx is done. The directory is watched so editors that replace the file
// are handled.
func (a *PolicyAuthorizer) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(a.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch policy directory: %w", err)
	}

	go func() {
		defer fsw.Close()
		name := filepath.Clean(a.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if err := a.Reload(); err != nil {
						a.logger.Warn("Keeping previous authorization policy", "path", a.path, "error", err)
					}
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				a.logger.Error("Policy watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (a *PolicyAuthorizer) current() *Policy {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy
}

// HasRightToModel implements Authorizer.
func (a *PolicyAuthorizer) HasRightToModel(ctx context.Context, prefix string, g *rdf2go.Graph) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	p := a.current()
	if u.SuperUser || slices.Contains(p.SuperUsers, u.ID) {
		return true
	}
	for _, grant := range p.grantsFor(u.ID) {
		for _, pattern := range grant.Models {
			if match, _ := doublestar.Match(pattern, prefix); match {
				return true
			}
		}
	}
	return intersects(p.organizationsOf(u), ModelOrganizations(g))
}

// HasRightToAnyOrganization implements Authorizer.
func (a *PolicyAuthorizer) HasRightToAnyOrganization(ctx context.Context, orgIDs []string) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	p := a.current()
	if u.SuperUser || slices.Contains(p.SuperUsers, u.ID) {
		return true
	}
	return intersects(p.organizationsOf(u), orgIDs)
}

func (p *Policy) grantsFor(userID string) []Grant {
	var out []Grant
	for _, g := range p.Grants {
		if g.User == userID || g.User == "*" {
			out = append(out, g)
		}
	}
	return out
}

func (p *Policy) organizationsOf(u User) []string {
	orgs := slices.Clone(u.Organizations)
	for _, g := range p.grantsFor(u.ID) {
		orgs = append(orgs, g.Organizations...)
	}
	return orgs
}
