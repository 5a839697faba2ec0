// Package terminology resolves external terminology concepts and code lists.
//
// Resolution is best-effort. A URI that cannot be fetched is logged and
// reported as unresolved; it never fails the caller.
package terminology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
)

// Resolution is the outcome for one URI.
type Resolution struct {
	URI   string
	Found bool
	// Cached is true when the description was already stored locally.
	Cached bool
	Err    error
}

// Resolver resolves external URIs.
type Resolver interface {
	Resolve(ctx context.Context, uris []string) []Resolution
}

// Config tunes an HTTPResolver.
type Config struct {
	// Name labels log lines and the circuit breaker, e.g. "terminology".
	Name string
	// Timeout bounds one fetch.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
	// Parallel bounds concurrent fetches.
	Parallel int
}

// DefaultConfig returns the defaults for name.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
		Parallel:         4,
	}
}

// HTTPResolver fetches Turtle descriptions over HTTP and caches them as
// partitions of a repository, one partition per URI.
type HTTPResolver struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	store   storage.Repository
	logger  *slog.Logger
}

// NewHTTPResolver creates a resolver caching into store. A nil client uses
// a client with cfg.Timeout.
func NewHTTPResolver(cfg Config, store storage.Repository, client *http.Client, logger *slog.Logger) *HTTPResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &HTTPResolver{
		cfg:     cfg,
		client:  client,
		breaker: breaker,
		store:   store,
		logger:  logger.With("resolver", cfg.Name),
	}
}

// Resolve implements Resolver. Results follow the order of uris; duplicates
// are resolved once.
func (r *HTTPResolver) Resolve(ctx context.Context, uris []string) []Resolution {
	out := make([]Resolution, len(uris))
	first := make(map[string]int, len(uris))

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallel)
	for i, u := range uris {
		if _, dup := first[u]; dup {
			continue
		}
		first[u] = i
		g.Go(func() error {
			out[i] = r.resolveOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range uris {
		if j := first[u]; j != i {
			out[i] = out[j]
		}
	}
	return out
}

func (r *HTTPResolver) resolveOne(ctx context.Context, uri string) Resolution {
	res := Resolution{URI: uri}

	cached, err := r.store.Exists(ctx, uri)
	if err == nil && cached {
		res.Found, res.Cached = true, true
		return res
	}

	_, err, _ = r.group.Do(uri, func() (any, error) {
		return r.breaker.Execute(func() (any, error) {
			return nil, r.fetch(ctx, uri)
		})
	})
	if err != nil {
		res.Err = &errs.UpstreamResolutionError{URI: uri, Err: err}
		r.logger.Warn("Failed to resolve external URI", "uri", uri, "error", err)
		return res
	}
	res.Found = true
	return res
}

func (r *HTTPResolver) fetch(ctx context.Context, uri string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/turtle")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch description: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch description: unexpected status %d", resp.StatusCode)
	}

	g, err := graph.ParseTurtle(uri, resp.Body)
	if err != nil {
		return err
	}
	if !describes(g, uri) {
		return errors.New("response does not describe the requested URI")
	}
	if err := r.store.Put(ctx, uri, g); err != nil {
		return fmt.Errorf("cache description: %w", err)
	}
	r.logger.Debug("Cached external description", "uri", uri, "triples", g.Len())
	return nil
}

func describes(g *rdf2go.Graph, uri string) bool {
	return graph.Has(g, graph.IRI(uri), nil, nil)
}

// Unresolved returns the URIs in results that could not be resolved.
func Unresolved(results []Resolution) []string {
	var out []string
	for _, r := range results {
		if !r.Found {
			out = append(out, r.URI)
		}
	}
	return out
}

// Nop resolves nothing and reports every URI as unresolved without error.
type Nop struct{}

// Resolve implements Resolver.
func (Nop) Resolve(_ context.Context, uris []string) []Resolution {
	out := make([]Resolution, len(uris))
	for i, u := range uris {
		out[i] = Resolution{URI: u}
	}
	return out
}
