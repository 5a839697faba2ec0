package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/auth"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/config"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/index"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/lifecycle"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/storage"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/terminology"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
)

// App wires the configured backends into a lifecycle service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	natsClient *natsclient.Client
	policy     *auth.PolicyAuthorizer

	Service *lifecycle.Service
}

// NewApp connects to the configured backends and builds the service.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.NeedsNATS() {
		nc, err := connectToNATS(ctx, cfg.NATS.URL, logger)
		if err != nil {
			return nil, err
		}
		a.natsClient = nc
	}

	core, imports, err := a.repositories(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	projector, err := a.projector(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	authz, err := a.authorizer()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	uris := uri.NewResolver(cfg.Namespace, cfg.ResourceSeparator)
	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(a.registry),
		lifecycle.WithCompareAndSwap(cfg.Store.CompareAndSwap),
		lifecycle.WithImports(imports),
	}
	if !cfg.Terminology.Disabled {
		opts = append(opts, lifecycle.WithTerminology(
			terminology.NewHTTPResolver(resolverConfig("terminology", cfg.Terminology), imports, nil, logger)))
	}
	if !cfg.CodeList.Disabled {
		opts = append(opts, lifecycle.WithCodeLists(
			terminology.NewHTTPResolver(resolverConfig("codelist", cfg.CodeList), imports, nil, logger)))
	}

	svc, err := lifecycle.New(core, uris, projector, authz, opts...)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("create lifecycle service: %w", err)
	}
	a.Service = svc
	return a, nil
}

func resolverConfig(name string, c config.ResolverConfig) terminology.Config {
	return terminology.Config{
		Name:             name,
		Timeout:          c.Timeout,
		FailureThreshold: c.FailureThreshold,
		OpenTimeout:      c.OpenTimeout,
		Parallel:         c.Parallel,
	}
}

// repositories opens the core and imports repositories, both instrumented.
func (a *App) repositories(ctx context.Context) (core, imports storage.Repository, err error) {
	switch a.cfg.Store.Backend {
	case config.BackendKV:
		js, err := a.natsClient.JetStream()
		if err != nil {
			return nil, nil, fmt.Errorf("get jetstream: %w", err)
		}
		kv := a.cfg.Store.KV
		uris := uri.NewResolver(a.cfg.Namespace, a.cfg.ResourceSeparator)
		if core, err = storage.NewKVRepository(ctx, js, kv.Bucket, kv.History, storage.WithLocator(uris.Locate)); err != nil {
			return nil, nil, err
		}
		if imports, err = storage.NewKVRepository(ctx, js, kv.ImportsBucket, 1); err != nil {
			return nil, nil, err
		}
	case config.BackendSPARQL:
		sc := a.cfg.Store.SPARQL
		if core, err = storage.NewSPARQLRepository(storage.SPARQLConfig{
			QueryEndpoint: sc.QueryEndpoint,
			DataEndpoint:  sc.DataEndpoint,
			Timeout:       sc.Timeout,
		}); err != nil {
			return nil, nil, err
		}
		// External descriptions are cached next to the models.
		imports = core
	default:
		core = storage.NewMemoryRepository()
		imports = storage.NewMemoryRepository()
	}

	shared := imports == core
	if core, err = storage.Instrument(core, "core", a.registry); err != nil {
		return nil, nil, err
	}
	if shared {
		return core, core, nil
	}
	if imports, err = storage.Instrument(imports, "imports", a.registry); err != nil {
		return nil, nil, err
	}
	return core, imports, nil
}

func (a *App) projector(ctx context.Context) (index.Projector, error) {
	var projectors index.Multi
	switch a.cfg.Index.Backend {
	case config.BackendKV:
		js, err := a.natsClient.JetStream()
		if err != nil {
			return nil, fmt.Errorf("get jetstream: %w", err)
		}
		kv, err := index.NewKVIndex(ctx, js, a.cfg.Index.Bucket)
		if err != nil {
			return nil, err
		}
		projectors = append(projectors, kv)
	default:
		projectors = append(projectors, index.NewMemoryIndex())
	}
	if a.cfg.Index.PublishGraph {
		uris := uri.NewResolver(a.cfg.Namespace, a.cfg.ResourceSeparator)
		projectors = append(projectors, index.NewGraphPublisher(a.natsClient, uris))
	}
	return projectors, nil
}

func (a *App) authorizer() (auth.Authorizer, error) {
	switch {
	case a.cfg.Auth.AllowAll:
		a.logger.Warn("Authorization disabled")
		return auth.AllowAll{}, nil
	case a.cfg.Auth.PolicyFile != "":
		p, err := auth.NewPolicyAuthorizer(a.cfg.Auth.PolicyFile, a.logger)
		if err != nil {
			return nil, err
		}
		a.policy = p
		return p, nil
	default:
		return auth.OrganizationAuthorizer{}, nil
	}
}

// Serve exposes /metrics and hot-reloads the policy file until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if a.policy != nil {
		if err := a.policy.Watch(ctx); err != nil {
			return err
		}
	}
	if a.cfg.Metrics.Addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.Info("Serving metrics", "addr", a.cfg.Metrics.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the NATS connection.
func (a *App) Close(ctx context.Context) {
	if a.natsClient != nil {
		if err := a.natsClient.Close(ctx); err != nil {
			a.logger.Warn("Failed to close NATS client", "error", err)
		}
	}
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName("datamodel"),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Set DATAMODEL_NATS_URL to point to your NATS server, or use the memory
backends (store.backend: memory, index.backend: memory).`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
