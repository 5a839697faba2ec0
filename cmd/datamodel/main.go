// Package main provides the datamodel binary entry point.
// It runs the data model consistency engine against the configured graph
// store and exposes every lifecycle operation as a subcommand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/auth"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/config"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "datamodel"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if key := errs.Key(err); key != errs.KeyUnknown {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", key, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	user       string
	orgs       []string
	superUser  bool

	out io.Writer
}

func rootCmd() *cobra.Command {
	return newRootCmd(os.Stdout)
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{out: out}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Resource graph consistency engine",
		Long: `datamodel maintains versioned RDF/OWL/SHACL data models.

It keeps structural links acyclic, refuses to delete referenced resources,
resolves node-shape property inheritance and projects every change into a
search index.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.user, "user", "", "Acting user id")
	cmd.PersistentFlags().StringSliceVar(&g.orgs, "org", nil, "Organization ids of the acting user")
	cmd.PersistentFlags().BoolVar(&g.superUser, "superuser", false, "Act as a super user")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(g.out, "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(
		serveCmd(g),
		modelCmd(g),
		resourceCmd(g),
		restrictionCmd(g),
		propertyRefCmd(g),
		positionsCmd(g),
	)
	return cmd
}

func serveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the backends and serve metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, signalCancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer signalCancel()

			return g.withApp(signalCtx, func(ctx context.Context, a *App) error {
				slog.Info("Datamodel ready", "version", Version, "store", a.cfg.Store.Backend, "index", a.cfg.Index.Backend)
				err := a.Serve(ctx)
				slog.Info("Received shutdown signal")
				return err
			})
		},
	}
}

// withApp loads the configuration, builds the app and runs fn with a
// context carrying the acting user.
func (g *globals) withApp(ctx context.Context, fn func(context.Context, *App) error) error {
	logger := newLogger(g.logLevel, os.Stderr)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).WithFile(g.configPath).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return fn(auth.WithUser(ctx, g.identity()), app)
}

func (g *globals) identity() auth.User {
	id := g.user
	if id == "" {
		id = uuid.NewString()
	}
	return auth.User{ID: id, Organizations: g.orgs, SuperUser: g.superUser}
}

// print writes v as indented JSON.
func (g *globals) print(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// readInput decodes a YAML or JSON document into v using v's JSON field
// names.
func readInput(path string, stdin io.Reader, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert input: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}
