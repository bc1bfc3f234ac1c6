// Package cli implements the techtree command-line interface.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/buildinfo"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/defs"
	"github.com/matzehuels/techtree/pkg/httputil"
	"github.com/matzehuels/techtree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "techtree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Techtree lays out research trees",
		Long:         `Techtree reads research definitions and computes a layered layout of the research tree: every research sits one layer right of its latest prerequisite, with rows chosen to keep crossings and edge lengths low.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Settings & Sources
// =============================================================================

// loadSettings reads the config file, or returns the defaults when path is
// empty.
func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		s := config.Default()
		return s, s.Validate()
	}
	return config.Load(path)
}

// isURL reports whether arg names a remote definition file.
func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// isMongoURI reports whether arg names a MongoDB deployment.
func isMongoURI(arg string) bool {
	return strings.HasPrefix(arg, "mongodb://") || strings.HasPrefix(arg, "mongodb+srv://")
}

// openSource returns the definition source for a file path, an http(s)
// URL or a MongoDB URI, and a func that releases it. Remote files fall back
// to the last good copy under the cache directory.
func (c *CLI) openSource(ctx context.Context, arg string, s config.Settings) (defs.Source, func(), error) {
	noop := func() {}
	switch {
	case isMongoURI(arg):
		src, err := defs.ConnectMongo(ctx, arg, s.Mongo.Database, s.Mongo.Collection)
		if err != nil {
			return nil, noop, err
		}
		return src, func() {
			if err := src.Close(context.Background()); err != nil {
				c.Logger.Warn("disconnect mongodb", "err", err)
			}
		}, nil
	case isURL(arg):
		var opts []defs.HTTPOption
		if dir, err := cacheDir(s); err == nil {
			if fallback, err := httputil.NewCache(filepath.Join(dir, "http"), 0); err == nil {
				opts = append(opts, defs.WithFallback(fallback))
			} else {
				c.Logger.Warn("no fallback cache for remote definitions", "err", err)
			}
		}
		src, err := defs.NewHTTPSource(arg, opts...)
		return src, noop, err
	default:
		src, err := defs.NewFileSource(arg)
		return src, noop, err
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the cache selected by s.
func (c *CLI) newRunner(ctx context.Context, s config.Settings, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx, s, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, s config.Settings, noCache bool) (cache.Cache, error) {
	switch {
	case noCache || s.Cache.Disabled:
		return cache.NewNullCache(), nil
	case s.Cache.RedisAddr != "":
		var rc *cache.RedisCache
		err := httputil.RetryWithBackoff(ctx, func() (err error) {
			rc, err = cache.NewRedisCache(ctx, s.Cache.RedisAddr, s.Cache.RedisDB)
			return err
		})
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "addr", s.Cache.RedisAddr, "db", s.Cache.RedisDB)
		return rc, nil
	}
	dir, err := cacheDir(s)
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the user cache
// directory (~/.cache/techtree on Linux).
func cacheDir(s config.Settings) (string, error) {
	if s.Cache.Dir != "" {
		return s.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
