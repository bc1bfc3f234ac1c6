package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/internal/server"
	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/observability/prom"
	"github.com/matzehuels/techtree/pkg/tree"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags    settingsFlags
		addr     string
		defsArg  string
		mongoURI string
		noCache  bool
		every    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a research tree layout over HTTP",
		Long: `Serve a research tree layout over HTTP.

The first layout is built in the background; /ready reports when it is
published. POST /layout/rebuild reloads the definitions and publishes a new
layout, and --rebuild-every does so periodically.

Definitions come from --defs (file or URL) or --mongo-uri. With
cache.redis_addr set, layouts are shared through Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				s.Server.Addr = addr
			}
			if mongoURI != "" {
				s.Mongo.URI = mongoURI
			}
			input := defsArg
			if input == "" {
				input = s.Mongo.URI
			}
			if input == "" {
				return errors.New(errors.ErrCodeInvalidInput, "serve needs --defs or --mongo-uri")
			}
			return c.runServe(cmd.Context(), input, s, noCache, every)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", config.DefaultServerAddr, "listen address")
	cmd.Flags().StringVar(&defsArg, "defs", "", "definition file or URL")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI to load definitions from")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVar(&every, "rebuild-every", 0, "rebuild periodically (0 disables)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, s config.Settings, noCache bool, every time.Duration) error {
	src, release, err := c.openSource(ctx, input, s)
	if err != nil {
		return err
	}
	defer release()

	runner, err := c.newRunner(ctx, s, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	reg := prometheus.NewRegistry()
	prom.New(reg).Install()
	defer observability.Reset()

	t, err := tree.New(src, s, runner, c.Logger)
	if err != nil {
		return err
	}
	c.Logger.Info("serving research tree", "source", src.Name(), "addr", s.Server.Addr)
	t.Start(ctx)
	if every > 0 {
		go rebuildEvery(ctx, t, every)
	}

	srv := server.New(t, server.Config{
		Addr:    s.Server.Addr,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:  c.Logger,
	})
	defer srv.Close()
	return srv.ListenAndServe(ctx)
}

// rebuildEvery starts a build on every tick until ctx is done. Ticks that
// find a build running are skipped.
func rebuildEvery(ctx context.Context, t *tree.Tree, d time.Duration) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Start(ctx)
		}
	}
}
