package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/preview"
	"github.com/jonathan/signal-outreach/internal/server"
	"github.com/jonathan/signal-outreach/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	servePreview bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that accepts signal webhooks and inline signals and serves stored outreach and landing pages.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().BoolVar(&servePreview, "preview", false, "Enable landing page screenshots (requires Chrome)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.buildPipeline(ctx, nil)
	if err != nil {
		return err
	}

	jwtCfg, err := jwtConfig(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	if jwtCfg == nil {
		a.log.Warn("JWT_SECRET not set; regenerate and delete routes are unauthenticated")
	}

	port := a.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	cfg := server.Config{
		Port:      port,
		Pipeline:  orch,
		Signals:   a.signals,
		JWT:       jwtCfg,
		RateLimit: ratelimit.LoadConfig(os.Getenv),
		Logger:    a.log.With(logger.String("component", "server")),
	}
	if servePreview {
		opts := preview.DefaultOptions()
		cfg.Previewer = preview.NewRenderer(opts, a.log.With(logger.String("component", "preview")))
		cfg.PreviewType = preview.ContentType(opts)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
