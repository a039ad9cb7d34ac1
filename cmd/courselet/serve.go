package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/courselet/internal/cli"
	"github.com/aretw0/courselet/internal/presentation/tui"
	httpadapter "github.com/aretw0/courselet/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the engine behind a JSON API: student navigation under /v1, instructor live-session controls under /v1/live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger := newLogger(cfg)

		sig := cli.NewSignalContext(context.Background())
		defer sig.Cancel()

		app, err := cli.Build(sig, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		if demo, _ := cmd.Flags().GetBool("demo"); demo {
			if err := cli.SeedDemo(sig, app.Catalog); err != nil {
				return err
			}
			logger.Info("demo unit installed", "unit", cli.DemoUnit)
		}

		opts := []httpadapter.Option{
			httpadapter.WithLogger(logger),
			httpadapter.WithCookieName(cfg.Server.CookieName),
			httpadapter.WithRegistry(app.Registry),
			httpadapter.WithCoordinator(app.Coordinator),
		}
		if app.Metrics != nil {
			opts = append(opts, httpadapter.WithMetricsHandler(cfg.Metrics.Path, app.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpadapter.NewHandler(app.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("courselet server listening", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sig.Done():
			logger.Info("shutting down", "signal", sig.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("demo", false, "Install a demo unit into the catalog")
}
