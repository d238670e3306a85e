package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/server"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development server with hot reload",
	Long: `Start the fymo server for the project in the current directory.

In development the server watches templates and controller data for changes,
invalidates compiled components, and pushes live reloads over WebSocket.

Examples:
  fymo serve                       # Serve with settings from fymo.yml
  fymo serve --port 4000           # Override the port
  fymo serve --reload=false        # Disable hot reload`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 3000, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().BoolP("reload", "r", true, "Enable hot reload in development")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("development.hot_reload", serveCmd.Flags().Lookup("reload"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	logger, flush := newLogger(cfg)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bundled client runtime backs hydration for every page. A failed
	// bundle is not fatal: pages still render server-side and hydration
	// reports the missing runtime in the browser console.
	bundler := build.NewRuntimeBundler(root, cfg.Build.Command, cfg.Paths.RuntimeBundle)
	if built, bundleErr := bundler.Ensure(ctx); bundleErr != nil {
		logger.Warn(ctx, bundleErr, "Client runtime unavailable, hydration will degrade")
	} else if built {
		logger.Info(ctx, "Client runtime bundled", "path", bundler.BundlePath())
	}

	srv, err := server.New(root, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go func() {
		<-ctx.Done()
		fmt.Fprintln(cmd.ErrOrStderr(), "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error(shutdownCtx, shutdownErr, "Server shutdown failed")
		}
	}()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if cfg.Dev() {
		fmt.Fprintf(cmd.OutOrStdout(), "Starting fymo development server at http://%s\n", addr)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Starting fymo server at http://%s\n", addr)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
