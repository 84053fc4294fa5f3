// Package main is the entry point for the roadmap server. It loads
// configuration, wires together all plugins and widgets, and starts the HTTP
// server. `init` only creates the workbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/roadmap/internal/app"
	"github.com/keyxmakerx/roadmap/internal/config"
	"github.com/keyxmakerx/roadmap/internal/database"
)

var (
	configFile string
	servePort  int
)

var rootCmd = &cobra.Command{
	Use:           "roadmap",
	Short:         "Roadmap goals web app backed by an Excel workbook",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server (default)",
	RunE:  runServe,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workbook with empty tables if it does not exist",
	RunE:  runInit,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, toml or json)")
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides PORT)")
	}
	rootCmd.AddCommand(serveCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("roadmap failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// loadConfig loads configuration and installs the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	setupLogging(cfg)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application := app.New(cfg)
	if err := application.Workbook.Ensure(); err != nil {
		return fmt.Errorf("preparing workbook: %w", err)
	}
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	wb := database.NewWorkbook(cfg.Workbook.Path)
	if err := wb.Ensure(); err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	slog.Info("workbook ready", slog.String("path", wb.AbsPath()))
	return nil
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.Level()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
