package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tagserver/internal/config"
	"github.com/vovakirdan/tagserver/internal/tag"
	"github.com/vovakirdan/tagserver/internal/wsserver"
)

const shutdownTimeout = 10 * time.Second

var (
	flagConfigPath string
	flagAddress    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tag game WebSocket server",
	Long: `Start a WebSocket server that accepts player connections on /ws and
runs the tag game coordinator.

Configuration is loaded in order: --config path, then
~/.tagserver/config.yaml, then ./configs/server.yaml, then the built-in
defaults.

Examples:
  tagserver serve
  tagserver serve --address :9090
  tagserver serve --config ./configs/server.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfigPath, "config", "", "Path to a YAML config file")
	serveCmd.Flags().StringVar(&flagAddress, "address", "", "Override the listen address")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagAddress != "" {
		cfg.Listen.Address = flagAddress
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tagserver",
	})
	if level, parseErr := log.ParseLevel(cfg.Logging.Level); parseErr == nil {
		logger.SetLevel(level)
	}

	coordinator := tag.NewCoordinator(logger, cfg.Timing.UpdateInterval())
	go coordinator.Run()

	server := wsserver.New(wsserver.Config{
		Address:            cfg.Listen.Address,
		HeartbeatInterval:  cfg.Timing.HeartbeatInterval(),
		ClientTimeout:      cfg.Timing.ClientTimeout(),
		InsecureSkipVerify: cfg.Listen.InsecureSkipVerify,
	}, coordinator, logger)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-done:
		logger.Info("shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(ctx)
	coordinator.Stop()

	if shutdownErr != nil && !errors.Is(shutdownErr, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}
