package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/succinctlab/rmmt/internal/service"
	"github.com/succinctlab/rmmt/internal/webui"
	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/utils"
)

var (
	serveConfigPath string
	servePort       int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server to inspect build jobs, runs, and query benchmarks",
	Long: `Start an HTTP server exposing build-job status, completed build runs,
and recorded query benchmarks as JSON, backed by the configured database.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start server with default settings (port 8080)
  ` + binName + ` serve

  # Use a specific config file and port
  ` + binName + ` serve -c ./config.yaml -p 9090`

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port for web server")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return startServeMode(cfg, servePort, log)
}

// startServeMode runs the full build service: the scheduler that polls for
// pending build jobs and constructs their rmMt indexes, plus the webui
// status server reading the same repository layer.
func startServeMode(cfg *config.Config, port int, log utils.Logger) error {
	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	server := webui.NewServer(svc.Repositories(), port, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
		svc.Stop()
		os.Exit(0)
	}()

	log.Info("rmMt build service listening on http://localhost:%d", port)
	log.Info("Press Ctrl+C to stop")

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
