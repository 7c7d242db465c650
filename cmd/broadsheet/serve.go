package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/config"
	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the broadsheet server",
	Long: `Start the broadsheet HTTP server.

This starts the job queue, the processing workers and, when enabled, the
spool watcher. On shutdown (via Ctrl+C or SIGTERM) in-flight pages finish
first and the queue state is saved for restart recovery.

The server provides:
  - /health   - Basic server health check
  - /ready    - Readiness check (queue restored, workers running)
  - /status   - Queue statistics and registered engines
  - /api/jobs - Submit and track page processing jobs
  - /swagger  - Interactive API documentation

Examples:
  broadsheet serve                  # Start on the configured port (8480)
  broadsheet serve --port 3000      # Start on a custom port
  broadsheet serve --host 0.0.0.0   # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		// Set up logger at the configured level
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: cm.Get().LogLevel(),
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Register OCR engines
		engines := ocr.NewRegistry()
		engines.SetLogger(logger)
		engines.Register(ocr.NewTesseractEngine())

		// Pick up config file edits while running
		cm.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			Engines:       engines,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
