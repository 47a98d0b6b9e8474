package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparkqual/sparkqual/internal/observability"
	"github.com/sparkqual/sparkqual/internal/server"
)

var serveAccelerated bool

var serveCmd = &cobra.Command{
	Use:   "serve <event-log|dir|s3-uri>...",
	Short: "Analyze runs and serve their reports over HTTP",
	Long: `Analyze event logs, then serve every report as JSON:

  GET /api/applications
  GET /api/applications/{index}/reports/{name}

Analysis completes before the server starts; endpoints are pure reads.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveAccelerated, "accelerated", false,
		"Treat runs as accelerated-execution and report unsupported plan nodes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sessions, err := runBatch(ctx, args, serveAccelerated)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.Host, cfg.Server.Port, Version, sessions)
	httpSrv := &http.Server{
		Addr:         srv.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	observability.CLILogger.Info("Serving reports",
		zap.String("addr", srv.Addr()),
		zap.Int("applications", len(sessions)))

	return httpSrv.ListenAndServe()
}
