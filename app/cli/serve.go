package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docqa/app/server"
	"docqa/app/service"
	"docqa/config"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API:

  POST /upload_pdf/   multipart field "file", indexes the PDF
  POST /query/        {"question": "...", "top_k": 5}
  GET  /stats         number of indexed chunks
  GET  /check/healthy liveness probe`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := cfg.Logger()

			svc, err := service.NewFromConfig(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing pipeline: %w", err)
			}
			defer svc.Close()

			s, err := server.NewServer(cfg.Server, svc, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- s.Run() }()

			sigch := make(chan os.Signal, 1)
			signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigch)

			select {
			case err := <-errCh:
				return err
			case <-sigch:
				logger.Info("Received shutdown signal, shutting down server...")
				return s.Stop()
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides SERVER_ADDR")
	return cmd
}
