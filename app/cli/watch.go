package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docqa/app/service"
	"docqa/config"
	loader "docqa/loader/service"
)

// NewWatchCmd runs the drop-folder loader. It is also the entry point of the
// standalone loader binary.
func NewWatchCmd() *cobra.Command {
	var configPath string
	cmd := newWatchCmd(&configPath)
	cmd.Use = "loader"
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}

func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index PDFs dropped into the source folder",
		Long: `Watch LOADER_SOURCE_DIR for PDF files. A file is indexed once it has not
changed for LOADER_QUIET_PERIOD, then moved to LOADER_ARCHIVE_DIR/<date>/,
or to LOADER_BAD_DIR/<date>/ when it could not be indexed.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := service.NewFromConfig(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing pipeline: %w", err)
			}
			defer svc.Close()

			ld, err := loader.New(svc, cfg.Loader, logger)
			if err != nil {
				return err
			}
			return ld.Run(ctx)
		},
	}
}
