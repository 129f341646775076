package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wptools/wp-backup/internal/backup"
)

func newTestCmd() *cobra.Command {
	var sourceOnly, sinkOnly bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Verify database and storage connectivity",
		Long: `Validates the setup and authenticates against the database and the
storage backend without creating a backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceOnly && sinkOnly {
				return fmt.Errorf("--source-only and --sink-only are mutually exclusive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, sink, err := buildProviders(cfg)
			if err != nil {
				return err
			}

			o := backup.NewOrchestrator(source, sink, cfg, logger)
			if !o.TestConnections(cmd.Context(), sourceOnly, sinkOnly) {
				return errReported
			}
			fmt.Println("All connection tests passed.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&sourceOnly, "source-only", false, "Only test the WordPress/database side")
	cmd.Flags().BoolVar(&sinkOnly, "sink-only", false, "Only test the storage side")
	return cmd
}
