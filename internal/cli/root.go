// Package cli provides the command-line interface for wp-backup.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wptools/wp-backup/internal/backup"
	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/logging"
	"github.com/wptools/wp-backup/internal/provider"
	"github.com/wptools/wp-backup/internal/provider/gdrive"
	"github.com/wptools/wp-backup/internal/provider/s3"
	"github.com/wptools/wp-backup/internal/provider/wordpress"
	"github.com/wptools/wp-backup/internal/secrets"
	"github.com/wptools/wp-backup/internal/validation"
	"github.com/wptools/wp-backup/internal/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global logger
	logger *logging.Logger
)

// errReported marks failures already explained to the user, so
// Execute sets the exit code without printing a second message.
var errReported = errors.New("failure already reported")

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wp-backup",
		Short: "WordPress backup to cloud storage",
		Long: `wp-backup ` + version.String() + `
Backs up a WordPress site (files plus MySQL database) into a single
archive, uploads it to cloud storage, shares it, and prunes backups
older than the retention window.

Configuration comes from the environment and .env files; run
"wp-backup init" to generate a template.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config-file", "c", "", "Extra .env file read before the defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.Version = version.String()

	rootCmd.AddCommand(
		newBackupCmd(),
		newInitCmd(),
		newTestCmd(),
		newSecurityScanCmd(),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit code. SIGINT and
// SIGTERM cancel the command context so a run in flight shuts down
// through its normal cleanup path.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", secrets.Mask(err.Error()))
		}
		return 1
	}
	return 0
}

// loadConfig resolves and validates the full configuration. Warnings
// are logged; errors abort before any provider is touched.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader(secrets.NewResolver())
	cfg, err := loader.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	valid := v.ValidateConfig(cfg)
	report := v.Report()
	for _, w := range report.Warnings {
		logger.Warnf("%s", w)
	}
	if !valid {
		for _, e := range report.Errors {
			logger.Errorf("%s", e)
		}
		return nil, fmt.Errorf("%w: %d problem(s) found", backup.ErrConfig, len(report.Errors))
	}
	return cfg, nil
}

// buildProviders assembles the source and sink for the configured
// storage backend.
func buildProviders(cfg *config.Config) (provider.Source, provider.Sink, error) {
	source := wordpress.New(cfg, logger)
	switch cfg.Storage.Provider {
	case config.ProviderGDrive:
		return source, gdrive.New(cfg, logger), nil
	case config.ProviderS3:
		return source, s3.New(cfg, logger), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
