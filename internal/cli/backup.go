package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wptools/wp-backup/internal/backup"
	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/validation"
)

func newBackupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the site and upload the archive",
		Long: `Runs the full pipeline: validate the setup, authenticate against the
database and the storage backend, archive the site files and database
dump, upload the archive, apply sharing, and prune expired backups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if dryRun {
				return printPlan(cfg)
			}

			source, sink, err := buildProviders(cfg)
			if err != nil {
				return err
			}

			o := backup.NewOrchestrator(source, sink, cfg, logger)
			result := o.Run(cmd.Context())
			o.PrintSummary(result)
			if !result.Success {
				// The summary already explained the failure; the
				// joined sentinel keeps the class inspectable.
				return errors.Join(errReported, result.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be backed up without running")
	return cmd
}

// printPlan shows the resolved configuration with secrets masked and
// the actions a real run would take.
func printPlan(cfg *config.Config) error {
	sanitized, err := json.MarshalIndent(validation.SanitizeForLogging(cfg), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("Resolved configuration:")
	fmt.Println(string(sanitized))

	fmt.Println("\nPlanned actions:")
	fmt.Printf("  1. Archive %s and dump its database\n", cfg.WordPress.Path)
	switch cfg.Storage.Provider {
	case config.ProviderS3:
		fmt.Printf("  2. Upload to s3://%s/%s\n", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
	default:
		fmt.Printf("  2. Upload to Google Drive folder %q\n", cfg.Storage.Folder)
	}
	if n := len(cfg.Sharing.Emails); n > 0 || cfg.Sharing.MakePublic {
		fmt.Printf("  3. Share with %d recipient(s), public: %v\n", n, cfg.Sharing.MakePublic)
	}
	fmt.Printf("  4. Delete backups older than %d day(s)\n", cfg.Storage.RetentionDays)
	return nil
}
