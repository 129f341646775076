package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/secrets"
)

func newInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration template",
		Long: `Writes an annotated .env template listing every configuration key.
An existing file is only replaced after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil {
				if !confirm(fmt.Sprintf("%s already exists, overwrite it?", output)) {
					fmt.Println("Keeping the existing file.")
					return nil
				}
			}
			if err := secrets.WriteEnvTemplate(output, config.TemplateKeys()); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Printf("Wrote %s. Fill in the values, then run \"wp-backup test\".\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".env", "Where to write the template")
	return cmd
}
