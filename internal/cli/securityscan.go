package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wptools/wp-backup/internal/secrets"
	"github.com/wptools/wp-backup/internal/validation"
)

// scanExtensions selects the file types worth scanning for leaked
// credentials.
var scanExtensions = map[string]bool{
	".go": true, ".php": true, ".py": true, ".sh": true,
	".yml": true, ".yaml": true, ".json": true, ".env": true,
}

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
}

func newSecurityScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "security-scan [path...]",
		Short: "Scan files for hardcoded credentials",
		Long: `Scans source and configuration files for credential-looking string
literals and checks the permissions of local secret files. Defaults to
the current directory when no paths are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectScanTargets(args)
			if err != nil {
				return err
			}

			findings := secrets.ScanFiles(paths)
			for _, f := range findings {
				fmt.Println(f)
			}

			issues := validation.CheckEnvironment()
			for _, issue := range issues {
				fmt.Println(issue)
			}

			total := len(findings) + len(issues)
			if total > 0 {
				fmt.Printf("\n%d issue(s) found across %d file(s).\n", total, len(paths))
				return errReported
			}
			fmt.Printf("No issues found across %d file(s).\n", len(paths))
			return nil
		},
	}
	return cmd
}

// collectScanTargets expands the given paths into scannable files.
// Directories are walked recursively; explicit file arguments are
// always included.
func collectScanTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if scanExtensions[filepath.Ext(name)] || strings.HasPrefix(name, ".env") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
