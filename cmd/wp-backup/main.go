// wp-backup - WordPress backup to cloud storage
package main

import (
	"os"

	"github.com/wptools/wp-backup/internal/cli"
	"github.com/wptools/wp-backup/internal/version"
)

// Version information, overridden via LDFLAGS for release builds.
var (
	Version   = "v1.0.0"
	BuildTime = "2026-08-31"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime
	os.Exit(cli.Execute())
}
