// Package provider defines the capability contracts the backup
// orchestrator drives. Concrete variants live in subpackages; the
// orchestrator depends only on these interfaces and never inspects
// provider internals.
package provider

import (
	"context"

	"github.com/wptools/wp-backup/internal/config"
)

// Source produces a local backup artifact from its subject system.
// The three operations are called at most once per run, in order.
type Source interface {
	// ValidateSetup checks required external tooling and directory
	// permissions. It must not mutate state; failures are logged with
	// remediation guidance rather than returned as errors.
	ValidateSetup(ctx context.Context) bool

	// Authenticate establishes readiness to produce a backup. It
	// returns false rather than an error on recoverable failures, and
	// every failure message it surfaces is masked.
	Authenticate(ctx context.Context) bool

	// CreateBackup produces one self-contained archive inside
	// scratchDir and returns its path. A failed assembly leaves no
	// partial archive at the final location.
	CreateBackup(ctx context.Context, scratchDir string) (string, error)
}

// Sink stores artifacts in a remote destination.
type Sink interface {
	// Authenticate completes the handshake (stored token, refresh,
	// interactive grant, in that order) and persists reusable
	// credentials. A corrupt persisted credential is discarded and
	// re-established, not a fatal error.
	Authenticate(ctx context.Context) bool

	// Upload ensures the destination folder exists, uploads the
	// artifact, and returns an opaque identifier for it.
	Upload(ctx context.Context, artifactPath string) (string, error)

	// ConfigureAccess grants per-recipient and public access on the
	// destination. An individual grant failure does not abort the
	// remaining grants.
	ConfigureAccess(ctx context.Context, sharing config.SharingConfig) bool

	// CleanupOldFiles deletes destination objects older than the
	// retention window and returns the count actually deleted. A
	// missing destination yields 0, not an error.
	CleanupOldFiles(ctx context.Context, retentionDays int) (int, error)
}
