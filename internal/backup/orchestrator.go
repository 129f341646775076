// Package backup drives the run pipeline: validate, authenticate,
// create the artifact, upload, configure access, apply retention.
// Each stage either completes or terminates the run; later stages
// never execute after a failure.
package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/format"
	"github.com/wptools/wp-backup/internal/logging"
	"github.com/wptools/wp-backup/internal/provider"
	"github.com/wptools/wp-backup/internal/secrets"
)

// Orchestrator owns exactly one Source and one Sink for the life of a
// run and coordinates them without inspecting their internals.
type Orchestrator struct {
	source provider.Source
	sink   provider.Sink
	cfg    *config.Config
	log    *logging.Logger
}

func NewOrchestrator(source provider.Source, sink provider.Sink, cfg *config.Config, log *logging.Logger) *Orchestrator {
	return &Orchestrator{source: source, sink: sink, cfg: cfg, log: log}
}

// Run executes the full pipeline and always returns a Result, even on
// panic. Scratch space is created under the configured backup
// directory and removed after the run regardless of outcome.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	result := &Result{}
	start := time.Now()

	var scratch string
	defer func() {
		o.cleanupLocal(scratch)
	}()
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = secrets.Mask(fmt.Sprintf("unexpected failure: %v", r))
			o.log.Errorf("Backup failed: %s", result.Error)
		}
		result.Duration = time.Since(start).Seconds()
	}()

	o.log.Infof("Starting backup for %s", o.cfg.WordPress.Domain)

	// VALIDATE
	if o.cancelled(ctx, result) {
		return result
	}
	if !o.source.ValidateSetup(ctx) {
		result.Error = msgSetupFailed
		result.Err = ErrSetup
		o.log.Errorf("%s", msgSetupFailed)
		return result
	}

	// AUTHENTICATE, source first. A source failure short-circuits so
	// the sink handshake never runs.
	if o.cancelled(ctx, result) {
		return result
	}
	if !o.source.Authenticate(ctx) {
		result.Error = msgAuthFailed
		result.Err = ErrAuth
		o.log.Errorf("%s", msgAuthFailed)
		return result
	}
	if !o.sink.Authenticate(ctx) {
		result.Error = msgAuthFailed
		result.Err = ErrAuth
		o.log.Errorf("%s", msgAuthFailed)
		return result
	}

	// ACQUIRE_SCRATCH
	if o.cancelled(ctx, result) {
		return result
	}
	backupDir := o.cfg.WordPress.BackupDir
	if err := os.MkdirAll(backupDir, 0o700); err != nil {
		result.Error = msgArtifactFailed
		result.Err = ErrArtifact
		o.log.Errorf("Cannot prepare backup directory: %s", secrets.Mask(err.Error()))
		return result
	}
	dir, err := os.MkdirTemp(backupDir, "run-")
	if err != nil {
		result.Error = msgArtifactFailed
		result.Err = ErrArtifact
		o.log.Errorf("Cannot create scratch directory: %s", secrets.Mask(err.Error()))
		return result
	}
	scratch = dir

	// CREATE_ARTIFACT
	artifact, err := o.source.CreateBackup(ctx, scratch)
	if err != nil || artifact == "" {
		if o.cancelled(ctx, result) {
			return result
		}
		result.Error = msgArtifactFailed
		result.Err = ErrArtifact
		if err != nil {
			o.log.Errorf("%s: %s", msgArtifactFailed, secrets.Mask(err.Error()))
		} else {
			o.log.Errorf("%s", msgArtifactFailed)
		}
		return result
	}
	result.Size = format.FileSize(artifact)
	o.log.Infof("Created %s (%s)", artifact, result.Size)

	// UPLOAD
	if o.cancelled(ctx, result) {
		return result
	}
	backupID, err := o.sink.Upload(ctx, artifact)
	if err != nil || backupID == "" {
		if o.cancelled(ctx, result) {
			return result
		}
		result.Error = msgUploadFailed
		result.Err = ErrUpload
		if err != nil {
			o.log.Errorf("%s: %s", msgUploadFailed, secrets.Mask(err.Error()))
		} else {
			o.log.Errorf("%s", msgUploadFailed)
		}
		return result
	}
	result.BackupID = backupID

	// CONFIGURE_ACCESS is best effort. A failure, including a panic
	// inside the sink, downgrades to a warning.
	if o.cfg.Sharing.MakePublic || len(o.cfg.Sharing.Emails) > 0 {
		if !o.configureAccess(ctx) {
			o.log.Warnf("Access configuration incomplete; backup remains private")
		}
	}

	// CLEANUP_RETENTION
	cleaned, err := o.sink.CleanupOldFiles(ctx, o.cfg.Storage.RetentionDays)
	if err != nil {
		o.log.Warnf("Retention cleanup failed: %s", secrets.Mask(err.Error()))
	}
	result.FilesCleaned = cleaned

	result.Success = true
	o.log.Infof("Backup complete: %s", backupID)
	return result
}

// TestConnections validates and authenticates both providers without
// producing an artifact. Flags restrict the check to one side.
func (o *Orchestrator) TestConnections(ctx context.Context, sourceOnly, sinkOnly bool) bool {
	ok := true
	if !sinkOnly {
		if !o.source.ValidateSetup(ctx) || !o.source.Authenticate(ctx) {
			o.log.Errorf("Source connection test failed")
			ok = false
		} else {
			o.log.Infof("Source connection OK")
		}
	}
	if !sourceOnly {
		if !o.sink.Authenticate(ctx) {
			o.log.Errorf("Storage connection test failed")
			ok = false
		} else {
			o.log.Infof("Storage connection OK")
		}
	}
	return ok
}

func (o *Orchestrator) configureAccess(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Warnf("Access configuration failed: %s", secrets.Mask(fmt.Sprint(r)))
			ok = false
		}
	}()
	return o.sink.ConfigureAccess(ctx, o.cfg.Sharing)
}

// cancelled classifies a context cancellation as its own terminal
// outcome so interrupted runs are not reported as provider failures.
func (o *Orchestrator) cancelled(ctx context.Context, result *Result) bool {
	if ctx.Err() == nil {
		return false
	}
	result.Cancelled = true
	result.Error = msgCancelled
	result.Err = ErrCancelled
	o.log.Warnf("%s", msgCancelled)
	return true
}

// cleanupLocal removes the run's scratch directory and, when that
// leaves the backup directory empty, the backup directory itself.
// Cleanup failures are logged and never alter the run outcome.
func (o *Orchestrator) cleanupLocal(scratch string) {
	if scratch == "" {
		return
	}
	if err := os.RemoveAll(scratch); err != nil {
		o.log.Warnf("Could not remove scratch directory: %s", secrets.Mask(err.Error()))
		return
	}
	backupDir := o.cfg.WordPress.BackupDir
	entries, err := os.ReadDir(backupDir)
	if err == nil && len(entries) == 0 {
		if err := os.Remove(backupDir); err != nil {
			o.log.Debugf("Backup directory left in place: %s", secrets.Mask(err.Error()))
		}
	}
}

// PrintSummary writes a human-readable run report to stdout.
func (o *Orchestrator) PrintSummary(result *Result) {
	fmt.Println()
	if result.Success {
		fmt.Println("Backup completed successfully")
		fmt.Printf("  Backup ID:     %s\n", result.BackupID)
		fmt.Printf("  Archive size:  %s\n", result.Size)
		fmt.Printf("  Old backups removed: %d\n", result.FilesCleaned)
	} else if result.Cancelled {
		fmt.Println("Backup cancelled")
	} else {
		fmt.Println("Backup failed")
		fmt.Printf("  Reason: %s\n", result.Error)
	}
	fmt.Printf("  Duration: %.1fs\n", result.Duration)
}
