package backup

import "errors"

// Failure classes for the pipeline stages. The orchestrator records
// the failing stage's sentinel in Result.Err and its fixed message in
// Result.Error; callers branch on the sentinels with errors.Is.
var (
	ErrConfig    = errors.New("configuration validation failed")
	ErrSetup     = errors.New("setup validation failed")
	ErrAuth      = errors.New("provider authentication failed")
	ErrArtifact  = errors.New("backup creation failed")
	ErrUpload    = errors.New("upload failed")
	ErrCancelled = errors.New("backup cancelled")
)

const (
	msgSetupFailed    = "Setup validation failed"
	msgAuthFailed     = "Provider authentication failed"
	msgArtifactFailed = "Backup creation failed"
	msgUploadFailed   = "Upload failed"
	msgCancelled      = "Backup cancelled"
)
