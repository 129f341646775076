package gdrive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/logging"
)

type fakeDrive struct {
	folders map[string]string
	files   []remoteFile

	createFolderErr error
	uploadErr       error
	permErrFor      map[string]error
	deleteErrFor    map[string]error

	uploads     []string
	permissions []permission
	deleted     []string
}

func (f *fakeDrive) FindFolder(ctx context.Context, name string) (string, error) {
	return f.folders[name], nil
}

func (f *fakeDrive) CreateFolder(ctx context.Context, name string) (string, error) {
	if f.createFolderErr != nil {
		return "", f.createFolderErr
	}
	if f.folders == nil {
		f.folders = map[string]string{}
	}
	f.folders[name] = "folder-" + name
	return f.folders[name], nil
}

func (f *fakeDrive) UploadFile(ctx context.Context, folderID, name string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, folderID+"/"+name)
	return "file123", nil
}

func (f *fakeDrive) CreatePermission(ctx context.Context, fileID string, perm permission) error {
	if err := f.permErrFor[perm.Email]; err != nil {
		return err
	}
	f.permissions = append(f.permissions, perm)
	return nil
}

func (f *fakeDrive) ListOlderThan(ctx context.Context, folderID string, cutoff time.Time) ([]remoteFile, error) {
	var out []remoteFile
	for _, rf := range f.files {
		if rf.Created.Before(cutoff) {
			out = append(out, rf)
		}
	}
	return out, nil
}

func (f *fakeDrive) Delete(ctx context.Context, fileID string) error {
	if err := f.deleteErrFor[fileID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func newTestProvider(t *testing.T, fake *fakeDrive) *Provider {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Provider: config.ProviderGDrive, Folder: "Backups", RetentionDays: 7},
	}
	p := New(cfg, logging.NewLogger(io.Discard))
	p.dial = func(context.Context) (driveAPI, error) { return fake, nil }
	return p
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup_example.org_20260101_000000.tar.gz")
	if err := os.WriteFile(path, []byte("archive"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAuthenticate(t *testing.T) {
	p := newTestProvider(t, &fakeDrive{})
	if !p.Authenticate(context.Background()) {
		t.Fatal("Authenticate failed")
	}
	// A second call reuses the established client.
	p.dial = func(context.Context) (driveAPI, error) { return nil, errors.New("no dial expected") }
	if !p.Authenticate(context.Background()) {
		t.Fatal("repeated Authenticate failed")
	}
}

func TestAuthenticateDialFailure(t *testing.T) {
	p := newTestProvider(t, nil)
	p.dial = func(context.Context) (driveAPI, error) { return nil, errors.New("invalid_grant") }
	if p.Authenticate(context.Background()) {
		t.Fatal("Authenticate passed despite a dial failure")
	}
}

func TestUploadCreatesMissingFolder(t *testing.T) {
	fake := &fakeDrive{}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	id, err := p.Upload(context.Background(), writeArtifact(t))
	if err != nil {
		t.Fatal(err)
	}
	if id != "file123" {
		t.Errorf("id = %q", id)
	}
	if len(fake.uploads) != 1 || fake.uploads[0] != "folder-Backups/backup_example.org_20260101_000000.tar.gz" {
		t.Errorf("uploads = %v", fake.uploads)
	}
}

func TestUploadReusesExistingFolder(t *testing.T) {
	fake := &fakeDrive{folders: map[string]string{"Backups": "existing-id"}, createFolderErr: errors.New("no create expected")}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	if _, err := p.Upload(context.Background(), writeArtifact(t)); err != nil {
		t.Fatal(err)
	}
	if fake.uploads[0] != "existing-id/backup_example.org_20260101_000000.tar.gz" {
		t.Errorf("uploads = %v", fake.uploads)
	}
}

func TestUploadWithoutAuth(t *testing.T) {
	p := newTestProvider(t, &fakeDrive{})
	if _, err := p.Upload(context.Background(), writeArtifact(t)); err == nil {
		t.Fatal("Upload succeeded without authentication")
	}
}

func TestConfigureAccess(t *testing.T) {
	fake := &fakeDrive{folders: map[string]string{"Backups": "fid"}}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	sharing := config.SharingConfig{
		Emails:     []string{"a@example.org", "b@example.org"},
		Role:       "reader",
		MakePublic: true,
	}
	if !p.ConfigureAccess(context.Background(), sharing) {
		t.Fatal("ConfigureAccess failed")
	}
	if len(fake.permissions) != 3 {
		t.Fatalf("permissions = %v", fake.permissions)
	}
	if fake.permissions[0] != (permission{Type: "user", Role: "reader", Email: "a@example.org"}) {
		t.Errorf("first grant = %+v", fake.permissions[0])
	}
	if fake.permissions[2] != (permission{Type: "anyone", Role: "reader"}) {
		t.Errorf("public grant = %+v", fake.permissions[2])
	}
}

func TestConfigureAccessContinuesPastGrantFailure(t *testing.T) {
	fake := &fakeDrive{
		folders:    map[string]string{"Backups": "fid"},
		permErrFor: map[string]error{"bad@example.org": errors.New("invalid sharing request")},
	}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	sharing := config.SharingConfig{Emails: []string{"bad@example.org", "good@example.org"}}
	if p.ConfigureAccess(context.Background(), sharing) {
		t.Fatal("expected false after a failed grant")
	}
	if len(fake.permissions) != 1 || fake.permissions[0].Email != "good@example.org" {
		t.Errorf("permissions = %v", fake.permissions)
	}
}

func TestConfigureAccessDefaultRole(t *testing.T) {
	fake := &fakeDrive{folders: map[string]string{"Backups": "fid"}}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	p.ConfigureAccess(context.Background(), config.SharingConfig{Emails: []string{"a@example.org"}})
	if fake.permissions[0].Role != config.DefaultShareRole {
		t.Errorf("role = %q", fake.permissions[0].Role)
	}
}

func TestCleanupOldFiles(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	fake := &fakeDrive{
		folders: map[string]string{"Backups": "fid"},
		files: []remoteFile{
			{ID: "old1", Name: "backup_a.tar.gz", Created: now.AddDate(0, 0, -10)},
			{ID: "old2", Name: "backup_b.tar.gz", Created: now.AddDate(0, 0, -8)},
			{ID: "fresh", Name: "backup_c.tar.gz", Created: now.AddDate(0, 0, -1)},
		},
	}
	p := newTestProvider(t, fake)
	p.now = func() time.Time { return now }
	p.Authenticate(context.Background())

	n, err := p.CleanupOldFiles(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	for _, id := range fake.deleted {
		if id == "fresh" {
			t.Error("fresh backup deleted")
		}
	}
}

func TestCleanupOldFilesMissingFolder(t *testing.T) {
	p := newTestProvider(t, &fakeDrive{})
	p.Authenticate(context.Background())

	n, err := p.CleanupOldFiles(context.Background(), 7)
	if err != nil || n != 0 {
		t.Fatalf("n = %d, err = %v", n, err)
	}
}

func TestCleanupOldFilesDoesNotCountAlreadyGone(t *testing.T) {
	now := time.Now()
	fake := &fakeDrive{
		folders: map[string]string{"Backups": "fid"},
		files: []remoteFile{
			{ID: "gone", Created: now.AddDate(0, 0, -10)},
			{ID: "old", Created: now.AddDate(0, 0, -10)},
		},
		deleteErrFor: map[string]error{"gone": errNotFound},
	}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	n, err := p.CleanupOldFiles(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1: a file that was already gone is not a deletion", n)
	}
}

func TestCleanupOldFilesSkipsFailedDeletes(t *testing.T) {
	now := time.Now()
	fake := &fakeDrive{
		folders:      map[string]string{"Backups": "fid"},
		files:        []remoteFile{{ID: "old1", Created: now.AddDate(0, 0, -10)}, {ID: "old2", Created: now.AddDate(0, 0, -10)}},
		deleteErrFor: map[string]error{"old1": errors.New("locked")},
	}
	p := newTestProvider(t, fake)
	p.Authenticate(context.Background())

	n, err := p.CleanupOldFiles(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}
