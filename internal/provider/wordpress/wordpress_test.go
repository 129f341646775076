package wordpress

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/logging"
)

const testWPConfig = `<?php
define('DB_NAME', 'wp_site');
define('DB_USER', 'wp_user');
define('DB_PASSWORD', 'hunter2');
define('DB_HOST', 'localhost');
`

func newSiteTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"wp-config.php":            testWPConfig,
		"index.php":                "<?php // site",
		"wp-content/theme.css":     "body {}",
		"wp-content/debug.log":     "noise",
		filepath.Join(".git", "HEAD"): "ref: refs/heads/main",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestProvider(t *testing.T, sitePath string) *Provider {
	t.Helper()
	cfg := &config.Config{
		WordPress: config.WordPressConfig{
			Domain:    "example.org",
			Path:      sitePath,
			BackupDir: filepath.Join(t.TempDir(), "backups"),
		},
		Storage:     config.StorageConfig{Provider: config.ProviderGDrive, Folder: "Backups", RetentionDays: 7},
		Environment: config.EnvProduction,
	}
	p := New(cfg, logging.NewLogger(io.Discard))
	p.lookPath = func(string) (string, error) { return "/usr/bin/stub", nil }
	p.probe = func(context.Context, *config.DatabaseCredentials) error { return nil }
	p.dump = func(_ context.Context, _ *config.DatabaseCredentials, outPath string) error {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		gz := gzip.NewWriter(f)
		gz.Write([]byte("-- dump"))
		gz.Close()
		return f.Close()
	}
	return p
}

func TestValidateSetup(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	if !p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup failed for a complete site")
	}
}

func TestValidateSetupMissingTool(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	p.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup passed without mysql tools")
	}
}

func TestValidateSetupLeavesBackupDirAbsent(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	if !p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup failed")
	}
	if _, err := os.Stat(p.cfg.WordPress.BackupDir); !os.IsNotExist(err) {
		t.Errorf("validation created the backup directory: %v", err)
	}
}

func TestValidateSetupMissingBackupParent(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	p.cfg.WordPress.BackupDir = filepath.Join(t.TempDir(), "absent", "backups")
	if p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup passed with a missing backup parent")
	}
}

func TestValidateSetupInsufficientSpace(t *testing.T) {
	site := newSiteTree(t)
	f, err := os.Create(filepath.Join(site, "uploads.bin"))
	if err != nil {
		t.Fatal(err)
	}
	// A sparse file makes the estimated site size dwarf any real disk.
	if err := f.Truncate(1 << 50); err != nil {
		f.Close()
		t.Skipf("cannot create sparse file: %v", err)
	}
	f.Close()

	p := newTestProvider(t, site)
	if p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup approved a site larger than the free space")
	}
}

func TestValidateSetupMissingSite(t *testing.T) {
	p := newTestProvider(t, filepath.Join(t.TempDir(), "nope"))
	if p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup passed for a missing site path")
	}
}

func TestValidateSetupNoWPConfig(t *testing.T) {
	site := t.TempDir()
	p := newTestProvider(t, site)
	if p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup passed without wp-config.php or credentials")
	}

	p.cfg.Database = &config.DatabaseCredentials{Host: "localhost", Name: "wp", User: "u"}
	if !p.ValidateSetup(context.Background()) {
		t.Fatal("ValidateSetup failed despite explicit credentials")
	}
}

func TestAuthenticateFromWPConfig(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	var probed *config.DatabaseCredentials
	p.probe = func(_ context.Context, creds *config.DatabaseCredentials) error {
		probed = creds
		return nil
	}
	if !p.Authenticate(context.Background()) {
		t.Fatal("Authenticate failed")
	}
	if probed == nil || probed.Name != "wp_site" || probed.User != "wp_user" || probed.Password != "hunter2" {
		t.Errorf("probed credentials = %+v", probed)
	}
}

func TestAuthenticateOverrideWins(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	p.cfg.Database = &config.DatabaseCredentials{Host: "db.internal", Name: "other", User: "admin", Password: "s3cret"}
	var probed *config.DatabaseCredentials
	p.probe = func(_ context.Context, creds *config.DatabaseCredentials) error {
		probed = creds
		return nil
	}
	if !p.Authenticate(context.Background()) {
		t.Fatal("Authenticate failed")
	}
	if probed.Name != "other" || probed.Host != "db.internal" {
		t.Errorf("override ignored, probed %+v", probed)
	}
}

func TestAuthenticateProbeFailure(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	p.probe = func(context.Context, *config.DatabaseCredentials) error {
		return errors.New("access denied")
	}
	if p.Authenticate(context.Background()) {
		t.Fatal("Authenticate passed despite a failed probe")
	}
}

func TestCreateBackup(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	if !p.Authenticate(context.Background()) {
		t.Fatal("Authenticate failed")
	}

	scratch := t.TempDir()
	path, err := p.CreateBackup(context.Background(), scratch)
	if err != nil {
		t.Fatal(err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "backup_example.org_") || !strings.HasSuffix(base, ".tar.gz") {
		t.Errorf("unexpected archive name %q", base)
	}

	entries := readArchiveNames(t, path)
	for _, want := range []string{"files/index.php", "files/wp-content/theme.css", "database.sql.gz"} {
		if !entries[want] {
			t.Errorf("archive missing %s", want)
		}
	}
	for name := range entries {
		if strings.HasSuffix(name, ".log") || strings.Contains(name, ".git") {
			t.Errorf("excluded entry %s present in archive", name)
		}
	}
}

func TestCreateBackupRequiresAuthentication(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	if _, err := p.CreateBackup(context.Background(), t.TempDir()); err == nil {
		t.Fatal("CreateBackup succeeded without authentication")
	}
}

func TestCreateBackupDumpFailure(t *testing.T) {
	p := newTestProvider(t, newSiteTree(t))
	if !p.Authenticate(context.Background()) {
		t.Fatal("Authenticate failed")
	}
	p.dump = func(context.Context, *config.DatabaseCredentials, string) error {
		return errors.New("server has gone away")
	}
	if _, err := p.CreateBackup(context.Background(), t.TempDir()); err == nil {
		t.Fatal("CreateBackup succeeded despite a failed dump")
	}
}

func readArchiveNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)
	names := map[string]bool{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names[hdr.Name] = true
	}
	return names
}
