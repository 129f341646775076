// Package wordpress produces backup artifacts from a WordPress
// installation: the site file tree plus a compressed dump of its
// MySQL database, assembled into a single tar.gz archive.
package wordpress

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/wptools/wp-backup/internal/archive"
	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/diskspace"
	"github.com/wptools/wp-backup/internal/logging"
	"github.com/wptools/wp-backup/internal/secrets"
)

const (
	probeTimeout = 10 * time.Second

	// Total free-space multiplier over the estimated site size. The
	// dump and the compressed archive coexist in scratch space briefly.
	spaceMargin = 1.1
)

// archiveExcludes drops noise that has no place in a restore.
var archiveExcludes = []string{"*.log", ".git"}

// Provider is the WordPress backup source. Credentials come from an
// explicit configuration override or, failing that, from the site's
// own wp-config.php.
type Provider struct {
	cfg   *config.Config
	log   *logging.Logger
	creds *config.DatabaseCredentials

	// Seams for tests. Production paths use the real binaries.
	lookPath func(string) (string, error)
	probe    func(ctx context.Context, creds *config.DatabaseCredentials) error
	dump     func(ctx context.Context, creds *config.DatabaseCredentials, outPath string) error
}

func New(cfg *config.Config, log *logging.Logger) *Provider {
	p := &Provider{cfg: cfg, log: log, lookPath: exec.LookPath}
	p.probe = p.probeDatabase
	p.dump = p.dumpDatabase
	return p
}

// ValidateSetup confirms the external tools and paths a run depends
// on. Every failure is logged with a remediation hint; the first
// failure stops the check.
func (p *Provider) ValidateSetup(ctx context.Context) bool {
	for _, tool := range []string{"mysqldump", "mysql"} {
		if _, err := p.lookPath(tool); err != nil {
			p.log.Errorf("%s not found on PATH; install the MySQL client tools (e.g. apt install mysql-client)", tool)
			return false
		}
	}

	wpPath := p.cfg.WordPress.Path
	info, err := os.Stat(wpPath)
	if err != nil || !info.IsDir() {
		p.log.Errorf("WordPress path %s is not a readable directory", wpPath)
		return false
	}
	if _, err := os.Stat(filepath.Join(wpPath, "wp-config.php")); err != nil && p.cfg.Database == nil {
		p.log.Errorf("No wp-config.php under %s and no database credentials configured", wpPath)
		return false
	}

	// The backup directory itself is created at run time; validation
	// only confirms its parent can take it.
	backupParent := filepath.Dir(p.cfg.WordPress.BackupDir)
	if info, err := os.Stat(backupParent); err != nil || !info.IsDir() {
		p.log.Errorf("Backup directory parent %s does not exist", backupParent)
		return false
	}
	if !dirWritable(backupParent) {
		p.log.Errorf("Backup directory parent %s is not writable", backupParent)
		return false
	}

	required := estimateTreeSize(wpPath)
	if err := diskspace.CheckAvailableSpace(backupParent, required, spaceMargin); err != nil {
		p.log.Errorf("%s", secrets.Mask(err.Error()))
		return false
	}
	return true
}

// Authenticate resolves database credentials and probes the server
// with a trivial query. The password travels only through MYSQL_PWD.
func (p *Provider) Authenticate(ctx context.Context) bool {
	creds := p.cfg.Database
	if creds == nil {
		parsed, err := ParseWPConfig(filepath.Join(p.cfg.WordPress.Path, "wp-config.php"))
		if err != nil {
			p.log.Errorf("Cannot read database credentials: %s", secrets.Mask(err.Error()))
			return false
		}
		creds = parsed
	}

	if err := p.probe(ctx, creds); err != nil {
		p.log.Errorf("Database connection failed for %s@%s: %s", creds.User, creds.Host, secrets.Mask(err.Error()))
		return false
	}
	p.creds = creds
	p.log.Infof("Database connection verified (%s on %s)", creds.Name, creds.Host)
	return true
}

// CreateBackup dumps the database, then streams the site tree and the
// dump into one archive inside scratchDir. The archive appears at its
// final name only once fully written.
func (p *Provider) CreateBackup(ctx context.Context, scratchDir string) (string, error) {
	if p.creds == nil {
		return "", fmt.Errorf("authenticate before creating a backup")
	}

	dumpPath := filepath.Join(scratchDir, "database.sql.gz")
	p.log.Infof("Dumping database %s", p.creds.Name)
	if err := p.dump(ctx, p.creds, dumpPath); err != nil {
		return "", fmt.Errorf("database dump: %w", err)
	}

	name := fmt.Sprintf("backup_%s_%s.tar.gz", p.cfg.WordPress.Domain, time.Now().Format("20060102_150405"))
	archivePath := filepath.Join(scratchDir, name)
	p.log.Infof("Archiving %s", p.cfg.WordPress.Path)
	err := archive.Create(archivePath, func(w *archive.Writer) error {
		if err := w.AddDir(p.cfg.WordPress.Path, "files", archiveExcludes); err != nil {
			return err
		}
		return w.AddFile(dumpPath, "database.sql.gz")
	})
	if err != nil {
		return "", fmt.Errorf("assemble archive: %w", err)
	}
	return archivePath, nil
}

func (p *Provider) probeDatabase(ctx context.Context, creds *config.DatabaseCredentials) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "mysql",
		"--host", creds.Host,
		"--user", creds.User,
		"--execute", "SELECT 1",
		creds.Name,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+creds.Password)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %s", err, secrets.Mask(string(out)))
	}
	return nil
}

func (p *Provider) dumpDatabase(ctx context.Context, creds *config.DatabaseCredentials, outPath string) error {
	cmd := exec.CommandContext(ctx, "mysqldump",
		"--single-transaction",
		"--routines",
		"--triggers",
		"--lock-tables=false",
		"--host", creds.Host,
		"--user", creds.User,
		creds.Name,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+creds.Password)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	gz := gzip.NewWriter(f)
	_, copyErr := io.Copy(gz, stdout)
	waitErr := cmd.Wait()
	if err := gz.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}

	if waitErr != nil {
		os.Remove(outPath)
		return fmt.Errorf("mysqldump: %w", waitErr)
	}
	if copyErr != nil {
		os.Remove(outPath)
		return fmt.Errorf("write dump: %w", copyErr)
	}
	return nil
}

func estimateTreeSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
