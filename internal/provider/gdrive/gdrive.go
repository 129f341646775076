// Package gdrive stores backup artifacts in a Google Drive folder.
// Authentication uses the installed-app OAuth flow with a persisted
// token; uploads, sharing grants, and retention all operate on one
// destination folder resolved by name.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/logging"
	"github.com/wptools/wp-backup/internal/secrets"
)

type Provider struct {
	cfg *config.Config
	log *logging.Logger

	api         driveAPI
	folderID    string
	interactive bool

	dial func(ctx context.Context) (driveAPI, error)
	now  func() time.Time
}

func New(cfg *config.Config, log *logging.Logger) *Provider {
	p := &Provider{
		cfg:         cfg,
		log:         log,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		now:         time.Now,
	}
	p.dial = p.connect
	return p
}

func (p *Provider) Authenticate(ctx context.Context) bool {
	if p.api != nil {
		return true
	}
	api, err := p.dial(ctx)
	if err != nil {
		p.log.Errorf("Google Drive authentication failed: %s", secrets.Mask(err.Error()))
		return false
	}
	p.api = api
	p.log.Infof("Google Drive authenticated")
	return true
}

// Upload places the artifact in the destination folder, creating the
// folder on first use, and returns the Drive file ID.
func (p *Provider) Upload(ctx context.Context, artifactPath string) (string, error) {
	if p.api == nil {
		return "", fmt.Errorf("not authenticated")
	}
	folderID, err := p.ensureFolder(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	name := filepath.Base(artifactPath)
	bar := progressbar.DefaultBytes(info.Size(), "Uploading "+name)
	defer bar.Close()

	id, err := p.api.UploadFile(ctx, folderID, name, io.TeeReader(f, bar))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	p.log.Infof("Uploaded %s to folder %s", name, p.cfg.Storage.Folder)
	return id, nil
}

// ConfigureAccess applies sharing grants to the destination folder so
// every artifact in it inherits them. Grant failures are logged and
// the remaining grants still run.
func (p *Provider) ConfigureAccess(ctx context.Context, sharing config.SharingConfig) bool {
	if p.api == nil {
		return false
	}
	folderID, err := p.ensureFolder(ctx)
	if err != nil {
		p.log.Warnf("Cannot resolve destination folder: %s", secrets.Mask(err.Error()))
		return false
	}

	role := sharing.Role
	if role == "" {
		role = config.DefaultShareRole
	}

	ok := true
	for _, email := range sharing.Emails {
		perm := permission{Type: "user", Role: role, Email: email}
		if err := p.api.CreatePermission(ctx, folderID, perm); err != nil {
			p.log.Warnf("Could not share with %s: %s", secrets.Mask(email), secrets.Mask(err.Error()))
			ok = false
			continue
		}
		p.log.Infof("Shared folder with %s as %s", secrets.Mask(email), role)
	}

	if sharing.MakePublic {
		perm := permission{Type: "anyone", Role: "reader"}
		if err := p.api.CreatePermission(ctx, folderID, perm); err != nil {
			p.log.Warnf("Could not make folder public: %s", secrets.Mask(err.Error()))
			ok = false
		} else {
			p.log.Infof("Folder is publicly readable")
		}
	}
	return ok
}

// CleanupOldFiles removes artifacts created before the retention
// cutoff. A destination folder that does not exist yet means there is
// nothing to clean.
func (p *Provider) CleanupOldFiles(ctx context.Context, retentionDays int) (int, error) {
	if p.api == nil {
		return 0, fmt.Errorf("not authenticated")
	}
	folderID, err := p.api.FindFolder(ctx, p.cfg.Storage.Folder)
	if err != nil {
		return 0, err
	}
	if folderID == "" {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -retentionDays)
	old, err := p.api.ListOlderThan(ctx, folderID, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range old {
		if err := p.api.Delete(ctx, f.ID); err != nil {
			if errors.Is(err, errNotFound) {
				p.log.Debugf("Backup %s was already gone", f.Name)
				continue
			}
			p.log.Warnf("Could not delete %s: %s", f.Name, secrets.Mask(err.Error()))
			continue
		}
		p.log.Debugf("Deleted expired backup %s", f.Name)
		deleted++
	}
	if deleted > 0 {
		p.log.Infof("Removed %d expired backup(s)", deleted)
	}
	return deleted, nil
}

func (p *Provider) ensureFolder(ctx context.Context) (string, error) {
	if p.folderID != "" {
		return p.folderID, nil
	}
	id, err := p.api.FindFolder(ctx, p.cfg.Storage.Folder)
	if err != nil {
		return "", fmt.Errorf("find folder: %w", err)
	}
	if id == "" {
		id, err = p.api.CreateFolder(ctx, p.cfg.Storage.Folder)
		if err != nil {
			return "", fmt.Errorf("create folder: %w", err)
		}
		p.log.Infof("Created destination folder %s", p.cfg.Storage.Folder)
	}
	p.folderID = id
	return id, nil
}
