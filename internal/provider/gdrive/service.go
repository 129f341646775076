package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// errNotFound reports a Drive file that no longer exists, so cleanup
// can treat it as already gone instead of deleted.
var errNotFound = errors.New("file not found")

// remoteFile is the slice of Drive metadata the sink cares about.
type remoteFile struct {
	ID      string
	Name    string
	Created time.Time
}

// permission describes one access grant. Email is empty for the
// public "anyone" grant.
type permission struct {
	Type  string
	Role  string
	Email string
}

// driveAPI narrows the Drive surface to what the sink uses, so tests
// can substitute a fake without touching the network.
type driveAPI interface {
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	UploadFile(ctx context.Context, folderID, name string, r io.Reader) (string, error)
	CreatePermission(ctx context.Context, fileID string, perm permission) error
	ListOlderThan(ctx context.Context, folderID string, cutoff time.Time) ([]remoteFile, error)
	Delete(ctx context.Context, fileID string) error
}

type driveService struct {
	svc *drive.Service
}

func newDriveService(ctx context.Context, client *http.Client) (*driveService, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("build drive client: %w", err)
	}
	return &driveService{svc: svc}, nil
}

func (d *driveService) FindFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	list, err := d.svc.Files.List().Q(q).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (d *driveService) CreateFolder(ctx context.Context, name string) (string, error) {
	f, err := d.svc.Files.Create(&drive.File{Name: name, MimeType: folderMimeType}).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (d *driveService) UploadFile(ctx context.Context, folderID, name string, r io.Reader) (string, error) {
	f, err := d.svc.Files.Create(&drive.File{Name: name, Parents: []string{folderID}}).
		Media(r).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (d *driveService) CreatePermission(ctx context.Context, fileID string, perm permission) error {
	p := &drive.Permission{Type: perm.Type, Role: perm.Role, EmailAddress: perm.Email}
	_, err := d.svc.Permissions.Create(fileID, p).Context(ctx).Do()
	return err
}

func (d *driveService) ListOlderThan(ctx context.Context, folderID string, cutoff time.Time) ([]remoteFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType != '%s' and createdTime < '%s' and trashed = false",
		folderID, folderMimeType, cutoff.UTC().Format(time.RFC3339))

	var out []remoteFile
	pageToken := ""
	for {
		call := d.svc.Files.List().Q(q).Fields("nextPageToken, files(id, name, createdTime)").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, f := range list.Files {
			created, _ := time.Parse(time.RFC3339, f.CreatedTime)
			out = append(out, remoteFile{ID: f.Id, Name: f.Name, Created: created})
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		pageToken = list.NextPageToken
	}
}

func (d *driveService) Delete(ctx context.Context, fileID string) error {
	err := d.svc.Files.Delete(fileID).Context(ctx).Do()
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == http.StatusNotFound {
		return errNotFound
	}
	return err
}

// escapeQuery protects single quotes inside Drive query literals.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
