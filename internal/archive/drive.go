package archive

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Drive archives images in a (possibly shared) Google Drive folder
type Drive struct {
	svc      *drive.Service
	folderID string
}

// NewDrive returns a Drive strategy. An empty folderID uploads to the root of
// the service account's drive.
func NewDrive(svc *drive.Service, folderID string) *Drive {
	return &Drive{svc: svc, folderID: folderID}
}

func (d *Drive) Name() string { return "drive" }

// Store uploads the asset, grants anyone-with-the-link read access and
// returns the file's view link
func (d *Drive) Store(ctx context.Context, asset Asset) (string, error) {
	file := &drive.File{Name: asset.Filename}
	if d.folderID != "" {
		file.Parents = []string{d.folderID}
	}

	created, err := d.svc.Files.Create(file).
		Media(bytes.NewReader(asset.Data), googleapi.ContentType(asset.MIMEType)).
		SupportsAllDrives(true).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to drive: %w", asset.Filename, err)
	}

	_, err = d.svc.Permissions.Create(created.Id, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to share drive file %s: %w", created.Id, err)
	}

	return viewLink(created), nil
}

func viewLink(f *drive.File) string {
	if f.WebViewLink != "" {
		return f.WebViewLink
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", f.Id)
}
