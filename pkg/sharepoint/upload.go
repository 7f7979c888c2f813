package sharepoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// UploadOptions addresses an upload. Empty SiteID and DriveID fall back to
// the current site and drive; an empty FolderID means the drive root.
type UploadOptions struct {
	ContentType string
	SiteID      string
	DriveID     string
	FolderID    string
}

// UploadFile writes data as name in one simple PUT, replacing any existing
// file of that name. Without a site and drive it returns a
// *ConfigurationError and sends nothing. An HTTP failure is an *UploadError.
func (c *Client) UploadFile(ctx context.Context, data []byte, name string, opts UploadOptions) (*DriveFile, error) {
	siteID, driveID := c.addressing(opts.SiteID, opts.DriveID)
	if siteID == "" || driveID == "" {
		return nil, &ConfigurationError{Message: "Site ID and Drive ID are required"}
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	var path string
	if opts.FolderID != "" {
		path = fmt.Sprintf("%s/items/%s:/%s:/content", drivePath(siteID, driveID), opts.FolderID, url.PathEscape(name))
	} else {
		path = fmt.Sprintf("%s/root:/%s:/content", drivePath(siteID, driveID), url.PathEscape(name))
	}

	c.logger.Info("uploading file",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("folder_id", opts.FolderID),
		slog.String("name", name),
		slog.Int("size", len(data)),
	)

	// The body must be non-nil so an empty file still carries Content-Type.
	if data == nil {
		data = []byte{}
	}

	resp, err := c.putContent(ctx, path, data, http.Header{"Content-Type": {contentType}})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &UploadError{StatusCode: apiErr.StatusCode, Err: apiErr}
		}

		return nil, err
	}
	defer resp.Body.Close()

	var dir driveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&dir); err != nil {
		return nil, fmt.Errorf("sharepoint: decoding upload response: %w", err)
	}

	return dir.toFile(siteID, driveID, c.logger), nil
}

// Upload resolves spPath, which must name a folder, and uploads the local
// file into it under its base name. A target that is not a folder, or does
// not exist, yields (nil, nil). Explicit ids in opts win over the ids taken
// from the folder; the content type is guessed when opts leaves it empty.
func (c *Client) Upload(ctx context.Context, localPath, spPath string, opts UploadOptions) (*DriveFile, error) {
	item, err := c.Path(ctx, spPath)
	if err != nil || item == nil {
		return nil, err
	}

	folder, ok := item.(*DriveFolder)
	if !ok {
		c.logger.Info("upload target is not a folder", slog.String("name", item.Info().Name))
		return nil, nil
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, &LocalFileError{Path: localPath, Err: err}
	}

	siteID, driveID := folder.location()

	if opts.SiteID == "" {
		opts.SiteID = siteID
	}

	if opts.DriveID == "" {
		opts.DriveID = driveID
	}

	if opts.FolderID == "" {
		opts.FolderID = folder.ID
	}

	name := filepath.Base(localPath)

	if opts.ContentType == "" {
		opts.ContentType = GuessContentType(name, data)
	}

	return c.UploadFile(ctx, data, name, opts)
}
