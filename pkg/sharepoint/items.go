package sharepoint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ItemQuery selects a drive item. SiteID and DriveID default to the current
// site and drive. ItemID and Path combine as follows:
//
//	ItemID only      /items/{id}
//	Path only        /root:/{path}
//	ItemID and Path  /items/{id}:/{path}
//	neither          /root
type ItemQuery struct {
	SiteID  string
	DriveID string
	ItemID  string
	Path    string
}

// drivePath returns the resource path of a drive within a site.
func drivePath(siteID, driveID string) string {
	return fmt.Sprintf("/sites/%s/drives/%s", siteID, driveID)
}

// itemPath builds the resource path for an item addressed by id, path, both
// or neither. A leading slash on p is ignored.
func itemPath(siteID, driveID, itemID, p string) string {
	base := drivePath(siteID, driveID)
	p = strings.TrimPrefix(p, "/")

	switch {
	case itemID != "" && p != "":
		return fmt.Sprintf("%s/items/%s:/%s", base, itemID, encodePathSegments(p))
	case itemID != "":
		return fmt.Sprintf("%s/items/%s", base, itemID)
	case p != "":
		return fmt.Sprintf("%s/root:/%s", base, encodePathSegments(p))
	default:
		return base + "/root"
	}
}

// encodePathSegments URL-encodes each segment of a slash-separated path.
// Slashes are preserved as path separators; special characters within
// segments (spaces, #, %, etc.) are percent-encoded.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}

// addressing fills in the current site and drive for empty ids.
func (c *Client) addressing(siteID, driveID string) (string, string) {
	if siteID == "" && c.currentSite != nil {
		siteID = c.currentSite.ID
	}

	if driveID == "" && c.currentDrive != nil {
		driveID = c.currentDrive.ID
	}

	return siteID, driveID
}

// GetDriveItems fetches one item. A folder comes back with its direct
// children loaded (one extra request, plus one per further page). It returns
// (nil, nil) when the site or drive is unknown or the item does not exist.
func (c *Client) GetDriveItems(ctx context.Context, q ItemQuery) (DriveItem, error) {
	siteID, driveID := c.addressing(q.SiteID, q.DriveID)
	if siteID == "" || driveID == "" {
		c.logger.Debug("no site or drive for item lookup",
			slog.String("site_id", siteID),
			slog.String("drive_id", driveID),
		)

		return nil, nil
	}

	c.logger.Info("getting drive item",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("item_id", q.ItemID),
		slog.String("path", q.Path),
	)

	item, err := c.fetchItem(ctx, itemPath(siteID, driveID, q.ItemID, q.Path), siteID, driveID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	folder, ok := item.(*DriveFolder)
	if !ok {
		return item, nil
	}

	children, err := c.ListChildren(ctx, siteID, driveID, folder.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	folder.Children = children

	return folder, nil
}

// GetItemByID fetches an item without its children. Errors, 404 included,
// propagate.
func (c *Client) GetItemByID(ctx context.Context, siteID, driveID, itemID string) (DriveItem, error) {
	c.logger.Info("getting item",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("item_id", itemID),
	)

	return c.fetchItem(ctx, itemPath(siteID, driveID, itemID, ""), siteID, driveID)
}

// fetchItem GETs a single driveItem resource and decodes it.
func (c *Client) fetchItem(ctx context.Context, path, siteID, driveID string) (DriveItem, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sharepoint: reading item response: %w", err)
	}

	return decodeItem(data, siteID, driveID, c.logger)
}

// ListChildren returns all children of a folder, following @odata.nextLink.
// Children that are neither a file nor a folder are skipped with a warning.
func (c *Client) ListChildren(ctx context.Context, siteID, driveID, itemID string) ([]DriveItem, error) {
	c.logger.Info("listing children",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("item_id", itemID),
	)

	all := []DriveItem{}

	path := fmt.Sprintf("%s/items/%s/children", drivePath(siteID, driveID), itemID)

	for page := 1; path != ""; page++ {
		items, next, err := c.listChildrenPage(ctx, path, siteID, driveID, page)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)
		path = next
	}

	c.logger.Debug("listed children complete", slog.Int("count", len(all)))

	return all, nil
}

// listChildrenPage fetches a single page of children and returns the items
// and the next page path (empty if no more pages).
func (c *Client) listChildrenPage(
	ctx context.Context, path, siteID, driveID string, page int,
) ([]DriveItem, string, error) {
	var lcr listChildrenResponse
	if err := c.getJSON(ctx, path, nil, "children", &lcr); err != nil {
		return nil, "", err
	}

	items := make([]DriveItem, 0, len(lcr.Value))

	for i := range lcr.Value {
		item, err := lcr.Value[i].toItem(siteID, driveID, c.logger)
		if err != nil {
			c.logger.Warn("skipping child of unknown kind",
				slog.String("item_id", lcr.Value[i].ID),
				slog.String("name", lcr.Value[i].Name),
			)

			continue
		}

		items = append(items, item)
	}

	c.logger.Debug("fetched children page",
		slog.Int("page", page),
		slog.Int("count", len(items)),
	)

	var nextPath string
	if lcr.NextLink != "" {
		var stripErr error

		nextPath, stripErr = c.stripBaseURL(lcr.NextLink)
		if stripErr != nil {
			return nil, "", stripErr
		}
	}

	return items, nextPath, nil
}

// Child returns the direct child with the given name from the loaded
// Children. Names are compared after NFC normalization.
func (f *DriveFolder) Child(name string) (DriveItem, error) {
	want := norm.NFC.String(name)

	for _, child := range f.Children {
		if norm.NFC.String(child.Info().Name) == want {
			return child, nil
		}
	}

	return nil, fmt.Errorf("%w: %q in %q", ErrChildNotFound, name, f.Name)
}

// ListChildren re-fetches the folder's children and stores them in Children.
func (f *DriveFolder) ListChildren(ctx context.Context, c *Client) ([]DriveItem, error) {
	siteID, driveID := f.location()

	children, err := c.ListChildren(ctx, siteID, driveID, f.ID)
	if err != nil {
		return nil, err
	}

	f.Children = children

	return children, nil
}

// UploadFile uploads data as a new file named name inside the folder. The
// content type is inferred from the name, then from the data.
func (f *DriveFolder) UploadFile(ctx context.Context, c *Client, name string, data []byte) (*DriveFile, error) {
	siteID, driveID := f.location()

	return c.UploadFile(ctx, data, name, UploadOptions{
		ContentType: GuessContentType(name, data),
		SiteID:      siteID,
		DriveID:     driveID,
		FolderID:    f.ID,
	})
}
