package sharepoint

import (
	"context"
	"fmt"
	"log/slog"
)

// DriveQuery selects a drive. SiteID defaults to the current site. With
// neither ID nor Name every drive of the site is returned.
type DriveQuery struct {
	SiteID string
	ID     string
	Name   string
}

// GetDrive resolves a drive, or all drives of a site. A single resolved drive
// becomes the current drive; a full listing leaves the current drive alone.
// It returns (nil, nil) without a site, on 404, or when no name matches.
func (c *Client) GetDrive(ctx context.Context, q DriveQuery) (*DriveResult, error) {
	siteID := q.SiteID
	if siteID == "" && c.currentSite != nil {
		siteID = c.currentSite.ID
	}

	if siteID == "" {
		c.logger.Debug("no site for drive lookup")
		return nil, nil
	}

	if q.ID != "" {
		drive, err := c.getDriveByID(ctx, siteID, q.ID)
		if err != nil || drive == nil {
			return nil, err
		}

		c.currentDrive = drive

		return &DriveResult{Drive: drive}, nil
	}

	drives, err := c.ListDrives(ctx, siteID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if q.Name == "" {
		return &DriveResult{Drives: drives}, nil
	}

	drive, ok := drives.ByName(q.Name)
	if !ok {
		c.logger.Debug("no drive with that name",
			slog.String("site_id", siteID),
			slog.String("name", q.Name),
		)

		return nil, nil
	}

	c.currentDrive = drive

	return &DriveResult{Drive: drive}, nil
}

// ListDrives returns every drive of the site. Errors, 404 included, propagate.
func (c *Client) ListDrives(ctx context.Context, siteID string) (Drives, error) {
	c.logger.Info("listing drives", slog.String("site_id", siteID))

	var dlr drivesListResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/sites/%s/drives", siteID), nil, "drives", &dlr); err != nil {
		return nil, err
	}

	drives := dlr.toDrives(siteID, c.logger)

	c.logger.Debug("listed drives", slog.Int("count", len(drives)))

	return drives, nil
}

func (c *Client) getDriveByID(ctx context.Context, siteID, driveID string) (*Drive, error) {
	c.logger.Info("getting drive",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
	)

	var dr driveResponse

	path := drivePath(siteID, driveID)
	if err := c.getJSON(ctx, path, nil, "drive", &dr); err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	drive := dr.toDrive(siteID, c.logger)

	return &drive, nil
}

// Root fetches the drive's root folder with its children.
func (d *Drive) Root(ctx context.Context, c *Client) (*DriveFolder, error) {
	item, err := c.GetDriveItems(ctx, ItemQuery{SiteID: d.SiteID, DriveID: d.ID})
	if err != nil || item == nil {
		return nil, err
	}

	folder, ok := item.(*DriveFolder)
	if !ok {
		return nil, nil
	}

	return folder, nil
}

// Item fetches an item of the drive by id, without loading a folder's
// children. Errors, 404 included, propagate.
func (d *Drive) Item(ctx context.Context, c *Client, itemID string) (DriveItem, error) {
	return c.GetItemByID(ctx, d.SiteID, d.ID, itemID)
}
