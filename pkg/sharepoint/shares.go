package sharepoint

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
)

// EncodeShareLink turns a sharing URL into the token accepted by /shares:
// "u!" followed by the unpadded base64url encoding of the URL.
func EncodeShareLink(raw string) string {
	return "u!" + strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(raw)), "=")
}

// GetShares resolves a sharing URL to the item it points at. Folders are
// returned without children. A 404 yields (nil, nil).
func (c *Client) GetShares(ctx context.Context, raw string) (DriveItem, error) {
	c.logger.Info("resolving share link")

	item, err := c.fetchItem(ctx, "/shares/"+EncodeShareLink(raw)+"/driveItem", "", "")
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	siteID, driveID := item.Info().location()
	c.logger.Debug("share link resolved",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("item_id", item.Info().ID),
	)

	return item, nil
}
