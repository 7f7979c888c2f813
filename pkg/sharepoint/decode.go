package sharepoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/sharepoint-go/internal/logging"
)

// Timestamp validation bounds. Timestamps outside this range are dropped
// (left as the zero time) and a warning is logged.
const (
	minValidYear = 1970
	maxValidYear = 2100
)

// siteResponse mirrors the Graph API site JSON.
// Unexported; callers use Site via toSite() normalization.
type siteResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	DisplayName          string `json:"displayName"`
	Description          string `json:"description"`
	WebURL               string `json:"webUrl"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
}

type sitesListResponse struct {
	Value []siteResponse `json:"value"`
}

func (s *siteResponse) toSite(logger *slog.Logger) Site {
	return Site{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
		Description: s.Description,
		WebURL:      s.WebURL,
		CreatedAt:   parseTimestamp(s.CreatedDateTime, "createdDateTime", s.ID, logger),
		ModifiedAt:  parseTimestamp(s.LastModifiedDateTime, "lastModifiedDateTime", s.ID, logger),
	}
}

// driveResponse mirrors the Graph API drive JSON response.
type driveResponse struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	WebURL               string      `json:"webUrl"`
	DriveType            string      `json:"driveType"`
	Quota                *quotaFacet `json:"quota"`
	CreatedDateTime      string      `json:"createdDateTime"`
	LastModifiedDateTime string      `json:"lastModifiedDateTime"`
}

// quotaFacet represents the quota block in a Graph API drive response.
type quotaFacet struct {
	Total     int64  `json:"total"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Deleted   int64  `json:"deleted"`
	State     string `json:"state"`
}

// drivesListResponse wraps the value array from GET /sites/{id}/drives.
type drivesListResponse struct {
	Value []driveResponse `json:"value"`
}

// toDrive normalizes a Graph API drive response. Nil-safe for quota.
func (d *driveResponse) toDrive(siteID string, logger *slog.Logger) Drive {
	drive := Drive{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		WebURL:      d.WebURL,
		DriveType:   d.DriveType,
		CreatedAt:   parseTimestamp(d.CreatedDateTime, "createdDateTime", d.ID, logger),
		ModifiedAt:  parseTimestamp(d.LastModifiedDateTime, "lastModifiedDateTime", d.ID, logger),
		SiteID:      siteID,
	}

	if d.Quota != nil {
		drive.Quota = Quota{
			Total:     d.Quota.Total,
			Used:      d.Quota.Used,
			Remaining: d.Quota.Remaining,
			Deleted:   d.Quota.Deleted,
			State:     d.Quota.State,
		}
	}

	return drive
}

// toDrives keeps response order and drops repeated IDs.
func (l *drivesListResponse) toDrives(siteID string, logger *slog.Logger) Drives {
	drives := make(Drives, 0, len(l.Value))
	seen := make(map[string]bool, len(l.Value))

	for i := range l.Value {
		if seen[l.Value[i].ID] {
			logger.Warn("duplicate drive in response",
				slog.String("drive_id", l.Value[i].ID),
			)

			continue
		}

		seen[l.Value[i].ID] = true
		drives = append(drives, l.Value[i].toDrive(siteID, logger))
	}

	return drives
}

// driveItemResponse mirrors the Graph API driveItem JSON.
type driveItemResponse struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Size                 int64        `json:"size"`
	WebURL               string       `json:"webUrl"`
	ETag                 string       `json:"eTag"`
	CreatedDateTime      string       `json:"createdDateTime"`
	LastModifiedDateTime string       `json:"lastModifiedDateTime"`
	CreatedBy            *identitySet `json:"createdBy"`
	LastModifiedBy       *identitySet `json:"lastModifiedBy"`
	ParentReference      *parentRef   `json:"parentReference"`
	File                 *fileFacet   `json:"file"`
	Folder               *folderFacet `json:"folder"`
	DownloadURL          string       `json:"@microsoft.graph.downloadUrl"` //nolint:tagliatelle // Graph API annotation key
}

type identitySet struct {
	User *struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
	Application *struct {
		DisplayName string `json:"displayName"`
	} `json:"application"`
}

// name prefers the user over the application identity.
func (s *identitySet) name() string {
	switch {
	case s == nil:
		return ""
	case s.User != nil:
		return s.User.DisplayName
	case s.Application != nil:
		return s.Application.DisplayName
	default:
		return ""
	}
}

type parentRef struct {
	DriveID   string `json:"driveId"`
	DriveType string `json:"driveType"`
	SiteID    string `json:"siteId"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

type fileFacet struct {
	MimeType string     `json:"mimeType"`
	Hashes   *hashFacet `json:"hashes"`
}

type hashFacet struct {
	QuickXorHash string `json:"quickXorHash"`
	SHA1Hash     string `json:"sha1Hash"`
	SHA256Hash   string `json:"sha256Hash"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type listChildrenResponse struct {
	Value    []driveItemResponse `json:"value"`
	NextLink string              `json:"@odata.nextLink"` //nolint:tagliatelle // OData annotation key
}

// toItem turns a driveItem payload into a *DriveFile or *DriveFolder.
// siteID and driveID are the context the item was requested under.
// Exactly one of the file and folder facets must be present.
func (d *driveItemResponse) toItem(siteID, driveID string, logger *slog.Logger) (DriveItem, error) {
	if (d.File == nil) == (d.Folder == nil) {
		return nil, fmt.Errorf("%w (id %q, file facet %t, folder facet %t)",
			ErrUnknownItemKind, d.ID, d.File != nil, d.Folder != nil)
	}

	info := ItemInfo{
		ID:         d.ID,
		Name:       d.Name,
		Size:       d.Size,
		WebURL:     d.WebURL,
		ETag:       d.ETag,
		CreatedAt:  parseTimestamp(d.CreatedDateTime, "createdDateTime", d.ID, logger),
		ModifiedAt: parseTimestamp(d.LastModifiedDateTime, "lastModifiedDateTime", d.ID, logger),
		CreatedBy:  d.CreatedBy.name(),
		ModifiedBy: d.LastModifiedBy.name(),
		SiteID:     siteID,
		DriveID:    driveID,
	}

	if d.ParentReference != nil {
		info.ParentReference = ParentReference{
			DriveID:   d.ParentReference.DriveID,
			DriveType: d.ParentReference.DriveType,
			SiteID:    d.ParentReference.SiteID,
			ID:        d.ParentReference.ID,
			Name:      d.ParentReference.Name,
			Path:      d.ParentReference.Path,
		}

		if info.DriveID == "" {
			info.DriveID = d.ParentReference.DriveID
		}

		if info.SiteID == "" {
			info.SiteID = d.ParentReference.SiteID
		}
	}

	if d.Folder != nil {
		return &DriveFolder{
			ItemInfo:   info,
			ChildCount: d.Folder.ChildCount,
		}, nil
	}

	file := &DriveFile{
		ItemInfo:    info,
		DownloadURL: d.DownloadURL,
		MimeType:    d.File.MimeType,
	}

	if d.File.Hashes != nil {
		file.Hashes = Hashes{
			QuickXor: d.File.Hashes.QuickXorHash,
			SHA1:     d.File.Hashes.SHA1Hash,
			SHA256:   d.File.Hashes.SHA256Hash,
		}
	}

	return file, nil
}

// toFile decodes an upload response. Upload responses describe the file
// just written, so a missing file facet is tolerated.
func (d *driveItemResponse) toFile(siteID, driveID string, logger *slog.Logger) *DriveFile {
	if d.File == nil {
		d.File = &fileFacet{}
	}

	d.Folder = nil

	item, _ := d.toItem(siteID, driveID, logger) //nolint:errcheck // facets fixed above

	return item.(*DriveFile)
}

// decodeItem decodes one driveItem JSON document.
func decodeItem(data []byte, siteID, driveID string, logger *slog.Logger) (DriveItem, error) {
	var dir driveItemResponse
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("sharepoint: decoding item response: %w", err)
	}

	return dir.toItem(siteID, driveID, logger)
}

// parseTimestamp parses an RFC3339 timestamp and validates the year range.
// Empty values yield the zero time; invalid or out-of-range values are
// logged and also yield the zero time.
func parseTimestamp(raw, field, id string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid timestamp, ignoring",
			slog.String("field", field),
			slog.String("id", id),
			slog.String("raw", raw),
			logging.Err(err),
		)

		return time.Time{}
	}

	if t.Year() < minValidYear || t.Year() > maxValidYear {
		logger.Warn("timestamp out of valid range, ignoring",
			slog.String("field", field),
			slog.String("id", id),
			slog.String("raw", raw),
		)

		return time.Time{}
	}

	return t
}
