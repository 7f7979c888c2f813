package sharepoint

import (
	"time"
)

// Site is one SharePoint site as returned by /sites.
type Site struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description,omitempty"`
	WebURL      string    `json:"webUrl"`
	CreatedAt   time.Time `json:"createdDateTime"`
	ModifiedAt  time.Time `json:"lastModifiedDateTime"`
}

func (s *Site) String() string {
	return "Site: " + s.Name
}

// Sites is a site collection in API response order.
type Sites []Site

// ByName returns the first site whose Name equals name exactly.
func (s Sites) ByName(name string) (*Site, bool) {
	for i := range s {
		if s[i].Name == name {
			return &s[i], true
		}
	}

	return nil, false
}

// Quota is the storage usage of a drive, in bytes.
type Quota struct {
	Total     int64  `json:"total"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Deleted   int64  `json:"deleted"`
	State     string `json:"state,omitempty"`
}

// Drive is a document library within a site.
type Drive struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	WebURL      string    `json:"webUrl"`
	DriveType   string    `json:"driveType"`
	Quota       Quota     `json:"quota"`
	CreatedAt   time.Time `json:"createdDateTime"`
	ModifiedAt  time.Time `json:"lastModifiedDateTime"`

	// SiteID is the site the drive was fetched through. Not part of the
	// API payload.
	SiteID string `json:"siteId,omitempty"`
}

func (d *Drive) String() string {
	return "Drive: " + d.Name
}

// Drives is a drive collection, ordered and unique by ID.
type Drives []Drive

// ByName returns the first drive whose Name equals name exactly.
func (d Drives) ByName(name string) (*Drive, bool) {
	for i := range d {
		if d[i].Name == name {
			return &d[i], true
		}
	}

	return nil, false
}

// ByID returns the drive with the given ID.
func (d Drives) ByID(id string) (*Drive, bool) {
	for i := range d {
		if d[i].ID == id {
			return &d[i], true
		}
	}

	return nil, false
}

// DriveResult is what GetDrive resolved: either a single Drive, or every
// drive of the site when neither an ID nor a name was given.
type DriveResult struct {
	Drive  *Drive
	Drives Drives
}

// ParentReference locates an item's parent.
type ParentReference struct {
	DriveID   string `json:"driveId,omitempty"`
	DriveType string `json:"driveType,omitempty"`
	SiteID    string `json:"siteId,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Path      string `json:"path,omitempty"`
}

// ItemInfo holds the fields shared by files and folders.
type ItemInfo struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Size            int64           `json:"size"`
	WebURL          string          `json:"webUrl,omitempty"`
	ETag            string          `json:"eTag,omitempty"`
	CreatedAt       time.Time       `json:"createdDateTime"`
	ModifiedAt      time.Time       `json:"lastModifiedDateTime"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	ModifiedBy      string          `json:"lastModifiedBy,omitempty"`
	ParentReference ParentReference `json:"parentReference"`

	// SiteID and DriveID are the addressing context the item was fetched
	// with. They fill in for parentReference fields the API omits.
	SiteID  string `json:"siteId,omitempty"`
	DriveID string `json:"driveId,omitempty"`
}

// Info returns the shared fields.
func (i *ItemInfo) Info() *ItemInfo {
	return i
}

// location returns the site and drive of the item, preferring the
// parentReference values.
func (i *ItemInfo) location() (siteID, driveID string) {
	siteID, driveID = i.ParentReference.SiteID, i.ParentReference.DriveID
	if siteID == "" {
		siteID = i.SiteID
	}

	if driveID == "" {
		driveID = i.DriveID
	}

	return siteID, driveID
}

// DriveItem is either a *DriveFile or a *DriveFolder. The set is closed:
// use a type switch to tell them apart.
type DriveItem interface {
	Info() *ItemInfo
	String() string
	driveItem()
}

// Hashes are the content hashes Graph reports for a file.
type Hashes struct {
	QuickXor string `json:"quickXorHash,omitempty"`
	SHA1     string `json:"sha1Hash,omitempty"`
	SHA256   string `json:"sha256Hash,omitempty"`
}

// DriveFile is a file in a drive.
type DriveFile struct {
	ItemInfo

	// DownloadURL is pre-authenticated and short-lived. It can be empty for
	// some item types. Never log it.
	DownloadURL string `json:"-"`
	MimeType    string `json:"mimeType,omitempty"`
	Hashes      Hashes `json:"hashes"`
}

func (*DriveFile) driveItem() {}

func (f *DriveFile) String() string {
	return "File: " + f.Name
}

// DriveFolder is a folder in a drive. Children is nil until the folder's
// children are listed (an empty folder then has an empty, non-nil slice); it
// is not kept in sync afterwards.
type DriveFolder struct {
	ItemInfo

	ChildCount int         `json:"childCount"`
	Children   []DriveItem `json:"children,omitempty"`
}

func (*DriveFolder) driveItem() {}

func (f *DriveFolder) String() string {
	return "Folder: " + f.Name
}

// Files returns the file children, skipping subfolders.
func (f *DriveFolder) Files() []*DriveFile {
	var files []*DriveFile

	for _, child := range f.Children {
		if file, ok := child.(*DriveFile); ok {
			files = append(files, file)
		}
	}

	return files
}

// LocalFile describes a file written to the local filesystem by a download.
type LocalFile struct {
	Path        string
	Name        string
	Size        int64
	ContentType string

	// HashVerified is true when the content matched the QuickXorHash Graph
	// reported. It stays false when hash checking is off, when the item
	// had no hash, or when a mismatch was accepted after retries.
	HashVerified bool
}
