package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/tonimelisma/sharepoint-go/internal/logging"
)

// shareLinkSegment matches the first path segment of a sharing link, e.g.
// ":x:" in https://tenant.sharepoint.com/:x:/s/Site/Token.
var shareLinkSegment = regexp.MustCompile(`^:[a-zA-Z]:$`)

var errNotSharePointURL = errors.New("sharepoint: not a site, drive or share link URL")

// WebURL is a parsed human-facing SharePoint URL. It is either a share link
// or a hosted path of the form /{sites|teams}/{site}/{drive}/{item path}.
type WebURL struct {
	Raw    string
	Scheme string
	Host   string

	// Collection is "sites" or "teams". Empty for share links.
	Collection string
	SiteName   string

	// DriveName and ItemPath are URL-decoded. Either may be empty.
	DriveName string
	ItemPath  string

	shareLink bool
}

// ParseWebURL classifies raw as a share link or a hosted path.
func ParseWebURL(raw string) (*WebURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("sharepoint: parsing url: %w", err)
	}

	if u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", errNotSharePointURL, raw)
	}

	var segs []string

	for _, s := range strings.Split(strings.Trim(u.EscapedPath(), "/"), "/") {
		if s == "" {
			continue
		}

		dec, err := url.PathUnescape(s)
		if err != nil {
			return nil, fmt.Errorf("sharepoint: decoding url segment %q: %w", s, err)
		}

		segs = append(segs, dec)
	}

	w := &WebURL{Raw: raw, Scheme: u.Scheme, Host: u.Host}

	if len(segs) > 0 && shareLinkSegment.MatchString(segs[0]) {
		w.shareLink = true
		return w, nil
	}

	if len(segs) < 2 || (segs[0] != "sites" && segs[0] != "teams") {
		return nil, fmt.Errorf("%w: %q", errNotSharePointURL, raw)
	}

	w.Collection = segs[0]
	w.SiteName = segs[1]

	if len(segs) > 2 {
		w.DriveName = segs[2]
	}

	if len(segs) > 3 {
		w.ItemPath = strings.Join(segs[3:], "/")
	}

	return w, nil
}

// IsShareLink reports whether the URL is a sharing link.
func (w *WebURL) IsShareLink() bool {
	return w.shareLink
}

// RelativeServerURL returns the "{host}:/{collection}/{site}" form accepted
// by GET /sites/{relative}.
func (w *WebURL) RelativeServerURL() string {
	return w.Host + ":/" + w.Collection + "/" + url.PathEscape(w.SiteName)
}

// SearchTerm is the term used when the direct site lookup fails.
func (w *WebURL) SearchTerm() string {
	return w.SiteName
}

// SiteResolver finds the site a hosted URL points into.
type SiteResolver interface {
	ResolveSite(ctx context.Context, u *WebURL) (*Site, error)
}

// lookupThenSearch asks for the site by relative server URL and, when that
// 404s, searches by site name and takes the first hit. The search can pick a
// different site with a similar name.
type lookupThenSearch struct {
	client *Client
}

func (r *lookupThenSearch) ResolveSite(ctx context.Context, u *WebURL) (*Site, error) {
	c := r.client

	c.logger.Info("resolving site by url",
		slog.String("host", u.Host),
		slog.String("site", u.SiteName),
	)

	site, err := c.fetchSite(ctx, "/sites/"+u.RelativeServerURL())
	if err != nil || site != nil {
		return site, err
	}

	c.logger.Info("site not found by url, searching",
		slog.String("search", u.SearchTerm()),
	)

	sites, err := c.GetSites(ctx, u.SearchTerm())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if len(sites) == 0 {
		return nil, nil
	}

	return &sites[0], nil
}

// Path resolves a SharePoint URL to the item it names. Share links go
// through /shares; hosted URLs resolve site, then drive by name, then the
// item by path. A URL that resolves to nothing at any stage, or is not a
// SharePoint URL at all, yields (nil, nil).
func (c *Client) Path(ctx context.Context, raw string) (DriveItem, error) {
	u, err := ParseWebURL(raw)
	if err != nil {
		c.logger.Warn("cannot resolve url", logging.Err(err))
		return nil, nil
	}

	if u.IsShareLink() {
		return c.GetShares(ctx, raw)
	}

	site, err := c.GetSite(ctx, SiteQuery{WebURL: raw})
	if err != nil || site == nil {
		return nil, err
	}

	if u.DriveName == "" {
		c.logger.Debug("url names no drive", slog.String("site_id", site.ID))
		return nil, nil
	}

	res, err := c.GetDrive(ctx, DriveQuery{SiteID: site.ID, Name: u.DriveName})
	if err != nil || res == nil || res.Drive == nil {
		return nil, err
	}

	return c.GetDriveItems(ctx, ItemQuery{
		SiteID:  site.ID,
		DriveID: res.Drive.ID,
		Path:    u.ItemPath,
	})
}
