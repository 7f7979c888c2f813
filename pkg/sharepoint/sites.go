package sharepoint

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/tonimelisma/sharepoint-go/internal/logging"
)

// SiteQuery selects a site. The first non-empty field wins, in the order
// ID, Name, WebURL.
type SiteQuery struct {
	ID     string
	Name   string
	WebURL string
}

// GetSites lists the sites visible to the application, optionally filtered by
// a search term. An empty result is an empty slice, not an error.
func (c *Client) GetSites(ctx context.Context, search string) (Sites, error) {
	c.logger.Info("listing sites", slog.String("search", search))

	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}

	var slr sitesListResponse
	if err := c.getJSON(ctx, "/sites", query, "sites", &slr); err != nil {
		return nil, err
	}

	sites := make(Sites, 0, len(slr.Value))
	for i := range slr.Value {
		sites = append(sites, slr.Value[i].toSite(c.logger))
	}

	c.logger.Debug("listed sites", slog.Int("count", len(sites)))

	return sites, nil
}

// GetSite resolves one site and makes it the current site. It returns
// (nil, nil) when the query is empty or nothing matches.
func (c *Client) GetSite(ctx context.Context, q SiteQuery) (*Site, error) {
	var (
		site *Site
		err  error
	)

	switch {
	case q.ID != "":
		site, err = c.getSiteByID(ctx, q.ID)
	case q.Name != "":
		site, err = c.getSiteByName(ctx, q.Name)
	case q.WebURL != "":
		site, err = c.getSiteByWebURL(ctx, q.WebURL)
	default:
		return nil, nil
	}

	if err != nil || site == nil {
		return nil, err
	}

	c.currentSite = site

	return site, nil
}

func (c *Client) getSiteByID(ctx context.Context, id string) (*Site, error) {
	c.logger.Info("getting site", slog.String("site_id", id))

	return c.fetchSite(ctx, "/sites/"+id)
}

// fetchSite GETs a single site resource. 404 yields (nil, nil).
func (c *Client) fetchSite(ctx context.Context, path string) (*Site, error) {
	var sr siteResponse
	if err := c.getJSON(ctx, path, nil, "site", &sr); err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	site := sr.toSite(c.logger)

	return &site, nil
}

func (c *Client) getSiteByName(ctx context.Context, name string) (*Site, error) {
	c.logger.Info("finding site by name", slog.String("name", name))

	sites, err := c.GetSites(ctx, "")
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	site, ok := sites.ByName(name)
	if !ok {
		c.logger.Debug("no site with that name", slog.String("name", name))
		return nil, nil
	}

	return site, nil
}

func (c *Client) getSiteByWebURL(ctx context.Context, raw string) (*Site, error) {
	u, err := ParseWebURL(raw)
	if err != nil {
		c.logger.Warn("cannot resolve site from url", logging.Err(err))
		return nil, nil
	}

	if u.IsShareLink() {
		c.logger.Warn("share links do not address a site", slog.String("host", u.Host))
		return nil, nil
	}

	return c.resolver.ResolveSite(ctx, u)
}

// Drives lists the document libraries of the site.
func (s *Site) Drives(ctx context.Context, c *Client) (Drives, error) {
	res, err := c.GetDrive(ctx, DriveQuery{SiteID: s.ID})
	if err != nil || res == nil {
		return nil, err
	}

	return res.Drives, nil
}
