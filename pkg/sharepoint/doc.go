// Package sharepoint is a client for SharePoint document libraries through
// the Microsoft Graph API.
//
// A Client authenticates as an application with the client-credentials
// grant and addresses sites, drives and drive items by id, by name or by the
// URL a user sees in the browser:
//
//	c, err := sharepoint.New(sharepoint.Credentials{
//		TenantID:     tenant,
//		ClientID:     appID,
//		ClientSecret: secret,
//	})
//	item, err := c.Path(ctx, "https://contoso.sharepoint.com/sites/Team/Shared%20Documents/Reports")
//
// Lookups (GetSite, GetDrive, GetDriveItems, Path, GetShares) return a nil
// result, not an error, when the target does not exist. Every other failure
// is returned as one of the typed errors in this package.
package sharepoint
