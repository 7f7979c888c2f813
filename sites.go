package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/pkg/sharepoint"
)

// errNotFound is returned by commands whose lookup came back empty.
var errNotFound = errors.New("not found")

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List or search sites",
		Args:  cobra.NoArgs,
		RunE:  runSites,
	}

	cmd.Flags().String("search", "", "search term")

	return cmd
}

func newSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Show one site, looked up by id, name or web URL",
		Args:  cobra.NoArgs,
		RunE:  runSite,
	}

	cmd.Flags().String("id", "", "site id")
	cmd.Flags().String("name", "", "site name")
	cmd.Flags().String("url", "", "site web URL")
	cmd.MarkFlagsOneRequired("id", "name", "url")

	return cmd
}

func newDrivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drives",
		Short: "List the document libraries of a site",
		Args:  cobra.NoArgs,
		RunE:  runDrives,
	}

	cmd.Flags().String("site-id", "", "site id")
	cmd.Flags().String("site-url", "", "site web URL")
	cmd.MarkFlagsOneRequired("site-id", "site-url")
	cmd.MarkFlagsMutuallyExclusive("site-id", "site-url")

	return cmd
}

// session builds the logger and client for an API command. The returned
// func closes the log file.
func session() (*sharepoint.Client, *slog.Logger, func(), error) {
	logger, closer := buildLogger()
	done := func() { closer.Close() }

	client, err := newClient(resolvedCfg, logger)
	if err != nil {
		done()
		return nil, nil, nil, err
	}

	return client, logger, done, nil
}

func runSites(cmd *cobra.Command, _ []string) error {
	search, _ := cmd.Flags().GetString("search")

	client, _, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	sites, err := client.GetSites(cmd.Context(), search)
	if err != nil {
		return fmt.Errorf("listing sites: %w", err)
	}

	return printSites(cmd.OutOrStdout(), sites)
}

func runSite(cmd *cobra.Command, _ []string) error {
	var q sharepoint.SiteQuery

	q.ID, _ = cmd.Flags().GetString("id")
	q.Name, _ = cmd.Flags().GetString("name")
	q.WebURL, _ = cmd.Flags().GetString("url")

	client, _, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	site, err := client.GetSite(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("getting site: %w", err)
	}

	if site == nil {
		return fmt.Errorf("site: %w", errNotFound)
	}

	return printSites(cmd.OutOrStdout(), sharepoint.Sites{*site})
}

func runDrives(cmd *cobra.Command, _ []string) error {
	siteID, _ := cmd.Flags().GetString("site-id")
	siteURL, _ := cmd.Flags().GetString("site-url")

	client, _, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()

	if siteID == "" {
		site, err := client.GetSite(ctx, sharepoint.SiteQuery{WebURL: siteURL})
		if err != nil {
			return fmt.Errorf("getting site: %w", err)
		}

		if site == nil {
			return fmt.Errorf("site %s: %w", siteURL, errNotFound)
		}

		siteID = site.ID
	}

	res, err := client.GetDrive(ctx, sharepoint.DriveQuery{SiteID: siteID})
	if err != nil {
		return fmt.Errorf("listing drives: %w", err)
	}

	if res == nil {
		return fmt.Errorf("drives of site %s: %w", siteID, errNotFound)
	}

	return printDrives(cmd.OutOrStdout(), res.Drives)
}

func printSites(w io.Writer, sites sharepoint.Sites) error {
	if flagJSON {
		return printJSON(w, sites)
	}

	rows := make([][]string, 0, len(sites))
	for i := range sites {
		rows = append(rows, []string{sites[i].Name, sites[i].ID, sites[i].WebURL})
	}

	printTable(w, []string{"NAME", "ID", "WEB URL"}, rows)

	return nil
}

func printDrives(w io.Writer, drives sharepoint.Drives) error {
	if flagJSON {
		return printJSON(w, drives)
	}

	rows := make([][]string, 0, len(drives))
	for i := range drives {
		d := &drives[i]
		rows = append(rows, []string{d.Name, d.DriveType, formatSize(d.Quota.Used), formatSize(d.Quota.Total), d.ID})
	}

	printTable(w, []string{"NAME", "TYPE", "USED", "TOTAL", "ID"}, rows)

	return nil
}
