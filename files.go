package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/pkg/sharepoint"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <web-url>",
		Short: "List a folder, or show a file, by its SharePoint web URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <web-url> [local-dir]",
		Short: "Download a file, or a folder with --recursive",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}

	cmd.Flags().BoolP("recursive", "r", false, "download a folder and all its subfolders")
	cmd.Flags().BoolP("no-clobber", "n", false, "with --recursive, skip files that already exist locally")

	return cmd
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-file> <folder-web-url>",
		Short: "Upload a file into a folder",
		Args:  cobra.ExactArgs(2),
		RunE:  runPut,
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	client, logger, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	logger.Debug("ls", slog.String("url", args[0]))

	item, err := client.Path(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	if item == nil {
		return fmt.Errorf("%s: %w", args[0], errNotFound)
	}

	items := []sharepoint.DriveItem{item}

	if folder, ok := item.(*sharepoint.DriveFolder); ok {
		// Share links resolve without children.
		if folder.Children == nil {
			if _, err := folder.ListChildren(cmd.Context(), client); err != nil {
				return fmt.Errorf("listing %s: %w", args[0], err)
			}
		}

		items = folder.Children
	}

	if flagJSON {
		return printItemsJSON(cmd.OutOrStdout(), items)
	}

	printItemsTable(cmd.OutOrStdout(), items)

	return nil
}

// lsJSONItem is the JSON output schema for a single item in ls output.
type lsJSONItem struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	IsFolder   bool   `json:"is_folder"`
	ModifiedAt string `json:"modified_at"`
	ModifiedBy string `json:"modified_by,omitempty"`
	ID         string `json:"id"`
	WebURL     string `json:"web_url,omitempty"`
}

func printItemsJSON(w io.Writer, items []sharepoint.DriveItem) error {
	out := make([]lsJSONItem, 0, len(items))

	for _, item := range items {
		info := item.Info()
		_, isFolder := item.(*sharepoint.DriveFolder)

		out = append(out, lsJSONItem{
			Name:       info.Name,
			Size:       info.Size,
			IsFolder:   isFolder,
			ModifiedAt: info.ModifiedAt.UTC().Format("2006-01-02T15:04:05Z"),
			ModifiedBy: info.ModifiedBy,
			ID:         info.ID,
			WebURL:     info.WebURL,
		})
	}

	return printJSON(w, out)
}

func printItemsTable(w io.Writer, items []sharepoint.DriveItem) {
	sorted := make([]sharepoint.DriveItem, len(items))
	copy(sorted, items)

	// Folders first, then alphabetical.
	sort.SliceStable(sorted, func(i, j int) bool {
		_, fi := sorted[i].(*sharepoint.DriveFolder)
		_, fj := sorted[j].(*sharepoint.DriveFolder)

		if fi != fj {
			return fi
		}

		return sorted[i].Info().Name < sorted[j].Info().Name
	})

	rows := make([][]string, 0, len(sorted))

	for _, item := range sorted {
		info := item.Info()

		name := info.Name
		if _, ok := item.(*sharepoint.DriveFolder); ok {
			name += "/"
		}

		rows = append(rows, []string{name, formatSize(info.Size), formatTime(info.ModifiedAt), info.ModifiedBy})
	}

	printTable(w, []string{"NAME", "SIZE", "MODIFIED", "BY"}, rows)
}

func runGet(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	noClobber, _ := cmd.Flags().GetBool("no-clobber")

	if noClobber && !recursive {
		return fmt.Errorf("--no-clobber only applies with --recursive")
	}

	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	client, _, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()

	defer trackTransfer("downloading " + args[0])()

	if !recursive {
		lf, err := client.DownloadFile(ctx, args[0], dir)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", args[0], err)
		}

		if lf == nil {
			return fmt.Errorf("%s: no downloadable file (use --recursive for folders)", args[0])
		}

		statusf("Downloaded %s (%s)\n", lf.Path, formatSize(lf.Size))

		return printLocalFiles(cmd.OutOrStdout(), []*sharepoint.LocalFile{lf})
	}

	item, err := client.Path(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	folder, ok := item.(*sharepoint.DriveFolder)
	if !ok {
		return fmt.Errorf("%s: not a folder", args[0])
	}

	// The folder came back from Path with its children, so the walk starts
	// from them without listing the top level again.
	files, err := folder.Download(ctx, client, dir, sharepoint.FolderDownloadOptions{SkipExisting: noClobber})
	if err != nil {
		return fmt.Errorf("downloading %s: %w (%d files completed)", args[0], err, len(files))
	}

	statusf("Downloaded %d files into %s\n", len(files), dir)

	return printLocalFiles(cmd.OutOrStdout(), files)
}

func printLocalFiles(w io.Writer, files []*sharepoint.LocalFile) error {
	if flagJSON {
		return printJSON(w, files)
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Path, formatSize(f.Size), f.ContentType})
	}

	printTable(w, []string{"PATH", "SIZE", "TYPE"}, rows)

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	client, _, done, err := session()
	if err != nil {
		return err
	}
	defer done()

	defer trackTransfer("uploading " + args[0])()

	file, err := client.Upload(cmd.Context(), args[0], args[1], sharepoint.UploadOptions{})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", args[0], err)
	}

	if file == nil {
		return fmt.Errorf("%s: no such folder", args[1])
	}

	statusf("Uploaded %s (%s)\n", file.Name, formatSize(file.Size))

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), file)
	}

	printTable(cmd.OutOrStdout(), []string{"NAME", "SIZE", "ID", "WEB URL"},
		[][]string{{file.Name, formatSize(file.Size), file.ID, file.WebURL}})

	return nil
}
