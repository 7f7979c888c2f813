package sharepoint

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Future is the pending result of an AsyncClient operation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Await blocks until the operation finishes or ctx is done. Giving up on a
// Future does not cancel the operation; cancel the context it was started
// with for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// AsyncClient runs Client operations in the background, one at a time.
// Operations submitted concurrently run in no guaranteed order. It adds no
// deduplication, rate limiting or backpressure.
type AsyncClient struct {
	client *Client
	sem    *semaphore.Weighted
}

// NewAsync wraps c. c must not be used directly while the AsyncClient is in use.
func NewAsync(c *Client) *AsyncClient {
	return &AsyncClient{client: c, sem: semaphore.NewWeighted(1)}
}

// Client returns the wrapped client.
func (a *AsyncClient) Client() *Client {
	return a.client
}

func submit[T any](ctx context.Context, a *AsyncClient, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := a.sem.Acquire(ctx, 1); err != nil {
			f.err = err
			return
		}
		defer a.sem.Release(1)

		f.val, f.err = fn(ctx)
	}()

	return f
}

// GetSites runs Client.GetSites.
func (a *AsyncClient) GetSites(ctx context.Context, search string) *Future[Sites] {
	return submit(ctx, a, func(ctx context.Context) (Sites, error) {
		return a.client.GetSites(ctx, search)
	})
}

// GetSite runs Client.GetSite. The current site is set when it completes.
func (a *AsyncClient) GetSite(ctx context.Context, q SiteQuery) *Future[*Site] {
	return submit(ctx, a, func(ctx context.Context) (*Site, error) {
		return a.client.GetSite(ctx, q)
	})
}

// GetDrive runs Client.GetDrive.
func (a *AsyncClient) GetDrive(ctx context.Context, q DriveQuery) *Future[*DriveResult] {
	return submit(ctx, a, func(ctx context.Context) (*DriveResult, error) {
		return a.client.GetDrive(ctx, q)
	})
}

// GetDriveItems runs Client.GetDriveItems.
func (a *AsyncClient) GetDriveItems(ctx context.Context, q ItemQuery) *Future[DriveItem] {
	return submit(ctx, a, func(ctx context.Context) (DriveItem, error) {
		return a.client.GetDriveItems(ctx, q)
	})
}

// ListChildren runs Client.ListChildren.
func (a *AsyncClient) ListChildren(ctx context.Context, siteID, driveID, itemID string) *Future[[]DriveItem] {
	return submit(ctx, a, func(ctx context.Context) ([]DriveItem, error) {
		return a.client.ListChildren(ctx, siteID, driveID, itemID)
	})
}

// Path runs Client.Path.
func (a *AsyncClient) Path(ctx context.Context, raw string) *Future[DriveItem] {
	return submit(ctx, a, func(ctx context.Context) (DriveItem, error) {
		return a.client.Path(ctx, raw)
	})
}

// GetShares runs Client.GetShares.
func (a *AsyncClient) GetShares(ctx context.Context, raw string) *Future[DriveItem] {
	return submit(ctx, a, func(ctx context.Context) (DriveItem, error) {
		return a.client.GetShares(ctx, raw)
	})
}

// UploadFile runs Client.UploadFile. data must not be modified until the
// Future completes.
func (a *AsyncClient) UploadFile(
	ctx context.Context, data []byte, name string, opts UploadOptions,
) *Future[*DriveFile] {
	return submit(ctx, a, func(ctx context.Context) (*DriveFile, error) {
		return a.client.UploadFile(ctx, data, name, opts)
	})
}

// Upload runs Client.Upload.
func (a *AsyncClient) Upload(ctx context.Context, localPath, spPath string, opts UploadOptions) *Future[*DriveFile] {
	return submit(ctx, a, func(ctx context.Context) (*DriveFile, error) {
		return a.client.Upload(ctx, localPath, spPath, opts)
	})
}

// DownloadFile runs Client.DownloadFile.
func (a *AsyncClient) DownloadFile(ctx context.Context, spPath, targetDir string) *Future[*LocalFile] {
	return submit(ctx, a, func(ctx context.Context) (*LocalFile, error) {
		return a.client.DownloadFile(ctx, spPath, targetDir)
	})
}

// DownloadFolderContents runs Client.DownloadFolderContents.
func (a *AsyncClient) DownloadFolderContents(
	ctx context.Context, siteID, driveID, itemID, targetDir string,
) *Future[[]*LocalFile] {
	return submit(ctx, a, func(ctx context.Context) ([]*LocalFile, error) {
		return a.client.DownloadFolderContents(ctx, siteID, driveID, itemID, targetDir)
	})
}

// DownloadFolder runs Client.DownloadFolder.
func (a *AsyncClient) DownloadFolder(
	ctx context.Context, siteID, driveID, itemID, targetDir string, opts FolderDownloadOptions,
) *Future[[]*LocalFile] {
	return submit(ctx, a, func(ctx context.Context) ([]*LocalFile, error) {
		return a.client.DownloadFolder(ctx, siteID, driveID, itemID, targetDir, opts)
	})
}
