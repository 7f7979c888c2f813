package sharepoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDrive_NoSite(t *testing.T) {
	fg := newFakeGraph(t, nil)

	res, err := fg.client().GetDrive(context.Background(), DriveQuery{Name: "Shared Documents"})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, fg.requests())
}

func TestGetDrive_ByID(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{
		"/sites/site123/drives/drive123": jsonOK(`{"id": "drive123", "name": "Shared Documents",
			"quota": {"total": 100, "used": 40, "remaining": 60}}`),
	})
	c := fg.client()

	res, err := c.GetDrive(context.Background(), DriveQuery{SiteID: "site123", ID: "drive123"})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.Drive)
	assert.Equal(t, "Shared Documents", res.Drive.Name)
	assert.Equal(t, "site123", res.Drive.SiteID)
	assert.Equal(t, int64(60), res.Drive.Quota.Remaining)
	assert.Same(t, res.Drive, c.CurrentDrive())
	assert.Equal(t, "Drive: Shared Documents", res.Drive.String())
}

func TestGetDrive_ByIDNotFound(t *testing.T) {
	fg := newFakeGraph(t, nil)
	c := fg.client()

	res, err := c.GetDrive(context.Background(), DriveQuery{SiteID: "site123", ID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Nil(t, c.CurrentDrive())
}

func TestGetDrive_ByNameUsesCurrentSite(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{"/sites/site123/drives": jsonOK(drivesJSON)})
	c := fg.client()
	c.SetCurrentSite(&Site{ID: "site123"})

	res, err := c.GetDrive(context.Background(), DriveQuery{Name: "Archive"})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.Drive)
	assert.Equal(t, "drive456", res.Drive.ID)
	assert.Same(t, res.Drive, c.CurrentDrive())
	assert.Equal(t, []string{"/sites/site123/drives"}, fg.paths())
}

func TestGetDrive_ByNameNoMatch(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{"/sites/site123/drives": jsonOK(drivesJSON)})
	c := fg.client()

	res, err := c.GetDrive(context.Background(), DriveQuery{SiteID: "site123", Name: "shared documents"})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Nil(t, c.CurrentDrive())
}

func TestGetDrive_AllLeavesCurrentDriveUnset(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{"/sites/site123/drives": jsonOK(drivesJSON)})
	c := fg.client()

	res, err := c.GetDrive(context.Background(), DriveQuery{SiteID: "site123"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.Drive)
	require.Len(t, res.Drives, 2)
	assert.Equal(t, "drive123", res.Drives[0].ID)
	assert.Equal(t, int64(990), res.Drives[0].Quota.Remaining)
	assert.Nil(t, c.CurrentDrive())
}

func TestListDrives_Dedupes(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{
		"/sites/s/drives": jsonOK(`{"value": [
			{"id": "d1", "name": "First"},
			{"id": "d2", "name": "Second"},
			{"id": "d1", "name": "Duplicate"}
		]}`),
	})

	drives, err := fg.client().ListDrives(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, drives, 2)
	assert.Equal(t, "First", drives[0].Name)

	d, ok := drives.ByID("d2")
	require.True(t, ok)
	assert.Equal(t, "Second", d.Name)

	_, ok = drives.ByName("Duplicate")
	assert.False(t, ok)
}

func TestDrive_Root(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{
		"/sites/site123/drives/drive123/root": jsonOK(`{"id": "root", "name": "root", "folder": {"childCount": 2}}`),
		"/sites/site123/drives/drive123/items/root/children": jsonOK(childrenJSON),
	})

	d := &Drive{ID: "drive123", SiteID: "site123"}
	root, err := d.Root(context.Background(), fg.client())
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Len(t, root.Children, 2)
}

func TestDrive_Item(t *testing.T) {
	fg := newFakeGraph(t, map[string]fakeResponse{
		"/sites/site123/drives/drive123/items/file1": jsonOK(`{"id": "file1", "name": "test.txt", "size": 100,
			"file": {"hashes": {}}, "@microsoft.graph.downloadUrl": "https://example.com/download/test.txt"}`),
		"/sites/site123/drives/drive123/items/folder1": jsonOK(folderJSON),
	})
	c := fg.client()
	drive := &Drive{ID: "drive123", SiteID: "site123"}

	item, err := drive.Item(context.Background(), c, "file1")
	require.NoError(t, err)
	file, ok := item.(*DriveFile)
	require.True(t, ok)
	assert.Equal(t, "test.txt", file.Name)

	item, err = drive.Item(context.Background(), c, "folder1")
	require.NoError(t, err)
	folder, ok := item.(*DriveFolder)
	require.True(t, ok)
	assert.Nil(t, folder.Children, "children are not loaded")

	_, err = drive.Item(context.Background(), c, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
