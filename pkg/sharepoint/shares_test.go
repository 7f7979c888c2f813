package sharepoint

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShareLink(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{
			"https://tenant.sharepoint.com/sites/MySite/Shared%20Documents/MyFile.docx",
			"u!aHR0cHM6Ly90ZW5hbnQuc2hhcmVwb2ludC5jb20vc2l0ZXMvTXlTaXRlL1NoYXJlZCUyMERvY3VtZW50cy9NeUZpbGUuZG9jeA",
		},
		{
			// The trailing "09" is data, not padding.
			"https://example.com/somepath?query=param==",
			"u!aHR0cHM6Ly9leGFtcGxlLmNvbS9zb21lcGF0aD9xdWVyeT1wYXJhbT09",
		},
		{
			"https://a.b/c",
			"u!aHR0cHM6Ly9hLmIvYw",
		},
	}

	for _, tt := range tests {
		got := EncodeShareLink(tt.raw)
		assert.Equal(t, tt.want, got)
		assert.True(t, strings.HasPrefix(got, "u!"))
		assert.NotContains(t, got, "=")
		assert.NotContains(t, got, "+")
		assert.NotContains(t, got, "/")
	}
}

func TestGetShares(t *testing.T) {
	raw := "https://tenant.sharepoint.com/:f:/s/Site/Token"

	fg := newFakeGraph(t, map[string]fakeResponse{
		"/shares/" + EncodeShareLink(raw) + "/driveItem": jsonOK(`{"id": "f1", "name": "Shared Folder",
			"folder": {"childCount": 3}, "parentReference": {"driveId": "d1", "siteId": "s1"}}`),
	})

	item, err := fg.client().GetShares(context.Background(), raw)
	require.NoError(t, err)

	folder, ok := item.(*DriveFolder)
	require.True(t, ok)
	assert.Equal(t, 3, folder.ChildCount)
	assert.Nil(t, folder.Children, "share lookups do not load children")
	assert.Equal(t, "d1", folder.DriveID)
	assert.Equal(t, "s1", folder.SiteID)
}

func TestGetShares_NotFound(t *testing.T) {
	fg := newFakeGraph(t, nil)

	item, err := fg.client().GetShares(context.Background(), "https://tenant.sharepoint.com/:x:/s/S/Gone")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestGetShares_Forbidden(t *testing.T) {
	raw := "https://tenant.sharepoint.com/:x:/s/S/Private"

	fg := newFakeGraph(t, map[string]fakeResponse{
		"/shares/" + EncodeShareLink(raw) + "/driveItem": {status: http.StatusForbidden, body: `{}`},
	})

	_, err := fg.client().GetShares(context.Background(), raw)
	assert.ErrorIs(t, err, ErrForbidden)
}
