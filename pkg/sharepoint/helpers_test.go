package sharepoint

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// fakeResponse is a canned reply for one request path.
type fakeResponse struct {
	status int
	body   string
	header http.Header
}

// seenRequest is what fakeGraph recorded about a request.
type seenRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// fakeGraph serves canned responses keyed by decoded URL path and records
// every request. Unknown paths get 404.
type fakeGraph struct {
	t      *testing.T
	srv    *httptest.Server
	routes map[string]fakeResponse

	mu   sync.Mutex
	seen []seenRequest
}

func newFakeGraph(t *testing.T, routes map[string]fakeResponse) *fakeGraph {
	t.Helper()

	f := &fakeGraph{t: t, routes: routes}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.seen = append(f.seen, seenRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	f.mu.Unlock()

	resp, ok := f.routes[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"itemNotFound"}}`))

		return
	}

	for k, vs := range resp.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	if resp.header.Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}

	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp.body))
}

// client returns a Client aimed at the fake.
func (f *fakeGraph) client(opts ...Option) *Client {
	f.t.Helper()

	return newTestClient(f.t, f.srv.URL, opts...)
}

// requests returns a copy of the recorded requests.
func (f *fakeGraph) requests() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]seenRequest(nil), f.seen...)
}

// paths returns the recorded request paths in order.
func (f *fakeGraph) paths() []string {
	reqs := f.requests()
	out := make([]string, 0, len(reqs))

	for _, r := range reqs {
		out = append(out, r.Path)
	}

	return out
}

func jsonOK(body string) fakeResponse {
	return fakeResponse{status: http.StatusOK, body: body}
}

const (
	siteJSON = `{
		"id": "site123",
		"name": "MySite",
		"displayName": "My Site",
		"webUrl": "https://tenant.sharepoint.com/sites/MySite",
		"createdDateTime": "2023-01-01T00:00:00Z",
		"lastModifiedDateTime": "2023-01-02T00:00:00Z"
	}`

	drivesJSON = `{"value": [
		{"id": "drive123", "name": "Shared Documents", "driveType": "documentLibrary",
		 "webUrl": "https://tenant.sharepoint.com/sites/MySite/Shared%20Documents",
		 "quota": {"total": 1000, "used": 10, "remaining": 990, "deleted": 0, "state": "normal"},
		 "createdDateTime": "2023-01-01T00:00:00Z", "lastModifiedDateTime": "2023-01-02T00:00:00Z"},
		{"id": "drive456", "name": "Archive", "driveType": "documentLibrary",
		 "createdDateTime": "2023-01-01T00:00:00Z", "lastModifiedDateTime": "2023-01-02T00:00:00Z"}
	]}`

	folderJSON = `{
		"id": "folder1",
		"name": "Monthly Reports",
		"size": 2048,
		"webUrl": "https://tenant.sharepoint.com/sites/MySite/Shared%20Documents/Monthly%20Reports",
		"createdDateTime": "2023-01-01T00:00:00Z",
		"lastModifiedDateTime": "2023-01-02T00:00:00Z",
		"parentReference": {"driveId": "drive123", "driveType": "documentLibrary", "siteId": "site123", "id": "root"},
		"folder": {"childCount": 2}
	}`

	// Children listings may omit timestamps.
	childrenJSON = `{"value": [
		{"id": "file1", "name": "report.xlsx", "size": 1024,
		 "@microsoft.graph.downloadUrl": "DOWNLOAD_URL/file1",
		 "file": {"mimeType": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		          "hashes": {"quickXorHash": "qx=="}},
		 "parentReference": {"driveId": "drive123", "id": "folder1"}},
		{"id": "sub1", "name": "Q1", "folder": {"childCount": 0},
		 "parentReference": {"driveId": "drive123", "id": "folder1"}}
	]}`
)
