package sharepoint

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Defaults(t *testing.T) {
	c := Credentials{}
	assert.Equal(t, "https://graph.microsoft.com/v1.0", c.BaseURL())
	assert.Equal(t, "https://graph.microsoft.com/.default", c.Scope())

	c = Credentials{ResourceURL: "https://graph.example.com", ResourceURLVersion: "beta"}
	assert.Equal(t, "https://graph.example.com/beta", c.BaseURL())
	assert.Equal(t, "https://graph.example.com/.default", c.Scope())
}

// newTokenServer serves client-credentials tokens numbered by issue order.
func newTokenServer(t *testing.T, issued *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "app", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://graph.microsoft.com/.default", r.PostForm.Get("scope"))

		n := issued.Add(1)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":3600}`, n)
	}))
}

func TestClientCredentialsSource_CachesAndRefreshes(t *testing.T) {
	var issued atomic.Int32

	srv := newTokenServer(t, &issued)
	defer srv.Close()

	ts := NewClientCredentialsSource(Credentials{
		TenantID:     "tenant",
		ClientID:     "app",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
	}, srv.Client(), nil)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok, "cached token is reused while valid")

	tok, err = ts.Refresh()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), issued.Load())
}

func TestClientCredentialsSource_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	ts := NewClientCredentialsSource(Credentials{
		TenantID: "tenant", ClientID: "app", ClientSecret: "bad", TokenURL: srv.URL,
	}, srv.Client(), nil)

	_, err := ts.Token()
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestNew_FetchesTokenLazily(t *testing.T) {
	var issued atomic.Int32

	tokenSrv := newTokenServer(t, &issued)
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer apiSrv.Close()

	c, err := New(Credentials{
		TenantID: "tenant", ClientID: "app", ClientSecret: "secret", TokenURL: tokenSrv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), issued.Load())

	c.baseURL = apiSrv.URL

	sites, err := c.GetSites(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.Equal(t, int32(1), issued.Load())
}
