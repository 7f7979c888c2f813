package sharepoint

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/tonimelisma/sharepoint-go/internal/logging"
)

// Default endpoint values.
const (
	DefaultResourceURL        = "https://graph.microsoft.com/"
	DefaultResourceURLVersion = "v1.0"
)

// Credentials identify an Azure AD application registered for app-only
// access to SharePoint through Graph.
type Credentials struct {
	TenantID           string
	ClientID           string
	ClientSecret       string
	ResourceURL        string // e.g. "https://graph.microsoft.com/"
	ResourceURLVersion string // e.g. "v1.0"

	// TokenURL overrides the Azure AD token endpoint derived from TenantID.
	TokenURL string
}

// withDefaults fills in the resource URL and version when empty.
func (c Credentials) withDefaults() Credentials {
	if c.ResourceURL == "" {
		c.ResourceURL = DefaultResourceURL
	}

	if c.ResourceURLVersion == "" {
		c.ResourceURLVersion = DefaultResourceURLVersion
	}

	if !strings.HasSuffix(c.ResourceURL, "/") {
		c.ResourceURL += "/"
	}

	return c
}

// BaseURL returns "{resource_url}{version}", the prefix of every resource path.
func (c Credentials) BaseURL() string {
	c = c.withDefaults()

	return c.ResourceURL + c.ResourceURLVersion
}

// Scope returns the client-credentials scope "{resource_url}.default".
func (c Credentials) Scope() string {
	return c.withDefaults().ResourceURL + ".default"
}

// TokenSource provides OAuth2 bearer tokens. Refresh discards the cached
// token and fetches a new one; the client calls it once after a 401.
type TokenSource interface {
	Token() (string, error)
	Refresh() (string, error)
}

// clientCredentialsSource caches one app-only token and re-fetches it when
// it expires or when the API rejects it.
type clientCredentialsSource struct {
	cfg    *clientcredentials.Config
	ctx    context.Context
	logger *slog.Logger

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewClientCredentialsSource returns a TokenSource that performs the
// client-credentials grant against the tenant's v2.0 token endpoint.
// httpClient is used for token requests; nil means http.DefaultClient.
func NewClientCredentialsSource(creds Credentials, httpClient *http.Client, logger *slog.Logger) TokenSource {
	if logger == nil {
		logger = slog.Default()
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = microsoft.AzureADEndpoint(creds.TenantID).TokenURL
	}

	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	return &clientCredentialsSource{
		cfg: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{creds.Scope()},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		ctx:    ctx,
		logger: logger,
	}
}

func (s *clientCredentialsSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok.Valid() {
		return s.tok.AccessToken, nil
	}

	return s.fetchLocked()
}

func (s *clientCredentialsSource) Refresh() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tok = nil

	return s.fetchLocked()
}

func (s *clientCredentialsSource) fetchLocked() (string, error) {
	t, err := s.cfg.Token(s.ctx)
	if err != nil {
		s.logger.Warn("token acquisition failed", logging.Err(err))
		return "", &AuthenticationError{Err: fmt.Errorf("client credentials grant: %w", err)}
	}

	s.tok = t

	s.logger.Debug("token acquired",
		slog.Time("expiry", t.Expiry),
		slog.Bool("valid", t.Valid()),
	)

	return t.AccessToken, nil
}
