package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"

	"github.com/tonimelisma/sharepoint-go/internal/logging"
)

const (
	userAgent = "sharepoint-go/0.1"

	// maxBackoff caps the delay between opt-in transient retries.
	maxBackoff = 60 * time.Second

	// headerRequestID is the correlation header Graph echoes back in
	// diagnostics; a fresh value is sent on every request.
	headerRequestID = "client-request-id"
)

// Client talks to the SharePoint document API through Microsoft Graph.
//
// A Client holds two session-scoped pointers, the current site and the
// current drive, which are updated by successful lookups and used as
// defaults by later calls. A Client is meant for use by one goroutine at a
// time; share it across goroutines only with external locking, or use
// AsyncClient.
type Client struct {
	baseURL      string
	httpClient   *http.Client // metadata requests
	transferHTTP *http.Client // uploads and download content; nil means httpClient
	token        TokenSource
	logger       *slog.Logger
	retry        *retryPolicy
	resolver     SiteResolver
	verify       bool

	currentSite  *Site
	currentDrive *Drive
}

// retryPolicy configures the opt-in retry of transient failures.
type retryPolicy struct {
	attempts uint
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API and token requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransferHTTPClient sets the HTTP client for upload bodies and download
// content. It should carry no overall Client.Timeout, which would also bound
// reading the body and cut off large transfers; bound the dial and the wait
// for response headers on its Transport instead.
func WithTransferHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.transferHTTP = hc
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenSource replaces the client-credentials token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.token = ts
	}
}

// WithRetry enables retrying connectivity failures and transient HTTP
// statuses (408, 429, 5xx, 509) up to attempts times in total, with
// exponential backoff starting at delay. Without it, the only retry a Client
// performs is the single re-send after refreshing a rejected token.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts <= 1 {
			c.retry = nil
			return
		}

		c.retry = &retryPolicy{attempts: attempts, delay: delay}
	}
}

// WithHashCheck makes downloads compare the content against the item's
// QuickXorHash. Items without one are written unchecked.
func WithHashCheck() Option {
	return func(c *Client) {
		c.verify = true
	}
}

// WithSiteResolver replaces the strategy GetSite uses for web URLs.
func WithSiteResolver(r SiteResolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}

// New creates a Client for the given application credentials. The token
// is fetched lazily on the first request.
func New(creds Credentials, opts ...Option) (*Client, error) {
	var missing []string

	if creds.TenantID == "" {
		missing = append(missing, "tenant id")
	}

	if creds.ClientID == "" {
		missing = append(missing, "client id")
	}

	if creds.ClientSecret == "" {
		missing = append(missing, "client secret")
	}

	if len(missing) > 0 {
		return nil, &ConfigurationError{Message: "missing credentials: " + strings.Join(missing, ", ")}
	}

	c := NewClient(creds.BaseURL(), nil, nil, nil, opts...)
	if c.token == nil {
		c.token = NewClientCredentialsSource(creds, c.httpClient, c.logger)
	}

	return c, nil
}

// NewClient creates a Client with an explicit base URL and token source.
// baseURL is typically "https://graph.microsoft.com/v1.0".
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	if c.resolver == nil {
		c.resolver = &lookupThenSearch{client: c}
	}

	return c
}

// BaseURL returns the prefix applied to resource paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CurrentSite returns the last site resolved by GetSite, or nil.
func (c *Client) CurrentSite() *Site {
	return c.currentSite
}

// CurrentDrive returns the last single drive resolved by GetDrive, or nil.
func (c *Client) CurrentDrive() *Drive {
	return c.currentDrive
}

// SetCurrentSite replaces the session site pointer. Passing nil clears it.
func (c *Client) SetCurrentSite(s *Site) {
	c.currentSite = s
}

// SetCurrentDrive replaces the session drive pointer. Passing nil clears it.
func (c *Client) SetCurrentDrive(d *Drive) {
	c.currentDrive = d
}

// Do executes a request against the API. path is relative to the base URL
// (e.g. "/sites/{id}") and may already carry a query string; query values
// are appended to it. For non-nil bodies Content-Type defaults to
// application/json unless header sets it.
//
// A 401 response refreshes the token and re-sends the request once. Any
// other non-2xx status is returned as *APIError. The caller closes the
// response body on success.
func (c *Client) Do(
	ctx context.Context, method, path string, query url.Values, body []byte, header http.Header,
) (*http.Response, error) {
	if !isSupportedMethod(method) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}

		target += sep + query.Encode()
	}

	return c.send(ctx, c.httpClient, method, target, path, body, header)
}

// transfer returns the client used for content transfers.
func (c *Client) transfer() *http.Client {
	if c.transferHTTP != nil {
		return c.transferHTTP
	}

	return c.httpClient
}

// downloadLogPath stands in for download URLs, which must never be logged.
const downloadLogPath = "(download url)"

// getAbsolute performs an authenticated GET of a full URL without base
// prefixing, over the transfer client. Used for download URLs.
func (c *Client) getAbsolute(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.send(ctx, c.transfer(), http.MethodGet, rawURL, downloadLogPath, nil, nil)
}

// putContent sends an upload body to a resource path over the transfer
// client.
func (c *Client) putContent(ctx context.Context, path string, body []byte, header http.Header) (*http.Response, error) {
	return c.send(ctx, c.transfer(), http.MethodPut, c.baseURL+path, path, body, header)
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut:
		return true
	default:
		return false
	}
}

// send runs doAuthorized, wrapped in the transient retry loop when enabled.
func (c *Client) send(
	ctx context.Context, hc *http.Client, method, target, logPath string, body []byte, header http.Header,
) (*http.Response, error) {
	if c.retry == nil {
		return c.doAuthorized(ctx, hc, method, target, logPath, body, header)
	}

	var resp *http.Response

	err := retry.Do(
		func() error {
			r, err := c.doAuthorized(ctx, hc, method, target, logPath, body, header)
			if err != nil {
				return err
			}

			resp = r

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retry.attempts),
		retry.Delay(c.retry.delay),
		retry.MaxDelay(maxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying after transient error",
				slog.String("method", method),
				slog.String("path", logPath),
				slog.Uint64("attempt", uint64(n)+1),
				logging.Err(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// isTransient reports whether err is worth another attempt under WithRetry.
func isTransient(err error) bool {
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return true
	}

	var ae *APIError
	if errors.As(err, &ae) {
		return isRetryable(ae.StatusCode)
	}

	return false
}

// doAuthorized sends one request and, on 401, refreshes the token and
// sends it exactly once more.
func (c *Client) doAuthorized(
	ctx context.Context, hc *http.Client, method, target, logPath string, body []byte, header http.Header,
) (*http.Response, error) {
	tok, err := c.token.Token()
	if err != nil {
		return nil, asAuthError(err)
	}

	resp, err := c.doOnce(ctx, hc, method, target, tok, body, header)
	if err != nil {
		return nil, c.transportError(ctx, method, logPath, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drainAndClose(resp)

		c.logger.Info("access token rejected, refreshing",
			slog.String("method", method),
			slog.String("path", logPath),
		)

		tok, err = c.token.Refresh()
		if err != nil {
			return nil, asAuthError(err)
		}

		resp, err = c.doOnce(ctx, hc, method, target, tok, body, header)
		if err != nil {
			return nil, c.transportError(ctx, method, logPath, err)
		}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", logPath),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	return nil, c.apiError(method, logPath, resp)
}

// doOnce executes a single HTTP request.
func (c *Client) doOnce(
	ctx context.Context, hc *http.Client, method, target, tok string, body []byte, header http.Header,
) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerRequestID, uuid.NewString())

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return hc.Do(req)
}

// apiError reads and closes the body of a failed response.
func (c *Client) apiError(method, logPath string, resp *http.Response) error {
	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Debug("request failed",
		slog.String("method", method),
		slog.String("path", logPath),
		slog.Int("status", resp.StatusCode),
	)

	return &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
		Body:       string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

func (c *Client) transportError(ctx context.Context, method, logPath string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("sharepoint: request canceled: %w", ctx.Err())
	}

	c.logger.Warn("request failed before a response",
		slog.String("method", method),
		slog.String("path", logPath),
		logging.Err(err),
	)

	return &ConnectivityError{Method: method, Path: logPath, Err: err}
}

func asAuthError(err error) error {
	var ae *AuthenticationError
	if errors.As(err, &ae) {
		return err
	}

	return &AuthenticationError{Err: err}
}

// drainAndClose discards the rest of a body so the connection can be reused.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// getJSON issues a GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, what string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("sharepoint: decoding %s response: %w", what, err)
	}

	return nil
}

// stripBaseURL removes the client's base URL prefix from a full URL,
// returning the path + query string for use with Do().
func (c *Client) stripBaseURL(fullURL string) (string, error) {
	if !strings.HasPrefix(fullURL, c.baseURL) {
		return "", fmt.Errorf("sharepoint: nextLink URL %q does not match base URL %q", fullURL, c.baseURL)
	}

	return fullURL[len(c.baseURL):], nil
}
