package sharepoint

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, sharepoint.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("sharepoint: bad request")
	ErrUnauthorized = errors.New("sharepoint: unauthorized")
	ErrForbidden    = errors.New("sharepoint: forbidden")
	ErrNotFound     = errors.New("sharepoint: not found")
	ErrConflict     = errors.New("sharepoint: conflict")
	ErrGone         = errors.New("sharepoint: resource gone")
	ErrThrottled    = errors.New("sharepoint: throttled")
	ErrLocked       = errors.New("sharepoint: resource locked")
	ErrServerError  = errors.New("sharepoint: server error")
)

var (
	// ErrUnsupportedMethod is returned by Do for verbs other than GET, POST and PUT.
	// Nothing is sent over the wire.
	ErrUnsupportedMethod = errors.New("sharepoint: unsupported HTTP method")

	// ErrUnknownItemKind is returned when a driveItem payload carries both or
	// neither of the file and folder facets.
	ErrUnknownItemKind = errors.New("sharepoint: drive item must have exactly one of file or folder")

	// ErrChildNotFound is returned by DriveFolder.Child.
	ErrChildNotFound = errors.New("sharepoint: child not found")

	// ErrNoDownloadURL is returned by DriveFile.Bytes and DriveFile.Download
	// when the item carries no pre-authenticated download URL.
	ErrNoDownloadURL = errors.New("sharepoint: item has no download URL")
)

// APIError is a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	RequestID  string
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("sharepoint: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Body)
	}

	return fmt.Sprintf("sharepoint: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ConnectivityError wraps a transport failure (DNS, refused connection,
// timeout). No HTTP status was received.
type ConnectivityError struct {
	Method string
	Path   string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("sharepoint: %s %s: connection failed: %v", e.Method, e.Path, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// AuthenticationError means the token endpoint refused or could not be reached.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("sharepoint: acquiring access token: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports that the caller did not supply enough
// addressing context for an operation.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "sharepoint: " + e.Message
}

// LocalFileError wraps a failure reading or writing a local file.
type LocalFileError struct {
	Path string
	Err  error
}

func (e *LocalFileError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("sharepoint: Local file not found: %s", e.Path)
	}

	return fmt.Sprintf("sharepoint: local file %s: %v", e.Path, e.Err)
}

func (e *LocalFileError) Unwrap() error {
	return e.Err
}

// UploadError is returned when the content PUT fails with an HTTP status.
type UploadError struct {
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("sharepoint: HTTP error uploading file: %d", e.StatusCode)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusGone:
		return ErrGone
	case http.StatusTooManyRequests:
		return ErrThrottled
	case http.StatusLocked:
		return ErrLocked
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code is transient.
// Only consulted when the client was built WithRetry.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		// 509 Bandwidth Limit Exceeded (SharePoint).
		const statusBandwidthExceeded = 509
		return code == statusBandwidthExceeded
	}
}

// isNotFound reports whether err is a 404 from the API. Lookup operations
// turn these into nil results.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
