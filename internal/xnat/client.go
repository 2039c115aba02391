package xnat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const userAgent = "xnat-go/0.1"

// CredentialSource provides XNAT session tokens (JSESSIONID values).
// Defined at the consumer per Go convention "accept interfaces, return
// structs". The auth layer provides the real implementation.
type CredentialSource interface {
	SessionToken() (string, error)
}

// Client is an HTTP client for the XNAT REST API. It handles request
// construction, session-cookie authentication, and error classification.
// Requests are never retried automatically: a failed call is reported to
// the caller unchanged, and the caller decides what to do.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[Handle]chan pendingResult
}

// Handle identifies a pending asynchronous catalog request issued by
// HTTPGet and consumed by HTTPSync.
type Handle struct {
	id uuid.UUID
}

func (h Handle) String() string {
	return h.id.String()
}

type pendingResult struct {
	entries []CatalogEntry
	err     error
}

// NewClient creates an XNAT API client.
// baseURL is the server root, e.g. "https://central.xnat.org".
func NewClient(baseURL string, httpClient *http.Client, creds CredentialSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		creds:      creds,
		logger:     logger,
		pending:    make(map[Handle]chan pendingResult),
	}
}

// Do executes an HTTP request against the XNAT API. The path is appended to
// the client's base URL. On non-2xx responses the body is consumed and an
// *APIError wrapping the matching sentinel is returned. The caller is
// responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("xnat: request canceled: %w", ctx.Err())
		}

		return nil, fmt.Errorf("xnat: %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// doOnce executes a single HTTP request.
func (c *Client) doOnce(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.creds.SessionToken()
	if err != nil {
		return nil, fmt.Errorf("obtaining session token: %w", err)
	}

	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tok})
	req.Header.Set("User-Agent", userAgent)

	return c.httpClient.Do(req)
}
