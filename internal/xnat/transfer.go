package xnat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// Upload sends the contents of a local file to the server with a single PUT.
// query is the full resource URI including upload parameters (the inbody=true
// parameter tells the server the payload travels in the request body rather
// than as a multipart attachment). The request is not retried: a
// partially-consumed file reader is not safe to replay.
func (c *Client) Upload(ctx context.Context, localPath, query string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("xnat: opening %s for upload: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("xnat: stat %s: %w", localPath, err)
	}

	c.logger.Info("uploading file",
		slog.String("path", localPath),
		slog.String("query", query),
		slog.Int64("size", info.Size()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+query, f)
	if err != nil {
		return fmt.Errorf("xnat: creating upload request: %w", err)
	}

	tok, err := c.creds.SessionToken()
	if err != nil {
		return fmt.Errorf("xnat: obtaining session token for upload: %w", err)
	}

	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tok})
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upload request failed", slog.String("error", err.Error()))
		return fmt.Errorf("xnat: upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	// Drain body to reuse connection.
	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return fmt.Errorf("xnat: draining upload response body: %w", drainErr)
	}

	c.logger.Debug("upload complete", slog.String("path", localPath))

	return nil
}

// Download streams the remote entity at uri to w.
// Returns the number of bytes written.
func (c *Client) Download(ctx context.Context, uri string, w io.Writer) (int64, error) {
	c.logger.Info("downloading file", slog.String("uri", uri))

	resp, err := c.Do(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(w, resp.Body)
	if copyErr != nil {
		c.logger.Error("streaming download content failed",
			slog.String("error", copyErr.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return n, fmt.Errorf("xnat: streaming download content: %w", copyErr)
	}

	c.logger.Debug("download complete",
		slog.String("uri", uri),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}

// DownloadToFile streams the remote entity at uri into a local file,
// creating or truncating it.
func (c *Client) DownloadToFile(ctx context.Context, uri, targetPath string) (int64, error) {
	f, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("xnat: creating %s: %w", targetPath, err)
	}

	n, err := c.Download(ctx, uri, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("xnat: closing %s: %w", targetPath, closeErr)
	}

	return n, err
}

// Delete removes the remote entity at uri.
func (c *Client) Delete(ctx context.Context, uri string) error {
	c.logger.Info("deleting remote entity", slog.String("uri", uri))

	resp, err := c.Do(ctx, http.MethodDelete, uri, http.NoBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return fmt.Errorf("xnat: draining delete response body: %w", drainErr)
	}

	return nil
}

// Exists reports whether the remote entity at uri is present on the server.
// A 404 maps to (false, nil); other failures are returned to the caller.
func (c *Client) Exists(ctx context.Context, uri string) (bool, error) {
	resp, err := c.Do(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}
	defer resp.Body.Close()

	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return false, fmt.Errorf("xnat: draining existence probe body: %w", drainErr)
	}

	return true, nil
}
