package xnat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openxnat/xnat-go/internal/credfile"
)

// sessionCookieName is the cookie XNAT uses to track authenticated sessions.
const sessionCookieName = "JSESSIONID"

// jsessionPath is the REST endpoint that exchanges basic-auth credentials
// for a session token. The response body is the bare JSESSIONID value.
const jsessionPath = "/data/JSESSION"

// ErrNotLoggedIn is returned when no saved session exists for the server.
var ErrNotLoggedIn = errors.New("xnat: not logged in")

// StaticToken is a CredentialSource backed by a fixed session token.
type StaticToken string

// SessionToken implements CredentialSource.
func (t StaticToken) SessionToken() (string, error) {
	return string(t), nil
}

// Login exchanges a username and password for an XNAT session token and
// saves it to sessionPath for later commands. The password is used for this
// one request only and is never written to disk.
//
// The caller is responsible for computing sessionPath (via
// config.SessionPath). This decouples xnat/ from config/ — xnat/ has no
// config import.
func Login(
	ctx context.Context, baseURL, username, password, sessionPath string, logger *slog.Logger,
) (CredentialSource, error) {
	logger.Info("logging in",
		slog.String("server", baseURL),
		slog.String("username", username),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+jsessionPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("xnat: creating login request: %w", err)
	}

	req.SetBasicAuth(username, password)
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xnat: login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xnat: reading login response: %w", err)
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return nil, fmt.Errorf("xnat: server returned an empty session token")
	}

	cf := &credfile.File{
		Server:     baseURL,
		Username:   username,
		Token:      token,
		AcquiredAt: time.Now().UTC(),
	}
	if err := credfile.Save(sessionPath, cf); err != nil {
		return nil, err
	}

	logger.Debug("session token saved", slog.String("path", sessionPath))

	return StaticToken(token), nil
}

// CredentialsFromPath loads a saved session file and returns a
// CredentialSource for it. Returns ErrNotLoggedIn when no session file
// exists.
func CredentialsFromPath(sessionPath string, logger *slog.Logger) (CredentialSource, error) {
	cf, err := credfile.Load(sessionPath)
	if err != nil {
		return nil, err
	}

	if cf == nil {
		return nil, ErrNotLoggedIn
	}

	logger.Debug("loaded saved session",
		slog.String("username", cf.Username),
		slog.Time("acquired_at", cf.AcquiredAt),
	)

	return StaticToken(cf.Token), nil
}

// Logout invalidates the server-side session and removes the session file.
// The file is removed even when the server call fails: a stale local token
// is worse than a dangling server session.
func Logout(ctx context.Context, baseURL, sessionPath string, logger *slog.Logger) error {
	creds, err := CredentialsFromPath(sessionPath, logger)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return nil
		}

		return err
	}

	defer func() {
		if rmErr := credfile.Delete(sessionPath); rmErr != nil {
			logger.Warn("failed to remove session file", slog.String("error", rmErr.Error()))
		}
	}()

	client := NewClient(baseURL, nil, creds, logger)

	resp, err := client.Do(ctx, http.MethodDelete, jsessionPath, http.NoBody)
	if err != nil {
		logger.Warn("server-side logout failed", slog.String("error", err.Error()))
		return nil
	}
	resp.Body.Close()

	logger.Info("logged out", slog.String("server", baseURL))

	return nil
}
