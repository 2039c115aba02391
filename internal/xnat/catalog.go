package xnat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Catalog column names used by XNAT list endpoints.
const (
	colName   = "Name"
	colDigest = "digest"
)

// CatalogEntry is one row of a catalog listing, column name → value.
// Columns are kept verbatim as returned by the server (Name, Size, URI,
// digest, collection, file_content, file_format).
type CatalogEntry map[string]string

// Name returns the file name column of the entry.
func (e CatalogEntry) Name() string {
	return e[colName]
}

// Digest returns the server-computed checksum column of the entry, or ""
// when the server did not report one.
func (e CatalogEntry) Digest() string {
	return e[colDigest]
}

// resultSetEnvelope mirrors the JSON envelope of XNAT list endpoints.
// Unexported — callers see []CatalogEntry.
type resultSetEnvelope struct {
	ResultSet struct {
		Result []map[string]any `json:"Result"`
	} `json:"ResultSet"`
}

// Catalog fetches a catalog listing for the given query and returns its rows
// in server order. Row order matters to callers: XNAT appends newly created
// files at the end of the catalog.
func (c *Client) Catalog(ctx context.Context, query string) ([]CatalogEntry, error) {
	c.logger.Debug("fetching catalog", slog.String("query", query))

	if !strings.Contains(query, "format=") {
		sep := "?"
		if strings.Contains(query, "?") {
			sep = "&"
		}

		query += sep + "format=json"
	}

	resp, err := c.Do(ctx, http.MethodGet, query, http.NoBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope resultSetEnvelope
	if decErr := json.NewDecoder(resp.Body).Decode(&envelope); decErr != nil {
		return nil, fmt.Errorf("xnat: decoding catalog listing: %w", decErr)
	}

	entries := make([]CatalogEntry, 0, len(envelope.ResultSet.Result))

	for _, row := range envelope.ResultSet.Result {
		entry := make(CatalogEntry, len(row))
		for k, v := range row {
			entry[k] = stringifyColumn(v)
		}

		entries = append(entries, entry)
	}

	c.logger.Debug("catalog fetched", slog.Int("entries", len(entries)))

	return entries, nil
}

// stringifyColumn flattens a catalog cell to a string. XNAT serializes most
// columns as strings, but numeric columns (Size) arrive as JSON numbers.
func stringifyColumn(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		// Sizes are whole bytes; avoid the %v scientific notation for
		// large values.
		return fmt.Sprintf("%.0f", val)
	default:
		return fmt.Sprint(val)
	}
}
