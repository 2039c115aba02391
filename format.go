package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Size unit steps for human-readable byte counts.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
	sizeTB = 1024 * 1024 * 1024 * 1024
)

// formatSize renders a byte count the way ls -lh does ("1.5 KB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeTB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeTB))
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatCatalogSize renders the Size column of a catalog row. XNAT reports
// sizes as decimal byte strings; an empty column shows as "-", and anything
// unparseable is printed verbatim rather than dropped.
func formatCatalogSize(raw string) string {
	if raw == "" {
		return "-"
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}

	return formatSize(n)
}

// digestDisplayLen truncates catalog digests in table output. An MD5 prefix
// of this length is enough to tell files apart by eye; stat and --json show
// the full digest.
const digestDisplayLen = 8

// formatDigest shortens a catalog digest for the DIGEST column, or "-" when
// the server reported none.
func formatDigest(digest string) string {
	if digest == "" {
		return "-"
	}

	if len(digest) > digestDisplayLen {
		return digest[:digestDisplayLen]
	}

	return digest
}

// formatTime renders a timestamp in ls style: time of day within the current
// year, year otherwise.
func formatTime(t time.Time) string {
	if t.Year() == time.Now().Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// printTable writes headers plus rows as space-padded columns. Every row
// must have as many cells as the header.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := columnWidths(headers, rows)

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// columnWidths returns the widest cell per column, headers included.
func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	return widths
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.Join(parts, "  "))
}
