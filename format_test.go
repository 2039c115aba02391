package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}

func TestFormatCatalogSize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "-"},
		{"512", "512 B"},
		{"1536", "1.5 KB"},
		{"not-a-number", "not-a-number"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCatalogSize(tt.raw), "raw=%q", tt.raw)
	}
}

func TestFormatDigest(t *testing.T) {
	assert.Equal(t, "-", formatDigest(""))
	assert.Equal(t, "abc123", formatDigest("abc123"))
	assert.Equal(t, "d41d8cd9", formatDigest("d41d8cd98f00b204e9800998ecf8427e"))
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	sameYear := time.Date(now.Year(), time.March, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5 14:30", formatTime(sameYear))

	otherYear := time.Date(now.Year()-2, time.March, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, sameYear.AddDate(-2, 0, 0).Format("Jan _2  2006"), formatTime(otherYear))
}

func TestPrintTable_Alignment(t *testing.T) {
	var sb strings.Builder

	printTable(&sb, []string{"NAME", "SIZE"}, [][]string{
		{"short.nii", "12 B"},
		{"much-longer-name.nii.gz", "1.5 KB"},
	})

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "NAME                     SIZE", strings.TrimRight(lines[0], " "))

	// The SIZE column starts at the same offset in every line.
	offset := strings.Index(lines[0], "SIZE")
	assert.Equal(t, offset, strings.Index(lines[1], "12 B"))
	assert.Equal(t, offset, strings.Index(lines[2], "1.5 KB"))
}

func TestPrintTable_NoRows(t *testing.T) {
	var sb strings.Builder

	printTable(&sb, []string{"URI", "OUTCOME"}, nil)
	assert.Equal(t, "URI  OUTCOME\n", sb.String())
}
