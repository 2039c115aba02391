package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestNormalizeRemotePath(t *testing.T) {
	assert.Equal(t, "proj/resources/NIFTI", normalizeRemotePath("/proj/resources/NIFTI/"))

	// Decomposed input (as macOS terminals produce) is composed.
	decomposed := norm.NFD.String("proj/resources/Café")
	assert.Equal(t, "proj/resources/Café", normalizeRemotePath(decomposed))
}

func TestParseRemotePath(t *testing.T) {
	p, err := parseRemotePath("/proj/subj/resources/NIFTI/files/scan.nii/")
	require.NoError(t, err)

	assert.Equal(t, "proj", p.Project)
	assert.Equal(t, "subj", p.Subject)
	assert.Equal(t, "NIFTI", p.Resource)
	assert.Equal(t, "scan.nii", p.FileName)

	_, err = parseRemotePath("not-a-resource-path")
	assert.Error(t, err)
}
