// Package xnatpath provides type-safe parsing of the hierarchical paths the
// CLI uses to address XNAT entities. It consolidates segment validation and
// REST URI construction, and gives compile-time safety over raw string
// splitting.
//
// The accepted grammar is
//
//	PROJECT[/SUBJECT[/EXPERIMENT]]/resources/RESOURCE[/files/NAME]
//
// This is a leaf package with zero external dependencies beyond stdlib.
package xnatpath

import (
	"fmt"
	"net/url"
	"strings"
)

// Keyword segments separating the hierarchy levels.
const (
	kwResources = "resources"
	kwFiles     = "files"
)

// apiRoot prefixes every REST URI built from a Path.
const apiRoot = "/data"

// Path is a parsed XNAT entity path. Project and Resource are always set;
// Subject, Experiment, and FileName are set when the path addresses those
// levels. The zero value (Path{}) represents an absent path.
type Path struct {
	Project    string
	Subject    string
	Experiment string
	Resource   string
	FileName   string
}

// Parse validates and splits a raw CLI path. Empty segments and unknown
// shapes are errors naming the offending part.
func Parse(raw string) (Path, error) {
	clean := strings.Trim(raw, "/")
	if clean == "" {
		return Path{}, fmt.Errorf("xnatpath: empty path")
	}

	segments := strings.Split(clean, "/")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, fmt.Errorf("xnatpath: %q contains an empty segment", raw)
		}
	}

	resIdx := -1

	for i, seg := range segments {
		if seg == kwResources {
			resIdx = i
			break
		}
	}

	if resIdx < 0 {
		return Path{}, fmt.Errorf("xnatpath: %q has no /resources/ segment", raw)
	}

	if resIdx < 1 || resIdx > 3 {
		return Path{}, fmt.Errorf("xnatpath: %q must name 1-3 levels before /resources/", raw)
	}

	if resIdx+1 >= len(segments) {
		return Path{}, fmt.Errorf("xnatpath: %q names no resource after /resources/", raw)
	}

	p := Path{
		Project:  segments[0],
		Resource: segments[resIdx+1],
	}

	if resIdx >= 2 {
		p.Subject = segments[1]
	}

	if resIdx >= 3 {
		p.Experiment = segments[2]
	}

	rest := segments[resIdx+2:]
	if len(rest) > 0 {
		if rest[0] != kwFiles || len(rest) < 2 {
			return Path{}, fmt.Errorf("xnatpath: %q: expected /files/NAME after the resource", raw)
		}

		// File names may themselves contain slashes (catalog sub-paths).
		p.FileName = strings.Join(rest[1:], "/")
	}

	return p, nil
}

// IsFile reports whether the path addresses an individual file.
func (p Path) IsFile() bool {
	return p.FileName != ""
}

// IsZero reports whether this is the zero-value path.
func (p Path) IsZero() bool {
	return p == Path{}
}

// ResourceURI returns the REST path of the resource level, without any file
// segment. It doubles as the parent-node URI for files under the resource.
func (p Path) ResourceURI() string {
	var b strings.Builder

	b.WriteString(apiRoot)
	b.WriteString("/projects/")
	b.WriteString(url.PathEscape(p.Project))

	if p.Subject != "" {
		b.WriteString("/subjects/")
		b.WriteString(url.PathEscape(p.Subject))
	}

	if p.Experiment != "" {
		b.WriteString("/experiments/")
		b.WriteString(url.PathEscape(p.Experiment))
	}

	b.WriteString("/resources/")
	b.WriteString(url.PathEscape(p.Resource))

	return b.String()
}

// URI returns the full REST path of the addressed entity: the resource URI,
// plus the file segment when the path addresses a file. File names are
// escaped per segment so catalog sub-paths keep their slashes on the wire.
func (p Path) URI() string {
	uri := p.ResourceURI()
	if p.FileName != "" {
		uri += "/files/" + escapeSegments(p.FileName)
	}

	return uri
}

// escapeSegments path-escapes each slash-separated segment of name,
// preserving the slashes themselves.
func escapeSegments(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}

// FilesURI returns the catalog listing path for the resource.
func (p Path) FilesURI() string {
	return p.ResourceURI() + "/files"
}

// String returns the CLI form of the path.
func (p Path) String() string {
	parts := []string{p.Project}

	if p.Subject != "" {
		parts = append(parts, p.Subject)
	}

	if p.Experiment != "" {
		parts = append(parts, p.Experiment)
	}

	parts = append(parts, kwResources, p.Resource)

	if p.FileName != "" {
		parts = append(parts, kwFiles, p.FileName)
	}

	return strings.Join(parts, "/")
}

// Compile-time interface assertion.
var _ fmt.Stringer = Path{}
