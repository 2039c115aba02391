package resource

import (
	"context"
	"io"

	"github.com/openxnat/xnat-go/internal/xnat"
)

// Session is the transport a File talks through. Satisfied by *xnat.Client.
// Defined at the consumer so tests can substitute a fake server session.
type Session interface {
	// Upload sends a local file with a single request. query is the full
	// resource URI including upload parameters.
	Upload(ctx context.Context, localPath, query string) error

	// Download streams the remote entity at uri to w.
	Download(ctx context.Context, uri string, w io.Writer) (int64, error)

	// Delete removes the remote entity at uri.
	Delete(ctx context.Context, uri string) error

	// Exists reports whether the remote entity at uri is present.
	Exists(ctx context.Context, uri string) (bool, error)

	// HTTPGet issues an asynchronous catalog request; HTTPSync blocks until
	// the request resolves and returns its rows in server order.
	HTTPGet(ctx context.Context, query string) (xnat.Handle, error)
	HTTPSync(ctx context.Context, h xnat.Handle) ([]xnat.CatalogEntry, error)
}

// Node is the parent a File hangs off (a resource, experiment, scan, ...).
// Files hold a non-owning reference: a Node must outlive every File created
// under it.
type Node interface {
	// ResourceURI returns the REST path of the node.
	ResourceURI() string
}
