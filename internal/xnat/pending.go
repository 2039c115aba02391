package xnat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// HTTPGet issues an asynchronous catalog request and returns a handle for
// it. The request runs in the background; HTTPSync collects the result.
// ctx covers the whole request lifetime — canceling it fails the pending
// request, which HTTPSync then reports.
func (c *Client) HTTPGet(ctx context.Context, query string) (Handle, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Handle{}, fmt.Errorf("xnat: generating request handle: %w", err)
	}

	h := Handle{id: id}
	ch := make(chan pendingResult, 1)

	c.mu.Lock()
	c.pending[h] = ch
	c.mu.Unlock()

	c.logger.Debug("issued async catalog request",
		slog.String("handle", h.String()),
		slog.String("query", query),
	)

	go func() {
		entries, fetchErr := c.Catalog(ctx, query)
		ch <- pendingResult{entries: entries, err: fetchErr}

		// A handle that is never synced would leave its map entry behind.
		// Once the request context ends the caller can no longer consume it,
		// so reclaim the entry; HTTPSync removing it first makes this a
		// no-op.
		<-ctx.Done()

		c.mu.Lock()
		delete(c.pending, h)
		c.mu.Unlock()
	}()

	return h, nil
}

// HTTPSync blocks until the request identified by h resolves and returns its
// catalog rows. Each handle can be consumed exactly once; a second call for
// the same handle returns ErrUnknownHandle. When ctx ends first, the handle
// is discarded and the context error is returned.
func (c *Client) HTTPSync(ctx context.Context, h Handle) ([]CatalogEntry, error) {
	c.mu.Lock()
	ch, ok := c.pending[h]
	delete(c.pending, h)
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("xnat: awaiting request %s: %w", h, ctx.Err())
	case res := <-ch:
		return res.entries, res.err
	}
}
