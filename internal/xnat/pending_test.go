package xnat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGetSync_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ResultSet":{"Result":[{"Name":"scan.nii","digest":"abc"}]}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	handle, err := client.HTTPGet(context.Background(), "/data/projects/p/resources/R")
	require.NoError(t, err)
	assert.NotEmpty(t, handle.String())

	entries, err := client.HTTPSync(context.Background(), handle)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].Digest())
}

func TestHTTPSync_UnknownHandle(t *testing.T) {
	client := newTestClient(t, "http://unused")

	_, err := client.HTTPSync(context.Background(), Handle{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestHTTPSync_HandleConsumedOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ResultSet":{"Result":[]}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	handle, err := client.HTTPGet(context.Background(), "/data/x")
	require.NoError(t, err)

	_, err = client.HTTPSync(context.Background(), handle)
	require.NoError(t, err)

	_, err = client.HTTPSync(context.Background(), handle)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestHTTPSync_FetchErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	handle, err := client.HTTPGet(context.Background(), "/data/x")
	require.NoError(t, err)

	_, err = client.HTTPSync(context.Background(), handle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestHTTPGet_AbandonedHandleIsReclaimed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ResultSet":{"Result":[]}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())

	handle, err := client.HTTPGet(ctx, "/data/x")
	require.NoError(t, err)

	// The caller walks away without ever calling HTTPSync.
	cancel()

	assert.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()

		_, ok := client.pending[handle]

		return !ok
	}, time.Second, 10*time.Millisecond, "pending entry must be reclaimed after context end")
}

func TestHTTPSync_ContextCanceled(t *testing.T) {
	// The server never responds within the test, so HTTPSync must unblock
	// via its own context.
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(t, srv.URL)

	handle, err := client.HTTPGet(context.Background(), "/data/slow")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.HTTPSync(ctx, handle)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
