package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxnat/xnat-go/internal/config"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()

	prev := resolvedCfg
	resolvedCfg = cfg
	t.Cleanup(func() { resolvedCfg = prev })
}

func TestDefaultHTTPClient_Timeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Timeout = "45s"
	withConfig(t, cfg)

	client := defaultHTTPClient()
	assert.Equal(t, 45*time.Second, client.Timeout)
	assert.Nil(t, client.Transport, "default transport when TLS verification is on")
}

func TestDefaultHTTPClient_InsecureSkipVerify(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.InsecureSkipVerify = true
	withConfig(t, cfg)

	client := defaultHTTPClient()

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}
