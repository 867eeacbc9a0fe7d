//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	archivebridge "github.com/wagiedev/archive-bridge"
)

// archiveBaseURL returns the live archive under test or skips.
func archiveBaseURL(t *testing.T) string {
	t.Helper()

	base := os.Getenv("ARCHIVE_BASE_URL")
	if base == "" {
		t.Skip("ARCHIVE_BASE_URL not set")
	}

	return base
}

// startBridge serves a bridge pointed at the live archive.
func startBridge(t *testing.T, opts ...archivebridge.Option) *httptest.Server {
	t.Helper()

	opts = append([]archivebridge.Option{archivebridge.WithBaseURL(archiveBaseURL(t))}, opts...)

	bridge, err := archivebridge.New(opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(bridge.Handler())
	t.Cleanup(srv.Close)

	return srv
}

// rpc posts one envelope and decodes the reply.
func rpc(t *testing.T, srv *httptest.Server, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(data) == 0 {
		return resp.StatusCode, nil
	}

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)

	return resp.StatusCode, out
}
