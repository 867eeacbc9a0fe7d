package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
	"github.com/wagiedev/archive-bridge/internal/mcp"
)

func testDocument() Document {
	return Document{
		Filename:    "conversation.html",
		ContentType: "text/html",
		Body:        []byte("<p><strong>user:</strong> hi</p>"),
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(slog.Default(), "  ")
	require.ErrorIs(t, err, bridgeerrors.ErrMissingBaseURL)

	c, err := NewClient(slog.Default(), "https://archive.example/")
	require.NoError(t, err)
	require.Equal(t, "https://archive.example/api/conversation", c.Endpoint())
}

func TestClientUpload_Success(t *testing.T) {
	var (
		gotPath      string
		gotRequestID string
		gotIsMCP     string
		gotFilename  string
		gotPartType  string
		gotBody      string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		gotIsMCP = r.FormValue("isMCP")

		file, header, err := r.FormFile("htmlDoc")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		gotFilename = header.Filename
		gotPartType = header.Header.Get("Content-Type")

		data, _ := io.ReadAll(file)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"url":"https://x/y","id":"c-1"}`)
	}))
	defer srv.Close()

	c, err := NewClient(slog.Default(), srv.URL)
	require.NoError(t, err)

	ctx := mcp.WithCallID(context.Background(), "01CALLID")

	receipt, err := c.Upload(ctx, testDocument())
	require.NoError(t, err)
	require.Equal(t, "https://x/y", receipt.URL)
	require.Equal(t, map[string]any{"url": "https://x/y", "id": "c-1"}, receipt.Raw)

	require.Equal(t, "/api/conversation", gotPath)
	require.Equal(t, "01CALLID", gotRequestID)
	require.Equal(t, "true", gotIsMCP)
	require.Equal(t, "conversation.html", gotFilename)
	require.Equal(t, "text/html", gotPartType)
	require.Equal(t, "<p><strong>user:</strong> hi</p>", gotBody)
}

func TestClientUpload_DownstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database on fire")
	}))
	defer srv.Close()

	c, err := NewClient(slog.Default(), srv.URL)
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), testDocument())

	var downstream *bridgeerrors.DownstreamError
	require.ErrorAs(t, err, &downstream)
	require.Equal(t, http.StatusInternalServerError, downstream.StatusCode)
	require.Equal(t, "database on fire", downstream.Body)
	require.EqualError(t, err, "Remote API error: 500 Internal Server Error - database on fire")
}

func TestClientUpload_Timeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(slog.Default(), srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), testDocument())
	require.ErrorIs(t, err, bridgeerrors.ErrUploadTimeout)
	require.EqualError(t, err, "archive upload timed out after 50ms")
}

func TestClientUpload_CallerCancelIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"url":"https://x/y"}`)
	}))
	defer srv.Close()

	c, err := NewClient(slog.Default(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Upload(ctx, testDocument())
	require.Error(t, err)
	require.NotErrorIs(t, err, bridgeerrors.ErrUploadTimeout)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientUpload_BadReplies(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr error
	}{
		{name: "missing url", reply: `{"id":"c-1"}`, wantErr: bridgeerrors.ErrMissingURL},
		{name: "url not a string", reply: `{"url":42}`, wantErr: bridgeerrors.ErrMissingURL},
		{name: "not json", reply: `<html>ok</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.reply)
			}))
			defer srv.Close()

			c, err := NewClient(slog.Default(), srv.URL)
			require.NoError(t, err)

			_, err = c.Upload(context.Background(), testDocument())
			require.Error(t, err)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.Contains(t, err.Error(), "decode archive response")
			}
		})
	}
}

func TestClientUpload_Observer(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"url":"https://x/y"}`)
	}))
	defer srv.Close()

	var (
		mu       sync.Mutex
		outcomes []string
	)

	c, err := NewClient(slog.Default(), srv.URL, WithObserver(func(outcome string, elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		require.GreaterOrEqual(t, elapsed, time.Duration(0))
		outcomes = append(outcomes, outcome)
	}))
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), testDocument())
	require.NoError(t, err)

	status.Store(http.StatusBadGateway)
	_, err = c.Upload(context.Background(), testDocument())
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"ok", "downstream_error"}, outcomes)
}
