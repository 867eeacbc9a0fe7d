package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
	"github.com/wagiedev/archive-bridge/internal/mcp"
)

const (
	// DefaultTimeout bounds a single upload when none is configured.
	DefaultTimeout = 30 * time.Second

	conversationPath = "/api/conversation"
	maxErrorBody     = 64 << 10
)

// Document is a rendered file ready for upload.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Receipt is the archive's reply to a successful upload.
type Receipt struct {
	// URL is where the archived conversation can be viewed.
	URL string
	// Raw is the decoded reply, kept whole for programmatic consumers.
	Raw map[string]any
}

// Uploader stores documents in the archive.
//
//go:generate mockgen -destination=mock_archive_test.go -package=archive . Uploader
type Uploader interface {
	Upload(ctx context.Context, doc Document) (*Receipt, error)
}

// Compile-time verification that Client implements Uploader.
var _ Uploader = (*Client)(nil)

// ObserveFunc receives the outcome and duration of every upload attempt.
type ObserveFunc func(outcome string, elapsed time.Duration)

// Client posts conversations to the archive's multipart endpoint.
type Client struct {
	log      *slog.Logger
	endpoint string
	http     *http.Client
	timeout  time.Duration
	observe  ObserveFunc
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for uploads.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each upload. Non-positive values keep the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver registers a callback for upload outcomes.
func WithObserver(fn ObserveFunc) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates an archive client for the given base URL.
func NewClient(log *slog.Logger, baseURL string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, bridgeerrors.ErrMissingBaseURL
	}

	c := &Client{
		log:      log.With("component", "archive"),
		endpoint: strings.TrimRight(baseURL, "/") + conversationPath,
		http:     http.DefaultClient,
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the URL uploads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload posts doc as the "htmlDoc" file part alongside isMCP=true.
//
// Returns *errors.DownstreamError for a non-2xx status, *errors.TimeoutError
// when the upload outlives the client timeout, and ErrMissingURL when the
// reply has no url.
func (c *Client) Upload(ctx context.Context, doc Document) (receipt *Receipt, err error) {
	start := time.Now()

	defer func() {
		if c.observe != nil {
			c.observe(outcomeOf(err), time.Since(start))
		}
	}()

	body, contentType, err := encodeForm(doc)
	if err != nil {
		return nil, fmt.Errorf("encode upload form: %w", err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	if callID := mcp.CallIDFromContext(ctx); callID != "" {
		req.Header.Set("X-Request-Id", callID)
	}

	c.log.Info("Forwarding conversation", "url", c.endpoint, "bytes", len(doc.Body))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &bridgeerrors.TimeoutError{Timeout: c.timeout, Err: err}
		}

		return nil, fmt.Errorf("post conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &bridgeerrors.DownstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(text),
		}
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &bridgeerrors.TimeoutError{Timeout: c.timeout, Err: err}
		}

		return nil, fmt.Errorf("decode archive response: %w", err)
	}

	url, _ := raw["url"].(string)
	if url == "" {
		return nil, bridgeerrors.ErrMissingURL
	}

	c.log.Debug("Archive accepted conversation", "archive_url", url)

	return &Receipt{URL: url, Raw: raw}, nil
}

// encodeForm builds the multipart body for an upload.
func encodeForm(doc Document) (io.Reader, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="htmlDoc"; filename=%q`, doc.Filename))
	header.Set("Content-Type", doc.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(doc.Body); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("isMCP", "true"); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// outcomeOf labels an upload result for observers.
func outcomeOf(err error) string {
	var downstream *bridgeerrors.DownstreamError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bridgeerrors.ErrUploadTimeout):
		return "timeout"
	case errors.As(err, &downstream):
		return "downstream_error"
	default:
		return "error"
	}
}
