package acquirer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMaxBytes caps the size of a fetched image body.
	DefaultMaxBytes = 10 * 1024 * 1024
	// DefaultTimeout bounds a single image fetch.
	DefaultTimeout = 30 * time.Second
)

var (
	ErrInvalidSource     = errors.New("image source is not a well-formed absolute URL")
	ErrUnsupportedFormat = errors.New("content type is not an allowed image format")
	ErrTooLarge          = errors.New("image exceeds the maximum allowed size")
	ErrTimeout           = errors.New("image fetch timed out")
	ErrNetwork           = errors.New("image fetch failed")
)

// contentTypeExt maps allowed raster image content types to file extensions.
var contentTypeExt = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

// Image is raw validated image data ready for analysis or storage.
type Image struct {
	Bytes       []byte
	ContentType string
	Extension   string
}

// Acquirer fetches and validates raw image bytes. It performs no retries;
// retry policy belongs to the caller.
type Acquirer struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

// New creates an Acquirer with the given size cap and fetch timeout.
// Non-positive values fall back to the defaults.
func New(maxBytes int64, timeout time.Duration) *Acquirer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Acquirer{
		client:   &http.Client{},
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

// FromURL fetches an image over HTTP. The fetch is aborted early when the
// declared or actual body size exceeds the cap, and it honors both the
// per-fetch timeout and cancellation of the caller's context.
func (a *Acquirer) FromURL(ctx context.Context, rawURL string) (*Image, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSource, parsed.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, rawURL)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, rawURL)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrNetwork, resp.StatusCode, rawURL)
	}

	contentType := normalizeContentType(resp.Header.Get("Content-Type"))
	ext, ok := contentTypeExt[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}

	if resp.ContentLength > a.maxBytes {
		return nil, fmt.Errorf("%w: declared %d bytes, cap is %d", ErrTooLarge, resp.ContentLength, a.maxBytes)
	}

	// Read one byte past the cap so oversized bodies are detected without
	// draining them fully.
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, rawURL)
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if int64(len(data)) > a.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, a.maxBytes)
	}

	return &Image{Bytes: data, ContentType: contentType, Extension: ext}, nil
}

// FromBytes validates image bytes supplied directly by a caller that already
// performed its own transfer, e.g. a file upload read into memory. An empty
// contentType is sniffed from the payload.
func (a *Acquirer) FromBytes(data []byte, contentType string) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidSource)
	}
	if int64(len(data)) > a.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, cap is %d", ErrTooLarge, len(data), a.maxBytes)
	}

	contentType = normalizeContentType(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeContentType(http.DetectContentType(data))
	}
	ext, ok := contentTypeExt[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}

	return &Image{Bytes: data, ContentType: contentType, Extension: ext}, nil
}

func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
