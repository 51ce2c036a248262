// Package fetcher streams artifact bodies over HTTP.
package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher implements ports.Fetcher with a plain GET.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewClient returns a client for artifact downloads. timeout bounds connecting and waiting for
// the response headers; reading the body is bounded only by the caller's context, since a large
// jar on a slow link can take much longer than any single request.
func NewClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// New creates a new HTTPFetcher.
func New(client *http.Client, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch opens url. The caller closes the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, domain.Mark(domain.ErrTransportFailure, "reason", "artifact has no download url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrTransportFailure, err), "url", url)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrTransportFailure, err), "url", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		statusErr := zerr.With(domain.Mark(domain.ErrTransportFailure, "status_code", resp.StatusCode), "url", url)
		return nil, statusErr
	}

	return resp.Body, nil
}
