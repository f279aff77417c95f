// Package probe checks a trust-prompt deployment from the client side: it
// fetches the page over HTTPS and opens the secure WebSocket the page probes.
package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultOrigin is the Origin header the browser sends when the trust page
// opens its WebSocket.
const DefaultOrigin = "https://localhost:8444"

const defaultTimeout = 10 * time.Second

// ErrUnexpectedResponse means the page was reachable but not what the server
// is expected to return.
var ErrUnexpectedResponse = errors.New("unexpected response")

// TLSOptions controls how the peer certificate is verified.
type TLSOptions struct {
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string
	// Insecure skips verification entirely.
	Insecure bool
	// ServerName overrides the name checked against the certificate.
	ServerName string
}

// Config builds the client TLS configuration.
func (o TLSOptions) Config() (*tls.Config, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: o.Insecure,
		ServerName:         o.ServerName,
	}
	if o.CAFile == "" {
		return cfg, nil
	}

	rootCA, err := os.ReadFile(o.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read root CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(rootCA); !ok {
		return nil, fmt.Errorf("failed to append root CA certificate to pool: %s", o.CAFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// PageResult is what FetchPage observed.
type PageResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response looks like the trust page.
func (r *PageResult) OK() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	return err == nil && r.StatusCode == http.StatusOK && mediaType == "text/html"
}

// FetchPage performs a GET against url and returns the response.
func FetchPage(ctx context.Context, url string, opts TLSOptions) (*PageResult, error) {
	tlsConfig, err := opts.Config()
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &PageResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// CheckPage fetches url and fails with ErrUnexpectedResponse unless the
// server answered 200 with an HTML document.
func CheckPage(ctx context.Context, url string, opts TLSOptions) (*PageResult, error) {
	res, err := FetchPage(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, fmt.Errorf("%w: status %d, content type %q", ErrUnexpectedResponse, res.StatusCode, res.ContentType)
	}
	return res, nil
}

// WebSocket opens a connection to wssURL and closes it again, the same
// check the trust page runs in the browser.
func WebSocket(ctx context.Context, wssURL, origin string, opts TLSOptions) error {
	if origin == "" {
		origin = DefaultOrigin
	}

	cfg, err := websocket.NewConfig(wssURL, origin)
	if err != nil {
		return fmt.Errorf("invalid websocket url: %w", err)
	}
	if cfg.TlsConfig, err = opts.Config(); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("WSS connection failed: %w", err)
	}
	return ws.Close()
}
