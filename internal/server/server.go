// Package server implements the trust-prompt HTTPS server: a TLS listener
// that answers every GET with the same static HTML page.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/frgrisk/trust-prompt/internal/page"
)

// DefaultAddr listens on port 8444 on all interfaces.
const DefaultAddr = ":8444"

const defaultShutdownTimeout = 5 * time.Second

var (
	// ErrLoadCertificate means the certificate or key could not be read or parsed.
	ErrLoadCertificate = errors.New("failed to load server certificate and key")
	// ErrBind means the listening socket could not be opened.
	ErrBind = errors.New("failed to bind listener")
)

// Config describes one server run.
type Config struct {
	Addr     string
	CertFile string
	// KeyFile may be empty when CertFile holds both the chain and the key.
	KeyFile         string
	Variant         page.Variant
	Page            page.Data
	ShutdownTimeout time.Duration
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and TLS error logging.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server serves a single pre-rendered page over TLS on every path.
type Server struct {
	cfg    Config
	logger *log.Logger
	body   []byte
	tlsCfg *tls.Config
	ln     net.Listener
	srv    *http.Server
}

// New renders the page and loads the key pair. Nothing is bound yet.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Variant == "" {
		cfg.Variant = page.Trust
	}
	variant, err := page.ParseVariant(string(cfg.Variant))
	if err != nil {
		return nil, err
	}
	cfg.Variant = variant
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}

	body, err := page.Render(cfg.Variant, cfg.Page)
	if err != nil {
		return nil, err
	}
	s.body = body

	keyFile := cfg.KeyFile
	if keyFile == "" {
		keyFile = cfg.CertFile
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCertificate, err)
	}
	s.tlsCfg = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		TLSConfig:         s.tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}

	return s, nil
}

// Listen binds the configured address. It is a no-op once bound.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %w", ErrBind, s.cfg.Addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Body returns the page served on every request.
func (s *Server) Body() []byte {
	return s.body
}

// Handler returns the catch-all handler.
func (s *Server) Handler() http.Handler {
	return s
}

// Serve accepts connections until ctx is cancelled, then shuts down gracefully.
// It binds first if Listen has not been called.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ServeTLS(s.ln, "", "")
	}()
	s.logger.Info("Serving trust page", "addr", s.ln.Addr().String(), "variant", s.cfg.Variant)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)
	// Shutdown only closes the listener if ServeTLS got to track it.
	s.ln.Close()
	if err != nil {
		s.srv.Close()
		return fmt.Errorf("error during shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Close stops the server immediately.
func (s *Server) Close() error {
	err := s.srv.Close()
	if s.ln != nil {
		s.ln.Close()
	}
	return err
}

// ServeHTTP answers GET and HEAD on any path with the page.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Unsupported method ("+r.Method+")", http.StatusNotImplemented)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html")
	h.Set("Content-Length", strconv.Itoa(len(s.body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(s.body); err != nil {
		s.logger.Debug("Write failed", "remote", r.RemoteAddr, "error", err)
	}
}

// Run builds a server from cfg and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	s, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}
