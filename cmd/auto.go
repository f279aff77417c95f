package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/frgrisk/trust-prompt/internal/probe"
	"github.com/frgrisk/trust-prompt/internal/server"
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Start the server on a random port and check it end to end",
	Args:  cobra.NoArgs,
	RunE:  runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)
	autoCmd.Flags().String("host", "localhost", "Host to use for connections")
}

// getRandomPort returns a random available port
func getRandomPort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

func runAuto(cmd *cobra.Command, _ []string) error {
	host, _ := cmd.Flags().GetString("host")

	port, err := getRandomPort()
	if err != nil {
		return fmt.Errorf("failed to get random port: %w", err)
	}
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	cfg, err := serverConfig(addr)
	if err != nil {
		return err
	}

	opts := tlsOptions()
	if opts.CAFile == "" {
		// The certificate under test is its own trust anchor.
		opts.CAFile = cfg.CertFile
	}
	opts.ServerName = host

	return autoCheck(cmd.Context(), cfg, opts)
}

// autoCheck serves cfg, fetches two different paths and compares them.
func autoCheck(ctx context.Context, cfg server.Config, opts probe.TLSOptions) error {
	logger.Info("Starting HTTPS server", "addr", cfg.Addr, "variant", cfg.Variant)

	s, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx)
	}()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			logger.Error("Error during shutdown", "error", err)
		}
	}()

	host := opts.ServerName
	if host == "" {
		host = "localhost"
	}
	base := net.JoinHostPort(host, portOf(s.Addr()))

	var first []byte
	for _, path := range []string{"/", "/arbitrary/nonexistent/path"} {
		url, err := browseURL(base, path)
		if err != nil {
			return err
		}

		res, err := probe.CheckPage(ctx, url, opts)
		if err != nil {
			logger.Error("❌ HTTPS connection test failed", "url", url, "error", err)
			return err
		}
		if first == nil {
			first = res.Body
		} else if !bytes.Equal(first, res.Body) {
			return fmt.Errorf("%w: %s returned a different page", probe.ErrUnexpectedResponse, path)
		}
		logger.Info("✅ HTTPS connection test successful", "url", url)
	}

	return nil
}

func portOf(addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return port
}
