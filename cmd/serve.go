package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frgrisk/trust-prompt/internal/page"
	"github.com/frgrisk/trust-prompt/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the certificate trust page until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("chat-url", page.DefaultChatURL, "Chat application the page links to")

	viper.BindPFlag("chat-url", serveCmd.Flags().Lookup("chat-url"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serverConfig(viper.GetString("addr"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second signal during the drain kills the process.
		<-ctx.Done()
		stop()
	}()

	return serve(ctx, cmd.OutOrStdout(), cfg)
}

// serve runs the server until ctx is done, printing status lines to out.
func serve(ctx context.Context, out io.Writer, cfg server.Config) error {
	printStarting(out, cfg.Variant, cfg.Addr)

	s, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.Listen(); err != nil {
		return err
	}

	visit, err := browseURL(s.Addr().String(), "/")
	if err != nil {
		s.Close()
		return err
	}
	logger.Debug("Loaded key pair", "cert", cfg.CertFile, "key", cfg.KeyFile)
	printReady(out, cfg.Variant, visit, cfg.Page.ChatURL)

	if err := s.Serve(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	printStopped(out)
	return nil
}
