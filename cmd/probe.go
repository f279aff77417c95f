package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frgrisk/trust-prompt/internal/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Open the secure WebSocket the trust page tests from the browser",
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().String("origin", probe.DefaultOrigin, "Origin header sent with the WebSocket handshake")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	wssURL := viper.GetString("wss-url")
	origin, _ := cmd.Flags().GetString("origin")

	if err := probe.WebSocket(cmd.Context(), wssURL, origin, tlsOptions()); err != nil {
		logger.Error("❌ WSS Connection Failed", "url", wssURL, "error", err)
		return err
	}

	logger.Info("✅ WSS Connection Success!", "url", wssURL)
	return nil
}
