package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frgrisk/trust-prompt/internal/page"
	"github.com/frgrisk/trust-prompt/internal/server"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "trust-prompt",
		Short: "A throwaway HTTPS server that makes a browser trust a localhost certificate",
		Long: `trust-prompt serves a single static page over HTTPS so a browser shows the
certificate trust prompt for a self-signed localhost certificate. Once the
certificate is accepted, secure WebSocket connections from the chat
application under test work without further prompts.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool("verbose") {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trustprompt.yaml)")
	rootCmd.PersistentFlags().String("cert", "", "Path to certificate file (default localhost.pem, or temp-cert.pem for the simple page)")
	rootCmd.PersistentFlags().String("key", "", "Path to private key file (default: read from the certificate file)")
	rootCmd.PersistentFlags().String("ca", "", "Path to root CA certificate used by clients (default: system roots)")
	rootCmd.PersistentFlags().String("addr", server.DefaultAddr, "Address to serve on or connect to")
	rootCmd.PersistentFlags().String("variant", string(page.Trust), "Page variant: trust (with WSS probe) or simple; also picks the default certificate files")
	rootCmd.PersistentFlags().String("wss-url", page.DefaultWSSURL, "Secure WebSocket endpoint probed by the trust page")
	rootCmd.PersistentFlags().Bool("insecure", false, "Skip certificate verification in client commands")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("cert", rootCmd.PersistentFlags().Lookup("cert"))
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	viper.BindPFlag("ca", rootCmd.PersistentFlags().Lookup("ca"))
	viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	viper.BindPFlag("variant", rootCmd.PersistentFlags().Lookup("variant"))
	viper.BindPFlag("wss-url", rootCmd.PersistentFlags().Lookup("wss-url"))
	viper.BindPFlag("insecure", rootCmd.PersistentFlags().Lookup("insecure"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".trustprompt")
	}

	viper.SetEnvPrefix("trust_prompt")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
