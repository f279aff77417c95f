package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/html"

	"github.com/frgrisk/trust-prompt/internal/probe"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the trust page from a running server",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("path", "/", "Request path; every path returns the same page")
}

// pageTitle returns the text of the first <title> element, or "" when there is none.
func pageTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() != html.TextToken {
				return ""
			}
			return strings.TrimSpace(string(z.Text()))
		}
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	url, err := browseURL(viper.GetString("addr"), path)
	if err != nil {
		return err
	}

	logger.Debug("Fetching trust page", "url", url)
	res, err := probe.CheckPage(cmd.Context(), url, tlsOptions())
	if err != nil {
		logger.Error("❌ Trust page check failed", "url", url, "error", err)
		return err
	}

	logger.Info("✅ Trust page check successful", "url", url, "status", res.StatusCode, "content_type", res.ContentType)
	fmt.Fprintf(cmd.OutOrStdout(), "Server response: %d %s (%s)\n", res.StatusCode, res.ContentType, pageTitle(res.Body))
	return nil
}
