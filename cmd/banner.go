package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/frgrisk/trust-prompt/internal/page"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	urlStyle     = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("14"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	readyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// printStarting writes the lines shown before the listener is bound.
func printStarting(w io.Writer, variant page.Variant, addr string) {
	switch variant {
	case page.Simple:
		fmt.Fprintln(w, titleStyle.Render("🚀 Starting temporary HTTPS server on "+addr))
	default:
		fmt.Fprintln(w, titleStyle.Render("🔒 Starting HTTPS certificate trust server on "+addr))
	}
}

// printReady writes the instructions once the server accepts connections.
func printReady(w io.Writer, variant page.Variant, visit, chatURL string) {
	if chatURL == "" {
		chatURL = page.DefaultChatURL
	}
	switch variant {
	case page.Simple:
		fmt.Fprintln(w, "📋 Please open this URL in your browser: "+urlStyle.Render(visit))
		fmt.Fprintln(w, hintStyle.Render("💡 This will force the certificate trust dialog to appear."))
		fmt.Fprintln(w, readyStyle.Render("✅ HTTPS server is ready! Visit: "+visit))
	default:
		fmt.Fprintln(w, readyStyle.Render("🔒 HTTPS Certificate Trust Server running on "+visit))
		fmt.Fprintln(w, "Visit "+urlStyle.Render(visit)+" to trust the certificate first")
		fmt.Fprintln(w, hintStyle.Render("Then go to "+chatURL+" to test WSS"))
	}
}

func printStopped(w io.Writer) {
	fmt.Fprintln(w, stoppedStyle.Render("🛑 Server stopped"))
}
