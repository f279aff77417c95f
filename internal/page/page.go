// Package page holds the HTML documents served by the trust-prompt server.
package page

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

const (
	// DefaultChatURL is the chat application the page links back to.
	DefaultChatURL = "http://localhost:5173/"
	// DefaultWSSURL is the secure WebSocket endpoint probed by the trust page.
	DefaultWSSURL = "wss://localhost:9443"
)

// Variant selects one of the embedded documents.
type Variant string

const (
	// Trust links to the chat and probes the WSS endpoint from the browser.
	Trust Variant = "trust"
	// Simple only links back to the chat application.
	Simple Variant = "simple"
)

// ErrUnknownVariant is returned for a variant name with no embedded document.
var ErrUnknownVariant = errors.New("unknown page variant")

//go:embed templates/*.html
var files embed.FS

var templates = template.Must(template.ParseFS(files, "templates/*.html"))

// Data is substituted into a document once, before serving starts.
type Data struct {
	ChatURL string
	WSSURL  string
}

// Variants lists the known variants in a stable order.
func Variants() []Variant {
	return []Variant{Trust, Simple}
}

// ParseVariant resolves a variant name, case-insensitively.
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Render executes the document for v. Empty fields in data fall back to the
// package defaults.
func Render(v Variant, data Data) ([]byte, error) {
	v, err := ParseVariant(string(v))
	if err != nil {
		return nil, err
	}
	if data.ChatURL == "" {
		data.ChatURL = DefaultChatURL
	}
	if data.WSSURL == "" {
		data.WSSURL = DefaultWSSURL
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(v)+".html", data); err != nil {
		return nil, fmt.Errorf("failed to render %s page: %w", v, err)
	}
	return buf.Bytes(), nil
}
