package cmd

import (
	"fmt"
	"net"
	"net/url"

	"github.com/spf13/viper"

	"github.com/frgrisk/trust-prompt/internal/page"
	"github.com/frgrisk/trust-prompt/internal/probe"
	"github.com/frgrisk/trust-prompt/internal/server"
)

// Each page variant came with its own certificate file names.
const (
	trustCertFile  = "localhost.pem"
	simpleCertFile = "temp-cert.pem"
	simpleKeyFile  = "temp-key.pem"
)

// certPaths resolves the certificate and key for a variant. An empty key
// means the key is read from the certificate file.
func certPaths(variant page.Variant, certFile, keyFile string) (string, string) {
	if certFile != "" {
		return certFile, keyFile
	}
	if variant == page.Simple {
		if keyFile == "" {
			keyFile = simpleKeyFile
		}
		return simpleCertFile, keyFile
	}
	return trustCertFile, keyFile
}

// serverConfig builds a server configuration from flags, environment and
// config file.
func serverConfig(addr string) (server.Config, error) {
	variant, err := page.ParseVariant(viper.GetString("variant"))
	if err != nil {
		return server.Config{}, err
	}
	certFile, keyFile := certPaths(variant, viper.GetString("cert"), viper.GetString("key"))

	return server.Config{
		Addr:     addr,
		CertFile: certFile,
		KeyFile:  keyFile,
		Variant:  variant,
		Page: page.Data{
			ChatURL: viper.GetString("chat-url"),
			WSSURL:  viper.GetString("wss-url"),
		},
	}, nil
}

func tlsOptions() probe.TLSOptions {
	return probe.TLSOptions{
		CAFile:   viper.GetString("ca"),
		Insecure: viper.GetBool("insecure"),
	}
}

// browseURL turns a listen address into the URL a browser on this machine
// would open. Wildcard hosts become localhost.
func browseURL(addr, path string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" || net.ParseIP(host) != nil && net.ParseIP(host).IsUnspecified() {
		host = "localhost"
	}
	if path == "" {
		path = "/"
	}

	u := url.URL{Scheme: "https", Host: net.JoinHostPort(host, port), Path: path}
	return u.String(), nil
}
