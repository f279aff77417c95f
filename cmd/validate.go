package cmd

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frgrisk/trust-prompt/internal/page"
)

const trustHost = "localhost"

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the certificate and key the server would load",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	variant, err := page.ParseVariant(viper.GetString("variant"))
	if err != nil {
		return err
	}
	certFile, keyFile := certPaths(variant, viper.GetString("cert"), viper.GetString("key"))
	caFile := viper.GetString("ca")

	logger.Info("Validating certificate configuration...")

	if err := validateKeyPair(certFile, keyFile); err != nil {
		logger.Error("Key pair validation failed", "cert", certFile, "key", keyFile, "error", err)
		return err
	}
	logger.Info("✅ Key pair validation passed", "cert", certFile)

	if err := validateServerCert(certFile, time.Now()); err != nil {
		logger.Error("Server certificate validation failed", "file", certFile, "error", err)
		return err
	}
	logger.Info("✅ Server certificate validation passed", "file", certFile)

	if err := validateCertificateChain(certFile, caFile); err != nil {
		logger.Error("Certificate chain validation failed", "error", err)
		return err
	}
	logger.Info("✅ Certificate chain validation passed")

	logger.Info("🎉 All validations passed successfully!")
	return nil
}

// validateKeyPair checks that the key matches the certificate, exactly as
// the server loads them. An empty keyFile reads the key from certFile.
func validateKeyPair(certFile, keyFile string) error {
	if keyFile == "" {
		keyFile = certFile
	}
	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	return nil
}

// validateServerCert checks if the server certificate is usable for localhost at now.
func validateServerCert(certFile string, now time.Time) error {
	certData, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("failed to read server certificate file: %w", err)
	}

	cert, err := parseCertificate(certData)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not valid until %s", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired at %s", cert.NotAfter.Format(time.RFC3339))
	}

	if cert.IsCA {
		logger.Warn("Server certificate has CA capabilities. This may be a security risk.")
	}

	if len(cert.ExtKeyUsage) > 0 {
		hasServerAuth := slices.Contains(cert.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
		if !hasServerAuth {
			return errors.New("certificate does not have server authentication capability")
		}
	}

	// Browsers would show a name mismatch instead of the trust prompt.
	if err := cert.VerifyHostname(trustHost); err != nil {
		logger.Warn("Certificate is not valid for localhost", "error", err)
	}

	return nil
}

// validateCertificateChain checks the server certificate against caFile, or
// against itself when no CA is given.
func validateCertificateChain(certFile, caFile string) error {
	certData, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("failed to read server certificate: %w", err)
	}

	serverCert, err := parseCertificate(certData)
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var roots []*x509.Certificate
	if caFile != "" {
		if roots, err = validateCAFile(caFile); err != nil {
			return err
		}
	} else {
		if !isCertSelfSigned(serverCert) {
			return fmt.Errorf("certificate is not self-signed and no CA was given: Issuer=%q", serverCert.Issuer)
		}
		roots = []*x509.Certificate{serverCert}
	}

	rootCAPool := x509.NewCertPool()
	for _, cert := range roots {
		rootCAPool.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		Roots:     rootCAPool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	chains, err := serverCert.Verify(opts)
	if err != nil {
		var unknownAuthorityError x509.UnknownAuthorityError
		if errors.As(err, &unknownAuthorityError) {
			return fmt.Errorf("certificate chain verification failed (this may indicate a missing intermediate CA): %w", err)
		}

		return fmt.Errorf("certificate chain verification failed: %w", err)
	}

	if len(chains) == 0 {
		return errors.New("no valid certificate chains found")
	}

	logger.Info("Certificate chain verified successfully", "chain_length", len(chains[0]))

	return nil
}
