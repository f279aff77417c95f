package cmd

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// validateCAFile validates that a file contains usable trust anchors.
// Supports single certificates and CA bundles.
func validateCAFile(caFile string) ([]*x509.Certificate, error) {
	certData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read root CA file: %w", err)
	}

	certs, err := parseAllCertificates(certData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificates: %w", err)
	}

	// A single self-signed leaf is a valid anchor for a trust-prompt server.
	if len(certs) == 1 {
		if !isCertSelfSigned(certs[0]) && !certs[0].IsCA {
			return nil, fmt.Errorf("certificate is neither self-signed nor a CA: Subject=%q, Issuer=%q", certs[0].Subject, certs[0].Issuer)
		}
		return certs, nil
	}

	if err := validateCABundle(certs); err != nil {
		return nil, err
	}
	return certs, nil
}

// validateCABundle validates a bundle of certificates
func validateCABundle(certs []*x509.Certificate) error {
	rootCount := 0
	intermediateCount := 0
	invalidCount := 0

	for _, cert := range certs {
		if !cert.IsCA {
			invalidCount++
			continue
		}

		if isCertSelfSigned(cert) {
			if err := cert.CheckSignatureFrom(cert); err != nil {
				invalidCount++
				continue
			}
			rootCount++
		} else {
			intermediateCount++
		}
	}

	if rootCount == 0 {
		return fmt.Errorf("CA bundle contains %d certificates but no valid root CAs (found %d intermediate CAs, %d invalid certificates)", len(certs), intermediateCount, invalidCount)
	}

	logger.Info("CA bundle validation passed",
		"total_certificates", len(certs),
		"root_cas", rootCount,
		"intermediate_cas", intermediateCount,
		"invalid_certificates", invalidCount,
	)

	return nil
}

// parseAllCertificates parses all certificates from PEM data, skipping key
// blocks so combined certificate/key files work too.
func parseAllCertificates(certData []byte) ([]*x509.Certificate, error) {
	var certificates []*x509.Certificate
	remaining := certData

	for len(remaining) > 0 {
		block, rest := pem.Decode(remaining)
		if block == nil {
			break
		}
		remaining = rest

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			logger.Warn("Failed to parse certificate in bundle", "error", err)
			continue
		}

		certificates = append(certificates, cert)
	}

	if len(certificates) == 0 {
		return nil, fmt.Errorf("no valid certificates found in PEM data")
	}

	return certificates, nil
}

// parseCertificate returns the first certificate (the leaf) in PEM data.
func parseCertificate(certData []byte) (*x509.Certificate, error) {
	certs, err := parseAllCertificates(certData)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// isCertSelfSigned checks if a certificate is self-signed (subject equals issuer)
func isCertSelfSigned(cert *x509.Certificate) bool {
	return cert.Subject.String() == cert.Issuer.String()
}
