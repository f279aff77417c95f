// Package testcert writes throwaway self-signed localhost certificates for tests.
package testcert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Pair is a certificate and key written to disk.
type Pair struct {
	CertFile string
	KeyFile  string
	// Combined holds the certificate followed by the key in a single PEM file.
	Combined string
	Cert     *x509.Certificate
	CertPEM  []byte
	KeyPEM   []byte
}

// Options tweaks the generated certificate.
type Options struct {
	DNSNames  []string
	NotBefore time.Time
	NotAfter  time.Time
	IsCA      bool
	ExtKeyUse []x509.ExtKeyUsage
}

// Write generates a self-signed certificate for localhost into t.TempDir().
func Write(t testing.TB) Pair {
	t.Helper()
	return WriteWith(t, Options{})
}

// WriteWith is Write with explicit options; zero fields take localhost defaults.
func WriteWith(t testing.TB, opts Options) Pair {
	t.Helper()

	if opts.DNSNames == nil {
		opts.DNSNames = []string{"localhost"}
	}
	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(24 * time.Hour)
	}
	if opts.ExtKeyUse == nil {
		opts.ExtKeyUse = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	keyUsage := x509.KeyUsageDigitalSignature
	if opts.IsCA {
		keyUsage |= x509.KeyUsageCertSign
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             opts.NotBefore,
		NotAfter:              opts.NotAfter,
		KeyUsage:              keyUsage,
		ExtKeyUsage:           opts.ExtKeyUse,
		BasicConstraintsValid: true,
		IsCA:                  opts.IsCA,
		DNSNames:              opts.DNSNames,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	dir := t.TempDir()
	p := Pair{
		CertFile: filepath.Join(dir, "temp-cert.pem"),
		KeyFile:  filepath.Join(dir, "temp-key.pem"),
		Combined: filepath.Join(dir, "localhost.pem"),
		Cert:     cert,
		CertPEM:  certPEM,
		KeyPEM:   keyPEM,
	}

	writeFile(t, p.CertFile, certPEM)
	writeFile(t, p.KeyFile, keyPEM)
	writeFile(t, p.Combined, append(append([]byte{}, certPEM...), keyPEM...))

	return p
}

func writeFile(t testing.TB, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(name, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
