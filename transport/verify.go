package transport

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Verifier is a server certificate verification policy.
//
// Configure is called with the client TLS configuration for each new
// connection, after the server name and protocol versions are set.
type Verifier interface {
	Configure(cfg *tls.Config) error
}

// SystemRoots returns the default Verifier, which verifies the server
// certificate chain against the host's trust roots and the server name.
func SystemRoots() Verifier { return systemRoots{} }

type systemRoots struct{}

func (systemRoots) Configure(cfg *tls.Config) error { return nil }

// CertPool returns a Verifier which verifies the server certificate
// chain against the roots in pool, and checks the server name.
func CertPool(pool *x509.CertPool) Verifier { return certPool{pool} }

type certPool struct{ pool *x509.CertPool }

func (v certPool) Configure(cfg *tls.Config) error {
	if v.pool == nil {
		return errors.New("nil certificate pool")
	}
	cfg.RootCAs = v.pool
	return nil
}

// PinnedSHA256 returns a Verifier which accepts a server only if the
// SHA-256 fingerprint of its leaf certificate's DER encoding is in
// fingerprints. Fingerprints are hexadecimal, optionally colon separated,
// in either case. Chain and server name verification are not performed.
func PinnedSHA256(fingerprints ...string) Verifier {
	pins := map[string]bool{}
	for _, fp := range fingerprints {
		pins[NormalizeFingerprint(fp)] = true
	}
	return pinned{pins}
}

type pinned struct{ pins map[string]bool }

func (v pinned) Configure(cfg *tls.Config) error {
	if len(v.pins) == 0 {
		return errors.New("no certificate fingerprints pinned")
	}
	cfg.InsecureSkipVerify = true
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("server presented no certificate")
		}
		if fp := Fingerprint(rawCerts[0]); !v.pins[fp] {
			return errors.Errorf("server certificate fingerprint %s is not pinned", fp)
		}
		return nil
	}
	return nil
}

// Fingerprint returns the lower case hexadecimal SHA-256 digest of der
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// NormalizeFingerprint strips separators and white space from fp and lower cases it
func NormalizeFingerprint(fp string) string {
	return strings.ToLower(strings.NewReplacer(":", "", " ", "", "\t", "").Replace(strings.TrimSpace(fp)))
}

// InsecureAcceptAny returns a Verifier which accepts any server certificate.
//
// This is INSECURE: connections are open to interception. It exists for
// scanner daemons with throwaway self-signed certificates on trusted
// networks.
func InsecureAcceptAny() Verifier { return insecure{} }

type insecure struct{}

func (insecure) Configure(cfg *tls.Config) error {
	glog.Warningf("transport: certificate verification disabled for %q", cfg.ServerName)
	cfg.InsecureSkipVerify = true
	return nil
}

// VerifyFunc is a Verifier calling the function after the handshake
// negotiates, with the server's presented certificates. The handshake
// fails if the function returns an error. No other verification occurs.
type VerifyFunc func(cs tls.ConnectionState) error

// Configure implements Verifier
func (fn VerifyFunc) Configure(cfg *tls.Config) error {
	if fn == nil {
		return errors.New("nil VerifyFunc")
	}
	cfg.InsecureSkipVerify = true
	cfg.VerifyConnection = func(cs tls.ConnectionState) error { return fn(cs) }
	return nil
}
