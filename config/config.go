// Package config loads OMP session configuration from TOML files.
//
// A configuration file looks like:
//
//	[server]
//	host = "10.0.0.5"
//	port = 9390
//
//	[tls]
//	verify = "pinned"
//	fingerprints = ["3a:7f:...:c2"]
//
//	[credentials]
//	username = "admin"
//	password = "admin"
//
//	[timeouts]
//	connect = "10s"
//	io = "5m"
package config

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/andaru/omp/session"
	"github.com/andaru/omp/transport"
	"github.com/pkg/errors"
)

// Certificate verification modes
const (
	VerifySystem   = "system"
	VerifyCA       = "ca"
	VerifyPinned   = "pinned"
	VerifyInsecure = "insecure"
)

var minTLSVersions = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// File is the configuration file contents
type File struct {
	Server      Server      `toml:"server"`
	TLS         TLS         `toml:"tls"`
	Credentials Credentials `toml:"credentials"`
	Timeouts    Timeouts    `toml:"timeouts"`
}

// Server is the [server] table
type Server struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	ServerName string `toml:"server_name"`
	MinTLS     string `toml:"min_tls"`
}

// TLS is the [tls] table
type TLS struct {
	// Verify is one of "system", "ca", "pinned" or "insecure"
	Verify string `toml:"verify"`
	// CAFile is the PEM CA bundle used when Verify is "ca". Relative
	// paths are relative to the configuration file.
	CAFile string `toml:"ca_file"`
	// Fingerprints are the SHA-256 certificate fingerprints accepted
	// when Verify is "pinned".
	Fingerprints []string `toml:"fingerprints"`
}

// Credentials is the [credentials] table
type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Timeouts is the [timeouts] table. Values are duration strings, e.g. "30s".
type Timeouts struct {
	Connect time.Duration `toml:"connect"`
	IO      time.Duration `toml:"io"`
}

// Default returns the default configuration
func Default() *File {
	return &File{
		Server: Server{Port: transport.DefaultPort, MinTLS: "1.0"},
		TLS:    TLS{Verify: VerifySystem},
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*File, error) {
	f := Default()
	meta, err := toml.DecodeFile(path, f)
	if err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}
	if ca := f.TLS.CAFile; ca != "" && !filepath.IsAbs(ca) {
		f.TLS.CAFile = filepath.Join(filepath.Dir(path), ca)
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}
	return f, nil
}

// Parse decodes and validates configuration text data
func Parse(data string) (*File, error) {
	f := Default()
	meta, err := toml.Decode(data, f)
	if err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	return f, nil
}

func checkUndecoded(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

// Validate returns an error if the configuration is incomplete or invalid
func (f *File) Validate() error {
	switch {
	case strings.TrimSpace(f.Server.Host) == "":
		return errors.New("server.host is required")
	case f.Server.Port < 1 || f.Server.Port > 65535:
		return errors.Errorf("server.port %d out of range", f.Server.Port)
	case f.Timeouts.Connect < 0 || f.Timeouts.IO < 0:
		return errors.New("timeouts must not be negative")
	}
	if _, ok := minTLSVersions[f.Server.MinTLS]; !ok {
		return errors.Errorf("server.min_tls %q not one of 1.0, 1.1, 1.2, 1.3", f.Server.MinTLS)
	}
	switch f.TLS.Verify {
	case VerifySystem, VerifyInsecure:
	case VerifyCA:
		if f.TLS.CAFile == "" {
			return errors.New(`tls.ca_file is required when tls.verify is "ca"`)
		}
	case VerifyPinned:
		if len(f.TLS.Fingerprints) == 0 {
			return errors.New(`tls.fingerprints is required when tls.verify is "pinned"`)
		}
	default:
		return errors.Errorf("tls.verify %q not one of system, ca, pinned, insecure", f.TLS.Verify)
	}
	return nil
}

// Session returns the session configuration for f
func (f *File) Session() (session.Config, error) {
	if err := f.Validate(); err != nil {
		return session.Config{}, errors.Wrap(err, "config")
	}
	verify, err := f.verifier()
	if err != nil {
		return session.Config{}, errors.Wrap(err, "config")
	}
	return session.Config{
		Transport: transport.Config{
			Host:           strings.TrimSpace(f.Server.Host),
			Port:           f.Server.Port,
			ServerName:     f.Server.ServerName,
			Verify:         verify,
			MinVersion:     minTLSVersions[f.Server.MinTLS],
			ConnectTimeout: f.Timeouts.Connect,
			IOTimeout:      f.Timeouts.IO,
		},
		Username: f.Credentials.Username,
		Password: f.Credentials.Password,
	}, nil
}

func (f *File) verifier() (transport.Verifier, error) {
	switch f.TLS.Verify {
	case VerifyCA:
		pem, err := os.ReadFile(f.TLS.CAFile)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %s", f.TLS.CAFile)
		}
		return transport.CertPool(pool), nil
	case VerifyPinned:
		return transport.PinnedSHA256(f.TLS.Fingerprints...), nil
	case VerifyInsecure:
		return transport.InsecureAcceptAny(), nil
	}
	return transport.SystemRoots(), nil
}
