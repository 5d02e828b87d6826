package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no CERTIFICATE block.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// AppendPEM parses every CERTIFICATE block in data into pool and returns
// how many were added. Other block types are skipped; one malformed
// certificate fails the whole call.
func AppendPEM(pool *x509.CertPool, data []byte) (int, error) {
	added := 0
	for rest := data; len(rest) > 0; {
		var block *pem.Block
		if block, rest = pem.Decode(rest); block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return added, fmt.Errorf("tlsroots: parse certificate %d: %w", added+1, err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return 0, ErrNoCertsFound
	}
	return added, nil
}

// ClientTLSConfig builds the CLI's TLS config. The system roots are always
// trusted; caFile, when set, adds a private CA on top. insecure skips
// verification and exists for local testing.
func ClientTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if caFile != "" {
		data, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read CA file: %w", err)
		}
		if _, err := AppendPEM(pool, data); err != nil {
			return nil, fmt.Errorf("tlsroots: %s: %w", caFile, err)
		}
	}
	return &tls.Config{
		RootCAs:            pool,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in via --insecure
	}, nil
}
