// Package ssl issues TLS certificates for the homelab domain: ACME with
// dns-01 validation against the configured DNS provider (Let's Encrypt or
// ZeroSSL), or self-signed when no registrar is configured.
package ssl

import (
	"time"
)

type Certificate struct {
	Domain      string
	Certificate []byte
	PrivateKey  []byte
	NotBefore   time.Time
	NotAfter    time.Time
}

func (c *Certificate) ExpiresWithin(d time.Duration) bool {
	return time.Now().Add(d).After(c.NotAfter)
}

type Provider interface {
	Name() string
	ObtainCertificate(domains []string) (*Certificate, error)
	RenewCertificate(cert *Certificate) (*Certificate, error)
}
