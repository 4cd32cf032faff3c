package ssl

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

// SelfSignedProvider is the fallback when no DNS registrar is configured:
// LAN-only setups still get TLS, at the cost of a browser trust warning on
// first visit.
type SelfSignedProvider struct {
	validity time.Duration
}

func NewSelfSignedProvider() *SelfSignedProvider {
	return &SelfSignedProvider{validity: 365 * 24 * time.Hour}
}

func (p *SelfSignedProvider) Name() string {
	return "selfsigned"
}

func (p *SelfSignedProvider) ObtainCertificate(domains []string) (*Certificate, error) {
	if len(domains) == 0 {
		return nil, domainerr.RequiredField("certificate domains")
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, domainerr.WrapOp("generate certificate key", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, domainerr.WrapOp("generate serial number", err)
	}

	// Backdated NotBefore tolerates clock skew between the build machine
	// and the target host.
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: domains[0]},
		NotBefore:             now.Add(-1 * time.Hour),
		NotAfter:              now.Add(p.validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	template.DNSNames, template.IPAddresses = splitSANs(domains)

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, domainerr.WrapOp("create certificate", err)
	}

	certPEM := encodePEM([][]byte{der}, "CERTIFICATE")
	keyPEM, err := encodePrivateKey(key)
	if err != nil {
		return nil, domainerr.WrapOp("encode private key", err)
	}

	logger.Info("self-signed certificate created", "domain", domains[0], "not_after", template.NotAfter)
	return &Certificate{
		Domain:      domains[0],
		Certificate: certPEM,
		PrivateKey:  keyPEM,
		NotBefore:   template.NotBefore,
		NotAfter:    template.NotAfter,
	}, nil
}

func (p *SelfSignedProvider) RenewCertificate(cert *Certificate) (*Certificate, error) {
	if cert == nil {
		return nil, domainerr.WrapOp("renew certificate", domainerr.ErrCertInvalid)
	}
	return p.ObtainCertificate([]string{cert.Domain})
}
