package ssl

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"time"

	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
	"golang.org/x/crypto/acme"
)

// DNSProvider answers dns-01 challenges. dns.ChallengeSolver implements it.
type DNSProvider interface {
	Present(domain, token, keyAuth string) error
	CleanUp(domain, token, keyAuth string) error
}

type ACMEClient struct {
	client       *acme.Client
	dnsProvider  DNSProvider
	directoryURL string
	accountKey   crypto.Signer
	eab          *acme.ExternalAccountBinding
}

func NewACMEClient(directoryURL string, dnsProvider DNSProvider) (*ACMEClient, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, domainerr.WrapOp("generate account key", err)
	}

	return &ACMEClient{
		client: &acme.Client{
			Key:          key,
			DirectoryURL: directoryURL,
		},
		dnsProvider:  dnsProvider,
		directoryURL: directoryURL,
		accountKey:   key,
	}, nil
}

func NewACMEClientWithEAB(directoryURL, kid, hmacKey string, dnsProvider DNSProvider) (*ACMEClient, error) {
	keyBytes, err := base64.RawURLEncoding.DecodeString(hmacKey)
	if err != nil {
		return nil, domainerr.WrapOp("decode eab hmac key", err)
	}

	c, err := NewACMEClient(directoryURL, dnsProvider)
	if err != nil {
		return nil, err
	}
	c.eab = &acme.ExternalAccountBinding{
		KID: kid,
		Key: keyBytes,
	}
	return c, nil
}

func (c *ACMEClient) RegisterAccount(ctx context.Context, termsAgreed bool) error {
	account := &acme.Account{
		Contact:                []string{},
		ExternalAccountBinding: c.eab,
	}

	_, err := c.client.Register(ctx, account, func(tosURL string) bool {
		return termsAgreed
	})
	if err != nil {
		if errors.Is(err, acme.ErrAccountAlreadyExists) {
			return nil
		}
		if ae, ok := err.(*acme.Error); ok && ae.StatusCode == 409 {
			return nil
		}
		return domainerr.WrapOp("register account", err)
	}
	return nil
}

func (c *ACMEClient) ObtainCertificate(ctx context.Context, domains []string) (*Certificate, error) {
	logger.Info("ordering certificate", "domains", domains, "directory", c.directoryURL)

	order, err := c.client.AuthorizeOrder(ctx, acme.DomainIDs(domains...))
	if err != nil {
		return nil, domainerr.WrapOp("create order", errors.Join(domainerr.ErrCertObtainFailed, err))
	}

	for _, authzURL := range order.AuthzURLs {
		if err := c.solveAuthorization(ctx, authzURL); err != nil {
			return nil, err
		}
	}

	order, err = c.client.WaitOrder(ctx, order.URI)
	if err != nil {
		return nil, domainerr.WrapOp("finalize order", errors.Join(domainerr.ErrCertObtainFailed, err))
	}

	certKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, domainerr.WrapOp("generate certificate key", err)
	}

	csr, err := createCSR(domains, certKey)
	if err != nil {
		return nil, domainerr.WrapOp("create CSR", err)
	}

	der, _, err := c.client.CreateOrderCert(ctx, order.FinalizeURL, csr, true)
	if err != nil {
		return nil, domainerr.WrapOp("issue certificate", errors.Join(domainerr.ErrCertObtainFailed, err))
	}

	certPEM := encodePEM(der, "CERTIFICATE")
	keyPEM, err := encodePrivateKey(certKey)
	if err != nil {
		return nil, domainerr.WrapOp("encode private key", err)
	}

	cert, err := x509.ParseCertificate(der[0])
	if err != nil {
		return nil, domainerr.WrapOp("parse certificate", errors.Join(domainerr.ErrCertInvalid, err))
	}

	logger.Info("certificate issued", "domain", domains[0], "not_after", cert.NotAfter)
	return &Certificate{
		Domain:      domains[0],
		Certificate: certPEM,
		PrivateKey:  keyPEM,
		NotBefore:   cert.NotBefore,
		NotAfter:    cert.NotAfter,
	}, nil
}

func (c *ACMEClient) RenewCertificate(ctx context.Context, oldCert *Certificate, domains []string) (*Certificate, error) {
	return c.ObtainCertificate(ctx, domains)
}

// solveAuthorization answers one authorization with its dns-01 challenge.
func (c *ACMEClient) solveAuthorization(ctx context.Context, authzURL string) error {
	authz, err := c.client.GetAuthorization(ctx, authzURL)
	if err != nil {
		return domainerr.WrapOp("get authorization", err)
	}

	if authz.Status == acme.StatusValid {
		return nil
	}

	var challenge *acme.Challenge
	for _, ch := range authz.Challenges {
		if ch.Type == "dns-01" {
			challenge = ch
			break
		}
	}
	if challenge == nil {
		return domainerr.WrapEntity("dns-01 challenge", authz.Identifier.Value, domainerr.ErrCertObtainFailed)
	}

	keyAuth, err := c.keyAuth(challenge.Token)
	if err != nil {
		return domainerr.WrapOp("compute key authorization", err)
	}

	identifier := authz.Identifier.Value
	if err := c.dnsProvider.Present(identifier, challenge.Token, keyAuth); err != nil {
		return domainerr.WrapOp("present dns challenge", err)
	}
	defer func() {
		if err := c.dnsProvider.CleanUp(identifier, challenge.Token, keyAuth); err != nil {
			logger.Warn("challenge record cleanup failed", "identifier", identifier, "error", err)
		}
	}()

	if _, err := c.client.Accept(ctx, challenge); err != nil {
		return domainerr.WrapOp("accept challenge", err)
	}

	if _, err := c.client.WaitAuthorization(ctx, authzURL); err != nil {
		return domainerr.WrapOp("authorization", errors.Join(domainerr.ErrCertObtainFailed, err))
	}
	return nil
}

func (c *ACMEClient) keyAuth(token string) (string, error) {
	thumbprint, err := acme.JWKThumbprint(c.client.Key.Public())
	if err != nil {
		return "", err
	}
	return token + "." + thumbprint, nil
}

func createCSR(domains []string, key crypto.Signer) ([]byte, error) {
	template := &x509.CertificateRequest{
		Subject: pkix.Name{CommonName: domains[0]},
	}
	template.DNSNames, template.IPAddresses = splitSANs(domains)
	return x509.CreateCertificateRequest(rand.Reader, template, key)
}

func splitSANs(domains []string) (names []string, ips []net.IP) {
	for _, d := range domains {
		if ip := net.ParseIP(d); ip != nil {
			ips = append(ips, ip)
		} else {
			names = append(names, d)
		}
	}
	return names, ips
}

func encodePEM(der [][]byte, blockType string) []byte {
	var buf []byte
	for _, b := range der {
		buf = append(buf, pem.EncodeToMemory(&pem.Block{
			Type:  blockType,
			Bytes: b,
		})...)
	}
	return buf
}

func encodePrivateKey(key crypto.Signer) ([]byte, error) {
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		b, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:  "EC PRIVATE KEY",
			Bytes: b,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
}

type ACMEProvider struct {
	client       *ACMEClient
	name         string
	directoryURL string
}

func NewACMEProvider(name, directoryURL string, dnsProvider DNSProvider, eabKid, eabHmacKey string) (*ACMEProvider, error) {
	var client *ACMEClient
	var err error

	if eabKid != "" && eabHmacKey != "" {
		client, err = NewACMEClientWithEAB(directoryURL, eabKid, eabHmacKey, dnsProvider)
	} else {
		client, err = NewACMEClient(directoryURL, dnsProvider)
	}
	if err != nil {
		return nil, domainerr.WrapOp("create acme client", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.RegisterAccount(ctx, true); err != nil {
		return nil, err
	}

	return &ACMEProvider{
		client:       client,
		name:         name,
		directoryURL: directoryURL,
	}, nil
}

func (p *ACMEProvider) Name() string {
	return p.name
}

func (p *ACMEProvider) ObtainCertificate(domains []string) (*Certificate, error) {
	if len(domains) == 0 {
		return nil, domainerr.RequiredField("certificate domains")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return p.client.ObtainCertificate(ctx, domains)
}

func (p *ACMEProvider) RenewCertificate(cert *Certificate) (*Certificate, error) {
	if cert == nil {
		return nil, domainerr.WrapOp("renew certificate", domainerr.ErrCertInvalid)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return p.client.RenewCertificate(ctx, cert, []string{cert.Domain})
}
