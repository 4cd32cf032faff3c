package ssl

import (
	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
)

// Directory endpoints for the CAs the settings file can name.
const (
	LetsEncryptProductionURL = "https://acme-v02.api.letsencrypt.org/directory"
	LetsEncryptStagingURL    = "https://acme-staging-v02.api.letsencrypt.org/directory"
	ZeroSSLProductionURL     = "https://acme.zerossl.com/v2/DV90"
)

func NewLetsEncryptProvider(dnsProvider DNSProvider) (*ACMEProvider, error) {
	return NewLetsEncryptProviderWithDirectory(dnsProvider, LetsEncryptProductionURL)
}

func NewLetsEncryptProviderWithDirectory(dnsProvider DNSProvider, directoryURL string) (*ACMEProvider, error) {
	return NewACMEProvider("letsencrypt", directoryURL, dnsProvider, "", "")
}

// NewZeroSSLProvider needs the external account binding pair from the
// ZeroSSL dashboard; the kid and HMAC key tie the ACME account to it.
func NewZeroSSLProvider(dnsProvider DNSProvider, eabKid, eabHmacKey string) (*ACMEProvider, error) {
	return NewZeroSSLProviderWithDirectory(dnsProvider, eabKid, eabHmacKey, ZeroSSLProductionURL)
}

func NewZeroSSLProviderWithDirectory(dnsProvider DNSProvider, eabKid, eabHmacKey, directoryURL string) (*ACMEProvider, error) {
	if eabKid == "" {
		return nil, domainerr.RequiredField("eab kid")
	}
	if eabHmacKey == "" {
		return nil, domainerr.RequiredField("eab hmac key")
	}
	return NewACMEProvider("zerossl", directoryURL, dnsProvider, eabKid, eabHmacKey)
}
