// Package dns publishes records for the homelab domain through the
// configured registrar API. Record names hold the bare subdomain ("@" for
// the apex), never the FQDN; providers that return FQDNs are normalized
// on comparison.
package dns

import (
	"context"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

var (
	ErrDomainNotFound  = domain.ErrDNSDomainNotFound
	ErrRecordNotFound  = domain.ErrDNSRecordNotFound
	ErrInvalidResponse = domain.ErrDNSError
)

type DNSRecord struct {
	ID    string
	Name  string
	Type  string
	Value string
	TTL   int
}

type Provider interface {
	Name() string
	ListDomains(ctx context.Context) ([]string, error)
	ListRecords(ctx context.Context, domain string) ([]DNSRecord, error)
	CreateRecord(ctx context.Context, domain string, record *DNSRecord) error
	UpdateRecord(ctx context.Context, domain string, recordID string, record *DNSRecord) error
	DeleteRecord(ctx context.Context, domain string, recordID string) error
}
