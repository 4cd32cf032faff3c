package dns

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/retry"
)

// TTL values every supported registrar accepts.
var validTTLs = []int{1, 5, 10, 20, 30, 60, 120, 180, 300, 600, 900, 1800, 3600, 7200, 18000, 43200, 86400}

func ParseTTL(ttlStr string) (int, error) {
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL: %s", ttlStr)
	}
	return NormalizeTTL(ttl), nil
}

// NormalizeTTL rounds down to the nearest TTL every provider accepts.
func NormalizeTTL(ttl int) int {
	idx, _ := slices.BinarySearch(validTTLs, ttl)
	if idx < len(validTTLs) && validTTLs[idx] == ttl {
		return ttl
	}
	if idx > 0 {
		return validTTLs[idx-1]
	}
	return 1
}

func DefaultTTL() int {
	return 600
}

func GetFullDomain(subDomain, domain string) string {
	if subDomain == "@" || subDomain == "" {
		return domain
	}
	return strings.Join([]string{subDomain, domain}, ".")
}

func GetSubDomain(fullDomain, domain string) string {
	if fullDomain == domain {
		return "@"
	}
	suffix := "." + domain
	if strings.HasSuffix(fullDomain, suffix) {
		return strings.TrimSuffix(fullDomain, suffix)
	}
	return fullDomain
}

func ParseSRVValue(value string) (priority, weight, port float64, target string) {
	parts := strings.Fields(value)
	if len(parts) >= 4 {
		priority, _ = strconv.ParseFloat(parts[0], 64)
		weight, _ = strconv.ParseFloat(parts[1], 64)
		port, _ = strconv.ParseFloat(parts[2], 64)
		target = parts[3]
	}
	return
}

func IsRetryableDNSError(err error) bool {
	if err == nil {
		return false
	}

	if errs, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range errs.Unwrap() {
			if IsRetryableDNSError(e) {
				return true
			}
		}
	}

	if netErr, ok := err.(net.Error); ok {
		return netErr.Timeout() || netErr.Temporary()
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"rate limit",
		"too many requests",
		"service unavailable",
		"internal server error",
		"bad gateway",
		"gateway timeout",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
	}
}

func (c *RetryConfig) options() []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(c.MaxAttempts),
		retry.WithInitialDelay(c.InitialDelay),
		retry.WithMaxDelay(c.MaxDelay),
		retry.WithIsRetryable(IsRetryableDNSError),
	}
}

// EnsureRecord converges the zone toward desired: create when absent,
// update when drifted, no-op when already matching. Registrars disagree on
// whether listed names are bare or fully qualified, so names are reduced
// to subdomain form before comparing.
func EnsureRecord(ctx context.Context, provider Provider, domain string, desired *DNSRecord, retryCfg *RetryConfig) error {
	if retryCfg == nil {
		retryCfg = DefaultRetryConfig()
	}

	records, err := retry.DoWithResult(ctx, func() ([]DNSRecord, error) {
		return provider.ListRecords(ctx, domain)
	}, retryCfg.options()...)
	if err != nil {
		return domainerr.WrapOp("list records", err)
	}

	wantName := GetSubDomain(desired.Name, domain)
	for _, existing := range records {
		if existing.Type != desired.Type || GetSubDomain(existing.Name, domain) != wantName {
			continue
		}
		if existing.Value == desired.Value && existing.TTL == desired.TTL {
			return nil
		}
		id := existing.ID
		return retry.Do(ctx, func() error {
			return provider.UpdateRecord(ctx, domain, id, desired)
		}, retryCfg.options()...)
	}

	return retry.Do(ctx, func() error {
		return provider.CreateRecord(ctx, domain, desired)
	}, retryCfg.options()...)
}

func EnsureRecordSimple(ctx context.Context, provider Provider, domain string, desired *DNSRecord) error {
	return EnsureRecord(ctx, provider, domain, desired, nil)
}

func BatchCreateRecords(ctx context.Context, provider Provider, domain string, records []*DNSRecord) error {
	for _, record := range records {
		if err := provider.CreateRecord(ctx, domain, record); err != nil {
			return domainerr.WrapEntity("record", record.Name, err)
		}
	}
	return nil
}

func BatchDeleteRecords(ctx context.Context, provider Provider, domain string, recordIDs []string) error {
	for _, recordID := range recordIDs {
		if err := provider.DeleteRecord(ctx, domain, recordID); err != nil {
			return domainerr.WrapEntity("record", recordID, err)
		}
	}
	return nil
}
