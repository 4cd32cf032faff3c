package dns

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

type fakeProvider struct {
	records  []DNSRecord
	nextID   int
	failures map[string]int
	calls    map[string]int
}

func newFakeProvider(records ...DNSRecord) *fakeProvider {
	return &fakeProvider{
		records:  records,
		failures: map[string]int{},
		calls:    map[string]int{},
	}
}

func (f *fakeProvider) step(op string) error {
	f.calls[op]++
	if f.failures[op] > 0 {
		f.failures[op]--
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ListDomains(ctx context.Context) ([]string, error) {
	return []string{"example.dev"}, nil
}

func (f *fakeProvider) ListRecords(ctx context.Context, domain string) ([]DNSRecord, error) {
	if err := f.step("list"); err != nil {
		return nil, err
	}
	out := make([]DNSRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeProvider) CreateRecord(ctx context.Context, domain string, record *DNSRecord) error {
	if err := f.step("create"); err != nil {
		return err
	}
	f.nextID++
	r := *record
	r.ID = strconv.Itoa(f.nextID)
	f.records = append(f.records, r)
	return nil
}

func (f *fakeProvider) UpdateRecord(ctx context.Context, domain string, recordID string, record *DNSRecord) error {
	if err := f.step("update"); err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == recordID {
			r := *record
			r.ID = recordID
			f.records[i] = r
			return nil
		}
	}
	return ErrRecordNotFound
}

func (f *fakeProvider) DeleteRecord(ctx context.Context, domain string, recordID string) error {
	if err := f.step("delete"); err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == recordID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

// fastRetry keeps the backoff out of test runtime.
func fastRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestNormalizeTTL(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{45, 30},
		{600, 600},
		{700, 600},
		{86400, 86400},
		{100000, 86400},
	}
	for _, tt := range tests {
		if got := NormalizeTTL(tt.in); got != tt.want {
			t.Errorf("NormalizeTTL(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseTTL(t *testing.T) {
	if got, err := ParseTTL("600"); err != nil || got != 600 {
		t.Errorf("ParseTTL(600) = %d, %v", got, err)
	}
	if got, err := ParseTTL("0"); err != nil || got != 1 {
		t.Errorf("ParseTTL(0) = %d, %v", got, err)
	}
	if _, err := ParseTTL("abc"); err == nil {
		t.Error("ParseTTL(abc) should fail")
	}
}

func TestGetFullDomain(t *testing.T) {
	tests := []struct {
		sub, domain, want string
	}{
		{"@", "example.dev", "example.dev"},
		{"", "example.dev", "example.dev"},
		{"auth", "example.dev", "auth.example.dev"},
		{"a.b", "example.dev", "a.b.example.dev"},
	}
	for _, tt := range tests {
		if got := GetFullDomain(tt.sub, tt.domain); got != tt.want {
			t.Errorf("GetFullDomain(%q, %q) = %q, want %q", tt.sub, tt.domain, got, tt.want)
		}
	}
}

func TestGetSubDomain(t *testing.T) {
	tests := []struct {
		full, domain, want string
	}{
		{"example.dev", "example.dev", "@"},
		{"auth.example.dev", "example.dev", "auth"},
		{"a.b.example.dev", "example.dev", "a.b"},
		{"other.net", "example.dev", "other.net"},
	}
	for _, tt := range tests {
		if got := GetSubDomain(tt.full, tt.domain); got != tt.want {
			t.Errorf("GetSubDomain(%q, %q) = %q, want %q", tt.full, tt.domain, got, tt.want)
		}
	}
}

func TestParseSRVValue(t *testing.T) {
	priority, weight, port, target := ParseSRVValue("10 5 5060 sip.example.dev")
	if priority != 10 || weight != 5 || port != 5060 || target != "sip.example.dev" {
		t.Errorf("ParseSRVValue = (%v, %v, %v, %q)", priority, weight, port, target)
	}

	priority, weight, port, target = ParseSRVValue("garbage")
	if priority != 0 || weight != 0 || port != 0 || target != "" {
		t.Errorf("ParseSRVValue(garbage) = (%v, %v, %v, %q), want zeros", priority, weight, port, target)
	}
}

func TestIsRetryableDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"rate limit", errors.New("Rate Limit exceeded"), true},
		{"wrapped timeout", fmt.Errorf("api call: %w", errors.New("i/o timeout")), true},
		{"joined", errors.Join(errors.New("boom"), errors.New("bad gateway")), true},
		{"service unavailable", errors.New("503 Service Unavailable"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableDNSError(tt.err); got != tt.want {
				t.Errorf("IsRetryableDNSError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestEnsureRecordCreates(t *testing.T) {
	f := newFakeProvider()
	desired := &DNSRecord{Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600}

	if err := EnsureRecord(context.Background(), f, "example.dev", desired, fastRetry()); err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}
	if len(f.records) != 1 || f.records[0].Value != "203.0.113.7" {
		t.Errorf("records = %+v, want one A home record", f.records)
	}
	if f.calls["update"] != 0 {
		t.Error("EnsureRecord should not update when creating")
	}
}

func TestEnsureRecordUpdates(t *testing.T) {
	f := newFakeProvider(DNSRecord{ID: "1", Name: "home", Type: "A", Value: "192.0.2.1", TTL: 600})
	desired := &DNSRecord{Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600}

	if err := EnsureRecord(context.Background(), f, "example.dev", desired, fastRetry()); err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}
	if len(f.records) != 1 {
		t.Fatalf("records = %+v, want exactly one", f.records)
	}
	if f.records[0].Value != "203.0.113.7" {
		t.Errorf("record value = %q, want updated address", f.records[0].Value)
	}
	if f.calls["create"] != 0 {
		t.Error("EnsureRecord should not create when a record exists")
	}
}

func TestEnsureRecordNoop(t *testing.T) {
	f := newFakeProvider(DNSRecord{ID: "1", Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600})
	desired := &DNSRecord{Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600}

	if err := EnsureRecord(context.Background(), f, "example.dev", desired, fastRetry()); err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}
	if f.calls["create"] != 0 || f.calls["update"] != 0 {
		t.Errorf("EnsureRecord touched a matching record: calls=%v", f.calls)
	}
}

func TestEnsureRecordMatchesFullyQualifiedNames(t *testing.T) {
	// Cloudflare lists names fully qualified while the desired record uses
	// the bare subdomain. Both must be treated as the same record.
	f := newFakeProvider(DNSRecord{ID: "1", Name: "home.example.dev", Type: "A", Value: "203.0.113.7", TTL: 600})
	desired := &DNSRecord{Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600}

	if err := EnsureRecord(context.Background(), f, "example.dev", desired, fastRetry()); err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}
	if f.calls["create"] != 0 {
		t.Error("fully qualified existing record should match the bare name")
	}
}

func TestEnsureRecordRetriesTransientErrors(t *testing.T) {
	f := newFakeProvider()
	f.failures["list"] = 1
	desired := &DNSRecord{Name: "home", Type: "A", Value: "203.0.113.7", TTL: 600}

	if err := EnsureRecord(context.Background(), f, "example.dev", desired, fastRetry()); err != nil {
		t.Fatalf("EnsureRecord after transient failure: %v", err)
	}
	if f.calls["list"] != 2 {
		t.Errorf("list calls = %d, want 2 (one failure, one retry)", f.calls["list"])
	}
}

func TestBatchCreateRecords(t *testing.T) {
	f := newFakeProvider()
	records := []*DNSRecord{
		{Name: "jellyfin", Type: "A", Value: "203.0.113.7", TTL: 600},
		{Name: "vault", Type: "A", Value: "203.0.113.7", TTL: 600},
	}
	if err := BatchCreateRecords(context.Background(), f, "example.dev", records); err != nil {
		t.Fatalf("BatchCreateRecords: %v", err)
	}
	if len(f.records) != 2 {
		t.Errorf("records = %d, want 2", len(f.records))
	}

	if err := BatchDeleteRecords(context.Background(), f, "example.dev", []string{"1", "2"}); err != nil {
		t.Fatalf("BatchDeleteRecords: %v", err)
	}
	if len(f.records) != 0 {
		t.Errorf("records = %d after delete, want 0", len(f.records))
	}
}
