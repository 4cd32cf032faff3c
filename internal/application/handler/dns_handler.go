package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/providers/dns"
)

// DNSHandler publishes records for the homelab domain. The change name
// is the bare subdomain and the artifact content carries type and
// target ("A 203.0.113.7", "CNAME xyz.cfargotunnel.com").
type DNSHandler struct{}

func NewDNSHandler() *DNSHandler {
	return &DNSHandler{}
}

func (h *DNSHandler) Kind() string { return render.KindDNS }

func (h *DNSHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if deps.DNS == nil {
		return failed(change, fmt.Errorf("%w: no dns provider configured", domain.ErrUnsupportedProvider)), nil
	}
	zone := deps.zone()
	if zone == "" {
		return failed(change, domain.RequiredField("domain")), nil
	}

	if change.Type() == valueobject.ChangeTypeDelete {
		return h.applyDelete(ctx, change, deps, zone)
	}

	a, err := deps.artifact(change)
	if err != nil {
		return failed(change, err), nil
	}
	recordType, value, ok := strings.Cut(string(a.Content), " ")
	if !ok || value == "" {
		return failed(change, fmt.Errorf("%w: malformed dns artifact %q", domain.ErrDNSError, a.Content)), nil
	}

	desired := &dns.DNSRecord{
		Name:  change.Name(),
		Type:  recordType,
		Value: value,
		TTL:   constants.DefaultDNSRecordTTL,
	}
	if err := dns.EnsureRecordSimple(ctx, deps.DNS, zone, desired); err != nil {
		return failed(change, domain.WrapEntity("record", change.Name(), err)), nil
	}
	return succeeded(change, fmt.Sprintf("%s %s -> %s", recordType,
		dns.GetFullDomain(change.Name(), zone), value)), nil
}

// applyDelete removes whatever A or CNAME record sits at the name. The
// rendered artifact is gone by now, so the record type is not known
// anymore.
func (h *DNSHandler) applyDelete(ctx context.Context, change *valueobject.Change, deps *Deps, zone string) (*Result, error) {
	records, err := deps.DNS.ListRecords(ctx, zone)
	if err != nil {
		return failed(change, domain.WrapOp("list records", err)), nil
	}

	removed := 0
	for _, rec := range records {
		if rec.Type != "A" && rec.Type != "CNAME" {
			continue
		}
		if dns.GetSubDomain(rec.Name, zone) != change.Name() {
			continue
		}
		if err := deps.DNS.DeleteRecord(ctx, zone, rec.ID); err != nil {
			return failed(change, domain.WrapEntity("record", change.Name(), err)), nil
		}
		removed++
	}
	if removed == 0 {
		return succeeded(change, "record already gone"), nil
	}
	return succeeded(change, "deleted "+dns.GetFullDomain(change.Name(), zone)), nil
}
