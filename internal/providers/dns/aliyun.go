package dns

import (
	"context"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"
	"github.com/lite-lake/homelab-ops/internal/constants"
	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

type AliyunProvider struct {
	client *alidns.Client
}

func NewAliyunProvider(accessKeyID, accessKeySecret string) (*AliyunProvider, error) {
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
	}
	config.Endpoint = tea.String("dns.aliyuncs.com")
	client, err := alidns.NewClient(config)
	if err != nil {
		return nil, domainerr.WrapOp("create aliyun dns client", err)
	}
	return &AliyunProvider{client: client}, nil
}

func (p *AliyunProvider) Name() string {
	return "aliyun"
}

func (p *AliyunProvider) ListDomains(ctx context.Context) ([]string, error) {
	req := &alidns.DescribeDomainsRequest{}
	resp, err := p.client.DescribeDomains(req)
	if err != nil {
		return nil, domainerr.WrapOp("list domains", err)
	}

	var domains []string
	if resp.Body != nil && resp.Body.Domains != nil {
		for _, d := range resp.Body.Domains.Domain {
			domains = append(domains, tea.StringValue(d.DomainName))
		}
	}
	return domains, nil
}

func (p *AliyunProvider) ListRecords(ctx context.Context, domainName string) ([]DNSRecord, error) {
	req := &alidns.DescribeDomainRecordsRequest{
		DomainName: tea.String(domainName),
	}
	resp, err := p.client.DescribeDomainRecords(req)
	if err != nil {
		return nil, domainerr.WrapOp("list records", err)
	}

	var records []DNSRecord
	if resp.Body != nil && resp.Body.DomainRecords != nil {
		for _, r := range resp.Body.DomainRecords.Record {
			ttl := constants.DefaultDNSRecordTTL
			if r.TTL != nil {
				ttl = int(*r.TTL)
			}
			records = append(records, DNSRecord{
				ID:    tea.StringValue(r.RecordId),
				Name:  tea.StringValue(r.RR),
				Type:  tea.StringValue(r.Type),
				Value: tea.StringValue(r.Value),
				TTL:   ttl,
			})
		}
	}
	return records, nil
}

func (p *AliyunProvider) CreateRecord(ctx context.Context, domainName string, record *DNSRecord) error {
	logger.Debug("creating DNS record", "provider", "aliyun", "domain", domainName, "name", record.Name, "type", record.Type)

	ttl := int64(record.TTL)
	if ttl == 0 {
		ttl = constants.DefaultDNSRecordTTL
	}

	req := &alidns.AddDomainRecordRequest{
		DomainName: tea.String(domainName),
		RR:         tea.String(record.Name),
		Type:       tea.String(record.Type),
		Value:      tea.String(record.Value),
		TTL:        tea.Int64(ttl),
	}

	if _, err := p.client.AddDomainRecord(req); err != nil {
		return domainerr.WrapOp("create record", err)
	}

	logger.Info("DNS record created", "provider", "aliyun", "domain", domainName, "name", record.Name, "type", record.Type)
	return nil
}

func (p *AliyunProvider) UpdateRecord(ctx context.Context, domainName string, recordID string, record *DNSRecord) error {
	logger.Debug("updating DNS record", "provider", "aliyun", "domain", domainName, "record_id", recordID, "name", record.Name)

	ttl := int64(record.TTL)
	if ttl == 0 {
		ttl = constants.DefaultDNSRecordTTL
	}

	req := &alidns.UpdateDomainRecordRequest{
		RecordId: tea.String(recordID),
		RR:       tea.String(record.Name),
		Type:     tea.String(record.Type),
		Value:    tea.String(record.Value),
		TTL:      tea.Int64(ttl),
	}

	if _, err := p.client.UpdateDomainRecord(req); err != nil {
		return domainerr.WrapOp("update record", err)
	}

	logger.Info("DNS record updated", "provider", "aliyun", "domain", domainName, "record_id", recordID)
	return nil
}

func (p *AliyunProvider) DeleteRecord(ctx context.Context, domainName string, recordID string) error {
	logger.Debug("deleting DNS record", "provider", "aliyun", "domain", domainName, "record_id", recordID)

	req := &alidns.DeleteDomainRecordRequest{
		RecordId: tea.String(recordID),
	}

	if _, err := p.client.DeleteDomainRecord(req); err != nil {
		return domainerr.WrapOp("delete record", err)
	}

	logger.Info("DNS record deleted", "provider", "aliyun", "domain", domainName, "record_id", recordID)
	return nil
}
