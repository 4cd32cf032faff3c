package dns

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lite-lake/homelab-ops/internal/constants"
	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"
)

type TencentProvider struct {
	client *dnspod.Client
}

func NewTencentProvider(secretID, secretKey string) (*TencentProvider, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"
	client, err := dnspod.NewClient(credential, "", cpf)
	if err != nil {
		return nil, domainerr.WrapOp("create tencent dns client", err)
	}
	return &TencentProvider{client: client}, nil
}

func (p *TencentProvider) Name() string {
	return "tencent"
}

func (p *TencentProvider) ListDomains(ctx context.Context) ([]string, error) {
	req := dnspod.NewDescribeDomainListRequest()
	resp, err := p.client.DescribeDomainList(req)
	if err != nil {
		return nil, domainerr.WrapOp("list domains", err)
	}

	var domains []string
	if resp.Response != nil && resp.Response.DomainList != nil {
		for _, d := range resp.Response.DomainList {
			domains = append(domains, *d.Name)
		}
	}
	return domains, nil
}

func (p *TencentProvider) ListRecords(ctx context.Context, domainName string) ([]DNSRecord, error) {
	req := dnspod.NewDescribeRecordListRequest()
	req.Domain = common.StringPtr(domainName)

	resp, err := p.client.DescribeRecordList(req)
	if err != nil {
		return nil, domainerr.WrapOp("list records", err)
	}

	var records []DNSRecord
	if resp.Response != nil && resp.Response.RecordList != nil {
		for _, r := range resp.Response.RecordList {
			ttl := constants.DefaultDNSRecordTTL
			if r.TTL != nil {
				ttl = int(*r.TTL)
			}
			records = append(records, DNSRecord{
				ID:    strconv.FormatUint(*r.RecordId, 10),
				Name:  *r.Name,
				Type:  *r.Type,
				Value: *r.Value,
				TTL:   ttl,
			})
		}
	}
	return records, nil
}

func (p *TencentProvider) CreateRecord(ctx context.Context, domainName string, record *DNSRecord) error {
	logger.Debug("creating DNS record", "provider", "tencent", "domain", domainName, "name", record.Name, "type", record.Type)

	ttl := uint64(record.TTL)
	if ttl == 0 {
		ttl = constants.DefaultDNSRecordTTL
	}

	req := dnspod.NewCreateRecordRequest()
	req.Domain = common.StringPtr(domainName)
	req.SubDomain = common.StringPtr(record.Name)
	req.RecordType = common.StringPtr(record.Type)
	req.RecordLine = common.StringPtr("默认")
	req.Value = common.StringPtr(record.Value)
	req.TTL = common.Uint64Ptr(ttl)

	if _, err := p.client.CreateRecord(req); err != nil {
		return domainerr.WrapOp("create record", err)
	}

	logger.Info("DNS record created", "provider", "tencent", "domain", domainName, "name", record.Name, "type", record.Type)
	return nil
}

func (p *TencentProvider) UpdateRecord(ctx context.Context, domainName string, recordID string, record *DNSRecord) error {
	logger.Debug("updating DNS record", "provider", "tencent", "domain", domainName, "record_id", recordID, "name", record.Name)

	recordIDInt, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	ttl := uint64(record.TTL)
	if ttl == 0 {
		ttl = constants.DefaultDNSRecordTTL
	}

	req := dnspod.NewModifyRecordRequest()
	req.Domain = common.StringPtr(domainName)
	req.RecordId = common.Uint64Ptr(recordIDInt)
	req.SubDomain = common.StringPtr(record.Name)
	req.RecordType = common.StringPtr(record.Type)
	req.RecordLine = common.StringPtr("默认")
	req.Value = common.StringPtr(record.Value)
	req.TTL = common.Uint64Ptr(ttl)

	if _, err := p.client.ModifyRecord(req); err != nil {
		return domainerr.WrapOp("update record", err)
	}

	logger.Info("DNS record updated", "provider", "tencent", "domain", domainName, "record_id", recordID)
	return nil
}

func (p *TencentProvider) DeleteRecord(ctx context.Context, domainName string, recordID string) error {
	logger.Debug("deleting DNS record", "provider", "tencent", "domain", domainName, "record_id", recordID)

	recordIDInt, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	req := dnspod.NewDeleteRecordRequest()
	req.Domain = common.StringPtr(domainName)
	req.RecordId = common.Uint64Ptr(recordIDInt)

	if _, err := p.client.DeleteRecord(req); err != nil {
		return domainerr.WrapOp("delete record", err)
	}

	logger.Info("DNS record deleted", "provider", "tencent", "domain", domainName, "record_id", recordID)
	return nil
}
