package entity

import (
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

type Secret struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (s *Secret) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidName)
	}
	return nil
}

type DNSProviderType string

const (
	DNSProviderCloudflare DNSProviderType = "cloudflare"
	DNSProviderAliyun     DNSProviderType = "aliyun"
	DNSProviderTencent    DNSProviderType = "tencent"
)

type DNSSettings struct {
	Provider    DNSProviderType                  `yaml:"provider,omitempty"`
	Credentials map[string]valueobject.SecretRef `yaml:"credentials,omitempty"`
}

func (d *DNSSettings) Enabled() bool {
	return d.Provider != ""
}

func (d *DNSSettings) Validate() error {
	if d.Provider == "" {
		return nil
	}
	switch d.Provider {
	case DNSProviderCloudflare, DNSProviderAliyun, DNSProviderTencent:
	default:
		return fmt.Errorf("%w: dns provider %q", domain.ErrInvalidType, d.Provider)
	}
	if len(d.Credentials) == 0 {
		return domain.RequiredField("dns credentials")
	}
	return nil
}

type ACMESettings struct {
	CA     string                `yaml:"ca,omitempty"` // letsencrypt or zerossl
	Email  string                `yaml:"email,omitempty"`
	EABKid string                `yaml:"eab_kid,omitempty"`
	EABKey valueobject.SecretRef `yaml:"eab_key,omitempty"`
}

type TunnelSettings struct {
	// ID is the cloudflared tunnel UUID, known once the operator has
	// run `cloudflared tunnel create`. CNAME publishing needs it; while
	// empty, tunnel DNS stays with `cloudflared tunnel route dns`.
	ID string `yaml:"id,omitempty"`
}

func (a *ACMESettings) Validate() error {
	switch a.CA {
	case "", "letsencrypt", "zerossl":
	default:
		return fmt.Errorf("%w: acme ca %q", domain.ErrInvalidType, a.CA)
	}
	if a.CA == "zerossl" && (a.EABKid == "" || a.EABKey.IsZero()) {
		return fmt.Errorf("%w: zerossl needs eab_kid and eab_key", domain.ErrRequired)
	}
	return nil
}

// Settings is the persisted tool configuration (config.yaml).
type Settings struct {
	Target    Target         `yaml:"target,omitempty"`
	OutputDir string         `yaml:"output_dir,omitempty"`
	Timezone  string         `yaml:"timezone,omitempty"`
	DNS       DNSSettings    `yaml:"dns,omitempty"`
	ACME      ACMESettings   `yaml:"acme,omitempty"`
	Tunnel    TunnelSettings `yaml:"tunnel,omitempty"`
	Secrets   []Secret       `yaml:"secrets,omitempty"`
}

func (s *Settings) Validate() error {
	if err := s.Target.Validate(); err != nil {
		return domain.WrapEntity("target", s.Target.String(), err)
	}
	if err := s.DNS.Validate(); err != nil {
		return domain.WrapOp("dns settings", err)
	}
	if err := s.ACME.Validate(); err != nil {
		return domain.WrapOp("acme settings", err)
	}
	seen := make(map[string]bool, len(s.Secrets))
	for i := range s.Secrets {
		if err := s.Secrets[i].Validate(); err != nil {
			return err
		}
		if seen[s.Secrets[i].Name] {
			return fmt.Errorf("%w: duplicate secret %q", domain.ErrInvalidName, s.Secrets[i].Name)
		}
		seen[s.Secrets[i].Name] = true
	}
	return nil
}

// SecretMap flattens the secrets list for SecretRef resolution.
func (s *Settings) SecretMap() map[string]string {
	m := make(map[string]string, len(s.Secrets))
	for _, sec := range s.Secrets {
		m[sec.Name] = sec.Value
	}
	return m
}
