package entity

import (
	"errors"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  error
	}{
		{"empty settings valid", Settings{}, nil},
		{
			"bad dns provider",
			Settings{DNS: DNSSettings{Provider: "route53", Credentials: map[string]valueobject.SecretRef{"k": {Plain: "v"}}}},
			domain.ErrInvalidType,
		},
		{
			"dns provider without credentials",
			Settings{DNS: DNSSettings{Provider: DNSProviderCloudflare}},
			domain.ErrRequired,
		},
		{
			"valid cloudflare dns",
			Settings{DNS: DNSSettings{
				Provider:    DNSProviderCloudflare,
				Credentials: map[string]valueobject.SecretRef{"api_token": {Env: "CF_API_TOKEN"}},
			}},
			nil,
		},
		{
			"zerossl without eab",
			Settings{ACME: ACMESettings{CA: "zerossl", Email: "ops@example.com"}},
			domain.ErrRequired,
		},
		{
			"letsencrypt ok",
			Settings{ACME: ACMESettings{CA: "letsencrypt", Email: "ops@example.com"}},
			nil,
		},
		{
			"duplicate secret names",
			Settings{Secrets: []Secret{{Name: "a", Value: "1"}, {Name: "a", Value: "2"}}},
			domain.ErrInvalidName,
		},
		{
			"invalid target",
			Settings{Target: Target{Host: "10.0.0.5", Port: 22}},
			domain.ErrRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestSettings_SecretMap(t *testing.T) {
	s := Settings{Secrets: []Secret{{Name: "cf", Value: "token"}, {Name: "ssh", Value: "pw"}}}
	m := s.SecretMap()
	if m["cf"] != "token" || m["ssh"] != "pw" {
		t.Errorf("SecretMap() = %v", m)
	}
}
