package proxy

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

func TestCloudflaredIngressThroughProxy(t *testing.T) {
	out, err := NewCloudflaredGenerator().Generate(Input{
		Selections: []service.Selection{
			selection(t, "nginx"),
			selection(t, "cloudflared"),
			selection(t, "jellyfin"),
			selection(t, "vaultwarden"),
		},
		Domain: "example.dev",
	}, "nginx")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var cfg cloudflaredConfig
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}

	if cfg.Tunnel != "homelab" {
		t.Errorf("tunnel = %q", cfg.Tunnel)
	}
	if cfg.CredentialsFile != "/etc/cloudflared/credentials.json" {
		t.Errorf("credentials-file = %q", cfg.CredentialsFile)
	}

	// Two hostname rules plus the catch-all.
	if len(cfg.Ingress) != 3 {
		t.Fatalf("ingress rules = %+v, want 3", cfg.Ingress)
	}
	for _, rule := range cfg.Ingress[:2] {
		if rule.Service != "http://nginx:80" {
			t.Errorf("rule %q bypasses the proxy: %q", rule.Hostname, rule.Service)
		}
	}
	last := cfg.Ingress[len(cfg.Ingress)-1]
	if last.Hostname != "" || last.Service != "http_status:404" {
		t.Errorf("catch-all = %+v", last)
	}
}

func TestCloudflaredIngressDirect(t *testing.T) {
	out, err := NewCloudflaredGenerator().Generate(Input{
		Selections: []service.Selection{
			selection(t, "cloudflared"),
			selection(t, "jellyfin"),
		},
		Domain: "example.dev",
	}, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var cfg cloudflaredConfig
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Ingress[0].Hostname != "jellyfin.example.dev" || cfg.Ingress[0].Service != "http://jellyfin:8096" {
		t.Errorf("direct rule = %+v", cfg.Ingress[0])
	}
}

func TestCloudflaredRequiresDomain(t *testing.T) {
	_, err := NewCloudflaredGenerator().Generate(Input{
		Selections: []service.Selection{selection(t, "jellyfin")},
	}, "")
	if !errors.Is(err, domain.ErrRenderFailed) {
		t.Errorf("error = %v, want ErrRenderFailed", err)
	}
}

func TestSetupInstructions(t *testing.T) {
	steps := SetupInstructions("example.dev")
	if len(steps) == 0 {
		t.Fatal("no instructions")
	}
	joined := strings.Join(steps, "\n")
	for _, want := range []string{"cloudflared tunnel login", "tunnel create homelab", "*.example.dev"} {
		if !strings.Contains(joined, want) {
			t.Errorf("instructions missing %q:\n%s", want, joined)
		}
	}
}
