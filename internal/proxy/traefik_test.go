package proxy

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

func TestTraefikStaticWithTLS(t *testing.T) {
	out, err := NewTraefikGenerator().Static(Input{
		Selections: []service.Selection{selection(t, "traefik")},
		Domain:     "example.dev",
		TLS:        true,
	})
	if err != nil {
		t.Fatalf("Static() error = %v", err)
	}

	var cfg traefikStatic
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}

	if cfg.EntryPoints["web"].Address != ":80" || cfg.EntryPoints["websecure"].Address != ":443" {
		t.Errorf("entrypoints = %+v", cfg.EntryPoints)
	}
	web := cfg.EntryPoints["web"]
	if web.HTTP == nil || web.HTTP.Redirections == nil || web.HTTP.Redirections.EntryPoint.To != "websecure" {
		t.Errorf("web entrypoint does not redirect: %+v", web)
	}
	if cfg.Providers.Docker.ExposedByDefault {
		t.Error("docker provider exposes containers by default")
	}
	if cfg.Providers.Docker.Network != "homelab" {
		t.Errorf("docker network = %q", cfg.Providers.Docker.Network)
	}
	if cfg.Providers.File.Directory != "/etc/traefik/dynamic" {
		t.Errorf("file provider dir = %q", cfg.Providers.File.Directory)
	}

	acme := cfg.CertificatesResolvers["letsencrypt"].ACME
	if acme.Email != "admin@example.dev" {
		t.Errorf("acme email = %q", acme.Email)
	}
	if acme.Storage != "/acme/acme.json" {
		t.Errorf("acme storage = %q", acme.Storage)
	}
	if acme.HTTPChallenge == nil || acme.HTTPChallenge.EntryPoint != "web" {
		t.Errorf("acme challenge = %+v", acme.HTTPChallenge)
	}
}

func TestTraefikStaticBehindTunnel(t *testing.T) {
	out, err := NewTraefikGenerator().Static(Input{
		Selections: []service.Selection{selection(t, "traefik")},
		Domain:     "example.dev",
		TLS:        false,
	})
	if err != nil {
		t.Fatalf("Static() error = %v", err)
	}

	var cfg traefikStatic
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.EntryPoints["web"].HTTP != nil {
		t.Error("web entrypoint redirects although the edge owns TLS")
	}
	if len(cfg.CertificatesResolvers) != 0 {
		t.Errorf("resolvers = %v, want none behind a tunnel", cfg.CertificatesResolvers)
	}
}

func TestTraefikStaticCustomEmail(t *testing.T) {
	out, err := NewTraefikGenerator().Static(Input{
		Domain:    "example.dev",
		TLS:       true,
		ACMEEmail: "ops@example.dev",
	})
	if err != nil {
		t.Fatalf("Static() error = %v", err)
	}
	if !strings.Contains(out, "ops@example.dev") {
		t.Errorf("custom email not used:\n%s", out)
	}
}

func TestTraefikDynamicMiddlewares(t *testing.T) {
	out, err := NewTraefikGenerator().Dynamic(Input{
		Selections: []service.Selection{selection(t, "grafana")},
		Domain:     "example.dev",
		TLS:        true,
	})
	if err != nil {
		t.Fatalf("Dynamic() error = %v", err)
	}

	var cfg traefikDynamic
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	headers := cfg.HTTP.Middlewares["secure-headers"].Headers
	if headers == nil {
		t.Fatalf("no secure-headers middleware: %v", cfg.HTTP.Middlewares)
	}
	if headers.CustomFrameOptionsValue != "SAMEORIGIN" || !headers.ContentTypeNosniff {
		t.Errorf("headers = %+v", headers)
	}
	if headers.STSSeconds == 0 {
		t.Error("no HSTS despite TLS")
	}

	if _, ok := cfg.HTTP.Middlewares["authelia"]; ok {
		t.Error("authelia middleware present without authelia selected")
	}
}

func TestTraefikDynamicAuthelia(t *testing.T) {
	out, err := NewTraefikGenerator().Dynamic(Input{
		Selections: []service.Selection{selection(t, "authelia"), selection(t, "grafana")},
		Domain:     "example.dev",
		TLS:        true,
	})
	if err != nil {
		t.Fatalf("Dynamic() error = %v", err)
	}

	var cfg traefikDynamic
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	fa := cfg.HTTP.Middlewares["authelia"].ForwardAuth
	if fa == nil {
		t.Fatalf("no forwardAuth middleware: %v", cfg.HTTP.Middlewares)
	}
	if fa.Address != "http://authelia:9091/api/verify?rd=https://auth.example.dev" {
		t.Errorf("forwardAuth address = %q", fa.Address)
	}
	if !fa.TrustForwardHeader || len(fa.AuthResponseHeaders) == 0 {
		t.Errorf("forwardAuth = %+v", fa)
	}
}

func TestMiddlewareRefs(t *testing.T) {
	if got := MiddlewareRefs(false); len(got) != 1 || got[0] != "secure-headers@file" {
		t.Errorf("MiddlewareRefs(false) = %v", got)
	}
	if got := MiddlewareRefs(true); len(got) != 2 || got[1] != "authelia@file" {
		t.Errorf("MiddlewareRefs(true) = %v", got)
	}
}
