package secrets

import (
	"errors"
	"strings"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver([]entity.Secret{
		{Name: "dns-token", Value: "token-123"},
		{Name: "ssh-pass", Value: "super-secret"},
	})

	t.Run("resolve secret reference", func(t *testing.T) {
		val, err := resolver.Resolve(*valueobject.NewSecretRefSecret("dns-token"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "token-123" {
			t.Errorf("Resolve() = %q, want %q", val, "token-123")
		}
	})

	t.Run("resolve plain value", func(t *testing.T) {
		val, err := resolver.Resolve(*valueobject.NewSecretRefPlain("in-the-open"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "in-the-open" {
			t.Errorf("Resolve() = %q, want %q", val, "in-the-open")
		}
	})

	t.Run("missing secret returns error", func(t *testing.T) {
		_, err := resolver.Resolve(*valueobject.NewSecretRefSecret("nope"))
		if !errors.Is(err, domain.ErrMissingSecret) {
			t.Errorf("Resolve() error = %v, want ErrMissingSecret", err)
		}
	})
}

func TestResolver_ResolveAll(t *testing.T) {
	resolver := NewResolver([]entity.Secret{
		{Name: "cf-token", Value: "cf-value"},
		{Name: "ssh-pass", Value: "ssh-value"},
	})

	settings := &entity.Settings{
		Target: entity.Target{
			Host:     "203.0.113.10",
			User:     "ops",
			Password: *valueobject.NewSecretRefSecret("ssh-pass"),
		},
		DNS: entity.DNSSettings{
			Provider: entity.DNSProviderCloudflare,
			Credentials: map[string]valueobject.SecretRef{
				"api_token": *valueobject.NewSecretRefSecret("cf-token"),
			},
		},
	}

	if err := resolver.ResolveAll(settings); err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}

	// References stay unresolved in place; only the cache learns values.
	if settings.Target.Password.Plain != "" {
		t.Errorf("ResolveAll modified Password.Plain = %q", settings.Target.Password.Plain)
	}
	if got := resolver.Value(settings.Target.Password); got != "ssh-value" {
		t.Errorf("Value(password) = %q, want %q", got, "ssh-value")
	}
	if got := resolver.Value(settings.DNS.Credentials["api_token"]); got != "cf-value" {
		t.Errorf("Value(api_token) = %q, want %q", got, "cf-value")
	}
}

func TestResolver_ResolveAll_MissingDNSCredential(t *testing.T) {
	resolver := NewResolver(nil)
	settings := &entity.Settings{
		DNS: entity.DNSSettings{
			Provider: entity.DNSProviderCloudflare,
			Credentials: map[string]valueobject.SecretRef{
				"api_token": *valueobject.NewSecretRefSecret("absent"),
			},
		},
	}

	err := resolver.ResolveAll(settings)
	if !errors.Is(err, domain.ErrMissingSecret) {
		t.Fatalf("ResolveAll() error = %v, want ErrMissingSecret", err)
	}
	if !strings.Contains(err.Error(), "api_token") {
		t.Errorf("error %q does not name the credential key", err)
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		pw, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword() error = %v", err)
		}
		if len(pw) != passwordLength {
			t.Errorf("len = %d, want %d", len(pw), passwordLength)
		}
		for _, c := range pw {
			if !strings.ContainsRune(passwordAlphabet, c) {
				t.Errorf("password contains %q outside alphabet", c)
			}
		}
		if seen[pw] {
			t.Errorf("duplicate password generated: %q", pw)
		}
		seen[pw] = true
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if len(tok) != tokenBytes*2 {
		t.Errorf("len = %d, want %d", len(tok), tokenBytes*2)
	}
	if strings.ToLower(tok) != tok {
		t.Errorf("token %q not lowercase hex", tok)
	}
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if key == "" {
		t.Fatal("GenerateKey() returned empty string")
	}
	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if key == other {
		t.Error("two generated keys are identical")
	}
}
