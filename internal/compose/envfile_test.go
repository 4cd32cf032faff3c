package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/catalog"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/secrets"
)

func parseEnv(t *testing.T, content string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			t.Fatalf("bad env line: %q", line)
		}
		out[key] = value
	}
	return out
}

func TestBuildEnvGeneratesCredentials(t *testing.T) {
	content, err := BuildEnv([]service.Selection{
		selection(t, "pihole"),
		selection(t, "grafana"),
	}, "Europe/Berlin", nil)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}

	env := parseEnv(t, content)
	if env["TZ"] != "Europe/Berlin" {
		t.Errorf("TZ = %q", env["TZ"])
	}
	if len(env["PIHOLE_PASSWORD"]) != 20 {
		t.Errorf("PIHOLE_PASSWORD length = %d, want 20", len(env["PIHOLE_PASSWORD"]))
	}
	if env["GRAFANA_ADMIN_PASSWORD"] == "" {
		t.Error("GRAFANA_ADMIN_PASSWORD empty")
	}
}

func TestBuildEnvExternalSecrets(t *testing.T) {
	// Externally supplied values, like an SMTP account, stay blank.
	sel := selection(t, "grafana")
	specs := make([]catalog.SecretSpec, 0, len(sel.Service.Secrets)+1)
	specs = append(specs, sel.Service.Secrets...)
	specs = append(specs, catalog.SecretSpec{
		EnvKey: "GRAFANA_SMTP_PASSWORD", Kind: catalog.SecretExternal,
	})
	sel.Service.Secrets = specs

	content, err := BuildEnv([]service.Selection{sel}, "", nil)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}

	if !strings.Contains(content, "GRAFANA_SMTP_PASSWORD=\n") {
		t.Errorf("external secret not left blank:\n%s", content)
	}
	if !strings.Contains(content, "Fill these in") {
		t.Errorf("no fill-in note:\n%s", content)
	}
	env := parseEnv(t, content)
	if env["TZ"] != "UTC" {
		t.Errorf("TZ fallback = %q, want UTC", env["TZ"])
	}
	if env["GRAFANA_ADMIN_PASSWORD"] == "" {
		t.Error("generated secret missing alongside external one")
	}
}

func TestBuildEnvDeterministicKeys(t *testing.T) {
	sels := []service.Selection{
		selection(t, "authelia"),
		selection(t, "vaultwarden"),
		selection(t, "nextcloud"),
	}
	first, err := BuildEnv(sels, "UTC", nil)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}
	second, err := BuildEnv(sels, "UTC", nil)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}

	keysOf := func(content string) []string {
		var keys []string
		for _, line := range strings.Split(content, "\n") {
			if key, _, ok := strings.Cut(line, "="); ok && !strings.HasPrefix(line, "#") {
				keys = append(keys, key)
			}
		}
		return keys
	}

	a, b := keysOf(first), keysOf(second)
	if len(a) != len(b) {
		t.Fatalf("key sets differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("key order differs at %d: %s vs %s", i, a[i], b[i])
		}
	}

	// Values must differ between runs; generation is random.
	envA, envB := parseEnv(t, first), parseEnv(t, second)
	if envA["VAULTWARDEN_ADMIN_TOKEN"] == envB["VAULTWARDEN_ADMIN_TOKEN"] {
		t.Error("admin token identical across runs")
	}
}

func TestBuildEnvStableWithVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	sels := []service.Selection{selection(t, "vaultwarden"), selection(t, "grafana")}

	vault, err := secrets.OpenVault(path)
	if err != nil {
		t.Fatalf("OpenVault() error = %v", err)
	}
	first, err := BuildEnv(sels, "UTC", vault)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}
	if err := vault.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A vault reopened from disk reproduces the exact same file.
	reopened, err := secrets.OpenVault(path)
	if err != nil {
		t.Fatalf("reopen vault: %v", err)
	}
	second, err := BuildEnv(sels, "UTC", reopened)
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}
	if first != second {
		t.Errorf("env content differs across runs with vault:\n%s\n---\n%s", first, second)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat vault: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("vault mode = %o, want 0600", info.Mode().Perm())
	}
}
