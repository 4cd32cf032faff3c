package catalog

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

func TestGet(t *testing.T) {
	svc, err := Get("jellyfin")
	if err != nil {
		t.Fatalf("Get(jellyfin) error = %v", err)
	}
	if svc.Image != "jellyfin/jellyfin:latest" {
		t.Errorf("Image = %q", svc.Image)
	}
	if svc.Category != CategoryMedia {
		t.Errorf("Category = %q, want media", svc.Category)
	}

	_, err = Get("doom-server")
	if !errors.Is(err, domain.ErrUnknownService) {
		t.Errorf("Get(doom-server) error = %v, want ErrUnknownService", err)
	}
}

func TestAllSortedAndStable(t *testing.T) {
	all := All()
	if len(all) < 20 {
		t.Fatalf("catalog has %d services, want at least 20", len(all))
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Name < all[j].Name }) {
		t.Error("All() not sorted by name")
	}
}

func TestCatalogConsistency(t *testing.T) {
	seenHostPorts := make(map[string]string)
	for _, svc := range All() {
		t.Run(svc.Name, func(t *testing.T) {
			if svc.Image == "" {
				t.Error("empty image")
			}
			if svc.DisplayName == "" {
				t.Error("empty display name")
			}
			if svc.MinMemoryMB <= 0 {
				t.Error("MinMemoryMB not set")
			}
			for _, port := range svc.Ports {
				if port.Host < 1 || port.Host > 65535 {
					t.Errorf("host port %d out of range", port.Host)
				}
				// nginx and traefik are alternatives and may share 80/443.
				if svc.Name == "nginx" || svc.Name == "traefik" {
					continue
				}
				proto := port.Proto
				if proto == "" {
					proto = "tcp"
				}
				key := proto + "/" + strconv.Itoa(port.Host)
				if other, taken := seenHostPorts[key]; taken {
					t.Errorf("default host port %s collides with %s", key, other)
				}
				seenHostPorts[key] = svc.Name
			}
			// Every ${VAR} secret placeholder in env must be declared.
			declared := make(map[string]bool)
			for _, spec := range svc.Secrets {
				declared[spec.EnvKey] = true
			}
			if svc.Sidecar != nil {
				for _, spec := range svc.Sidecar.Secrets {
					declared[spec.EnvKey] = true
				}
			}
			for envKey, val := range svc.Env {
				name, ok := placeholderName(val)
				if !ok || name == "TZ" {
					continue
				}
				if !declared[name] {
					t.Errorf("env %s references ${%s} with no SecretSpec", envKey, name)
				}
			}
			if svc.Route != nil && svc.Route.Subdomain == "" {
				t.Error("route with empty subdomain")
			}
		})
	}
}

func TestSidecarSharesSecret(t *testing.T) {
	svc, err := Get("nextcloud")
	if err != nil {
		t.Fatal(err)
	}
	if svc.Sidecar == nil {
		t.Fatal("nextcloud has no sidecar")
	}
	if svc.Sidecar.Image != "postgres:16-alpine" {
		t.Errorf("sidecar image = %q", svc.Sidecar.Image)
	}
	if svc.Env["POSTGRES_PASSWORD"] != svc.Sidecar.Env["POSTGRES_PASSWORD"] {
		t.Error("sidecar does not share the database password placeholder")
	}
}

func TestPortString(t *testing.T) {
	tests := []struct {
		name string
		port Port
		want string
	}{
		{"tcp implicit", Port{Host: 8080, Container: 80}, "8080:80"},
		{"udp explicit", Port{Host: 51820, Container: 51820, Proto: "udp"}, "51820:51820/udp"},
		{"tcp explicit", Port{Host: 443, Container: 443, Proto: "tcp"}, "443:443"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.port.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestByCategory(t *testing.T) {
	media := ByCategory(CategoryMedia)
	if len(media) == 0 {
		t.Fatal("no media services")
	}
	for _, svc := range media {
		if svc.Category != CategoryMedia {
			t.Errorf("%s has category %q", svc.Name, svc.Category)
		}
	}
}

func placeholderName(val string) (string, bool) {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return val[2 : len(val)-1], true
	}
	return "", false
}
