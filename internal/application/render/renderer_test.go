package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

func testProfile() *entity.HostProfile {
	return &entity.HostProfile{
		CPU:    entity.CPUInfo{Cores: 4},
		Memory: entity.MemoryInfo{TotalMB: 16384, AvailableMB: 12000},
		Disks:  []entity.DiskMount{{Mount: "/", SizeGB: 500, FreeGB: 400}},
		Network: entity.NetworkInfo{
			PublicIP: "203.0.113.7",
		},
	}
}

func testAnswers(mutate func(*entity.Answers)) *entity.Answers {
	a := &entity.Answers{
		PrimaryUse:     entity.UseMedia,
		UserCount:      2,
		ExternalAccess: entity.AccessNone,
		SecurityLevel:  entity.SecurityStandard,
		BackupStrategy: entity.BackupLocal,
		Monitoring:     entity.MonitoringNone,
		CPUPercent:     50,
		MemoryPercent:  70,
	}
	if mutate != nil {
		mutate(a)
	}
	return a
}

func renderFixture(t *testing.T, mutate func(*entity.Answers), settings *entity.Settings) (*Renderer, Inputs) {
	t.Helper()
	profile := testProfile()
	answers := testAnswers(mutate)
	rec, err := service.NewRecommender().Recommend(profile, answers)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if settings == nil {
		settings = &entity.Settings{}
	}
	r, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r, Inputs{Profile: profile, Answers: answers, Settings: settings, Rec: rec}
}

func TestRenderBasicStack(t *testing.T) {
	r, in := renderFixture(t, nil, nil)

	set, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	composeArt, ok := set.Lookup(KindStack, "compose")
	if !ok {
		t.Fatal("no compose artifact")
	}
	if composeArt.Path != "docker-compose.yml" {
		t.Errorf("compose path = %q", composeArt.Path)
	}
	if !strings.Contains(string(composeArt.Content), "jellyfin") {
		t.Error("compose content missing jellyfin")
	}

	envArt, ok := set.Lookup(KindStack, "env")
	if !ok {
		t.Fatal("no env artifact")
	}
	if envArt.Mode != 0o600 {
		t.Errorf("env mode = %o, want 0600", envArt.Mode)
	}

	svc, ok := set.Lookup(KindStack, "jellyfin")
	if !ok {
		t.Fatal("no jellyfin service artifact")
	}
	if svc.Image == "" {
		t.Error("service artifact missing image ref")
	}
	if svc.Path != "" {
		t.Errorf("service artifact has file path %q", svc.Path)
	}

	for _, name := range []string{"backup.sh", "update.sh", "status.sh"} {
		if _, ok := set.Lookup(KindScript, name); !ok {
			t.Errorf("missing script artifact %s", name)
		}
	}
	if _, ok := set.Lookup(KindFirewall, "ufw"); !ok {
		t.Error("missing firewall artifact")
	}

	// LAN-only setup publishes nothing and terminates no TLS.
	if got := set.Filter(KindDNS); len(got) != 0 {
		t.Errorf("dns artifacts = %d, want 0", len(got))
	}
	if got := set.Filter(KindTLS); len(got) != 0 {
		t.Errorf("tls artifacts = %d, want 0", len(got))
	}
}

func TestRenderIdempotent(t *testing.T) {
	configDir := t.TempDir()
	profile := testProfile()
	answers := testAnswers(func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessVPN
		a.RemoteUsers = 2
	})
	rec, err := service.NewRecommender().Recommend(profile, answers)
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{Profile: profile, Answers: answers, Settings: &entity.Settings{}, Rec: rec}

	render := func() *Set {
		r, err := NewRenderer(configDir)
		if err != nil {
			t.Fatalf("NewRenderer() error = %v", err)
		}
		set, err := r.Render(in)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		return set
	}

	first := render()
	second := render()

	if len(first.Artifacts) != len(second.Artifacts) {
		t.Fatalf("artifact counts differ: %d vs %d", len(first.Artifacts), len(second.Artifacts))
	}
	for i, a := range first.Artifacts {
		b := second.Artifacts[i]
		if a.Key() != b.Key() {
			t.Fatalf("artifact order differs at %d: %s vs %s", i, a.Key(), b.Key())
		}
		if a.Hash() != b.Hash() {
			t.Errorf("artifact %s content differs across renders", a.Key())
		}
	}
}

func TestRenderReverseProxyWithDNS(t *testing.T) {
	settings := &entity.Settings{
		DNS: entity.DNSSettings{Provider: entity.DNSProviderCloudflare},
	}
	r, in := renderFixture(t, func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessReverseProxy
		a.Domain = "example.dev"
	}, settings)

	set, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	apex, ok := set.Lookup(KindDNS, "@")
	if !ok {
		t.Fatal("no apex dns artifact")
	}
	if string(apex.Content) != "A 203.0.113.7" {
		t.Errorf("apex record = %q", apex.Content)
	}
	if _, ok := set.Lookup(KindDNS, "jellyfin"); !ok {
		t.Error("no jellyfin subdomain record")
	}

	if _, ok := set.Lookup(KindProxy, in.Rec.Proxy); !ok {
		t.Errorf("no proxy artifact for %s", in.Rec.Proxy)
	}

	// 16GB picks traefik, which manages its own certificates.
	if in.Rec.Proxy == "traefik" {
		if got := set.Filter(KindTLS); len(got) != 0 {
			t.Errorf("tls artifacts with traefik = %d, want 0", len(got))
		}
		if _, ok := set.Lookup(KindProxy, "traefik-dynamic"); !ok {
			t.Error("no traefik dynamic config artifact")
		}
	}
}

func TestRenderNginxCertRequest(t *testing.T) {
	// A small box picks nginx; with a DNS provider the cert request is
	// a stable wildcard.
	profile := testProfile()
	profile.Memory = entity.MemoryInfo{TotalMB: 2048, AvailableMB: 1500}
	answers := testAnswers(func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessReverseProxy
		a.Domain = "example.dev"
	})
	rec, err := service.NewRecommender().Recommend(profile, answers)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Proxy != "nginx" {
		t.Fatalf("proxy = %q, want nginx", rec.Proxy)
	}
	r, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	settings := &entity.Settings{DNS: entity.DNSSettings{Provider: entity.DNSProviderCloudflare}}
	set, err := r.Render(Inputs{Profile: profile, Answers: answers, Settings: settings, Rec: rec})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	cert, ok := set.Lookup(KindTLS, "example.dev")
	if !ok {
		t.Fatal("no tls artifact")
	}
	wantSANs := "example.dev\n*.example.dev"
	if string(cert.Content) != wantSANs {
		t.Errorf("cert SANs = %q, want %q", cert.Content, wantSANs)
	}
}

func TestRenderTunnelArtifacts(t *testing.T) {
	r, in := renderFixture(t, func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessVPN
		a.RemoteUsers = 3
	}, nil)

	set, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	server, ok := set.Lookup(KindTunnel, "wg0")
	if !ok {
		t.Fatal("no wireguard server artifact")
	}
	if server.Path != "wireguard/config/wg_confs/wg0.conf" {
		t.Errorf("server conf path = %q", server.Path)
	}
	if server.Mode != 0o600 {
		t.Errorf("server conf mode = %o, want 0600", server.Mode)
	}
	if server.Local {
		t.Error("server conf marked local")
	}

	for _, name := range []string{"peer1", "peer2", "peer3"} {
		peer, ok := set.Lookup(KindTunnel, name)
		if !ok {
			t.Fatalf("no %s artifact", name)
		}
		if !peer.Local {
			t.Errorf("%s should be export-only", name)
		}
		if peer.Mode != 0o600 {
			t.Errorf("%s mode = %o, want 0600", name, peer.Mode)
		}
	}
	// No endpoint domain configured, so peers dial the public IP.
	peer, _ := set.Lookup(KindTunnel, "peer1")
	if !strings.Contains(string(peer.Content), "203.0.113.7:51820") {
		t.Errorf("peer endpoint missing public ip:\n%s", peer.Content)
	}
}

func TestRenderCloudflaredTunnel(t *testing.T) {
	settings := &entity.Settings{
		DNS:    entity.DNSSettings{Provider: entity.DNSProviderCloudflare},
		Tunnel: entity.TunnelSettings{ID: "f70a3f9c-91e3-4c7b-8f5e-0123456789ab"},
	}
	r, in := renderFixture(t, func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessTunnel
		a.Domain = "example.dev"
	}, settings)

	set, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if _, ok := set.Lookup(KindTunnel, "cloudflared"); !ok {
		t.Fatal("no cloudflared config artifact")
	}
	setup, ok := set.Lookup(KindTunnel, "cloudflared-setup")
	if !ok {
		t.Fatal("no setup instructions artifact")
	}
	if !setup.Local {
		t.Error("setup instructions should be export-only")
	}

	cname, ok := set.Lookup(KindDNS, "jellyfin")
	if !ok {
		t.Fatal("no tunnel cname artifact")
	}
	want := "CNAME f70a3f9c-91e3-4c7b-8f5e-0123456789ab.cfargotunnel.com"
	if string(cname.Content) != want {
		t.Errorf("cname record = %q, want %q", cname.Content, want)
	}

	// Behind the tunnel the proxy serves plain http.
	if got := set.Filter(KindTLS); len(got) != 0 {
		t.Errorf("tls artifacts behind tunnel = %d, want 0", len(got))
	}
}

func TestWriteTo(t *testing.T) {
	r, in := renderFixture(t, func(a *entity.Answers) {
		a.ExternalAccess = entity.AccessVPN
		a.RemoteUsers = 1
	}, nil)
	set, err := r.Render(in)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := set.WriteTo(dir); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "docker-compose.yml"))
	if err != nil {
		t.Fatalf("compose file not written: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("compose mode = %o", info.Mode().Perm())
	}

	envInfo, err := os.Stat(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("env file not written: %v", err)
	}
	if envInfo.Mode().Perm() != 0o600 {
		t.Errorf("env mode = %o, want 0600", envInfo.Mode().Perm())
	}

	if _, err := os.Stat(filepath.Join(dir, "wireguard", "peer1.conf")); err != nil {
		t.Errorf("peer conf not exported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "scripts", "firewall.sh")); err != nil {
		t.Errorf("firewall script not exported: %v", err)
	}
}
