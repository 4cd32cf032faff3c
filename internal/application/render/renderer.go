// Package render assembles every deployable artifact for a
// recommendation: the files placed on the target plus the DNS records
// and certificates applied through provider APIs. Rendering is pure
// apart from the credential vault and WireGuard key store, which exist
// so identical inputs produce byte-identical output across runs.
package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/compose"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/secrets"
	"github.com/lite-lake/homelab-ops/internal/proxy"
	"github.com/lite-lake/homelab-ops/internal/scripts"
	"github.com/lite-lake/homelab-ops/internal/wireguard"
)

// Artifact kinds. Files and API-side records share the same plan and
// diff machinery.
const (
	KindDNS      = "dns"
	KindTLS      = "tls"
	KindProxy    = "proxy"
	KindTunnel   = "tunnel"
	KindStack    = "stack"
	KindScript   = "script"
	KindFirewall = "firewall"
)

// KindOrder is the sequence handlers run in. Proxy configs and
// certificates must be on disk before compose starts the containers
// that mount them.
var KindOrder = []string{KindDNS, KindTLS, KindProxy, KindTunnel, KindStack, KindScript, KindFirewall}

type Artifact struct {
	Kind string
	Name string
	// Path is where the file lands relative to the deploy dir on the
	// target. Empty for API-side artifacts like DNS records.
	Path    string
	Content []byte
	Mode    fs.FileMode
	// Image is the container image ref for stack service artifacts.
	Image string
	// Local artifacts are exported to the output dir only and never
	// uploaded, like WireGuard device configs.
	Local bool
}

func (a Artifact) Key() string { return a.Kind + "/" + a.Name }

// Hash fingerprints the content for plan comparison.
func (a Artifact) Hash() string {
	sum := sha256.Sum256(a.Content)
	return hex.EncodeToString(sum[:])
}

// Set is the ordered artifact collection for one render.
type Set struct {
	Artifacts []Artifact
}

func (s *Set) add(a Artifact) {
	s.Artifacts = append(s.Artifacts, a)
}

func (s *Set) Lookup(kind, name string) (Artifact, bool) {
	for _, a := range s.Artifacts {
		if a.Kind == kind && a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Filter returns the artifacts of one kind in render order.
func (s *Set) Filter(kind string) []Artifact {
	var out []Artifact
	for _, a := range s.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// WriteTo exports every file artifact under dir, mirroring the target
// layout. Absolute paths lose their leading slash.
func (s *Set) WriteTo(dir string) error {
	for _, a := range s.Artifacts {
		if a.Path == "" {
			continue
		}
		dest := filepath.Join(dir, strings.TrimPrefix(a.Path, "/"))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, a.Content, a.Mode); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	return nil
}

// Inputs is everything the earlier pipeline stages gathered.
type Inputs struct {
	Profile  *entity.HostProfile
	Answers  *entity.Answers
	Settings *entity.Settings
	Rec      *service.Recommendation
}

type Renderer struct {
	vault    *secrets.Vault
	keyStore *wireguard.KeyStore
}

// NewRenderer opens the stores under configDir that keep credentials
// and tunnel keys stable between runs.
func NewRenderer(configDir string) (*Renderer, error) {
	vault, err := secrets.OpenVault(filepath.Join(configDir, "credentials.yaml"))
	if err != nil {
		return nil, err
	}
	return &Renderer{
		vault:    vault,
		keyStore: wireguard.NewKeyStore(filepath.Join(configDir, "wireguard.yaml")),
	}, nil
}

// Render produces the full artifact set for the recommendation, in
// apply order. New credentials and keys are persisted before it
// returns, so a repeat render reproduces the same bytes.
func (r *Renderer) Render(in Inputs) (*Set, error) {
	if in.Rec == nil || len(in.Rec.Selections) == 0 {
		return nil, fmt.Errorf("%w: nothing selected", domain.ErrRenderFailed)
	}
	set := &Set{}

	// Traefik terminates https itself; behind a tunnel the edge does
	// and routed traffic arrives as plain http.
	tls := in.Answers.ExternalAccess == entity.AccessReverseProxy && in.Answers.Domain != ""

	r.renderDNS(set, in)
	r.renderTLS(set, in, tls)
	if err := r.renderProxy(set, in, tls); err != nil {
		return nil, err
	}
	if err := r.renderTunnel(set, in); err != nil {
		return nil, err
	}
	if err := r.renderStack(set, in, tls); err != nil {
		return nil, err
	}
	if err := r.renderScripts(set, in); err != nil {
		return nil, err
	}

	if err := r.vault.Save(); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}
	return set, nil
}

// renderDNS emits one pseudo artifact per record to publish. Content is
// the record type and target, so an IP move shows up as an update.
func (r *Renderer) renderDNS(set *Set, in Inputs) {
	if !in.Settings.DNS.Enabled() || in.Answers.Domain == "" {
		return
	}
	switch in.Answers.ExternalAccess {
	case entity.AccessReverseProxy:
		ip := in.Profile.Network.PublicIP
		if ip == "" {
			logger.Warn("skipping dns records", "reason", "no public ip detected")
			return
		}
		set.add(Artifact{Kind: KindDNS, Name: "@", Content: []byte("A " + ip)})
		for _, sel := range routedSelections(in.Rec) {
			set.add(Artifact{Kind: KindDNS, Name: sel.Service.Route.Subdomain, Content: []byte("A " + ip)})
		}
	case entity.AccessTunnel:
		if in.Settings.Tunnel.ID == "" {
			// Without the tunnel UUID the records come from
			// `cloudflared tunnel route dns` instead.
			return
		}
		target := in.Settings.Tunnel.ID + ".cfargotunnel.com"
		for _, sel := range routedSelections(in.Rec) {
			set.add(Artifact{Kind: KindDNS, Name: sel.Service.Route.Subdomain, Content: []byte("CNAME " + target)})
		}
	}
}

// renderTLS emits the certificate request artifact for nginx. Content
// is the SAN list. With a DNS provider the cert is a stable wildcard;
// without one the self-signed fallback names every routed host.
// Traefik provisions its own certificates through its ACME resolver.
func (r *Renderer) renderTLS(set *Set, in Inputs, tls bool) {
	if !tls || in.Rec.Proxy != "nginx" {
		return
	}
	sans := []string{in.Answers.Domain}
	if in.Settings.DNS.Enabled() {
		sans = append(sans, "*."+in.Answers.Domain)
	} else {
		for _, sel := range routedSelections(in.Rec) {
			sans = append(sans, sel.Service.Route.Subdomain+"."+in.Answers.Domain)
		}
		sort.Strings(sans[1:])
	}
	set.add(Artifact{Kind: KindTLS, Name: in.Answers.Domain, Content: []byte(strings.Join(sans, "\n"))})
}

func (r *Renderer) renderProxy(set *Set, in Inputs, tls bool) error {
	pin := proxy.Input{
		Selections: in.Rec.Selections,
		Domain:     in.Answers.Domain,
		TLS:        tls,
		ACMEEmail:  in.Settings.ACME.Email,
	}
	switch in.Rec.Proxy {
	case "nginx":
		conf, err := proxy.NewNginxGenerator().Generate(pin)
		if err != nil {
			return err
		}
		set.add(Artifact{
			Kind: KindProxy, Name: "nginx",
			Path: "nginx/conf.d/homelab.conf", Content: []byte(conf), Mode: 0o644,
		})
	case "traefik":
		gen := proxy.NewTraefikGenerator()
		static, err := gen.Static(pin)
		if err != nil {
			return err
		}
		dynamic, err := gen.Dynamic(pin)
		if err != nil {
			return err
		}
		set.add(Artifact{
			Kind: KindProxy, Name: "traefik",
			Path: "traefik/traefik.yml", Content: []byte(static), Mode: 0o644,
		})
		set.add(Artifact{
			Kind: KindProxy, Name: "traefik-dynamic",
			Path: "traefik/dynamic/middlewares.yml", Content: []byte(dynamic), Mode: 0o644,
		})
	}
	return nil
}

func (r *Renderer) renderTunnel(set *Set, in Inputs) error {
	if in.Rec.Has("wireguard") {
		peers := in.Answers.RemoteUsers
		if peers < 1 {
			peers = 1
		}
		keys, err := r.keyStore.LoadOrCreate(peers)
		if err != nil {
			return fmt.Errorf("wireguard keys: %w", err)
		}
		endpoint := in.Answers.Domain
		if endpoint == "" {
			endpoint = in.Profile.Network.PublicIP
		}
		bundle, err := wireguard.NewGenerator().Generate(wireguard.Config{
			Endpoint:   endpoint,
			Peers:      peers,
			FullTunnel: in.Answers.VPNFullTunnel,
			Keys:       keys,
		})
		if err != nil {
			return err
		}
		// The linuxserver image reads custom tunnels from
		// /config/wg_confs, mounted from ./wireguard/config.
		set.add(Artifact{
			Kind: KindTunnel, Name: "wg0",
			Path: "wireguard/config/wg_confs/wg0.conf", Content: []byte(bundle.ServerConf), Mode: 0o600,
		})
		for _, peer := range bundle.Peers {
			set.add(Artifact{
				Kind: KindTunnel, Name: peer.Name,
				Path: "wireguard/" + peer.Name + ".conf", Content: []byte(peer.Conf), Mode: 0o600,
				Local: true,
			})
		}
	}

	if in.Rec.Has("cloudflared") {
		conf, err := proxy.NewCloudflaredGenerator().Generate(proxy.Input{
			Selections: in.Rec.Selections,
			Domain:     in.Answers.Domain,
		}, in.Rec.Proxy)
		if err != nil {
			return err
		}
		set.add(Artifact{
			Kind: KindTunnel, Name: "cloudflared",
			Path: "cloudflared/config.yml", Content: []byte(conf), Mode: 0o644,
		})
		instructions := strings.Join(proxy.SetupInstructions(in.Answers.Domain), "\n") + "\n"
		set.add(Artifact{
			Kind: KindTunnel, Name: "cloudflared-setup",
			Path: "cloudflared/SETUP.txt", Content: []byte(instructions), Mode: 0o644,
			Local: true,
		})
	}
	return nil
}

func (r *Renderer) renderStack(set *Set, in Inputs, tls bool) error {
	cin := compose.Input{
		Selections: in.Rec.Selections,
		Proxy:      in.Rec.Proxy,
		Domain:     in.Answers.Domain,
		TLS:        tls,
	}
	if in.Rec.Proxy == "traefik" {
		cin.Middlewares = proxy.MiddlewareRefs(in.Rec.Has("authelia"))
	}
	composeYML, err := compose.NewGenerator().Generate(cin)
	if err != nil {
		return err
	}
	env, err := compose.BuildEnv(in.Rec.Selections, in.Settings.Timezone, r.vault)
	if err != nil {
		return err
	}

	// The env file goes first: the compose change brings the stack up
	// and needs every ${VAR} resolvable by then.
	set.add(Artifact{
		Kind: KindStack, Name: "env",
		Path: constants.EnvFileName, Content: []byte(env), Mode: 0o600,
	})
	set.add(Artifact{
		Kind: KindStack, Name: "compose",
		Path: constants.ComposeFileName, Content: []byte(composeYML), Mode: 0o644,
	})
	// One pseudo artifact per service carries the redeploy fingerprint
	// and the image ref that ends up in the state file.
	for _, sel := range in.Rec.Selections {
		set.add(Artifact{
			Kind: KindStack, Name: sel.Service.Name,
			Content: serviceFingerprint(sel), Image: sel.Service.Image,
		})
	}
	return nil
}

func (r *Renderer) renderScripts(set *Set, in Inputs) error {
	files, err := scripts.NewGenerator().Generate(scripts.Input{
		Selections: in.Rec.Selections,
		Proxy:      in.Rec.Proxy,
		Offsite:    in.Answers.BackupStrategy == entity.BackupOffsite,
	})
	if err != nil {
		return err
	}
	for _, name := range []string{"backup.sh", "update.sh", "status.sh"} {
		set.add(Artifact{
			Kind: KindScript, Name: name,
			Path: "scripts/" + name, Content: []byte(files[name]), Mode: 0o755,
		})
	}
	set.add(Artifact{
		Kind: KindFirewall, Name: "ufw",
		Path: "scripts/firewall.sh", Content: []byte(files["firewall.sh"]), Mode: 0o755,
	})
	return nil
}

// serviceFingerprint summarizes the parts of a selection whose change
// should redeploy the container.
func serviceFingerprint(sel service.Selection) []byte {
	var sb strings.Builder
	sb.WriteString("image=" + sel.Service.Image + "\n")
	ports := sel.Ports
	if len(ports) == 0 {
		ports = sel.Service.Ports
	}
	for _, p := range ports {
		sb.WriteString("port=" + p.String() + "\n")
	}
	for _, v := range sel.Service.Volumes {
		sb.WriteString("volume=" + v + "\n")
	}
	keys := make([]string, 0, len(sel.Service.Env))
	for k := range sel.Service.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString("env=" + k + "=" + sel.Service.Env[k] + "\n")
	}
	if sel.Service.Sidecar != nil {
		sb.WriteString("sidecar=" + sel.Service.Sidecar.Image + "\n")
	}
	return []byte(sb.String())
}

// routedSelections returns the services a proxy or tunnel exposes,
// excluding the edge containers themselves.
func routedSelections(rec *service.Recommendation) []service.Selection {
	var out []service.Selection
	for _, sel := range rec.Selections {
		if sel.Service.Route == nil {
			continue
		}
		if sel.Service.Name == rec.Proxy || sel.Service.Name == "cloudflared" {
			continue
		}
		out = append(out, sel)
	}
	return out
}
