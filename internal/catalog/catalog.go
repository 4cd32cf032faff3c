// Package catalog defines every service the recommender can pick and
// everything the renderers need to emit compose, proxy and firewall
// artifacts for it.
package catalog

import (
	"fmt"
	"sort"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

type Category string

const (
	CategoryMedia      Category = "media"
	CategoryDev        Category = "development"
	CategorySmartHome  Category = "smart_home"
	CategoryPrivacy    Category = "privacy"
	CategoryStorage    Category = "storage"
	CategoryMonitoring Category = "monitoring"
	CategorySecurity   Category = "security"
	CategoryBackup     Category = "backup"
	CategoryNetwork    Category = "network"
)

type Port struct {
	Host      int
	Container int
	Proto     string // tcp when empty
}

func (p Port) String() string {
	s := fmt.Sprintf("%d:%d", p.Host, p.Container)
	if p.Proto != "" && p.Proto != "tcp" {
		s += "/" + p.Proto
	}
	return s
}

type SecretKind string

const (
	SecretPassword SecretKind = "password" // 20 printable chars
	SecretToken    SecretKind = "token"    // 32 hex chars
	SecretBase64   SecretKind = "base64"   // 48 random bytes, base64
	// SecretExternal values cannot be invented; the .env gets an empty
	// entry the user must fill in before starting the stack.
	SecretExternal SecretKind = "external"
)

// SecretSpec names an .env entry the generator must invent a value for.
type SecretSpec struct {
	EnvKey string
	Kind   SecretKind
}

type Route struct {
	Subdomain string
	Port      int // container port the proxy forwards to
}

type Healthcheck struct {
	Test     []string
	Interval string
	Timeout  string
	Retries  int
}

type Sidecar struct {
	Suffix  string // container name becomes <service>-<suffix>
	Image   string
	Env     map[string]string
	Volumes []string
	Secrets []SecretSpec
}

type Service struct {
	Name        string
	DisplayName string
	Category    Category
	Image       string
	Command     []string
	Ports       []Port
	Volumes     []string
	Env         map[string]string
	Secrets     []SecretSpec
	Devices     []string
	CapAdd      []string
	Sysctls     []string
	MinMemoryMB int
	MinDiskGB   int
	Healthcheck *Healthcheck
	Sidecar     *Sidecar
	Route       *Route
	// LANOnly ports stay firewalled when a reverse proxy fronts the box.
	LANOnly bool
}

var services = map[string]Service{
	"jellyfin": {
		Name: "jellyfin", DisplayName: "Jellyfin", Category: CategoryMedia,
		Image: "jellyfin/jellyfin:latest",
		Ports: []Port{{Host: 8096, Container: 8096}},
		Volumes: []string{
			"./jellyfin/config:/config",
			"./jellyfin/cache:/cache",
			"./media:/media:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}"},
		MinMemoryMB: 1024, MinDiskGB: 10,
		Healthcheck: &Healthcheck{
			Test:     []string{"CMD", "curl", "-f", "http://localhost:8096/health"},
			Interval: "30s", Timeout: "10s", Retries: 3,
		},
		Route: &Route{Subdomain: "jellyfin", Port: 8096},
	},
	"plex": {
		Name: "plex", DisplayName: "Plex", Category: CategoryMedia,
		Image: "lscr.io/linuxserver/plex:latest",
		Ports: []Port{{Host: 32400, Container: 32400}},
		Volumes: []string{
			"./plex/config:/config",
			"./media:/media:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}", "PUID": "1000", "PGID": "1000", "VERSION": "docker"},
		MinMemoryMB: 2048, MinDiskGB: 10,
		Route: &Route{Subdomain: "plex", Port: 32400},
	},
	"sonarr": {
		Name: "sonarr", DisplayName: "Sonarr", Category: CategoryMedia,
		Image: "lscr.io/linuxserver/sonarr:latest",
		Ports: []Port{{Host: 8989, Container: 8989}},
		Volumes: []string{
			"./sonarr/config:/config",
			"./media:/media",
		},
		Env:         map[string]string{"TZ": "${TZ}", "PUID": "1000", "PGID": "1000"},
		MinMemoryMB: 512, MinDiskGB: 2,
		Route:   &Route{Subdomain: "sonarr", Port: 8989},
		LANOnly: true,
	},
	"radarr": {
		Name: "radarr", DisplayName: "Radarr", Category: CategoryMedia,
		Image: "lscr.io/linuxserver/radarr:latest",
		Ports: []Port{{Host: 7878, Container: 7878}},
		Volumes: []string{
			"./radarr/config:/config",
			"./media:/media",
		},
		Env:         map[string]string{"TZ": "${TZ}", "PUID": "1000", "PGID": "1000"},
		MinMemoryMB: 512, MinDiskGB: 2,
		Route:   &Route{Subdomain: "radarr", Port: 7878},
		LANOnly: true,
	},
	"navidrome": {
		Name: "navidrome", DisplayName: "Navidrome", Category: CategoryMedia,
		Image: "deluan/navidrome:latest",
		Ports: []Port{{Host: 4533, Container: 4533}},
		Volumes: []string{
			"./navidrome/data:/data",
			"./media/music:/music:ro",
		},
		Env: map[string]string{
			"ND_SCANSCHEDULE":   "1h",
			"ND_SESSIONTIMEOUT": "24h",
			"ND_MUSICFOLDER":    "/music",
		},
		MinMemoryMB: 256, MinDiskGB: 1,
		Route: &Route{Subdomain: "music", Port: 4533},
	},
	"photoprism": {
		Name: "photoprism", DisplayName: "PhotoPrism", Category: CategoryMedia,
		Image: "photoprism/photoprism:latest",
		Ports: []Port{{Host: 2342, Container: 2342}},
		Volumes: []string{
			"./photoprism/storage:/photoprism/storage",
			"./media/photos:/photoprism/originals",
		},
		Env: map[string]string{
			"PHOTOPRISM_ADMIN_PASSWORD": "${PHOTOPRISM_ADMIN_PASSWORD}",
			"PHOTOPRISM_SITE_URL":       "http://localhost:2342/",
		},
		Secrets:     []SecretSpec{{EnvKey: "PHOTOPRISM_ADMIN_PASSWORD", Kind: SecretPassword}},
		MinMemoryMB: 2048, MinDiskGB: 5,
		Route: &Route{Subdomain: "photos", Port: 2342},
	},
	"postgres": {
		Name: "postgres", DisplayName: "PostgreSQL", Category: CategoryDev,
		Image: "postgres:16-alpine",
		Ports: []Port{{Host: 5432, Container: 5432}},
		Volumes: []string{
			"./postgres/data:/var/lib/postgresql/data",
		},
		Env: map[string]string{
			"POSTGRES_USER":     "dev",
			"POSTGRES_PASSWORD": "${POSTGRES_PASSWORD}",
		},
		Secrets:     []SecretSpec{{EnvKey: "POSTGRES_PASSWORD", Kind: SecretPassword}},
		MinMemoryMB: 256, MinDiskGB: 5,
		Healthcheck: &Healthcheck{
			Test:     []string{"CMD-SHELL", "pg_isready -U dev"},
			Interval: "10s", Timeout: "5s", Retries: 5,
		},
		LANOnly: true,
	},
	"gitea": {
		Name: "gitea", DisplayName: "Gitea", Category: CategoryDev,
		Image: "gitea/gitea:latest",
		Ports: []Port{{Host: 3000, Container: 3000}, {Host: 2222, Container: 22}},
		Volumes: []string{
			"./gitea/data:/data",
		},
		Env: map[string]string{
			"TZ":                      "${TZ}",
			"USER_UID":                "1000",
			"USER_GID":                "1000",
			"GITEA__server__SSH_PORT": "2222",
		},
		MinMemoryMB: 512, MinDiskGB: 5,
		Route: &Route{Subdomain: "git", Port: 3000},
	},
	"home-assistant": {
		Name: "home-assistant", DisplayName: "Home Assistant", Category: CategorySmartHome,
		Image: "ghcr.io/home-assistant/home-assistant:stable",
		Ports: []Port{{Host: 8123, Container: 8123}},
		Volumes: []string{
			"./home-assistant/config:/config",
			"/etc/localtime:/etc/localtime:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}"},
		MinMemoryMB: 512, MinDiskGB: 2,
		Route: &Route{Subdomain: "home", Port: 8123},
	},
	"mosquitto": {
		Name: "mosquitto", DisplayName: "Mosquitto", Category: CategorySmartHome,
		Image: "eclipse-mosquitto:2",
		Ports: []Port{{Host: 1883, Container: 1883}},
		Volumes: []string{
			"./mosquitto/config:/mosquitto/config",
			"./mosquitto/data:/mosquitto/data",
		},
		MinMemoryMB: 64, MinDiskGB: 1,
		LANOnly: true,
	},
	"pihole": {
		Name: "pihole", DisplayName: "Pi-hole", Category: CategoryPrivacy,
		Image: "pihole/pihole:latest",
		Ports: []Port{
			{Host: 53, Container: 53},
			{Host: 53, Container: 53, Proto: "udp"},
			{Host: 8053, Container: 80},
		},
		Volumes: []string{
			"./pihole/etc-pihole:/etc/pihole",
			"./pihole/etc-dnsmasq.d:/etc/dnsmasq.d",
		},
		Env: map[string]string{
			"TZ":          "${TZ}",
			"WEBPASSWORD": "${PIHOLE_PASSWORD}",
		},
		Secrets:     []SecretSpec{{EnvKey: "PIHOLE_PASSWORD", Kind: SecretPassword}},
		MinMemoryMB: 128, MinDiskGB: 1,
		Route:   &Route{Subdomain: "pihole", Port: 80},
		LANOnly: true,
	},
	"vaultwarden": {
		Name: "vaultwarden", DisplayName: "Vaultwarden", Category: CategoryPrivacy,
		Image: "vaultwarden/server:latest",
		Ports: []Port{{Host: 8222, Container: 80}},
		Volumes: []string{
			"./vaultwarden/data:/data",
		},
		Env: map[string]string{
			"TZ":              "${TZ}",
			"ADMIN_TOKEN":     "${VAULTWARDEN_ADMIN_TOKEN}",
			"SIGNUPS_ALLOWED": "false",
		},
		Secrets:     []SecretSpec{{EnvKey: "VAULTWARDEN_ADMIN_TOKEN", Kind: SecretToken}},
		MinMemoryMB: 256, MinDiskGB: 1,
		Route: &Route{Subdomain: "vault", Port: 80},
	},
	"nextcloud": {
		Name: "nextcloud", DisplayName: "Nextcloud", Category: CategoryStorage,
		Image: "nextcloud:latest",
		Ports: []Port{{Host: 8081, Container: 80}},
		Volumes: []string{
			"./nextcloud/html:/var/www/html",
			"./nextcloud/data:/var/www/html/data",
		},
		Env: map[string]string{
			"TZ":                "${TZ}",
			"POSTGRES_HOST":     "nextcloud-db",
			"POSTGRES_DB":       "nextcloud",
			"POSTGRES_USER":     "nextcloud",
			"POSTGRES_PASSWORD": "${NEXTCLOUD_DB_PASSWORD}",
		},
		Secrets:     []SecretSpec{{EnvKey: "NEXTCLOUD_DB_PASSWORD", Kind: SecretPassword}},
		MinMemoryMB: 1024, MinDiskGB: 20,
		Healthcheck: &Healthcheck{
			Test:     []string{"CMD", "curl", "-f", "http://localhost/status.php"},
			Interval: "30s", Timeout: "10s", Retries: 3,
		},
		Sidecar: &Sidecar{
			Suffix: "db",
			Image:  "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_DB":       "nextcloud",
				"POSTGRES_USER":     "nextcloud",
				"POSTGRES_PASSWORD": "${NEXTCLOUD_DB_PASSWORD}",
			},
			Volumes: []string{"./nextcloud/db:/var/lib/postgresql/data"},
		},
		Route: &Route{Subdomain: "cloud", Port: 80},
	},
	"uptime-kuma": {
		Name: "uptime-kuma", DisplayName: "Uptime Kuma", Category: CategoryMonitoring,
		Image: "louislam/uptime-kuma:1",
		Ports: []Port{{Host: 3001, Container: 3001}},
		Volumes: []string{
			"./uptime-kuma/data:/app/data",
		},
		MinMemoryMB: 128, MinDiskGB: 1,
		Route: &Route{Subdomain: "status", Port: 3001},
	},
	"prometheus": {
		Name: "prometheus", DisplayName: "Prometheus", Category: CategoryMonitoring,
		Image: "prom/prometheus:latest",
		Ports: []Port{{Host: 9090, Container: 9090}},
		Volumes: []string{
			"./prometheus/config:/etc/prometheus",
			"./prometheus/data:/prometheus",
		},
		MinMemoryMB: 512, MinDiskGB: 10,
		LANOnly: true,
	},
	"grafana": {
		Name: "grafana", DisplayName: "Grafana", Category: CategoryMonitoring,
		Image: "grafana/grafana:latest",
		Ports: []Port{{Host: 3300, Container: 3000}},
		Volumes: []string{
			"./grafana/data:/var/lib/grafana",
		},
		Env: map[string]string{
			"TZ":                         "${TZ}",
			"GF_SECURITY_ADMIN_USER":     "admin",
			"GF_SECURITY_ADMIN_PASSWORD": "${GRAFANA_ADMIN_PASSWORD}",
			"GF_USERS_ALLOW_SIGN_UP":     "false",
		},
		Secrets:     []SecretSpec{{EnvKey: "GRAFANA_ADMIN_PASSWORD", Kind: SecretPassword}},
		MinMemoryMB: 256, MinDiskGB: 2,
		Healthcheck: &Healthcheck{
			Test:     []string{"CMD-SHELL", "wget -q --spider http://localhost:3000/api/health || exit 1"},
			Interval: "30s", Timeout: "10s", Retries: 3,
		},
		Route: &Route{Subdomain: "grafana", Port: 3000},
	},
	"node-exporter": {
		Name: "node-exporter", DisplayName: "Node Exporter", Category: CategoryMonitoring,
		Image: "prom/node-exporter:latest",
		Ports: []Port{{Host: 9100, Container: 9100}},
		Volumes: []string{
			"/proc:/host/proc:ro",
			"/sys:/host/sys:ro",
			"/:/rootfs:ro",
		},
		MinMemoryMB: 64, MinDiskGB: 1,
		LANOnly: true,
	},
	"authelia": {
		Name: "authelia", DisplayName: "Authelia", Category: CategorySecurity,
		Image: "authelia/authelia:latest",
		Ports: []Port{{Host: 9091, Container: 9091}},
		Volumes: []string{
			"./authelia/config:/config",
		},
		Env: map[string]string{
			"TZ":                              "${TZ}",
			"AUTHELIA_JWT_SECRET":             "${AUTHELIA_JWT_SECRET}",
			"AUTHELIA_SESSION_SECRET":         "${AUTHELIA_SESSION_SECRET}",
			"AUTHELIA_STORAGE_ENCRYPTION_KEY": "${AUTHELIA_STORAGE_KEY}",
		},
		Secrets: []SecretSpec{
			{EnvKey: "AUTHELIA_JWT_SECRET", Kind: SecretBase64},
			{EnvKey: "AUTHELIA_SESSION_SECRET", Kind: SecretBase64},
			{EnvKey: "AUTHELIA_STORAGE_KEY", Kind: SecretBase64},
		},
		MinMemoryMB: 256, MinDiskGB: 1,
		// The login portal must stay reachable from outside, it is the
		// front door for every protected service.
		Route: &Route{Subdomain: "auth", Port: 9091},
	},
	"crowdsec": {
		Name: "crowdsec", DisplayName: "CrowdSec", Category: CategorySecurity,
		Image: "crowdsecurity/crowdsec:latest",
		Volumes: []string{
			"./crowdsec/config:/etc/crowdsec",
			"./crowdsec/data:/var/lib/crowdsec/data",
			"/var/log:/var/log:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}"},
		MinMemoryMB: 256, MinDiskGB: 2,
	},
	"duplicati": {
		Name: "duplicati", DisplayName: "Duplicati", Category: CategoryBackup,
		Image: "lscr.io/linuxserver/duplicati:latest",
		Ports: []Port{{Host: 8200, Container: 8200}},
		Volumes: []string{
			"./duplicati/config:/config",
			"./backups:/backups",
			"./:/source:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}", "PUID": "1000", "PGID": "1000"},
		MinMemoryMB: 256, MinDiskGB: 2,
		LANOnly: true,
	},
	"watchtower": {
		Name: "watchtower", DisplayName: "Watchtower", Category: CategorySecurity,
		Image: "containrrr/watchtower:latest",
		Volumes: []string{
			"/var/run/docker.sock:/var/run/docker.sock",
		},
		Env: map[string]string{
			"TZ":                  "${TZ}",
			"WATCHTOWER_CLEANUP":  "true",
			"WATCHTOWER_SCHEDULE": "0 0 4 * * *",
		},
		MinMemoryMB: 64, MinDiskGB: 1,
	},
	"portainer": {
		Name: "portainer", DisplayName: "Portainer", Category: CategoryDev,
		Image: "portainer/portainer-ce:latest",
		Ports: []Port{{Host: 9443, Container: 9443}},
		Volumes: []string{
			"/var/run/docker.sock:/var/run/docker.sock",
			"./portainer/data:/data",
		},
		MinMemoryMB: 128, MinDiskGB: 1,
		Route:   &Route{Subdomain: "portainer", Port: 9443},
		LANOnly: true,
	},
	"nginx": {
		Name: "nginx", DisplayName: "Nginx", Category: CategoryNetwork,
		Image: "nginx:alpine",
		Ports: []Port{{Host: 80, Container: 80}, {Host: 443, Container: 443}},
		Volumes: []string{
			"./nginx/conf.d:/etc/nginx/conf.d:ro",
			"./nginx/certs:/etc/nginx/certs:ro",
		},
		MinMemoryMB: 64, MinDiskGB: 1,
	},
	"traefik": {
		Name: "traefik", DisplayName: "Traefik", Category: CategoryNetwork,
		Image: "traefik:v3.1",
		Ports: []Port{{Host: 80, Container: 80}, {Host: 443, Container: 443}},
		Volumes: []string{
			"./traefik/traefik.yml:/etc/traefik/traefik.yml:ro",
			"./traefik/dynamic:/etc/traefik/dynamic:ro",
			"./traefik/acme:/acme",
			"/var/run/docker.sock:/var/run/docker.sock:ro",
		},
		MinMemoryMB: 128, MinDiskGB: 1,
	},
	"cloudflared": {
		Name: "cloudflared", DisplayName: "Cloudflare Tunnel", Category: CategoryNetwork,
		Image:   "cloudflare/cloudflared:latest",
		Command: []string{"tunnel", "--no-autoupdate", "--config", "/etc/cloudflared/config.yml", "run"},
		Volumes: []string{
			"./cloudflared:/etc/cloudflared:ro",
		},
		MinMemoryMB: 64, MinDiskGB: 1,
	},
	"wireguard": {
		Name: "wireguard", DisplayName: "WireGuard", Category: CategoryNetwork,
		Image: "lscr.io/linuxserver/wireguard:latest",
		Ports: []Port{{Host: 51820, Container: 51820, Proto: "udp"}},
		Volumes: []string{
			"./wireguard/config:/config",
			"/lib/modules:/lib/modules:ro",
		},
		Env:         map[string]string{"TZ": "${TZ}", "PUID": "1000", "PGID": "1000"},
		CapAdd:      []string{"NET_ADMIN"},
		Sysctls:     []string{"net.ipv4.conf.all.src_valid_mark=1"},
		MinMemoryMB: 64, MinDiskGB: 1,
	},
}

func Get(name string) (*Service, error) {
	svc, ok := services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownService, name)
	}
	return &svc, nil
}

// All returns every service sorted by name so iteration is stable.
func All() []Service {
	out := make([]Service, 0, len(services))
	for _, svc := range services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names() []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ByCategory(cat Category) []Service {
	var out []Service
	for _, svc := range All() {
		if svc.Category == cat {
			out = append(out, svc)
		}
	}
	return out
}
