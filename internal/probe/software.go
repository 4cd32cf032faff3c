package probe

import (
	"context"
	"regexp"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

var versionPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// softwareChecks is the census of tools the recommender and deploy
// handlers care about. versionCmd may be empty for presence-only checks.
var softwareChecks = []struct {
	name       string
	binary     string
	versionCmd string
}{
	{"docker", "docker", "docker --version 2>/dev/null"},
	{"docker-compose", "", "docker compose version 2>/dev/null || docker-compose --version 2>/dev/null"},
	{"git", "git", "git --version 2>/dev/null"},
	{"curl", "curl", "curl --version 2>/dev/null | head -n1"},
	{"wget", "wget", "wget --version 2>/dev/null | head -n1"},
	{"rsync", "rsync", "rsync --version 2>/dev/null | head -n1"},
	{"python3", "python3", "python3 --version 2>/dev/null"},
	{"wireguard", "wg", "wg --version 2>/dev/null"},
	{"nginx", "nginx", "nginx -v 2>&1"},
	{"fail2ban", "fail2ban-server", ""},
	{"tailscale", "tailscale", "tailscale version 2>/dev/null | head -n1"},
	{"unattended-upgrades", "unattended-upgrade", ""},
}

func (p *Prober) probeSoftware(ctx context.Context, profile *entity.HostProfile) {
	for _, check := range softwareChecks {
		sw := entity.Software{Name: check.name}

		if check.binary != "" {
			sw.Installed = p.run(ctx, "command -v "+check.binary+" 2>/dev/null") != ""
		}
		if check.versionCmd != "" {
			if out := p.run(ctx, check.versionCmd); out != "" {
				sw.Installed = true
				sw.Version = extractVersion(out)
			}
		}

		profile.Software = append(profile.Software, sw)
	}

	profile.DockerRunning = p.run(ctx, "docker info --format '{{.ServerVersion}}' 2>/dev/null") != ""
}

// extractVersion pulls the first x.y or x.y.z number out of version
// banner text.
func extractVersion(out string) string {
	line := out
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		line = out[:idx]
	}
	m := versionPattern.FindStringSubmatch(line)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}
