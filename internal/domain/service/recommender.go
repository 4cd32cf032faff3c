// Package service holds domain logic that spans entities: turning a
// host profile plus survey answers into a concrete service selection.
package service

import (
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/catalog"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

// Selection is one recommended service with the reasons it was picked
// and its host ports after conflict resolution.
type Selection struct {
	Service catalog.Service
	Reasons []string
	Ports   []catalog.Port
}

type Recommendation struct {
	Selections []Selection
	// Proxy names the reverse proxy selection, nginx or traefik, when
	// external access wants one.
	Proxy       string
	Warnings    []string
	EstMemoryMB int
	EstDiskGB   int
}

func (r *Recommendation) Has(name string) bool {
	for _, sel := range r.Selections {
		if sel.Service.Name == name {
			return true
		}
	}
	return false
}

func (r *Recommendation) Names() []string {
	names := make([]string, 0, len(r.Selections))
	for _, sel := range r.Selections {
		names = append(names, sel.Service.Name)
	}
	return names
}

// proxyMemoryThresholdMB decides between traefik and plain nginx.
// Traefik's docker-watching costs memory a 4GB box should not spend.
const proxyMemoryThresholdMB = 4096

// largeCollectionGB is where library automation starts paying for its
// own memory footprint.
const largeCollectionGB = 500

type Recommender struct{}

func NewRecommender() *Recommender {
	return &Recommender{}
}

// Recommend applies the selection rules in a fixed order so the same
// inputs always produce the same selections in the same order.
func (r *Recommender) Recommend(profile *entity.HostProfile, answers *entity.Answers) (*Recommendation, error) {
	if profile == nil {
		return nil, domain.RequiredField("profile")
	}
	if answers == nil {
		return nil, domain.RequiredField("answers")
	}
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	b := newBuilder()

	r.pickCore(b, profile, answers)
	r.pickAccess(b, profile, answers)
	r.pickSecurity(b, answers)
	r.pickMonitoring(b, answers)
	r.pickBackup(b, answers)

	if answers.AdBlocking {
		b.add("pihole", "blocks ads for every device on the network")
	}
	if answers.AutoUpdates {
		b.add("watchtower", "keeps container images updated automatically")
	}

	rec := b.build()
	r.checkHost(rec, profile, answers)
	r.applyBudgets(rec, profile, answers)

	if err := r.resolvePorts(rec, profile); err != nil {
		return nil, err
	}

	logger.Debug("recommendation built",
		"services", len(rec.Selections),
		"proxy", rec.Proxy,
		"est_memory_mb", rec.EstMemoryMB,
	)
	return rec, nil
}

func (r *Recommender) pickCore(b *builder, profile *entity.HostProfile, answers *entity.Answers) {
	use := answers.PrimaryUse

	if use == entity.UseMedia || use == entity.UseMixed {
		b.add("jellyfin", "media streaming is a primary use")
		if answers.WantsMedia("music") {
			b.add("navidrome", "a dedicated app serves music libraries better")
		}
		if answers.WantsMedia("photos") {
			b.add("photoprism", "photo libraries get indexing and search")
		}
		if answers.CollectionGB >= largeCollectionGB {
			reason := fmt.Sprintf("a %dGB collection benefits from library automation", answers.CollectionGB)
			if answers.WantsMedia("tv") {
				b.add("sonarr", reason)
			}
			if answers.WantsMedia("movies") {
				b.add("radarr", reason)
			}
		}
		if answers.Transcoding {
			b.withService("jellyfin", func(sel *Selection) {
				sel.Service.Devices = append(sel.Service.Devices, "/dev/dri:/dev/dri")
				sel.Reasons = append(sel.Reasons, "hardware transcoding enabled")
			})
		}
	}

	if use == entity.UseDevelopment || use == entity.UseMixed {
		b.add("gitea", "self-hosted git for development work")
		if answers.DevDatabase {
			b.add("postgres", "shared database for projects")
		}
	}

	if use == entity.UseSmartHome || use == entity.UseMixed {
		b.add("home-assistant", "smart home hub is a primary use")
		if answers.MQTTBroker {
			b.add("mosquitto", "MQTT broker for sensors and devices")
		}
	}

	if use == entity.UsePrivacy || use == entity.UseMixed {
		b.add("vaultwarden", "self-hosted password manager")
		b.add("pihole", "network-wide DNS filtering")
	}

	if use == entity.UseStorage || use == entity.UseMixed {
		b.add("nextcloud", "file storage and sync is a primary use")
		b.add("duplicati", "file data needs backups")
	}

	if use == entity.UseMonitoring || use == entity.UseMixed {
		b.add("uptime-kuma", "uptime monitoring is a primary use")
	}
}

func (r *Recommender) pickAccess(b *builder, profile *entity.HostProfile, answers *entity.Answers) {
	if answers.NeedsProxy() {
		proxy := "nginx"
		reason := "reverse proxy for external access, nginx fits the memory budget"
		if profile.Memory.TotalMB > proxyMemoryThresholdMB {
			proxy = "traefik"
			reason = "reverse proxy for external access, memory allows traefik's dynamic config"
		}
		b.add(proxy, reason)
		b.proxy = proxy
	}
	if answers.ExternalAccess == entity.AccessTunnel {
		b.add("cloudflared", "publishes services without opening router ports")
	}
	if answers.NeedsVPN() {
		b.add("wireguard", "private remote access over VPN")
	}
}

func (r *Recommender) pickSecurity(b *builder, answers *entity.Answers) {
	switch answers.SecurityLevel {
	case entity.SecurityParanoid:
		b.add("crowdsec", "intrusion detection for a hardened setup")
		b.add("authelia", "single sign-on in front of every service")
	case entity.SecurityHardened:
		b.add("crowdsec", "intrusion detection for a hardened setup")
	}
}

func (r *Recommender) pickMonitoring(b *builder, answers *entity.Answers) {
	switch answers.Monitoring {
	case entity.MonitoringBasic:
		b.add("uptime-kuma", "basic uptime monitoring")
	case entity.MonitoringFull:
		b.add("prometheus", "metrics collection for full monitoring")
		b.add("grafana", "dashboards for full monitoring")
		b.add("node-exporter", "host metrics for full monitoring")
		if answers.Alerting {
			b.withService("grafana", enableGrafanaSMTP)
		}
	}
}

// enableGrafanaSMTP turns on mail alerts. The SMTP account is the
// operator's own, so its values land in .env as fill-in entries.
func enableGrafanaSMTP(sel *Selection) {
	env := make(map[string]string, len(sel.Service.Env)+4)
	for k, v := range sel.Service.Env {
		env[k] = v
	}
	env["GF_SMTP_ENABLED"] = "true"
	env["GF_SMTP_HOST"] = "${GRAFANA_SMTP_HOST}"
	env["GF_SMTP_USER"] = "${GRAFANA_SMTP_USER}"
	env["GF_SMTP_PASSWORD"] = "${GRAFANA_SMTP_PASSWORD}"
	sel.Service.Env = env

	secrets := make([]catalog.SecretSpec, 0, len(sel.Service.Secrets)+3)
	secrets = append(secrets, sel.Service.Secrets...)
	secrets = append(secrets,
		catalog.SecretSpec{EnvKey: "GRAFANA_SMTP_HOST", Kind: catalog.SecretExternal},
		catalog.SecretSpec{EnvKey: "GRAFANA_SMTP_USER", Kind: catalog.SecretExternal},
		catalog.SecretSpec{EnvKey: "GRAFANA_SMTP_PASSWORD", Kind: catalog.SecretExternal},
	)
	sel.Service.Secrets = secrets

	sel.Reasons = append(sel.Reasons, "mail alerting enabled")
}

func (r *Recommender) pickBackup(b *builder, answers *entity.Answers) {
	if answers.BackupStrategy != entity.BackupNone {
		b.add("duplicati", fmt.Sprintf("%s backups requested", answers.BackupStrategy))
	}
}

// checkHost warns about host facts that would break the deploy or the
// chosen access path. Warnings only, selections stay as picked.
func (r *Recommender) checkHost(rec *Recommendation, profile *entity.HostProfile, answers *entity.Answers) {
	if !profile.HasSoftware("docker") {
		rec.Warnings = append(rec.Warnings,
			"docker is not installed on the host, apply will fail until it is")
	} else if !profile.DockerRunning {
		rec.Warnings = append(rec.Warnings,
			"the docker daemon is not running on the host")
	}

	needsInbound := answers.ExternalAccess == entity.AccessReverseProxy ||
		answers.ExternalAccess == entity.AccessVPN
	if !needsInbound {
		return
	}
	if profile.Network.PublicIP == "" {
		rec.Warnings = append(rec.Warnings,
			"no public IP could be detected, external reachability is unknown")
	}
	if profile.Network.BehindCGNAT {
		rec.Warnings = append(rec.Warnings,
			"the host sits behind carrier-grade NAT, inbound connections will not reach it; tunnel access avoids port forwarding")
	}
}

// applyBudgets degrades the selection in a fixed order until it fits
// the memory share the user granted. Disk pressure only warns; dropping
// services does not shrink a media collection.
func (r *Recommender) applyBudgets(rec *Recommendation, profile *entity.HostProfile, answers *entity.Answers) {
	rec.EstMemoryMB = estimateMemory(rec)
	rec.EstDiskGB = estimateDisk(rec, answers)

	if profile.Memory.TotalMB > 0 {
		budget := profile.Memory.TotalMB * answers.MemoryPercent / 100

		if rec.EstMemoryMB > budget && rec.Has("prometheus") {
			r.drop(rec, "prometheus", "grafana", "node-exporter")
			if !rec.Has("uptime-kuma") {
				rec.Selections = append(rec.Selections, Selection{
					Service: mustGet("uptime-kuma"),
					Reasons: []string{"fallback from full monitoring under memory pressure"},
				})
			}
			rec.Warnings = append(rec.Warnings, fmt.Sprintf(
				"full monitoring needs more than the %dMB memory budget, downgraded to uptime checks", budget))
			rec.EstMemoryMB = estimateMemory(rec)
		}

		for _, name := range []string{"radarr", "sonarr"} {
			if rec.EstMemoryMB <= budget {
				break
			}
			if rec.Has(name) {
				r.drop(rec, name)
				rec.Warnings = append(rec.Warnings, fmt.Sprintf(
					"dropped %s to fit the %dMB memory budget", name, budget))
				rec.EstMemoryMB = estimateMemory(rec)
			}
		}

		if rec.EstMemoryMB > budget {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf(
				"selected services want ~%dMB which exceeds the %dMB memory budget", rec.EstMemoryMB, budget))
		}
	}

	if free := profile.RootFreeGB(); free > 0 && rec.EstDiskGB > free {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf(
			"estimated %dGB of data exceeds the %dGB free on the target disk", rec.EstDiskGB, free))
	}
}

func (r *Recommender) drop(rec *Recommendation, names ...string) {
	kept := rec.Selections[:0]
	for _, sel := range rec.Selections {
		remove := false
		for _, name := range names {
			if sel.Service.Name == name {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, sel)
		}
	}
	rec.Selections = kept
}

// resolvePorts shifts default host ports that collide with listeners on
// the host or with other selections.
func (r *Recommender) resolvePorts(rec *Recommendation, profile *entity.HostProfile) error {
	taken := make(map[string]bool)
	key := func(proto string, port int) string {
		if proto == "" {
			proto = "tcp"
		}
		return fmt.Sprintf("%s/%d", proto, port)
	}

	for i := range rec.Selections {
		sel := &rec.Selections[i]
		sel.Ports = make([]catalog.Port, len(sel.Service.Ports))
		copy(sel.Ports, sel.Service.Ports)

		for j := range sel.Ports {
			port := &sel.Ports[j]
			orig := port.Host
			for profile.PortInUse(port.Host) || taken[key(port.Proto, port.Host)] {
				port.Host += constants.PortConflictStep
				if port.Host > constants.MaxPortNumber {
					return fmt.Errorf("%w: no free port for %s starting from %d",
						domain.ErrPortConflict, sel.Service.Name, orig)
				}
			}
			if port.Host != orig {
				rec.Warnings = append(rec.Warnings, fmt.Sprintf(
					"port %d is busy on the host, %s moved to %d", orig, sel.Service.Name, port.Host))
			}
			taken[key(port.Proto, port.Host)] = true
		}
	}
	return nil
}

func estimateMemory(rec *Recommendation) int {
	total := 0
	for _, sel := range rec.Selections {
		total += sel.Service.MinMemoryMB
		if sel.Service.Sidecar != nil {
			total += 256
		}
	}
	return total
}

func estimateDisk(rec *Recommendation, answers *entity.Answers) int {
	total := 0
	for _, sel := range rec.Selections {
		total += sel.Service.MinDiskGB
	}
	total += answers.CollectionGB
	total += answers.StorageGB
	return total
}

func mustGet(name string) catalog.Service {
	svc, err := catalog.Get(name)
	if err != nil {
		panic(err)
	}
	return *svc
}

// builder keeps selections unique while preserving rule order.
type builder struct {
	order []string
	byID  map[string]*Selection
	proxy string
}

func newBuilder() *builder {
	return &builder{byID: make(map[string]*Selection)}
}

func (b *builder) add(name, reason string) {
	if sel, ok := b.byID[name]; ok {
		sel.Reasons = append(sel.Reasons, reason)
		return
	}
	b.byID[name] = &Selection{Service: mustGet(name), Reasons: []string{reason}}
	b.order = append(b.order, name)
}

func (b *builder) withService(name string, fn func(*Selection)) {
	if sel, ok := b.byID[name]; ok {
		fn(sel)
	}
}

func (b *builder) build() *Recommendation {
	rec := &Recommendation{Proxy: b.proxy}
	for _, name := range b.order {
		rec.Selections = append(rec.Selections, *b.byID[name])
	}
	return rec
}
