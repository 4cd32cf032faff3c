// Package probe inspects a host and fills a HostProfile. Probes are
// best effort: a command that is missing or fails leaves its fields
// zero-valued instead of failing the whole scan.
package probe

import (
	"context"
	"strings"
	"time"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

// Runner is the slice of the command runner probes need.
type Runner interface {
	Run(ctx context.Context, cmd string) (stdout, stderr string, err error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Target() string
}

type Prober struct {
	r Runner
}

func New(r Runner) *Prober {
	return &Prober{r: r}
}

// Scan probes the host end to end. It only errors when the context is
// done; individual probe failures are logged and skipped.
func (p *Prober) Scan(ctx context.Context) (*entity.HostProfile, error) {
	log := logger.L().With("target", p.r.Target())
	log.Info("scanning host")

	profile := &entity.HostProfile{ScannedAt: time.Now().UTC()}

	steps := []struct {
		name string
		fn   func(context.Context, *entity.HostProfile)
	}{
		{"system", p.probeSystem},
		{"cpu", p.probeCPU},
		{"memory", p.probeMemory},
		{"disks", p.probeDisks},
		{"network", p.probeNetwork},
		{"public-ip", p.probePublicIP},
		{"ports", p.probeListeningPorts},
		{"firewall", p.probeFirewall},
		{"software", p.probeSoftware},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step.fn(ctx, profile)
		log.Debug("probe finished", "step", step.name)
	}

	log.Info("scan complete",
		"os", profile.OS.PrettyName,
		"cores", profile.CPU.Cores,
		"memory_mb", profile.Memory.TotalMB,
		"public_ip", profile.Network.PublicIP,
	)
	return profile, nil
}

// run executes cmd and returns trimmed stdout, swallowing errors.
func (p *Prober) run(ctx context.Context, cmd string) string {
	stdout, _, err := p.r.Run(ctx, cmd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stdout)
}

// readFile prefers the file API and falls back to cat for hosts where
// the transfer channel is unavailable.
func (p *Prober) readFile(ctx context.Context, path string) string {
	if data, err := p.r.ReadFile(ctx, path); err == nil {
		return string(data)
	}
	return p.run(ctx, "cat "+path+" 2>/dev/null")
}
