package cli

import (
	"strings"
	"testing"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

func TestFormatScanReport(t *testing.T) {
	profile := &entity.HostProfile{
		Hostname: "vault",
		OS:       entity.OSInfo{PrettyName: "Ubuntu 24.04.1 LTS", Arch: "x86_64"},
		CPU:      entity.CPUInfo{Cores: 4, Model: "Intel N100"},
		Memory:   entity.MemoryInfo{TotalMB: 16384, AvailableMB: 12011},
		Disks:    []entity.DiskMount{{Mount: "/", SizeGB: 500, FreeGB: 420}},
		Network: entity.NetworkInfo{
			Gateway:        "192.168.1.1",
			PublicIP:       "203.0.113.7",
			BehindNAT:      true,
			ListeningPorts: []int{22, 443},
			Firewall:       "ufw",
		},
		Software: []entity.Software{
			{Name: "docker", Installed: true, Version: "27.1"},
			{Name: "wireguard", Installed: false},
		},
		DockerRunning: true,
	}

	report := formatScanReport(profile)

	for _, want := range []string{
		"[vault] Host Scan",
		"Ubuntu 24.04.1 LTS (x86_64)",
		"4 cores (Intel N100)",
		"16384 MB total, 12011 MB available",
		"Disk /:",
		"public IP 203.0.113.7 (NAT)",
		"22, 443",
		"✅ ufw",
		"docker:",
		"✅ 27.1",
		"❌ not installed",
		"✅ running",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestFormatScanReportDegradedProfile(t *testing.T) {
	report := formatScanReport(&entity.HostProfile{})

	if !strings.Contains(report, "[unknown] Host Scan") {
		t.Error("empty hostname should render as unknown")
	}
	if !strings.Contains(report, "⚠️ none detected") {
		t.Error("missing firewall should warn, not error")
	}
	if !strings.Contains(report, "⚠️ not running") {
		t.Error("docker daemon line should warn when not running")
	}
}
