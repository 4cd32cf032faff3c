package probe

import (
	"context"
	"strconv"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

func (p *Prober) probeSystem(ctx context.Context, profile *entity.HostProfile) {
	profile.Hostname = p.run(ctx, "hostname")
	profile.OS = parseOSRelease(p.readFile(ctx, "/etc/os-release"))
	profile.OS.Kernel = p.run(ctx, "uname -r")
	profile.OS.Arch = p.run(ctx, "uname -m")

	if virt := p.run(ctx, "systemd-detect-virt 2>/dev/null"); virt != "" && virt != "none" {
		profile.Virtualization = virt
	}

	if uptime := parseUptime(p.readFile(ctx, "/proc/uptime")); uptime > 0 {
		profile.UptimeSeconds = uptime
	}
}

func (p *Prober) probeCPU(ctx context.Context, profile *entity.HostProfile) {
	cpuinfo := p.readFile(ctx, "/proc/cpuinfo")
	profile.CPU.Model = parseCPUModel(cpuinfo)

	if n, err := strconv.Atoi(p.run(ctx, "nproc 2>/dev/null")); err == nil && n > 0 {
		profile.CPU.Cores = n
	} else {
		profile.CPU.Cores = strings.Count(cpuinfo, "\nprocessor")
		if strings.HasPrefix(cpuinfo, "processor") {
			profile.CPU.Cores++
		}
	}
}

func (p *Prober) probeMemory(ctx context.Context, profile *entity.HostProfile) {
	profile.Memory = parseMeminfo(p.readFile(ctx, "/proc/meminfo"))
}

func (p *Prober) probeDisks(ctx context.Context, profile *entity.HostProfile) {
	profile.Disks = parseDF(p.run(ctx, "df -P -k 2>/dev/null"))
}

// parseOSRelease reads the ID, VERSION_ID and PRETTY_NAME keys from
// /etc/os-release content.
func parseOSRelease(content string) entity.OSInfo {
	var info entity.OSInfo
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			info.ID = value
		case "VERSION_ID":
			info.Version = value
		case "PRETTY_NAME":
			info.PrettyName = value
		}
	}
	return info
}

func parseUptime(content string) int64 {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return int64(secs)
}

func parseCPUModel(cpuinfo string) string {
	for _, line := range strings.Split(cpuinfo, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func parseMeminfo(content string) entity.MemoryInfo {
	var info entity.MemoryInfo
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			info.TotalMB = kb / 1024
		case "MemAvailable:":
			info.AvailableMB = kb / 1024
		}
	}
	return info
}

// parseDF turns `df -P -k` output into disk mounts, keeping only real
// block devices so tmpfs and snap loops do not pad the list.
func parseDF(output string) []entity.DiskMount {
	var disks []entity.DiskMount
	for i, line := range strings.Split(output, "\n") {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		device := fields[0]
		if !strings.HasPrefix(device, "/dev/") || strings.HasPrefix(device, "/dev/loop") {
			continue
		}
		sizeKB, err1 := strconv.Atoi(fields[1])
		availKB, err2 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil {
			continue
		}
		disks = append(disks, entity.DiskMount{
			Mount:  fields[5],
			SizeGB: sizeKB / (1024 * 1024),
			FreeGB: availKB / (1024 * 1024),
		})
	}
	return disks
}
