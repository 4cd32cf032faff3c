package entity

import "time"

// HostProfile is everything the scan learned about a machine. Probes are
// best effort: absent data stays zero-valued and never fails a scan.
type HostProfile struct {
	Hostname       string      `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	OS             OSInfo      `yaml:"os,omitempty" json:"os,omitempty"`
	Virtualization string      `yaml:"virtualization,omitempty" json:"virtualization,omitempty"`
	UptimeSeconds  int64       `yaml:"uptime_seconds,omitempty" json:"uptime_seconds,omitempty"`
	CPU            CPUInfo     `yaml:"cpu,omitempty" json:"cpu,omitempty"`
	Memory         MemoryInfo  `yaml:"memory,omitempty" json:"memory,omitempty"`
	Disks          []DiskMount `yaml:"disks,omitempty" json:"disks,omitempty"`
	Network        NetworkInfo `yaml:"network,omitempty" json:"network,omitempty"`
	Software       []Software  `yaml:"software,omitempty" json:"software,omitempty"`
	DockerRunning  bool        `yaml:"docker_running,omitempty" json:"docker_running,omitempty"`
	ScannedAt      time.Time   `yaml:"scanned_at,omitempty" json:"scanned_at,omitempty"`
}

type OSInfo struct {
	ID         string `yaml:"id,omitempty" json:"id,omitempty"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
	PrettyName string `yaml:"pretty_name,omitempty" json:"pretty_name,omitempty"`
	Kernel     string `yaml:"kernel,omitempty" json:"kernel,omitempty"`
	Arch       string `yaml:"arch,omitempty" json:"arch,omitempty"`
}

type CPUInfo struct {
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
	Cores int    `yaml:"cores,omitempty" json:"cores,omitempty"`
}

type MemoryInfo struct {
	TotalMB     int `yaml:"total_mb,omitempty" json:"total_mb,omitempty"`
	AvailableMB int `yaml:"available_mb,omitempty" json:"available_mb,omitempty"`
}

type DiskMount struct {
	Mount  string `yaml:"mount" json:"mount"`
	SizeGB int    `yaml:"size_gb" json:"size_gb"`
	FreeGB int    `yaml:"free_gb" json:"free_gb"`
}

type NetworkInterface struct {
	Name string `yaml:"name" json:"name"`
	IPv4 string `yaml:"ipv4,omitempty" json:"ipv4,omitempty"`
}

type NetworkInfo struct {
	Interfaces     []NetworkInterface `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Gateway        string             `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	DNSServers     []string           `yaml:"dns_servers,omitempty" json:"dns_servers,omitempty"`
	PublicIP       string             `yaml:"public_ip,omitempty" json:"public_ip,omitempty"`
	BehindNAT      bool               `yaml:"behind_nat,omitempty" json:"behind_nat,omitempty"`
	BehindCGNAT    bool               `yaml:"behind_cgnat,omitempty" json:"behind_cgnat,omitempty"`
	ListeningPorts []int              `yaml:"listening_ports,omitempty" json:"listening_ports,omitempty"`
	Firewall       string             `yaml:"firewall,omitempty" json:"firewall,omitempty"`
}

type Software struct {
	Name      string `yaml:"name" json:"name"`
	Installed bool   `yaml:"installed" json:"installed"`
	Version   string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Tier buckets hardware capability for the recommender.
type Tier string

const (
	TierBasic       Tier = "basic"
	TierStandard    Tier = "standard"
	TierPerformance Tier = "performance"
)

func (p *HostProfile) Tier() Tier {
	if p.Memory.TotalMB < 2048 || p.CPU.Cores < 2 {
		return TierBasic
	}
	if p.Memory.TotalMB < 8192 {
		return TierStandard
	}
	if p.CPU.Cores >= 4 {
		return TierPerformance
	}
	return TierStandard
}

func (p *HostProfile) HasSoftware(name string) bool {
	for _, s := range p.Software {
		if s.Name == name && s.Installed {
			return true
		}
	}
	return false
}

// RootFreeGB reports free space on the mount that will hold /opt/homelab.
func (p *HostProfile) RootFreeGB() int {
	best := ""
	free := 0
	for _, d := range p.Disks {
		if d.Mount == "/opt" {
			return d.FreeGB
		}
		if d.Mount == "/" || (len(d.Mount) > len(best) && hasPrefixPath("/opt", d.Mount)) {
			best = d.Mount
			free = d.FreeGB
		}
	}
	return free
}

func hasPrefixPath(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || (len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/')
}

// PortInUse reports whether something on the host already listens on port.
func (p *HostProfile) PortInUse(port int) bool {
	for _, lp := range p.Network.ListeningPorts {
		if lp == port {
			return true
		}
	}
	return false
}
