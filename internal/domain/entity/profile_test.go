package entity

import "testing"

func TestHostProfile_Tier(t *testing.T) {
	tests := []struct {
		name  string
		memMB int
		cores int
		want  Tier
	}{
		{"tiny memory", 1024, 4, TierBasic},
		{"single core", 4096, 1, TierBasic},
		{"mid box", 4096, 2, TierStandard},
		{"lots of memory few cores", 16384, 2, TierStandard},
		{"big box", 16384, 8, TierPerformance},
		{"exactly 8gb quad", 8192, 4, TierPerformance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &HostProfile{
				CPU:    CPUInfo{Cores: tt.cores},
				Memory: MemoryInfo{TotalMB: tt.memMB},
			}
			if got := p.Tier(); got != tt.want {
				t.Errorf("Tier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHostProfile_HasSoftware(t *testing.T) {
	p := &HostProfile{
		Software: []Software{
			{Name: "docker", Installed: true, Version: "27.1.1"},
			{Name: "wg", Installed: false},
		},
	}

	if !p.HasSoftware("docker") {
		t.Error("HasSoftware(docker) = false, want true")
	}
	if p.HasSoftware("wg") {
		t.Error("HasSoftware(wg) = true for not-installed entry")
	}
	if p.HasSoftware("nginx") {
		t.Error("HasSoftware(nginx) = true for unknown entry")
	}
}

func TestHostProfile_RootFreeGB(t *testing.T) {
	tests := []struct {
		name  string
		disks []DiskMount
		want  int
	}{
		{"root only", []DiskMount{{Mount: "/", SizeGB: 100, FreeGB: 40}}, 40},
		{"dedicated opt", []DiskMount{
			{Mount: "/", SizeGB: 50, FreeGB: 10},
			{Mount: "/opt", SizeGB: 500, FreeGB: 450},
		}, 450},
		{"no disks", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &HostProfile{Disks: tt.disks}
			if got := p.RootFreeGB(); got != tt.want {
				t.Errorf("RootFreeGB() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHostProfile_PortInUse(t *testing.T) {
	p := &HostProfile{Network: NetworkInfo{ListeningPorts: []int{22, 80, 8096}}}
	if !p.PortInUse(8096) {
		t.Error("PortInUse(8096) = false, want true")
	}
	if p.PortInUse(9000) {
		t.Error("PortInUse(9000) = true, want false")
	}
}
