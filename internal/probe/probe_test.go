package probe

import (
	"context"
	"os"
	"strings"
	"testing"
)

// fakeRunner answers commands from a script keyed by substring match.
type fakeRunner struct {
	script map[string]string
	files  map[string]string
}

func (f *fakeRunner) Run(_ context.Context, cmd string) (string, string, error) {
	for key, out := range f.script {
		if strings.Contains(cmd, key) {
			return out, "", nil
		}
	}
	return "", "", os.ErrNotExist
}

func (f *fakeRunner) ReadFile(_ context.Context, path string) ([]byte, error) {
	if content, ok := f.files[path]; ok {
		return []byte(content), nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeRunner) Target() string { return "fake" }

func TestParseOSRelease(t *testing.T) {
	content := `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
VERSION="12 (bookworm)"
ID=debian
HOME_URL="https://www.debian.org/"`

	info := parseOSRelease(content)
	if info.ID != "debian" {
		t.Errorf("ID = %q, want debian", info.ID)
	}
	if info.Version != "12" {
		t.Errorf("Version = %q, want 12", info.Version)
	}
	if info.PrettyName != "Debian GNU/Linux 12 (bookworm)" {
		t.Errorf("PrettyName = %q", info.PrettyName)
	}
}

func TestParseMeminfo(t *testing.T) {
	content := `MemTotal:       16265324 kB
MemFree:          350172 kB
MemAvailable:   12490944 kB
Buffers:          512348 kB`

	info := parseMeminfo(content)
	if info.TotalMB != 15884 {
		t.Errorf("TotalMB = %d, want 15884", info.TotalMB)
	}
	if info.AvailableMB != 12198 {
		t.Errorf("AvailableMB = %d, want 12198", info.AvailableMB)
	}
}

func TestParseCPUModel(t *testing.T) {
	content := `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) N100
processor	: 1
model name	: Intel(R) N100`

	if got := parseCPUModel(content); got != "Intel(R) N100" {
		t.Errorf("parseCPUModel() = %q", got)
	}
}

func TestParseDF(t *testing.T) {
	output := `Filesystem     1024-blocks      Used Available Capacity Mounted on
udev               8063912         0   8063912       0% /dev
tmpfs              1626536      1584   1624952       1% /run
/dev/sda2        479079112  60119292 394550516      14% /
/dev/sdb1        961301832 104857600 807569792      12% /srv/media
/dev/loop3           56704     56704         0     100% /snap/core
tmpfs              8132660         0   8132660       0% /dev/shm`

	disks := parseDF(output)
	if len(disks) != 2 {
		t.Fatalf("parseDF() returned %d disks, want 2", len(disks))
	}
	if disks[0].Mount != "/" || disks[0].SizeGB != 456 {
		t.Errorf("disks[0] = %+v, want mount / size 456", disks[0])
	}
	if disks[1].Mount != "/srv/media" || disks[1].FreeGB != 770 {
		t.Errorf("disks[1] = %+v, want mount /srv/media free 770", disks[1])
	}
}

func TestParseIPAddr(t *testing.T) {
	output := `1: lo    inet 127.0.0.1/8 scope host lo\       valid_lft forever preferred_lft forever
2: eth0    inet 192.168.1.42/24 brd 192.168.1.255 scope global dynamic eth0\       valid_lft 85760sec preferred_lft 85760sec
3: wg0    inet 10.13.13.1/24 scope global wg0\       valid_lft forever preferred_lft forever`

	ifaces := parseIPAddr(output)
	if len(ifaces) != 2 {
		t.Fatalf("parseIPAddr() returned %d interfaces, want 2", len(ifaces))
	}
	if ifaces[0].Name != "eth0" || ifaces[0].IPv4 != "192.168.1.42" {
		t.Errorf("ifaces[0] = %+v", ifaces[0])
	}
	if ifaces[1].Name != "wg0" || ifaces[1].IPv4 != "10.13.13.1" {
		t.Errorf("ifaces[1] = %+v", ifaces[1])
	}
}

func TestParseDefaultRoute(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"dhcp route", "default via 192.168.1.1 dev eth0 proto dhcp src 192.168.1.42 metric 100", "192.168.1.1"},
		{"static route", "default via 10.0.0.1 dev enp3s0 onlink", "10.0.0.1"},
		{"no default", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDefaultRoute(tt.output); got != tt.want {
				t.Errorf("parseDefaultRoute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseResolvConf(t *testing.T) {
	content := `# Generated by NetworkManager
search lan
nameserver 192.168.1.1
nameserver 1.1.1.1`

	servers := parseResolvConf(content)
	if len(servers) != 2 || servers[0] != "192.168.1.1" || servers[1] != "1.1.1.1" {
		t.Errorf("parseResolvConf() = %v", servers)
	}
}

func TestParseSS(t *testing.T) {
	output := `tcp   LISTEN 0      128          0.0.0.0:22        0.0.0.0:*
tcp   LISTEN 0      511        127.0.0.1:80        0.0.0.0:*
tcp   LISTEN 0      4096            [::]:443           [::]:*
udp   UNCONN 0      0            0.0.0.0:51820     0.0.0.0:*`

	ports := parseSS(output)
	want := []int{22, 80, 443, 51820}
	if len(ports) != len(want) {
		t.Fatalf("parseSS() = %v, want %v", ports, want)
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Errorf("ports[%d] = %d, want %d", i, ports[i], want[i])
		}
	}
}

func TestParseNetstat(t *testing.T) {
	output := `Active Internet connections (only servers)
Proto Recv-Q Send-Q Local Address           Foreign Address         State
tcp        0      0 0.0.0.0:22              0.0.0.0:*               LISTEN
tcp6       0      0 :::8096                 :::*                    LISTEN
udp        0      0 0.0.0.0:53              0.0.0.0:*`

	ports := parseNetstat(output)
	want := []int{22, 53, 8096}
	if len(ports) != len(want) {
		t.Fatalf("parseNetstat() = %v, want %v", ports, want)
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Errorf("ports[%d] = %d, want %d", i, ports[i], want[i])
		}
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"docker", "Docker version 27.3.1, build ce12230", "27.3.1"},
		{"compose v2", "Docker Compose version v2.29.7", "2.29.7"},
		{"python", "Python 3.11.2", "3.11.2"},
		{"nginx stderr", "nginx version: nginx/1.22.1", "1.22.1"},
		{"two part", "git version 2.39", "2.39"},
		{"garbage", "no digits here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractVersion(tt.out); got != tt.want {
				t.Errorf("extractVersion(%q) = %q, want %q", tt.out, got, tt.want)
			}
		})
	}
}

func TestScanFillsProfile(t *testing.T) {
	r := &fakeRunner{
		script: map[string]string{
			"hostname":           "homelab",
			"uname -r":           "6.1.0-18-amd64",
			"uname -m":           "x86_64",
			"nproc":              "4",
			"df -P -k":           "Filesystem 1024-blocks Used Available Capacity Mounted on\n/dev/sda1 479079112 60119292 394550516 14% /",
			"ip -o -4 addr show": "2: eth0    inet 192.168.1.42/24 brd 192.168.1.255 scope global eth0",
			"ip route":           "default via 192.168.1.1 dev eth0",
			"api.ipify.org":      "203.0.113.7",
			"ss -tlnu":           "tcp   LISTEN 0      128          0.0.0.0:22        0.0.0.0:*",
			"ufw status":         "Status: active",
			"command -v docker":  "/usr/bin/docker",
			"docker --version":   "Docker version 27.3.1, build ce12230",
			"docker info":        "27.3.1",
		},
		files: map[string]string{
			"/etc/os-release":  "ID=debian\nVERSION_ID=\"12\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"",
			"/proc/meminfo":    "MemTotal: 8388608 kB\nMemAvailable: 6291456 kB",
			"/proc/cpuinfo":    "processor\t: 0\nmodel name\t: Intel(R) N100",
			"/proc/uptime":     "86400.12 170000.00",
			"/etc/resolv.conf": "nameserver 192.168.1.1",
		},
	}

	profile, err := New(r).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if profile.Hostname != "homelab" {
		t.Errorf("Hostname = %q", profile.Hostname)
	}
	if profile.OS.ID != "debian" || profile.OS.Kernel != "6.1.0-18-amd64" {
		t.Errorf("OS = %+v", profile.OS)
	}
	if profile.CPU.Cores != 4 {
		t.Errorf("CPU.Cores = %d, want 4", profile.CPU.Cores)
	}
	if profile.Memory.TotalMB != 8192 {
		t.Errorf("Memory.TotalMB = %d, want 8192", profile.Memory.TotalMB)
	}
	if profile.Network.PublicIP != "203.0.113.7" {
		t.Errorf("PublicIP = %q", profile.Network.PublicIP)
	}
	if !profile.Network.BehindNAT {
		t.Error("BehindNAT = false, want true (public differs from eth0)")
	}
	if profile.Network.BehindCGNAT {
		t.Error("BehindCGNAT = true, want false")
	}
	if profile.Network.Firewall != "ufw" {
		t.Errorf("Firewall = %q, want ufw", profile.Network.Firewall)
	}
	if !profile.PortInUse(22) {
		t.Error("PortInUse(22) = false")
	}
	if !profile.HasSoftware("docker") {
		t.Error("HasSoftware(docker) = false")
	}
	if !profile.DockerRunning {
		t.Error("DockerRunning = false")
	}
	if profile.UptimeSeconds != 86400 {
		t.Errorf("UptimeSeconds = %d, want 86400", profile.UptimeSeconds)
	}
}

func TestScanCGNATDetection(t *testing.T) {
	r := &fakeRunner{
		script: map[string]string{
			"ip -o -4 addr show": "2: eth0    inet 100.71.2.9/10 brd 100.127.255.255 scope global eth0",
			"api.ipify.org":      "203.0.113.7",
		},
		files: map[string]string{},
	}

	profile, err := New(r).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !profile.Network.BehindCGNAT {
		t.Error("BehindCGNAT = false, want true for 100.64.0.0/10 interface address")
	}
}
