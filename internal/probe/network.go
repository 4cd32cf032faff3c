package probe

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/retry"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

// publicIPEndpoints are tried in order until one returns a parseable
// address. All answer a bare IP over plain HTTPS.
var publicIPEndpoints = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
}

var cgnatRange = netip.MustParsePrefix("100.64.0.0/10")

func (p *Prober) probeNetwork(ctx context.Context, profile *entity.HostProfile) {
	profile.Network.Interfaces = parseIPAddr(p.run(ctx, "ip -o -4 addr show 2>/dev/null"))
	profile.Network.Gateway = parseDefaultRoute(p.run(ctx, "ip route show default 2>/dev/null"))
	profile.Network.DNSServers = parseResolvConf(p.readFile(ctx, "/etc/resolv.conf"))
}

func (p *Prober) probePublicIP(ctx context.Context, profile *entity.HostProfile) {
	ip, err := p.lookupPublicIP(ctx)
	if err != nil {
		logger.Warn("public IP lookup failed", "error", err)
	}
	profile.Network.PublicIP = ip

	local := make(map[string]bool)
	cgnat := false
	for _, iface := range profile.Network.Interfaces {
		local[iface.IPv4] = true
		if addr, err := netip.ParseAddr(iface.IPv4); err == nil && cgnatRange.Contains(addr) {
			cgnat = true
		}
	}

	if ip != "" {
		profile.Network.BehindNAT = !local[ip]
		if addr, err := netip.ParseAddr(ip); err == nil && cgnatRange.Contains(addr) {
			cgnat = true
		}
	}
	profile.Network.BehindCGNAT = cgnat
}

// lookupPublicIP asks each endpoint from the host itself so the answer
// reflects the host's egress, not ours. curl first, wget as fallback.
func (p *Prober) lookupPublicIP(ctx context.Context) (string, error) {
	return retry.DoWithResult(ctx, func() (string, error) {
		for _, endpoint := range publicIPEndpoints {
			out := p.run(ctx, fmt.Sprintf("curl -fsS --max-time 5 %s 2>/dev/null || wget -qO- --timeout=5 %s 2>/dev/null", endpoint, endpoint))
			out = strings.TrimSpace(out)
			if addr, err := netip.ParseAddr(out); err == nil {
				return addr.String(), nil
			}
		}
		return "", domain.ErrPublicIPUnknown
	},
		retry.WithMaxAttempts(2),
		retry.WithInitialDelay(500*time.Millisecond),
	)
}

func (p *Prober) probeListeningPorts(ctx context.Context, profile *entity.HostProfile) {
	out := p.run(ctx, "ss -tlnu -H 2>/dev/null")
	ports := parseSS(out)
	if len(ports) == 0 {
		ports = parseNetstat(p.run(ctx, "netstat -tlnu 2>/dev/null"))
	}
	profile.Network.ListeningPorts = ports
}

func (p *Prober) probeFirewall(ctx context.Context, profile *entity.HostProfile) {
	if out := p.run(ctx, "ufw status 2>/dev/null"); strings.Contains(out, "Status: active") {
		profile.Network.Firewall = "ufw"
		return
	}
	if out := p.run(ctx, "systemctl is-active firewalld 2>/dev/null"); out == "active" {
		profile.Network.Firewall = "firewalld"
		return
	}
	if out := p.run(ctx, "nft list ruleset 2>/dev/null"); strings.Contains(out, "chain") {
		profile.Network.Firewall = "nftables"
		return
	}
	if out := p.run(ctx, "iptables -S 2>/dev/null"); strings.Count(out, "\n") > 3 {
		profile.Network.Firewall = "iptables"
		return
	}
	profile.Network.Firewall = "none"
}

// parseIPAddr reads `ip -o -4 addr show` lines like
// "2: eth0    inet 192.168.1.10/24 brd ..." skipping loopback.
func parseIPAddr(output string) []entity.NetworkInterface {
	var ifaces []entity.NetworkInterface
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "inet" {
			continue
		}
		name := strings.TrimSuffix(fields[1], ":")
		if name == "lo" {
			continue
		}
		addr, _, ok := strings.Cut(fields[3], "/")
		if !ok {
			addr = fields[3]
		}
		if _, err := netip.ParseAddr(addr); err != nil {
			continue
		}
		ifaces = append(ifaces, entity.NetworkInterface{Name: name, IPv4: addr})
	}
	return ifaces
}

func parseDefaultRoute(output string) string {
	// "default via 192.168.1.1 dev eth0 proto dhcp src ..."
	fields := strings.Fields(output)
	for i, f := range fields {
		if f == "via" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func parseResolvConf(content string) []string {
	var servers []string
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "nameserver" {
			servers = append(servers, fields[1])
		}
	}
	return servers
}

// parseSS extracts listening ports from `ss -tlnu -H` output. The local
// address column looks like 0.0.0.0:80, [::]:443 or *:22.
func parseSS(output string) []int {
	seen := make(map[int]bool)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		// Column 4 for ss -tlnu (Netid State Recv-Q Send-Q Local:Port Peer:Port),
		// but udp lines omit nothing; take the field containing a port suffix.
		if port := portFromAddr(fields[4]); port > 0 {
			seen[port] = true
		}
	}
	return sortedPorts(seen)
}

func parseNetstat(output string) []int {
	seen := make(map[int]bool)
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "tcp") && !strings.HasPrefix(line, "udp") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if port := portFromAddr(fields[3]); port > 0 {
			seen[port] = true
		}
	}
	return sortedPorts(seen)
}

func portFromAddr(addr string) int {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 || idx == len(addr)-1 {
		return 0
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return 0
	}
	return port
}

func sortedPorts(seen map[int]bool) []int {
	ports := make([]int, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}
