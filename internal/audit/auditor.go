package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

type Runner interface {
	Run(ctx context.Context, cmd string) (stdout, stderr string, err error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Target() string
}

type Auditor struct {
	r Runner
}

func New(r Runner) *Auditor {
	return &Auditor{r: r}
}

func (a *Auditor) Run(ctx context.Context) (Report, error) {
	log := logger.L().With("target", a.r.Target())
	log.Info("running security audit")

	var report Report
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Results = append(report.Results, a.checkFilePermissions(ctx)...)
	report.Results = append(report.Results, a.checkSSHDaemon(ctx)...)
	report.Results = append(report.Results, a.checkSysctls(ctx)...)
	report.Results = append(report.Results, a.checkIPForward(ctx))
	report.Results = append(report.Results, a.checkPendingUpdates(ctx))
	report.Results = append(report.Results, a.checkUnattendedUpgrades(ctx))
	report.Results = append(report.Results, a.checkRiskyServices(ctx)...)
	report.Results = append(report.Results, a.checkEmptyPasswords(ctx))
	report.Results = append(report.Results, a.checkFirewall(ctx))

	errCount, warnCount := report.Counts()
	log.Info("audit complete", "score", report.Score(), "errors", errCount, "warnings", warnCount)
	return report, nil
}

// permExpectations maps sensitive files to the modes considered safe.
var permExpectations = []struct {
	path    string
	allowed []string
}{
	{"/etc/passwd", []string{"644", "604", "600"}},
	{"/etc/shadow", []string{"600", "640", "000"}},
	{"/etc/ssh/sshd_config", []string{"644", "640", "600"}},
}

func (a *Auditor) checkFilePermissions(ctx context.Context) []CheckResult {
	var results []CheckResult
	for _, exp := range permExpectations {
		name := "Permissions " + exp.path
		mode := strings.TrimSpace(a.run(ctx, "stat -c '%a' "+exp.path+" 2>/dev/null"))
		if mode == "" {
			results = append(results, CheckResult{Name: name, Status: CheckStatusSkipped, Message: "not readable"})
			continue
		}
		if containsString(exp.allowed, mode) {
			results = append(results, CheckResult{Name: name, Status: CheckStatusOK, Message: mode})
			continue
		}
		results = append(results, CheckResult{
			Name:    name,
			Status:  CheckStatusError,
			Message: fmt.Sprintf("mode %s, want %s", mode, strings.Join(exp.allowed, " or ")),
		})
	}
	return results
}

func (a *Auditor) checkSSHDaemon(ctx context.Context) []CheckResult {
	// sshd -T gives the effective config but needs root; fall back to
	// the config file with sshd's first-match-wins rule.
	config := a.run(ctx, "sshd -T 2>/dev/null")
	source := "effective"
	if config == "" {
		if data, err := a.r.ReadFile(ctx, "/etc/ssh/sshd_config"); err == nil {
			config = string(data)
			source = "file"
		}
	}
	if config == "" {
		return []CheckResult{{Name: "SSH daemon", Status: CheckStatusSkipped, Message: "no sshd config found"}}
	}

	var results []CheckResult

	rootLogin := sshdValue(config, "permitrootlogin")
	switch rootLogin {
	case "no":
		results = append(results, CheckResult{Name: "SSH root login", Status: CheckStatusOK, Message: "disabled"})
	case "prohibit-password", "without-password":
		results = append(results, CheckResult{Name: "SSH root login", Status: CheckStatusWarning, Message: "key-only root login allowed"})
	default:
		results = append(results, CheckResult{
			Name:    "SSH root login",
			Status:  CheckStatusError,
			Message: "enabled",
			Detail:  fmt.Sprintf("PermitRootLogin %s (%s)", valueOrDefault(rootLogin, "yes"), source),
		})
	}

	if sshdValue(config, "passwordauthentication") == "no" {
		results = append(results, CheckResult{Name: "SSH password auth", Status: CheckStatusOK, Message: "disabled"})
	} else {
		results = append(results, CheckResult{Name: "SSH password auth", Status: CheckStatusWarning, Message: "enabled, prefer keys"})
	}

	if sshdValue(config, "pubkeyauthentication") == "no" {
		results = append(results, CheckResult{Name: "SSH pubkey auth", Status: CheckStatusError, Message: "disabled"})
	} else {
		results = append(results, CheckResult{Name: "SSH pubkey auth", Status: CheckStatusOK, Message: "enabled"})
	}

	tries := sshdValue(config, "maxauthtries")
	if tries == "" {
		tries = "6"
	}
	if n, err := strconv.Atoi(tries); err == nil && n > 4 {
		results = append(results, CheckResult{Name: "SSH max auth tries", Status: CheckStatusWarning, Message: fmt.Sprintf("%d, want <= 4", n)})
	} else {
		results = append(results, CheckResult{Name: "SSH max auth tries", Status: CheckStatusOK, Message: tries})
	}

	return results
}

// sysctlExpectations pin the kernel knobs a homelab exposed to the
// internet should have set.
var sysctlExpectations = []struct {
	key  string
	want string
	name string
}{
	{"net.ipv4.conf.all.rp_filter", "1", "Reverse path filter"},
	{"net.ipv4.tcp_syncookies", "1", "TCP syncookies"},
	{"net.ipv4.conf.all.accept_redirects", "0", "ICMP redirects"},
}

func (a *Auditor) checkSysctls(ctx context.Context) []CheckResult {
	var results []CheckResult
	for _, exp := range sysctlExpectations {
		got := strings.TrimSpace(a.run(ctx, "sysctl -n "+exp.key+" 2>/dev/null"))
		switch got {
		case "":
			results = append(results, CheckResult{Name: exp.name, Status: CheckStatusSkipped, Message: "unavailable"})
		case exp.want:
			results = append(results, CheckResult{Name: exp.name, Status: CheckStatusOK, Message: exp.key + "=" + got})
		default:
			results = append(results, CheckResult{
				Name:    exp.name,
				Status:  CheckStatusWarning,
				Message: fmt.Sprintf("%s=%s, want %s", exp.key, got, exp.want),
			})
		}
	}
	return results
}

// checkIPForward treats forwarding as fine when something on the host
// needs it. Containers and VPNs both do.
func (a *Auditor) checkIPForward(ctx context.Context) CheckResult {
	got := strings.TrimSpace(a.run(ctx, "sysctl -n net.ipv4.ip_forward 2>/dev/null"))
	switch got {
	case "":
		return CheckResult{Name: "IP forwarding", Status: CheckStatusSkipped, Message: "unavailable"}
	case "0":
		return CheckResult{Name: "IP forwarding", Status: CheckStatusOK, Message: "disabled"}
	}
	if a.run(ctx, "command -v docker 2>/dev/null") != "" || a.run(ctx, "command -v wg 2>/dev/null") != "" {
		return CheckResult{Name: "IP forwarding", Status: CheckStatusOK, Message: "enabled for containers or VPN"}
	}
	return CheckResult{
		Name:    "IP forwarding",
		Status:  CheckStatusWarning,
		Message: "enabled but nothing on the host needs it",
	}
}

func (a *Auditor) checkPendingUpdates(ctx context.Context) CheckResult {
	if a.run(ctx, "command -v apt-get 2>/dev/null") == "" {
		return CheckResult{Name: "Pending updates", Status: CheckStatusSkipped, Message: "no apt"}
	}

	out := a.run(ctx, "apt-get -s dist-upgrade 2>/dev/null | grep -c '^Inst' || true")
	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return CheckResult{Name: "Pending updates", Status: CheckStatusSkipped, Message: "count unavailable"}
	}
	switch {
	case count == 0:
		return CheckResult{Name: "Pending updates", Status: CheckStatusOK, Message: "up to date"}
	case count <= 10:
		return CheckResult{Name: "Pending updates", Status: CheckStatusWarning, Message: fmt.Sprintf("%d packages pending", count)}
	default:
		return CheckResult{Name: "Pending updates", Status: CheckStatusError, Message: fmt.Sprintf("%d packages pending", count)}
	}
}

func (a *Auditor) checkUnattendedUpgrades(ctx context.Context) CheckResult {
	if a.run(ctx, "command -v apt-get 2>/dev/null") == "" {
		return CheckResult{Name: "Unattended upgrades", Status: CheckStatusSkipped, Message: "no apt"}
	}
	if a.run(ctx, "systemctl is-enabled unattended-upgrades 2>/dev/null") == "enabled" {
		return CheckResult{Name: "Unattended upgrades", Status: CheckStatusOK, Message: "enabled"}
	}
	if a.run(ctx, "command -v unattended-upgrade 2>/dev/null") != "" {
		return CheckResult{Name: "Unattended upgrades", Status: CheckStatusWarning, Message: "installed but not enabled"}
	}
	return CheckResult{Name: "Unattended upgrades", Status: CheckStatusWarning, Message: "not installed"}
}

var riskyUnits = []string{"telnet.socket", "rsh.socket", "vsftpd", "rlogin.socket"}

func (a *Auditor) checkRiskyServices(ctx context.Context) []CheckResult {
	var active []string
	for _, unit := range riskyUnits {
		if a.run(ctx, "systemctl is-active "+unit+" 2>/dev/null") == "active" {
			active = append(active, unit)
		}
	}
	if len(active) == 0 {
		return []CheckResult{{Name: "Legacy services", Status: CheckStatusOK, Message: "none active"}}
	}
	return []CheckResult{{
		Name:    "Legacy services",
		Status:  CheckStatusError,
		Message: strings.Join(active, ", ") + " active",
	}}
}

// checkEmptyPasswords needs root to read /etc/shadow; without it the
// check reports skipped rather than guessing.
func (a *Auditor) checkEmptyPasswords(ctx context.Context) CheckResult {
	data, err := a.r.ReadFile(ctx, "/etc/shadow")
	if err != nil {
		return CheckResult{Name: "Empty passwords", Status: CheckStatusSkipped, Message: "shadow not readable"}
	}

	var open []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 2 && fields[0] != "" && fields[1] == "" {
			open = append(open, fields[0])
		}
	}
	if len(open) == 0 {
		return CheckResult{Name: "Empty passwords", Status: CheckStatusOK, Message: "none"}
	}
	return CheckResult{
		Name:    "Empty passwords",
		Status:  CheckStatusError,
		Message: fmt.Sprintf("%d account(s) without a password", len(open)),
		Detail:  strings.Join(open, ", "),
	}
}

func (a *Auditor) checkFirewall(ctx context.Context) CheckResult {
	if out := a.run(ctx, "ufw status verbose 2>/dev/null"); strings.Contains(out, "Status: active") {
		switch {
		case strings.Contains(out, "deny (incoming)"), strings.Contains(out, "reject (incoming)"):
			return CheckResult{Name: "Firewall", Status: CheckStatusOK, Message: "ufw active, default deny incoming"}
		case strings.Contains(out, "Default:"):
			return CheckResult{Name: "Firewall", Status: CheckStatusWarning, Message: "ufw active but incoming is open by default"}
		}
		return CheckResult{Name: "Firewall", Status: CheckStatusOK, Message: "ufw active"}
	}
	if a.run(ctx, "systemctl is-active firewalld 2>/dev/null") == "active" {
		return CheckResult{Name: "Firewall", Status: CheckStatusOK, Message: "firewalld active"}
	}
	if out := a.run(ctx, "nft list ruleset 2>/dev/null"); strings.Contains(out, "chain") {
		return CheckResult{Name: "Firewall", Status: CheckStatusOK, Message: "nftables rules present"}
	}
	return CheckResult{Name: "Firewall", Status: CheckStatusWarning, Message: "no active firewall detected"}
}

func (a *Auditor) run(ctx context.Context, cmd string) string {
	stdout, _, err := a.r.Run(ctx, cmd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stdout)
}

// sshdValue finds the effective value for key; sshd takes the first
// occurrence, so the scan stops at the first non-comment match.
func sshdValue(config, key string) string {
	for _, line := range strings.Split(config, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if strings.EqualFold(fields[0], key) {
			return strings.ToLower(fields[1])
		}
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
