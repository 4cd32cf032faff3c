package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
)

// FirewallHandler uploads the ufw script and, when the answers ask for
// a hardened box, runs it. Softer security levels get the script on
// disk for the operator to review and run themselves.
type FirewallHandler struct{}

func NewFirewallHandler() *FirewallHandler {
	return &FirewallHandler{}
}

func (h *FirewallHandler) Kind() string { return render.KindFirewall }

func (h *FirewallHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		if err := deps.removeRemote(ctx, "scripts/firewall.sh"); err != nil {
			return failed(change, err), nil
		}
		return succeeded(change, "removed"), nil
	}

	a, err := deps.artifact(change)
	if err != nil {
		return failed(change, err), nil
	}
	dest, err := deps.upload(ctx, a)
	if err != nil {
		return failed(change, err), nil
	}

	if !hardening(deps.Answers) {
		return succeeded(change, "uploaded "+dest+" (not applied, security level below hardened)"), nil
	}

	// ufw needs root. Fall back to passwordless sudo for non-root
	// deploy users.
	script := runner.ShellEscape(dest)
	cmd := fmt.Sprintf(`[ "$(id -u)" -eq 0 ] && bash %s || sudo -n bash %s`, script, script)
	stdout, stderr, err := deps.Runner.Run(ctx, cmd)
	if err != nil {
		return failed(change, fmt.Errorf("apply firewall rules: %w (%s)", err, strings.TrimSpace(stderr))), nil
	}
	return succeeded(change, "applied ufw rules\n"+strings.TrimSpace(stdout)), nil
}

func hardening(answers *entity.Answers) bool {
	if answers == nil {
		return false
	}
	return answers.SecurityLevel == entity.SecurityHardened || answers.SecurityLevel == entity.SecurityParanoid
}
