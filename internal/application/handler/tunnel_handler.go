package handler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
)

// TunnelHandler places WireGuard and cloudflared configs. Device
// configs are export-only; the server side uploads and restarts the
// owning container on change.
type TunnelHandler struct{}

func NewTunnelHandler() *TunnelHandler {
	return &TunnelHandler{}
}

func (h *TunnelHandler) Kind() string { return render.KindTunnel }

func (h *TunnelHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		// Device configs and setup notes never landed on the target.
		if strings.HasPrefix(change.Name(), "peer") || change.Name() == "cloudflared-setup" {
			return succeeded(change, "dropped from output dir"), nil
		}
		if err := deps.removeRemote(ctx, tunnelPath(change.Name())); err != nil {
			return failed(change, err), nil
		}
		return succeeded(change, "removed"), nil
	}

	a, err := deps.artifact(change)
	if err != nil {
		return failed(change, err), nil
	}

	if a.Local {
		return succeeded(change, "exported to "+filepath.Join(deps.OutputDir, a.Path)), nil
	}

	dest, err := deps.upload(ctx, a)
	if err != nil {
		return failed(change, err), nil
	}
	output := "uploaded " + dest

	if change.Type() == valueobject.ChangeTypeUpdate {
		container := tunnelContainer(change.Name())
		cmd := "docker restart " + runner.ShellEscape(container)
		if _, stderr, err := deps.Runner.Run(ctx, cmd); err != nil {
			return failed(change, fmt.Errorf("%s: %w (%s)", cmd, err, strings.TrimSpace(stderr))), nil
		}
		output += "\nrestarted " + container
	}
	return succeeded(change, output), nil
}

func tunnelContainer(name string) string {
	if name == "cloudflared" {
		return "cloudflared"
	}
	return "wireguard"
}

func tunnelPath(name string) string {
	if name == "cloudflared" {
		return "cloudflared/config.yml"
	}
	return "wireguard/config/wg_confs/wg0.conf"
}
