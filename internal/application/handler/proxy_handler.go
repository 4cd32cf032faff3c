package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
)

// ProxyHandler places reverse proxy configs. Updates restart the proxy
// container except for traefik's dynamic config, which its file
// provider hot-reloads.
type ProxyHandler struct{}

func NewProxyHandler() *ProxyHandler {
	return &ProxyHandler{}
}

func (h *ProxyHandler) Kind() string { return render.KindProxy }

func (h *ProxyHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		if err := deps.removeRemote(ctx, proxyPath(change.Name())); err != nil {
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

	output := "uploaded " + dest
	if change.Type() == valueobject.ChangeTypeUpdate && change.Name() != "traefik-dynamic" {
		container := proxyContainer(change.Name())
		cmd := "docker restart " + runner.ShellEscape(container)
		if _, stderr, err := deps.Runner.Run(ctx, cmd); err != nil {
			return failed(change, fmt.Errorf("%s: %w (%s)", cmd, err, strings.TrimSpace(stderr))), nil
		}
		output += "\nrestarted " + container
	}
	return succeeded(change, output), nil
}

func proxyContainer(name string) string {
	if strings.HasPrefix(name, "traefik") {
		return "traefik"
	}
	return "nginx"
}

// proxyPath reconstructs the remote path for delete changes, which
// carry no artifact anymore.
func proxyPath(name string) string {
	switch name {
	case "traefik":
		return "traefik/traefik.yml"
	case "traefik-dynamic":
		return "traefik/dynamic/middlewares.yml"
	default:
		return "nginx/conf.d/homelab.conf"
	}
}
