package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/retry"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
)

// healthWait bounds the post-start health poll per service.
const (
	healthAttempts = 20
	healthInterval = 3 * time.Second
)

// StackHandler manages the compose stack: the two files and one change
// per service. File changes upload; the compose change also reconciles
// the whole stack, service changes pull and start their container.
type StackHandler struct{}

func NewStackHandler() *StackHandler {
	return &StackHandler{}
}

func (h *StackHandler) Kind() string { return render.KindStack }

func (h *StackHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		return h.applyDelete(ctx, change, deps)
	}

	a, err := deps.artifact(change)
	if err != nil {
		return failed(change, err), nil
	}

	switch change.Name() {
	case "env":
		dest, err := deps.upload(ctx, a)
		if err != nil {
			return failed(change, err), nil
		}
		// On update the containers must restart to see new values. On
		// create the compose change right after brings the stack up.
		if change.Type() == valueobject.ChangeTypeUpdate {
			if _, err := deps.compose(ctx, "up -d"); err != nil {
				return failed(change, err), nil
			}
		}
		return succeeded(change, "uploaded "+dest), nil

	case "compose":
		dest, err := deps.upload(ctx, a)
		if err != nil {
			return failed(change, err), nil
		}
		out, err := deps.compose(ctx, "up -d --remove-orphans")
		if err != nil {
			return failed(change, err), nil
		}
		return succeeded(change, fmt.Sprintf("uploaded %s\n%s", dest, strings.TrimSpace(out))), nil

	default:
		return h.applyService(ctx, change, deps)
	}
}

func (h *StackHandler) applyService(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	name := change.Name()
	if _, err := deps.compose(ctx, "pull "+runner.ShellEscape(name)); err != nil {
		return failed(change, err), nil
	}
	if _, err := deps.compose(ctx, "up -d "+runner.ShellEscape(name)); err != nil {
		return failed(change, err), nil
	}
	status, err := h.waitHealthy(ctx, deps, name)
	if err != nil {
		return failed(change, err), nil
	}
	return succeeded(change, fmt.Sprintf("%s is %s", name, status)), nil
}

func (h *StackHandler) applyDelete(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	switch change.Name() {
	case "compose", "env":
		a := render.Artifact{Path: pathForStackFile(change.Name())}
		if err := deps.removeRemote(ctx, a.Path); err != nil {
			return failed(change, err), nil
		}
		return succeeded(change, "removed"), nil
	default:
		name := change.Name()
		cmd := "docker rm -f " + runner.ShellEscape(name)
		if _, stderr, err := deps.Runner.Run(ctx, cmd); err != nil {
			return failed(change, fmt.Errorf("%s: %w (%s)", cmd, err, strings.TrimSpace(stderr))), nil
		}
		return succeeded(change, "removed container "+name), nil
	}
}

// waitHealthy polls the container health state until it reports
// healthy. Containers without a healthcheck count as healthy once
// running.
func (h *StackHandler) waitHealthy(ctx context.Context, deps *Deps, name string) (string, error) {
	inspect := fmt.Sprintf(
		"docker inspect --format '{{.State.Status}} {{if .State.Health}}{{.State.Health.Status}}{{else}}none{{end}}' %s",
		runner.ShellEscape(name))

	status, err := retry.DoWithResult(ctx, func() (string, error) {
		stdout, stderr, err := deps.Runner.Run(ctx, inspect)
		if err != nil {
			return "", fmt.Errorf("inspect %s: %w (%s)", name, err, strings.TrimSpace(stderr))
		}
		state, health, _ := strings.Cut(strings.TrimSpace(stdout), " ")
		switch {
		case state != "running":
			return "", fmt.Errorf("container %s is %s", name, state)
		case health == "none" || health == "healthy":
			return "running", nil
		case health == "starting":
			return "", fmt.Errorf("container %s health check still starting", name)
		default:
			return "", fmt.Errorf("container %s is %s", name, health)
		}
	},
		retry.WithMaxAttempts(healthAttempts),
		retry.WithInitialDelay(healthInterval),
		retry.WithMaxDelay(healthInterval),
		retry.WithMultiplier(1),
		retry.WithOnRetry(func(attempt int, _ time.Duration, err error) {
			logger.Debug("waiting for container health", "service", name, "attempt", attempt, "state", err.Error())
		}),
	)
	if err != nil {
		if errors.Is(err, retry.ErrMaxAttemptsExceeded) {
			return "", fmt.Errorf("service %s did not become healthy: %w", name, err)
		}
		return "", err
	}
	return status, nil
}

func pathForStackFile(name string) string {
	if name == "env" {
		return ".env"
	}
	return "docker-compose.yml"
}
