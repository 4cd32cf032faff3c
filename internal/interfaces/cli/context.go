package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lite-lake/homelab-ops/internal/application/orchestrator"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
)

// Context carries the persistent flag values into every command.
type Context struct {
	TargetSpec string
	ConfigDir  string
	OutputDir  string
	Verbose    bool
	Yes        bool
}

func NewContext() *Context {
	return &Context{
		ConfigDir: DefaultConfigDir(),
	}
}

// DefaultConfigDir is ~/.config/labops, falling back to .labops in the
// working directory when the home dir cannot be resolved.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".labops"
	}
	return filepath.Join(home, ".config", "labops")
}

// Workflow builds the pipeline facade, resolving the output dir from
// the --output-dir flag and saved settings.
func (c *Context) Workflow(ctx context.Context) (*orchestrator.Workflow, error) {
	return orchestrator.Open(ctx, c.ConfigDir, c.OutputDir)
}

// Target resolves where commands run: the --target flag wins over the
// saved settings, and both default to the local machine.
func (c *Context) Target(settings *entity.Settings) (*entity.Target, error) {
	if c.TargetSpec != "" {
		target, err := entity.ParseTarget(c.TargetSpec)
		if err != nil {
			return nil, fmt.Errorf("parse --target: %w", err)
		}
		return target, nil
	}
	return &settings.Target, nil
}

// Runner opens a command runner for the resolved target. Close it when
// the command is done.
func (c *Context) Runner(settings *entity.Settings) (runner.Runner, error) {
	target, err := c.Target(settings)
	if err != nil {
		return nil, err
	}
	r, err := runner.New(target, settings.SecretMap())
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", target.String(), err)
	}
	return r, nil
}
