// Package runner executes commands and file operations on the machine
// being provisioned, either directly or over SSH. Probes and deploy
// handlers are written against Runner so they work the same way for
// both kinds of target.
package runner

import (
	"context"
	"os"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

type Runner interface {
	// Run executes a shell command and returns stdout and stderr.
	Run(ctx context.Context, cmd string) (stdout, stderr string, err error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error
	MkdirAll(ctx context.Context, path string, perm os.FileMode) error
	FileExists(ctx context.Context, path string) (bool, error)
	Target() string
	Close() error
}

// New opens a runner for the target. Secrets resolve the SSH password
// reference when one is configured.
func New(target *entity.Target, secrets map[string]string) (Runner, error) {
	if target == nil || target.IsLocal() {
		return NewLocal(), nil
	}
	return Dial(target, secrets)
}
