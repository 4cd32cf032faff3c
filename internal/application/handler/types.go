// Package handler applies planned changes to the target, one handler
// per artifact kind. Apply failures travel in Result.Error with a nil
// second return value, so the executor keeps going after one change
// fails and reports everything at the end.
package handler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
	"github.com/lite-lake/homelab-ops/internal/providers/dns"
	"github.com/lite-lake/homelab-ops/internal/providers/ssl"
)

type Handler interface {
	Kind() string
	Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error)
}

// Deps carries what every handler shares for one apply run.
type Deps struct {
	Runner    runner.Runner
	Artifacts *render.Set
	Settings  *entity.Settings
	Answers   *entity.Answers
	// DNS is nil when no provider is configured; record changes then
	// fail individually instead of aborting the run.
	DNS dns.Provider
	// SSL issues certificates. Nil falls back to self-signed.
	SSL ssl.Provider
	// BaseDir is the deploy dir on the target, normally /opt/homelab.
	BaseDir string
	// OutputDir is the local render dir export-only artifacts point at.
	OutputDir string
}

type Result struct {
	Change  *valueobject.Change
	Success bool
	Error   error
	Output  string
}

func succeeded(change *valueobject.Change, output string) *Result {
	return &Result{Change: change, Success: true, Output: output}
}

func failed(change *valueobject.Change, err error) *Result {
	return &Result{Change: change, Error: err}
}

// artifact resolves the rendered artifact behind a change.
func (d *Deps) artifact(change *valueobject.Change) (render.Artifact, error) {
	a, ok := d.Artifacts.Lookup(change.Kind(), change.Name())
	if !ok {
		return render.Artifact{}, fmt.Errorf("no rendered artifact for %s/%s", change.Kind(), change.Name())
	}
	return a, nil
}

func (d *Deps) baseDir() string {
	if d.BaseDir != "" {
		return d.BaseDir
	}
	return constants.DeployBaseDir
}

// zone is the DNS zone records and certificates are managed under.
func (d *Deps) zone() string {
	if d.Answers == nil {
		return ""
	}
	return d.Answers.Domain
}

// remotePath resolves an artifact path against the deploy dir.
func (d *Deps) remotePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return path.Join(d.baseDir(), p)
}

// upload writes one artifact file to the target with its mode and
// returns the destination path.
func (d *Deps) upload(ctx context.Context, a render.Artifact) (string, error) {
	dest := d.remotePath(a.Path)
	if err := d.Runner.MkdirAll(ctx, path.Dir(dest), constants.DirPermShared); err != nil {
		return "", fmt.Errorf("create %s: %w", path.Dir(dest), err)
	}
	if err := d.Runner.WriteFile(ctx, dest, a.Content, a.Mode); err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	return dest, nil
}

// removeRemote deletes a file on the target, tolerating its absence.
func (d *Deps) removeRemote(ctx context.Context, relPath string) error {
	dest := d.remotePath(relPath)
	_, stderr, err := d.Runner.Run(ctx, "rm -f "+runner.ShellEscape(dest))
	if err != nil {
		return fmt.Errorf("remove %s: %w (%s)", dest, err, strings.TrimSpace(stderr))
	}
	return nil
}

// compose runs a docker compose subcommand inside the deploy dir.
func (d *Deps) compose(ctx context.Context, args string) (string, error) {
	cmd := fmt.Sprintf("cd %s && docker compose %s", runner.ShellEscape(d.baseDir()), args)
	stdout, stderr, err := d.Runner.Run(ctx, cmd)
	if err != nil {
		return stdout, fmt.Errorf("docker compose %s: %w (%s)", args, err, strings.TrimSpace(stderr))
	}
	return stdout, nil
}
