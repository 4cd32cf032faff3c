// Package orchestrator wires the pipeline stages together so each CLI
// command stays a thin shell: scan, survey, recommend, render, plan and
// apply all run through one Workflow that owns the config and state
// stores.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lite-lake/homelab-ops/internal/application/handler"
	"github.com/lite-lake/homelab-ops/internal/application/plan"
	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/application/usecase"
	"github.com/lite-lake/homelab-ops/internal/audit"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/persistence"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/runner"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/state"
	"github.com/lite-lake/homelab-ops/internal/probe"
	"github.com/lite-lake/homelab-ops/internal/providers/dns"
	"github.com/lite-lake/homelab-ops/internal/providers/ssl"
)

type Workflow struct {
	configDir string
	outputDir string
	store     *persistence.FileConfigStore
	states    repository.StateStore
}

func NewWorkflow(configDir, outputDir string) *Workflow {
	return &Workflow{
		configDir: configDir,
		outputDir: outputDir,
		store:     persistence.NewFileConfigStore(configDir),
		states:    state.NewFileStore(filepath.Join(outputDir, constants.StateFileName)),
	}
}

// Open builds a workflow with the output dir resolved: an explicit
// outputDir wins, then the saved settings, then output/ under the
// config dir.
func Open(ctx context.Context, configDir, outputDir string) (*Workflow, error) {
	if outputDir != "" {
		return NewWorkflow(configDir, outputDir), nil
	}
	settings, err := NewWorkflow(configDir, "").Settings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.OutputDir != "" {
		return NewWorkflow(configDir, settings.OutputDir), nil
	}
	return NewWorkflow(configDir, filepath.Join(configDir, "output")), nil
}

func (w *Workflow) OutputDir() string { return w.outputDir }

// Settings loads the persisted tool configuration. A missing file is
// not an error: first runs start from zero-value settings.
func (w *Workflow) Settings(ctx context.Context) (*entity.Settings, error) {
	settings, err := w.store.LoadSettings(ctx)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return &entity.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}
	return settings, nil
}

func (w *Workflow) SaveSettings(ctx context.Context, settings *entity.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	return w.store.SaveSettings(ctx, settings)
}

// Scan probes the target host and caches the profile for later stages.
func (w *Workflow) Scan(ctx context.Context, r runner.Runner) (*entity.HostProfile, error) {
	profile, err := probe.New(r).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan host: %w", err)
	}
	if err := w.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("cache profile: %w", err)
	}
	return profile, nil
}

// Profile returns the cached host profile from the last scan.
func (w *Workflow) Profile(ctx context.Context) (*entity.HostProfile, error) {
	profile, err := w.store.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (w *Workflow) Audit(ctx context.Context, r runner.Runner) (audit.Report, error) {
	report, err := audit.New(r).Run(ctx)
	if err != nil {
		return audit.Report{}, fmt.Errorf("audit host: %w", err)
	}
	return report, nil
}

func (w *Workflow) Answers(ctx context.Context) (*entity.Answers, error) {
	return w.store.LoadAnswers(ctx)
}

// AnswersFrom loads survey answers from an explicit file instead of the
// config dir, for non-interactive runs.
func (w *Workflow) AnswersFrom(ctx context.Context, path string) (*entity.Answers, error) {
	return persistence.LoadAnswersFrom(path)
}

func (w *Workflow) SaveAnswers(ctx context.Context, answers *entity.Answers) error {
	if err := answers.Validate(); err != nil {
		return fmt.Errorf("validate answers: %w", err)
	}
	return w.store.SaveAnswers(ctx, answers)
}

func (w *Workflow) Recommend(profile *entity.HostProfile, answers *entity.Answers) (*service.Recommendation, error) {
	rec, err := service.NewRecommender().Recommend(profile, answers)
	if err != nil {
		return nil, fmt.Errorf("recommend services: %w", err)
	}
	return rec, nil
}

// PlanResult carries everything one plan run produced, so apply can
// reuse the same artifacts instead of re-rendering.
type PlanResult struct {
	Plan   *valueobject.Plan
	Set    *render.Set
	Inputs render.Inputs
}

// Plan renders artifacts from the cached profile and saved answers,
// writes them under the output dir, and diffs them against the deploy
// state. The same inputs always produce the same plan.
func (w *Workflow) Plan(ctx context.Context) (*PlanResult, error) {
	settings, err := w.Settings(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := w.Profile(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := w.Answers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return w.planWith(ctx, settings, profile, answers)
}

// PlanWithAnswers is Plan with the answers supplied by the caller, for
// the pipeline run where survey output hasn't hit disk yet.
func (w *Workflow) PlanWithAnswers(ctx context.Context, answers *entity.Answers) (*PlanResult, error) {
	settings, err := w.Settings(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := w.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return w.planWith(ctx, settings, profile, answers)
}

func (w *Workflow) planWith(ctx context.Context, settings *entity.Settings, profile *entity.HostProfile, answers *entity.Answers) (*PlanResult, error) {
	rec, err := w.Recommend(profile, answers)
	if err != nil {
		return nil, err
	}

	renderer, err := render.NewRenderer(w.configDir)
	if err != nil {
		return nil, fmt.Errorf("open renderer: %w", err)
	}
	in := render.Inputs{
		Profile:  profile,
		Answers:  answers,
		Settings: settings,
		Rec:      rec,
	}
	set, err := renderer.Render(in)
	if err != nil {
		return nil, fmt.Errorf("render artifacts: %w", err)
	}
	if err := set.WriteTo(w.outputDir); err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}

	deployState, err := w.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	p := plan.NewPlanner().Plan(set, deployState)
	return &PlanResult{Plan: p, Set: set, Inputs: in}, nil
}

// Apply executes a plan against the target. Provider construction
// happens here, once per run, so handlers share one DNS session and
// one ACME account.
func (w *Workflow) Apply(ctx context.Context, pr *PlanResult, r runner.Runner) ([]*handler.Result, error) {
	settings := pr.Inputs.Settings

	dnsProvider, err := w.dnsProvider(settings)
	if err != nil {
		return nil, err
	}
	sslProvider, err := w.sslProvider(settings, dnsProvider, pr.Inputs.Answers.Domain)
	if err != nil {
		return nil, err
	}

	executor := usecase.NewExecutor(&usecase.ExecutorConfig{
		Deps: &handler.Deps{
			Runner:    r,
			Artifacts: pr.Set,
			Settings:  settings,
			Answers:   pr.Inputs.Answers,
			DNS:       dnsProvider,
			SSL:       sslProvider,
			BaseDir:   constants.DeployBaseDir,
			OutputDir: w.outputDir,
		},
		States: w.states,
	})
	return executor.Apply(ctx, pr.Plan)
}

func (w *Workflow) State(ctx context.Context) (*repository.DeployState, error) {
	deployState, err := w.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return deployState, nil
}

// ResetState drops the deploy state so the next plan treats everything
// as new. Rendered files and the target host are left alone.
func (w *Workflow) ResetState(ctx context.Context) error {
	return w.states.Reset(ctx)
}

func (w *Workflow) dnsProvider(settings *entity.Settings) (dns.Provider, error) {
	if !settings.DNS.Enabled() {
		return nil, nil
	}
	provider, err := dns.NewFactory().Create(&settings.DNS, settings.SecretMap())
	if err != nil {
		return nil, fmt.Errorf("dns provider: %w", err)
	}
	return provider, nil
}

// sslProvider picks the certificate issuer: ACME via dns-01 when a DNS
// provider exists, self-signed otherwise.
func (w *Workflow) sslProvider(settings *entity.Settings, dnsProvider dns.Provider, zone string) (ssl.Provider, error) {
	if dnsProvider == nil {
		return ssl.NewSelfSignedProvider(), nil
	}
	solver := dns.NewChallengeSolver(dnsProvider, zone)
	if settings.ACME.CA == "zerossl" {
		hmacKey, err := settings.ACME.EABKey.Resolve(settings.SecretMap())
		if err != nil {
			return nil, fmt.Errorf("resolve eab key: %w", err)
		}
		provider, err := ssl.NewZeroSSLProvider(solver, settings.ACME.EABKid, hmacKey)
		if err != nil {
			return nil, fmt.Errorf("zerossl provider: %w", err)
		}
		return provider, nil
	}
	provider, err := ssl.NewLetsEncryptProvider(solver)
	if err != nil {
		return nil, fmt.Errorf("letsencrypt provider: %w", err)
	}
	return provider, nil
}
