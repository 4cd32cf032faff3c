// Package usecase executes a deployment plan against the target and
// records the outcome in the state store.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lite-lake/homelab-ops/internal/application/handler"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

const (
	RunStatusApplied = "applied"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// keepRuns bounds the run history carried in the state file.
const keepRuns = 20

type ExecutorConfig struct {
	// Registry defaults to every built-in artifact handler.
	Registry *handler.Registry
	Deps     *handler.Deps
	States   repository.StateStore
}

type Executor struct {
	registry *handler.Registry
	deps     *handler.Deps
	states   repository.StateStore
	now      func() time.Time
}

func NewExecutor(cfg *ExecutorConfig) *Executor {
	registry := cfg.Registry
	if registry == nil {
		registry = handler.DefaultRegistry()
	}
	return &Executor{
		registry: registry,
		deps:     cfg.Deps,
		states:   cfg.States,
		now:      time.Now,
	}
}

// Apply runs every non-noop change through its handler, in plan order.
// A failed change is reported and skipped over, not fatal: the state
// store keeps its old record so the next plan shows the drift again.
func (e *Executor) Apply(ctx context.Context, plan *valueobject.Plan) ([]*handler.Result, error) {
	ctx = logger.WithOperation(ctx, "apply")
	log := logger.FromContext(ctx)

	state, err := e.states.Load(ctx)
	if err != nil {
		return nil, domain.WrapOp("load state", err)
	}

	run := repository.RunRecord{
		ID:        uuid.New().String(),
		StartedAt: e.now(),
	}
	log.Info("starting apply", "run", run.ID, "changes", len(plan.Changes()))

	results := make([]*handler.Result, 0, len(plan.Changes()))
	failedCount := 0
	for _, ch := range plan.Changes() {
		if ch.Type() == valueobject.ChangeTypeNoop {
			continue
		}
		result := e.applyChange(ctx, ch)
		results = append(results, result)
		if !result.Success {
			failedCount++
			continue
		}
		e.recordOutcome(state, ch)
		switch ch.Type() {
		case valueobject.ChangeTypeCreate:
			run.Creates++
		case valueobject.ChangeTypeUpdate:
			run.Updates++
		case valueobject.ChangeTypeDelete:
			run.Deletes++
		}
	}

	run.FinishedAt = e.now()
	run.Status = runStatus(len(results), failedCount)
	state.Runs = append(state.Runs, run)
	if len(state.Runs) > keepRuns {
		state.Runs = state.Runs[len(state.Runs)-keepRuns:]
	}

	if err := e.states.Save(ctx, state); err != nil {
		return results, domain.WrapOp("save state", err)
	}

	log.Info("apply completed",
		"run", run.ID,
		"status", run.Status,
		"applied", len(results)-failedCount,
		"failed", failedCount,
	)
	for op, s := range logger.Snapshot() {
		log.Debug("operation stats", "operation", op, "count", s.Total, "failed", s.Failed, "avg_latency", s.AvgLatency)
	}
	return results, nil
}

func (e *Executor) applyChange(ctx context.Context, ch *valueobject.Change) *handler.Result {
	log := logger.FromContext(ctx)

	h, ok := e.registry.Get(ch.Kind())
	if !ok {
		log.Error("no handler registered", "kind", ch.Kind())
		return &handler.Result{Change: ch, Error: domain.WrapEntity(ch.Kind(), ch.Name(), domain.ErrNoHandler)}
	}

	var result *handler.Result
	err := logger.TimedOperation(ctx, "apply."+ch.Kind(), func() error {
		var applyErr error
		result, applyErr = h.Apply(ctx, ch, e.deps)
		if applyErr != nil {
			return applyErr
		}
		return result.Error
	})
	if result == nil {
		result = &handler.Result{Change: ch, Error: err}
	}
	if result.Error != nil {
		log.Error("change failed", "kind", ch.Kind(), "name", ch.Name(), "error", result.Error)
	} else {
		log.Debug("change applied", "kind", ch.Kind(), "name", ch.Name())
	}
	return result
}

// recordOutcome folds one successful change into the deploy state.
func (e *Executor) recordOutcome(state *repository.DeployState, ch *valueobject.Change) {
	if ch.Type() == valueobject.ChangeTypeDelete {
		state.Forget(ch.Kind(), ch.Name())
		return
	}
	rec := repository.ArtifactRecord{
		Kind:       ch.Kind(),
		Name:       ch.Name(),
		Hash:       ch.NewHash(),
		DeployedAt: e.now(),
	}
	if a, ok := e.deps.Artifacts.Lookup(ch.Kind(), ch.Name()); ok {
		rec.Image = a.Image
	}
	state.Record(rec)
}

func runStatus(total, failedCount int) string {
	switch {
	case failedCount == 0:
		return RunStatusApplied
	case failedCount == total:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}
