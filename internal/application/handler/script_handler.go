package handler

import (
	"context"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

// ScriptHandler uploads the helper scripts, 0755.
type ScriptHandler struct{}

func NewScriptHandler() *ScriptHandler {
	return &ScriptHandler{}
}

func (h *ScriptHandler) Kind() string { return render.KindScript }

func (h *ScriptHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		if err := deps.removeRemote(ctx, "scripts/"+change.Name()); err != nil {
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
	return succeeded(change, "uploaded "+dest), nil
}
