// Package plan turns a rendered artifact set and the recorded
// deployment state into the ordered change list an apply executes.
package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

// certRenewAfter is how old a recorded certificate may get before the
// next plan schedules a reissue. Let's Encrypt certs last 90 days, so
// this leaves a month of slack.
const certRenewAfter = 60 * 24 * time.Hour

type Planner struct {
	now func() time.Time
}

func NewPlanner() *Planner {
	return &Planner{now: time.Now}
}

// Plan compares rendered artifacts with the recorded state. Artifacts
// hash-equal to their record become noops, changed ones updates, new
// ones creates. Recorded artifacts no longer rendered become deletes,
// appended after the renders in kind/name order.
func (p *Planner) Plan(set *render.Set, state *repository.DeployState) *valueobject.Plan {
	out := valueobject.NewPlan()
	seen := make(map[string]bool, len(set.Artifacts))

	for _, a := range set.Artifacts {
		seen[a.Key()] = true
		rec, ok := state.Lookup(a.Kind, a.Name)
		switch {
		case !ok:
			out.AddChange(valueobject.NewChange(valueobject.ChangeTypeCreate, a.Kind, a.Name).
				WithReason("not deployed yet").
				WithHashes("", a.Hash()).
				WithActions(applyActions(a, valueobject.ChangeTypeCreate)...))
		case rec.Hash != a.Hash():
			out.AddChange(valueobject.NewChange(valueobject.ChangeTypeUpdate, a.Kind, a.Name).
				WithReason("content changed").
				WithHashes(rec.Hash, a.Hash()).
				WithActions(applyActions(a, valueobject.ChangeTypeUpdate)...))
		case a.Kind == render.KindTLS && p.now().Sub(rec.DeployedAt) > certRenewAfter:
			out.AddChange(valueobject.NewChange(valueobject.ChangeTypeUpdate, a.Kind, a.Name).
				WithReason("certificate renewal due").
				WithHashes(rec.Hash, a.Hash()).
				WithActions(applyActions(a, valueobject.ChangeTypeUpdate)...))
		default:
			out.AddChange(valueobject.NewChange(valueobject.ChangeTypeNoop, a.Kind, a.Name).
				WithHashes(rec.Hash, rec.Hash))
		}
	}

	var gone []repository.ArtifactRecord
	for key, rec := range state.Artifacts {
		if !seen[key] {
			gone = append(gone, rec)
		}
	}
	sort.Slice(gone, func(i, j int) bool {
		if gone[i].Kind != gone[j].Kind {
			return gone[i].Kind < gone[j].Kind
		}
		return gone[i].Name < gone[j].Name
	})
	for _, rec := range gone {
		out.AddChange(valueobject.NewChange(valueobject.ChangeTypeDelete, rec.Kind, rec.Name).
			WithReason("no longer selected").
			WithHashes(rec.Hash, "").
			WithActions(deleteActions(rec)...))
	}
	return out
}

// applyActions spells out what the handler will do for a create or
// update, for plan display.
func applyActions(a render.Artifact, typ valueobject.ChangeType) []string {
	switch a.Kind {
	case render.KindDNS:
		recordType, target, _ := strings.Cut(string(a.Content), " ")
		return []string{fmt.Sprintf("publish %s record -> %s", recordType, target)}
	case render.KindTLS:
		return []string{"issue certificate", "upload to nginx/certs/" + a.Name}
	case render.KindStack:
		switch a.Name {
		case "compose":
			return []string{"upload " + a.Path, "docker compose up -d --remove-orphans"}
		case "env":
			if typ == valueobject.ChangeTypeUpdate {
				return []string{"upload " + a.Path, "docker compose up -d"}
			}
			return []string{"upload " + a.Path}
		default:
			return []string{"docker compose pull " + a.Name, "docker compose up -d " + a.Name}
		}
	case render.KindProxy:
		actions := []string{"upload " + a.Path}
		if typ == valueobject.ChangeTypeUpdate {
			actions = append(actions, "restart "+a.Name)
		}
		return actions
	case render.KindTunnel:
		if a.Local {
			return []string{"export to output dir"}
		}
		actions := []string{"upload " + a.Path}
		if typ == valueobject.ChangeTypeUpdate {
			actions = append(actions, "restart "+tunnelContainer(a.Name))
		}
		return actions
	case render.KindScript:
		return []string{"upload " + a.Path}
	case render.KindFirewall:
		return []string{"upload " + a.Path, "apply ufw rules when hardening is on"}
	}
	return nil
}

func deleteActions(rec repository.ArtifactRecord) []string {
	switch rec.Kind {
	case render.KindStack:
		if rec.Name == "compose" || rec.Name == "env" {
			return []string{"remove remote file"}
		}
		return []string{"docker rm -f " + rec.Name}
	case render.KindDNS:
		return []string{"delete record"}
	case render.KindTLS:
		return []string{"remove certificate files"}
	default:
		return []string{"remove remote file"}
	}
}

// tunnelContainer maps a tunnel artifact to the container that must
// pick the new config up.
func tunnelContainer(name string) string {
	if name == "cloudflared" {
		return "cloudflared"
	}
	return "wireguard"
}
