package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
)

func newStatusCommand(ctx *Context) *cobra.Command {
	var resetState bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is deployed",
		Long:  "Summarize the recorded deployment state: last runs, deployed services and artifact hashes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), ctx, resetState)
		},
	}

	cmd.Flags().BoolVar(&resetState, "reset-state", false, "Drop the recorded state so the next plan starts from scratch")

	return cmd
}

func runStatus(c context.Context, ctx *Context, resetState bool) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}

	if resetState {
		if !ctx.Yes && !Confirm("Reset the deployment state? The next plan will recreate everything.", false) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := w.ResetState(c); err != nil {
			return err
		}
		fmt.Println("State reset.")
		return nil
	}

	state, err := w.State(c)
	if err != nil {
		if errors.Is(err, domain.ErrStateCorrupt) {
			return fmt.Errorf("%w; run `labops status --reset-state` to start over", err)
		}
		return err
	}
	displayState(state)
	return nil
}

func displayState(state *repository.DeployState) {
	if len(state.Artifacts) == 0 && len(state.Runs) == 0 {
		fmt.Println("Nothing deployed yet.")
		return
	}

	if len(state.Runs) > 0 {
		last := state.Runs[len(state.Runs)-1]
		fmt.Println(TitleStyle.Render("Last Run"))
		fmt.Printf("  %s  %s  +%d ~%d -%d\n",
			last.FinishedAt.Format("2006-01-02 15:04"), last.Status,
			last.Creates, last.Updates, last.Deletes)
	}

	if services := state.DeployedServices(); len(services) > 0 {
		fmt.Println(TitleStyle.Render("\nServices"))
		for _, name := range services {
			rec, _ := state.Lookup("stack", name)
			fmt.Printf("  %-18s %s  %s\n", name, shortHash(rec.Hash), HelpStyle.Render(rec.Image))
		}
	}

	others := make([]repository.ArtifactRecord, 0, len(state.Artifacts))
	for _, rec := range state.Artifacts {
		if rec.Kind != "stack" {
			others = append(others, rec)
		}
	}
	if len(others) > 0 {
		sort.Slice(others, func(i, j int) bool {
			if others[i].Kind != others[j].Kind {
				return others[i].Kind < others[j].Kind
			}
			return others[i].Name < others[j].Name
		})
		fmt.Println(TitleStyle.Render("\nInfrastructure"))
		for _, rec := range others {
			fmt.Printf("  %-8s %-18s %s\n", rec.Kind, rec.Name, shortHash(rec.Hash))
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
