package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lite-lake/homelab-ops/internal/application/handler"
)

func newApplyCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Deploy the planned changes",
		Long:  "Render, plan, confirm and execute the deployment against the target.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), ctx)
		},
	}
}

func runApply(c context.Context, ctx *Context) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}
	pr, err := w.Plan(c)
	if err != nil {
		return describePipelineGap(err)
	}

	if !pr.Plan.HasChanges() {
		fmt.Println("Nothing to apply. The deployment is up to date.")
		return nil
	}

	displayPlan(pr.Plan, ctx.Verbose)
	if !ctx.Yes {
		if !Confirm("\nApply these changes?", false) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	r, err := ctx.Runner(pr.Inputs.Settings)
	if err != nil {
		return err
	}
	defer r.Close()

	results, err := w.Apply(c, pr, r)
	if err != nil {
		return err
	}
	return displayResults(results, ctx.Verbose)
}

func displayResults(results []*handler.Result, verbose bool) error {
	fmt.Println()
	failed := 0
	for _, result := range results {
		if result.Success {
			fmt.Printf("%s %s: %s\n", SuccessStyle.Render("✓"), result.Change.Kind(), result.Change.Name())
		} else {
			fmt.Printf("%s %s: %s - %v\n", ErrorStyle.Render("✗"), result.Change.Kind(), result.Change.Name(), result.Error)
			failed++
		}
		if verbose && result.Output != "" {
			for _, line := range strings.Split(strings.TrimSpace(result.Output), "\n") {
				fmt.Printf("    %s\n", HelpStyle.Render(line))
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d change(s) failed", failed, len(results))
	}
	fmt.Println(SuccessStyle.Render("\nApply complete."))
	return nil
}
