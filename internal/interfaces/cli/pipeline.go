package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

// runPipeline is the bare `labops` invocation: scan, survey, recommend,
// plan, confirm, apply, in one sitting.
func runPipeline(c context.Context, ctx *Context) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}
	settings, err := w.Settings(c)
	if err != nil {
		return err
	}
	r, err := ctx.Runner(settings)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("Scanning %s...\n", TargetStyle.Render(r.Target()))
	profile, err := w.Scan(c, r)
	if err != nil {
		return err
	}
	fmt.Print(formatScanReport(profile))
	fmt.Println()

	answers, err := RunWizard(profile)
	if err != nil {
		if errors.Is(err, domain.ErrSurveyAborted) {
			fmt.Println("Survey cancelled, nothing deployed.")
			return nil
		}
		return err
	}
	if err := w.SaveAnswers(c, answers); err != nil {
		return err
	}

	pr, err := w.PlanWithAnswers(c, answers)
	if err != nil {
		return err
	}

	displayRecommendation(pr.Inputs.Rec)
	fmt.Println()
	displayPlan(pr.Plan, ctx.Verbose)

	if !pr.Plan.HasChanges() {
		return nil
	}
	if !ctx.Yes {
		if !Confirm("\nApply these changes?", false) {
			fmt.Printf("Cancelled. The rendered files are in %s; run `labops apply` when ready.\n", w.OutputDir())
			return nil
		}
	}

	results, err := w.Apply(c, pr, r)
	if err != nil {
		return err
	}
	return displayResults(results, ctx.Verbose)
}
