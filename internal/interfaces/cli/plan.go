package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lite-lake/homelab-ops/internal/catalog"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

func newPlanCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change",
		Long:  "Recommend services from the scan and answers, render their configuration, and diff it against the deployed state. Touches nothing but the output dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), ctx)
		},
	}
}

func runPlan(c context.Context, ctx *Context) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}
	pr, err := w.Plan(c)
	if err != nil {
		return describePipelineGap(err)
	}

	displayRecommendation(pr.Inputs.Rec)
	fmt.Println()
	displayPlan(pr.Plan, ctx.Verbose)
	fmt.Printf("\nArtifacts written to %s\n", w.OutputDir())
	return nil
}

// describePipelineGap turns missing-prerequisite errors into a hint
// about which stage to run.
func describePipelineGap(err error) error {
	switch {
	case errors.Is(err, domain.ErrAnswersNotFound):
		return fmt.Errorf("no survey answers yet, run `labops survey` first (%w)", err)
	case errors.Is(err, domain.ErrConfigNotFound):
		return fmt.Errorf("no host scan yet, run `labops scan` first (%w)", err)
	}
	return err
}

func displayRecommendation(rec *service.Recommendation) {
	fmt.Println(TitleStyle.Render("Recommended Services"))

	title := cases.Title(language.English)
	lastCategory := catalog.Category("")
	for _, sel := range rec.Selections {
		if sel.Service.Category != lastCategory {
			fmt.Printf("\n%s\n", title.String(strings.ReplaceAll(string(sel.Service.Category), "_", " ")))
			lastCategory = sel.Service.Category
		}
		reason := strings.Join(sel.Reasons, "; ")
		fmt.Printf("  %-18s %s\n", sel.Service.DisplayName, HelpStyle.Render(reason))
	}

	if len(rec.Warnings) > 0 {
		fmt.Println()
		for _, warn := range rec.Warnings {
			fmt.Println(WarningStyle.Render("⚠ " + warn))
		}
	}
	fmt.Printf("\nEstimated footprint: ~%d MB memory, ~%d GB disk\n", rec.EstMemoryMB, rec.EstDiskGB)
}

// displayPlan lists the pending changes. Unchanged artifacts are
// hidden unless verbose is set.
func displayPlan(p *valueobject.Plan, verbose bool) {
	creates, updates, deletes, noops := p.Counts()
	if creates+updates+deletes == 0 {
		fmt.Println("No changes. The deployment matches the rendered configuration.")
		return
	}

	fmt.Println(TitleStyle.Render("Deployment Plan"))
	for _, ch := range p.Changes() {
		if ch.Type() == valueobject.ChangeTypeNoop && !verbose {
			continue
		}
		prefix, style := FormatChangeType(ch.Type())
		fmt.Printf("%s %s: %s", style.Render(prefix), ch.Kind(), ch.Name())
		if ch.Reason() != "" {
			fmt.Printf("  %s", HelpStyle.Render("("+ch.Reason()+")"))
		}
		fmt.Println()
		for _, action := range ch.Actions() {
			fmt.Printf("    - %s\n", action)
		}
	}
	fmt.Printf("\n%d to create, %d to update, %d to delete, %d unchanged\n",
		creates, updates, deletes, noops)
}
