package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lite-lake/homelab-ops/internal/application/orchestrator"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/survey"
)

func newSurveyCommand(ctx *Context) *cobra.Command {
	var answersFile string
	var useDefaults bool

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Answer the provisioning questionnaire",
		Long:  "Walk through the questions that decide which services to run. Answers are saved for plan and apply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd.Context(), ctx, answersFile, useDefaults)
		},
	}

	cmd.Flags().StringVar(&answersFile, "answers", "", "Load answers from a YAML file instead of asking")
	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "Accept every question's default")

	return cmd
}

func runSurvey(c context.Context, ctx *Context, answersFile string, useDefaults bool) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}

	answers, err := collectAnswers(c, w, answersFile, useDefaults)
	if err != nil {
		if errors.Is(err, domain.ErrSurveyAborted) {
			fmt.Println("Survey cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := w.SaveAnswers(c, answers); err != nil {
		return err
	}
	fmt.Printf("Answers saved to %s\n", filepath.Join(ctx.ConfigDir, "answers.yaml"))
	return nil
}

func collectAnswers(c context.Context, w *orchestrator.Workflow, answersFile string, useDefaults bool) (*entity.Answers, error) {
	if answersFile != "" {
		return w.AnswersFrom(c, answersFile)
	}

	profile := cachedProfile(c, w)
	if useDefaults {
		return survey.UseDefaults(profile)
	}
	return RunWizard(profile)
}

// cachedProfile fetches the last scan if one exists. The survey runs
// fine without it; profile-aware defaults just fall back.
func cachedProfile(c context.Context, w *orchestrator.Workflow) *entity.HostProfile {
	profile, err := w.Profile(c)
	if err != nil {
		return nil
	}
	return profile
}
