package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lite-lake/homelab-ops/internal/audit"
)

func newAuditCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Audit the target's security posture",
		Long:  "Check SSH daemon settings, firewall status, pending updates and risky services, and score the result. Read-only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), ctx)
		},
	}
}

func runAudit(c context.Context, ctx *Context) error {
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

	report, err := w.Audit(c, r)
	if err != nil {
		return err
	}

	fmt.Print(audit.FormatResults(r.Target(), report))

	if errs, _ := report.Counts(); errs > 0 {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("\n%d finding(s) need attention before exposing this host.", errs)))
	}
	return nil
}
