package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var ctx = NewContext()

var rootCmd = &cobra.Command{
	Use:   "labops",
	Short: "Homelab provisioning from a guided survey",
	Long: "Labops scans a host, asks what the homelab should do, recommends\n" +
		"services to run, and renders plus deploys the configuration for them.",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ctx.TargetSpec, "target", "t", "", "Target host as user@host[:port], empty for the local machine")
	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigDir, "config-dir", "c", DefaultConfigDir(), "Directory for config, answers and cached scan")
	rootCmd.PersistentFlags().StringVarP(&ctx.OutputDir, "output-dir", "o", "", "Directory rendered artifacts are written to")
	rootCmd.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&ctx.Yes, "yes", "y", false, "Assume yes on confirmation prompts")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newSurveyCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newApplyCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
