package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"objindent.dev/pkg/objindent/internal/domain"
)

var dryRunFlag bool
var maxPassesFlag int

// fixCmd represents the fix command.
var fixCmd = newFixCmd()

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Fix misplaced object operators",
		Long:  fixLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Fix(cmd.Context(), domain.FixArgs{
				SourceArgs: sourceArgs(args),
				RuleArgs:   ruleArgs(),
				Threads:    viper.GetInt(parallelConfigKey),
				MaxPasses:  viper.GetInt(maxPassesConfigKey),
				DryRun:     dryRunFlag,
			})
		},
	}

	configureFixFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func configureFixFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRunFlag, dryRunFlagName, false, "print a unified diff instead of writing files")
	cmd.Flags().IntVar(&maxPassesFlag, maxPassesFlagName, viper.GetInt(maxPassesConfigKey), "maximum number of fix passes per file")
	bindFlagToConfig(cmd.Flags().Lookup(maxPassesFlagName), maxPassesConfigKey)
}
