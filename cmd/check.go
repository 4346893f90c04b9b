package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"objindent.dev/pkg/objindent/internal/domain"
	m "objindent.dev/pkg/objindent/internal/model"
)

var noReportFlag bool
var noCacheFlag bool
var shardFlag string

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report misplaced object operators",
		Long:  checkLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			shard, err := parseShardFlag(shardFlag)
			if err != nil {
				return err
			}

			return workflow.Check(cmd.Context(), domain.CheckArgs{
				SourceArgs: sourceArgs(args),
				RuleArgs:   ruleArgs(),
				Reports:    m.Path(viper.GetString(outputFlagName)),
				Threads:    viper.GetInt(parallelConfigKey),
				Shard:      shard,
				NoReport:   viper.GetBool(noReportConfigKey),
				UseCache:   !viper.GetBool(noCacheConfigKey),
			})
		},
	}

	configureCheckFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func configureCheckFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noReportFlag, noReportFlagName, viper.GetBool(noReportConfigKey), "do not save the report")
	bindFlagToConfig(cmd.Flags().Lookup(noReportFlagName), noReportConfigKey)

	cmd.Flags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheConfigKey), "re-check files unchanged since the last report")
	bindFlagToConfig(cmd.Flags().Lookup(noCacheFlagName), noCacheConfigKey)

	cmd.Flags().StringVarP(&shardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
}

func parseShardFlag(shard string) (domain.Shard, error) {
	if shard == "" {
		return domain.Shard{}, nil
	}

	var index, total int

	if _, err := fmt.Sscanf(shard, "%d/%d", &index, &total); err != nil {
		return domain.Shard{}, fmt.Errorf("invalid shard %q: expected INDEX/TOTAL", shard)
	}

	s := domain.Shard{Index: index, Total: total}
	if total <= 0 {
		return domain.Shard{}, fmt.Errorf("invalid shard %q: total must be positive", shard)
	}

	if err := s.Validate(); err != nil {
		return domain.Shard{}, err
	}

	return s, nil
}
