// Package cmd provides the root command and CLI setup for objindent.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"objindent.dev/pkg/objindent/internal/adapter"
	"objindent.dev/pkg/objindent/internal/controller"
	"objindent.dev/pkg/objindent/internal/domain"
	m "objindent.dev/pkg/objindent/internal/model"
)

var phpFileAdapter adapter.PHPFileAdapter
var sourceFSAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var extensionsFlag []string
var parallelFlag int
var plainFlag bool
var sniffsFlag []string
var excludeCodesFlag []string
var logFileFlag string
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout), func() bool {
		return viper.GetBool(plainConfigKey)
	})
	phpFileAdapter = adapter.NewLocalPHPFileAdapter()
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	workflow = domain.NewWorkflow(
		sourceFSAdapter,
		phpFileAdapter,
		reportStore,
		ui,
	)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...            recursively scan current directory
  - ./modules/...    recursively scan the modules directory
  - ./src ./tests    scan multiple directories
  - ./src/Foo.php    scan a single file`

const rootLongDescription = `objindent checks and fixes the indentation of object operators ("->")
in PHP code: chained calls that start a line are indented two spaces past
the statement, and no operator is left dangling at the end of a line.

` + pathPatternsHelp

const checkLongDescription = `Check the given paths (default: current directory) and report every
misplaced object operator. Exits with status 1 when violations are found.

` + pathPatternsHelp

const fixLongDescription = `Fix the given paths in place, or print the changes as a unified diff
with --dry-run.

` + pathPatternsHelp

const listLongDescription = `List source files and the number of object operators they contain.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "objindent",
		Short:        "PHP object operator indentation checker",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd builds a root command with its persistent flags bound to viper.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVarP(&reportsOutputDirFlag, outputFlagName, "o", viper.GetString(outputFlagName), "output directory for check reports")
	bindFlagToConfig(flags.Lookup(outputFlagName), outputFlagName)

	flags.StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeConfigKey)

	flags.StringSliceVar(&extensionsFlag, extensionsFlagName, viper.GetStringSlice(extensionsConfigKey), "file extensions to check")
	bindFlagToConfig(flags.Lookup(extensionsFlagName), extensionsConfigKey)

	flags.IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel workers")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelConfigKey)

	flags.BoolVar(&plainFlag, plainFlagName, viper.GetBool(plainConfigKey), "plain output without the interactive pager or colours")
	bindFlagToConfig(flags.Lookup(plainFlagName), plainConfigKey)

	flags.StringSliceVar(&sniffsFlag, sniffFlagName, viper.GetStringSlice(sniffsConfigKey), fmt.Sprintf("sniffs to run (known: %v)", domain.SniffNames()))
	bindFlagToConfig(flags.Lookup(sniffFlagName), sniffsConfigKey)

	flags.StringSliceVar(&excludeCodesFlag, excludeCodeFlagName, viper.GetStringSlice(excludeCodesConfigKey), "violation codes to ignore (Indent, LineStart)")
	bindFlagToConfig(flags.Lookup(excludeCodeFlagName), excludeCodesConfigKey)

	flags.StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "path of the log file")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

func sourceArgs(args []string) domain.SourceArgs {
	return domain.SourceArgs{
		Paths:      parsePaths(args),
		Exclude:    viper.GetStringSlice(excludeConfigKey),
		Extensions: viper.GetStringSlice(extensionsConfigKey),
	}
}

func ruleArgs() domain.RuleArgs {
	return domain.RuleArgs{
		Sniffs:       viper.GetStringSlice(sniffsConfigKey),
		ExcludeCodes: viper.GetStringSlice(excludeCodesConfigKey),
	}
}
