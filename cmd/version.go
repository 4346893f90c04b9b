package cmd

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"objindent.dev/pkg/objindent/internal/domain"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version and the sniffs compiled into objindent.",
		Run: func(cmd *cobra.Command, _ []string) {
			version := "unknown"
			goVersion := "unknown"

			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion

				if info.Main.Version != "" {
					version = info.Main.Version
				}
			}

			cmd.Println("objindent version\t", version)
			cmd.Println("go version\t\t", goVersion)
			cmd.Println("sniffs\t\t\t", strings.Join(domain.SniffNames(), ", "))
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
