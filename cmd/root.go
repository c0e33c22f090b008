package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "licence-sync",
	Short:         "keep Apache 2.0 LICENCE files current across a GitHub organisation",
	Long:          "A CLI-tool that adds, renames and updates the LICENCE file of every repository in a GitHub organisation and triggers their release workflow",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Oops. An error while executing the tool '%s'\n", err)
		os.Exit(1)
	}
}
