package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the running firmware version",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(resolveCurrentVersion())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
