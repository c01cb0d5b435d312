package cmd

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/magnus188/trimix-analysator/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile create
var (
	profRepo            *string
	profCurrentVersion  *string
	profTarget          *string
	profRestartCmd      *string
	profAllowPrerelease *bool
	profHistoryDB       *string
	profDataDir         *string
	profVerbose         *bool
	profLogFormat       *string
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{}

		if cmd.Flags().Changed("repo") {
			p.Repo = profRepo
		}
		if cmd.Flags().Changed("current-version") {
			p.CurrentVersion = profCurrentVersion
		}
		if cmd.Flags().Changed("target") {
			p.Target = profTarget
		}
		if cmd.Flags().Changed("restart-cmd") {
			p.RestartCmd = profRestartCmd
		}
		if cmd.Flags().Changed("allow-prerelease") {
			p.AllowPrerelease = profAllowPrerelease
		}
		if cmd.Flags().Changed("history-db") {
			p.HistoryDB = profHistoryDB
		}
		if cmd.Flags().Changed("data-dir") {
			p.StateDir = profDataDir
		}
		if cmd.Flags().Changed("verbose") {
			p.Verbose = profVerbose
		}
		if cmd.Flags().Changed("log-format") {
			p.LogFormat = profLogFormat
		}

		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		fmt.Printf("Profile %q saved to %s\n", args[0], profile.Dir())
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No profiles saved.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		fmt.Print(buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Profile %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	// Wire up flags for create. We use local variables so they only apply to
	// this subcommand and don't collide with the root/update flags.
	profRepo = profileCreateCmd.Flags().String("repo", "", "GitHub repository hosting firmware releases (owner/repo)")
	profCurrentVersion = profileCreateCmd.Flags().String("current-version", "", "Running firmware version")
	profTarget = profileCreateCmd.Flags().String("target", "", "Path the firmware image is installed to")
	profRestartCmd = profileCreateCmd.Flags().String("restart-cmd", "", "Command run after a successful install")
	profAllowPrerelease = profileCreateCmd.Flags().Bool("allow-prerelease", false, "Offer prerelease versions")
	profHistoryDB = profileCreateCmd.Flags().String("history-db", "", "Path to the update log database")
	profDataDir = profileCreateCmd.Flags().String("data-dir", "", "Directory for updater state")
	profVerbose = profileCreateCmd.Flags().Bool("verbose", false, "Enable verbose logging")
	profLogFormat = profileCreateCmd.Flags().String("log-format", "", "Log format: console or json")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
