package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magnus188/trimix-analysator/internal/logging"
	"github.com/magnus188/trimix-analysator/internal/profile"
)

// appVersion is the running firmware/application version. Overridden at
// build time via -ldflags "-X ...cmd.appVersion=x.y.z".
var appVersion = "1.2.0"

var (
	repo            string
	githubToken     string
	currentVersion  string
	profileName     string
	dataDir         string
	allowPrerelease bool
	verbose         bool
	logFormat       string
)

var rootCmd = &cobra.Command{
	Use:           "trimix-updater",
	Short:         "Update tool for the trimix analyzer firmware",
	Long:          "Check for, download and install trimix analyzer firmware releases published on GitHub.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply profile defaults for flags not explicitly set by the user.
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			if p.Repo != nil && !cmd.Flags().Changed("repo") {
				repo = *p.Repo
			}
			if p.CurrentVersion != nil && !cmd.Flags().Changed("current-version") {
				currentVersion = *p.CurrentVersion
			}
			if p.Target != nil && !cmd.Flags().Changed("target") {
				targetPath = *p.Target
			}
			if p.RestartCmd != nil && !cmd.Flags().Changed("restart-cmd") {
				restartCmd = *p.RestartCmd
			}
			if p.AllowPrerelease != nil && !cmd.Flags().Changed("allow-prerelease") {
				allowPrerelease = *p.AllowPrerelease
			}
			if p.HistoryDB != nil && !cmd.Flags().Changed("history-db") {
				historyDB = *p.HistoryDB
			}
			if p.StateDir != nil && !cmd.Flags().Changed("data-dir") {
				dataDir = *p.StateDir
			}
			if p.Verbose != nil && !cmd.Flags().Changed("verbose") {
				verbose = *p.Verbose
			}
			if p.LogFormat != nil && !cmd.Flags().Changed("log-format") {
				logFormat = *p.LogFormat
			}
		}

		return logging.Init(verbose, logFormat)
	},
}

func Execute() {
	err := rootCmd.Execute()
	_ = logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVarP(&repo, "repo", "r", "magnus188/trimix-analysator", "GitHub repository hosting firmware releases (owner/repo)")
	rootCmd.PersistentFlags().StringVar(&githubToken, "github-token", "", "GitHub token for private repositories (also reads GITHUB_TOKEN env)")
	rootCmd.PersistentFlags().StringVar(&currentVersion, "current-version", "", "Running firmware version (default: last installed, else built-in)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory for updater state and downloaded images")
	rootCmd.PersistentFlags().BoolVar(&allowPrerelease, "allow-prerelease", false, "Offer prerelease versions")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
}

func getGithubToken() string {
	if githubToken != "" {
		return githubToken
	}
	return os.Getenv("GITHUB_TOKEN")
}

// defaultDataDir follows XDG_DATA_HOME with a fallback to ~/.local/share.
func defaultDataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "trimix-analysator")
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}
