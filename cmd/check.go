package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/magnus188/trimix-analysator/internal/logging"
	"github.com/magnus188/trimix-analysator/internal/state"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer firmware release is available",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDataDir(); err != nil {
			return err
		}

		o, err := buildOrchestrator(nil)
		if err != nil {
			return err
		}

		rel, err := o.CheckForUpdates(context.Background())
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}

		if st, loadErr := state.Load(dataDir); loadErr == nil {
			st.MarkChecked(rel.Version, time.Now())
			if saveErr := st.Save(dataDir); saveErr != nil {
				logging.L().Warn("saving updater state", zap.Error(saveErr))
			}
		}

		if o.IsUpdateAvailable(rel) {
			colorstring.Printf("[green]Update available:[reset] %s → %s\n", o.CurrentVersion(), rel.Version)
			if rel.Name != "" {
				fmt.Printf("  %s\n", rel.Name)
			}
			if notes := strings.TrimSpace(rel.Notes); notes != "" {
				fmt.Printf("\n%s\n", notes)
			}
			fmt.Println("\nRun 'trimix-updater update' to install.")
		} else {
			colorstring.Printf("[cyan]Already up to date[reset] (current %s, latest %s)\n", o.CurrentVersion(), rel.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
