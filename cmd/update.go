package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/magnus188/trimix-analysator/internal/history"
	"github.com/magnus188/trimix-analysator/internal/logging"
	"github.com/magnus188/trimix-analysator/internal/state"
	"github.com/magnus188/trimix-analysator/internal/updater"
)

var (
	targetPath string
	restartCmd string
	historyDB  string
	assumeYes  bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download and install the latest firmware release",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDataDir(); err != nil {
			return err
		}

		var restarter updater.Restarter
		if restartCmd != "" {
			restarter = updater.ExecRestarter{Command: strings.Fields(restartCmd)}
		}

		o, err := buildOrchestrator(restarter)
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

		if !o.IsUpdateAvailable(rel) {
			colorstring.Printf("[cyan]Already up to date[reset] (current %s, latest %s)\n", o.CurrentVersion(), rel.Version)
			return nil
		}

		colorstring.Printf("[green]Update available:[reset] %s → %s (%d bytes)\n", o.CurrentVersion(), rel.Version, rel.Size)
		if !assumeYes && !confirm(fmt.Sprintf("Install %s?", rel.Version)) {
			fmt.Println("Aborted.")
			return nil
		}

		bar := progressbar.NewOptions(100,
			progressbar.OptionSetDescription("downloading "+rel.Version),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		o.SetProgressFunc(func(percent int) { _ = bar.Set(percent) })

		var finalMessage string
		o.SetCompleteFunc(func(success bool, message string) { finalMessage = message })

		// Ctrl-C turns into a cooperative cancel of the running download.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		go func() {
			if _, ok := <-sigCh; ok {
				o.CancelUpdate()
			}
		}()

		ok := o.DownloadAndInstall(context.Background(), rel)
		_ = bar.Finish()

		recordAttempt(o, rel.Version, finalMessage)

		switch {
		case ok:
			if st, loadErr := state.Load(dataDir); loadErr == nil {
				st.MarkInstalled(rel.Version)
				if saveErr := st.Save(dataDir); saveErr != nil {
					logging.L().Warn("saving updater state", zap.Error(saveErr))
				}
			}
			colorstring.Printf("\n[green]%s[reset]\n", finalMessage)
			return nil
		case o.State() == updater.StateCancelled:
			colorstring.Printf("\n[yellow]%s[reset]\n", finalMessage)
			return nil
		default:
			return fmt.Errorf("update failed: %s", finalMessage)
		}
	},
}

func recordAttempt(o *updater.Orchestrator, toVersion, message string) {
	store, err := history.Open(resolveHistoryDB())
	if err != nil {
		logging.L().Warn("opening update log", zap.Error(err))
		return
	}
	defer store.Close()

	outcome := history.OutcomeFailed
	switch o.State() {
	case updater.StateInstalled:
		outcome = history.OutcomeInstalled
	case updater.StateCancelled:
		outcome = history.OutcomeCancelled
	}
	downloaded, _ := o.Progress()

	if err := store.Record(context.Background(), history.Attempt{
		FromVersion: o.CurrentVersion(),
		ToVersion:   toVersion,
		Outcome:     outcome,
		Message:     message,
		Bytes:       downloaded,
	}); err != nil {
		logging.L().Warn("recording update attempt", zap.Error(err))
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func init() {
	updateCmd.Flags().StringVar(&targetPath, "target", "", "Path the firmware image is installed to (default: <data-dir>/firmware.bin)")
	updateCmd.Flags().StringVar(&restartCmd, "restart-cmd", "", "Command run after a successful install, e.g. 'systemctl restart trimix-analysator'")
	updateCmd.Flags().StringVar(&historyDB, "history-db", "", "Path to the update log database (default: <data-dir>/updates.db)")
	updateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Install without asking for confirmation")
	rootCmd.AddCommand(updateCmd)
}
