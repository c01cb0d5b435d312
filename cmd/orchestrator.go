package cmd

import (
	"os"
	"path/filepath"

	"github.com/magnus188/trimix-analysator/internal/github"
	"github.com/magnus188/trimix-analysator/internal/installer"
	"github.com/magnus188/trimix-analysator/internal/logging"
	"github.com/magnus188/trimix-analysator/internal/state"
	"github.com/magnus188/trimix-analysator/internal/updater"
)

// buildOrchestrator wires the release client, installer and update
// target from the current flag/profile values.
func buildOrchestrator(restarter updater.Restarter) (*updater.Orchestrator, error) {
	client := github.NewClient(repo,
		github.WithToken(getGithubToken()),
		github.WithPrereleases(allowPrerelease),
		github.WithLogger(logging.L()))

	inst := installer.New(installer.WithLogger(logging.L()))
	target := installer.NewFileTarget(resolveTargetPath())

	opts := []updater.Option{updater.WithLogger(logging.L())}
	if restarter != nil {
		opts = append(opts, updater.WithRestarter(restarter))
	}
	return updater.New(resolveCurrentVersion(), client, inst, target, opts...)
}

// resolveCurrentVersion prefers the flag, then the last recorded
// install, then the version baked into the binary.
func resolveCurrentVersion() string {
	if currentVersion != "" {
		return currentVersion
	}
	if st, err := state.Load(dataDir); err == nil && st.InstalledVersion != "" {
		return st.InstalledVersion
	}
	return appVersion
}

func resolveTargetPath() string {
	if targetPath != "" {
		return targetPath
	}
	return filepath.Join(dataDir, "firmware.bin")
}

func resolveHistoryDB() string {
	if historyDB != "" {
		return historyDB
	}
	return filepath.Join(dataDir, "updates.db")
}

func ensureDataDir() error {
	return os.MkdirAll(dataDir, 0o755)
}
