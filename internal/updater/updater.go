package updater

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/magnus188/trimix-analysator/internal/github"
	"github.com/magnus188/trimix-analysator/internal/installer"
	"github.com/magnus188/trimix-analysator/internal/uerr"
	"github.com/magnus188/trimix-analysator/internal/version"
)

// State names the orchestrator's position in the update lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateChecking        State = "checking"
	StateUpToDate        State = "up-to-date"
	StateUpdateAvailable State = "update-available"
	StateDownloading     State = "downloading"
	StateInstalled       State = "installed"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

// DefaultRestartDelay gives the UI time to show the completion message
// before the device restarts.
const DefaultRestartDelay = 2 * time.Second

// ReleaseSource resolves the newest eligible release.
type ReleaseSource interface {
	LatestRelease(ctx context.Context) (*github.ReleaseInfo, error)
}

// FirmwareInstaller streams a release asset into an update target.
type FirmwareInstaller interface {
	Install(ctx context.Context, url string, total int64, target installer.Target, onProgress func(installer.Progress), cancelled func() bool) error
}

// Restarter restarts the running application after a successful install.
type Restarter interface {
	Restart() error
}

// Orchestrator drives the update lifecycle: check, compare, download,
// finalize. It owns the update target exclusively for the duration of a
// download; the in-progress guard enforces at most one attempt at a
// time. All callbacks fire synchronously on the calling goroutine.
type Orchestrator struct {
	current      version.Version
	currentRaw   string
	source       ReleaseSource
	installer    FirmwareInstaller
	target       installer.Target
	restarter    Restarter
	restartDelay time.Duration
	logger       *zap.Logger

	onProgress func(percent int)
	onStatus   func(message string)
	onComplete func(success bool, message string)

	state       State
	latest      string
	lastChecked time.Time
	inProgress  atomic.Bool
	cancelFlag  atomic.Bool
	total       int64
	downloaded  int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRestarter sets the restart hook invoked after a successful install.
func WithRestarter(r Restarter) Option {
	return func(o *Orchestrator) { o.restarter = r }
}

// WithRestartDelay overrides the pause between completion and restart.
func WithRestartDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.restartDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New builds an Orchestrator for the given running version. The version
// must parse; a device reporting garbage for its own version cannot
// make update decisions.
func New(currentVersion string, source ReleaseSource, inst FirmwareInstaller, target installer.Target, opts ...Option) (*Orchestrator, error) {
	cur, err := version.Parse(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}

	o := &Orchestrator{
		current:      cur,
		currentRaw:   currentVersion,
		source:       source,
		installer:    inst,
		target:       target,
		restartDelay: DefaultRestartDelay,
		logger:       zap.NewNop(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// SetProgressFunc registers the progress handler (integer percent,
// 0..100). Re-registration overwrites.
func (o *Orchestrator) SetProgressFunc(f func(percent int)) { o.onProgress = f }

// SetStatusFunc registers the human-readable status handler.
func (o *Orchestrator) SetStatusFunc(f func(message string)) { o.onStatus = f }

// SetCompleteFunc registers the completion handler. It fires exactly
// once per download attempt.
func (o *Orchestrator) SetCompleteFunc(f func(success bool, message string)) { o.onComplete = f }

// CheckForUpdates queries the release source and compares the newest
// eligible release against the running version. Failures are reported
// through the status handler and the returned error; the orchestrator
// returns to idle so the caller may retry.
func (o *Orchestrator) CheckForUpdates(ctx context.Context) (*github.ReleaseInfo, error) {
	o.state = StateChecking
	o.status("Checking for updates...")

	rel, err := o.source.LatestRelease(ctx)
	if err != nil {
		o.state = StateIdle
		o.status("Failed to check for updates")
		o.logger.Warn("update check failed", zap.String("kind", string(uerr.Of(err))), zap.Error(err))
		return nil, err
	}
	o.lastChecked = time.Now()

	cmp, err := version.CompareStrings(rel.Version, o.currentRaw)
	if err != nil {
		o.state = StateIdle
		o.status("Failed to check for updates")
		o.logger.Warn("unparsable release version", zap.String("version", rel.Version), zap.Error(err))
		return nil, err
	}

	o.latest = rel.Version
	if cmp > 0 {
		o.state = StateUpdateAvailable
		o.status("Update available: " + rel.Version)
	} else {
		o.state = StateUpToDate
		o.status("Already up to date")
	}
	o.logger.Info("update check completed",
		zap.String("current", o.currentRaw),
		zap.String("latest", rel.Version),
		zap.Bool("available", cmp > 0))
	return rel, nil
}

// IsUpdateAvailable reports whether the release is strictly newer than
// the running version. A release version that fails to parse is never
// offered.
func (o *Orchestrator) IsUpdateAvailable(rel *github.ReleaseInfo) bool {
	if rel == nil {
		return false
	}
	v, err := version.Parse(rel.Version)
	if err != nil {
		o.logger.Warn("unparsable release version", zap.String("version", rel.Version), zap.Error(err))
		return false
	}
	return version.Compare(v, o.current) > 0
}

// DownloadAndInstall streams the release asset into the update target.
// It is rejected when an update is already in progress. The completion
// handler fires exactly once with the outcome; on success the restarter
// runs after a short delay so the completion message can be observed.
func (o *Orchestrator) DownloadAndInstall(ctx context.Context, rel *github.ReleaseInfo) bool {
	if rel == nil {
		o.status("No release to install")
		return false
	}
	if !o.inProgress.CompareAndSwap(false, true) {
		o.status("Update already in progress")
		return false
	}

	o.cancelFlag.Store(false)
	o.total = rel.Size
	o.downloaded = 0
	o.state = StateDownloading
	o.status("Starting download...")
	o.logger.Info("starting update",
		zap.String("version", rel.Version),
		zap.String("url", rel.DownloadURL),
		zap.Int64("size", rel.Size))

	err := o.installer.Install(ctx, rel.DownloadURL, rel.Size, o.target, o.relayProgress, o.cancelFlag.Load)
	if err != nil {
		o.finishFailure(err)
		return false
	}

	o.state = StateInstalled
	o.status("Update completed successfully")
	o.complete(true, "Update installed. Restarting...")
	o.inProgress.Store(false)

	if o.restarter != nil {
		time.Sleep(o.restartDelay)
		if err := o.restarter.Restart(); err != nil {
			o.logger.Error("restart failed", zap.Error(err))
		}
	}
	return true
}

// CancelUpdate requests a cooperative abort of the running download. It
// is a no-op outside the downloading state. The installer consults the
// flag at each chunk boundary, so cancellation latency is bounded by
// one chunk's read/write time.
func (o *Orchestrator) CancelUpdate() {
	if !o.inProgress.Load() {
		return
	}
	o.cancelFlag.Store(true)
}

// CurrentVersion returns the running version string.
func (o *Orchestrator) CurrentVersion() string { return o.currentRaw }

// LatestKnownVersion returns the version seen by the most recent
// successful check, or "" before any check.
func (o *Orchestrator) LatestKnownVersion() string { return o.latest }

// LastChecked returns the time of the last successful check.
func (o *Orchestrator) LastChecked() time.Time { return o.lastChecked }

// IsUpdateInProgress reports whether a download attempt is running.
func (o *Orchestrator) IsUpdateInProgress() bool { return o.inProgress.Load() }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Progress returns the byte counters of the current or most recent
// download attempt.
func (o *Orchestrator) Progress() (downloaded, total int64) {
	return o.downloaded, o.total
}

func (o *Orchestrator) relayProgress(p installer.Progress) {
	o.downloaded = p.Downloaded
	o.total = p.Total
	if o.onProgress != nil {
		o.onProgress(p.Percent())
	}
}

func (o *Orchestrator) finishFailure(err error) {
	kind := uerr.Of(err)
	o.logger.Warn("update failed", zap.String("kind", string(kind)), zap.Error(err))

	if kind == uerr.Cancelled {
		o.state = StateCancelled
		o.status("Update cancelled")
		o.complete(false, "Update cancelled by user")
	} else {
		o.state = StateFailed
		o.status("Download failed")
		o.complete(false, failureMessage(kind))
	}
	o.inProgress.Store(false)
}

func failureMessage(kind uerr.Kind) string {
	switch kind {
	case uerr.WriteError:
		return "Write to update target failed"
	case uerr.IncompleteDownload:
		return "Download incomplete"
	case uerr.FinalizeError:
		return "Update finalization failed"
	case uerr.Timeout:
		return "Download stalled"
	default:
		return "Download failed"
	}
}

func (o *Orchestrator) status(message string) {
	o.logger.Debug("status", zap.String("message", message))
	if o.onStatus != nil {
		o.onStatus(message)
	}
}

func (o *Orchestrator) complete(success bool, message string) {
	if o.onComplete != nil {
		o.onComplete(success, message)
	}
}
