package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/magnus188/trimix-analysator/internal/uerr"
)

const (
	// DefaultChunkSize bounds each read so the image never sits in
	// memory as a whole.
	DefaultChunkSize = 1024

	// DefaultReadTimeout fails the download when the peer stops
	// sending. Matches the 30s transport timeout used on the device.
	DefaultReadTimeout = 30 * time.Second

	userAgent = "trimix-analysator-updater"
)

// Target receives a firmware image incrementally. Begin sizes the
// destination, End finalizes it, Abort rolls back leaving the running
// image untouched. Only one of End or Abort is called per attempt.
type Target interface {
	Begin(expected int64) error
	Write(p []byte) (int, error)
	End() error
	Abort()
}

// Progress reports bytes moved so far out of the expected total.
type Progress struct {
	Downloaded int64
	Total      int64
}

// Percent is the integer floor of the completed fraction. It reaches
// 100 only when Downloaded == Total; Total is validated non-zero
// before any Progress is emitted.
func (p Progress) Percent() int {
	return int(p.Downloaded * 100 / p.Total)
}

// Installer streams release assets into an update target.
type Installer struct {
	http        *http.Client
	chunkSize   int
	readTimeout time.Duration
	yield       func()
	logger      *zap.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient overrides the HTTP client used for the download.
func WithHTTPClient(hc *http.Client) Option {
	return func(i *Installer) { i.http = hc }
}

// WithChunkSize overrides the per-read chunk size.
func WithChunkSize(n int) Option {
	return func(i *Installer) {
		if n > 0 {
			i.chunkSize = n
		}
	}
}

// WithReadTimeout overrides the idle timeout applied between reads.
func WithReadTimeout(d time.Duration) Option {
	return func(i *Installer) {
		if d > 0 {
			i.readTimeout = d
		}
	}
}

// WithYield sets the cooperative checkpoint invoked on every loop
// iteration. The host's liveness signal hangs off this hook; tests
// replace it with a counter or a no-op.
func WithYield(f func()) Option {
	return func(i *Installer) { i.yield = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New builds an Installer.
func New(opts ...Option) *Installer {
	inst := &Installer{
		http:        http.DefaultClient,
		chunkSize:   DefaultChunkSize,
		readTimeout: DefaultReadTimeout,
		yield:       func() { time.Sleep(time.Millisecond) },
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Install streams the asset at url into target, reporting each chunk
// through onProgress. cancelled is consulted at every iteration
// boundary; when it returns true the target is aborted and a cancelled
// error is returned. On any failure after Begin the target is aborted,
// so a partially written image never becomes active.
func (i *Installer) Install(ctx context.Context, url string, total int64, target Target, onProgress func(Progress), cancelled func() bool) error {
	const op = "installer.Install"

	if total <= 0 {
		return uerr.New(uerr.AssetNotFound, op, "expected size must be positive")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return uerr.Wrap(uerr.TransportError, op, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.http.Do(req)
	if err != nil {
		return uerr.Wrap(uerr.TransportError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uerr.New(uerr.TransportError, op, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	if err := target.Begin(total); err != nil {
		return uerr.Wrap(uerr.WriteError, op, err)
	}

	i.logger.Debug("download start", zap.String("url", url), zap.Int64("total", total))

	downloaded, err := i.copyChunks(resp.Body, total, target, onProgress, cancelled, cancel)
	if err != nil {
		target.Abort()
		return err
	}
	if downloaded != total {
		target.Abort()
		return uerr.New(uerr.IncompleteDownload, op,
			fmt.Sprintf("received %d of %d bytes", downloaded, total))
	}

	if err := target.End(); err != nil {
		return uerr.Wrap(uerr.FinalizeError, op, err)
	}

	i.logger.Debug("download complete", zap.Int64("bytes", downloaded))
	return nil
}

// copyChunks moves bytes until the stream ends or total is reached.
// Reads are clamped to the remaining byte count so the downloaded
// counter can never exceed total.
func (i *Installer) copyChunks(body io.Reader, total int64, target Target, onProgress func(Progress), cancelled func() bool, abortRead func()) (int64, error) {
	const op = "installer.Install"

	var stalled atomic.Bool
	watchdog := time.AfterFunc(i.readTimeout, func() {
		stalled.Store(true)
		abortRead()
	})
	defer watchdog.Stop()

	buf := make([]byte, i.chunkSize)
	var downloaded int64

	for downloaded < total {
		if cancelled != nil && cancelled() {
			return downloaded, uerr.New(uerr.Cancelled, op, "update cancelled")
		}

		chunk := buf
		if remaining := total - downloaded; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, readErr := body.Read(chunk)
		if n > 0 {
			watchdog.Reset(i.readTimeout)

			written, writeErr := target.Write(chunk[:n])
			if writeErr != nil {
				return downloaded, uerr.Wrap(uerr.WriteError, op, writeErr)
			}
			if written != n {
				return downloaded, uerr.New(uerr.WriteError, op,
					fmt.Sprintf("short write: %d of %d bytes", written, n))
			}

			downloaded += int64(n)
			if onProgress != nil {
				onProgress(Progress{Downloaded: downloaded, Total: total})
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if stalled.Load() {
				return downloaded, uerr.New(uerr.Timeout, op,
					fmt.Sprintf("no data received for %s", i.readTimeout))
			}
			return downloaded, uerr.Wrap(uerr.TransportError, op, readErr)
		}

		i.yield()
	}

	return downloaded, nil
}
