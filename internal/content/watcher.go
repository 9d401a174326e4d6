package content

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-labs/folio-web/internal/cryptoutil"
	"github.com/folio-labs/folio-web/internal/log"
)

const (
	DefaultPollInterval = 30 * time.Second

	maxBackoff            = 5 * time.Minute
	defaultStaleThreshold = 30 * time.Minute
)

type pollResult int

const (
	pollNoChange pollResult = iota
	pollSwapped
	pollFetchError
	pollLoadError
	pollValidationError
)

// BundleFetcher is what the Watcher needs from a Loader.
type BundleFetcher interface {
	FetchCurrentBundleHash(ctx context.Context) (string, error)
	LoadHash(ctx context.Context, hash string) (*Snapshot, error)
}

// WatcherMetrics is implemented by the metrics package.
type WatcherMetrics interface {
	IncWatcherPolls()
	IncWatcherSwaps()
	IncWatcherError(kind string)
	ObserveBundleLoadDuration(seconds float64)
	SetWatcherLastSuccess(unixSeconds float64)
	SetWatcherStale(stale bool)
}

type WatcherOptions struct {
	Logger       log.Logger
	Loader       BundleFetcher
	Manager      *Manager
	PollInterval time.Duration

	// Validation defaults to DefaultValidationOptions().
	Validation *ValidationOptions

	// OnSwap runs on the poll goroutine after each successful swap.
	OnSwap func(snap *Snapshot)

	Metrics WatcherMetrics

	// StaleThreshold is how long SSM may be unreachable before the watcher
	// reports its content as stale.
	StaleThreshold time.Duration
}

// Watcher polls SSM and swaps in new bundles once they build and validate.
// A bundle that fails is skipped; the current snapshot keeps serving.
type Watcher struct {
	loader     BundleFetcher
	manager    *Manager
	logger     log.Logger
	interval   time.Duration
	validation ValidationOptions
	onSwap     func(*Snapshot)
	metrics    WatcherMetrics

	currentHash string
	// hash that last failed to load or validate; not retried until SSM moves
	rejectedHash string

	consecutiveErrs int

	staleThreshold time.Duration
	lastSuccessAt  time.Time
	stale          bool

	polls int64
	swaps int64
}

func NewWatcher(opts *WatcherOptions) *Watcher {
	w := &Watcher{
		loader:         opts.Loader,
		manager:        opts.Manager,
		logger:         opts.Logger,
		interval:       opts.PollInterval,
		validation:     DefaultValidationOptions(),
		onSwap:         opts.OnSwap,
		metrics:        opts.Metrics,
		staleThreshold: opts.StaleThreshold,
		lastSuccessAt:  time.Now(),
	}
	if w.logger == nil {
		w.logger = log.Nop()
	}
	if w.interval <= 0 {
		w.interval = DefaultPollInterval
	}
	if w.staleThreshold <= 0 {
		w.staleThreshold = defaultStaleThreshold
	}
	if opts.Validation != nil {
		w.validation = *opts.Validation
	}
	// don't re-download what startup already loaded
	if snap, ok := opts.Manager.Get(); ok {
		w.currentHash = snap.Meta.Hash
	}
	return w
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "content watcher starting",
		"poll_interval", w.interval.String(),
		"current_hash", truncHash(w.currentHash),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "content watcher stopping", "polls", w.polls, "swaps", w.swaps)
			return ctx.Err()
		case <-ticker.C:
			result := w.checkOnce(ctx)
			if next, changed := w.nextInterval(result); changed {
				ticker.Reset(next)
			}
			w.trackStaleness(ctx, result)
		}
	}
}

// nextInterval applies exponential backoff while SSM keeps failing.
func (w *Watcher) nextInterval(result pollResult) (time.Duration, bool) {
	if result == pollFetchError {
		w.consecutiveErrs++
		return w.backoffDuration(), true
	}
	if w.consecutiveErrs > 0 {
		w.consecutiveErrs = 0
		return w.interval, true
	}
	return 0, false
}

func (w *Watcher) trackStaleness(ctx context.Context, result pollResult) {
	switch {
	case result != pollFetchError && w.stale:
		w.stale = false
		w.logger.Info(ctx, "content watcher: freshness restored")
		if w.metrics != nil {
			w.metrics.SetWatcherStale(false)
		}
	case result == pollFetchError && !w.stale && time.Since(w.lastSuccessAt) > w.staleThreshold:
		w.stale = true
		w.logger.Error(ctx, fmt.Errorf("last successful SSM poll %s ago", time.Since(w.lastSuccessAt).Truncate(time.Second)),
			"content watcher: content may be stale")
		if w.metrics != nil {
			w.metrics.SetWatcherStale(true)
		}
	}
}

func (w *Watcher) checkOnce(ctx context.Context) pollResult {
	w.polls++
	if w.metrics != nil {
		w.metrics.IncWatcherPolls()
	}

	hash, err := w.loader.FetchCurrentBundleHash(ctx)
	if err != nil {
		w.logger.Error(ctx, err, "content watcher: SSM poll failed")
		w.countError("ssm")
		return pollFetchError
	}
	w.lastSuccessAt = time.Now()
	if w.metrics != nil {
		w.metrics.SetWatcherLastSuccess(float64(w.lastSuccessAt.Unix()))
	}

	if cryptoutil.HashEqual(hash, w.currentHash) || cryptoutil.HashEqual(hash, w.rejectedHash) {
		return pollNoChange
	}

	w.logger.Info(ctx, "content watcher: new bundle published",
		"old_hash", truncHash(w.currentHash),
		"new_hash", truncHash(hash),
	)

	start := time.Now()
	snap, err := w.loader.LoadHash(ctx, hash)
	if w.metrics != nil {
		w.metrics.ObserveBundleLoadDuration(time.Since(start).Seconds())
	}
	if err != nil {
		w.logger.Error(ctx, err, "content watcher: bundle failed to load, keeping current content",
			"hash", truncHash(hash))
		w.countError("load")
		w.rejectedHash = hash
		return pollLoadError
	}

	if err := ValidateSnapshot(snap, w.validation); err != nil {
		w.logger.Error(ctx, err, "content watcher: bundle failed validation, keeping current content",
			"rejected_hash", truncHash(hash),
			"current_hash", truncHash(w.currentHash),
		)
		w.countError("validation")
		w.rejectedHash = hash
		return pollValidationError
	}

	w.manager.Set(*snap)
	w.swaps++
	w.logger.Info(ctx, "content watcher: bundle swapped",
		"old_hash", truncHash(w.currentHash),
		"new_hash", truncHash(hash),
		"version", snap.Meta.Version,
		"projects", snap.Site.Projects.Len(),
	)
	w.currentHash = hash
	w.rejectedHash = ""
	if w.metrics != nil {
		w.metrics.IncWatcherSwaps()
	}
	w.notify(ctx, snap)
	return pollSwapped
}

func (w *Watcher) notify(ctx context.Context, snap *Snapshot) {
	if w.onSwap == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, fmt.Errorf("OnSwap panic: %v", r), "content watcher: OnSwap callback panicked")
		}
	}()
	w.onSwap(snap)
}

func (w *Watcher) countError(kind string) {
	if w.metrics != nil {
		w.metrics.IncWatcherError(kind)
	}
}

// backoffDuration doubles the interval per consecutive error, capped.
func (w *Watcher) backoffDuration() time.Duration {
	d := w.interval
	for i := 0; i < w.consecutiveErrs && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func truncHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
