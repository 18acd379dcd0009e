// Package stats keeps a displayed snapshot of the GitHub statistics fresh.
//
// A Poller fetches once when started and then on every tick of a fixed
// interval. A successful fetch replaces the snapshot in a single
// assignment; a failed one leaves it untouched and is only recorded for
// diagnostics. There is no backoff: the next tick is the retry.
//
// OVERLAP POLICY:
// At most one fetch is in flight. A tick that fires while the previous
// fetch is still outstanding is skipped (Refresh returns
// ErrRefreshInFlight). Each fetch is bounded by a timeout equal to the
// interval, so a hung request cannot block ticks forever.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/model"
)

// DefaultInterval is how often the snapshot is refreshed.
const DefaultInterval = 10 * time.Second

// ErrRefreshInFlight is returned by Refresh when a previous fetch has not
// finished yet.
var ErrRefreshInFlight = errors.New("stats: refresh already in flight")

// Fetcher retrieves a fresh statistics payload for username.
// *github.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, username string) (model.GithubStats, error)
}

// Recorder observes poll outcomes. *metrics.Collector implements it.
type Recorder interface {
	PollSucceeded()
	PollFailed(kind string)
	PollSkipped()
}

type nopRecorder struct{}

func (nopRecorder) PollSucceeded()    {}
func (nopRecorder) PollFailed(string) {}
func (nopRecorder) PollSkipped()      {}

// Config configures a Poller.
type Config struct {
	Username string
	Interval time.Duration
	// Clock defaults to time.Now. It stamps FetchedAt and the status times
	// and seeds the initial JoinedYear.
	Clock func() time.Time
	// Recorder defaults to a no-op.
	Recorder Recorder
}

// Poller owns the snapshot and the goroutine that refreshes it.
type Poller struct {
	fetcher  Fetcher
	username string
	interval time.Duration
	clock    func() time.Time
	recorder Recorder
	logger   *slog.Logger

	mu          sync.RWMutex
	snapshot    model.Snapshot
	lastError   string
	lastAttempt time.Time
	lastSuccess time.Time
	listeners   []func(model.Snapshot)

	inFlight atomic.Bool

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPoller creates a Poller. Nothing is fetched until Start or Refresh.
//
// The initial snapshot is zero counts with the current year as the join
// year, so a view that renders before the first fetch shows sane numbers.
func NewPoller(fetcher Fetcher, cfg Config, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	return &Poller{
		fetcher:  fetcher,
		username: cfg.Username,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		recorder: cfg.Recorder,
		logger:   logger,
		snapshot: model.Snapshot{
			GithubStats: model.GithubStats{JoinedYear: cfg.Clock().Year()},
		},
		done: make(chan struct{}),
	}
}

// OnUpdate registers fn to be called with every new snapshot, after it has
// been stored. Callbacks run on the polling goroutine and must not block.
func (p *Poller) OnUpdate(fn func(model.Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Start fetches immediately and then once per interval until ctx is
// cancelled or Stop is called. Calling Start more than once has no effect.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.logger.Info("starting stats poller",
			slog.String("username", p.username),
			slog.Duration("interval", p.interval),
		)
		p.wg.Add(1)
		go p.run(ctx)
	})
}

// Stop halts polling and waits for the loop to exit. A fetch in progress is
// cancelled. Safe to call more than once, and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.logger.Info("stats poller stopped")
	})
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	// Cancel any outstanding fetch as soon as Stop is called.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one refresh in its own goroutine so a slow fetch never delays
// the ticker. The in-flight guard inside Refresh does the skipping.
func (p *Poller) tick(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.Refresh(ctx); errors.Is(err, ErrRefreshInFlight) {
			p.logger.Debug("stats refresh skipped, previous fetch still running")
		}
	}()
}

// Refresh performs one guarded fetch. On success the snapshot is replaced
// wholesale and listeners are notified. On failure the snapshot is kept and
// the error is recorded and returned.
func (p *Poller) Refresh(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.recorder.PollSkipped()
		return ErrRefreshInFlight
	}
	defer p.inFlight.Store(false)

	now := p.clock()
	p.mu.Lock()
	p.lastAttempt = now
	p.mu.Unlock()

	if p.username == "" {
		return p.fail(apperror.ConfigMissing("GITHUB_USERNAME"))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	stats, err := p.fetcher.Fetch(fetchCtx, p.username)
	if err != nil {
		return p.fail(err)
	}

	snap := model.Snapshot{GithubStats: stats, FetchedAt: p.clock()}

	p.mu.Lock()
	p.snapshot = snap
	p.lastSuccess = snap.FetchedAt
	p.lastError = ""
	listeners := append([]func(model.Snapshot){}, p.listeners...)
	p.mu.Unlock()

	p.recorder.PollSucceeded()

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

func (p *Poller) fail(err error) error {
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()

	p.recorder.PollFailed(apperror.KindOf(err))
	p.logger.Error("error fetching github stats",
		slog.String("username", p.username),
		slog.String("kind", apperror.KindOf(err)),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("stats: refresh: %w", err)
}

// Snapshot returns the most recent successfully fetched statistics.
func (p *Poller) Snapshot() model.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Status returns the snapshot together with diagnostic state.
func (p *Poller) Status() model.PollStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return model.PollStatus{
		Snapshot:    p.snapshot,
		Refreshing:  p.inFlight.Load(),
		LastError:   p.lastError,
		LastAttempt: p.lastAttempt,
		LastSuccess: p.lastSuccess,
	}
}
