package fallback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ivylane/studio-live/internal/notify"
)

// Prober checks that the REST side is reachable before a refresh bump.
// *api.Client satisfies it via Ping.
type Prober interface {
	Ping(ctx context.Context) error
}

// Config holds poller configuration.
type Config struct {
	Interval     time.Duration // Refresh interval (default: 30s)
	ProbeTimeout time.Duration // Per-probe timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		ProbeTimeout: 10 * time.Second,
	}
}

// Poller drives periodic refreshes while the realtime channel is down.
// A nil prober skips the reachability check and bumps unconditionally.
type Poller struct {
	cfg     Config
	refresh *notify.RefreshSignal
	prober  Prober
	logger  *slog.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new degraded-mode Poller.
func New(cfg Config, refresh *notify.RefreshSignal, prober Prober, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		refresh: refresh,
		prober:  prober,
		logger:  logger,
	}
}

// Activate starts the polling loop. Calling it while a loop is already
// running is a no-op, so hosts may call it from every failure signal
// without bookkeeping.
func (p *Poller) Activate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return
	}
	p.active = true

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(loopCtx)

	p.logger.Info("degraded mode active", "interval", p.cfg.Interval)
}

// Active reports whether the polling loop is running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Stop shuts the loop down and waits for it to exit. Safe to call when
// the poller was never activated.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return nil
	}
	p.active = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("degraded mode stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Refresh immediately on activation so views catch up on whatever
	// was missed while the channel was down.
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

// tick performs one probe-and-bump cycle.
func (p *Poller) tick(ctx context.Context) {
	if p.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		err := p.prober.Ping(probeCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("refresh probe failed", "err", err)
			return
		}
	}

	p.refresh.Bump()
	p.logger.Debug("periodic refresh", "seq", p.refresh.Seq())
}
