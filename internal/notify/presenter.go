package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivylane/studio-live/internal/dispatch"
	"github.com/ivylane/studio-live/internal/event"
)

// Notification is one ephemeral user-visible notice.
type Notification struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives display callbacks. Implementations render toasts or, for
// the console client, print lines.
type Sink interface {
	Show(Notification)
	Expire(id string)
}

// Config tunes the presenter.
type Config struct {
	HistoryLimit    int           // Max notices retained (oldest evicted first)
	DisplayDuration time.Duration // Self-expiry for each notice
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:    10,
		DisplayDuration: 6 * time.Second,
	}
}

// Presenter turns dispatched messages into notices and refresh bumps.
type Presenter struct {
	cfg     Config
	refresh *RefreshSignal
	sink    Sink
	logger  *slog.Logger

	mu      sync.Mutex
	history []Notification
	timers  map[string]*time.Timer
	sub     *dispatch.Subscription
	closed  bool
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithSink attaches a display sink.
func WithSink(s Sink) Option {
	return func(p *Presenter) { p.sink = s }
}

// NewPresenter creates a presenter bumping refresh on triggering kinds.
func NewPresenter(cfg Config, refresh *RefreshSignal, logger *slog.Logger, opts ...Option) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{
		cfg:     cfg,
		refresh: refresh,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach registers the presenter on the wildcard channel.
func (p *Presenter) Attach(reg *dispatch.Registry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		return
	}
	p.sub = reg.On(event.KindAny, p.Handle)
}

// Handle processes one dispatched message. It is invoked by the dispatcher
// goroutine, in dispatch order.
func (p *Presenter) Handle(m event.Message) {
	n := Notification{
		ID:        uuid.NewString(),
		Text:      RenderText(m),
		Category:  m.Kind.Category(),
		CreatedAt: time.Now(),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	p.history = append(p.history, n)
	if len(p.history) > p.cfg.HistoryLimit {
		evicted := p.history[0]
		p.history = p.history[1:]
		p.dropTimerLocked(evicted.ID)
	}

	p.timers[n.ID] = time.AfterFunc(p.cfg.DisplayDuration, func() {
		p.expire(n.ID)
	})
	p.mu.Unlock()

	if p.sink != nil {
		p.sink.Show(n)
	}

	if m.Kind.TriggersRefresh() {
		p.refresh.Bump()
	}

	p.logger.Debug("notice",
		"kind", m.Kind,
		"text", n.Text,
		"refresh_seq", p.refresh.Seq(),
	)
}

// Notices returns a snapshot of the live history, oldest first.
func (p *Presenter) Notices() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notification, len(p.history))
	copy(out, p.history)
	return out
}

// Close cancels the wildcard subscription and all expiry timers.
func (p *Presenter) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	sub := p.sub
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.history = nil
	p.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// expire removes a notice after its display duration.
func (p *Presenter) expire(id string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	found := false
	for i, n := range p.history {
		if n.ID == id {
			p.history = append(p.history[:i:i], p.history[i+1:]...)
			found = true
			break
		}
	}
	p.dropTimerLocked(id)
	p.mu.Unlock()

	if found && p.sink != nil {
		p.sink.Expire(id)
	}
}

func (p *Presenter) dropTimerLocked(id string) {
	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
}
