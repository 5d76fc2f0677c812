package dispatch

import (
	"sync"

	"github.com/ivylane/studio-live/internal/event"
)

// Listener consumes dispatched messages.
type Listener func(event.Message)

// Registry maps event kinds (plus the wildcard) to ordered listener lists.
// It is independent of any connection instance and survives reconnect
// cycles. Registration order is invocation order; no deduplication is
// performed.
type Registry struct {
	mu     sync.Mutex
	byKind map[event.Kind][]*Subscription
}

// Subscription is the disposable handle returned by On. Cancelling it
// removes exactly that registration; consumers hold it for teardown instead
// of re-supplying the (kind, callback) pair.
type Subscription struct {
	kind event.Kind
	fn   Listener
	reg  *Registry
	once sync.Once
}

// Cancel removes the registration. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.reg.remove(s)
	})
}

// NewRegistry creates an empty listener registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[event.Kind][]*Subscription),
	}
}

// On registers fn for the given kind (event.KindAny for the wildcard) and
// returns its subscription token.
func (r *Registry) On(kind event.Kind, fn Listener) *Subscription {
	sub := &Subscription{kind: kind, fn: fn, reg: r}

	r.mu.Lock()
	r.byKind[kind] = append(r.byKind[kind], sub)
	r.mu.Unlock()

	return sub
}

// Len returns the number of registrations for a kind.
func (r *Registry) Len(kind event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKind[kind])
}

// Clear removes every registration. Host teardown only; Disconnect never
// calls this.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind = make(map[event.Kind][]*Subscription)
}

// listenersFor snapshots the invocation list for a message kind: specific
// registrations first, wildcard after, each group in registration order.
func (r *Registry) listenersFor(kind event.Kind) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	specific := r.byKind[kind]
	wildcard := r.byKind[event.KindAny]

	out := make([]Listener, 0, len(specific)+len(wildcard))
	for _, s := range specific {
		out = append(out, s.fn)
	}
	for _, s := range wildcard {
		out = append(out, s.fn)
	}
	return out
}

// remove deletes the first matching registration for sub.
func (r *Registry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.byKind[sub.kind]
	for i, s := range subs {
		if s == sub {
			r.byKind[sub.kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
