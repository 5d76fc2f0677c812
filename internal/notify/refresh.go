package notify

import "sync/atomic"

// RefreshSignal is the coarse-grained, process-wide refetch signal. Views
// poll Seq and refetch from the REST API whenever it has advanced; there is
// no per-entity granularity.
type RefreshSignal struct {
	seq atomic.Int64
}

// Bump advances the signal by one.
func (r *RefreshSignal) Bump() {
	r.seq.Add(1)
}

// Seq returns the current sequence number.
func (r *RefreshSignal) Seq() int64 {
	return r.seq.Load()
}
