// Package allocator hands out notification identifiers, mirroring the
// freedesktop spec's requirement that ids be non-zero, unique among active
// notifications, and reused only after being retired.
package allocator

import "sync/atomic"

// Allocator issues uint32 notification ids starting at 1 and wrapping
// around (skipping 0, which the spec reserves as "no notification").
// It never blocks and never allocates memory per call.
type Allocator struct {
	next atomic.Uint32
}

// New returns an Allocator ready to issue ids starting at 1.
func New() *Allocator {
	return &Allocator{}
}

// Next returns the next id in sequence, skipping 0 on wraparound.
//
// On wraparound this only guards against reissuing 0; it does not check
// whether the wrapped-to value is still held by a live notification, since
// the allocator has no visibility into the registry. At uint32 scale this
// requires billions of notifications without a restart to matter in
// practice, per spec.md §4.1.
func (a *Allocator) Next() uint32 {
	id := a.next.Add(1)
	if id == 0 {
		id = a.next.Add(1)
	}
	return id
}
