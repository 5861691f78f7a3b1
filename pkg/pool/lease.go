package pool

import (
	"sync/atomic"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
	"github.com/ajitpratap0/stockpile/pkg/expire"
)

// Lease is exclusive use of one pooled object between a successful
// Claim and the matching Release. A lease must be released exactly
// once; releasing twice is a structural failure, and never releasing
// prevents the pool's shutdown from completing.
type Lease[T any] struct {
	obj  T
	slot *slot[T]
	pool *Pool[T]

	released atomic.Bool
	expired  bool
}

// Object returns the claimed object. The object must not be used after
// the lease is released: the pool may hand it to another claimer or
// destroy it at any point from then on.
func (l *Lease[T]) Object() T { return l.obj }

// Info exposes the slot's metadata: age, claim count, and the
// expiration policy's scratch stamp. Valid only while the lease is held.
func (l *Lease[T]) Info() expire.SlotInfo { return l.slot }

// Expire marks the object as end-of-life. The mark takes effect at
// Release, which then retires the object to the allocator for
// reallocation instead of returning it to circulation.
func (l *Lease[T]) Expire() { l.expired = true }

// Release returns the object to the pool. Mutations made to the object
// before Release are visible to the next claimer of the same slot.
func (l *Lease[T]) Release() error {
	if !l.released.CompareAndSwap(false, true) {
		return errs.New(errs.KindStructural, "double release of pool lease")
	}
	if l.expired {
		l.pool.expirations.Increment()
		l.pool.met.RecordExpiration()
		l.pool.kill(l.slot)
		return nil
	}
	if l.pool.shutdownFlag.Load() {
		l.pool.kill(l.slot)
		return nil
	}
	return l.pool.release(l.slot)
}
