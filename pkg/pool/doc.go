// Package pool provides a bounded, thread-safe object pool for
// expensive-to-construct resources such as database connections,
// sockets, and large buffers.
//
// Client goroutines claim an object, use it, and release it; the pool
// caps concurrent in-use objects at a configured target size and
// amortises construction across claims. A single background allocator
// goroutine performs every allocation, deallocation, and reallocation
// off the claim path, so Claim never pays construction cost directly.
//
// The package provides:
//   - Generic, type-safe pooling with Pool[T] and Lease[T]
//   - A per-slot lock-free state machine (claim, release, steal, kill)
//   - A thread-local-reuse fast path making uncontended reclaim cheap
//   - Pluggable expiration policies (see package expire)
//   - Dynamic resizing and an idempotent shutdown protocol
//   - Poison capture: factory failures surface on claim, then heal
//
// Example usage:
//
//	p, err := pool.New(pool.Config[*Conn]{
//	    Name: "billing-db",
//	    Size: 16,
//	    Factory: pool.FuncFactory[*Conn]{
//	        CreateFunc:  dial,
//	        DestroyFunc: hangup,
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	lease, err := p.Claim(ctx, time.Second)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//
//	use(lease.Object())
//
// # Concurrency model
//
// The slot state word is the synchronisation point: allocator publishes
// with a store, claimers move through the states with compare-and-swap,
// and releasers use a store for an ordinary claim and a compare-and-swap
// for a thread-local-reuse claim. An object's contents, its creation time, and its
// claim count are owned by whichever party holds the slot and are
// published to the next holder by the state transition. The pool makes
// one principal ordering promise to users: whatever a releaser wrote to
// the object before Release is visible to the next claimer of that
// slot.
//
// The pool is deliberately not fair: when several goroutines wait out a
// depleted pool, wakeup order is unspecified.
//
// # Failure model
//
// Claim reports timeouts, poisoned slots (with the captured factory
// cause), shutdown, and cancelled waits as distinct error kinds from
// the errors package. Factory failures never crash the allocator; they
// ride the slot as poison until a claimer surfaces them, and the slot
// is then retried in the background.
package pool
