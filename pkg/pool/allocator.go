package pool

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// allocatorTick bounds the allocator's sleep so resize and shutdown
	// stay responsive even when no kill ever wakes it.
	allocatorTick = 50 * time.Millisecond

	// drainTick paces the shutdown drain's sweeps while waiting for
	// holders to release.
	drainTick = 5 * time.Millisecond
)

// allocLoop is the pool's single background worker. Every factory call
// in the pool's lifetime happens on this goroutine: it grows the pool
// toward the target size, recycles killed slots, retires surplus ones,
// and drains everything on shutdown. Keeping allocation serialised here
// is what makes the size accounting plain integers.
func (p *Pool[T]) allocLoop() {
	ctx := context.Background()
	log := p.log.With(zap.String("allocator", p.cfg.AllocatorName))
	log.Debug("allocator running")

	for {
		if p.shutdownFlag.Load() {
			p.drain(ctx, log)
			return
		}

		allocated := int(p.allocated.Load())
		target := int(p.targetSize.Load())

		if allocated < target {
			p.grow(ctx)
			continue
		}
		if allocated > target && p.shrinkOne(ctx) {
			continue
		}
		if s, ok := p.dead.Pop(); ok {
			p.recycle(ctx, s)
			continue
		}

		timer := time.NewTimer(allocatorTick)
		select {
		case <-p.wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// grow creates one new slot and publishes it (possibly poisoned).
func (p *Pool[T]) grow(ctx context.Context) {
	s := newSlot(p.live)
	p.allocated.Add(1)
	p.allocInto(ctx, s)
	p.met.SetLiveSlots(int(p.allocated.Load()))
}

// recycle handles one slot pulled off the dead stack: retire it when the
// pool is above target, reallocate it otherwise.
func (p *Pool[T]) recycle(ctx context.Context, s *slot[T]) {
	if int(p.allocated.Load()) > int(p.targetSize.Load()) {
		p.retire(ctx, s)
		return
	}
	p.allocInto(ctx, s)
}

// allocInto fills a dead slot with a fresh object and publishes it. A
// factory failure is captured as poison and the slot is published
// anyway, so claimers surface the cause and the retry cycle continues.
func (p *Pool[T]) allocInto(ctx context.Context, s *slot[T]) {
	var (
		obj T
		err error
	)
	if s.hasObj {
		if rec, ok := p.cfg.Factory.(Recreator[T]); ok {
			obj, err = rec.Recreate(ctx, s.obj)
		} else {
			p.destroyObject(ctx, s)
			obj, err = p.cfg.Factory.Create(ctx)
		}
	} else {
		obj, err = p.cfg.Factory.Create(ctx)
	}

	if err != nil {
		var zero T
		s.obj, s.hasObj = zero, false
		s.poison = err
		p.poisoned.Add(1)
		p.failedAllocs.Increment()
		p.met.RecordAllocation(false)
		p.log.Warn("allocation failed; publishing poisoned slot", zap.Error(err))
	} else {
		s.obj, s.hasObj = obj, true
		s.poison = nil
		s.created = time.Now()
		s.claims = 0
		s.stamp = 0
		p.allocations.Increment()
		p.met.RecordAllocation(true)
	}

	s.dead2live()
	if s.tokenInLive {
		// the token stranded by a TLR-side kill serves as this publish
		s.tokenInLive = false
	} else {
		p.live <- s
	}
}

// destroyObject tears down a slot's current object, if any.
func (p *Pool[T]) destroyObject(ctx context.Context, s *slot[T]) {
	if !s.hasObj {
		return
	}
	if err := p.cfg.Factory.Destroy(ctx, s.obj); err != nil {
		p.log.Warn("destroy failed", zap.Error(err))
	}
	var zero T
	s.obj, s.hasObj = zero, false
	p.deallocations.Increment()
	p.met.RecordDeallocation()
}

// retire destroys a slot's object and removes the slot from the pool
// for good. Its token, if still circulating, is dropped by pollers once
// they see the retired mark.
func (p *Pool[T]) retire(ctx context.Context, s *slot[T]) {
	p.destroyObject(ctx, s)
	s.poison = nil
	s.markRetired()
	p.allocated.Add(-1)
	p.met.SetLiveSlots(int(p.allocated.Load()))
}

// shrinkOne tries to pull one idle slot out of circulation. Returns
// true when it made progress toward the target size.
func (p *Pool[T]) shrinkOne(ctx context.Context) bool {
	var s *slot[T]
	select {
	case s = <-p.live:
	default:
		return false
	}

	if s.isRetired() {
		// dropped a stale token; that is progress of a sort
		return true
	}
	if s.live2dead() {
		s.tokenInLive = false
		if s.poison != nil {
			s.poison = nil
			p.poisoned.Add(-1)
		}
		p.retire(ctx, s)
		return true
	}
	if s.claimTlr2claim() {
		// in use through a TLR claim; the owner's release will publish a
		// fresh token that a later pass can catch
		return false
	}
	p.live <- s
	return false
}

// drain tears the pool down: it destroys every slot it can reach and
// waits for holders to release the rest, then signals completion and
// exits. Claimed slots flow back through the dead stack because their
// release observes the shutdown flag.
func (p *Pool[T]) drain(ctx context.Context, log *zap.Logger) {
	log.Debug("draining pool")

	for p.allocated.Load() > 0 {
		progress := false

		// slots on the dead stack had their poison surfaced already; only
		// the still-living sweep below adjusts the poisoned counter
		for {
			s, ok := p.dead.Pop()
			if !ok {
				break
			}
			p.retire(ctx, s)
			progress = true
		}

	sweep:
		for i := len(p.live); i > 0; i-- {
			var s *slot[T]
			select {
			case s = <-p.live:
			default:
				break sweep
			}
			if s.isRetired() {
				continue
			}
			if s.live2dead() {
				s.tokenInLive = false
				if s.poison != nil {
					s.poison = nil
					p.poisoned.Add(-1)
				}
				p.retire(ctx, s)
				progress = true
				continue
			}
			// a TLR claim is converted so the owner's release takes the
			// kill path; the dead token of a slot already in the stack
			// is simply dropped, the stack delivery is what counts
			s.claimTlr2claim()
		}

		if !progress {
			timer := time.NewTimer(drainTick)
			select {
			case <-p.wake:
			case <-timer.C:
			}
			timer.Stop()
		}
	}

	p.completion.signal()
	log.Info("shutdown complete",
		zap.Uint64("allocations", p.allocations.Get()),
		zap.Uint64("deallocations", p.deallocations.Get()))
}
