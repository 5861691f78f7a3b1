package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
	"github.com/ajitpratap0/stockpile/pkg/lockfree"
	"github.com/ajitpratap0/stockpile/pkg/metrics"
)

// Pool is a bounded, thread-safe pool of reusable objects of type T.
// Claimers receive exclusive use of one object through a Lease and hand
// it back with Release; a single background allocator goroutine performs
// every factory call off the claim path.
//
// Create a pool with New; the zero value is not usable.
type Pool[T any] struct {
	cfg Config[T]
	log *zap.Logger
	met *metrics.Collector

	// live carries one token per published slot. Its capacity is
	// MaxSize, and the one-token-per-slot discipline (see
	// slot.tokenInLive) guarantees sends never block.
	live chan *slot[T]

	// dead collects slots in need of (re)allocation. Many producers
	// (any claimer can kill), one consumer (the allocator).
	dead *lockfree.Stack[*slot[T]]

	// wake nudges the allocator out of its bounded sleep.
	wake chan struct{}

	// tlr caches the last released slot per P for the contention-free
	// reclaim fast path.
	tlr sync.Pool

	targetSize atomic.Int64
	allocated  atomic.Int64 // slots in existence; allocator-written, anyone-read
	poisoned   atomic.Int64 // poisoned slots currently published

	shutdownFlag atomic.Bool
	completion   *Completion

	claims        lockfree.AtomicCounter
	timeouts      lockfree.AtomicCounter
	expirations   lockfree.AtomicCounter
	allocations   lockfree.AtomicCounter
	failedAllocs  lockfree.AtomicCounter
	deallocations lockfree.AtomicCounter
}

// New creates a pool and starts its allocator goroutine. The allocator
// immediately begins filling the pool toward the configured size.
func New[T any](cfg Config[T]) (*Pool[T], error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	p := &Pool[T]{
		cfg:        cfg,
		log:        cfg.Logger.With(zap.String("pool", cfg.Name)),
		met:        cfg.Metrics,
		live:       make(chan *slot[T], cfg.MaxSize),
		dead:       lockfree.NewStack[*slot[T]](),
		wake:       make(chan struct{}, 1),
		completion: newCompletion(),
	}
	p.targetSize.Store(int64(cfg.Size))
	p.met.SetTargetSize(cfg.Size)

	go p.allocLoop()

	p.log.Info("pool started",
		zap.Int("size", cfg.Size),
		zap.Int("max_size", cfg.MaxSize))
	return p, nil
}

// Name returns the pool's configured name.
func (p *Pool[T]) Name() string { return p.cfg.Name }

// Claim acquires exclusive use of one pooled object, waiting up to
// timeout for one to become available. A zero timeout polls without
// blocking. The returned Lease must be released exactly once.
//
// Failure kinds: timeout when the deadline passes with nothing
// available, poisoned when the claimed slot carries a captured factory
// failure (the cause is wrapped; retrying is reasonable), shutdown once
// the pool is shutting down, and interrupted when ctx is cancelled
// mid-wait. A poisoned claim consumes the attempt: the caller decides
// whether to spend another timeout on a retry.
func (p *Pool[T]) Claim(ctx context.Context, timeout time.Duration) (*Lease[T], error) {
	start := time.Now()

	if p.shutdownFlag.Load() {
		err := errs.New(errs.KindShutdown, "pool is shut down")
		p.observeClaim(start, err)
		return nil, err
	}

	if timeout < 0 {
		timeout = 0
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Thread-local reuse fast path: the slot this P released last is
	// usually still living and uncontended.
	if v := p.tlr.Get(); v != nil {
		s := v.(*slot[T])
		if s.live2claimTlr() {
			lease, done, err := p.vet(s)
			if done {
				p.observeClaim(start, err)
				return lease, err
			}
			// expired; fall through to the live channel
		}
	}

	for {
		s, err := p.poll(ctx, timer)
		if err != nil {
			p.observeClaim(start, err)
			return nil, err
		}
		if !p.acquire(s) {
			continue
		}
		lease, done, err := p.vet(s)
		if !done {
			// expired; keep polling with the remaining deadline
			continue
		}
		p.observeClaim(start, err)
		return lease, err
	}
}

// poll dequeues one token from the live channel, trying a non-blocking
// receive first so zero-timeout claims never park.
func (p *Pool[T]) poll(ctx context.Context, timer *time.Timer) (*slot[T], error) {
	select {
	case s := <-p.live:
		return s, nil
	default:
	}
	select {
	case s := <-p.live:
		return s, nil
	case <-timer.C:
		p.timeouts.Increment()
		return nil, errs.New(errs.KindTimeout, "claim deadline reached")
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), errs.KindInterrupted, "claim wait cancelled")
	}
}

// acquire turns a dequeued token into an ordinary claim. It returns
// false when the token was consumed without yielding a claim: a stolen
// TLR claim, a retired slot, or a dead token recycled for the allocator.
func (p *Pool[T]) acquire(s *slot[T]) bool {
	for {
		if s.live2claim() {
			return true
		}
		if s.claimTlr2claim() {
			// The slot is TLR-claimed by its owner. Converting it to an
			// ordinary claim consumes the token; the owner's release now
			// has to push a fresh one. Without this, the release would
			// leave the slot reachable only through one P's cache.
			return false
		}
		switch s.stateOf() {
		case slotLiving, slotTlrClaimed:
			// transition in flight; retry the pair of CASes
			runtime.Gosched()
		case slotDead:
			if !s.isRetired() {
				// The slot is on its way through the dead stack and this
				// token is its only one; recycle it for the republish.
				p.live <- s
				runtime.Gosched()
			}
			return false
		default:
			// claimed through some other path; the token is superseded
			return false
		}
	}
}

// vet inspects a freshly claimed slot. done=false means the slot was
// expired and killed and the caller should poll again; otherwise the
// claim concluded with the given lease or error.
func (p *Pool[T]) vet(s *slot[T]) (lease *Lease[T], done bool, err error) {
	if s.poison != nil {
		cause := s.poison
		p.poisoned.Add(-1)
		p.kill(s)
		return nil, true, errs.Wrap(cause, errs.KindPoisoned, "claimed slot carries an allocation failure")
	}

	if p.hasExpired(s) {
		p.expirations.Increment()
		p.met.RecordExpiration()
		p.kill(s)
		return nil, false, nil
	}

	if p.shutdownFlag.Load() {
		p.kill(s)
		return nil, true, errs.New(errs.KindShutdown, "pool is shut down")
	}

	s.claims++
	p.claims.Increment()
	return &Lease[T]{obj: s.obj, slot: s, pool: p}, true, nil
}

// hasExpired runs the user's expiration policy. Policy panics are not
// masked, but the slot must not leak: it is killed before re-panicking.
func (p *Pool[T]) hasExpired(s *slot[T]) bool {
	defer func() {
		if r := recover(); r != nil {
			p.kill(s)
			panic(r)
		}
	}()
	return p.cfg.Expiration.HasExpired(s)
}

// kill transitions a held claim to dead and hands the slot to the
// allocator. The TLR case records that the slot's token is still in the
// live channel so the republish can reuse it.
func (p *Pool[T]) kill(s *slot[T]) {
	for {
		if s.claim2dead() {
			s.tokenInLive = false
			break
		}
		if s.claimTlr2dead() {
			s.tokenInLive = true
			break
		}
		if st := s.stateOf(); st != slotClaimed && st != slotTlrClaimed {
			panic(errs.New(errs.KindStructural, "kill of unclaimed slot").
				WithDetail("state", st))
		}
		// a steal converted the claim between the two CASes; retry
		runtime.Gosched()
	}
	p.dead.Push(s)
	p.wakeAllocator()
}

// release returns a held slot to circulation. Ordinary claims publish a
// fresh token; TLR claims leave their token where it already is. Either
// way the slot is stashed in the caller's TLR cache.
func (p *Pool[T]) release(s *slot[T]) error {
	for {
		switch s.stateOf() {
		case slotTlrClaimed:
			if s.claimTlr2live() {
				p.tlr.Put(s)
				return nil
			}
			// concurrently stolen into an ordinary claim; re-read
		case slotClaimed:
			s.claim2live()
			p.live <- s
			p.tlr.Put(s)
			return nil
		default:
			return errs.New(errs.KindStructural, "release of slot in bad state").
				WithDetail("state", s.stateOf())
		}
	}
}

// SetTargetSize adjusts how many objects the pool keeps. The allocator
// converges the pool toward the new size over time: growth at factory
// speed, shrinking as holders release. n must be in [1, MaxSize].
func (p *Pool[T]) SetTargetSize(n int) error {
	if n < 1 {
		return errs.New(errs.KindStructural, "target size must be at least 1").
			WithDetail("size", n)
	}
	if n > p.cfg.MaxSize {
		return errs.New(errs.KindStructural, "target size exceeds the configured max size").
			WithDetail("size", n).
			WithDetail("max_size", p.cfg.MaxSize)
	}
	p.targetSize.Store(int64(n))
	p.met.SetTargetSize(n)
	p.wakeAllocator()
	p.log.Debug("target size changed", zap.Int("target_size", n))
	return nil
}

// TargetSize returns the current target size.
func (p *Pool[T]) TargetSize() int { return int(p.targetSize.Load()) }

// Shutdown begins tearing the pool down and returns immediately. The
// shutdown is one-way and idempotent: every call returns a handle bound
// to the same completion, which is signalled once all objects have been
// destroyed and the allocator has exited. A leaked lease (claimed and
// never released) prevents completion; that is deliberate.
func (p *Pool[T]) Shutdown() *Completion {
	if p.shutdownFlag.CompareAndSwap(false, true) {
		p.log.Info("pool shutting down")
		p.wakeAllocator()
	}
	return p.completion
}

func (p *Pool[T]) wakeAllocator() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool[T]) observeClaim(start time.Time, err error) {
	outcome := "claimed"
	switch {
	case err == nil:
	case errs.IsTimeout(err):
		outcome = "timeout"
	case errs.IsPoisoned(err):
		outcome = "poisoned"
	case errs.IsShutdown(err):
		outcome = "shutdown"
	case errs.IsInterrupted(err):
		outcome = "interrupted"
	default:
		outcome = "error"
	}
	p.met.RecordClaim(outcome, time.Since(start))
}
