package pool

import (
	"time"

	"github.com/ajitpratap0/stockpile/pkg/lockfree"
)

// Slot states. A slot is born dead; the allocator publishes it as living;
// claimers flip it between living and one of the two claimed states; a
// kill parks it dead again until the allocator recycles or retires it.
const (
	slotDead uint32 = iota
	slotLiving
	slotClaimed
	slotTlrClaimed
)

// slot is the per-object state machine and metadata container. The state
// word is the only field touched by more than one goroutine at a time;
// every other field is owned by whoever holds the slot (the allocator
// while dead, the claimer while claimed) and is published to the next
// holder by the state transition itself.
type slot[T any] struct {
	state lockfree.PaddedUint32

	obj    T
	hasObj bool
	poison error

	created time.Time
	claims  uint64
	stamp   uint64
	rng     xorshift128

	// tokenInLive records, at kill time, whether the slot's channel token
	// was left behind in the live channel (a kill out of a TLR claim).
	// The allocator then reuses the stranded token on republish instead
	// of pushing a second one, keeping at most one token per slot. That
	// bound is what lets release send to the live channel without ever
	// blocking.
	tokenInLive bool

	// retired marks a slot destroyed for good; pollers drop its token.
	retired lockfree.PaddedUint32

	// back reference for release
	live chan *slot[T]
}

func newSlot[T any](live chan *slot[T]) *slot[T] {
	// the zero state is slotDead: a slot is born dead
	return &slot[T]{
		live: live,
		rng:  newXorshift128(),
	}
}

func (s *slot[T]) stateOf() uint32 { return s.state.Load() }

func (s *slot[T]) isRetired() bool { return s.retired.Load() != 0 }
func (s *slot[T]) markRetired()    { s.retired.Store(1) }

// dead2live publishes a freshly (re)allocated slot. Only the allocator
// performs this transition, so a plain store suffices.
func (s *slot[T]) dead2live() { s.state.Store(slotLiving) }

// live2claim is the normal claim transition.
func (s *slot[T]) live2claim() bool { return s.state.CompareAndSwap(slotLiving, slotClaimed) }

// live2claimTlr is the thread-local-reuse fast-path claim.
func (s *slot[T]) live2claimTlr() bool { return s.state.CompareAndSwap(slotLiving, slotTlrClaimed) }

// claimTlr2claim converts a TLR claim into an ordinary claim. A poller
// that dequeued the token of a TLR-claimed slot uses this so the owner's
// release is forced onto the path that re-publishes the token.
func (s *slot[T]) claimTlr2claim() bool { return s.state.CompareAndSwap(slotTlrClaimed, slotClaimed) }

// claim2live releases an ordinary claim. Only the holder may call it,
// so a plain store suffices; the caller must re-publish the token.
func (s *slot[T]) claim2live() { s.state.Store(slotLiving) }

// claimTlr2live releases a TLR claim. This must be a CAS, not a store:
// a concurrent claimTlr2claim may have converted the claim, and the
// releaser has to detect that and take the token-publishing path instead.
func (s *slot[T]) claimTlr2live() bool { return s.state.CompareAndSwap(slotTlrClaimed, slotLiving) }

func (s *slot[T]) claim2dead() bool    { return s.state.CompareAndSwap(slotClaimed, slotDead) }
func (s *slot[T]) claimTlr2dead() bool { return s.state.CompareAndSwap(slotTlrClaimed, slotDead) }

// live2dead is the allocator's proactive eviction during shrink and
// shutdown, used after it has dequeued the slot's token.
func (s *slot[T]) live2dead() bool { return s.state.CompareAndSwap(slotLiving, slotDead) }

// expire.SlotInfo implementation. Callers hold the slot, so the plain
// field accesses are single-writer.

// Age returns the time since the current object was allocated.
func (s *slot[T]) Age() time.Duration { return time.Since(s.created) }

// ClaimCount returns the number of successful claims of the current object.
func (s *slot[T]) ClaimCount() uint64 { return s.claims }

// Stamp returns the expiration policy's scratch value.
func (s *slot[T]) Stamp() uint64 { return s.stamp }

// SetStamp stores the expiration policy's scratch value.
func (s *slot[T]) SetStamp(stamp uint64) { s.stamp = stamp }

// Rand returns the next value of the slot's private PRNG.
func (s *slot[T]) Rand() uint64 { return s.rng.next() }
