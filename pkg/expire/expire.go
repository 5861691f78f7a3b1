// Package expire provides expiration policies for pooled objects.
//
// An expiration policy decides, on every claim attempt, whether the
// object currently held by a slot should be retired and reallocated.
// Policies see only per-slot metadata through the SlotInfo interface
// and must be cheap: they run on the claim hot path.
//
// The default policy used by the pool is TimeSpread, which draws a
// per-slot lifetime uniformly between a lower and an upper bound so
// that a fleet of objects allocated together does not expire together.
package expire

import (
	"time"

	"github.com/ajitpratap0/stockpile/pkg/errors"
)

// SlotInfo exposes the metadata of a single slot to expiration policies.
// The stamp is opaque scratch space owned by the policy; Rand draws from
// the slot's private PRNG so policies can jitter thresholds without
// contending on a shared random source.
type SlotInfo interface {
	// Age returns the time elapsed since the slot's object was allocated.
	Age() time.Duration
	// ClaimCount returns the number of successful claims of the current object.
	ClaimCount() uint64
	// Stamp returns the policy scratch value, zero if never set.
	Stamp() uint64
	// SetStamp stores a policy scratch value on the slot.
	SetStamp(stamp uint64)
	// Rand returns the next value of the slot's xorshift128+ PRNG.
	Rand() uint64
}

// Expiration decides whether a slot's object has reached end-of-life.
// Implementations must not retain the SlotInfo beyond the call.
type Expiration interface {
	HasExpired(info SlotInfo) bool
}

// Func adapts a plain function to the Expiration interface.
type Func func(info SlotInfo) bool

// HasExpired implements Expiration.
func (f Func) HasExpired(info SlotInfo) bool { return f(info) }

// Never returns a policy under which objects never expire.
func Never() Expiration {
	return Func(func(SlotInfo) bool { return false })
}

// After returns a policy that expires objects once they exceed the
// given age. All objects allocated in a burst will also expire in a
// burst; prefer TimeSpread for pools fronting remote resources.
func After(maxAge time.Duration) (Expiration, error) {
	if maxAge <= 0 {
		return nil, errors.New(errors.KindConfig, "expiration age must be positive").
			WithDetail("max_age", maxAge)
	}
	return Func(func(info SlotInfo) bool {
		return info.Age() >= maxAge
	}), nil
}

// TimeSpread returns a policy that expires each object at an age drawn
// uniformly from [lower, upper]. The threshold is drawn once, on the
// first evaluation, from the slot's own PRNG and kept in the stamp, so
// end-of-life is de-synchronised across the pool.
func TimeSpread(lower, upper time.Duration) (Expiration, error) {
	if lower <= 0 || upper < lower {
		return nil, errors.New(errors.KindConfig, "time-spread bounds must satisfy 0 < lower <= upper").
			WithDetail("lower", lower).
			WithDetail("upper", upper)
	}
	return &timeSpread{lower: lower, upper: upper}, nil
}

type timeSpread struct {
	lower time.Duration
	upper time.Duration
}

// HasExpired implements Expiration. The stamp holds the slot's drawn
// threshold in nanoseconds; zero means not drawn yet. The allocator
// clears the stamp on reallocation, so every object draws afresh.
func (e *timeSpread) HasExpired(info SlotInfo) bool {
	threshold := info.Stamp()
	if threshold == 0 {
		spread := uint64(e.upper-e.lower) + 1
		threshold = uint64(e.lower) + info.Rand()%spread
		info.SetStamp(threshold)
	}
	return uint64(info.Age()) >= threshold
}
