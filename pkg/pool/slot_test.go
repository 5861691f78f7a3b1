package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotIsBornDead(t *testing.T) {
	s := newSlot[int](make(chan *slot[int], 1))
	assert.Equal(t, slotDead, s.stateOf())
}

func TestSlotTransitions(t *testing.T) {
	s := newSlot[int](make(chan *slot[int], 1))

	s.dead2live()
	assert.Equal(t, slotLiving, s.stateOf())

	require.True(t, s.live2claim())
	assert.False(t, s.live2claim(), "double claim must fail")
	assert.Equal(t, slotClaimed, s.stateOf())

	s.claim2live()
	assert.Equal(t, slotLiving, s.stateOf())

	require.True(t, s.live2claimTlr())
	assert.Equal(t, slotTlrClaimed, s.stateOf())
	require.True(t, s.claimTlr2live())

	require.True(t, s.live2claim())
	require.True(t, s.claim2dead())
	assert.Equal(t, slotDead, s.stateOf())
}

// The steal conversion: once a poller turns a TLR claim into an
// ordinary claim, the owner's TLR release must fail so it takes the
// token-publishing path instead.
func TestSlotTlrStealIsDetectedByOwner(t *testing.T) {
	s := newSlot[int](make(chan *slot[int], 1))
	s.dead2live()

	require.True(t, s.live2claimTlr(), "owner claims through the TLR path")
	require.True(t, s.claimTlr2claim(), "poller steals the claim")

	assert.False(t, s.claimTlr2live(), "owner must observe the steal on release")
	assert.Equal(t, slotClaimed, s.stateOf())

	s.claim2live()
	assert.Equal(t, slotLiving, s.stateOf())
}

// Only one of many goroutines racing a CAS claim can win.
func TestSlotClaimRaceHasOneWinner(t *testing.T) {
	for round := 0; round < 100; round++ {
		s := newSlot[int](make(chan *slot[int], 1))
		s.dead2live()

		const racers = 8
		var (
			wg      sync.WaitGroup
			winners int32
			mu      sync.Mutex
		)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.live2claim() {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.EqualValues(t, 1, winners)
	}
}

func TestSlotRngIsUsable(t *testing.T) {
	s := newSlot[int](make(chan *slot[int], 1))

	a, b := s.Rand(), s.Rand()
	assert.NotEqual(t, a, b, "consecutive draws should differ")

	other := newSlot[int](make(chan *slot[int], 1))
	assert.NotEqual(t, s.Rand(), other.Rand(), "slots should not share a stream")
}

func TestSlotStamp(t *testing.T) {
	s := newSlot[int](make(chan *slot[int], 1))
	assert.Zero(t, s.Stamp())
	s.SetStamp(12345)
	assert.EqualValues(t, 12345, s.Stamp())
}
