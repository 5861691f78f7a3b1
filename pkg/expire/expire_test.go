package expire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// fakeSlot is a deterministic SlotInfo for policy tests.
type fakeSlot struct {
	age    time.Duration
	claims uint64
	stamp  uint64
	rand   uint64
}

func (f *fakeSlot) Age() time.Duration { return f.age }
func (f *fakeSlot) ClaimCount() uint64 { return f.claims }
func (f *fakeSlot) Stamp() uint64      { return f.stamp }
func (f *fakeSlot) SetStamp(s uint64)  { f.stamp = s }
func (f *fakeSlot) Rand() uint64       { return f.rand }

func TestNever(t *testing.T) {
	e := Never()
	assert.False(t, e.HasExpired(&fakeSlot{age: 1000 * time.Hour, claims: 1 << 40}))
}

func TestAfter(t *testing.T) {
	e, err := After(time.Minute)
	require.NoError(t, err)

	assert.False(t, e.HasExpired(&fakeSlot{age: 59 * time.Second}))
	assert.True(t, e.HasExpired(&fakeSlot{age: time.Minute}))
	assert.True(t, e.HasExpired(&fakeSlot{age: time.Hour}))
}

func TestAfterRejectsNonPositiveAge(t *testing.T) {
	_, err := After(0)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))

	_, err = After(-time.Second)
	require.Error(t, err)
}

func TestTimeSpreadRejectsBadBounds(t *testing.T) {
	_, err := TimeSpread(0, time.Minute)
	require.Error(t, err)

	_, err = TimeSpread(time.Minute, time.Second)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestTimeSpreadDrawsThresholdWithinBounds(t *testing.T) {
	lower, upper := 8*time.Minute, 10*time.Minute
	e, err := TimeSpread(lower, upper)
	require.NoError(t, err)

	for _, rand := range []uint64{0, 1, 1 << 20, 1<<63 - 7, ^uint64(0)} {
		s := &fakeSlot{age: 0, rand: rand}
		assert.False(t, e.HasExpired(s), "a newborn object cannot be expired")

		threshold := time.Duration(s.stamp)
		assert.GreaterOrEqual(t, threshold, lower)
		assert.LessOrEqual(t, threshold, upper)
	}
}

func TestTimeSpreadThresholdIsSticky(t *testing.T) {
	e, err := TimeSpread(time.Minute, 2*time.Minute)
	require.NoError(t, err)

	s := &fakeSlot{age: time.Second, rand: 42}
	require.False(t, e.HasExpired(s))
	drawn := s.stamp

	// later evaluations must reuse the drawn threshold, not redraw
	s.rand = 7777
	s.age = 30 * time.Second
	require.False(t, e.HasExpired(s))
	assert.Equal(t, drawn, s.stamp)

	s.age = time.Duration(drawn)
	assert.True(t, e.HasExpired(s))
}

func TestFunc(t *testing.T) {
	calls := 0
	e := Func(func(info SlotInfo) bool {
		calls++
		return info.ClaimCount() > 3
	})

	assert.False(t, e.HasExpired(&fakeSlot{claims: 3}))
	assert.True(t, e.HasExpired(&fakeSlot{claims: 4}))
	assert.Equal(t, 2, calls)
}
