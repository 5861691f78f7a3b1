package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesKindAndStack(t *testing.T) {
	err := New(KindTimeout, "claim deadline reached")

	assert.Equal(t, KindTimeout, err.Kind)
	assert.Equal(t, "timeout: claim deadline reached", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, KindPoisoned, "claimed slot carries an allocation failure")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Nil(t, Wrap(nil, KindPoisoned, "no-op"))
}

func TestWrapKeepsInnerStack(t *testing.T) {
	inner := New(KindConfig, "bad bounds")
	outer := Wrap(inner, KindStructural, "pool construction failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.ErrorIs(t, outer, inner)
}

func TestKindPredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{New(KindTimeout, "t"), IsTimeout},
		{New(KindPoisoned, "p"), IsPoisoned},
		{New(KindShutdown, "s"), IsShutdown},
		{New(KindStructural, "b"), IsStructural},
		{New(KindInterrupted, "i"), IsInterrupted},
	}
	for _, tc := range cases {
		assert.True(t, tc.pred(tc.err), "%v", tc.err)
	}

	assert.False(t, IsTimeout(New(KindShutdown, "s")))
	assert.False(t, IsTimeout(errors.New("plain")))
	assert.False(t, IsTimeout(nil))
}

func TestKindPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindTimeout, "inner"))
	assert.True(t, IsTimeout(err))
	assert.True(t, IsKind(err, KindTimeout))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindTimeout, "t")))
	assert.True(t, IsRetryable(New(KindPoisoned, "p")))

	assert.False(t, IsRetryable(New(KindShutdown, "s")))
	assert.False(t, IsRetryable(New(KindStructural, "b")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(KindStructural, "target size must be at least 1").
		WithDetail("size", 0).
		WithDetail("max_size", 16)

	assert.Equal(t, 0, err.Details["size"])
	assert.Equal(t, 16, err.Details["max_size"])
}
