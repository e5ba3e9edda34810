package paginator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardWalkAndExhaustion(t *testing.T) {
	p := New([]int{0, 1, 2, 3, 4})

	for want := 0; want < 5; want++ {
		got, err := p.Step(Forward)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := p.Step(Forward)
	require.True(t, errors.Is(err, ErrExhausted), "6th forward step must exhaust")

	// Exhaustion is idempotent.
	_, err = p.Step(Forward)
	require.True(t, errors.Is(err, ErrExhausted))
}

func TestBackwardWalk(t *testing.T) {
	p := New([]string{"a", "b", "c"})

	for n := 0; n < 3; n++ {
		_, err := p.Step(Forward)
		require.NoError(t, err)
	}

	got, err := p.Step(Backward)
	require.NoError(t, err)
	require.Equal(t, "b", got)

	got, err = p.Step(Backward)
	require.NoError(t, err)
	require.Equal(t, "a", got)

	_, err = p.Step(Backward)
	require.True(t, errors.Is(err, ErrExhausted))
}

func TestBoundaryPredicates(t *testing.T) {
	p := New([]int{10, 20, 30})

	require.True(t, p.HasNext())
	require.False(t, p.HasPrev(), "has_prev is false at position <= 0")

	_, _ = p.Step(Forward) // position 0
	require.False(t, p.HasPrev())

	_, _ = p.Step(Forward) // position 1
	require.True(t, p.HasPrev())
	require.True(t, p.HasNext())

	_, _ = p.Step(Forward) // position 2, last index
	require.False(t, p.HasNext(), "has_next is false only at the last index")
	require.True(t, p.HasPrev())

	// Forward exhaustion saturates at len(results); has_next stays false there.
	_, err := p.Step(Forward)
	require.Error(t, err)
	require.Equal(t, p.Len(), p.Position())
	require.False(t, p.HasNext())
	require.True(t, p.HasPrev())
}

func TestPositionInvariant(t *testing.T) {
	p := New([]int{1, 2})
	check := func() {
		require.GreaterOrEqual(t, p.Position(), -1)
		require.LessOrEqual(t, p.Position(), p.Len())
	}

	check()
	for n := 0; n < 5; n++ {
		_, _ = p.Step(Forward)
		check()
	}
	for n := 0; n < 5; n++ {
		_, _ = p.Step(Backward)
		check()
	}
}

func TestEmptySequence(t *testing.T) {
	p := New[int](nil)
	_, err := p.Step(Forward)
	require.True(t, errors.Is(err, ErrExhausted))
	_, err = p.Step(Backward)
	require.True(t, errors.Is(err, ErrExhausted))

	_, ok := p.Current()
	require.False(t, ok)
}

func TestResetStartsFreshWalk(t *testing.T) {
	p := New([]int{1, 2, 3})
	_, _ = p.Step(Forward)
	_, _ = p.Step(Forward)

	p.Reset([]int{7, 8})
	require.Equal(t, -1, p.Position())

	got, err := p.Step(Forward)
	require.NoError(t, err)
	require.Equal(t, 7, got)
}
