package ephemeral

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func TestGetOrCreateReturnsSameHandle(t *testing.T) {
	r := NewRegistry(func(int64) *counter { return &counter{} })

	a := r.GetOrCreate(1)
	b := r.GetOrCreate(1)
	require.Same(t, a, b)

	other := r.GetOrCreate(2)
	require.NotSame(t, a, other)
	require.Equal(t, 2, r.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := NewRegistry(func(int64) *counter { return &counter{} })

	const workers = 32
	handles := make([]*counter, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			handles[i] = r.GetOrCreate(7)
		}()
	}
	wg.Wait()

	for _, h := range handles {
		require.Same(t, handles[0], h, "concurrent calls must observe one instance")
	}
	require.Equal(t, 1, r.Len())
}

func TestDrop(t *testing.T) {
	r := NewRegistry(func(int64) *counter { return &counter{} })

	first := r.GetOrCreate(1)
	first.n = 42
	r.Drop(1)

	second := r.GetOrCreate(1)
	require.NotSame(t, first, second)
	require.Zero(t, second.n)
}
