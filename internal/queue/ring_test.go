package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_OfferPoll(t *testing.T) {
	r := New[int](0)

	require.True(t, r.IsEmpty())
	require.Equal(t, 0, r.Len())

	for i := 1; i <= 5; i++ {
		require.True(t, r.Offer(i))
	}
	require.Equal(t, 5, r.Len())

	for i := 1; i <= 5; i++ {
		v, ok := r.Poll()
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	_, ok := r.Poll()
	require.False(t, ok)
	require.True(t, r.IsEmpty())
}

func TestRing_GrowsPastInitialCapacity(t *testing.T) {
	r := New[int](0)

	const n = 1000
	for i := 0; i < n; i++ {
		require.True(t, r.Offer(i))
	}
	require.Equal(t, n, r.Len())

	for i := 0; i < n; i++ {
		v, ok := r.Poll()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestRing_WrapAround(t *testing.T) {
	r := New[int](0)

	// Interleave offers and polls so head wraps around the backing slice.
	next := 0
	for i := 0; i < 100; i++ {
		require.True(t, r.Offer(i))
		if i%2 == 1 {
			v, ok := r.Poll()
			require.True(t, ok)
			require.Equal(t, next, v)
			next++
		}
	}

	for {
		v, ok := r.Poll()
		if !ok {
			break
		}
		require.Equal(t, next, v)
		next++
	}
	require.Equal(t, 100, next)
}

func TestRing_LimitRejectsWhenFull(t *testing.T) {
	r := New[string](3)

	require.True(t, r.Offer("a"))
	require.True(t, r.Offer("b"))
	require.True(t, r.Offer("c"))
	require.False(t, r.Offer("d"))

	v, ok := r.Poll()
	require.True(t, ok)
	require.Equal(t, "a", v)

	// Space freed, offers succeed again.
	require.True(t, r.Offer("d"))
	require.False(t, r.Offer("e"))
}

func TestRing_Clear(t *testing.T) {
	r := New[int](0)

	for i := 0; i < 7; i++ {
		r.Offer(i)
	}

	require.Equal(t, 7, r.Clear())
	require.True(t, r.IsEmpty())
	require.Equal(t, 0, r.Clear())

	// Usable after clearing.
	require.True(t, r.Offer(42))
	v, ok := r.Poll()
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestRing_SingleProducerSingleConsumer(t *testing.T) {
	r := New[int](0)

	const n = 10000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.Offer(i)
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			if v, ok := r.Poll(); ok {
				got = append(got, v)
			}
		}
	}()

	wg.Wait()

	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func BenchmarkRing_OfferPoll(b *testing.B) {
	r := New[int](0)
	for i := 0; i < b.N; i++ {
		r.Offer(1)
		r.Poll()
	}
}
