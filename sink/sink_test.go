package sink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/groupstream"
	"github.com/arloliu/groupstream/sink"
	"github.com/arloliu/groupstream/source"
	gstest "github.com/arloliu/groupstream/testing"
	"github.com/arloliu/groupstream/types"
)

func TestCollect(t *testing.T) {
	values, err := sink.Collect(testContext(t), source.Range(1, 5))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, values)
}

func TestCollect_Empty(t *testing.T) {
	values, err := sink.Collect(testContext(t), source.Empty[string]())
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestCollect_PropagatesError(t *testing.T) {
	boom := errors.New("boom")

	_, err := sink.Collect(testContext(t), source.Error[int](boom))
	require.ErrorIs(t, err, boom)
}

func TestCollect_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ch := make(chan int) // never closed, never written
	_, err := sink.Collect(ctx, source.FromChannel(context.Background(), ch))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEach_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("enough")

	var seen []int
	err := sink.Each(testContext(t), source.Range(1, 100), func(v int) error {
		seen = append(seen, v)
		if v == 3 {
			return stop
		}

		return nil
	})

	require.ErrorIs(t, err, stop)
	require.Equal(t, []int{1, 2, 3}, seen)
}

func TestCollect_GroupValues(t *testing.T) {
	op, err := groupstream.GroupBy(source.Range(1, 10), func(v int) (int, error) { return v % 2, nil })
	require.NoError(t, err)

	main := gstest.NewSubscriber[*groupstream.GroupedStream[int, int]](types.Unbounded)
	op.Subscribe(main)
	require.True(t, main.AwaitValues(2, 2*time.Second))

	odd, err := sink.Collect(testContext(t), main.Values()[0])
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 5, 7, 9}, odd)

	even, err := sink.Collect(testContext(t), main.Values()[1])
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 6, 8, 10}, even)
}

// testContext returns a context cancelled when the test ends, matching the
// semantics of (*testing.T).Context from newer Go releases.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
