package source_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/groupstream/source"
	gstest "github.com/arloliu/groupstream/testing"
	"github.com/arloliu/groupstream/types"
)

func TestFromChannel_EmitsUntilClose(t *testing.T) {
	ch := make(chan int, 4)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.FromChannel(testContext(t), ch).Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.Equal(t, []int{1, 2, 3}, sub.Values())
	require.True(t, sub.Completed())
}

func TestFromChannel_RespectsDemand(t *testing.T) {
	ch := make(chan int, 4)
	ch <- 1
	ch <- 2
	ch <- 3

	sub := gstest.NewSubscriber[int](1)
	source.FromChannel(testContext(t), ch).Subscribe(sub)

	require.True(t, sub.AwaitValues(1, waitTimeout))
	require.Equal(t, []int{1}, sub.Values())

	sub.Request(2)
	require.True(t, sub.AwaitValues(3, waitTimeout))
	require.Equal(t, []int{1, 2, 3}, sub.Values())
	require.False(t, sub.Terminated())
}

func TestFromChannel_ContextCancellation(t *testing.T) {
	cause := errors.New("shutting down")
	ctx, cancel := context.WithCancelCause(context.Background())

	ch := make(chan int)
	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.FromChannel(ctx, ch).Subscribe(sub)

	cancel(cause)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.ErrorIs(t, sub.Err(), cause)
}

func TestFromChannel_SecondSubscriberRejected(t *testing.T) {
	ch := make(chan int)
	pub := source.FromChannel(testContext(t), ch)

	first := gstest.NewSubscriber[int](0)
	pub.Subscribe(first)

	second := gstest.NewSubscriber[int](0)
	pub.Subscribe(second)

	require.True(t, second.AwaitDone(waitTimeout))
	require.ErrorIs(t, second.Err(), source.ErrAlreadySubscribed)
}

func TestFromChannel_CancelStopsReceiving(t *testing.T) {
	ch := make(chan int, 2)
	ch <- 1

	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.FromChannel(testContext(t), ch).Subscribe(sub)

	require.True(t, sub.AwaitValues(1, waitTimeout))
	sub.Cancel()

	// A value sent after cancellation is never delivered.
	ch <- 2
	require.False(t, sub.AwaitValues(2, 100*time.Millisecond))
	require.Equal(t, []int{1}, sub.Values())
}

// testContext returns a context cancelled when the test ends, matching the
// semantics of (*testing.T).Context from newer Go releases.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
