package source_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/groupstream/source"
	gstest "github.com/arloliu/groupstream/testing"
	"github.com/arloliu/groupstream/types"
)

const waitTimeout = 2 * time.Second

func TestFromSlice_EmitsAllAndCompletes(t *testing.T) {
	sub := gstest.NewSubscriber[string](types.Unbounded)
	source.FromSlice([]string{"a", "b", "c"}).Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.Equal(t, []string{"a", "b", "c"}, sub.Values())
	require.True(t, sub.Completed())
}

func TestFromSlice_RespectsDemand(t *testing.T) {
	sub := gstest.NewSubscriber[int](2)
	source.FromSlice([]int{1, 2, 3, 4}).Subscribe(sub)

	require.Equal(t, []int{1, 2}, sub.Values())
	require.False(t, sub.Terminated())

	sub.Request(1)
	require.Equal(t, []int{1, 2, 3}, sub.Values())

	sub.Request(5)
	require.True(t, sub.AwaitDone(waitTimeout))
	require.Equal(t, []int{1, 2, 3, 4}, sub.Values())
}

func TestFromSlice_RequestFromOnNextDoesNotRecurse(t *testing.T) {
	// A subscriber that requests one more element from inside OnNext; the
	// emission loop must fold the request in instead of recursing per value.
	const n = 100000

	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	sub := &reentrantSubscriber{}
	source.FromSlice(items).Subscribe(sub)

	require.True(t, sub.completed)
	require.Equal(t, n, sub.count)
}

type reentrantSubscriber struct {
	sub       types.Subscription
	count     int
	completed bool
}

func (s *reentrantSubscriber) OnSubscribe(sub types.Subscription) {
	s.sub = sub
	sub.Request(1)
}

func (s *reentrantSubscriber) OnNext(_ int) {
	s.count++
	s.sub.Request(1)
}

func (s *reentrantSubscriber) OnError(_ error) {}
func (s *reentrantSubscriber) OnComplete()     { s.completed = true }

func TestFromSlice_Cancel(t *testing.T) {
	sub := gstest.NewSubscriber[int](2)
	source.FromSlice([]int{1, 2, 3, 4}).Subscribe(sub)

	sub.Cancel()
	sub.Request(10)

	require.Equal(t, []int{1, 2}, sub.Values())
	require.False(t, sub.Terminated())
}

func TestFromSlice_NonPositiveRequest(t *testing.T) {
	sub := gstest.NewSubscriber[int](0)
	source.FromSlice([]int{1, 2}).Subscribe(sub)

	sub.Request(0)
	require.True(t, sub.AwaitDone(waitTimeout))
	require.ErrorIs(t, sub.Err(), source.ErrNonPositiveRequest)
}

func TestJust(t *testing.T) {
	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.Just(7, 8, 9).Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.Equal(t, []int{7, 8, 9}, sub.Values())
}

func TestRange(t *testing.T) {
	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.Range(5, 3).Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.Equal(t, []int{5, 6, 7}, sub.Values())
}

func TestEmpty(t *testing.T) {
	sub := gstest.NewSubscriber[int](0)
	source.Empty[int]().Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.True(t, sub.Completed())
	require.Empty(t, sub.Values())
}

func TestError(t *testing.T) {
	boom := errors.New("boom")

	sub := gstest.NewSubscriber[int](types.Unbounded)
	source.Error[int](boom).Subscribe(sub)

	require.True(t, sub.AwaitDone(waitTimeout))
	require.ErrorIs(t, sub.Err(), boom)
	require.Empty(t, sub.Values())
}
