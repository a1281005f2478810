package toast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushExpires(t *testing.T) {
	q := NewQueue(30*time.Millisecond, zerolog.Nop())

	q.Push(KindInfo, "hello")
	require.Len(t, q.Toasts(), 1)

	assert.Eventually(t, func() bool {
		return len(q.Toasts()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestExpiryReleasesTimer(t *testing.T) {
	q := NewQueue(10*time.Millisecond, zerolog.Nop())
	q.Push(KindInfo, "bye")

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.toasts) == 0 && len(q.timers) == 0
	}, time.Second, 5*time.Millisecond, "fired timer must release its map entry")
}

func TestPushStickyDoesNotExpire(t *testing.T) {
	q := NewQueue(20*time.Millisecond, zerolog.Nop())

	q.PushSticky(KindError, "connection lost, refresh the page")
	time.Sleep(80 * time.Millisecond)

	require.Len(t, q.Toasts(), 1)
	assert.Equal(t, KindError, q.Toasts()[0].Kind)
}

func TestDismiss(t *testing.T) {
	q := NewQueue(time.Minute, zerolog.Nop())

	pushed := q.Push(KindSuccess, "saved")
	q.Push(KindInfo, "other")

	q.Dismiss(pushed.ID)

	toasts := q.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "other", toasts[0].Message)
}

func TestClear(t *testing.T) {
	q := NewQueue(time.Minute, zerolog.Nop())
	q.Push(KindInfo, "one")
	q.PushSticky(KindInfo, "two")

	q.Clear()
	assert.Empty(t, q.Toasts())
}

func TestOrderOldestFirst(t *testing.T) {
	q := NewQueue(time.Minute, zerolog.Nop())
	q.Push(KindInfo, "first")
	q.Push(KindInfo, "second")

	toasts := q.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "first", toasts[0].Message)
	assert.Equal(t, "second", toasts[1].Message)
}
