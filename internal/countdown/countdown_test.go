package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	ticks []int
	fires int
}

func setup(t *testing.T) (*eventloop.Loop, *Timer, *recorder) {
	t.Helper()
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	rec := &recorder{}
	timer := New(loop, func(n int) { rec.ticks = append(rec.ticks, n) }, func() { rec.fires++ })
	timer.SetInterval(2 * time.Millisecond)
	return loop, timer, rec
}

func onLoop(t *testing.T, loop *eventloop.Loop, fn func()) {
	t.Helper()
	require.NoError(t, loop.Invoke(context.Background(), fn))
}

func TestStart_CountsDownAndFiresOnce(t *testing.T) {
	loop, timer, rec := setup(t)

	onLoop(t, loop, func() {
		assert.False(t, timer.Start(3))
		assert.True(t, timer.Counting())
		assert.Equal(t, 3, timer.Remaining())
	})

	require.Eventually(t, func() bool {
		var fires int
		_ = loop.Invoke(context.Background(), func() { fires = rec.fires })
		return fires == 1
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	onLoop(t, loop, func() {
		assert.Equal(t, []int{3, 2, 1, 0}, rec.ticks)
		assert.Equal(t, 1, rec.fires)
		assert.False(t, timer.Counting())
	})
}

func TestStart_ZeroFiresImmediately(t *testing.T) {
	loop, timer, rec := setup(t)

	onLoop(t, loop, func() {
		assert.True(t, timer.Start(0))
		assert.Equal(t, 1, rec.fires)
		assert.False(t, timer.Counting())
	})

	time.Sleep(10 * time.Millisecond)
	onLoop(t, loop, func() {
		assert.Empty(t, rec.ticks, "a zero-length countdown never shows the overlay")
		assert.Equal(t, 1, rec.fires)
	})
}

func TestCancel_AtTickThreeNeverFires(t *testing.T) {
	loop, timer, rec := setup(t)

	var cancelled bool
	timer.onTick = func(n int) {
		rec.ticks = append(rec.ticks, n)
		if n == 3 && !cancelled {
			cancelled = timer.Cancel()
		}
	}

	onLoop(t, loop, func() { timer.Start(5) })
	require.Eventually(t, func() bool {
		var c bool
		_ = loop.Invoke(context.Background(), func() { c = cancelled })
		return c
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	onLoop(t, loop, func() {
		assert.Equal(t, []int{5, 4, 3, 0}, rec.ticks)
		assert.Zero(t, rec.fires)
		assert.False(t, timer.Counting())
		assert.Zero(t, timer.Remaining())
	})
}

func TestCancel_Idle(t *testing.T) {
	loop, timer, rec := setup(t)
	onLoop(t, loop, func() {
		assert.False(t, timer.Cancel())
		assert.Empty(t, rec.ticks)
	})
}

func TestStart_RestartReplacesRunningCountdown(t *testing.T) {
	loop, timer, rec := setup(t)
	timer.SetInterval(time.Hour)

	onLoop(t, loop, func() {
		timer.Start(5)
		timer.Start(2)
		assert.Equal(t, 2, timer.Remaining())
		assert.Equal(t, []int{5, 0, 2}, rec.ticks)
		timer.Cancel()
	})
}
