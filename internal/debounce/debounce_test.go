package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBurstFiresOnce(t *testing.T) {
	d := New(30 * time.Millisecond)
	var calls, last atomic.Int64

	for i := int64(1); i <= 5; i++ {
		v := i
		d.Trigger(func() {
			calls.Add(1)
			last.Store(v)
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int64(1), calls.Load())
	require.Equal(t, int64(5), last.Load())
}

func TestSpacedCallsEachFire(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls atomic.Int64

	d.Trigger(func() { calls.Add(1) })
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 2*time.Millisecond)

	d.Trigger(func() { calls.Add(1) })
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 2*time.Millisecond)
}

func TestStopCancelsPending(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls atomic.Int64

	d.Trigger(func() { calls.Add(1) })
	require.True(t, d.Stop())
	require.False(t, d.Stop())

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, calls.Load())
}
