package axisplot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(fixedGenerator(testNow, 0.5))
}

func receiveFrame(t *testing.T, c <-chan Frame) Frame {
	t.Helper()

	select {
	case frame := <-c:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestRenderBroadcaster(t *testing.T) {
	t.Run("BroadcastsToRegisteredChannels", func(t *testing.T) {
		input := make(chan Revision)
		b := NewRenderBroadcaster(input, newTestPipeline())

		c1 := make(chan Frame, 4)
		c2 := make(chan Frame, 4)
		b.RegisterChannel(context.Background(), c1)
		b.RegisterChannel(context.Background(), c2)

		_, ok := b.Latest()
		assert.False(t, ok)

		b.Start(context.Background())

		input <- Revision{Number: 1, Config: twoAxisConfig()}

		for _, c := range []chan Frame{c1, c2} {
			frame := receiveFrame(t, c)
			require.NoError(t, frame.Err)
			assert.Equal(t, uint64(1), frame.Revision)
			assert.Len(t, frame.Model.Series, 3)
			assert.Equal(t, 3, frame.Model.TimeRangeDays)
		}

		close(input)
		b.Wait()
		assert.NoError(t, b.Err())

		latest, ok := b.Latest()
		require.True(t, ok)
		assert.Equal(t, uint64(1), latest.Revision)
	})

	t.Run("NewChannelGetsLatestFrame", func(t *testing.T) {
		input := make(chan Revision)
		b := NewRenderBroadcaster(input, newTestPipeline())
		b.Start(context.Background())

		early := make(chan Frame, 4)
		b.RegisterChannel(context.Background(), early)

		input <- Revision{Number: 7, Config: twoAxisConfig()}
		receiveFrame(t, early)

		late := make(chan Frame, 4)
		b.RegisterChannel(context.Background(), late)

		frame := receiveFrame(t, late)
		assert.Equal(t, uint64(7), frame.Revision)

		close(input)
		b.Wait()
	})

	t.Run("DeregisteredChannelStopsReceiving", func(t *testing.T) {
		input := make(chan Revision)
		b := NewRenderBroadcaster(input, newTestPipeline())

		kept := make(chan Frame, 4)
		removed := make(chan Frame, 4)
		b.RegisterChannel(context.Background(), kept)
		b.RegisterChannel(context.Background(), removed)
		b.DeregisterChannel(context.Background(), removed)

		b.Start(context.Background())
		input <- Revision{Number: 1, Config: twoAxisConfig()}
		receiveFrame(t, kept)

		close(input)
		b.Wait()

		assert.Empty(t, removed)
	})

	t.Run("RenderErrorIsBroadcast", func(t *testing.T) {
		input := make(chan Revision)
		b := NewRenderBroadcaster(input, newTestPipeline())

		c := make(chan Frame, 4)
		b.RegisterChannel(context.Background(), c)
		b.Start(context.Background())

		input <- Revision{Number: 3, Config: ChartConfig{TimeRangeDays: 0}}

		frame := receiveFrame(t, c)
		assert.Equal(t, uint64(3), frame.Revision)
		assert.ErrorIs(t, frame.Err, ErrInvalidTimeRange)
		assert.Empty(t, frame.Model.Series)

		// A bad revision does not stop the broadcaster.
		input <- Revision{Number: 4, Config: twoAxisConfig()}
		frame = receiveFrame(t, c)
		assert.NoError(t, frame.Err)

		close(input)
		b.Wait()
		assert.NoError(t, b.Err())
	})

	t.Run("StalledChannelDoesNotBlock", func(t *testing.T) {
		input := make(chan Revision)
		b := NewRenderBroadcaster(input, newTestPipeline())

		stalled := make(chan Frame, 1)
		b.RegisterChannel(context.Background(), stalled)
		b.Start(context.Background())

		for number := uint64(1); number <= 5; number++ {
			select {
			case input <- Revision{Number: number, Config: twoAxisConfig()}:
			case <-time.After(2 * time.Second):
				t.Fatalf("broadcaster blocked before revision %d", number)
			}
		}

		require.Eventually(t, func() bool {
			latest, ok := b.Latest()
			return ok && latest.Revision == 5
		}, 2*time.Second, 10*time.Millisecond)

		// Registering another channel does not wait on the stalled one either.
		late := make(chan Frame, 1)
		b.RegisterChannel(context.Background(), late)
		assert.Equal(t, uint64(5), receiveFrame(t, late).Revision)

		require.Len(t, stalled, 1)
		assert.Equal(t, uint64(5), receiveFrame(t, stalled).Revision)

		close(input)
		b.Wait()
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := NewRenderBroadcaster(make(chan Revision), newTestPipeline())
		b.Start(ctx)

		cancel()
		b.Wait()
		assert.ErrorIs(t, b.Err(), context.Canceled)
	})

	t.Run("FedByConfigStore", func(t *testing.T) {
		store := newTestStore(t, DefaultHistorySize)
		b := NewRenderBroadcaster(store.Watch(DefaultWatchBufferSize), newTestPipeline())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c := make(chan Frame, 4)
		b.RegisterChannel(ctx, c)
		b.Start(ctx)

		assert.Equal(t, uint64(1), receiveFrame(t, c).Revision)

		_, err := store.Apply(func(config ChartConfig) ChartConfig {
			return RemoveAxis(config, "B")
		})
		require.NoError(t, err)

		frame := receiveFrame(t, c)
		assert.Equal(t, uint64(2), frame.Revision)
		assert.Empty(t, frame.Model.RightAxes)
		assert.Len(t, frame.Model.Series, 2)

		cancel()
		b.Wait()
	})
}
