package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_invalidCapacity(t *testing.T) {
	assert := assert.New(t)

	for _, capacity := range []int{0, -1} {
		q, err := New[int](capacity)
		assert.Nil(q)
		assert.ErrorIs(err, ErrInvalidCapacity)
	}
}

func Test_Queue_fifo(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](3)
	require.NoError(t, err)

	assert.True(q.Send(1, 0))
	assert.True(q.Send(2, 0))
	assert.True(q.Send(3, 0))

	// Queue is full
	assert.False(q.Send(4, 0))
	assert.Equal(0, q.SpacesAvailable())

	for want := 1; want <= 3; want++ {
		val, ok := q.Receive(0)
		assert.True(ok)
		assert.Equal(want, val)
	}

	assert.Equal(3, q.SpacesAvailable())
}

func Test_Queue_nonBlockingReceiveEmpty(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	_, ok := q.Receive(0)
	assert.False(ok)
}

func Test_Queue_timeoutExpiry(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	start := time.Now()
	_, ok := q.Receive(20 * time.Millisecond)
	assert.False(ok)
	assert.GreaterOrEqual(time.Since(start), 20*time.Millisecond)

	// Full queue, send must time out as well
	assert.True(q.Send(1, 0))
	assert.False(q.Send(2, 20*time.Millisecond))
}

func Test_Queue_blockingReceive(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	received := make(chan int, 1)

	go func() {
		val, ok := q.Receive(Forever)
		if ok {
			received <- val
		}
	}()

	// Give the consumer time to block
	time.Sleep(10 * time.Millisecond)

	assert.True(q.Send(42, 0))

	select {
	case val := <-received:
		assert.Equal(42, val)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked receive to complete")
	}
}

func Test_Queue_blockingSend(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	assert.True(q.Send(1, 0))

	sent := make(chan struct{})

	go func() {
		if q.Send(2, Forever) {
			close(sent)
		}
	}()

	time.Sleep(10 * time.Millisecond)

	val, ok := q.Receive(0)
	assert.True(ok)
	assert.Equal(1, val)

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked send to complete")
	}

	val, ok = q.Receive(0)
	assert.True(ok)
	assert.Equal(2, val)
}

func Test_Queue_peek(t *testing.T) {
	assert := assert.New(t)

	q, err := New[string](2)
	require.NoError(t, err)

	_, ok := q.Peek(0)
	assert.False(ok)

	assert.True(q.Send("first", 0))
	assert.True(q.Send("second", 0))

	val, ok := q.Peek(0)
	assert.True(ok)
	assert.Equal("first", val)

	// Peek must not consume
	assert.Equal(2, q.Len())

	val, ok = q.Receive(0)
	assert.True(ok)
	assert.Equal("first", val)
}

func Test_Queue_closeUnblocksWaiters(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		_, err := q.ReceiveContext(t.Context())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked receive to unblock")
	}

	// Operations after close fail
	assert.False(q.Send(1, 0))
	_, ok := q.Receive(0)
	assert.False(ok)
}

func Test_Queue_expiredContext(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An already-expired context must not lose the wakeup of the
	// waiter goroutine
	for range 100 {
		done := make(chan error, 1)

		go func() {
			_, err := q.ReceiveContext(ctx)
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("receive with expired context did not return")
		}
	}
}

func Test_Queue_shortTimeouts(t *testing.T) {
	assert := assert.New(t)

	q, err := New[int](1)
	require.NoError(t, err)

	// Timeouts short enough to expire before the waiter parks
	for range 200 {
		done := make(chan bool, 1)

		go func() {
			_, ok := q.Receive(50 * time.Microsecond)
			done <- ok
		}()

		select {
		case ok := <-done:
			assert.False(ok)
		case <-time.After(time.Second):
			t.Fatal("receive with short timeout did not return")
		}
	}

	require.True(t, q.Send(1, 0))

	for range 200 {
		done := make(chan bool, 1)

		go func() {
			done <- q.Send(2, 50*time.Microsecond)
		}()

		select {
		case ok := <-done:
			assert.False(ok)
		case <-time.After(time.Second):
			t.Fatal("send with short timeout did not return")
		}
	}
}

func Test_Queue_producerConsumer(t *testing.T) {
	assert := assert.New(t)

	const items = 10_000

	q, err := New[int](8)
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for want := range items {
			val, ok := q.Receive(Forever)
			if !ok {
				return
			}

			assert.Equal(want, val)
		}
	}()

	for val := range items {
		assert.True(q.Send(val, Forever))
	}

	<-done
}
