//go:build linux

package serial

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTTYPair(t *testing.T) (*os.File, *TTY) {
	t.Helper()

	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	tty, err := Open(TTYConfig{
		Device:   slave.Name(),
		BaudRate: 115200,
	})
	require.NoError(t, err)
	t.Cleanup(func() { tty.Close() })

	return master, tty
}

func waitAvailable(t *testing.T, src Source) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !src.Available() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for data")
		}

		time.Sleep(time.Millisecond)
	}
}

func Test_TTY_readBytes(t *testing.T) {
	assert := assert.New(t)

	master, tty := openTTYPair(t)

	assert.False(tty.Available())

	_, err := master.Write([]byte("ok\r\n"))
	require.NoError(t, err)

	got := make([]byte, 0, 4)
	for len(got) < 4 {
		waitAvailable(t, tty)

		b, err := tty.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}

	assert.Equal([]byte("ok\r\n"), got)
}

func Test_TTY_writeBytes(t *testing.T) {
	assert := assert.New(t)

	master, tty := openTTYPair(t)

	for _, b := range []byte("pong\r\n") {
		require.NoError(t, tty.WriteByte(b))
	}

	buf := make([]byte, 16)
	n, err := master.Read(buf)
	require.NoError(t, err)

	assert.Equal("pong\r\n", string(buf[:n]))
}

func Test_TTY_openMissingDevice(t *testing.T) {
	_, err := Open(TTYConfig{Device: "/dev/filo-does-not-exist"})
	assert.Error(t, err)
}
