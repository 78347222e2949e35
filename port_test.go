package ftdiserial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPort(t *testing.T, opts ...Option) (*Port, *simTransport) {
	t.Helper()
	tr := newSimTransport()
	port, err := NewPort(tr, opts...)
	require.NoError(t, err)
	return port, tr
}

func TestControlLineChangesAreBatched(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.SetResetLine(true))
	require.NoError(t, port.SetBootSelectLine(true))
	require.NoError(t, port.SetResetLine(false))

	// One mode switch serves all three line changes.
	require.Equal(t, 1, tr.countOp("bitbang"))
	require.Equal(t, 3, tr.countOp("bits"))
	require.Equal(t, ModeBitIO, port.Controller().Mode())
}

func TestByteIOForcesReturnToPassthrough(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.SetResetLine(true))
	require.Equal(t, ModeBitIO, port.Controller().Mode())

	n, err := port.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, ModePassthrough, port.Controller().Mode())
	require.Equal(t, []byte("hello"), tr.writtenBytes())
}

func TestByteIntegrityAcrossModeSwitches(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	_, err := port.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, port.SetResetLine(true))
	require.NoError(t, port.SetResetLine(false))
	_, err = port.Write([]byte("def"))
	require.NoError(t, err)

	// All bytes delivered once, in order, despite the mode round trip.
	require.Equal(t, []byte("abcdef"), tr.writtenBytes())
}

func TestWritesQueueDuringResetSequence(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.beginSequence())
	n, err := port.Write([]byte("first"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	_, err = port.Write([]byte(" second"))
	require.NoError(t, err)

	// Nothing reaches the transport while the sequence holds the port.
	require.Equal(t, 0, tr.countOp("write"))

	port.endSequence()
	require.Equal(t, []byte("first second"), tr.writtenBytes())
	require.Equal(t, ModePassthrough, port.Controller().Mode())
}

func TestReadRejectedDuringResetSequence(t *testing.T) {
	port, _ := newTestPort(t)

	require.NoError(t, port.beginSequence())
	defer port.endSequence()

	_, err := port.Read(make([]byte, 8))
	require.ErrorIs(t, err, ErrSequenceBusy)
}

func TestSettleReturnsToPassthrough(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.SetBootSelectLine(true))
	require.Equal(t, ModeBitIO, port.Controller().Mode())

	require.NoError(t, port.Settle())
	require.Equal(t, ModePassthrough, port.Controller().Mode())
	require.Equal(t, 1, tr.countOp("uart"))
}

func TestIdleThresholdReturnsToPassthrough(t *testing.T) {
	port, _ := newTestPort(t, WithIdleThreshold(10*time.Millisecond))

	require.NoError(t, port.SetResetLine(true))
	require.NoError(t, port.SetResetLine(false))
	require.Equal(t, ModeBitIO, port.Controller().Mode())

	require.Eventually(t, func() bool {
		return port.Controller().Mode() == ModePassthrough
	}, time.Second, 2*time.Millisecond)
}

func TestIdleTimerHoldsAssertedLine(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(10*time.Millisecond))

	require.NoError(t, port.SetResetLine(true))
	time.Sleep(100 * time.Millisecond)

	// Leaving bit i/o returns the pin to its UART function, which would
	// physically release RESET; the adapter must hold until the caller
	// releases the line.
	require.Equal(t, ModeBitIO, port.Controller().Mode())
	require.Equal(t, 0, tr.countOp("uart"))
	require.Len(t, tr.bitWrites(), 1)
	require.True(t, port.LinesAsserted())

	require.NoError(t, port.SetResetLine(false))
	require.Eventually(t, func() bool {
		return port.Controller().Mode() == ModePassthrough
	}, time.Second, 2*time.Millisecond)
}

func TestCloseHoldsAssertedLine(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.SetResetLine(true))
	require.NoError(t, port.Close())

	require.Equal(t, 0, tr.countOp("uart"), "close must not restore UART framing over a held line")
	require.Equal(t, 1, tr.countOp("close"))
}

func TestReadSurfacesTimeout(t *testing.T) {
	port, _ := newTestPort(t)

	_, err := port.Read(make([]byte, 8))
	require.ErrorIs(t, err, ErrReadTimeout)
}

func TestReadReturnsBufferedData(t *testing.T) {
	port, tr := newTestPort(t)
	tr.readData = []byte("pong")

	buf := make([]byte, 16)
	n, err := port.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), buf[:n])
}

func TestModeSwitchFailureIsAttributed(t *testing.T) {
	port, tr := newTestPort(t)
	tr.failAt["bitbang"] = 1

	err := port.SetResetLine(true)
	var ioErr *PortIOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, PhaseModeSwitch, ioErr.Phase)
	require.ErrorIs(t, err, errSimulated)
}

func TestClosedPortRejectsOperations(t *testing.T) {
	port, _ := newTestPort(t)
	require.NoError(t, port.Close())

	require.ErrorIs(t, port.Close(), ErrPortClosed)
	require.ErrorIs(t, port.SetResetLine(true), ErrPortClosed)
	require.ErrorIs(t, port.Settle(), ErrPortClosed)
	_, err := port.Write([]byte("x"))
	require.ErrorIs(t, err, ErrPortClosed)
	_, err = port.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrPortClosed)
}

func TestSetBaudRateReconfiguresUART(t *testing.T) {
	port, tr := newTestPort(t)

	require.NoError(t, port.SetBaudRate(921600))

	uart, ok := tr.lastUART()
	require.True(t, ok)
	require.Equal(t, 921600, uart.BaudRate)
}

func TestSetBaudRateRejectsUnreachableRate(t *testing.T) {
	port, tr := newTestPort(t)

	require.ErrorIs(t, port.SetBaudRate(3), ErrInvalidBaudRate)
	_, ok := tr.lastUART()
	require.False(t, ok, "invalid rate must not touch the adapter")
}

func TestDrainReturnsToPassthrough(t *testing.T) {
	port, tr := newTestPort(t, WithIdleThreshold(time.Hour))

	require.NoError(t, port.SetResetLine(true))
	require.Equal(t, ModeBitIO, port.Controller().Mode())

	require.NoError(t, port.Drain())
	require.Equal(t, ModePassthrough, port.Controller().Mode())
	require.Equal(t, 1, tr.countOp("uart"))
}

func TestDrainRejectedDuringResetSequence(t *testing.T) {
	port, _ := newTestPort(t)

	require.NoError(t, port.beginSequence())
	defer port.endSequence()

	require.ErrorIs(t, port.Drain(), ErrSequenceBusy)
}

func TestFlushOutputDropsQueuedWrites(t *testing.T) {
	port, tr := newTestPort(t)

	require.NoError(t, port.beginSequence())
	_, err := port.Write([]byte("stale"))
	require.NoError(t, err)
	require.NoError(t, port.FlushOutput())
	port.endSequence()

	require.Empty(t, tr.writtenBytes())
}
