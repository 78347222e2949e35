package ftdiserial

import (
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Port presents a conventional serial-port contract on top of an FTDI
// adapter, plus two logical control-line setters that are synthesized from
// raw pin writes while the adapter is flipped into bit i/o mode.
//
// From the caller's point of view the control lines behave like a normal
// serial port's control outputs: callable at any time, observable by the
// target within a bounded delay. Internally each operation decides which
// adapter mode it needs and drives the BitIOController to get there.
type Port struct {
	mu     sync.Mutex
	ctrl   *BitIOController
	config Config
	closed bool

	// sequencing is set while a reset procedure runs; byte writes arriving
	// then are queued instead of forcing a passthrough round-trip mid-way
	// through the device's sampling window.
	sequencing bool
	pending    [][]byte

	idleTimer *time.Timer
}

// Open opens the FTDI adapter named by selector and returns a virtual serial
// port over it. The selector may be empty (first FTDI adapter), a
// "vid:pid[:serial]" pair, or a /dev/ttyUSB* path.
func Open(selector string, opts ...Option) (*Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	tr, err := openFTDI(selector, config)
	if err != nil {
		return nil, err
	}
	return newPort(tr, config), nil
}

// NewPort builds a virtual serial port over an already-open transport.
// Intended for embedding and for simulated transports in tests; Open is the
// normal entry point.
func NewPort(tr Transport, opts ...Option) (*Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	return newPort(tr, config), nil
}

func newPort(tr Transport, config Config) *Port {
	return &Port{
		ctrl:   NewBitIOController(tr, config),
		config: config,
	}
}

// Controller exposes the underlying BitIOController for diagnostic use
// (pin inspection, mode display). All mutation still goes through it.
func (p *Port) Controller() *BitIOController { return p.ctrl }

// Config returns the port's fixed configuration.
func (p *Port) Config() Config { return p.config }

// Close returns the adapter to passthrough and releases it. If a control
// line is still asserted the bit i/o state is left in place so the line
// keeps its level past the close.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.stopIdleLocked()
	p.closed = true

	if p.ctrl.AnyAsserted() {
		glog.V(1).Info("close: control line asserted, holding bit i/o state")
	} else if err := p.ctrl.EnterPassthroughMode(); err != nil {
		// Best effort: leave the adapter as a plain UART for the next user.
		glog.V(1).Infof("close: could not restore passthrough: %v", err)
	}
	return p.ctrl.Close()
}

// Read reads UART bytes from the target, forcing a return to passthrough
// first if a control-line operation left the adapter in bit i/o mode.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if p.sequencing {
		return 0, ErrSequenceBusy
	}
	if err := p.ensurePassthroughLocked(); err != nil {
		return 0, err
	}

	n, err := p.ctrl.Read(buf)
	if err != nil && !errors.Is(err, ErrReadTimeout) {
		return n, &PortIOError{Phase: PhaseByteTransfer, Op: "read", Err: err}
	}
	return n, err
}

// Write writes UART bytes to the target. Bytes written while a reset
// sequence is in progress are queued and delivered, in order, as soon as the
// sequence finishes and passthrough is restored; nothing is dropped or
// reordered.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if p.sequencing {
		queued := make([]byte, len(data))
		copy(queued, data)
		p.pending = append(p.pending, queued)
		glog.V(2).Infof("queued %d bytes during reset sequence", len(data))
		return len(data), nil
	}

	if err := p.ensurePassthroughLocked(); err != nil {
		return 0, err
	}
	n, err := p.ctrl.Write(data)
	if err != nil {
		return n, &PortIOError{Phase: PhaseByteTransfer, Op: "write", Err: err}
	}
	return n, nil
}

// SetResetLine asserts or releases the RESET control line.
func (p *Port) SetResetLine(asserted bool) error {
	return p.setControlLine(SignalReset, asserted)
}

// SetBootSelectLine asserts or releases the BOOT_SELECT control line.
func (p *Port) SetBootSelectLine(asserted bool) error {
	return p.setControlLine(SignalBootSelect, asserted)
}

func (p *Port) setControlLine(signal Signal, asserted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.applyControlLocked(signal, asserted)
}

// applyControlLocked enters bit i/o mode if needed and drives one pin. The
// port deliberately stays in bit i/o mode afterwards: reset sequences issue
// several line changes in quick succession, and a passthrough round-trip
// between each one would add latency and risk missing a timing window. The
// return to passthrough happens on the next byte operation, an explicit
// Settle, or after the idle threshold — but the idle timer only runs while
// both lines are released. Leaving bit i/o returns the pins to their UART
// functions, which would physically release a line the caller is still
// holding.
func (p *Port) applyControlLocked(signal Signal, asserted bool) error {
	if err := p.ctrl.EnterBitIOMode(); err != nil {
		return &PortIOError{Phase: PhaseModeSwitch, Op: "enter bit i/o", Err: err}
	}
	if err := p.ctrl.SetPin(signal, asserted); err != nil {
		return &PortIOError{Phase: PhaseByteTransfer, Op: "set " + signal.String(), Err: err}
	}
	if !p.sequencing {
		if p.ctrl.AnyAsserted() {
			p.stopIdleLocked()
		} else {
			p.scheduleIdleLocked()
		}
	}
	return nil
}

// LinesAsserted reports whether RESET or BOOT_SELECT is currently asserted.
// Callers that poll Read in a loop can use it to avoid forcing the port back
// to passthrough while a line is being held.
func (p *Port) LinesAsserted() bool {
	return p.ctrl.AnyAsserted()
}

// SetBaudRate reconfigures the UART baud rate on a live port. Flashing tools
// negotiate a faster rate once their stub is running; the control-line
// bindings and framing are unaffected.
func (p *Port) SetBaudRate(baud int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if _, _, err := baudDivisor(baud); err != nil {
		return err
	}
	p.config.BaudRate = baud
	if err := p.ctrl.SetUARTConfig(p.config.UART()); err != nil {
		return &PortIOError{Phase: PhaseModeSwitch, Op: "set baud rate", Err: err}
	}
	glog.V(1).Infof("baud rate changed to %d", baud)
	return nil
}

// Settle forces an immediate return to passthrough mode, delivering any
// queued bytes first.
func (p *Port) Settle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.ensurePassthroughLocked()
}

// Drain delivers any writes queued during a reset sequence and leaves the
// port in passthrough with its output handed to the adapter.
func (p *Port) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if p.sequencing {
		return ErrSequenceBusy
	}
	return p.ensurePassthroughLocked()
}

// FlushInput discards unread data buffered on the adapter.
func (p *Port) FlushInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if err := p.ctrl.PurgeInput(); err != nil {
		return &PortIOError{Phase: PhaseByteTransfer, Op: "flush input", Err: err}
	}
	return nil
}

// FlushOutput discards unwritten data buffered on the adapter, including any
// bytes queued during a reset sequence.
func (p *Port) FlushOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.pending = nil
	if err := p.ctrl.PurgeOutput(); err != nil {
		return &PortIOError{Phase: PhaseByteTransfer, Op: "flush output", Err: err}
	}
	return nil
}

// EnterBootloader runs the timed bootloader-entry sequence on the control
// lines. See ResetSequencer.
func (p *Port) EnterBootloader() error {
	return NewResetSequencer(p).EnterBootloader()
}

// HardReset runs the normal-run reset sequence on the control lines.
func (p *Port) HardReset() error {
	return NewResetSequencer(p).HardReset()
}

// ensurePassthroughLocked restores passthrough mode and delivers queued
// bytes in their original order.
func (p *Port) ensurePassthroughLocked() error {
	p.stopIdleLocked()

	if err := p.ctrl.EnterPassthroughMode(); err != nil {
		return &PortIOError{Phase: PhaseModeSwitch, Op: "enter passthrough", Err: err}
	}

	for len(p.pending) > 0 {
		chunk := p.pending[0]
		if _, err := p.ctrl.Write(chunk); err != nil {
			return &PortIOError{Phase: PhaseByteTransfer, Op: "flush queued write", Err: err}
		}
		p.pending = p.pending[1:]
	}
	return nil
}

// scheduleIdleLocked arms the timer that returns the port to passthrough if
// no further control-line or byte operation arrives.
func (p *Port) scheduleIdleLocked() {
	p.stopIdleLocked()
	p.idleTimer = time.AfterFunc(p.config.IdleThreshold, p.idleReturn)
}

func (p *Port) stopIdleLocked() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
}

func (p *Port) idleReturn() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.sequencing || p.ctrl.Mode() != ModeBitIO {
		return
	}
	// A late assert can land between the timer firing and the lock being
	// taken; an asserted line always wins over the idle return.
	if p.ctrl.AnyAsserted() {
		return
	}
	if err := p.ensurePassthroughLocked(); err != nil {
		glog.V(1).Infof("idle return to passthrough failed: %v", err)
	}
}

// beginSequence marks the port busy with a reset procedure. Byte writes
// queue until endSequence.
func (p *Port) beginSequence() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if p.sequencing {
		return ErrSequenceBusy
	}
	p.sequencing = true
	p.stopIdleLocked()
	return nil
}

// endSequence releases the port. If byte traffic queued up during the
// sequence it is delivered now; otherwise the idle timer decides when to
// leave bit i/o mode.
func (p *Port) endSequence() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequencing = false
	if len(p.pending) > 0 {
		if err := p.ensurePassthroughLocked(); err != nil {
			glog.V(1).Infof("post-sequence flush failed: %v", err)
		}
		return
	}
	// An aborted sequence can leave a line asserted; the idle timer stays
	// disarmed then, same as for a direct line operation.
	if p.ctrl.Mode() == ModeBitIO && !p.ctrl.AnyAsserted() {
		p.scheduleIdleLocked()
	}
}

// applySequenceStep is the sequencer's path to the control lines. It holds
// the same lock as every other operation, so a step can never interleave
// with a mode transition issued elsewhere.
func (p *Port) applySequenceStep(signal Signal, asserted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.applyControlLocked(signal, asserted)
}
