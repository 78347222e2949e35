package ftdiserial

import (
	"sync"

	"github.com/golang/glog"
)

// Mode is the adapter's operating mode. Once a controller is created the
// adapter is in exactly one mode at any instant.
type Mode int

const (
	ModePassthrough Mode = iota
	ModeBitIO
)

func (m Mode) String() string {
	switch m {
	case ModePassthrough:
		return "passthrough"
	case ModeBitIO:
		return "bit i/o"
	default:
		return "unknown"
	}
}

// BitIOController owns the adapter transport and is the only path through
// which its operating mode and pin levels change. Mode transitions are the
// highest-latency, highest-risk operation on the adapter, so every transition
// and pin write is funneled through one mutex; no caller can observe a torn
// mode.
type BitIOController struct {
	mu   sync.Mutex
	tr   Transport
	uart UARTConfig

	reset SignalBinding
	boot  SignalBinding

	mode Mode

	// levels holds the logical level of every pin while in bit i/o mode;
	// directions marks which pins we drive. Pins bound to the two control
	// signals are always outputs in bit i/o mode, all other pins are left
	// as inputs so unrelated wiring is not disturbed.
	levels     byte
	directions byte
}

// NewBitIOController wraps an opened transport. The adapter is assumed to be
// in UART passthrough, which is how openFTDI leaves it.
func NewBitIOController(tr Transport, cfg Config) *BitIOController {
	c := &BitIOController{
		tr:    tr,
		uart:  cfg.UART(),
		reset: cfg.Reset,
		boot:  cfg.BootSelect,
		mode:  ModePassthrough,
	}
	c.directions = 1<<c.reset.Pin | 1<<c.boot.Pin
	c.levels = c.deassertedLevels()
	return c
}

// deassertedLevels is the level byte with both control signals released.
func (c *BitIOController) deassertedLevels() byte {
	var levels byte
	if c.reset.ActiveLow {
		levels |= 1 << c.reset.Pin
	}
	if c.boot.ActiveLow {
		levels |= 1 << c.boot.Pin
	}
	return levels
}

func (c *BitIOController) binding(signal Signal) (SignalBinding, bool) {
	switch signal {
	case SignalReset:
		return c.reset, true
	case SignalBootSelect:
		return c.boot, true
	default:
		return SignalBinding{}, false
	}
}

// Mode returns the current operating mode.
func (c *BitIOController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// EnterBitIOMode switches the adapter into bit i/o mode. Calling it while
// already in bit i/o mode is a no-op; the hardware reconfiguration happens
// once per transition.
func (c *BitIOController) EnterBitIOMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enterBitIOLocked()
}

func (c *BitIOController) enterBitIOLocked() error {
	if c.mode == ModeBitIO {
		return nil
	}
	// In async bitbang the level bytes queue behind any UART bytes still in
	// the chip's FIFO, so in-flight traffic drains before the pins change
	// meaning; no purge here, purging would drop application data.
	if err := c.tr.ConfigureBitBang(c.directions); err != nil {
		return err
	}
	c.mode = ModeBitIO
	glog.V(1).Infof("mode: passthrough -> bit i/o (directions %08b, levels %08b)", c.directions, c.levels)
	return nil
}

// EnterPassthroughMode restores UART framing at exactly the baud rate and
// framing that were active before the last entry into bit i/o mode. No-op if
// already in passthrough.
func (c *BitIOController) EnterPassthroughMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enterPassthroughLocked()
}

func (c *BitIOController) enterPassthroughLocked() error {
	if c.mode == ModePassthrough {
		return nil
	}
	// Drop any level bytes the chip has not clocked out yet, then restore
	// the saved UART configuration.
	if err := c.tr.PurgeOutput(); err != nil {
		return err
	}
	if err := c.tr.ConfigureUART(c.uart); err != nil {
		return err
	}
	c.mode = ModePassthrough
	glog.V(1).Infof("mode: bit i/o -> passthrough (%d baud)", c.uart.BaudRate)
	return nil
}

// SetPin drives the pin bound to signal according to its polarity. Requires
// bit i/o mode; calling it in passthrough is a programming error, not
// something the controller corrects by guessing intent.
func (c *BitIOController) SetPin(signal Signal, asserted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeBitIO {
		return ErrNotInBitIOMode
	}
	b, ok := c.binding(signal)
	if !ok {
		return ErrInvalidConfig
	}

	next := c.levels
	high := asserted != b.ActiveLow
	if high {
		next |= 1 << b.Pin
	} else {
		next &^= 1 << b.Pin
	}
	// Commit the cached level only once the hardware has it; a failed write
	// must not make a later write apply this change silently.
	if err := c.tr.WriteBits(next); err != nil {
		return err
	}
	c.levels = next
	glog.V(2).Infof("%s %s (pin %d, levels %08b)", signal, assertWord(asserted), b.Pin, c.levels)
	return nil
}

// ReadPin samples the hardware level of the pin bound to signal and reports
// whether the signal is asserted. Same mode precondition as SetPin.
func (c *BitIOController) ReadPin(signal Signal) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeBitIO {
		return false, ErrNotInBitIOMode
	}
	b, ok := c.binding(signal)
	if !ok {
		return false, ErrInvalidConfig
	}

	raw, err := c.tr.ReadBits()
	if err != nil {
		return false, err
	}
	high := raw&(1<<b.Pin) != 0
	return high != b.ActiveLow, nil
}

// AnyAsserted reports whether either control signal is currently held at its
// asserted level.
func (c *BitIOController) AnyAsserted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels != c.deassertedLevels()
}

// ReadAllPins samples the raw level mask of the whole data port. Works in
// either mode; diagnostic use.
func (c *BitIOController) ReadAllPins() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.ReadBits()
}

// SetUARTConfig swaps the saved UART configuration. Applied immediately when
// in passthrough, otherwise on the next passthrough entry.
func (c *BitIOController) SetUARTConfig(cfg UARTConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.uart = cfg
	if c.mode != ModePassthrough {
		return nil
	}
	return c.tr.ConfigureUART(cfg)
}

// Write moves UART bytes to the target. Requires passthrough mode.
func (c *BitIOController) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModePassthrough {
		return 0, ErrNotInPassthroughMode
	}
	return c.tr.Write(data)
}

// Read receives UART bytes from the target. Requires passthrough mode.
func (c *BitIOController) Read(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModePassthrough {
		return 0, ErrNotInPassthroughMode
	}
	return c.tr.Read(buf)
}

// PurgeInput discards unread adapter input.
func (c *BitIOController) PurgeInput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.PurgeInput()
}

// PurgeOutput discards unwritten adapter output.
func (c *BitIOController) PurgeOutput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.PurgeOutput()
}

// Close releases the adapter.
func (c *BitIOController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.Close()
}

func assertWord(asserted bool) string {
	if asserted {
		return "asserted"
	}
	return "deasserted"
}
