package ftdiserial

import "time"

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// Signal identifies one of the two logical control lines synthesized from
// bitbang pin writes.
type Signal int

const (
	SignalReset Signal = iota
	SignalBootSelect
)

func (s Signal) String() string {
	switch s {
	case SignalReset:
		return "RESET"
	case SignalBootSelect:
		return "BOOT_SELECT"
	default:
		return "unknown"
	}
}

// SignalBinding maps a logical control signal to a physical adapter pin and
// its polarity. Bindings are fixed configuration; they never change after the
// port is opened.
//
// Pin numbering follows the FTDI data bus in bitbang mode:
// D0=TXD, D1=RXD, D2=RTS, D3=CTS, D4=DTR, D5=DSR, D6=DCD, D7=RI.
type SignalBinding struct {
	Pin       uint8
	ActiveLow bool
}

// Config holds the configuration for a virtual serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration

	// Control-line bindings and reset timing
	Reset         SignalBinding
	BootSelect    SignalBinding
	ResetPulse    time.Duration // minimum hold for the target to register a reset
	BootSample    time.Duration // hold after reset release while BOOT_SELECT is sampled
	IdleThreshold time.Duration // bit i/o dwell time before auto-return to passthrough
}

// Option is a functional option for configuring a virtual serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
//
// The default pin bindings follow the common FTDI auto-reset wiring: RESET on
// CTS (D3), BOOT_SELECT on RTS (D2), both active-low. Pulse and sample
// durations match the usual ESP-style boot ROM minimums; they are tunable
// because target chips vary.
func DefaultConfig() Config {
	return Config{
		BaudRate:      115200,
		DataBits:      8,
		StopBits:      1,
		Parity:        ParityNone,
		ReadTimeout:   5 * time.Second,
		Reset:         SignalBinding{Pin: 3, ActiveLow: true},
		BootSelect:    SignalBinding{Pin: 2, ActiveLow: true},
		ResetPulse:    100 * time.Millisecond,
		BootSample:    50 * time.Millisecond,
		IdleThreshold: 50 * time.Millisecond,
	}
}

// UART returns the passthrough framing portion of the configuration.
func (c Config) UART() UARTConfig {
	return UARTConfig{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, _, err := baudDivisor(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (7 or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits != 7 && bits != 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets the deadline for Read to accumulate the requested data
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithResetBinding binds the RESET signal to a physical pin and polarity
func WithResetBinding(b SignalBinding) Option {
	return func(c *Config) error {
		if b.Pin > 7 {
			return ErrInvalidConfig
		}
		c.Reset = b
		return nil
	}
}

// WithBootSelectBinding binds the BOOT_SELECT signal to a physical pin and polarity
func WithBootSelectBinding(b SignalBinding) Option {
	return func(c *Config) error {
		if b.Pin > 7 {
			return ErrInvalidConfig
		}
		c.BootSelect = b
		return nil
	}
}

// WithResetPulse sets how long RESET stays asserted during a reset sequence
func WithResetPulse(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.ResetPulse = d
		return nil
	}
}

// WithBootSample sets how long BOOT_SELECT is held stable after reset release
func WithBootSample(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.BootSample = d
		return nil
	}
}

// WithIdleThreshold sets how long the port may linger in bit i/o mode after
// the last control-line change before returning to passthrough on its own
func WithIdleThreshold(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.IdleThreshold = d
		return nil
	}
}
