package ftdiserial

// UARTConfig describes the byte-stream framing the adapter uses while in
// passthrough mode. BitIOController keeps the last applied value so the exact
// framing can be restored after a bit i/o excursion.
type UARTConfig struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   Parity
}

// Transport is the capability set the core needs from a USB/UART adapter.
// Exactly one implementation talks to hardware (the FTDI transport in this
// package); tests substitute a simulated one.
//
// The adapter is always in exactly one of two operating modes:
// UART passthrough (after ConfigureUART) or asynchronous bitbang
// (after ConfigureBitBang). Transport implementations do not track which;
// that is BitIOController's job.
type Transport interface {
	// ConfigureUART restores UART framing at the given baud rate. It also
	// leaves bitbang mode if the adapter was in it.
	ConfigureUART(cfg UARTConfig) error

	// ConfigureBitBang switches the adapter into asynchronous bitbang mode.
	// Bits set in directions are driven as outputs, cleared bits are inputs.
	ConfigureBitBang(directions byte) error

	// WriteBits drives the output pins to the given levels. Only meaningful
	// in bitbang mode.
	WriteBits(levels byte) error

	// ReadBits samples the current level of all pins.
	ReadBits() (byte, error)

	// Write and Read move UART byte traffic. Only meaningful in passthrough
	// mode.
	Write(data []byte) (int, error)
	Read(buf []byte) (int, error)

	// PurgeInput and PurgeOutput discard buffered data on the adapter.
	PurgeInput() error
	PurgeOutput() error

	Close() error
}
