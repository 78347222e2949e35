// Package ftdiserial virtualizes a serial port on top of an FTDI USB UART
// adapter and adds two synthesized control lines for driving a target
// microcontroller's reset circuitry.
//
// Stock FTDI adapter boards expose TXD/RXD plus modem signals, but many
// target boards wire their reset (EN) and bootstrap-select (BOOT/GPIO0) pins
// to adapter pins the UART cannot drive directly, such as CTS. This library
// repurposes the adapter's asynchronous bitbang mode to drive any data-bus
// pin as a software-controlled output at the moments a reset sequence needs
// it, and restores transparent UART passthrough otherwise. Flashing tools get
// a drop-in serial port whose "control lines" actually toggle arbitrary pins.
//
// # Basic Usage
//
// Open the first connected FTDI adapter with default configuration
// (115200 8N1, RESET on CTS, BOOT_SELECT on RTS, both active-low):
//
//	port, err := ftdiserial.Open("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	// Put the target into its serial bootloader, then talk to it.
//	if err := port.EnterBootloader(); err != nil {
//	    log.Fatal(err)
//	}
//	n, err := port.Write(syncFrame)
//	buf := make([]byte, 256)
//	n, err = port.Read(buf)
//
// # Adapter Selection
//
// Adapters can be addressed three ways:
//
//	ftdiserial.Open("")                    // first FTDI adapter found
//	ftdiserial.Open("0403:6001")           // by USB vendor/product id
//	ftdiserial.Open("0403:6001:FT123456")  // ... plus serial number
//	ftdiserial.Open("/dev/ttyUSB0")        // by tty path, resolved via sysfs
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	port, err := ftdiserial.Open("/dev/ttyUSB0",
//	    ftdiserial.WithBaudRate(921600),
//	    ftdiserial.WithResetBinding(ftdiserial.SignalBinding{Pin: 3, ActiveLow: true}),
//	    ftdiserial.WithBootSelectBinding(ftdiserial.SignalBinding{Pin: 2, ActiveLow: true}),
//	    ftdiserial.WithResetPulse(100*time.Millisecond),
//	    ftdiserial.WithBootSample(50*time.Millisecond),
//	)
//
// # Control Lines and Mode Switching
//
// SetResetLine and SetBootSelectLine may be called at any time; the port
// flips the adapter into bitbang mode behind the scenes and batches
// successive line changes, returning to UART passthrough on the next byte
// operation, an explicit Settle, or after a short idle threshold. Byte writes
// issued while a reset sequence is running are queued and delivered in order
// once the sequence completes; nothing is dropped or reordered.
//
// # Error Handling
//
// The library provides specific error types for robust error handling:
//
//	var (
//	    ErrAdapterNotFound   // no matching FTDI adapter
//	    ErrPortClosed        // port already closed
//	    ErrNotInBitIOMode    // pin operation outside bit i/o mode
//	    ErrSequenceBusy      // reset sequence already running
//	    // ... and more
//	)
//
// Adapter I/O failures surface as *PortIOError, which records whether the
// failure happened during a mode switch (likely device removal) or a byte
// transfer (possibly transient). A reset procedure that aborts partway
// returns *ResetSequenceError with the index and name of the failed step.
//
// Use errors.Is() / errors.As() for error type checking:
//
//	var seqErr *ftdiserial.ResetSequenceError
//	if errors.As(err, &seqErr) {
//	    fmt.Printf("failed at %q\n", seqErr.Name)
//	}
//
// # Platform Support
//
// The library talks to the adapter over libusb via github.com/google/gousb
// and claims the device away from the kernel's ftdi_sio driver while open.
// tty-path selectors rely on Linux sysfs; vid:pid selectors work wherever
// libusb does.
package ftdiserial
