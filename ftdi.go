package ftdiserial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

// FTDI vendor requests, per the FT232/FT2232 programming guides (and libftdi).
const (
	sioReset           = 0x00
	sioSetModemCtrl    = 0x01
	sioSetFlowCtrl     = 0x02
	sioSetBaudRate     = 0x03
	sioSetData         = 0x04
	sioSetLatencyTimer = 0x09
	sioSetBitmode      = 0x0B
	sioReadPins        = 0x0C

	// sioReset wValue
	sioResetSIO     = 0
	sioResetPurgeRX = 1
	sioResetPurgeTX = 2

	// sioSetBitmode mode byte (wValue high byte)
	bitmodeReset   = 0x00
	bitmodeBitbang = 0x01

	// sioSetModemCtrl wValue bits
	modemDTR       = 0x0001
	modemRTS       = 0x0002
	modemDTREnable = 0x0100
	modemRTSEnable = 0x0200

	// FTDI UART clock, non-H parts
	ftdiBaseClock = 3_000_000

	// Every bulk IN packet starts with two modem status bytes.
	ftdiStatusBytes = 2
)

const (
	reqTypeOut = gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice
	reqTypeIn  = gousb.ControlIn | gousb.ControlVendor | gousb.ControlDevice
)

// ftdi talks to one channel of an FTDI USB UART over raw vendor requests and
// bulk transfers. It implements Transport.
type ftdi struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epIn  *gousb.InEndpoint
	epOut *gousb.OutEndpoint

	// index is the wIndex for control requests: channel number (1-based),
	// possibly with the 17th baud divisor bit merged into the high byte.
	channel uint16

	maxPacket   int
	readTimeout time.Duration

	// bytes already received and stripped but not yet handed to Read
	leftover []byte
}

var _ Transport = (*ftdi)(nil)

// openFTDI opens the adapter named by selector and prepares it for UART
// passthrough at the configured framing.
func openFTDI(selector string, cfg Config) (*ftdi, error) {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}

	ctx := gousb.NewContext()

	dev, err := findDevice(ctx, sel)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	// Take the channel back from ftdi_sio / the kernel while we hold it.
	if err := dev.SetAutoDetach(true); err != nil {
		// Not fatal on all platforms
		glog.V(1).Infof("auto-detach not available: %v", err)
	}

	f := &ftdi{
		ctx:         ctx,
		dev:         dev,
		channel:     uint16(sel.iface) + 1,
		readTimeout: cfg.ReadTimeout,
	}

	if err := f.claimInterface(sel.iface); err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	// Start from a known state: plain UART, control lines released.
	if err := f.control(sioReset, sioResetSIO); err != nil {
		f.Close()
		return nil, fmt.Errorf("ftdi reset: %w", err)
	}
	if err := f.control(sioSetLatencyTimer, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("ftdi latency timer: %w", err)
	}
	if err := f.ConfigureUART(cfg.UART()); err != nil {
		f.Close()
		return nil, err
	}

	glog.V(1).Infof("opened ftdi adapter %s (channel %d)", selector, f.channel)
	return f, nil
}

// claimInterface claims the UART interface and locates its bulk endpoints.
func (f *ftdi) claimInterface(num int) error {
	cfg, err := f.dev.Config(1)
	if err != nil {
		return fmt.Errorf("usb config: %w", err)
	}
	f.cfg = cfg

	intf, err := cfg.Interface(num, 0)
	if err != nil {
		return fmt.Errorf("claim interface %d: %w", num, err)
	}
	f.intf = intf

	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			in, err := intf.InEndpoint(ep.Number)
			if err != nil {
				return fmt.Errorf("in endpoint: %w", err)
			}
			f.epIn = in
			f.maxPacket = ep.MaxPacketSize
		case gousb.EndpointDirectionOut:
			out, err := intf.OutEndpoint(ep.Number)
			if err != nil {
				return fmt.Errorf("out endpoint: %w", err)
			}
			f.epOut = out
		}
	}

	if f.epIn == nil || f.epOut == nil {
		return fmt.Errorf("%w: bulk endpoints not found on interface %d", ErrAdapterNotFound, num)
	}
	if f.maxPacket <= ftdiStatusBytes {
		f.maxPacket = 64
	}
	return nil
}

func (f *ftdi) control(request uint8, value uint16) error {
	_, err := f.dev.Control(reqTypeOut, request, value, f.channel, nil)
	return err
}

// baudDivisor converts a baud rate to the FTDI fractional divisor encoding.
// It returns the wValue and the divisor bit that belongs in the high byte of
// wIndex on multi-channel parts.
func baudDivisor(baud int) (value uint16, indexHigh uint16, err error) {
	if baud <= 0 {
		return 0, 0, ErrInvalidBaudRate
	}

	// Divisor in eighths of the 3 MHz base clock, rounded to nearest.
	div8 := (ftdiBaseClock*8 + baud/2) / baud
	switch div8 {
	case 8: // 3 MBaud
		return 0, 0, nil
	case 12: // 2 MBaud
		return 1, 0, nil
	}
	if div8 < 16 || div8>>3 > 0x3FFF {
		return 0, 0, ErrInvalidBaudRate
	}

	// Sub-integer divisor codes per FTDI AN232B-05.
	fracCode := [8]uint32{0, 3, 2, 4, 1, 5, 6, 7}
	encoded := uint32(div8>>3) | fracCode[div8&7]<<14
	return uint16(encoded & 0xFFFF), uint16(encoded>>8) & 0xFF00, nil
}

// framingValue encodes data bits, parity, and stop bits for sioSetData.
func framingValue(cfg UARTConfig) (uint16, error) {
	if cfg.DataBits != 7 && cfg.DataBits != 8 {
		return 0, ErrInvalidConfig
	}
	value := uint16(cfg.DataBits)

	switch cfg.Parity {
	case ParityNone:
	case ParityOdd:
		value |= 1 << 8
	case ParityEven:
		value |= 2 << 8
	case ParityMark:
		value |= 3 << 8
	case ParitySpace:
		value |= 4 << 8
	default:
		return 0, ErrInvalidConfig
	}

	switch cfg.StopBits {
	case 1:
	case 2:
		value |= 2 << 11
	default:
		return 0, ErrInvalidConfig
	}
	return value, nil
}

// ConfigureUART leaves bitbang mode and restores UART framing. The ordering
// matters: mode first, then baud and framing, then flow control and released
// modem lines, so the wire state the target sees is the idle UART state.
func (f *ftdi) ConfigureUART(cfg UARTConfig) error {
	if _, err := f.dev.Control(reqTypeOut, sioSetBitmode, bitmodeReset<<8, f.channel, nil); err != nil {
		return fmt.Errorf("leave bitbang: %w", err)
	}

	value, indexHigh, err := baudDivisor(cfg.BaudRate)
	if err != nil {
		return err
	}
	if _, err := f.dev.Control(reqTypeOut, sioSetBaudRate, value, indexHigh|f.channel, nil); err != nil {
		return fmt.Errorf("set baud rate: %w", err)
	}

	framing, err := framingValue(cfg)
	if err != nil {
		return err
	}
	if err := f.control(sioSetData, framing); err != nil {
		return fmt.Errorf("set framing: %w", err)
	}

	if err := f.control(sioSetFlowCtrl, 0); err != nil {
		return fmt.Errorf("set flow control: %w", err)
	}
	if err := f.control(sioSetModemCtrl, modemDTREnable|modemRTSEnable); err != nil {
		return fmt.Errorf("release modem lines: %w", err)
	}

	glog.V(2).Infof("uart configured: %d baud, %d%s%d", cfg.BaudRate, cfg.DataBits, parityLetter(cfg.Parity), cfg.StopBits)
	return nil
}

func parityLetter(p Parity) string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return "N"
	}
}

// ConfigureBitBang switches every pin of the channel into software control.
func (f *ftdi) ConfigureBitBang(directions byte) error {
	if err := f.control(sioSetBitmode, uint16(bitmodeBitbang)<<8|uint16(directions)); err != nil {
		return fmt.Errorf("enter bitbang: %w", err)
	}
	glog.V(2).Infof("bitbang enabled, direction mask %08b", directions)
	return nil
}

// WriteBits drives the output pins. In asynchronous bitbang mode the level
// byte travels over the bulk OUT endpoint like ordinary data.
func (f *ftdi) WriteBits(levels byte) error {
	if _, err := f.epOut.Write([]byte{levels}); err != nil {
		return fmt.Errorf("write pins: %w", err)
	}
	glog.V(2).Infof("pins driven to %08b", levels)
	return nil
}

// ReadBits samples the instantaneous pin levels via a control request, which
// works in either mode.
func (f *ftdi) ReadBits() (byte, error) {
	buf := make([]byte, 1)
	n, err := f.dev.Control(reqTypeIn, sioReadPins, 0, f.channel, buf)
	if err != nil {
		return 0, fmt.Errorf("read pins: %w", err)
	}
	if n != 1 {
		return 0, fmt.Errorf("read pins: short response (%d bytes)", n)
	}
	return buf[0], nil
}

func (f *ftdi) Write(data []byte) (int, error) {
	return f.epOut.Write(data)
}

// Read accumulates up to len(buf) bytes until the configured read timeout
// elapses. FTDI prepends two modem status bytes to every IN packet; those are
// stripped before data reaches the caller.
func (f *ftdi) Read(buf []byte) (int, error) {
	if n := f.takeLeftover(buf); n > 0 {
		return n, nil
	}

	deadline := time.Now().Add(f.readTimeout)
	raw := make([]byte, f.maxPacket)
	for {
		remain := time.Until(deadline)
		if remain <= 0 {
			return 0, ErrReadTimeout
		}

		ctx, cancel := context.WithTimeout(context.Background(), remain)
		n, err := f.epIn.ReadContext(ctx, raw)
		cancel()
		if n > 0 {
			f.leftover = append(f.leftover, stripStatusBytes(raw[:n], f.maxPacket)...)
			if got := f.takeLeftover(buf); got > 0 {
				return got, nil
			}
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return 0, ErrReadTimeout
			}
			return 0, err
		}
	}
}

func (f *ftdi) takeLeftover(buf []byte) int {
	if len(f.leftover) == 0 {
		return 0
	}
	n := copy(buf, f.leftover)
	f.leftover = f.leftover[n:]
	if len(f.leftover) == 0 {
		f.leftover = nil
	}
	return n
}

// stripStatusBytes removes the two modem status bytes FTDI places at the
// start of every IN packet. raw may span multiple packets; packetSize is the
// endpoint's max packet size.
func stripStatusBytes(raw []byte, packetSize int) []byte {
	if packetSize <= ftdiStatusBytes {
		return nil
	}
	var out []byte
	for len(raw) > 0 {
		n := len(raw)
		if n > packetSize {
			n = packetSize
		}
		if n > ftdiStatusBytes {
			out = append(out, raw[ftdiStatusBytes:n]...)
		}
		raw = raw[n:]
	}
	return out
}

func (f *ftdi) PurgeInput() error {
	if err := f.control(sioReset, sioResetPurgeRX); err != nil {
		return fmt.Errorf("purge input: %w", err)
	}
	f.leftover = nil
	return nil
}

func (f *ftdi) PurgeOutput() error {
	if err := f.control(sioReset, sioResetPurgeTX); err != nil {
		return fmt.Errorf("purge output: %w", err)
	}
	return nil
}

func (f *ftdi) Close() error {
	if f.intf != nil {
		f.intf.Close()
		f.intf = nil
	}
	if f.cfg != nil {
		f.cfg.Close()
		f.cfg = nil
	}
	var err error
	if f.dev != nil {
		err = f.dev.Close()
		f.dev = nil
	}
	if f.ctx != nil {
		if cerr := f.ctx.Close(); err == nil {
			err = cerr
		}
		f.ctx = nil
	}
	return err
}
