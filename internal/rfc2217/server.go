// Package rfc2217 implements a small RFC 2217 (Telnet COM-PORT-OPTION)
// server that bridges network clients to a local adapter. Flashing tools
// that speak rfc2217:// connect over TCP; their DTR and RTS requests are
// mapped onto the adapter's BOOT_SELECT and RESET lines.
package rfc2217

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/espkit/ftdiserial"
)

// Telnet command bytes.
const (
	telnetSE   = 240
	telnetSB   = 250
	telnetWill = 251
	telnetWont = 252
	telnetDo   = 253
	telnetDont = 254
	telnetIAC  = 255
)

// Telnet options.
const (
	optBinary        = 0
	optSuppressGA    = 3
	optComPortOption = 44
)

// COM-PORT-OPTION subcommands as sent by the client. Server confirmations
// use the same code plus 100.
const (
	comSetBaudRate       = 1
	comSetDataSize       = 2
	comSetParity         = 3
	comSetStopSize       = 4
	comSetControl        = 5
	comNotifyLineState   = 6
	comNotifyModemState  = 7
	comFlowSuspend       = 8
	comFlowResume        = 9
	comSetLineStateMask  = 10
	comSetModemStateMask = 11
	comPurgeData         = 12

	comServerOffset = 100
)

// SET_CONTROL values.
const (
	controlDTROn  = 8
	controlDTROff = 9
	controlRTSOn  = 11
	controlRTSOff = 12
)

// PURGE_DATA values.
const (
	purgeReceive  = 1
	purgeTransmit = 2
	purgeBoth     = 3
)

// ControlPort is the slice of the port surface the bridge needs. It is
// satisfied by *ftdiserial.Port.
type ControlPort interface {
	io.ReadWriter
	SetResetLine(asserted bool) error
	SetBootSelectLine(asserted bool) error
	SetBaudRate(baud int) error
	LinesAsserted() bool
	FlushInput() error
	FlushOutput() error
}

// Server bridges RFC 2217 clients to one adapter. Clients are served one at
// a time; there is only one physical device behind the bridge.
type Server struct {
	port ControlPort
	baud int
}

// New creates a bridge over port. baud is the rate the port was opened with,
// reported to clients that query before setting their own.
func New(port ControlPort, baud int) *Server {
	return &Server{port: port, baud: baud}
}

// Serve accepts connections on l until Accept fails. Each client gets the
// port to itself for the lifetime of its connection.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		glog.V(1).Infof("rfc2217: client %s connected", conn.RemoteAddr())
		if err := s.ServeConn(conn); err != nil && !errors.Is(err, io.EOF) {
			glog.V(1).Infof("rfc2217: client %s: %v", conn.RemoteAddr(), err)
		}
		glog.V(1).Infof("rfc2217: client %s disconnected", conn.RemoteAddr())
	}
}

// ServeConn bridges a single established connection. Returns when the client
// disconnects or either side fails.
func (s *Server) ServeConn(conn net.Conn) error {
	defer conn.Close()

	sess := &session{
		port: s.port,
		conn: conn,
		baud: s.baud,
		done: make(chan struct{}),
	}
	defer close(sess.done)

	go sess.pumpPortToClient()
	return sess.readClient()
}

// session is the per-connection state. Writes to the client come from both
// the port pump and subnegotiation replies, so they are serialized on wmu.
type session struct {
	port ControlPort
	conn net.Conn
	baud int

	wmu  sync.Mutex
	done chan struct{}
}

// readClient parses the telnet stream from the client, forwarding data bytes
// to the port and dispatching commands.
func (sess *session) readClient() error {
	r := bufio.NewReader(sess.conn)
	var data []byte

	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		_, err := sess.port.Write(data)
		data = data[:0]
		return err
	}

	for {
		b, err := r.ReadByte()
		if err != nil {
			if ferr := flush(); ferr != nil {
				glog.Warningf("rfc2217: dropping buffered client data: %v", ferr)
			}
			return err
		}

		if b != telnetIAC {
			data = append(data, b)
		} else {
			c, err := r.ReadByte()
			if err != nil {
				return err
			}
			switch c {
			case telnetIAC:
				data = append(data, telnetIAC)
			case telnetSB:
				if err := flush(); err != nil {
					return err
				}
				payload, err := readSubneg(r)
				if err != nil {
					return err
				}
				if err := sess.handleSubneg(payload); err != nil {
					return err
				}
			case telnetWill, telnetWont, telnetDo, telnetDont:
				opt, err := r.ReadByte()
				if err != nil {
					return err
				}
				if err := sess.negotiate(c, opt); err != nil {
					return err
				}
			default:
				// NOP, BRK and friends; nothing to do.
			}
		}

		// Hand buffered data to the port before blocking on the socket
		// again, so short writes are not held hostage by a quiet client.
		if r.Buffered() == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// negotiate answers a single telnet option request. The bridge agrees to
// binary transmission, suppress-go-ahead, and the COM-PORT option, and
// declines everything else.
func (sess *session) negotiate(cmd, opt byte) error {
	supported := opt == optBinary || opt == optSuppressGA || opt == optComPortOption

	var reply byte
	switch cmd {
	case telnetDo:
		if supported {
			reply = telnetWill
		} else {
			reply = telnetWont
		}
	case telnetWill:
		if supported {
			reply = telnetDo
		} else {
			reply = telnetDont
		}
	case telnetDont, telnetWont:
		// Acknowledgement of a refusal; no reply needed.
		return nil
	}
	glog.V(2).Infof("rfc2217: negotiate cmd %d opt %d -> %d", cmd, opt, reply)
	return sess.writeRaw([]byte{telnetIAC, reply, opt})
}

// readSubneg consumes bytes up to IAC SE, unescaping doubled IACs.
func readSubneg(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != telnetIAC {
			buf = append(buf, b)
			continue
		}
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch c {
		case telnetIAC:
			buf = append(buf, telnetIAC)
		case telnetSE:
			return buf, nil
		default:
			return nil, fmt.Errorf("rfc2217: unexpected IAC %d inside subnegotiation", c)
		}
	}
}

// handleSubneg dispatches one COM-PORT-OPTION subnegotiation.
func (sess *session) handleSubneg(payload []byte) error {
	if len(payload) < 2 || payload[0] != optComPortOption {
		glog.V(2).Infof("rfc2217: ignoring subnegotiation %v", payload)
		return nil
	}
	sub := payload[1]
	value := payload[2:]

	switch sub {
	case comSetBaudRate:
		if len(value) != 4 {
			return fmt.Errorf("rfc2217: SET_BAUDRATE with %d value bytes", len(value))
		}
		baud := int(binary.BigEndian.Uint32(value))
		if baud != 0 {
			if err := sess.port.SetBaudRate(baud); err != nil {
				glog.Warningf("rfc2217: set baud %d: %v", baud, err)
			} else {
				sess.baud = baud
			}
		}
		var reply [4]byte
		binary.BigEndian.PutUint32(reply[:], uint32(sess.baud))
		return sess.sendComPort(sub, reply[:])

	case comSetControl:
		if len(value) != 1 {
			return fmt.Errorf("rfc2217: SET_CONTROL with %d value bytes", len(value))
		}
		if err := sess.applyControl(value[0]); err != nil {
			glog.Warningf("rfc2217: SET_CONTROL %d: %v", value[0], err)
		}
		return sess.sendComPort(sub, value)

	case comPurgeData:
		if len(value) != 1 {
			return fmt.Errorf("rfc2217: PURGE_DATA with %d value bytes", len(value))
		}
		if err := sess.purge(value[0]); err != nil {
			glog.Warningf("rfc2217: PURGE_DATA %d: %v", value[0], err)
		}
		return sess.sendComPort(sub, value)

	case comSetDataSize, comSetParity, comSetStopSize,
		comSetLineStateMask, comSetModemStateMask,
		comNotifyLineState, comNotifyModemState,
		comFlowSuspend, comFlowResume:
		// Framing is fixed at open time and the adapter has no line-state
		// interrupts to report; acknowledge so the client proceeds.
		glog.V(2).Infof("rfc2217: acknowledging subcommand %d value %v", sub, value)
		return sess.sendComPort(sub, value)

	default:
		glog.V(2).Infof("rfc2217: unknown subcommand %d", sub)
		return nil
	}
}

// applyControl maps a SET_CONTROL value onto the control lines. DTR drives
// BOOT_SELECT and RTS drives RESET, which is the wiring flashing tools
// expect from a development-board auto-reset circuit.
func (sess *session) applyControl(value byte) error {
	switch value {
	case controlDTROn:
		return sess.port.SetBootSelectLine(true)
	case controlDTROff:
		return sess.port.SetBootSelectLine(false)
	case controlRTSOn:
		return sess.port.SetResetLine(true)
	case controlRTSOff:
		return sess.port.SetResetLine(false)
	default:
		// Flow control and break requests; nothing to drive.
		return nil
	}
}

func (sess *session) purge(value byte) error {
	switch value {
	case purgeReceive:
		return sess.port.FlushInput()
	case purgeTransmit:
		return sess.port.FlushOutput()
	case purgeBoth:
		if err := sess.port.FlushInput(); err != nil {
			return err
		}
		return sess.port.FlushOutput()
	default:
		return fmt.Errorf("rfc2217: unknown purge value %d", value)
	}
}

// sendComPort sends a server-side COM-PORT confirmation (subcommand + 100).
func (sess *session) sendComPort(sub byte, value []byte) error {
	msg := []byte{telnetIAC, telnetSB, optComPortOption, sub + comServerOffset}
	for _, b := range value {
		if b == telnetIAC {
			msg = append(msg, telnetIAC)
		}
		msg = append(msg, b)
	}
	msg = append(msg, telnetIAC, telnetSE)
	return sess.writeRaw(msg)
}

// pumpPortToClient copies port bytes to the client, escaping IACs, until the
// session ends or the port fails hard. Read timeouts just mean the target is
// quiet.
func (sess *session) pumpPortToClient() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-sess.done:
			return
		default:
		}

		// Reading forces the adapter back to UART framing, which would drop
		// a line the client is holding mid reset pulse. Wait out the pulse.
		if sess.port.LinesAsserted() {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		n, err := sess.port.Read(buf)
		if n > 0 {
			if werr := sess.writeData(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if errors.Is(err, ftdiserial.ErrReadTimeout) {
				continue
			}
			if errors.Is(err, ftdiserial.ErrSequenceBusy) {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			glog.V(1).Infof("rfc2217: port read: %v", err)
			sess.conn.Close()
			return
		}
	}
}

// writeData sends payload bytes to the client with IAC escaping.
func (sess *session) writeData(data []byte) error {
	escaped := make([]byte, 0, len(data))
	for _, b := range data {
		if b == telnetIAC {
			escaped = append(escaped, telnetIAC)
		}
		escaped = append(escaped, b)
	}
	return sess.writeRaw(escaped)
}

func (sess *session) writeRaw(data []byte) error {
	sess.wmu.Lock()
	defer sess.wmu.Unlock()
	_, err := sess.conn.Write(data)
	return err
}
