package ftdiserial

import (
	"errors"
	"sync"
	"time"
)

var errSimulated = errors.New("simulated transport failure")

// simCall records one transport operation with enough detail to assert on
// ordering, bit masks, and timing.
type simCall struct {
	op         string // "uart", "bitbang", "bits", "write", "read", "purge-in", "purge-out", "close"
	levels     byte
	directions byte
	uart       UARTConfig
	data       []byte
	at         time.Time
}

// simTransport is an in-memory Transport that records every call. Failures
// can be injected per operation and per call number (1-based).
type simTransport struct {
	mu    sync.Mutex
	calls []simCall

	// failAt maps an op name to the 1-based call count at which that op
	// fails with errSimulated.
	failAt map[string]int
	counts map[string]int

	pins     byte   // returned by ReadBits
	readData []byte // drained by Read
	written  []byte // accumulated by Write
}

func newSimTransport() *simTransport {
	return &simTransport{
		failAt: make(map[string]int),
		counts: make(map[string]int),
	}
}

func (s *simTransport) record(c simCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[c.op]++
	if n, ok := s.failAt[c.op]; ok && s.counts[c.op] == n {
		return errSimulated
	}
	c.at = time.Now()
	s.calls = append(s.calls, c)
	return nil
}

func (s *simTransport) ConfigureUART(cfg UARTConfig) error {
	return s.record(simCall{op: "uart", uart: cfg})
}

func (s *simTransport) ConfigureBitBang(directions byte) error {
	return s.record(simCall{op: "bitbang", directions: directions})
}

func (s *simTransport) WriteBits(levels byte) error {
	return s.record(simCall{op: "bits", levels: levels})
}

func (s *simTransport) ReadBits() (byte, error) {
	if err := s.record(simCall{op: "readbits"}); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins, nil
}

func (s *simTransport) Write(data []byte) (int, error) {
	queued := make([]byte, len(data))
	copy(queued, data)
	if err := s.record(simCall{op: "write", data: queued}); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, queued...)
	return len(data), nil
}

func (s *simTransport) Read(buf []byte) (int, error) {
	if err := s.record(simCall{op: "read"}); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readData) == 0 {
		return 0, ErrReadTimeout
	}
	n := copy(buf, s.readData)
	s.readData = s.readData[n:]
	return n, nil
}

func (s *simTransport) PurgeInput() error  { return s.record(simCall{op: "purge-in"}) }
func (s *simTransport) PurgeOutput() error { return s.record(simCall{op: "purge-out"}) }
func (s *simTransport) Close() error       { return s.record(simCall{op: "close"}) }

// ops returns the recorded operation names in order.
func (s *simTransport) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.op
	}
	return out
}

// bitWrites returns the level masks of every WriteBits call in order.
func (s *simTransport) bitWrites() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []byte
	for _, c := range s.calls {
		if c.op == "bits" {
			out = append(out, c.levels)
		}
	}
	return out
}

// bitWriteTimes returns the timestamps of every WriteBits call in order.
func (s *simTransport) bitWriteTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, c := range s.calls {
		if c.op == "bits" {
			out = append(out, c.at)
		}
	}
	return out
}

func (s *simTransport) countOp(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (s *simTransport) writtenBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.written))
	copy(out, s.written)
	return out
}

func (s *simTransport) lastUART() (UARTConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].op == "uart" {
			return s.calls[i].uart, true
		}
	}
	return UARTConfig{}, false
}
