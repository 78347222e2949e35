package ftdiserial

import (
	"bytes"
	"testing"
)

func TestBaudDivisor(t *testing.T) {
	tests := []struct {
		baud      int
		value     uint16
		indexHigh uint16
		wantErr   bool
	}{
		{3000000, 0, 0, false},
		{2000000, 1, 0, false},
		{1500000, 2, 0, false},
		{115200, 26, 0, false},               // 3M/115200 = 26.042 -> 26
		{9600, 312 | 1<<14, 0, false},        // 312.5 -> frac code 1
		{1800, 1666 | 1<<14, 0x0100, false},  // 1666.67 -> .625, 17th bit set
		{38400, 78 | 3<<14, 0, false},        // 78.125 -> frac code 3
		{0, 0, 0, true},
		{-9600, 0, 0, true},
		{123, 0, 0, true},     // divisor exceeds 14 bits
		{2500000, 0, 0, true}, // between the fixed 2M/3M points
	}

	for _, tt := range tests {
		value, indexHigh, err := baudDivisor(tt.baud)
		if tt.wantErr {
			if err == nil {
				t.Errorf("baudDivisor(%d): expected error", tt.baud)
			}
			continue
		}
		if err != nil {
			t.Errorf("baudDivisor(%d): unexpected error %v", tt.baud, err)
			continue
		}
		if value != tt.value || indexHigh != tt.indexHigh {
			t.Errorf("baudDivisor(%d) = (%#x, %#x), want (%#x, %#x)",
				tt.baud, value, indexHigh, tt.value, tt.indexHigh)
		}
	}
}

func TestFramingValue(t *testing.T) {
	tests := []struct {
		name    string
		cfg     UARTConfig
		value   uint16
		wantErr bool
	}{
		{"8N1", UARTConfig{DataBits: 8, StopBits: 1, Parity: ParityNone}, 8, false},
		{"7E1", UARTConfig{DataBits: 7, StopBits: 1, Parity: ParityEven}, 7 | 2<<8, false},
		{"8O1", UARTConfig{DataBits: 8, StopBits: 1, Parity: ParityOdd}, 8 | 1<<8, false},
		{"8N2", UARTConfig{DataBits: 8, StopBits: 2, Parity: ParityNone}, 8 | 2<<11, false},
		{"bad data bits", UARTConfig{DataBits: 5, StopBits: 1}, 0, true},
		{"bad stop bits", UARTConfig{DataBits: 8, StopBits: 3}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := framingValue(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("framingValue(%+v): expected error", tt.cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("framingValue(%+v): unexpected error %v", tt.cfg, err)
			}
			if value != tt.value {
				t.Errorf("framingValue(%+v) = %#x, want %#x", tt.cfg, value, tt.value)
			}
		})
	}
}

func TestStripStatusBytes(t *testing.T) {
	packet := func(data ...byte) []byte {
		return append([]byte{0x01, 0x60}, data...)
	}

	tests := []struct {
		name       string
		raw        []byte
		packetSize int
		want       []byte
	}{
		{"empty", nil, 64, nil},
		{"status only", packet(), 64, nil},
		{"single packet", packet('a', 'b', 'c'), 64, []byte("abc")},
		{
			"two packets",
			append(append([]byte{}, packet(bytes.Repeat([]byte{'x'}, 62)...)...), packet('y', 'z')...),
			64,
			append(bytes.Repeat([]byte{'x'}, 62), 'y', 'z'),
		},
		{"tiny packet size", []byte{1, 2, 3}, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripStatusBytes(tt.raw, tt.packetSize)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("stripStatusBytes() = %v, want %v", got, tt.want)
			}
		})
	}
}
