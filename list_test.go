package ftdiserial

import (
	"errors"
	"testing"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		expected deviceSelector
	}{
		{
			name:     "empty selects first known adapter",
			selector: "",
			expected: deviceSelector{vid: ftdiVendorID},
		},
		{
			name:     "vendor and product",
			selector: "0403:6010",
			expected: deviceSelector{vid: 0x0403, pid: 0x6010},
		},
		{
			name:     "vendor, product, and serial",
			selector: "0403:6001:A50285BI",
			expected: deviceSelector{vid: 0x0403, pid: 0x6001, serial: "A50285BI"},
		},
		{
			name:     "reprogrammed vendor id",
			selector: "1234:abcd",
			expected: deviceSelector{vid: 0x1234, pid: 0xabcd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := parseSelector(tt.selector)
			if err != nil {
				t.Fatalf("parseSelector(%q) failed: %v", tt.selector, err)
			}
			if sel != tt.expected {
				t.Errorf("parseSelector(%q) = %+v, expected %+v", tt.selector, sel, tt.expected)
			}
		})
	}
}

func TestParseSelectorInvalid(t *testing.T) {
	invalid := []string{
		"0403",        // missing product id
		"xyz:6001",    // bad vendor id
		"0403:nope",   // bad product id
		"0403:123456", // product id out of range
	}

	for _, s := range invalid {
		_, err := parseSelector(s)
		if !errors.Is(err, ErrInvalidSelector) {
			t.Errorf("parseSelector(%q) = %v, expected ErrInvalidSelector", s, err)
		}
	}
}

func TestParseSelectorTTYPathNotFound(t *testing.T) {
	_, err := parseSelector("/dev/ttyUSB-does-not-exist")
	if !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("expected ErrAdapterNotFound for missing tty, got %v", err)
	}
}

func TestAdapterInfoSelector(t *testing.T) {
	tests := []struct {
		info     AdapterInfo
		expected string
	}{
		{AdapterInfo{VendorID: 0x0403, ProductID: 0x6001}, "0403:6001"},
		{AdapterInfo{VendorID: 0x0403, ProductID: 0x6010, SerialNumber: "FT123"}, "0403:6010:FT123"},
	}

	for _, tt := range tests {
		if s := tt.info.Selector(); s != tt.expected {
			t.Errorf("Selector() = %q, expected %q", s, tt.expected)
		}
	}
}
