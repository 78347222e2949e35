package ftdiserial

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.Reset != (SignalBinding{Pin: 3, ActiveLow: true}) {
		t.Errorf("Expected RESET on CTS (pin 3) active-low, got %+v", config.Reset)
	}

	if config.BootSelect != (SignalBinding{Pin: 2, ActiveLow: true}) {
		t.Errorf("Expected BOOT_SELECT on RTS (pin 2) active-low, got %+v", config.BootSelect)
	}

	if config.ResetPulse != 100*time.Millisecond {
		t.Errorf("Expected ResetPulse 100ms, got %v", config.ResetPulse)
	}

	if config.BootSample != 50*time.Millisecond {
		t.Errorf("Expected BootSample 50ms, got %v", config.BootSample)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	// Test WithBaudRate
	err := WithBaudRate(9600)(&config)
	if err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	// Test WithDataBits
	err = WithDataBits(7)(&config)
	if err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	// Test WithStopBits
	err = WithStopBits(2)(&config)
	if err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	// Test WithParity
	err = WithParity(ParityEven)(&config)
	if err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	// Test WithResetBinding
	err = WithResetBinding(SignalBinding{Pin: 4, ActiveLow: false})(&config)
	if err != nil {
		t.Errorf("WithResetBinding failed: %v", err)
	}
	if config.Reset.Pin != 4 || config.Reset.ActiveLow {
		t.Errorf("Expected RESET on pin 4 active-high, got %+v", config.Reset)
	}

	// Test WithResetPulse
	err = WithResetPulse(25 * time.Millisecond)(&config)
	if err != nil {
		t.Errorf("WithResetPulse failed: %v", err)
	}
	if config.ResetPulse != 25*time.Millisecond {
		t.Errorf("Expected ResetPulse 25ms, got %v", config.ResetPulse)
	}
}

func TestInvalidBaudRate(t *testing.T) {
	config := DefaultConfig()
	for _, rate := range []int{0, -9600, 123, 2500000} {
		err := WithBaudRate(rate)(&config)
		if err == nil {
			t.Errorf("Expected error for baud rate %d", rate)
		}
		if err != ErrInvalidBaudRate {
			t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", rate, err)
		}
	}
}

func TestInvalidDataBits(t *testing.T) {
	config := DefaultConfig()
	err := WithDataBits(9)(&config)
	if err == nil {
		t.Error("Expected error for invalid data bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidStopBits(t *testing.T) {
	config := DefaultConfig()
	err := WithStopBits(3)(&config)
	if err == nil {
		t.Error("Expected error for invalid stop bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidPinBinding(t *testing.T) {
	config := DefaultConfig()
	if err := WithResetBinding(SignalBinding{Pin: 8})(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for pin 8, got %v", err)
	}
	if err := WithBootSelectBinding(SignalBinding{Pin: 12})(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for pin 12, got %v", err)
	}
}

func TestInvalidDurations(t *testing.T) {
	config := DefaultConfig()
	if err := WithResetPulse(0)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for zero pulse, got %v", err)
	}
	if err := WithBootSample(-time.Millisecond)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for negative sample, got %v", err)
	}
	if err := WithReadTimeout(-time.Second)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for negative timeout, got %v", err)
	}
	if err := WithIdleThreshold(0)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for zero idle threshold, got %v", err)
	}
}
