package ftdiserial

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrAdapterNotFound      = errors.New("ftdi adapter not found")
	ErrPermissionDenied     = errors.New("permission denied accessing usb device")
	ErrPortClosed           = errors.New("port is closed")
	ErrInvalidBaudRate      = errors.New("invalid baud rate")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidSelector      = errors.New("invalid adapter selector")
	ErrReadTimeout          = errors.New("read operation timed out")
	ErrSequenceBusy         = errors.New("reset sequence already in progress")
	ErrNotInBitIOMode       = errors.New("adapter is not in bit i/o mode")
	ErrNotInPassthroughMode = errors.New("adapter is not in passthrough mode")
)

// IOPhase identifies where in the I/O path a failure occurred, so callers can
// distinguish a failed mode switch (likely device removal) from a failed byte
// transfer (possibly transient).
type IOPhase int

const (
	PhaseModeSwitch IOPhase = iota
	PhaseByteTransfer
)

func (p IOPhase) String() string {
	switch p {
	case PhaseModeSwitch:
		return "mode switch"
	case PhaseByteTransfer:
		return "byte transfer"
	default:
		return "unknown"
	}
}

// PortIOError reports an adapter I/O failure together with the phase it
// occurred in. The caller decides whether a retry makes sense.
type PortIOError struct {
	Phase IOPhase
	Op    string
	Err   error
}

func (e *PortIOError) Error() string {
	return fmt.Sprintf("port i/o failure during %s (%s): %v", e.Phase, e.Op, e.Err)
}

func (e *PortIOError) Unwrap() error { return e.Err }

// ResetSequenceError reports a reset procedure that aborted partway through.
// Step is the 1-based index of the step that failed; earlier steps have
// already been applied and are not rolled back.
type ResetSequenceError struct {
	Sequence string
	Step     int
	Name     string
	Err      error
}

func (e *ResetSequenceError) Error() string {
	return fmt.Sprintf("%s sequence failed at step %d (%s): %v", e.Sequence, e.Step, e.Name, e.Err)
}

func (e *ResetSequenceError) Unwrap() error { return e.Err }
