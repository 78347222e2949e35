package ftdiserial

import (
	"time"

	"github.com/golang/glog"
)

// resetStep is one assert/deassert action followed by an optional hold.
type resetStep struct {
	name   string
	signal Signal
	assert bool
	hold   time.Duration
}

// ResetSequencer encodes the timed control-line sequences that place the
// target device into bootloader-download or normal-run state. It knows
// nothing about how the lines are physically realized; it only drives the
// port's control-line setters and waits.
//
// Sequences are atomic from the caller's perspective: steps run in declared
// order, byte writes queue until the sequence ends, and a failed step
// truncates the sequence without reordering or retrying. Rollback is not
// attempted; it is not meaningful for level-triggered reset lines.
type ResetSequencer struct {
	port *Port
}

// NewResetSequencer returns a sequencer bound to port. Pulse and sample
// durations come from the port's configuration.
func NewResetSequencer(port *Port) *ResetSequencer {
	return &ResetSequencer{port: port}
}

// EnterBootloader holds BOOT_SELECT asserted across a reset pulse so the
// target samples it after reset release and drops into its download mode:
//
//	assert BOOT_SELECT -> assert RESET -> hold reset pulse ->
//	deassert RESET -> hold boot sample -> deassert BOOT_SELECT
func (s *ResetSequencer) EnterBootloader() error {
	cfg := s.port.Config()
	return s.run("enter-bootloader", []resetStep{
		{name: "assert BOOT_SELECT", signal: SignalBootSelect, assert: true},
		{name: "assert RESET", signal: SignalReset, assert: true, hold: cfg.ResetPulse},
		{name: "deassert RESET", signal: SignalReset, assert: false, hold: cfg.BootSample},
		{name: "deassert BOOT_SELECT", signal: SignalBootSelect, assert: false},
	})
}

// HardReset pulses RESET so the target reboots into normal run mode.
func (s *ResetSequencer) HardReset() error {
	cfg := s.port.Config()
	return s.run("hard-reset", []resetStep{
		{name: "assert RESET", signal: SignalReset, assert: true, hold: cfg.ResetPulse},
		{name: "deassert RESET", signal: SignalReset, assert: false},
	})
}

func (s *ResetSequencer) run(sequence string, steps []resetStep) error {
	if err := s.port.beginSequence(); err != nil {
		return err
	}
	defer s.port.endSequence()

	glog.V(1).Infof("%s sequence started (%d steps)", sequence, len(steps))
	for i, step := range steps {
		if err := s.port.applySequenceStep(step.signal, step.assert); err != nil {
			glog.V(1).Infof("%s sequence aborted at step %d (%s): %v", sequence, i+1, step.name, err)
			return &ResetSequenceError{Sequence: sequence, Step: i + 1, Name: step.name, Err: err}
		}
		if step.hold > 0 {
			time.Sleep(step.hold)
		}
	}
	glog.V(1).Infof("%s sequence completed", sequence)
	return nil
}
