package ftdiserial

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// ResetAdapter performs a USB-level reset of the adapter matching selector.
// This can recover an adapter whose UART engine is hung without physically
// unplugging it.
//
// The device re-enumerates after the reset; a tty-path selector may point at
// a different adapter afterwards, so prefer vid:pid:serial selectors when
// resetting.
func ResetAdapter(selector string) error {
	sel, err := parseSelector(selector)
	if err != nil {
		return err
	}

	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := findDevice(ctx, sel)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Reset(); err != nil {
		return fmt.Errorf("usb reset failed: %w", err)
	}

	// Give the device time to drop off the bus and come back.
	time.Sleep(2 * time.Second)
	return nil
}
