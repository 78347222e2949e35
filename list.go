package ftdiserial

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

const ftdiVendorID = 0x0403

// knownFTDIProducts are the stock FTDI UART product IDs. Adapters with a
// reprogrammed PID can still be addressed with an explicit vid:pid selector.
var knownFTDIProducts = map[uint16]string{
	0x6001: "FT232R",
	0x6010: "FT2232H",
	0x6011: "FT4232H",
	0x6014: "FT232H",
	0x6015: "FT231X",
}

// AdapterInfo describes one discovered FTDI adapter.
type AdapterInfo struct {
	Bus          int
	Address      int
	VendorID     uint16
	ProductID    uint16
	Description  string
	SerialNumber string
}

// Selector returns the vid:pid[:serial] selector string for the adapter.
func (a AdapterInfo) Selector() string {
	s := fmt.Sprintf("%04x:%04x", a.VendorID, a.ProductID)
	if a.SerialNumber != "" {
		s += ":" + a.SerialNumber
	}
	return s
}

// ListAdapters enumerates connected FTDI UART adapters.
func ListAdapters() ([]AdapterInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var found []AdapterInfo
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if uint16(desc.Vendor) != ftdiVendorID {
			return false
		}
		name, ok := knownFTDIProducts[uint16(desc.Product)]
		if !ok {
			return false
		}
		found = append(found, AdapterInfo{
			Bus:         desc.Bus,
			Address:     desc.Address,
			VendorID:    uint16(desc.Vendor),
			ProductID:   uint16(desc.Product),
			Description: name,
		})
		return true
	})
	for i, dev := range devs {
		if i < len(found) {
			if serial, serr := dev.SerialNumber(); serr == nil {
				found[i].SerialNumber = strings.TrimSpace(serial)
			}
		}
		dev.Close()
	}
	// Permission errors on unrelated devices are expected when running
	// unprivileged; report them only if nothing was found.
	if err != nil && err != gousb.ErrorAccess && len(found) == 0 {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Bus != found[j].Bus {
			return found[i].Bus < found[j].Bus
		}
		return found[i].Address < found[j].Address
	})
	return found, nil
}

// deviceSelector is a parsed adapter selector.
type deviceSelector struct {
	// byAddress selects by bus/address (resolved from a tty path)
	byAddress bool
	bus       int
	addr      int

	// otherwise select by vid/pid and optional serial number
	vid    uint16
	pid    uint16
	serial string

	iface int
}

// parseSelector understands three selector forms:
//
//	""                    first FTDI adapter found
//	"0403:6001[:SERIAL]"  by USB vendor/product id and optional serial
//	"/dev/ttyUSB0"        by tty device path, resolved through sysfs
func parseSelector(s string) (deviceSelector, error) {
	if strings.HasPrefix(s, "/dev/") {
		bus, addr, iface, err := resolveTTYPath(s)
		if err != nil {
			return deviceSelector{}, err
		}
		return deviceSelector{byAddress: true, bus: bus, addr: addr, iface: iface}, nil
	}

	sel := deviceSelector{vid: ftdiVendorID}
	if s == "" {
		return sel, nil
	}

	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return deviceSelector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	vid, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return deviceSelector{}, fmt.Errorf("%w: bad vendor id in %q", ErrInvalidSelector, s)
	}
	pid, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return deviceSelector{}, fmt.Errorf("%w: bad product id in %q", ErrInvalidSelector, s)
	}
	sel.vid = uint16(vid)
	sel.pid = uint16(pid)
	if len(parts) == 3 {
		sel.serial = parts[2]
	}
	return sel, nil
}

// findDevice opens the adapter matching sel. The caller owns the returned
// device.
func findDevice(ctx *gousb.Context, sel deviceSelector) (*gousb.Device, error) {
	match := func(desc *gousb.DeviceDesc) bool {
		if sel.byAddress {
			return desc.Bus == sel.bus && desc.Address == sel.addr
		}
		if uint16(desc.Vendor) != sel.vid {
			return false
		}
		if sel.pid != 0 {
			return uint16(desc.Product) == sel.pid
		}
		_, ok := knownFTDIProducts[uint16(desc.Product)]
		return ok
	}

	devs, err := ctx.OpenDevices(match)
	if err != nil && len(devs) == 0 {
		if err == gousb.ErrorAccess {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("usb enumeration: %w", err)
	}

	var picked *gousb.Device
	for _, dev := range devs {
		if picked != nil {
			dev.Close()
			continue
		}
		if sel.serial != "" {
			serial, serr := dev.SerialNumber()
			if serr != nil || strings.TrimSpace(serial) != sel.serial {
				dev.Close()
				continue
			}
		}
		picked = dev
	}
	if picked == nil {
		return nil, ErrAdapterNotFound
	}
	return picked, nil
}
