package ftdiserial

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// sysfsCharDir is where the kernel exposes char device nodes by major:minor.
// Overridable for tests.
var sysfsCharDir = "/sys/dev/char"

// readSysfsFile reads a single sysfs attribute, returning "" if unavailable
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// resolveTTYPath maps a /dev/ttyUSB* path to the USB bus number, device
// address, and interface number of the adapter behind it, so the same
// physical device can be reopened over raw USB.
func resolveTTYPath(path string) (bus, addr, iface int, err error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrAdapterNotFound, path)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return 0, 0, 0, fmt.Errorf("%w: %s is not a character device", ErrInvalidSelector, path)
	}

	node := fmt.Sprintf("%s/%d:%d", sysfsCharDir,
		unix.Major(uint64(st.Rdev)), unix.Minor(uint64(st.Rdev)))
	dir, err := filepath.EvalSymlinks(node)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: cannot resolve sysfs node for %s", ErrAdapterNotFound, path)
	}

	return walkSysfsDevice(dir)
}

// walkSysfsDevice climbs from a tty's sysfs directory toward the root,
// collecting busnum, devnum, and bInterfaceNumber from whichever ancestors
// carry them.
func walkSysfsDevice(dir string) (bus, addr, iface int, err error) {
	var haveBus, haveAddr, haveIface bool

	for {
		if !haveBus {
			if v := readSysfsFile(filepath.Join(dir, "busnum")); v != "" {
				if n, perr := strconv.Atoi(v); perr == nil {
					bus, haveBus = n, true
				}
			}
		}
		if !haveAddr {
			if v := readSysfsFile(filepath.Join(dir, "devnum")); v != "" {
				if n, perr := strconv.Atoi(v); perr == nil {
					addr, haveAddr = n, true
				}
			}
		}
		if !haveIface {
			if v := readSysfsFile(filepath.Join(dir, "bInterfaceNumber")); v != "" {
				if n, perr := strconv.ParseInt(v, 16, 32); perr == nil {
					iface, haveIface = int(n), true
				}
			}
		}
		if haveBus && haveAddr && haveIface {
			return bus, addr, iface, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return 0, 0, 0, fmt.Errorf("%w: no usb device above tty in sysfs", ErrAdapterNotFound)
}
