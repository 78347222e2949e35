package ftdiserial

import (
	"os"
	"path/filepath"
	"testing"
)

// TestReadSysfsFile tests the sysfs file reading helper
func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			result := readSysfsFile(testFile)
			if result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// TestWalkSysfsDevice tests bus/address/interface extraction with a mock
// sysfs tree shaped like the real one:
//
//	usb1/           <- busnum, devnum
//	  1-4/
//	    1-4:1.1/    <- bInterfaceNumber
//	      ttyUSB0/  <- walk starts here
func TestWalkSysfsDevice(t *testing.T) {
	tmpDir := t.TempDir()

	devDir := filepath.Join(tmpDir, "usb1")
	intfDir := filepath.Join(devDir, "1-4", "1-4:1.1")
	ttyDir := filepath.Join(intfDir, "ttyUSB0")
	if err := os.MkdirAll(ttyDir, 0755); err != nil {
		t.Fatalf("Failed to create mock sysfs tree: %v", err)
	}

	writeAttr := func(dir, name, value string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	writeAttr(devDir, "busnum", "1")
	writeAttr(devDir, "devnum", "5")
	writeAttr(intfDir, "bInterfaceNumber", "01")

	bus, addr, iface, err := walkSysfsDevice(ttyDir)
	if err != nil {
		t.Fatalf("walkSysfsDevice failed: %v", err)
	}
	if bus != 1 {
		t.Errorf("bus = %d, want 1", bus)
	}
	if addr != 5 {
		t.Errorf("addr = %d, want 5", addr)
	}
	if iface != 1 {
		t.Errorf("iface = %d, want 1 (parsed as hex)", iface)
	}
}

func TestWalkSysfsDeviceInterfaceZero(t *testing.T) {
	tmpDir := t.TempDir()

	devDir := filepath.Join(tmpDir, "usb3")
	intfDir := filepath.Join(devDir, "3-2", "3-2:1.0")
	if err := os.MkdirAll(intfDir, 0755); err != nil {
		t.Fatalf("Failed to create mock sysfs tree: %v", err)
	}
	os.WriteFile(filepath.Join(devDir, "busnum"), []byte("3\n"), 0644)
	os.WriteFile(filepath.Join(devDir, "devnum"), []byte("2\n"), 0644)
	os.WriteFile(filepath.Join(intfDir, "bInterfaceNumber"), []byte("00\n"), 0644)

	bus, addr, iface, err := walkSysfsDevice(intfDir)
	if err != nil {
		t.Fatalf("walkSysfsDevice failed: %v", err)
	}
	if bus != 3 || addr != 2 || iface != 0 {
		t.Errorf("got (%d, %d, %d), want (3, 2, 0)", bus, addr, iface)
	}
}

func TestWalkSysfsDeviceMissingAttributes(t *testing.T) {
	tmpDir := t.TempDir()

	// busnum/devnum without an interface number
	if err := os.WriteFile(filepath.Join(tmpDir, "busnum"), []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "devnum"), []byte("5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := walkSysfsDevice(tmpDir)
	if err == nil {
		t.Error("Expected error for incomplete sysfs tree")
	}
}
