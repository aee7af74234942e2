package serial

import (
	"context"
	"testing"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap/zaptest"
)

func TestScanBuildsStableIDs(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyS1"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1A86", PID: "7523"},
	}
	s := NewScannerWithLister(nil, func() ([]*enumerator.PortDetails, error) { return ports, nil }, zaptest.NewLogger(t))

	devices, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(devices) != 4 {
		t.Fatalf("Expected 4 devices, got %d", len(devices))
	}

	// both adapters report 1a86:7523, so neither keeps the VID/PID id
	want := []string{"serial:/dev/ttyUSB0", "serial:/dev/ttyS0", "serial:/dev/ttyS1", "serial:/dev/ttyUSB1"}
	for i, id := range want {
		if devices[i].ID != id {
			t.Errorf("Device %d: expected id %q, got %q", i, id, devices[i].ID)
		}
	}

	if devices[0].VendorID == nil || *devices[0].VendorID != 0x1A86 {
		t.Error("Expected vendor id to be parsed")
	}
	if devices[0].Manufacturer != "QinHeng Electronics" {
		t.Errorf("Expected vendor name from allow-list, got %q", devices[0].Manufacturer)
	}
	if devices[0].DisplayName != "USB Serial (/dev/ttyUSB0)" {
		t.Errorf("Unexpected display name %q", devices[0].DisplayName)
	}
	if devices[1].DisplayName != "Serial /dev/ttyS0" {
		t.Errorf("Unexpected display name %q", devices[1].DisplayName)
	}
}

func TestScanKeysLoneAdapterByVIDPID(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001"},
	}
	s := NewScannerWithLister(nil, func() ([]*enumerator.PortDetails, error) { return ports, nil }, zaptest.NewLogger(t))

	devices, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if devices[0].ID != "serial:1A86:7523" || devices[1].ID != "serial:0403:6001" {
		t.Errorf("Unexpected ids %q, %q", devices[0].ID, devices[1].ID)
	}
}

func TestScanKeepsPortIDAfterTwinUnplugged(t *testing.T) {
	twins := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1a86", PID: "7523"},
	}
	scans := [][]*enumerator.PortDetails{twins, twins[1:], twins}
	i := 0
	s := NewScannerWithLister(nil, func() ([]*enumerator.PortDetails, error) {
		ports := scans[i]
		i++
		return ports, nil
	}, zaptest.NewLogger(t))

	first, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if first[0].ID != "serial:/dev/ttyUSB0" || first[1].ID != "serial:/dev/ttyUSB1" {
		t.Fatalf("Expected both twins keyed by port, got %q, %q", first[0].ID, first[1].ID)
	}

	second, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(second) != 1 || second[0].ID != "serial:/dev/ttyUSB1" {
		t.Fatalf("Expected remaining twin to keep its port id, got %+v", second)
	}

	third, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if third[0].ID != "serial:/dev/ttyUSB0" {
		t.Errorf("Expected replugged twin to get its port id back, got %q", third[0].ID)
	}
}

func TestParseHexID(t *testing.T) {
	for in, want := range map[string]uint16{"04b8": 0x04B8, "0x0519": 0x0519, " 1A86 ": 0x1A86} {
		got, err := parseHexID(in)
		if err != nil || got != want {
			t.Errorf("parseHexID(%q) = %04X, %v", in, got, err)
		}
	}
	if _, err := parseHexID("zz"); err == nil {
		t.Error("Expected error for invalid hex")
	}
}
