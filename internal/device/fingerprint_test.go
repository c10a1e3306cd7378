package device

import (
	"errors"
	"runtime"
	"testing"
)

func stubFingerprinter(id string, hw Hardware) *Fingerprinter {
	return &Fingerprinter{
		machineID: func() (string, error) { return id, nil },
		hardware:  func() (Hardware, error) { return hw, nil },
		hostname:  func() (string, error) { return "", errors.New("no hostname") },
	}
}

func TestGenerateHash(t *testing.T) {
	got := generateHash("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("generateHash(abc) = %s, want %s", got, want)
	}
}

func TestGetDeviceInfo(t *testing.T) {
	hw := Hardware{CPUModel: "Test CPU", CPUVendor: "Acme", CPUID: 0, TotalMemory: 8 << 30}
	f := stubFingerprinter("machine-1", hw)

	info, err := f.GetDeviceInfo()
	if err != nil {
		t.Fatalf("GetDeviceInfo() error = %v", err)
	}
	if info.DeviceID != "machine-1" {
		t.Errorf("DeviceID = %q, want machine-1", info.DeviceID)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
	if info.Fingerprint["hostname"] != "unknown" {
		t.Errorf("hostname = %q, want unknown", info.Fingerprint["hostname"])
	}
	if info.Fingerprint["total_memory"] != "8589934592" {
		t.Errorf("total_memory = %q", info.Fingerprint["total_memory"])
	}
	if len(info.HardwareHash) != 64 {
		t.Errorf("HardwareHash length = %d, want 64", len(info.HardwareHash))
	}

	again, _ := f.GetDeviceInfo()
	if again.HardwareHash != info.HardwareHash {
		t.Error("HardwareHash is not stable")
	}
}

func TestGetDeviceInfo_Errors(t *testing.T) {
	f := stubFingerprinter("id", Hardware{})
	f.machineID = func() (string, error) { return "", errors.New("no machine id") }
	if _, err := f.GetDeviceInfo(); err == nil {
		t.Error("expected machine ID error")
	}

	f = stubFingerprinter("id", Hardware{})
	f.hardware = func() (Hardware, error) { return Hardware{}, errors.New("probe failed") }
	if _, err := f.GetDeviceInfo(); err == nil {
		t.Error("expected hardware error")
	}
}

func TestValidateDevice(t *testing.T) {
	hw := Hardware{CPUModel: "Test CPU", TotalMemory: 1 << 30}
	stored, err := stubFingerprinter("machine-1", hw).GetDeviceInfo()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		f    *Fingerprinter
		want bool
	}{
		{name: "same device", f: stubFingerprinter("machine-1", hw), want: true},
		{name: "different machine", f: stubFingerprinter("machine-2", hw), want: false},
		{name: "different memory", f: stubFingerprinter("machine-1", Hardware{CPUModel: "Test CPU", TotalMemory: 2 << 30}), want: false},
		{name: "different cpu model", f: stubFingerprinter("machine-1", Hardware{CPUModel: "Other", TotalMemory: 1 << 30}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f.ValidateDevice(stored)
			if err != nil {
				t.Fatalf("ValidateDevice() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateDevice() = %v, want %v", got, tt.want)
			}
		})
	}
}
