package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/jaypipes/ghw"

	"filecrypt/internal/storage"
)

// appID scopes the machine ID so the raw value never leaves the host.
const appID = "filecrypt"

// Hardware is the subset of host details that feeds the fingerprint.
type Hardware struct {
	CPUModel    string
	CPUVendor   string
	CPUID       int
	TotalMemory int64
}

// Fingerprinter generates device-specific information
type Fingerprinter struct {
	machineID func() (string, error)
	hardware  func() (Hardware, error)
	hostname  func() (string, error)
}

// New creates a Fingerprinter backed by the host machine ID and ghw probes.
func New() *Fingerprinter {
	return &Fingerprinter{
		machineID: func() (string, error) { return machineid.ProtectedID(appID) },
		hardware:  probeHardware,
		hostname:  os.Hostname,
	}
}

func probeHardware() (Hardware, error) {
	cpu, err := ghw.CPU()
	if err != nil {
		return Hardware{}, fmt.Errorf("failed to get CPU info: %w", err)
	}

	memory, err := ghw.Memory()
	if err != nil {
		return Hardware{}, fmt.Errorf("failed to get memory info: %w", err)
	}

	hw := Hardware{TotalMemory: memory.TotalPhysicalBytes}
	// Containers and some VMs expose no processor entries.
	if len(cpu.Processors) > 0 {
		hw.CPUModel = cpu.Processors[0].Model
		hw.CPUVendor = cpu.Processors[0].Vendor
		hw.CPUID = cpu.Processors[0].ID
	}
	return hw, nil
}

// GetDeviceInfo collects hardware-specific information
func (f *Fingerprinter) GetDeviceInfo() (storage.DeviceInfo, error) {
	machineID, err := f.machineID()
	if err != nil {
		return storage.DeviceInfo{}, fmt.Errorf("failed to get machine ID: %w", err)
	}

	hw, err := f.hardware()
	if err != nil {
		return storage.DeviceInfo{}, err
	}

	hostname, err := f.hostname()
	if err != nil {
		hostname = "unknown"
	}

	fingerprints := map[string]string{
		"cpu_model":    hw.CPUModel,
		"cpu_vendor":   hw.CPUVendor,
		"total_memory": strconv.FormatInt(hw.TotalMemory, 10),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"hostname":     hostname,
	}

	hashInput := []string{
		machineID,
		strconv.Itoa(hw.CPUID),
		strconv.FormatInt(hw.TotalMemory, 10),
		runtime.GOOS,
		runtime.GOARCH,
	}

	return storage.DeviceInfo{
		DeviceID:     machineID,
		HardwareHash: generateHash(strings.Join(hashInput, "|")),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		Fingerprint:  fingerprints,
	}, nil
}

// ValidateDevice reports whether the current host is the one that produced
// storedInfo.
func (f *Fingerprinter) ValidateDevice(storedInfo storage.DeviceInfo) (bool, error) {
	currentInfo, err := f.GetDeviceInfo()
	if err != nil {
		return false, fmt.Errorf("failed to get current device info: %w", err)
	}

	if currentInfo.DeviceID != storedInfo.DeviceID ||
		currentInfo.HardwareHash != storedInfo.HardwareHash {
		return false, nil
	}

	// Hostname may change; CPU and memory should not.
	if currentInfo.Fingerprint["cpu_model"] != storedInfo.Fingerprint["cpu_model"] ||
		currentInfo.Fingerprint["total_memory"] != storedInfo.Fingerprint["total_memory"] {
		return false, nil
	}

	return true, nil
}

func generateHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
