// Package resources inspects the machine the audit runs on and picks a
// feasible inference configuration. Probing never fails a call: errors
// degrade to a minimal-resource assumption with a warning.
package resources

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"call-audit-go/internal/logger"
)

// Profile is the capability snapshot the selector works from.
type Profile struct {
	HasAccelerator bool
	FreeMemoryGB   float64
	CPUCores       int
}

// acceleratorDevices are the device nodes whose presence signals a usable
// compute accelerator (NVIDIA, AMD ROCm).
var acceleratorDevices = []string{"/dev/nvidia0", "/dev/kfd"}

// Detect probes the local machine. No network calls.
func Detect() Profile {
	log := logger.New().WithField("module", "resources")

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		log.WithError(err).Warn("resource probe failed, assuming minimal resources")
		return Minimal()
	}
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	freeGB := float64((uint64(si.Freeram)+uint64(si.Bufferram))*unit) / (1 << 30)

	p := Profile{
		HasAccelerator: detectAccelerator(),
		FreeMemoryGB:   freeGB,
		CPUCores:       runtime.NumCPU(),
	}
	log.WithFields(map[string]interface{}{
		"accelerator": p.HasAccelerator,
		"free_mem_gb": p.FreeMemoryGB,
		"cpu_cores":   p.CPUCores,
	}).Info("resources detected")
	return p
}

// Minimal is the assume-nothing profile used when probing fails.
func Minimal() Profile {
	return Profile{HasAccelerator: false, FreeMemoryGB: 1, CPUCores: 1}
}

func detectAccelerator() bool {
	for _, dev := range acceleratorDevices {
		if _, err := os.Stat(dev); err == nil {
			return true
		}
	}
	return false
}
