//go:build darwin

package screen

import (
	"runtime"
	"syscall"
)

// detectOptimalWorkers prefers the performance cluster on Apple Silicon.
func detectOptimalWorkers() int {
	for _, name := range []string{"hw.perflevel0.physicalcpu", "hw.physicalcpu"} {
		if n := sysctlCount(name); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// sysctlCount decodes a little-endian sysctl integer. syscall.Sysctl hands
// back the raw bytes rather than a decimal string.
func sysctlCount(name string) int {
	raw, err := syscall.Sysctl(name)
	if err != nil || len(raw) == 0 {
		return 0
	}
	n := int(raw[0])
	if len(raw) > 1 {
		n |= int(raw[1]) << 8
	}
	return n
}
